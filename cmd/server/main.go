package main

import (
	"fmt"
	"html/template"
	"log"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"threadkit/internal/config"
	"threadkit/internal/db"
	"threadkit/internal/discussion"
	"threadkit/internal/interaction"
	"threadkit/internal/middleware"
	"threadkit/internal/router"
	"threadkit/internal/services"
	"threadkit/internal/utils"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	fetcher, err := newFetcher(cfg)
	if err != nil {
		log.Fatalf("Failed to set up discussion source: %v", err)
	}
	cached := services.NewCachedFetcher(fetcher, utils.GetCache(), cfg.FetchTTL)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = interaction.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		log.Println("Interaction state stored in redis")
	}

	renderer := utils.MarkdownRenderer{}
	registry := services.NewSessionRegistry(cfg.MaxSessions, func(viewerID string) *discussion.Session {
		var state interaction.Store = interaction.NewMemoryStore()
		if redisClient != nil {
			state = interaction.NewRedisStore(redisClient, viewerID, cfg.StateTTL)
		}
		return discussion.NewSession(discussion.Config{
			Fetcher:     cached,
			Invalidator: cached,
			Renderer:    renderer,
			State:       state,
			MaxDepth:    cfg.MaxDepth,
			TruncateAt:  cfg.TruncateAt,
		})
	})
	reconciler := services.NewReconciler(cfg.ReconcileDelay, cached)
	writer := services.NewWriter(services.NewRelayClient(cfg.RelayURL), reconciler)

	// Initialize Gin
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("threadkit_session", store))

	r.HTMLRender = loadTemplates(cfg.TemplatesDir)
	r.Static("/static", "./web/static")

	r.Use(middleware.LoadUser())
	router.RegisterRoutes(r, router.Deps{Sessions: registry, Writer: writer})

	log.Printf("threadkit server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

func newFetcher(cfg config.Config) (discussion.Fetcher, error) {
	switch cfg.Source {
	case config.SourceMirror:
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Println("Reading discussions from the postgres mirror")
		return services.NewMirrorFetcher(conn), nil
	case config.SourceHive, "":
		log.Printf("Reading discussions from %s", cfg.HiveAPIURL)
		return services.NewHiveClient(cfg.HiveAPIURL), nil
	}
	return nil, fmt.Errorf("unknown DISCUSSION_SOURCE %q", cfg.Source)
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	components, err := filepath.Glob(templatesDir + "/components/*.html")
	if err != nil {
		panic(err)
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(components)+1)
		files = append(files, layouts...)
		files = append(files, components...)
		files = append(files, view)
		return files
	}

	funcMap := template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"timeAgo": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			seconds := int(time.Since(t).Seconds())
			switch {
			case seconds < 60:
				return "just now"
			case seconds < 3600:
				return fmt.Sprintf("%dm ago", seconds/60)
			case seconds < 86400:
				return fmt.Sprintf("%dh ago", seconds/3600)
			case seconds < 2592000:
				return fmt.Sprintf("%dd ago", seconds/86400)
			case seconds < 31536000:
				return fmt.Sprintf("%dmo ago", seconds/2592000)
			}
			return fmt.Sprintf("%dy ago", seconds/31536000)
		},
		"gt": func(a, b int) bool {
			return a > b
		},
		"urlquery": func(s string) string {
			return url.QueryEscape(s)
		},
		"pathKey": func(key string) string {
			// "author/permlink" as two path segments
			return strings.Replace(url.PathEscape(key), "%2F", "/", 1)
		},
	}

	r.AddFromFilesFuncs("discussion/thread.html", funcMap, assemble(templatesDir+"/views/discussion/thread.html")...)
	r.AddFromFilesFuncs("auth/login.html", funcMap, assemble(templatesDir+"/views/auth/login.html")...)
	r.AddFromFilesFuncs("error.html", funcMap, assemble(templatesDir+"/views/error.html")...)

	return r
}
