package router

import (
	"net/http"

	"threadkit/internal/handlers"
	"threadkit/internal/middleware"
	"threadkit/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps are the services the routes are served from.
type Deps struct {
	Sessions *services.SessionRegistry
	Writer   *services.Writer
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	authHandler := handlers.NewAuthHandler()
	discussionHandler := handlers.NewDiscussionHandler(deps.Sessions, deps.Writer)
	liveHandler := handlers.NewLiveHandler(deps.Sessions)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// Public routes
	r.GET("/d/:author/:permlink", discussionHandler.Show)                 // thread view (HTML or ?format=json)
	r.POST("/d/:author/:permlink/refresh", discussionHandler.Refresh)     // refetch / retry
	r.GET("/d/:author/:permlink/live", liveHandler.Stream)                // session events
	r.POST("/d/:author/:permlink/nodes/:nauthor/:npermlink/:action", discussionHandler.NodeAction)

	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// Writes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/vote", discussionHandler.Vote)
		authorized.POST("/comment", discussionHandler.Comment)
	}
}
