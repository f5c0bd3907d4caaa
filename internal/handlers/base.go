package handlers

import (
	"errors"
	"net/http"

	"threadkit/internal/discussion"
	"threadkit/internal/middleware"
	"threadkit/internal/services"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like the logged-in user
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if creds := middleware.CurrentCredentials(c); !creds.IsZero() {
		obj["CurrentUser"] = creds.Username
	}
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Retry": c.Request.URL.RequestURI()})
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

func wantsJSON(c *gin.Context) bool {
	return c.Query("format") == "json" || c.GetHeader("Accept") == "application/json"
}

// errorStatus maps domain errors onto HTTP statuses and stable codes.
func errorStatus(err error) (int, string) {
	var subErr *services.SubmitError
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, services.ErrInvalidSubmission):
		return http.StatusBadRequest, "invalid_submission"
	case errors.Is(err, services.ErrSubmitInFlight):
		return http.StatusConflict, "submit_in_flight"
	case errors.As(err, &subErr):
		return http.StatusBadGateway, "rejected"
	case errors.Is(err, discussion.ErrFetchFailed):
		return http.StatusBadGateway, "fetch_failed"
	case errors.Is(err, discussion.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, discussion.ErrNoRoot):
		return http.StatusConflict, "no_discussion"
	case errors.Is(err, discussion.ErrStaleFetch):
		return http.StatusConflict, "stale_fetch"
	}
	return http.StatusInternalServerError, "internal"
}

func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if wantsJSON(c) || c.Request.Method != http.MethodGet {
		writeError(c, status, code, err.Error())
		return
	}
	RenderError(c, status, err.Error())
}
