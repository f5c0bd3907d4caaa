package handlers

import (
	"net/http"
	"strings"

	"threadkit/internal/middleware"
	"threadkit/internal/models"

	"github.com/gin-gonic/gin"
)

// AuthHandler keeps a Hive username and the relay access token in the cookie
// session. Nothing is verified here; the relay rejects bad tokens on first write.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Next": c.Query("next")})
}

type loginForm struct {
	Username    string `json:"username" form:"username"`
	AccessToken string `json:"access_token" form:"access_token"`
	Next        string `json:"next" form:"next"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	_ = c.ShouldBind(&form)
	creds := models.Credentials{
		Username:    strings.ToLower(strings.TrimPrefix(strings.TrimSpace(form.Username), "@")),
		AccessToken: strings.TrimSpace(form.AccessToken),
	}

	if creds.IsZero() {
		if wantsJSON(c) {
			writeError(c, http.StatusBadRequest, "invalid_login", "username and access token are required")
			return
		}
		Render(c, http.StatusBadRequest, "auth/login.html", gin.H{"Error": "Username and access token are required", "Next": form.Next})
		return
	}
	if err := middleware.SaveCredentials(c, creds); err != nil {
		respondError(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"username": creds.Username})
		return
	}
	next := form.Next
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearCredentials(c)
	c.Redirect(http.StatusFound, "/")
}
