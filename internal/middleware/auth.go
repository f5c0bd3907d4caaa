package middleware

import (
	"net/http"

	"threadkit/internal/models"
	"threadkit/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CredentialsKey = "credentials"
	ViewerKey      = "viewer_id"

	sessionUsername = "username"
	sessionToken    = "access_token"
)

// AuthRequired rejects writes from visitors who have not logged in. Writes are
// JSON calls, so the answer is a JSON prompt rather than a redirect.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentCredentials(c).IsZero() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "log in to vote or comment",
				"code":  "unauthenticated",
				"login": "/login",
			})
			return
		}
		c.Next()
	}
}

// LoadUser retrieves the viewer's credentials from the cookie session and ensures
// every visitor has a viewer id.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		viewerID, _ := session.Get(ViewerKey).(string)
		if viewerID == "" {
			viewerID = utils.NewID()
			session.Set(ViewerKey, viewerID)
			session.Save()
		}
		c.Set(ViewerKey, viewerID)

		username, _ := session.Get(sessionUsername).(string)
		token, _ := session.Get(sessionToken).(string)
		c.Set(CredentialsKey, models.Credentials{Username: username, AccessToken: token})
		c.Next()
	}
}

// SaveCredentials stores a login in the cookie session.
func SaveCredentials(c *gin.Context, creds models.Credentials) error {
	session := sessions.Default(c)
	session.Set(sessionUsername, creds.Username)
	session.Set(sessionToken, creds.AccessToken)
	return session.Save()
}

// ClearCredentials logs the viewer out but keeps the viewer id.
func ClearCredentials(c *gin.Context) error {
	session := sessions.Default(c)
	session.Delete(sessionUsername)
	session.Delete(sessionToken)
	return session.Save()
}

func CurrentCredentials(c *gin.Context) models.Credentials {
	if v, ok := c.Get(CredentialsKey); ok {
		if creds, ok := v.(models.Credentials); ok {
			return creds
		}
	}
	return models.Credentials{}
}

func ViewerID(c *gin.Context) string {
	return c.GetString(ViewerKey)
}
