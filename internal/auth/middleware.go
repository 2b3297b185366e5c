package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourname/medtracker/internal"
	"github.com/yourname/medtracker/internal/config"
	"github.com/yourname/medtracker/internal/session"
)

const SessionKey = "session"

// Middleware resolves the bearer token into a Session and stores it on the
// request context. Requests without a valid token are rejected here, so
// handlers downstream always see a session (though it may still expire).
func Middleware(provider Provider, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		sess := session.New(cfg.SessionTTL)
		sess.Begin()

		var user *internal.User
		var err error
		if cfg.AuthMode == "local" {
			user, err = provider.ValidateTokenLocal(token)
		} else {
			// remote and token modes both need the request context.
			user, err = provider.ValidateTokenRemote(c.Request.Context(), token)
		}
		if err != nil {
			sess.Expire()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		sess.Authenticate(user)
		c.Set(SessionKey, sess)
		c.Next()
	}
}

// SessionFrom pulls the resolved session off the gin context.
func SessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(SessionKey).(*session.Session)
}
