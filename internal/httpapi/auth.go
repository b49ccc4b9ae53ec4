package httpapi

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// basicAuth accepts requests whose basic-auth user equals user and whose
// password matches the bcrypt hash.
func basicAuth(user, passwordHash string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, password, ok := c.Request.BasicAuth()
		if !ok || !secureEqual(id, user) ||
			bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
			log.Info("unauthorized request",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"credentials", "invalid_or_missing")
			c.Header("WWW-Authenticate", `Basic realm="tally"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}
		c.Next()
	}
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
