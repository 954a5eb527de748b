package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autodealer/internal/authz"
	"autodealer/internal/models"
)

type TokenParser interface {
	ParseToken(token string) (int64, error)
}

type AdminLoader interface {
	GetByID(ctx context.Context, id int64) (*models.Admin, error)
}

// public endpoints that do not need a token
func isPublicPath(path string) bool {
	switch path {
	case "/login", "/healthz", "/integrations/telegram/webhook":
		return true
	}
	return strings.HasPrefix(path, "/swagger/")
}

// bearerToken reads "Authorization: Bearer ..." and falls back to ?token=
// for websocket handshakes.
func bearerToken(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(c.Query("token"))
}

// AuthMiddleware resolves the JWT to a live admin and stores the resulting
// authz.Actor in the context.
func AuthMiddleware(tokens TokenParser, admins AdminLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		adminID, err := tokens.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// admins removed after the token was issued lose access at once
		admin, err := admins.GetByID(c.Request.Context(), adminID)
		if err != nil {
			logrus.WithField("admin_id", adminID).WithError(err).Info("[auth] token for unknown admin")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(authz.ContextKey, authz.FromAdmin(admin))
		c.Next()
	}
}
