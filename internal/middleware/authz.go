package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autodealer/internal/authz"
)

func actor(c *gin.Context) (authz.Actor, bool) {
	v, ok := c.Get(authz.ContextKey)
	if !ok {
		return authz.Actor{}, false
	}
	a, ok := v.(authz.Actor)
	return a, ok
}

// LeadAccessGuard lets admins with canViewLeads read and admins with
// canManageLeads write. Viewers are read-only.
func LeadAccessGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if !a.CanViewLeads() {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		default:
			if !a.CanManageLeads() {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "read-only access"})
				return
			}
		}
		c.Next()
	}
}

// RequireSuper restricts a route to super admins.
func RequireSuper() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := actor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !a.IsSuper {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
