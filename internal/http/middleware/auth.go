// README: Bearer-token auth middleware backed by the Firebase verifier.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MacTheAnon/joco-exec/internal/infra"
)

const (
	ctxUID      = "caller_uid"
	ctxRole     = "caller_role"
	ctxApproved = "caller_approved"
)

// Auth verifies the Authorization bearer token and stashes the caller's
// identity on the gin context. Role and approval come from custom claims
// managed by the account backoffice.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if !strings.HasPrefix(raw, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimPrefix(raw, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUID, token.UID)
		if role, ok := token.Claims["role"].(string); ok {
			c.Set(ctxRole, role)
		}
		if approved, ok := token.Claims["approved"].(bool); ok {
			c.Set(ctxApproved, approved)
		}
		c.Next()
	}
}

// RequireRole gates a route to the given roles. Must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := CallerRole(c)
		for _, r := range roles {
			if got == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

func CallerUID(c *gin.Context) string {
	return c.GetString(ctxUID)
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

func CallerApproved(c *gin.Context) bool {
	return c.GetBool(ctxApproved)
}
