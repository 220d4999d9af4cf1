package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole restricts a route group to tokens carrying one of the
// given roles. Runs after RequireAuth, which put the role claim on the
// context; player tokens carry no role and stop here.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("user_role")
		for _, allowed := range roles {
			if role != "" && role == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Operator access required"})
	}
}
