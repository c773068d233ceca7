package middleware

import (
	"net/http"

	"giftkit/models"
	"giftkit/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole lets through callers holding one of roles. It must run after JWTAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Insufficient authorization"})
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{Message: "Access denied"})
	}
}
