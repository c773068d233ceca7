package middleware

import (
	"net/http"
	"strings"

	"giftkit/models"
	"giftkit/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// TokenValidator is the part of utils.TokenManager the middleware needs.
type TokenValidator interface {
	ValidateToken(token string) (*utils.TokenClaims, error)
}

// BearerToken returns the raw token of an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// JWTAuth validates the bearer token and stores the caller in the context.
func JWTAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := BearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Insufficient authorization"})
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Invalid token"})
			return
		}
		role, err := models.ParseRole(claims.Role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Invalid token"})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, role)
		c.Next()
	}
}

// ActorFrom returns the authenticated caller, if any.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	userID := c.GetString(ContextUserID)
	roleVal, ok := c.Get(ContextRole)
	if !ok || userID == "" {
		return models.Actor{}, false
	}
	role, ok := roleVal.(models.Role)
	if !ok {
		return models.Actor{}, false
	}
	return models.Actor{UserID: userID, Role: role}, true
}
