package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to a customer id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// JWTAuthCustomerMiddleware rejects requests without a live customer token.
func JWTAuthCustomerMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Insufficient authorization"})
			return
		}
		customerID, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil || customerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Insufficient authorization"})
			return
		}
		c.Set("customerID", customerID)
		c.Set("token", token)
		c.Next()
	}
}

// OptionalCustomerAuth attaches the customer when a valid token is sent and
// lets anonymous visitors through otherwise.
func OptionalCustomerAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if customerID, err := auth.Authenticate(c.Request.Context(), token); err == nil && customerID != "" {
				c.Set("customerID", customerID)
				c.Set("token", token)
			}
		}
		c.Next()
	}
}
