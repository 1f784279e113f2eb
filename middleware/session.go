package middleware

import (
	"labbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxSessionIDLength = 64

// VisitorSession makes sure every request carries a visitor session id. A
// missing or malformed id is replaced with a fresh one; the id in use is always
// echoed back so the storefront can keep it.
func VisitorSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(utils.SessionHeader)
		if !validSessionID(id) {
			id = uuid.NewString()
		}
		c.Set("sessionID", id)
		c.Header(utils.SessionHeader, id)
		c.Next()
	}
}

func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// SessionID returns the id set by VisitorSession.
func SessionID(c *gin.Context) string {
	return c.GetString("sessionID")
}
