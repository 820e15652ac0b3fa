package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tickettractor/backend/internal/services"
	"github.com/tickettractor/backend/pkg/response"
)

const ContextCredentials = "credentials"

// SessionResolver resolves a bearer session handle to live Jira credentials.
type SessionResolver interface {
	ResolveSession(handle string) (*services.Credentials, error)
}

// SessionRequired validates the Authorization bearer handle, resolves it to
// live credentials (refreshing the Jira token when needed), and places them in
// the request context.
func SessionRequired(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := BearerHandle(c)
		if handle == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		creds, err := resolver.ResolveSession(handle)
		if err != nil {
			response.Unauthorized(c, "invalid or expired session")
			c.Abort()
			return
		}

		c.Set(ContextCredentials, creds)
		c.Next()
	}
}

// BearerHandle extracts the session handle from the Authorization header.
// Returns "" when the header is missing or malformed.
func BearerHandle(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// GetCredentials returns the resolved credentials from the context. Only
// valid behind SessionRequired.
func GetCredentials(c *gin.Context) *services.Credentials {
	if v, exists := c.Get(ContextCredentials); exists {
		return v.(*services.Credentials)
	}
	return nil
}
