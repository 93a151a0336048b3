package middleware

import (
	"net/http"
	"strings"

	"niveshx-api/internal/identity"
	"niveshx-api/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	accountIDKey = "accountID"
	identityKey  = "identity"
	bearerPrefix = "Bearer "
)

// AccountIDFromContext returns the account id RequireBearer attached.
func AccountIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(accountIDKey)
	return id, id != ""
}

// IdentityFromContext returns the full verified identity.
func IdentityFromContext(c *gin.Context) (*identity.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*identity.Identity)
	return id, ok
}

// RequireBearer authenticates the request from its Authorization header.
// Requests without a bearer credential are rejected before the verifier
// is consulted.
func RequireBearer(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract the credential
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if !strings.HasPrefix(header, bearerPrefix) || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		// 2. Verify it
		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			switch identity.KindOf(err) {
			case identity.KindExpired:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			case identity.KindInvalid:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			default:
				logger.Error("token verification unavailable", map[string]any{
					"path":  c.FullPath(),
					"error": err,
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			}
			return
		}

		// 3. Attach the identity
		c.Set(accountIDKey, id.AccountID)
		c.Set(identityKey, id)
		c.Next()
	}
}
