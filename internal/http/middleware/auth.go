// README: Auth middleware verifying Firebase ID tokens from the Authorization header.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/infra"
)

const (
	ctxCallerUID   = "caller_uid"
	ctxCallerEmail = "caller_email"
	bearerPrefix   = "Bearer "
)

// Auth rejects requests without a valid bearer token and stores the caller on the context.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			return
		}

		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		switch {
		case errors.Is(err, infra.ErrTokenExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			return
		case errors.Is(err, infra.ErrTokenInvalid):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": err.Error(),
			})
			return
		case token == nil || token.UID == "":
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ctxCallerUID, token.UID)
		c.Set(ctxCallerEmail, token.Email)
		c.Next()
	}
}

func CallerUID(c *gin.Context) string {
	return c.GetString(ctxCallerUID)
}

// CallerEmail is empty when the token carries no email claim.
func CallerEmail(c *gin.Context) string {
	return c.GetString(ctxCallerEmail)
}
