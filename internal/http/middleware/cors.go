// README: CORS policy for browser clients, built on gin-contrib/cors.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}
	corsHeaders = []string{"Content-Type", "Authorization", "X-Requested-With", "Accept"}
)

// AllowedOrigin reports whether a request origin may call the API. An empty
// list or a "*" entry allows every origin.
func AllowedOrigin(origin string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// CORS echoes allowed origins with credentials and answers preflight requests
// with 200. Requests from other origins are refused with 403.
func CORS(allowed []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return AllowedOrigin(origin, allowed)
		},
		AllowMethods:              corsMethods,
		AllowHeaders:              corsHeaders,
		AllowCredentials:          true,
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	})
}

// Preflight answers OPTIONS requests that reach routing without an Origin header.
func Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}
