// README: HTTP router registration.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/http/handlers"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/http/middleware"
)

func NewRouter(deps ServerDeps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		middleware.Recovery(deps.Logger),
		middleware.Logging(deps.Logger, deps.Metrics),
		middleware.CORS(deps.CORSOrigins),
	)
	r.NoMethod(methodNotAllowed)
	r.NoRoute(routeNotFound)

	r.GET("/health", health)
	r.GET("/metrics", metricsHandler(deps.Gatherer))
	r.OPTIONS("/api/trips", middleware.Preflight)
	r.OPTIONS("/api/users/phone", middleware.Preflight)

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	tripHandler := handlers.NewTripHandler(deps.Trips, deps.Matching, deps.Logger)
	api.GET("/trips", tripHandler.List)
	api.POST("/trips", tripHandler.Create)
	api.PATCH("/trips", tripHandler.Patch)

	userHandler := handlers.NewUserHandler(deps.Users, deps.Logger)
	api.GET("/users/phone", userHandler.Phone)

	return r
}
