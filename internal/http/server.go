// README: API gateway; wires module services into the gin engine.
package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/infra"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/logger"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/matching"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/trip"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/user"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/observability"
)

type ServerDeps struct {
	Trips       *trip.Service
	Matching    *matching.Service
	Users       *user.Service
	Verifier    infra.TokenVerifier
	Logger      logger.Logger
	Metrics     *observability.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	return NewRouter(s.deps)
}
