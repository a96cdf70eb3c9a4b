// README: Prometheus metrics for the HTTP surface, search and trip actions.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trips"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SearchCandidates    prometheus.Counter
	SearchMatches       prometheus.Counter
	SearchRejections    *prometheus.CounterVec
	TripActions         *prometheus.CounterVec
	MirrorFailures      *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests handled",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		SearchCandidates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_candidates_total",
			Help:      "Open trips evaluated by search",
		}),
		SearchMatches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_matches_total",
			Help:      "Trips returned by search",
		}),
		SearchRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_rejections_total",
			Help:      "Trips rejected by search, by reason",
		}, []string{"reason"}),
		TripActions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trip_actions_total",
			Help:      "Trip mutations by action and result",
		}, []string{"action", "result"}),
		MirrorFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_update_failures_total",
			Help:      "my_trips updates that failed after the trip was committed",
		}, []string{"action"}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Trip events handed to the publisher, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSearch(candidates, matches int, rejections map[string]int) {
	if m == nil {
		return
	}
	m.SearchCandidates.Add(float64(candidates))
	m.SearchMatches.Add(float64(matches))
	for reason, n := range rejections {
		m.SearchRejections.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *Metrics) ObserveAction(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.TripActions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) MirrorFailed(action string) {
	if m == nil {
		return
	}
	m.MirrorFailures.WithLabelValues(action).Inc()
}

func (m *Metrics) EventPublished(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(result).Inc()
}
