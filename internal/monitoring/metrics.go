// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Métriques Prometheus pour le service Duel
var (
	DuelsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duel_started_total",
			Help: "Total number of duels started",
		},
		[]string{"kind"},
	)

	DuelsEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duel_ended_total",
			Help: "Total number of duels ended",
		},
		[]string{"kind", "result"},
	)

	LiveDuels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "duel_live",
			Help: "Number of currently live duels",
		},
	)

	LiveJournals = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "duel_journals_live",
			Help: "Number of currently open duel journals",
		},
	)

	JournalsClosedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duel_journals_closed_total",
			Help: "Total number of duel journals closed and persisted",
		},
	)

	JournalEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duel_journal_events_total",
			Help: "Total number of journal events recorded",
		},
		[]string{"type"},
	)

	RivalriesFormedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duel_rivalries_formed_total",
			Help: "Total number of rivalries that crossed the threshold",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// Metrics structure pour gérer les métriques
type Metrics struct {
	registry *prometheus.Registry
}

// NewMetrics crée une nouvelle instance de metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	// Enregistrer les métriques
	registry.MustRegister(DuelsStartedTotal)
	registry.MustRegister(DuelsEndedTotal)
	registry.MustRegister(LiveDuels)
	registry.MustRegister(LiveJournals)
	registry.MustRegister(JournalsClosedTotal)
	registry.MustRegister(JournalEventsTotal)
	registry.MustRegister(RivalriesFormedTotal)
	registry.MustRegister(HTTPRequestsTotal)
	registry.MustRegister(HTTPRequestDuration)

	logrus.Info("Prometheus metrics initialized")

	return &Metrics{
		registry: registry,
	}
}

// Handler retourne le handler Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware Prometheus pour instrumenter les requêtes HTTP
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Traiter la requête
		c.Next()

		// Mesurer et enregistrer les métriques
		duration := time.Since(start).Seconds()
		statusCode := c.Writer.Status()

		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			http.StatusText(statusCode),
		).Inc()

		HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}
