// Package metrics captures low-cardinality HTTP server metrics.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request duration and in-flight counts.
type HTTPMetrics struct {
	requestDuration *prometheus.HistogramVec
	inFlight        *prometheus.GaugeVec
}

// NewHTTPMetrics registers HTTP metrics on the default registry.
func NewHTTPMetrics() (*HTTPMetrics, error) {
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dermalens",
		Subsystem: "http",
		Name:      "server_duration_ms",
		Help:      "Inbound request duration in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"endpoint", "status_code"})
	inFlight := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dermalens",
		Subsystem: "http",
		Name:      "server_in_flight",
		Help:      "Inbound requests currently being served.",
	}, []string{"endpoint"})

	if err := prometheus.Register(requestDuration); err != nil {
		return nil, err
	}
	if err := prometheus.Register(inFlight); err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		requestDuration: requestDuration,
		inFlight:        inFlight,
	}, nil
}

// GinMiddleware records per-request metrics keyed by route template.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		endpoint := normalizeEndpoint(c.FullPath())
		m.inFlight.WithLabelValues(endpoint).Inc()
		start := time.Now()
		c.Next()
		m.inFlight.WithLabelValues(endpoint).Dec()

		status := strconv.Itoa(c.Writer.Status())
		m.requestDuration.WithLabelValues(endpoint, status).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "unknown"
	}
	return endpoint
}
