package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// requestTotal counts HTTP requests by server, route and status
	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gopower_http_requests_total",
		Help: "Total HTTP requests by server, route and status",
	}, []string{"server", "route", "status"})

	// requestDuration tracks request latency
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gopower_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"server", "route"})

	// calculationTotal counts calculations by kind and outcome
	calculationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gopower_calculations_total",
		Help: "Total calculations by kind and outcome",
	}, []string{"kind", "outcome"})
)

// ObserveRequest records one finished HTTP request
func ObserveRequest(server, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestTotal.WithLabelValues(server, route, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(server, route).Observe(elapsed.Seconds())
}

// ObserveCalculation records the outcome of one calculation
func ObserveCalculation(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	calculationTotal.WithLabelValues(kind, outcome).Inc()
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
