// Package metrics exports Prometheus counters for phrase delivery and play.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "anagramgame"

var (
	PhrasesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "phrases_delivered_total",
		Help:      "Phrases handed to players, by delivery type.",
	}, []string{"type"})

	PhrasesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "phrases_exhausted_total",
		Help:      "Next-phrase requests with nothing eligible left.",
	})

	HintsUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hints_used_total",
		Help:      "First-time hint reveals, by level.",
	}, []string{"level"})

	Completions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completions_total",
		Help:      "Phrases completed for the first time.",
	})

	Skips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "skips_total",
		Help:      "Phrases skipped for the first time.",
	})

	PhrasesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "phrases_submitted_total",
		Help:      "Accepted phrase submissions, by origin.",
	}, []string{"origin"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveRequest records one served HTTP request. route must be the
// router pattern, not the raw path.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// HintLevel labels a hint level
func HintLevel(level int) string {
	return strconv.Itoa(level)
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
