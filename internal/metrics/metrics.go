// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Recorder struct {
	mutations        *prometheus.CounterVec
	recommendations  *prometheus.CounterVec
	recommendLatency prometheus.Histogram
	ingested         *prometheus.CounterVec
}

// New registers the collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		mutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashback_mutations_total",
				Help: "Create, update and delete operations by entity and outcome",
			},
			[]string{"entity", "op", "status"},
		),
		recommendations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashback_recommendations_total",
				Help: "Recommendation queries by result",
			},
			[]string{"result"},
		),
		recommendLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cashback_recommendation_duration_seconds",
				Help:    "Recommendation query duration",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		ingested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashback_ingested_entries_total",
				Help: "Ingested OCR entries by outcome",
			},
			[]string{"status"},
		),
	}
}

// Nop returns a recorder bound to a private registry.
func Nop() *Recorder {
	return New(prometheus.NewRegistry())
}

func (r *Recorder) Mutation(entity, op string, err error) {
	r.mutations.WithLabelValues(entity, op, status(err)).Inc()
}

func (r *Recorder) Recommendation(results int, err error, elapsed time.Duration) {
	result := "hit"
	switch {
	case err != nil:
		result = "error"
	case results == 0:
		result = "empty"
	}
	r.recommendations.WithLabelValues(result).Inc()
	r.recommendLatency.Observe(elapsed.Seconds())
}

func (r *Recorder) Ingested(created, failed int) {
	r.ingested.WithLabelValues("created").Add(float64(created))
	r.ingested.WithLabelValues("failed").Add(float64(failed))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
