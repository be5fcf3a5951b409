// Package metrics provides Prometheus collectors shared by the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "classifier_web"

// Outcome labels for prediction results.
const (
	OutcomeSuccess   = "success"
	OutcomeHTTPError = "http_error"
	OutcomeMalformed = "malformed"
	OutcomeTransport = "transport_error"
)

// Metrics holds the collectors for prediction calls.
type Metrics struct {
	Predictions        *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
}

// New creates the collectors and registers them on reg.
// Passing prometheus.DefaultRegisterer exposes them through promhttp.Handler().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Total number of prediction requests sent to the prediction service",
			}, []string{"outcome"},
		),
		PredictionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_duration_seconds",
				Help:      "Duration of prediction requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.Predictions, m.PredictionDuration)
	return m
}
