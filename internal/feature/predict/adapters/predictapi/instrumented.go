package predictapi

import (
	"context"
	"errors"
	"time"

	"classifier_web/internal/feature/predict/domain/entity"
	"classifier_web/internal/feature/predict/usecase"
	"classifier_web/internal/platform/metrics"
)

// InstrumentedPredictor decorates a Predictor with Prometheus metrics.
// The wrapped predictor is called exactly once per Predict; nothing is retried.
type InstrumentedPredictor struct {
	inner   usecase.Predictor
	metrics *metrics.Metrics
}

var _ usecase.Predictor = (*InstrumentedPredictor)(nil)

// NewInstrumentedPredictor wraps inner. If m is nil the decorator is a pass-through.
func NewInstrumentedPredictor(inner usecase.Predictor, m *metrics.Metrics) *InstrumentedPredictor {
	return &InstrumentedPredictor{inner: inner, metrics: m}
}

// Predict forwards to the wrapped predictor and records outcome and latency.
func (p *InstrumentedPredictor) Predict(ctx context.Context, file *entity.SelectedFile) (entity.Prediction, error) {
	if p.metrics == nil {
		return p.inner.Predict(ctx, file)
	}

	start := time.Now()
	out, err := p.inner.Predict(ctx, file)
	p.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	p.metrics.Predictions.WithLabelValues(outcome(err)).Inc()
	return out, err
}

func outcome(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &se):
		return metrics.OutcomeHTTPError
	case errors.Is(err, ErrMalformedResponse):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeTransport
	}
}
