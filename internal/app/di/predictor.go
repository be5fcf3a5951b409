// Package di provides dependency injection factories for creating application components.
package di

import (
	"classifier_web/internal/feature/predict/adapters/predictapi"
	"classifier_web/internal/feature/predict/usecase"
	"classifier_web/internal/platform/config"
	infrahttp "classifier_web/internal/platform/http"
	"classifier_web/internal/platform/metrics"
)

// NewPredictor creates the prediction API client wrapped with metrics.
func NewPredictor(cfg config.Config, m *metrics.Metrics) usecase.Predictor {
	pcfg := predictapi.Config{
		BaseURL: cfg.PredictionAPIURL,
		Timeout: cfg.PredictionTimeout,
	}
	client := predictapi.NewClient(pcfg, infrahttp.NewHTTPClient(pcfg.Timeout))
	return predictapi.NewInstrumentedPredictor(client, m)
}
