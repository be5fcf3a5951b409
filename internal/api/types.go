// Package api defines the JSON request and response bodies of the HTTP API.
package api

// ErrorResponse is returned for every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PredictionResponse is the body of a successful POST /v1/predict.
type PredictionResponse struct {
	Prediction        string  `json:"prediction"`
	Confidence        float64 `json:"confidence"`
	ConfidencePercent string  `json:"confidence_percent"`
}
