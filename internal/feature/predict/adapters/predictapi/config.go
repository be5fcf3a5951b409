// Package predictapi は外部の推論エンドポイント（POST /predict）へのクライアントを提供します。
package predictapi

import (
	"strings"
	"time"
)

// DefaultBaseURL は PREDICTION_API_URL 未設定時に使用する推論サービスのベースURLです。
const DefaultBaseURL = "http://localhost:10000"

// Config holds configuration for the prediction API client.
type Config struct {
	BaseURL string        // Base URL of the prediction service (e.g., "http://localhost:10000")
	Timeout time.Duration // Whole-request timeout; 0 means no timeout
}

// endpoint returns the absolute URL of the predict route.
func (c Config) endpoint() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/predict"
}
