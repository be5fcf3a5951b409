// Package config loads application configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort             = "8080"
	DefaultPredictionAPIURL = "http://localhost:10000"
	DefaultMaxUploadBytes   = 10 << 20
	DefaultViewTTL          = 30 * time.Minute
)

// Config holds the application configuration.
type Config struct {
	Port               string        // HTTP listen port
	PredictionAPIURL   string        // Base URL of the prediction service
	PredictionTimeout  time.Duration // Timeout for one prediction request; 0 means none
	MaxUploadBytes     int64         // Maximum accepted upload size
	ViewTTL            time.Duration // Lifetime of a page's view state
	ModelInfoFile      string        // Optional YAML file with the info modal content
	CORSAllowedOrigins []string      // Origins allowed to call the JSON API
	LogLevel           string        // debug, info, warn, error
	LogFormat          string        // text or json
	Redis              RedisConfig
}

// RedisConfig holds the optional Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port, defaulting the port to 6379.
func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return r.Host + ":" + port
}

// Load reads the configuration from environment variables.
// Invalid values are logged and replaced by their defaults.
func Load() Config {
	return Config{
		Port:               getEnv("PORT", DefaultPort),
		PredictionAPIURL:   getEnv("PREDICTION_API_URL", DefaultPredictionAPIURL),
		PredictionTimeout:  getDuration("PREDICTION_TIMEOUT", 0),
		MaxUploadBytes:     getInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		ViewTTL:            getDuration("VIEW_TTL", DefaultViewTTL),
		ModelInfoFile:      os.Getenv("MODEL_INFO_FILE"),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     os.Getenv("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func getInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
