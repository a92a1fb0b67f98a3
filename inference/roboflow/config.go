// Package roboflow - Client for the hosted Roboflow object-detection endpoint.
package roboflow

import "time"

// Config holds the endpoint and credential of the detection service.
type Config struct {
	// Endpoint is the model URL, e.g. https://detect.roboflow.com/<project>/<version>.
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// APIKey is sent as the api_key query parameter.
	APIKey string `json:"api_key" yaml:"api_key"`
	// Timeout bounds the whole exchange. Zero means no client-side limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	// MaxResponseBytes caps the decoded response body.
	MaxResponseBytes int64 `json:"max_response_bytes" yaml:"max_response_bytes"`
}

// DefaultConfig returns a configuration with sensible defaults. Endpoint and APIKey must still be
// supplied.
//
// Returns:
//   - Config: The default configuration.
//
// @example
// cfg := DefaultConfig()
// cfg.Endpoint = "https://detect.roboflow.com/mushroom-w7ucu/13"
// cfg.APIKey = os.Getenv("ROBOFLOW_API_KEY")
// client, err := NewClient(cfg)
func DefaultConfig() Config {
	return Config{
		Timeout:          60 * time.Second,
		MaxResponseBytes: 16 << 20,
	}
}
