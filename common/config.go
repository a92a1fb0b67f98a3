package common

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config holds parameters loaded from a YAML file. Nested sections are
// addressed with dotted keys, e.g. "detection.endpoint".
type Config struct {
	values map[string]any
}

// envOverrides maps environment variables to the config keys they replace.
var envOverrides = map[string]string{
	"PORT":             "server.port",
	"ROBOFLOW_API_URL": "detection.endpoint",
	"ROBOFLOW_API_KEY": "detection.api_key",
	"UPLOAD_FOLDER":    "storage.upload_dir",
	"RESULT_FOLDER":    "storage.result_dir",
	"LOG_LEVEL":        "log.level",
	"LOG_FILE":         "log.file",
}

// NewConfig creates a config from already-parsed values.
func NewConfig(values map[string]any) *Config {
	c := &Config{values: make(map[string]any)}
	flatten("", values, c.values)
	return c
}

// LoadConfig reads the YAML file at path and applies environment overrides.
// A missing file is not an error: defaults and the environment still apply.
func LoadConfig(path string) (*Config, error) {
	values := make(map[string]any)
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &values); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	c := NewConfig(values)
	c.applyEnv(os.LookupEnv)
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for env, key := range envOverrides {
		if value, ok := lookup(env); ok && value != "" {
			c.values[key] = value
		}
	}
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// Set overrides a single value, typically from a command-line flag.
func (c *Config) Set(key string, value any) {
	c.values[key] = value
}

// GetString returns a string-typed parameter. If nothing is found, or if the value cannot be
// converted to a string, returns an empty value.
func (c *Config) GetString(key string) string {
	value, ok := c.values[key]
	if !ok {
		return ""
	}
	str, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(str)
}

// GetStringOrDefault returns a string-typed parameter, or `defaultValue` when it is missing or empty.
func (c *Config) GetStringOrDefault(key, defaultValue string) string {
	value := c.GetString(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetIntOrDefault returns an integer-typed parameter. If nothing is found, or if the value cannot
// be converted to an integer, returns `defaultValue`.
func (c *Config) GetIntOrDefault(key string, defaultValue int) int {
	value, ok := c.values[key]
	if !ok {
		return defaultValue
	}
	intValue, err := cast.ToIntE(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// GetInt64OrDefault is GetIntOrDefault for sizes that may exceed 32 bits.
func (c *Config) GetInt64OrDefault(key string, defaultValue int64) int64 {
	value, ok := c.values[key]
	if !ok {
		return defaultValue
	}
	intValue, err := cast.ToInt64E(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// GetDurationOrDefault returns a duration-typed parameter. Strings are parsed with
// time.ParseDuration ("30s"); bare integers are milliseconds. If nothing is found, or if the
// value cannot be parsed, returns `defaultValue`.
func (c *Config) GetDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value, ok := c.values[key]
	if !ok {
		return defaultValue
	}
	switch v := value.(type) {
	case string:
		d, err := cast.ToDurationE(v)
		if err != nil || d < 0 {
			return defaultValue
		}
		return d
	default:
		ms, err := cast.ToInt64E(v)
		if err != nil || ms < 0 {
			return defaultValue
		}
		return time.Duration(ms) * time.Millisecond
	}
}
