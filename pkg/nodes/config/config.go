// Package config coerces authored node configuration values. Flow editors
// serialize everything through JSON, so numbers arrive as float64 and
// durations as either seconds or Go duration strings.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissing is returned for absent required fields.
var ErrMissing = errors.New("missing required field")

// String returns a required string field.
func String(cfg map[string]any, key string) (string, error) {
	value, ok := cfg[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w '%s'", ErrMissing, key)
	}

	return value, nil
}

// StringOr returns an optional string field with a default.
func StringOr(cfg map[string]any, key, fallback string) string {
	if value, ok := cfg[key].(string); ok && value != "" {
		return value
	}

	return fallback
}

// IntOr returns an optional integer field with a default.
func IntOr(cfg map[string]any, key string, fallback int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// FloatOr returns an optional float field with a default.
func FloatOr(cfg map[string]any, key string, fallback float64) float64 {
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}

// BoolOr returns an optional boolean field with a default.
func BoolOr(cfg map[string]any, key string, fallback bool) bool {
	if value, ok := cfg[key].(bool); ok {
		return value
	}

	return fallback
}

// DurationOr returns an optional duration field with a default. Numeric
// values are seconds; strings use Go duration syntax ("5m", "1h30m").
func DurationOr(cfg map[string]any, key string, fallback time.Duration) time.Duration {
	switch v := cfg[key].(type) {
	case float64:
		return time.Duration(v * float64(time.Second))
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}

		return fallback
	default:
		return fallback
	}
}

// Maps returns an optional list-of-objects field.
func Maps(cfg map[string]any, key string) []map[string]any {
	list, ok := cfg[key].([]any)
	if !ok {
		return nil
	}

	out := make([]map[string]any, 0, len(list))

	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}

	return out
}

// Strings returns an optional list-of-strings field.
func Strings(cfg map[string]any, key string) []string {
	list, ok := cfg[key].([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(list))

	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}

	return out
}
