package common

import (
	"fmt"
	"strings"

	"github.com/teemow/mailcampaign/internal/tools/batch"
)

// String returns the trimmed string argument, or "" when absent or not a
// string.
func String(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// RequiredString is String that fails when the value is empty.
func RequiredString(args map[string]any, key string) (string, error) {
	v := String(args, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// RawString returns the untrimmed string argument. Message bodies keep their
// layout.
func RawString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// OptionalString returns a pointer to the argument when the key is present,
// so patches can tell "unset" from "set to empty".
func OptionalString(args map[string]any, key string) *string {
	v, ok := args[key].(string)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}

// Int returns a numeric argument, which JSON delivers as float64.
func Int(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// StringList parses a list argument given as an array, a JSON array string
// or a comma-separated string. A missing key returns nil, false.
func StringList(args map[string]any, key string) ([]string, bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, false, nil
	}
	if s, isString := raw.(string); isString {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return []string{}, true, nil
		}
		if !strings.HasPrefix(trimmed, "[") {
			raw = splitComma(trimmed)
		}
	}
	if arr, isArr := raw.([]any); isArr && len(arr) == 0 {
		return []string{}, true, nil
	}
	items, err := batch.ParseStringOrArray(raw, key)
	if err != nil {
		return nil, true, err
	}
	return items, true, nil
}

func splitComma(s string) []any {
	parts := strings.Split(s, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
