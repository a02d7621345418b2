package askbob

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ExtractJSONObject recovers a JSON object from raw model output. Models
// asked for strict JSON still occasionally wrap it in Markdown fences or
// prose, so: strip code fences, locate the outermost {...} span, parse
// that. Numbers are decoded as json.Number so numeric-looking strings
// and numbers coerce the same way downstream.
func ExtractJSONObject(raw string) (map[string]interface{}, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = stripCodeFences(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, newError(CodeInvalidModelOutput, "no JSON object in model output")
	}

	dec := json.NewDecoder(strings.NewReader(cleaned[start : end+1]))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, wrapError(CodeInvalidModelOutput, "model output is not valid JSON", err)
	}
	return obj, nil
}

func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag such as "json" on the fence line.
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// requireString returns the string value for key, failing when the key
// is absent or blank. Numbers are not coerced to strings: a missing
// required field is never invented.
func requireString(obj map[string]interface{}, key string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", newError(CodeInvalidModelOutput, "missing required field "+key)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", newError(CodeInvalidModelOutput, "field "+key+" must be a non-empty string")
	}
	return s, nil
}

// optionalString returns the string value for key or empty.
func optionalString(obj map[string]interface{}, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

// requireBool accepts a bool or its obvious string spellings.
func requireBool(obj map[string]interface{}, key string) (bool, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return false, newError(CodeInvalidModelOutput, "missing required field "+key)
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b, nil
		}
	}
	return false, newError(CodeInvalidModelOutput, "field "+key+" must be a boolean")
}

// requireNumber accepts a JSON number or a numeric-looking string.
func requireNumber(obj map[string]interface{}, key string) (float64, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, newError(CodeInvalidModelOutput, "missing required field "+key)
	}
	return coerceNumber(v, key)
}

func coerceNumber(v interface{}, key string) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err == nil {
			return f, nil
		}
	case float64:
		return t, nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f, nil
		}
	}
	return 0, newError(CodeInvalidModelOutput, "field "+key+" must be a number")
}

// requireStringArray returns a non-empty []string for key, coercing an
// array of JSON strings and rejecting anything else.
func requireStringArray(obj map[string]interface{}, key string) ([]string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, newError(CodeInvalidModelOutput, "missing required field "+key)
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, newError(CodeInvalidModelOutput, "field "+key+" must be an array")
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, newError(CodeInvalidModelOutput, "field "+key+" must contain only non-empty strings")
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, newError(CodeInvalidModelOutput, "field "+key+" must not be empty")
	}
	return out, nil
}

// requireObjectArray returns a non-empty array of objects for key.
func requireObjectArray(obj map[string]interface{}, key string) ([]map[string]interface{}, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, newError(CodeInvalidModelOutput, "missing required field "+key)
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, newError(CodeInvalidModelOutput, "field "+key+" must be an array")
	}
	out := make([]map[string]interface{}, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, newError(CodeInvalidModelOutput, "field "+key+" must contain objects")
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, newError(CodeInvalidModelOutput, "field "+key+" must not be empty")
	}
	return out, nil
}
