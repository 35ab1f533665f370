package structured

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kbukum/llmflow/errors"
)

// Record is a decoded structured response: a JSON object.
type Record map[string]any

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return cloneValue(map[string]any(r)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case Record:
		return Record(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}

// String returns the string value of key, or "" when absent or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Bool returns the boolean value of key.
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Number returns the numeric value of key.
func (r Record) Number(key string) float64 {
	n, _ := r[key].(float64)
	return n
}

// Strings returns the string items of a list field.
func (r Record) Strings(key string) []string {
	items, _ := r[key].([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Records returns the object items of a list field.
func (r Record) Records(key string) []Record {
	items, _ := r[key].([]any)
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// JSON returns r indented for display.
func (r Record) JSON() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(r))
	}
	return string(data)
}

// Decode parses text as a single JSON object.
func Decode(text string) (Record, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON: unexpected data after top-level value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", jsonType(v))
	}
	return Record(obj), nil
}

// Parse extracts, decodes, and validates a structured response. Any
// failure is a SCHEMA_VIOLATION carrying the raw response; no partial
// record is returned. Callers attach the stage name with WithStage.
func Parse(raw string, schema Schema) (Record, error) {
	payload, trailer := ExtractWithTrailer(raw)
	rec, err := Decode(payload)
	if err != nil {
		return nil, violation(err.Error(), raw, trailer, nil)
	}
	if err := schema.Validate(rec); err != nil {
		ve := err.(*ValidationError)
		return nil, violation(ve.Error(), raw, trailer, ve.Violations)
	}
	return rec, nil
}

func violation(reason, raw, trailer string, violations []string) *errors.AppError {
	e := errors.SchemaViolation("", reason, raw)
	if len(violations) > 0 {
		e = e.WithDetail("violations", violations)
	}
	if trailer != "" {
		e = e.WithDetail("trailer", trailer)
	}
	return e
}
