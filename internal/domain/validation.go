package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ValidateTimestamp parses a stored timestamp in TimeFormat. An empty
// string yields the zero time.
func ValidateTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: expected RFC3339", s)
	}
	return t, nil
}

// DecodeObject parses data as a JSON object. Anything else (arrays, scalars,
// truncated input) is reported as ErrInvalidDocument.
func DecodeObject(data []byte) (map[string]interface{}, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is null", ErrInvalidDocument)
	}
	return doc, nil
}

// ValidateLevelGeometry checks the geometry fields of a level document that
// the game client relies on. Fields that are absent are fine; fields that are
// present must be well-typed.
func ValidateLevelGeometry(doc map[string]interface{}) error {
	raw, ok := doc["holes"]
	if !ok {
		if course, ok := doc["course"].(map[string]interface{}); ok {
			raw, ok = course["holes"]
			if !ok {
				return nil
			}
		} else {
			return nil
		}
	}

	holes, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("holes: expected array, got %s", jsonKind(raw))
	}
	for i, h := range holes {
		hole, ok := h.(map[string]interface{})
		if !ok {
			return fmt.Errorf("holes[%d]: expected object, got %s", i, jsonKind(h))
		}
		if par, present := hole["par"]; present {
			n, ok := par.(float64)
			if !ok || n < 1 || n != float64(int(n)) {
				return fmt.Errorf("holes[%d].par: expected positive integer, got %v", i, par)
			}
		}
	}
	return nil
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
