package domain

import (
	"errors"
	"testing"
)

func TestValidateTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantZero bool
		wantErr  bool
	}{
		{name: "utc", input: "2025-01-15T10:30:00Z"},
		{name: "fractional seconds", input: "2025-01-15T10:30:00.123456789Z"},
		{name: "offset", input: "2025-01-15T10:30:00-05:00"},
		{name: "empty is unset", input: "", wantZero: true},
		{name: "space separated", input: "2024-03-01 12:00:00", wantErr: true},
		{name: "date only", input: "2024-03-01", wantErr: true},
		{name: "garbage", input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ValidateTimestamp(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("ValidateTimestamp() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateTimestamp() unexpected error: %v", err)
			}
			if parsed.IsZero() != tt.wantZero {
				t.Errorf("ValidateTimestamp() zero = %v, want %v", parsed.IsZero(), tt.wantZero)
			}
		})
	}
}

func TestMalformed(t *testing.T) {
	var m Malformed
	if len(m.Fields()) != 0 {
		t.Fatalf("Fields() on nil = %v", m.Fields())
	}
	m.Add("last_modified", "soon")
	m.Add("created_at", "2024-03-01 12:00:00")
	got := m.Fields()
	if len(got) != 2 || got[0] != "created_at" || got[1] != "last_modified" {
		t.Errorf("Fields() = %v", got)
	}
	if m["created_at"] != "2024-03-01 12:00:00" {
		t.Errorf("raw value = %q", m["created_at"])
	}
}

func TestDecodeObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "object", input: `{"title":"Hole One"}`},
		{name: "empty object", input: `{}`},
		{name: "array", input: `[1,2]`, wantErr: true},
		{name: "null", input: `null`, wantErr: true},
		{name: "truncated", input: `{"title":`, wantErr: true},
		{name: "empty", input: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeObject([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDocument) {
					t.Errorf("DecodeObject() error = %v, want ErrInvalidDocument", err)
				}
				return
			}
			if err != nil {
				t.Errorf("DecodeObject() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateLevelGeometry(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "no holes", input: `{"title":"x"}`},
		{name: "top-level holes", input: `{"holes":[{"par":3},{"par":4}]}`},
		{name: "course holes", input: `{"course":{"title":"c","holes":[{"par":2}]}}`},
		{name: "hole without par", input: `{"holes":[{"walls":[]}]}`},
		{name: "holes not array", input: `{"holes":"nope"}`, wantErr: true},
		{name: "hole not object", input: `{"holes":[3]}`, wantErr: true},
		{name: "par zero", input: `{"holes":[{"par":0}]}`, wantErr: true},
		{name: "par fractional", input: `{"holes":[{"par":2.5}]}`, wantErr: true},
		{name: "par string", input: `{"course":{"holes":[{"par":"3"}]}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeObject([]byte(tt.input))
			if err != nil {
				t.Fatalf("DecodeObject() unexpected error: %v", err)
			}
			err = ValidateLevelGeometry(doc)
			if tt.wantErr && err == nil {
				t.Error("ValidateLevelGeometry() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateLevelGeometry() unexpected error: %v", err)
			}
		})
	}
}

func TestValidationErrorIs(t *testing.T) {
	fixable := &ValidationError{Entity: EntityLevel, ID: "L1", Field: "is_public", Fixable: true}
	broken := &ValidationError{Entity: EntityLevel, ID: "L2", Field: "data", Message: "bad"}

	if errors.Is(fixable, ErrInvalidDocument) {
		t.Error("fixable defect should not match ErrInvalidDocument")
	}
	if !errors.Is(broken, ErrInvalidDocument) {
		t.Error("unfixable defect should match ErrInvalidDocument")
	}
	if got := broken.Error(); got != "level L2: data: bad" {
		t.Errorf("Error() = %q", got)
	}
}
