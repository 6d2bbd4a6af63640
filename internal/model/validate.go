package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the document invariants: unique tile ids, positive layout
// hints and a known data variant on every tile.
// It returns a *ValidationError if any rules fail, or nil if c is valid.
func Validate(c Config) error {
	var ve ValidationError

	seen := make(map[uuid.UUID]int, len(c.Tiles))
	for i, t := range c.Tiles {
		field := fmt.Sprintf("/tiles/%d", i)

		if prev, dup := seen[t.ID]; dup {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   field + "/id",
				Message: fmt.Sprintf("duplicate id %s (also used by /tiles/%d)", t.ID, prev),
			})
		} else {
			seen[t.ID] = i
		}

		for _, hint := range []struct {
			name string
			v    *uint32
		}{
			{"row", t.Row},
			{"col", t.Col},
			{"width", t.Width},
			{"height", t.Height},
		} {
			if hint.v != nil && *hint.v == 0 {
				ve.Errors = append(ve.Errors, FieldError{
					Field:   field + "/" + hint.name,
					Message: "must be a positive integer",
				})
			}
		}

		if t.Data == nil {
			ve.Errors = append(ve.Errors, FieldError{Field: field + "/data", Message: "is required"})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
