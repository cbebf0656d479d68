// Package validation carries field-level validation failures from services
// to the HTTP layer, which renders them as a structured error body.
package validation

import "strings"

// FieldError ties a validation failure to the input field that caused it.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// Errors collects per-field failures so a response can report all of them at once.
type Errors []*FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}
