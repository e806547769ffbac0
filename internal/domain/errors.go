package domain

import (
	"fmt"
	"strings"
)

// FieldError names one violated constraint on one input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every field of a write that violates the record
// invariants. Surfaced to clients as a 400.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError reports a lookup that matched no record. Surfaced to
// clients as a 404.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("sensor %s not found", e.ID)
	}
	return fmt.Sprintf("sensor %s not found in %s", e.ID, e.Collection)
}

// PersistenceError wraps an infrastructure-level storage failure. Surfaced
// to clients as a 500 and never retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DuplicateKeyError reports a unique-constraint violation. No field besides
// the id carries a unique index today, so this stays reserved.
type DuplicateKeyError struct {
	Err error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %v", e.Err)
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }
