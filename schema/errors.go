package schema

import (
	"fmt"
	"strings"
)

// ShapeError reports a malformed schema definition. It is a configuration
// error: the schema must be fixed at the source, retrying never helps.
type ShapeError struct {
	Path   string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Path == "" {
		return "invalid schema: " + e.Reason
	}
	return fmt.Sprintf("invalid schema at %s: %s", e.Path, e.Reason)
}

// Violation is a single field-level validation failure.
type Violation struct {
	Path    string // e.g. "weapons[1].damage"; empty for the root value
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// ValidationError reports that a value does not conform to a schema.
// All violations found in a single Validate call are collected.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("schema validation failed: %s", strings.Join(parts, "; "))
}
