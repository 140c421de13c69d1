// Package schema provides a small declarative schema language for validating
// structured LLM responses before they are handed to callers.
//
// A Schema describes the expected shape of a JSON value: object properties and
// required fields, array element types and length bounds, string enums, and
// primitive type checks. Schemas are parsed once from template definitions and
// are read-only afterwards.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// Type is the kind of JSON value a Schema describes.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
)

// Schema is a recursive type descriptor for a JSON value.
// Properties and Required apply only to object schemas; Items, MinItems and
// MaxItems only to array schemas; Enum only to string schemas.
type Schema struct {
	Type       Type               `yaml:"type" json:"type"`
	Properties map[string]*Schema `yaml:"properties,omitempty" json:"properties,omitempty"`
	Required   []string           `yaml:"required,omitempty" json:"required,omitempty"`
	Items      *Schema            `yaml:"items,omitempty" json:"items,omitempty"`
	MinItems   *int               `yaml:"minItems,omitempty" json:"minItems,omitempty"`
	MaxItems   *int               `yaml:"maxItems,omitempty" json:"maxItems,omitempty"`
	Enum       []string           `yaml:"enum,omitempty" json:"enum,omitempty"`
}

// ValidateShape checks that the schema definition itself is well-formed.
// It must be called before the schema is ever used to validate data;
// a shape error is a configuration error, not a data error.
func (s *Schema) ValidateShape() error {
	return s.validateShape("")
}

func (s *Schema) validateShape(path string) error {
	switch s.Type {
	case TypeObject:
		if len(s.Properties) == 0 {
			return &ShapeError{Path: path, Reason: "object schema missing properties"}
		}
		for _, name := range s.Required {
			if _, ok := s.Properties[name]; !ok {
				return &ShapeError{Path: path, Reason: fmt.Sprintf("required field %q not in properties", name)}
			}
		}
		for name, child := range s.Properties {
			if child == nil {
				return &ShapeError{Path: joinPath(path, name), Reason: "property schema is empty"}
			}
			if err := child.validateShape(joinPath(path, name)); err != nil {
				return err
			}
		}
	case TypeArray:
		if s.Items == nil {
			return &ShapeError{Path: path, Reason: "array schema missing items"}
		}
		if s.MinItems != nil && *s.MinItems < 0 {
			return &ShapeError{Path: path, Reason: "minItems must be >= 0"}
		}
		if s.MinItems != nil && s.MaxItems != nil && *s.MinItems > *s.MaxItems {
			return &ShapeError{Path: path, Reason: "minItems > maxItems"}
		}
		if err := s.Items.validateShape(path + "[]"); err != nil {
			return err
		}
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		// primitives carry no structural constraints beyond enum
	case "":
		return &ShapeError{Path: path, Reason: "schema missing type"}
	default:
		return &ShapeError{Path: path, Reason: fmt.Sprintf("unknown type %q", s.Type)}
	}
	if len(s.Enum) > 0 && s.Type != TypeString {
		return &ShapeError{Path: path, Reason: "enum is only valid for string schemas"}
	}
	return nil
}

// Validate checks value against the schema and returns a *ValidationError
// carrying every violation found, or nil when the value conforms.
// Validation is pure: repeated calls with the same inputs return the same
// verdict and nothing is mutated.
func (s *Schema) Validate(value any) error {
	var violations []Violation
	s.validateValue("", value, &violations)
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func (s *Schema) validateValue(path string, value any, out *[]Violation) {
	switch s.Type {
	case TypeObject:
		obj, ok := asObject(value)
		if !ok {
			*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("expected object, got %s", typeName(value))})
			return
		}
		for _, name := range s.Required {
			if _, present := obj[name]; !present {
				*out = append(*out, Violation{Path: joinPath(path, name), Message: "required field is missing"})
			}
		}
		// Unknown keys pass through untouched; only declared properties are checked.
		for name, child := range s.Properties {
			v, present := obj[name]
			if !present {
				continue
			}
			child.validateValue(joinPath(path, name), v, out)
		}
	case TypeArray:
		seq, ok := asSequence(value)
		if !ok {
			*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("expected array, got %s", typeName(value))})
			return
		}
		if s.MinItems != nil && len(seq) < *s.MinItems {
			*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("expected at least %d items, got %d", *s.MinItems, len(seq))})
		}
		if s.MaxItems != nil && len(seq) > *s.MaxItems {
			*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("expected at most %d items, got %d", *s.MaxItems, len(seq))})
		}
		for i, elem := range seq {
			s.Items.validateValue(fmt.Sprintf("%s[%d]", path, i), elem, out)
		}
	case TypeString:
		str, ok := value.(string)
		if !ok {
			*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("expected string, got %s", typeName(value))})
			return
		}
		if len(s.Enum) > 0 && !lo.Contains(s.Enum, str) {
			*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("value %q is not one of %v", str, s.Enum)})
		}
	case TypeInteger:
		if !isInteger(value) {
			*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("expected integer, got %s", typeName(value))})
		}
	case TypeNumber:
		if !isNumber(value) {
			*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("expected number, got %s", typeName(value))})
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			*out = append(*out, Violation{Path: path, Message: fmt.Sprintf("expected boolean, got %s", typeName(value))})
		}
	}
}

// JSONMap converts the schema into a generic map representation suitable for
// embedding into provider request bodies (for example, a tool input schema).
func (s *Schema) JSONMap() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return m, nil
}

func asObject(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	default:
		return nil, false
	}
}

func asSequence(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		seq := make([]any, len(v))
		for i, s := range v {
			seq[i] = s
		}
		return seq, true
	default:
		return nil, false
	}
}

// isInteger accepts native integer types plus float64 values with no
// fractional part, since encoding/json decodes all numbers as float64.
func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return v == float64(int64(v))
	default:
		return false
	}
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any, []string:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64, float32, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
