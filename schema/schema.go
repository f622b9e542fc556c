package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// Builder is the interface implemented by all schema builders.
type Builder interface {
	// Map renders the schema as the map accepted by
	// client.GenerateContentConfig.ResponseSchema and
	// transform.FunctionDeclaration.Parameters.
	// Returns an error if the schema is invalid.
	Map() (map[string]any, error)

	// MustMap is like Map but panics on error.
	MustMap() map[string]any

	// schema returns the internal representation for composition.
	schema() *schemaNode
}

// schemaNode is the subset of OpenAPI schema both backends accept.
type schemaNode struct {
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Nullable    bool   `json:"nullable,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Default     any    `json:"default,omitempty"`

	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	Items    *schemaNode `json:"items,omitempty"`
	MinItems *int        `json:"minItems,omitempty"`
	MaxItems *int        `json:"maxItems,omitempty"`

	Properties       map[string]*schemaNode `json:"properties,omitempty"`
	Required         []string               `json:"required,omitempty"`
	PropertyOrdering []string               `json:"propertyOrdering,omitempty"`

	AnyOf []*schemaNode `json:"anyOf,omitempty"`
}

// Sentinel errors for schema validation.
var (
	// ErrInvalidRange is returned when min exceeds max.
	ErrInvalidRange = errors.New("schema: minimum exceeds maximum")

	// ErrInvalidPattern is returned when a regex pattern is invalid.
	ErrInvalidPattern = errors.New("schema: invalid regex pattern")

	// ErrNilItems is returned when an array has no items schema.
	ErrNilItems = errors.New("schema: array requires items schema")

	// ErrEmptyAnyOf is returned when AnyOf is given no alternatives.
	ErrEmptyAnyOf = errors.New("schema: anyOf requires at least one alternative")
)

// ValidationError represents a schema validation failure.
type ValidationError struct {
	Field   string // The property path (for objects)
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("schema: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (s *schemaNode) validate() error {
	switch s.Type {
	case "string":
		if s.MinLength != nil && s.MaxLength != nil && *s.MinLength > *s.MaxLength {
			return &ValidationError{Message: "minLength exceeds maxLength", Err: ErrInvalidRange}
		}
		if s.Pattern != "" {
			if _, err := regexp.Compile(s.Pattern); err != nil {
				return &ValidationError{
					Message: fmt.Sprintf("invalid pattern %q: %v", s.Pattern, err),
					Err:     ErrInvalidPattern,
				}
			}
		}

	case "integer", "number":
		if s.Minimum != nil && s.Maximum != nil && *s.Minimum > *s.Maximum {
			return &ValidationError{Message: "minimum exceeds maximum", Err: ErrInvalidRange}
		}

	case "array":
		if s.Items == nil {
			return &ValidationError{Message: "array requires items schema", Err: ErrNilItems}
		}
		if s.MinItems != nil && s.MaxItems != nil && *s.MinItems > *s.MaxItems {
			return &ValidationError{Message: "minItems exceeds maxItems", Err: ErrInvalidRange}
		}
		if err := s.Items.validate(); err != nil {
			return &ValidationError{Message: fmt.Sprintf("invalid items schema: %v", err), Err: err}
		}

	case "object":
		for _, name := range s.PropertyOrdering {
			if err := s.Properties[name].validate(); err != nil {
				return &ValidationError{Field: name, Message: err.Error(), Err: err}
			}
		}

	case "":
		if s.AnyOf != nil && len(s.AnyOf) == 0 {
			return &ValidationError{Message: "anyOf is empty", Err: ErrEmptyAnyOf}
		}
		for _, alt := range s.AnyOf {
			if err := alt.validate(); err != nil {
				return &ValidationError{Message: fmt.Sprintf("invalid anyOf alternative: %v", err), Err: err}
			}
		}
	}
	return nil
}

// render validates node and converts it to its generic map form.
func render(node *schemaNode) (map[string]any, error) {
	if err := node.validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	return m, nil
}

func mustRender(node *schemaNode) map[string]any {
	m, err := render(node)
	if err != nil {
		panic(err)
	}
	return m
}

// RequiredField wraps a Builder to mark it as required in an object.
type RequiredField struct {
	builder Builder
}

func ptr[T any](v T) *T {
	return &v
}
