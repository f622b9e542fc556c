package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type builderCase struct {
	name    string
	builder Builder
	want    map[string]any
	wantErr error
}

func runBuilderCases(t *testing.T, tests []builderCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.builder.Map()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringBuilder(t *testing.T) {
	runBuilderCases(t, []builderCase{
		{
			name:    "basic string",
			builder: String(),
			want:    map[string]any{"type": "string"},
		},
		{
			name:    "string with description",
			builder: String().Desc("A name"),
			want:    map[string]any{"type": "string", "description": "A name"},
		},
		{
			name:    "enum sets enum format",
			builder: String().Enum("a", "b", "c"),
			want:    map[string]any{"type": "string", "format": "enum", "enum": []any{"a", "b", "c"}},
		},
		{
			name:    "string with format",
			builder: String().Format("date-time"),
			want:    map[string]any{"type": "string", "format": "date-time"},
		},
		{
			name:    "string with length constraints",
			builder: String().MinLength(1).MaxLength(100),
			want:    map[string]any{"type": "string", "minLength": float64(1), "maxLength": float64(100)},
		},
		{
			name:    "nullable string with default",
			builder: String().Nullable().Default("hello"),
			want:    map[string]any{"type": "string", "nullable": true, "default": "hello"},
		},
		{
			name:    "string with pattern",
			builder: String().Pattern(`^[a-z]+$`),
			want:    map[string]any{"type": "string", "pattern": "^[a-z]+$"},
		},
		{
			name:    "invalid minLength > maxLength",
			builder: String().MinLength(100).MaxLength(10),
			wantErr: ErrInvalidRange,
		},
		{
			name:    "invalid pattern",
			builder: String().Pattern(`[invalid`),
			wantErr: ErrInvalidPattern,
		},
	})
}

func TestNumericBuilders(t *testing.T) {
	runBuilderCases(t, []builderCase{
		{
			name:    "integer alias",
			builder: Integer(),
			want:    map[string]any{"type": "integer"},
		},
		{
			name:    "int with bounds",
			builder: Int().Desc("Count").Min(1).Max(100),
			want:    map[string]any{"type": "integer", "description": "Count", "minimum": float64(1), "maximum": float64(100)},
		},
		{
			name:    "int64 with default",
			builder: Int().Int64().Default(42),
			want:    map[string]any{"type": "integer", "format": "int64", "default": float64(42)},
		},
		{
			name:    "nullable double",
			builder: Number().Double().Nullable().Min(-1.5).Max(1.5),
			want:    map[string]any{"type": "number", "format": "double", "nullable": true, "minimum": -1.5, "maximum": 1.5},
		},
		{
			name:    "invalid int min > max",
			builder: Int().Min(100).Max(10),
			wantErr: ErrInvalidRange,
		},
		{
			name:    "invalid number min > max",
			builder: Number().Min(1).Max(0.5),
			wantErr: ErrInvalidRange,
		},
	})
}

func TestBoolBuilder(t *testing.T) {
	runBuilderCases(t, []builderCase{
		{
			name:    "boolean alias",
			builder: Boolean(),
			want:    map[string]any{"type": "boolean"},
		},
		{
			name:    "bool with default and description",
			builder: Bool().Desc("Enabled").Default(true),
			want:    map[string]any{"type": "boolean", "description": "Enabled", "default": true},
		},
	})
}

func TestArrayBuilder(t *testing.T) {
	runBuilderCases(t, []builderCase{
		{
			name:    "array of strings",
			builder: Array(String()).MinItems(1).MaxItems(3),
			want: map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": float64(1),
				"maxItems": float64(3),
			},
		},
		{
			name:    "missing items",
			builder: Array(nil),
			wantErr: ErrNilItems,
		},
		{
			name:    "invalid item range",
			builder: Array(String()).MinItems(5).MaxItems(1),
			wantErr: ErrInvalidRange,
		},
		{
			name:    "invalid items schema propagates",
			builder: Array(Int().Min(3).Max(1)),
			wantErr: ErrInvalidRange,
		},
	})
}

func TestObjectBuilder(t *testing.T) {
	runBuilderCases(t, []builderCase{
		{
			name:    "empty object",
			builder: Object().Desc("A person"),
			want:    map[string]any{"type": "object", "description": "A person"},
		},
		{
			name: "fields keep insertion order",
			builder: Object().
				Field("name", String().Required()).
				Field("age", Int()).
				Field("active", Bool()),
			want: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":   map[string]any{"type": "string"},
					"age":    map[string]any{"type": "integer"},
					"active": map[string]any{"type": "boolean"},
				},
				"required":         []any{"name"},
				"propertyOrdering": []any{"name", "age", "active"},
			},
		},
		{
			name: "nested required object",
			builder: Object().
				Title("Envelope").
				Field("user", Object().Field("name", String().Required()).Required()),
			want: map[string]any{
				"type":  "object",
				"title": "Envelope",
				"properties": map[string]any{
					"user": map[string]any{
						"type":             "object",
						"properties":       map[string]any{"name": map[string]any{"type": "string"}},
						"required":         []any{"name"},
						"propertyOrdering": []any{"name"},
					},
				},
				"required":         []any{"user"},
				"propertyOrdering": []any{"user"},
			},
		},
		{
			name: "redefined field keeps position",
			builder: Object().
				Field("a", String()).
				Field("b", String()).
				Field("a", Int().Required()),
			want: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"a": map[string]any{"type": "integer"},
					"b": map[string]any{"type": "string"},
				},
				"required":         []any{"a"},
				"propertyOrdering": []any{"a", "b"},
			},
		},
		{
			name:    "validation propagates from nested field",
			builder: Object().Field("count", Int().Min(100).Max(10)),
			wantErr: ErrInvalidRange,
		},
	})
}

func TestAnyOfBuilder(t *testing.T) {
	runBuilderCases(t, []builderCase{
		{
			name:    "string or integer",
			builder: AnyOf(String(), Int()).Desc("Identifier"),
			want: map[string]any{
				"description": "Identifier",
				"anyOf":       []any{map[string]any{"type": "string"}, map[string]any{"type": "integer"}},
			},
		},
		{
			name:    "no alternatives",
			builder: AnyOf(),
			wantErr: ErrEmptyAnyOf,
		},
		{
			name:    "invalid alternative",
			builder: AnyOf(String().Pattern(`(`)),
			wantErr: ErrInvalidPattern,
		},
	})
}

func TestValidationErrorNamesField(t *testing.T) {
	_, err := Object().Field("count", Int().Min(10).Max(5)).Map()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "count", verr.Field)
	assert.Contains(t, err.Error(), `field "count"`)
}

func TestMustMap(t *testing.T) {
	assert.NotPanics(t, func() { _ = String().MustMap() })
	assert.Panics(t, func() { _ = String().MinLength(100).MaxLength(10).MustMap() })
	assert.Panics(t, func() { Object().Field("bad", "not a builder") })
}
