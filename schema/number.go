package schema

// Int creates a new integer schema builder.
func Int() *IntBuilder {
	return &IntBuilder{node: &schemaNode{Type: "integer"}}
}

// Integer is an alias for Int.
func Integer() *IntBuilder {
	return Int()
}

// IntBuilder constructs integer type schemas.
type IntBuilder struct {
	node *schemaNode
}

// Desc sets the description.
func (b *IntBuilder) Desc(description string) *IntBuilder {
	b.node.Description = description
	return b
}

// Min sets the minimum value (inclusive).
func (b *IntBuilder) Min(n int) *IntBuilder {
	b.node.Minimum = ptr(float64(n))
	return b
}

// Max sets the maximum value (inclusive).
func (b *IntBuilder) Max(n int) *IntBuilder {
	b.node.Maximum = ptr(float64(n))
	return b
}

// Int64 sets the "int64" format; the default width is int32.
func (b *IntBuilder) Int64() *IntBuilder {
	b.node.Format = "int64"
	return b
}

// Default sets the default value.
func (b *IntBuilder) Default(value int) *IntBuilder {
	b.node.Default = value
	return b
}

// Nullable allows null in place of an integer.
func (b *IntBuilder) Nullable() *IntBuilder {
	b.node.Nullable = true
	return b
}

// Required marks this field as required when used in an object.
func (b *IntBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Map renders the schema.
func (b *IntBuilder) Map() (map[string]any, error) { return render(b.node) }

// MustMap is like Map but panics on error.
func (b *IntBuilder) MustMap() map[string]any { return mustRender(b.node) }

func (b *IntBuilder) schema() *schemaNode { return b.node }

// Number creates a new number (float) schema builder.
func Number() *NumberBuilder {
	return &NumberBuilder{node: &schemaNode{Type: "number"}}
}

// NumberBuilder constructs number (float) type schemas.
type NumberBuilder struct {
	node *schemaNode
}

// Desc sets the description.
func (b *NumberBuilder) Desc(description string) *NumberBuilder {
	b.node.Description = description
	return b
}

// Min sets the minimum value (inclusive).
func (b *NumberBuilder) Min(n float64) *NumberBuilder {
	b.node.Minimum = ptr(n)
	return b
}

// Max sets the maximum value (inclusive).
func (b *NumberBuilder) Max(n float64) *NumberBuilder {
	b.node.Maximum = ptr(n)
	return b
}

// Double sets the "double" format; the default is "float".
func (b *NumberBuilder) Double() *NumberBuilder {
	b.node.Format = "double"
	return b
}

// Default sets the default value.
func (b *NumberBuilder) Default(value float64) *NumberBuilder {
	b.node.Default = value
	return b
}

// Nullable allows null in place of a number.
func (b *NumberBuilder) Nullable() *NumberBuilder {
	b.node.Nullable = true
	return b
}

// Required marks this field as required when used in an object.
func (b *NumberBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Map renders the schema.
func (b *NumberBuilder) Map() (map[string]any, error) { return render(b.node) }

// MustMap is like Map but panics on error.
func (b *NumberBuilder) MustMap() map[string]any { return mustRender(b.node) }

func (b *NumberBuilder) schema() *schemaNode { return b.node }
