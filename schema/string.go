package schema

// String creates a new string schema builder.
func String() *StringBuilder {
	return &StringBuilder{node: &schemaNode{Type: "string"}}
}

// StringBuilder constructs string type schemas.
type StringBuilder struct {
	node *schemaNode
}

// Desc sets the description for this field.
func (b *StringBuilder) Desc(description string) *StringBuilder {
	b.node.Description = description
	return b
}

// Enum restricts the value to one of the provided options and sets the
// "enum" format the backends expect alongside it.
func (b *StringBuilder) Enum(values ...string) *StringBuilder {
	b.node.Format = "enum"
	b.node.Enum = make([]any, len(values))
	for i, v := range values {
		b.node.Enum[i] = v
	}
	return b
}

// Format sets a format hint such as "date-time".
func (b *StringBuilder) Format(format string) *StringBuilder {
	b.node.Format = format
	return b
}

// MinLength sets the minimum string length.
func (b *StringBuilder) MinLength(n int) *StringBuilder {
	b.node.MinLength = ptr(n)
	return b
}

// MaxLength sets the maximum string length.
func (b *StringBuilder) MaxLength(n int) *StringBuilder {
	b.node.MaxLength = ptr(n)
	return b
}

// Pattern sets a regex pattern the string must match.
func (b *StringBuilder) Pattern(regex string) *StringBuilder {
	b.node.Pattern = regex
	return b
}

// Default sets the default value.
func (b *StringBuilder) Default(value string) *StringBuilder {
	b.node.Default = value
	return b
}

// Nullable allows null in place of a string.
func (b *StringBuilder) Nullable() *StringBuilder {
	b.node.Nullable = true
	return b
}

// Required marks this field as required when used in an object.
// Returns a RequiredField wrapper for use with ObjectBuilder.Field().
func (b *StringBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Map renders the schema.
func (b *StringBuilder) Map() (map[string]any, error) { return render(b.node) }

// MustMap is like Map but panics on error.
func (b *StringBuilder) MustMap() map[string]any { return mustRender(b.node) }

func (b *StringBuilder) schema() *schemaNode { return b.node }
