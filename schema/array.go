package schema

// Array creates a new array schema builder with the specified item type.
func Array(items Builder) *ArrayBuilder {
	node := &schemaNode{Type: "array"}
	if items != nil {
		node.Items = items.schema()
	}
	return &ArrayBuilder{node: node}
}

// ArrayBuilder constructs array type schemas.
type ArrayBuilder struct {
	node *schemaNode
}

// Desc sets the description.
func (b *ArrayBuilder) Desc(description string) *ArrayBuilder {
	b.node.Description = description
	return b
}

// MinItems sets the minimum number of items.
func (b *ArrayBuilder) MinItems(n int) *ArrayBuilder {
	b.node.MinItems = ptr(n)
	return b
}

// MaxItems sets the maximum number of items.
func (b *ArrayBuilder) MaxItems(n int) *ArrayBuilder {
	b.node.MaxItems = ptr(n)
	return b
}

// Nullable allows null in place of the array.
func (b *ArrayBuilder) Nullable() *ArrayBuilder {
	b.node.Nullable = true
	return b
}

// Required marks this field as required when used in an object.
func (b *ArrayBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Map renders the schema.
func (b *ArrayBuilder) Map() (map[string]any, error) { return render(b.node) }

// MustMap is like Map but panics on error.
func (b *ArrayBuilder) MustMap() map[string]any { return mustRender(b.node) }

func (b *ArrayBuilder) schema() *schemaNode { return b.node }
