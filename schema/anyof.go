package schema

// AnyOf creates a schema matched by any one of the alternatives.
func AnyOf(alternatives ...Builder) *AnyOfBuilder {
	node := &schemaNode{AnyOf: make([]*schemaNode, 0, len(alternatives))}
	for _, alt := range alternatives {
		node.AnyOf = append(node.AnyOf, alt.schema())
	}
	return &AnyOfBuilder{node: node}
}

// AnyOfBuilder constructs union schemas.
type AnyOfBuilder struct {
	node *schemaNode
}

// Desc sets the description.
func (b *AnyOfBuilder) Desc(description string) *AnyOfBuilder {
	b.node.Description = description
	return b
}

// Required marks this field as required when used in an object.
func (b *AnyOfBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Map renders the schema.
func (b *AnyOfBuilder) Map() (map[string]any, error) { return render(b.node) }

// MustMap is like Map but panics on error.
func (b *AnyOfBuilder) MustMap() map[string]any { return mustRender(b.node) }

func (b *AnyOfBuilder) schema() *schemaNode { return b.node }
