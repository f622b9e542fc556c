package schema

import "fmt"

// Object creates a new object schema builder.
func Object() *ObjectBuilder {
	return &ObjectBuilder{
		node: &schemaNode{
			Type:       "object",
			Properties: make(map[string]*schemaNode),
		},
	}
}

// ObjectBuilder constructs object type schemas. Properties are generated in
// the order their fields were added.
type ObjectBuilder struct {
	node *schemaNode
}

// Desc sets the description for the object itself.
func (b *ObjectBuilder) Desc(description string) *ObjectBuilder {
	b.node.Description = description
	return b
}

// Title sets the object's title. The Gemini API rejects titles, so they are
// removed again when the schema is normalized for it.
func (b *ObjectBuilder) Title(title string) *ObjectBuilder {
	b.node.Title = title
	return b
}

// Field adds a field with its schema.
// The field argument can be a Builder or a *RequiredField.
// Adding a name twice replaces the earlier schema and keeps its position.
func (b *ObjectBuilder) Field(name string, field any) *ObjectBuilder {
	var node *schemaNode
	switch f := field.(type) {
	case *RequiredField:
		node = f.builder.schema()
		b.node.Required = appendUnique(b.node.Required, name)
	case Builder:
		node = f.schema()
	default:
		panic(fmt.Sprintf("schema: Field %q requires a Builder or *RequiredField, got %T", name, field))
	}
	b.node.Properties[name] = node
	b.node.PropertyOrdering = appendUnique(b.node.PropertyOrdering, name)
	return b
}

func appendUnique(list []string, name string) []string {
	for _, v := range list {
		if v == name {
			return list
		}
	}
	return append(list, name)
}

// Nullable allows null in place of the object.
func (b *ObjectBuilder) Nullable() *ObjectBuilder {
	b.node.Nullable = true
	return b
}

// Required marks this object as required when nested in another object.
func (b *ObjectBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Map renders the schema.
func (b *ObjectBuilder) Map() (map[string]any, error) { return render(b.node) }

// MustMap is like Map but panics on error.
func (b *ObjectBuilder) MustMap() map[string]any { return mustRender(b.node) }

func (b *ObjectBuilder) schema() *schemaNode { return b.node }
