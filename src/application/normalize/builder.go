package normalize

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/input-output-hk/quaestor/src/domain"
)

// builder expands kin-openapi schemas into arena nodes.
// Every reference is expanded into fresh nodes so each node has exactly one parent.
type builder struct {
	graph    *domain.SchemaGraph
	maxDepth int
	// onPath holds the schemas between the root and the node being built.
	onPath map[*openapi3.Schema]struct{}
}

func newBuilder(graph *domain.SchemaGraph, maxDepth int) *builder {
	return &builder{
		graph:    graph,
		maxDepth: maxDepth,
		onPath:   map[*openapi3.Schema]struct{}{},
	}
}

type schemaError struct {
	path   string
	reason string
}

func (self *schemaError) Error() string {
	if self.path == "" {
		return self.reason
	}
	return self.path + ": " + self.reason
}

func fieldPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func (self *builder) build(ref *openapi3.SchemaRef, path string, depth int) (domain.NodeID, error) {
	if ref == nil || ref.Value == nil {
		return domain.NoNode, &schemaError{path, "missing schema"}
	}
	if depth > self.maxDepth {
		return domain.NoNode, &schemaError{path, "schema nesting exceeds the maximum depth"}
	}

	schema := ref.Value
	if _, cycle := self.onPath[schema]; cycle {
		return self.graph.Add(domain.SchemaNode{
			Type:      domain.SchemaType(schema.Type),
			Recursive: true,
			Ref:       ref.Ref,
			Items:     domain.NoNode,
		}), nil
	}
	self.onPath[schema] = struct{}{}
	defer delete(self.onPath, schema)

	node := domain.SchemaNode{
		Type:    domain.SchemaType(schema.Type),
		Format:  schema.Format,
		Enum:    schema.Enum,
		Default: schema.Default,
		Example: schema.Example,
		Ref:     ref.Ref,
		Items:   domain.NoNode,
	}

	if node.Type == domain.SchemaUntyped && len(schema.Properties) > 0 {
		node.Type = domain.SchemaObject
	}

	switch {
	case len(schema.AllOf) > 0 && allObjects(schema.AllOf):
		if err := self.mergeAllOf(&node, schema, path, depth); err != nil {
			return domain.NoNode, err
		}
		return self.graph.Add(node), nil
	case len(schema.OneOf) > 0:
		return self.union(node, domain.UnionOneOf, schema.OneOf, path, depth)
	case len(schema.AnyOf) > 0:
		return self.union(node, domain.UnionAnyOf, schema.AnyOf, path, depth)
	case len(schema.AllOf) > 0:
		return self.union(node, domain.UnionAllOf, schema.AllOf, path, depth)
	}

	switch node.Type {
	case domain.SchemaObject:
		if err := self.properties(&node, schema.Properties, schema.Required, path, depth); err != nil {
			return domain.NoNode, err
		}
	case domain.SchemaArray:
		if schema.Items == nil {
			return domain.NoNode, &schemaError{path, "array without items"}
		}
		items, err := self.build(schema.Items, path+"[]", depth+1)
		if err != nil {
			return domain.NoNode, err
		}
		node.Items = items
	case domain.SchemaUntyped, domain.SchemaString, domain.SchemaInteger, domain.SchemaNumber, domain.SchemaBoolean:
	default:
		return domain.NoNode, &schemaError{path, "unknown type " + schema.Type}
	}

	return self.graph.Add(node), nil
}

func (self *builder) properties(node *domain.SchemaNode, props openapi3.Schemas, required []string, path string, depth int) error {
	names := maps.Keys(props)
	slices.Sort(names)

	node.Properties = make(map[string]domain.NodeID, len(names))
	for _, name := range names {
		child, err := self.build(props[name], fieldPath(path, name), depth+1)
		if err != nil {
			return err
		}
		node.Properties[name] = child
	}

	for _, name := range required {
		if slices.Contains(node.Required, name) {
			continue
		}
		if _, declared := node.Properties[name]; !declared {
			node.Properties[name] = self.graph.Add(domain.SchemaNode{Items: domain.NoNode})
		}
		node.Required = append(node.Required, name)
	}

	return nil
}

// mergeAllOf folds object branches into one object node.
// Earlier branches win when several declare the same property.
func (self *builder) mergeAllOf(node *domain.SchemaNode, schema *openapi3.Schema, path string, depth int) error {
	props := openapi3.Schemas{}
	var required []string

	for name, prop := range schema.Properties {
		props[name] = prop
	}
	required = append(required, schema.Required...)

	for _, branch := range schema.AllOf {
		for name, prop := range branch.Value.Properties {
			if _, exists := props[name]; !exists {
				props[name] = prop
			}
		}
		required = append(required, branch.Value.Required...)
	}

	node.Type = domain.SchemaObject
	return self.properties(node, props, required, path, depth)
}

func (self *builder) union(node domain.SchemaNode, kind domain.UnionKind, branches openapi3.SchemaRefs, path string, depth int) (domain.NodeID, error) {
	node.Union = kind
	for _, branch := range branches {
		id, err := self.build(branch, path, depth+1)
		if err != nil {
			return domain.NoNode, err
		}
		node.Branches = append(node.Branches, id)
	}
	return self.graph.Add(node), nil
}

func allObjects(branches openapi3.SchemaRefs) bool {
	for _, branch := range branches {
		if branch == nil || branch.Value == nil {
			return false
		}
		if branch.Value.Type != "object" && !(branch.Value.Type == "" && len(branch.Value.Properties) > 0) {
			return false
		}
	}
	return true
}

func asSchemaError(err error) (*schemaError, bool) {
	var target *schemaError
	ok := errors.As(err, &target)
	return target, ok
}
