package domain

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// NodeID addresses a SchemaNode inside its SchemaGraph.
type NodeID int

const NoNode NodeID = -1

type SchemaType string

const (
	SchemaUntyped SchemaType = ""
	SchemaObject  SchemaType = "object"
	SchemaArray   SchemaType = "array"
	SchemaString  SchemaType = "string"
	SchemaInteger SchemaType = "integer"
	SchemaNumber  SchemaType = "number"
	SchemaBoolean SchemaType = "boolean"
)

func (self SchemaType) Primitive() bool {
	switch self {
	case SchemaString, SchemaInteger, SchemaNumber, SchemaBoolean:
		return true
	}
	return false
}

func (self SchemaType) Known() bool {
	return self.Primitive() || self == SchemaObject || self == SchemaArray
}

type UnionKind string

const (
	UnionNone  UnionKind = ""
	UnionOneOf UnionKind = "oneOf"
	UnionAnyOf UnionKind = "anyOf"
	UnionAllOf UnionKind = "allOf"
)

type SchemaNode struct {
	ID         NodeID            `json:"id"`
	Type       SchemaType        `json:"type,omitempty"`
	Format     string            `json:"format,omitempty"`
	Required   []string          `json:"required,omitempty"`
	Properties map[string]NodeID `json:"properties,omitempty"`
	Items      NodeID            `json:"items"`
	Enum       []any             `json:"enum,omitempty"`
	Default    any               `json:"default,omitempty"`
	Example    any               `json:"example,omitempty"`
	Union      UnionKind         `json:"union,omitempty"`
	Branches   []NodeID          `json:"branches,omitempty"`
	// Recursive marks a stub that replaced a reference back into its own ancestry.
	Recursive bool   `json:"recursive,omitempty"`
	Ref       string `json:"ref,omitempty"`
}

func (self SchemaNode) IsRequired(name string) bool {
	return slices.Contains(self.Required, name)
}

// PropertyNames returns the property names in lexical order.
func (self SchemaNode) PropertyNames() []string {
	names := maps.Keys(self.Properties)
	slices.Sort(names)
	return names
}

// SchemaGraph is an arena of schema nodes. Nodes are only ever appended.
type SchemaGraph struct {
	Nodes []SchemaNode `json:"nodes"`
}

func (self *SchemaGraph) Add(node SchemaNode) NodeID {
	node.ID = NodeID(len(self.Nodes))
	self.Nodes = append(self.Nodes, node)
	return node.ID
}

func (self SchemaGraph) Node(id NodeID) (SchemaNode, bool) {
	if id < 0 || int(id) >= len(self.Nodes) {
		return SchemaNode{}, false
	}
	return self.Nodes[id], true
}

// Property resolves the node of a named property of an object node.
func (self SchemaGraph) Property(id NodeID, name string) (SchemaNode, bool) {
	node, ok := self.Node(id)
	if !ok {
		return SchemaNode{}, false
	}
	child, ok := node.Properties[name]
	if !ok {
		return SchemaNode{}, false
	}
	return self.Node(child)
}
