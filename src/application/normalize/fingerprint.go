package normalize

import (
	"encoding/json"
	"io"

	"github.com/direnv/direnv/v2/pkg/sri"

	"github.com/input-output-hk/quaestor/src/domain"
)

// canonical renders a subtree as nested maps so that JSON encoding sorts every key.
func canonical(graph domain.SchemaGraph, id domain.NodeID) any {
	node, ok := graph.Node(id)
	if !ok {
		return nil
	}

	out := map[string]any{"type": node.Type}
	if node.Format != "" {
		out["format"] = node.Format
	}
	if len(node.Required) > 0 {
		out["required"] = node.Required
	}
	if len(node.Enum) > 0 {
		out["enum"] = node.Enum
	}
	if node.Default != nil {
		out["default"] = node.Default
	}
	if node.Example != nil {
		out["example"] = node.Example
	}
	if node.Recursive {
		out["recursive"] = node.Ref
	}
	if len(node.Properties) > 0 {
		props := make(map[string]any, len(node.Properties))
		for name, child := range node.Properties {
			props[name] = canonical(graph, child)
		}
		out["properties"] = props
	}
	if node.Items != domain.NoNode {
		out["items"] = canonical(graph, node.Items)
	}
	if node.Union != domain.UnionNone {
		branches := make([]any, len(node.Branches))
		for i, branch := range node.Branches {
			branches[i] = canonical(graph, branch)
		}
		out[string(node.Union)] = branches
	}
	return out
}

// Fingerprint identifies the shape of an operation's request and declared statuses.
// Operations with equal fingerprints produce equal test data.
func Fingerprint(graph domain.SchemaGraph, op domain.Operation) string {
	shape, err := json.Marshal(map[string]any{
		"operation": op.ID,
		"request":   canonical(graph, op.RequestSchema),
		"expected":  op.ExpectedStatus,
		"errors":    op.ErrorStatus,
	})
	if err != nil {
		// values come from a decoded document so they always encode
		panic(err)
	}

	hash := sri.NewWriter(io.Discard, sri.SHA256)
	_, _ = hash.Write(shape)
	return hash.Sum().String()
}
