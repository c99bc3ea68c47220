package synthesize

import (
	"fmt"
	"hash/fnv"

	"github.com/input-output-hk/quaestor/src/application/normalize"
	"github.com/input-output-hk/quaestor/src/domain"
)

var formatValues = map[string]string{
	"email":     "user@example.com",
	"date":      "2024-01-01",
	"date-time": "2024-01-01T00:00:00Z",
	"uri":       "https://example.com/resource",
	"url":       "https://example.com/resource",
	"uuid":      "00000000-0000-4000-8000-000000000000",
	"hostname":  "example.com",
	"ipv4":      "192.0.2.1",
	"ipv6":      "2001:db8::1",
	"byte":      "ZXhhbXBsZQ==",
	"password":  "example-password",
}

// generator builds the valid instance of one operation.
type generator struct {
	graph           domain.SchemaGraph
	seed            string
	placeholder     string
	maxDepth        int
	optionalPercent int
	warnings        []string
}

// pick decides deterministically whether an optional property is included.
func (self *generator) pick(path string) bool {
	h := fnv.New64a()
	_, _ = h.Write([]byte(self.seed + "|" + path))
	return h.Sum64()%100 < uint64(self.optionalPercent)
}

func (self *generator) warn(format string, args ...any) {
	self.warnings = append(self.warnings, fmt.Sprintf(format, args...))
}

func (self *generator) value(id domain.NodeID, path string, depth int) any {
	node, ok := self.graph.Node(id)
	if !ok {
		return nil
	}

	if node.Recursive {
		return emptyContainer(node.Type)
	}

	if node.Union != domain.UnionNone && len(node.Branches) > 0 {
		if node.Union == domain.UnionAllOf {
			return self.allOf(node, path, depth)
		}
		return self.value(node.Branches[0], path, depth)
	}

	if len(node.Enum) > 0 {
		return integral(node.Type, node.Enum[0])
	}
	if node.Default != nil && normalize.Conforms(node.Type, node.Default) {
		return integral(node.Type, node.Default)
	}
	if node.Example != nil && normalize.Conforms(node.Type, node.Example) {
		return integral(node.Type, node.Example)
	}

	switch node.Type {
	case domain.SchemaObject:
		if depth >= self.maxDepth {
			self.warn("%s at %q: object emitted empty", domain.WarningDepthExceeded, displayPath(path))
			return map[string]any{}
		}
		object := make(map[string]any, len(node.Properties))
		for _, name := range node.PropertyNames() {
			child := joinPath(path, name)
			if node.IsRequired(name) || self.pick(child) {
				object[name] = self.value(node.Properties[name], child, depth+1)
			}
		}
		return object
	case domain.SchemaArray:
		if depth >= self.maxDepth {
			self.warn("%s at %q: array emitted empty", domain.WarningDepthExceeded, displayPath(path))
			return []any{}
		}
		return []any{self.value(node.Items, path+"[]", depth+1)}
	case domain.SchemaInteger:
		return 1
	case domain.SchemaNumber:
		return 1.5
	case domain.SchemaBoolean:
		return true
	case domain.SchemaString:
		if v, ok := formatValues[node.Format]; ok {
			return v
		}
	}

	return self.placeholder
}

func (self *generator) allOf(node domain.SchemaNode, path string, depth int) any {
	merged := map[string]any{}
	for _, branch := range node.Branches {
		value := self.value(branch, path, depth)
		object, ok := value.(map[string]any)
		if !ok {
			return value
		}
		for k, v := range object {
			if _, exists := merged[k]; !exists {
				merged[k] = v
			}
		}
	}
	return merged
}

// integral turns whole JSON numbers of integer schemas back into ints.
func integral(typ domain.SchemaType, value any) any {
	if f, ok := value.(float64); ok && typ == domain.SchemaInteger && f == float64(int64(f)) {
		return int(f)
	}
	return value
}

func emptyContainer(typ domain.SchemaType) any {
	if typ == domain.SchemaArray {
		return []any{}
	}
	return map[string]any{}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func displayPath(path string) string {
	if path == "" {
		return "$"
	}
	return path
}
