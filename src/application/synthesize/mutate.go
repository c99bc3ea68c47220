package synthesize

import (
	"github.com/input-output-hk/quaestor/src/domain"
)

// target is a required field that invalid variants may mutate.
type target struct {
	path  []string
	node  domain.SchemaNode
	union bool
}

func (self target) field() string {
	if len(self.path) == 0 {
		return "$"
	}
	field := self.path[0]
	for _, segment := range self.path[1:] {
		field += "." + segment
	}
	return field
}

// targets lists required fields breadth first: top-level fields in declaration order,
// then the required fields of required object fields.
func targets(graph domain.SchemaGraph, root domain.NodeID, maxDepth int) (result []target) {
	node, ok := graph.Node(root)
	if !ok {
		return nil
	}
	if node.Type != domain.SchemaObject || node.Union != domain.UnionNone {
		return []target{{node: node, union: node.Union == domain.UnionOneOf || node.Union == domain.UnionAnyOf}}
	}

	type level struct {
		prefix []string
		node   domain.SchemaNode
	}
	queue := []level{{nil, node}}
	for depth := 0; len(queue) > 0 && depth < maxDepth; depth++ {
		var next []level
		for _, parent := range queue {
			for _, name := range parent.node.Required {
				child, ok := graph.Node(parent.node.Properties[name])
				if !ok {
					continue
				}
				path := append(append([]string{}, parent.prefix...), name)
				result = append(result, target{
					path:  path,
					node:  child,
					union: child.Union == domain.UnionOneOf || child.Union == domain.UnionAnyOf,
				})
				if child.Type == domain.SchemaObject && child.Union == domain.UnionNone && !child.Recursive {
					next = append(next, level{path, child})
				}
			}
		}
		queue = next
	}
	return
}

// wrongValue returns a value of a different JSON type than the field expects.
func wrongValue(node domain.SchemaNode) (any, bool) {
	if node.Union != domain.UnionNone {
		return nil, false
	}
	switch node.Type {
	case domain.SchemaString:
		return 12345, true
	case domain.SchemaInteger, domain.SchemaNumber:
		return "not-a-number", true
	case domain.SchemaBoolean:
		return "not-a-boolean", true
	case domain.SchemaObject:
		return "not-an-object", true
	case domain.SchemaArray:
		return "not-an-array", true
	}
	return nil, false
}

// mismatchValue returns a value whose JSON type none of the union branches accepts.
func mismatchValue(graph domain.SchemaGraph, node domain.SchemaNode) (any, bool) {
	accepted := map[domain.SchemaType]bool{}
	for _, id := range node.Branches {
		branch, ok := graph.Node(id)
		if !ok || branch.Type == domain.SchemaUntyped || branch.Union != domain.UnionNone {
			return nil, false
		}
		accepted[branch.Type] = true
		if branch.Type == domain.SchemaInteger {
			accepted[domain.SchemaNumber] = true
		}
		if branch.Type == domain.SchemaNumber {
			accepted[domain.SchemaInteger] = true
		}
	}

	candidates := []struct {
		typ   domain.SchemaType
		value any
	}{
		{domain.SchemaString, "branch-mismatch"},
		{domain.SchemaInteger, 12345},
		{domain.SchemaBoolean, false},
		{domain.SchemaArray, []any{}},
		{domain.SchemaObject, map[string]any{}},
	}
	for _, candidate := range candidates {
		if !accepted[candidate.typ] {
			return candidate.value, true
		}
	}
	return nil, false
}

// mutate copies the instance along path and applies change at its end.
// A nil path addresses the instance itself.
func mutate(instance any, path []string, change func(parent map[string]any, key string)) any {
	if len(path) == 0 {
		return instance
	}
	object, ok := instance.(map[string]any)
	if !ok {
		return instance
	}

	copied := make(map[string]any, len(object))
	for k, v := range object {
		copied[k] = v
	}

	if len(path) == 1 {
		change(copied, path[0])
	} else if child, exists := copied[path[0]]; exists {
		copied[path[0]] = mutate(child, path[1:], change)
	}
	return copied
}

func candidates(graph domain.SchemaGraph, root domain.NodeID, valid any, maxDepth int) (variants []domain.InvalidVariant) {
	seen := map[string]struct{}{}
	add := func(kind domain.MutationKind, t target, instance any) {
		key := string(kind) + "|" + t.field()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, domain.InvalidVariant{
			Instance:     instance,
			MutationKind: kind,
			Field:        t.field(),
		})
	}

	for _, t := range targets(graph, root, maxDepth) {
		if len(t.path) > 0 {
			add(domain.MutationMissingRequired, t, mutate(valid, t.path, func(parent map[string]any, key string) {
				delete(parent, key)
			}))
		}

		if wrong, ok := wrongValue(t.node); ok {
			if len(t.path) == 0 {
				add(domain.MutationWrongType, t, wrong)
			} else {
				add(domain.MutationWrongType, t, mutate(valid, t.path, func(parent map[string]any, key string) {
					parent[key] = wrong
				}))
			}
		}

		if t.union {
			if mismatch, ok := mismatchValue(graph, t.node); ok {
				if len(t.path) == 0 {
					add(domain.MutationBranchMismatch, t, mismatch)
				} else {
					add(domain.MutationBranchMismatch, t, mutate(valid, t.path, func(parent map[string]any, key string) {
						parent[key] = mismatch
					}))
				}
			}
		}
	}

	return
}
