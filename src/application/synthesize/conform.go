package synthesize

import (
	"encoding/json"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pkg/errors"

	"github.com/input-output-hk/quaestor/src/domain"
)

// There is a race condition around global internal state of CUE.
var cueMutex = &sync.Mutex{}

// cueSource renders a schema subtree as a CUE expression.
// Structs stay open so that unknown properties are accepted.
func cueSource(graph domain.SchemaGraph, id domain.NodeID, depth, maxDepth int) string {
	node, ok := graph.Node(id)
	if !ok || node.Recursive {
		return "_"
	}

	if len(node.Enum) > 0 {
		literals := make([]string, 0, len(node.Enum))
		for _, value := range node.Enum {
			literal, err := json.Marshal(integral(node.Type, value))
			if err != nil {
				return "_"
			}
			literals = append(literals, string(literal))
		}
		return "(" + strings.Join(literals, " | ") + ")"
	}

	if node.Union != domain.UnionNone {
		return unionSource(graph, node, depth, maxDepth)
	}

	switch node.Type {
	case domain.SchemaObject:
		if depth >= maxDepth {
			return "_"
		}
		var fields []string
		for _, name := range node.PropertyNames() {
			label, _ := json.Marshal(name)
			optional := "?"
			if node.IsRequired(name) {
				optional = ""
			}
			fields = append(fields, string(label)+optional+": "+cueSource(graph, node.Properties[name], depth+1, maxDepth))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case domain.SchemaArray:
		if depth >= maxDepth {
			return "_"
		}
		return "[..." + cueSource(graph, node.Items, depth+1, maxDepth) + "]"
	case domain.SchemaString:
		return "string"
	case domain.SchemaInteger:
		return "int"
	case domain.SchemaNumber:
		return "number"
	case domain.SchemaBoolean:
		return "bool"
	}
	return "_"
}

// unionSource constrains a union only by the JSON kinds of its branches.
// Full branch schemas would make open structs ambiguous disjuncts.
func unionSource(graph domain.SchemaGraph, node domain.SchemaNode, depth, maxDepth int) string {
	if node.Union == domain.UnionAllOf {
		parts := make([]string, 0, len(node.Branches))
		for _, branch := range node.Branches {
			parts = append(parts, cueSource(graph, branch, depth, maxDepth))
		}
		return "(" + strings.Join(parts, " & ") + ")"
	}

	kinds := map[domain.SchemaType]bool{}
	for _, id := range node.Branches {
		branch, ok := graph.Node(id)
		if !ok || !branch.Type.Known() || branch.Union != domain.UnionNone {
			return "_"
		}
		kinds[branch.Type] = true
	}
	if kinds[domain.SchemaNumber] {
		delete(kinds, domain.SchemaInteger)
	}

	var parts []string
	for _, kind := range []domain.SchemaType{
		domain.SchemaObject, domain.SchemaArray, domain.SchemaString,
		domain.SchemaInteger, domain.SchemaNumber, domain.SchemaBoolean,
	} {
		if !kinds[kind] {
			continue
		}
		switch kind {
		case domain.SchemaObject:
			parts = append(parts, "{...}")
		case domain.SchemaArray:
			parts = append(parts, "[...]")
		case domain.SchemaString:
			parts = append(parts, "string")
		case domain.SchemaInteger:
			parts = append(parts, "int")
		case domain.SchemaNumber:
			parts = append(parts, "number")
		case domain.SchemaBoolean:
			parts = append(parts, "bool")
		}
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// conformance checks instances against one compiled schema.
type conformance struct {
	ctx    *cue.Context
	schema cue.Value
}

func compile(graph domain.SchemaGraph, root domain.NodeID, maxDepth int) (*conformance, error) {
	cueMutex.Lock()
	defer cueMutex.Unlock()

	ctx := cuecontext.New()
	schema := ctx.CompileString(cueSource(graph, root, 0, maxDepth))
	if err := schema.Err(); err != nil {
		return nil, errors.WithMessage(err, "Could not compile request schema to CUE")
	}
	return &conformance{ctx, schema}, nil
}

func (self *conformance) check(instance any) error {
	cueMutex.Lock()
	defer cueMutex.Unlock()

	value := self.ctx.Encode(instance)
	if err := value.Err(); err != nil {
		return err
	}
	return self.schema.Unify(value).Validate(cue.Concrete(true))
}
