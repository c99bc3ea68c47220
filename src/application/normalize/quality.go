package normalize

import (
	"math"

	"github.com/input-output-hk/quaestor/src/domain"
)

const (
	weightCoverage    = 0.3
	weightExamples    = 0.2
	weightTyped       = 0.3
	weightConsistency = 0.2
)

type ratio struct{ hit, total int }

func (self *ratio) add(hit bool) {
	self.total++
	if hit {
		self.hit++
	}
}

// value is 1 when nothing was counted.
func (self ratio) value() float64 {
	if self.total == 0 {
		return 1
	}
	return float64(self.hit) / float64(self.total)
}

// Quality scores how much a schema tells about valid data, in [0, 1].
func Quality(graph domain.SchemaGraph) float64 {
	if len(graph.Nodes) == 0 {
		return 1
	}

	var coverage, examples, typed, consistency ratio
	for _, node := range graph.Nodes {
		if node.Recursive {
			continue
		}

		typed.add(node.Type.Known() || node.Union != domain.UnionNone)

		if node.Type == domain.SchemaObject && len(node.Properties) > 0 {
			coverage.add(len(node.Required) > 0)
		}

		if node.Type.Primitive() {
			examples.add(node.Example != nil || node.Default != nil || len(node.Enum) > 0)
		}

		if node.Example != nil {
			consistency.add(Conforms(node.Type, node.Example))
		}
	}

	score := weightCoverage*coverage.value() +
		weightExamples*examples.value() +
		weightTyped*typed.value() +
		weightConsistency*consistency.value()
	return math.Round(score*1000) / 1000
}

// Conforms reports whether a decoded JSON value matches the schema type.
// Untyped schemas accept anything.
func Conforms(typ domain.SchemaType, value any) bool {
	switch typ {
	case domain.SchemaString:
		_, ok := value.(string)
		return ok
	case domain.SchemaBoolean:
		_, ok := value.(bool)
		return ok
	case domain.SchemaInteger:
		switch v := value.(type) {
		case int, int32, int64, uint64:
			return true
		case float64:
			return v == math.Trunc(v)
		}
		return false
	case domain.SchemaNumber:
		switch value.(type) {
		case int, int32, int64, uint64, float32, float64:
			return true
		}
		return false
	case domain.SchemaObject:
		_, ok := value.(map[string]any)
		return ok
	case domain.SchemaArray:
		_, ok := value.([]any)
		return ok
	}
	return true
}
