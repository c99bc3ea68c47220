package normalize

import (
	"fmt"

	"github.com/input-output-hk/quaestor/src/domain"
)

// DetectDrift compares the request schemas of operations present in both revisions.
// Operations of next whose schema lost or retyped a property are marked stale.
func DetectDrift(previous, next *domain.Specification) (findings []Finding) {
	if previous == nil {
		return nil
	}

	for i := range next.Operations {
		op := &next.Operations[i]
		before, ok := previous.Operation(op.ID)
		if !ok || before.Fingerprint == op.Fingerprint {
			continue
		}

		messages := compareNodes(previous.Graph, before.RequestSchema, next.Graph, op.RequestSchema, "")
		if len(messages) == 0 {
			continue
		}

		op.Stale = true
		for _, message := range messages {
			findings = append(findings, Finding{
				OperationID: op.ID,
				Kind:        domain.WarningDrift,
				Message:     message,
			})
		}
	}

	return
}

func compareNodes(prevGraph domain.SchemaGraph, prevID domain.NodeID, nextGraph domain.SchemaGraph, nextID domain.NodeID, path string) (messages []string) {
	prev, ok := prevGraph.Node(prevID)
	if !ok {
		return nil
	}
	next, ok := nextGraph.Node(nextID)
	if !ok {
		if path == "" {
			return []string{"request body removed"}
		}
		return []string{fmt.Sprintf("property %q removed", path)}
	}
	if prev.Recursive || next.Recursive {
		return nil
	}

	if prev.Type != next.Type {
		if path == "" {
			return []string{fmt.Sprintf("request body changed type from %q to %q", prev.Type, next.Type)}
		}
		return []string{fmt.Sprintf("property %q changed type from %q to %q", path, prev.Type, next.Type)}
	}

	for _, name := range prev.PropertyNames() {
		child := fieldPath(path, name)
		nextChild, exists := next.Properties[name]
		if !exists {
			messages = append(messages, fmt.Sprintf("property %q removed", child))
			continue
		}
		messages = append(messages, compareNodes(prevGraph, prev.Properties[name], nextGraph, nextChild, child)...)
	}

	if prev.Items != domain.NoNode {
		messages = append(messages, compareNodes(prevGraph, prev.Items, nextGraph, next.Items, path+"[]")...)
	}

	return
}
