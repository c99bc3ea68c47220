// Package synthesize derives valid and invalid request data from a normalized schema.
// Output is a pure function of the specification, the operation and the hint.
package synthesize

import (
	"fmt"
	"strconv"

	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
)

// Hint steers regeneration after a review rejection.
type Hint struct {
	Category   domain.FeedbackCategory
	Generation int
}

type Synthesizer struct {
	policy config.SynthesisPolicy
}

func New(policy config.SynthesisPolicy) *Synthesizer {
	return &Synthesizer{policy}
}

func (self *Synthesizer) Synthesize(spec *domain.Specification, op domain.Operation, hint Hint) (data domain.TestDataSet, err error) {
	data = domain.TestDataSet{
		SpecificationID: spec.ID,
		OperationID:     op.ID,
		Fingerprint:     op.Fingerprint,
		Generation:      hint.Generation,
		ValidStatus:     op.SuccessStatus(self.policy.SuccessStatus),
		Hint:            hint.Category,
		InvalidVariants: []domain.InvalidVariant{},
	}

	if op.RequestSchema == domain.NoNode {
		return data, nil
	}

	root, ok := spec.Graph.Node(op.RequestSchema)
	if !ok {
		return data, &domain.SynthesisError{Kind: domain.SynthesisUnsupportedSchema, Operation: op.ID, Reason: "request schema node does not exist"}
	}
	if root.Recursive {
		return data, &domain.SynthesisError{Kind: domain.SynthesisUnsupportedSchema, Operation: op.ID, Reason: "request schema refers to itself"}
	}
	if root.Type == domain.SchemaUntyped && root.Union == domain.UnionNone {
		return data, &domain.SynthesisError{Kind: domain.SynthesisUnsupportedSchema, Operation: op.ID, Reason: "request schema has no type"}
	}

	gen := &generator{
		graph:           spec.Graph,
		seed:            spec.ContentHash + "|" + op.ID,
		placeholder:     "example",
		maxDepth:        self.policy.MaxDepth,
		optionalPercent: self.policy.OptionalPercent,
	}
	if hint.Category == domain.FeedbackIncorrectData {
		gen.seed += "|" + strconv.Itoa(hint.Generation)
		gen.placeholder = fmt.Sprintf("example-%d", hint.Generation)
	}

	data.ValidInstance = gen.value(op.RequestSchema, "", 0)
	data.Warnings = gen.warnings

	checker, err := compile(spec.Graph, op.RequestSchema, self.policy.MaxDepth)
	if err != nil {
		return data, &domain.SynthesisError{Kind: domain.SynthesisUnsupportedSchema, Operation: op.ID, Reason: err.Error()}
	}
	if err := checker.check(data.ValidInstance); err != nil {
		return data, &domain.SynthesisError{
			Kind:      domain.SynthesisUnsupportedSchema,
			Operation: op.ID,
			Reason:    "synthesized instance does not conform: " + err.Error(),
		}
	}

	status := self.invalidStatus(op, hint)
	for _, variant := range candidates(spec.Graph, op.RequestSchema, data.ValidInstance, self.policy.MaxDepth) {
		if len(data.InvalidVariants) >= self.policy.MaxVariants {
			break
		}
		// CUE has no required fields, so only kind mutations are checked for conformance.
		if variant.MutationKind != domain.MutationMissingRequired && checker.check(variant.Instance) == nil {
			data.Warnings = append(data.Warnings, fmt.Sprintf(
				"%s: %s variant of %q still conforms and was dropped",
				domain.WarningConformance, variant.MutationKind, variant.Field,
			))
			continue
		}
		variant.ExpectedStatus = status
		data.InvalidVariants = append(data.InvalidVariants, variant)
	}

	return data, nil
}

// invalidStatus is the configured client error status unless a reviewer
// rejected it, in which case a declared 4xx response is preferred.
func (self *Synthesizer) invalidStatus(op domain.Operation, hint Hint) int {
	if hint.Category != domain.FeedbackWrongStatusExpectation {
		return self.policy.ClientErrorStatus
	}
	for _, status := range op.ErrorStatus {
		if status != self.policy.ClientErrorStatus {
			return status
		}
	}
	if len(op.ErrorStatus) > 0 {
		return op.ErrorStatus[0]
	}
	return 422
}

// WarningKind classifies a data set warning by its leading kind.
func WarningKind(warning string) domain.WarningKind {
	for _, kind := range []domain.WarningKind{domain.WarningDepthExceeded, domain.WarningConformance} {
		if len(warning) >= len(kind) && warning[:len(kind)] == string(kind) {
			return kind
		}
	}
	return domain.WarningConformance
}
