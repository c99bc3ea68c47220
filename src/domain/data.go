package domain

import (
	"time"

	"github.com/google/uuid"
)

type MutationKind string

const (
	MutationMissingRequired MutationKind = "missing_required"
	MutationWrongType       MutationKind = "wrong_type"
	MutationBranchMismatch  MutationKind = "branch_mismatch"
)

type InvalidVariant struct {
	Instance       any          `json:"instance"`
	MutationKind   MutationKind `json:"mutation_kind"`
	Field          string       `json:"field"`
	ExpectedStatus int          `json:"expected_status"`
}

// TestDataSet is the synthesized data for one Operation of one Specification revision.
type TestDataSet struct {
	ID              uuid.UUID        `json:"id"`
	SpecificationID uuid.UUID        `json:"specification_id"`
	OperationID     string           `json:"operation_id"`
	Fingerprint     string           `json:"fingerprint"`
	// Generation is 0 for pipeline output and the review version for regenerated data.
	Generation      int              `json:"generation"`
	ValidInstance   any              `json:"valid_instance"`
	ValidStatus     int              `json:"valid_status"`
	InvalidVariants []InvalidVariant `json:"invalid_variants"`
	Warnings        []string         `json:"warnings,omitempty"`
	Hint            FeedbackCategory `json:"hint,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
