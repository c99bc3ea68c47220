package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReviewState string

const (
	ReviewPending   ReviewState = "pending"
	ReviewApproved  ReviewState = "approved"
	ReviewRejected  ReviewState = "rejected"
	ReviewEscalated ReviewState = "escalated"
)

func (self ReviewState) Terminal() bool {
	return self == ReviewApproved || self == ReviewEscalated
}

// Active items still await a reviewer or regeneration.
func (self ReviewState) Active() bool {
	return self == ReviewPending || self == ReviewRejected
}

// CanTransition reports whether the state machine permits moving to next.
func (self ReviewState) CanTransition(next ReviewState) bool {
	switch self {
	case ReviewPending:
		return next == ReviewApproved || next == ReviewRejected || next == ReviewEscalated
	case ReviewRejected:
		return next == ReviewPending || next == ReviewEscalated
	}
	return false
}

type FeedbackCategory string

const (
	FeedbackNone                   FeedbackCategory = ""
	FeedbackIncorrectData          FeedbackCategory = "incorrect_data"
	FeedbackWrongStatusExpectation FeedbackCategory = "wrong_status_expectation"
	FeedbackStyle                  FeedbackCategory = "style"
	FeedbackOther                  FeedbackCategory = "other"
)

func (self FeedbackCategory) Valid() bool {
	switch self {
	case FeedbackIncorrectData, FeedbackWrongStatusExpectation, FeedbackStyle, FeedbackOther:
		return true
	}
	return false
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

type Feedback struct {
	Reviewer  string           `json:"reviewer"`
	Category  FeedbackCategory `json:"category"`
	Note      string           `json:"note,omitempty"`
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
}

type ReviewItem struct {
	ID               uuid.UUID   `json:"id"`
	ArtifactID       uuid.UUID   `json:"artifact_id"`
	Lineage          Lineage     `json:"lineage"`
	State            ReviewState `json:"state"`
	Version          int         `json:"version"`
	Priority         Priority    `json:"priority"`
	Feedback         []Feedback  `json:"feedback"`
	Reviewer         string      `json:"reviewer,omitempty"`
	CommittedVersion *int        `json:"committed_version,omitempty"`
	CommitRef        string      `json:"commit_ref,omitempty"`
	EscalationReason string      `json:"escalation_reason,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type BulkAction string

const (
	BulkApprove BulkAction = "approve"
	BulkReject  BulkAction = "reject"
)

// ItemRef names a ReviewItem at the version the caller last observed.
type ItemRef struct {
	ID      uuid.UUID `json:"id"`
	Version int       `json:"version"`
}

type BulkResult struct {
	ID    uuid.UUID   `json:"id"`
	Item  *ReviewItem `json:"item,omitempty"`
	Error string      `json:"error,omitempty"`
}
