package domain

import (
	"time"

	"github.com/google/uuid"
)

type Stage string

const (
	StageFetch      Stage = "fetch"
	StageNormalize  Stage = "normalize"
	StageSynthesize Stage = "synthesize"
	StageAssemble   Stage = "assemble"
	StageSubmit     Stage = "submit"
	StageCommit     Stage = "commit"
)

type DeadLetter struct {
	ID          uuid.UUID `json:"id"`
	EventID     string    `json:"event_id"`
	SpecRef     string    `json:"spec_ref"`
	ContentHash string    `json:"content_hash"`
	Stage       Stage     `json:"stage"`
	Attempts    int       `json:"attempts"`
	Retryable   bool      `json:"retryable"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

type WarningKind string

const (
	WarningInvalidSchema     WarningKind = "invalid_schema"
	WarningDrift             WarningKind = "drift"
	WarningDepthExceeded     WarningKind = "depth_exceeded"
	WarningUnsupportedSchema WarningKind = "unsupported_schema"
	WarningConformance       WarningKind = "conformance"
	WarningMissingTemplate   WarningKind = "missing_template"
)

type PipelineWarning struct {
	ID          uuid.UUID   `json:"id"`
	SpecRef     string      `json:"spec_ref"`
	EventID     string      `json:"event_id,omitempty"`
	OperationID string      `json:"operation_id,omitempty"`
	Kind        WarningKind `json:"kind"`
	Message     string      `json:"message"`
	CreatedAt   time.Time   `json:"created_at"`
}

type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// Alert notifies operators about dead letters and escalations.
type Alert struct {
	Severity AlertSeverity `json:"severity"`
	Subject  string        `json:"subject"`
	SpecRef  string        `json:"spec_ref,omitempty"`
	EventID  string        `json:"event_id,omitempty"`
	Message  string        `json:"message"`
	Time     time.Time     `json:"time"`
}
