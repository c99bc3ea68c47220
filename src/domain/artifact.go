package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

type QualityFlag string

const (
	FlagQualityConflict QualityFlag = "quality_conflict"
	FlagMissingMarker   QualityFlag = "missing_marker"
	FlagDuplicateCase   QualityFlag = "duplicate_case"
	FlagLowQualitySpec  QualityFlag = "low_quality_spec"
)

// Blocking flags prevent approval unless the reviewer overrides them.
func (self QualityFlag) Blocking() bool {
	switch self {
	case FlagQualityConflict, FlagMissingMarker, FlagDuplicateCase:
		return true
	}
	return false
}

// Lineage identifies all versions of the artifact generated for
// one operation of one spec in one framework.
type Lineage struct {
	SpecRef     string `json:"spec_ref"`
	OperationID string `json:"operation_id"`
	Framework   string `json:"framework"`
}

func (self Lineage) String() string {
	return fmt.Sprintf("%s|%s|%s", self.SpecRef, self.OperationID, self.Framework)
}

type TestArtifact struct {
	ID              uuid.UUID     `json:"id"`
	Lineage         Lineage       `json:"lineage"`
	Version         int           `json:"version"`
	OperationID     string        `json:"operation_id"`
	SuiteID         string        `json:"suite_id"`
	Framework       string        `json:"framework"`
	SpecificationID uuid.UUID     `json:"specification_id"`
	DataSetID       uuid.UUID     `json:"data_set_id"`
	Content         string        `json:"content"`
	QualityFlags    []QualityFlag `json:"quality_flags"`
	Supersedes      *uuid.UUID    `json:"supersedes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (self TestArtifact) HasFlag(flag QualityFlag) bool {
	return slices.Contains(self.QualityFlags, flag)
}

func (self TestArtifact) BlockingFlags() (flags []QualityFlag) {
	for _, flag := range self.QualityFlags {
		if flag.Blocking() {
			flags = append(flags, flag)
		}
	}
	return
}
