package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Operation struct {
	// ID is the canonical "METHOD /path" form.
	ID            string `json:"id"`
	Path          string `json:"path"`
	Method        string `json:"method"`
	OperationID   string `json:"operation_id,omitempty"`
	RequestSchema NodeID `json:"request_schema"`
	// ExpectedStatus holds the declared success (2xx) statuses in ascending order.
	ExpectedStatus []int `json:"expected_status"`
	// ErrorStatus holds the declared client error (4xx) statuses in ascending order.
	ErrorStatus []int  `json:"error_status,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Stale       bool   `json:"stale,omitempty"`
}

func OperationKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// SuccessStatus is the lowest declared 2xx status, or fallback if none was declared.
func (self Operation) SuccessStatus(fallback int) int {
	if len(self.ExpectedStatus) == 0 {
		return fallback
	}
	return self.ExpectedStatus[0]
}

type Specification struct {
	ID          uuid.UUID   `json:"id"`
	SpecRef     string      `json:"spec_ref"`
	Revision    int         `json:"revision"`
	ContentHash string      `json:"content_hash"`
	Title       string      `json:"title"`
	Graph       SchemaGraph `json:"graph"`
	Operations  []Operation `json:"operations"`
	Quality     float64     `json:"quality"`
	LowQuality  bool        `json:"low_quality"`
	Retired     bool        `json:"retired"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (self Specification) Operation(id string) (Operation, bool) {
	for _, op := range self.Operations {
		if op.ID == id {
			return op, true
		}
	}
	return Operation{}, false
}

func (self Specification) String() string {
	return fmt.Sprintf("%s#%d", self.SpecRef, self.Revision)
}
