package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ChangeEventType uint

const (
	ChangeEventCreated ChangeEventType = iota
	ChangeEventUpdated
	ChangeEventDeleted
)

func (self ChangeEventType) String() string {
	switch self {
	case ChangeEventCreated:
		return "created"
	case ChangeEventUpdated:
		return "updated"
	case ChangeEventDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("ChangeEventType(%d)", uint(self))
	}
}

func (self *ChangeEventType) FromString(str string) error {
	switch str {
	case "created":
		*self = ChangeEventCreated
	case "updated", "":
		*self = ChangeEventUpdated
	case "deleted":
		*self = ChangeEventDeleted
	default:
		return fmt.Errorf("Unknown event type %q", str)
	}
	return nil
}

func (self *ChangeEventType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	return self.FromString(str)
}

func (self ChangeEventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}

// EventKey is the uniqueness key of a ChangeEvent.
type EventKey struct {
	SpecRef     string
	ContentHash string
}

func (self EventKey) String() string {
	return self.SpecRef + "@" + self.ContentHash
}

type ChangeEventStatus string

const (
	ChangeEventAccepted   ChangeEventStatus = "accepted"
	ChangeEventProcessed  ChangeEventStatus = "processed"
	ChangeEventSuperseded ChangeEventStatus = "superseded"
	ChangeEventDeadLetter ChangeEventStatus = "dead_letter"
)

type ChangeEvent struct {
	ID           uuid.UUID         `json:"id"`
	EventID      string            `json:"event_id"`
	SpecRef      string            `json:"spec_ref"`
	ContentHash  string            `json:"content_hash"`
	Type         ChangeEventType   `json:"event_type"`
	OperationSet []string          `json:"operation_set"`
	Signature    string            `json:"signature"`
	Status       ChangeEventStatus `json:"status"`
	ReceivedAt   time.Time         `json:"received_at"`

	// Content is held in memory while the event is queued, it is not persisted.
	Content []byte `json:"-" db:"-"`
}

func (self ChangeEvent) Key() EventKey {
	return EventKey{SpecRef: self.SpecRef, ContentHash: self.ContentHash}
}

// Includes reports whether the operation is part of the event's operation set.
// An empty set selects every operation.
func (self ChangeEvent) Includes(op Operation) bool {
	if len(self.OperationSet) == 0 {
		return true
	}
	for _, sel := range self.OperationSet {
		if sel == op.ID || (op.OperationID != "" && sel == op.OperationID) {
			return true
		}
	}
	return false
}
