package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

// ErrSuperseded is the cancellation cause of a job whose spec_ref received a newer event.
var ErrSuperseded = errors.New("superseded by a newer event")

type AuthError struct {
	Reason string
}

func (self *AuthError) Error() string {
	return "Signature verification failed: " + self.Reason
}

type SpecErrorKind string

const (
	SpecMalformed SpecErrorKind = "malformed"
	SpecDrift     SpecErrorKind = "drift"
)

type SpecError struct {
	Kind      SpecErrorKind
	Operation string
	Reason    string
	Err       error
}

func (self *SpecError) Error() string {
	msg := fmt.Sprintf("spec %s: %s", self.Kind, self.Reason)
	if self.Operation != "" {
		msg = fmt.Sprintf("spec %s in %s: %s", self.Kind, self.Operation, self.Reason)
	}
	if self.Err != nil {
		msg += ": " + self.Err.Error()
	}
	return msg
}

func (self *SpecError) Unwrap() error { return self.Err }

type SynthesisErrorKind string

const (
	SynthesisDepthExceeded     SynthesisErrorKind = "depth_exceeded"
	SynthesisUnsupportedSchema SynthesisErrorKind = "unsupported_schema"
)

type SynthesisError struct {
	Kind      SynthesisErrorKind
	Operation string
	Field     string
	Reason    string
}

func (self *SynthesisError) Error() string {
	if self.Field != "" {
		return fmt.Sprintf("synthesis %s for %s at %q: %s", self.Kind, self.Operation, self.Field, self.Reason)
	}
	return fmt.Sprintf("synthesis %s for %s: %s", self.Kind, self.Operation, self.Reason)
}

type AssemblyErrorKind string

const (
	AssemblyMissingTemplate AssemblyErrorKind = "missing_template"
	AssemblyQualityConflict AssemblyErrorKind = "quality_conflict"
)

type AssemblyError struct {
	Kind      AssemblyErrorKind
	Framework string
	Reason    string
}

func (self *AssemblyError) Error() string {
	return fmt.Sprintf("assembly %s for framework %q: %s", self.Kind, self.Framework, self.Reason)
}

// TransientError marks a failure worth retrying.
type TransientError struct {
	Err error
}

func (self *TransientError) Error() string { return "transient: " + self.Err.Error() }
func (self *TransientError) Unwrap() error { return self.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

type CommitError struct {
	Branch string
	Err    error
}

func (self *CommitError) Error() string {
	return fmt.Sprintf("commit to %q failed: %s", self.Branch, self.Err)
}

func (self *CommitError) Unwrap() error { return self.Err }

// ConflictError reports a review transition attempted against a stale version.
type ConflictError struct {
	ID       uuid.UUID
	Expected int
	Actual   int
}

func (self *ConflictError) Error() string {
	return fmt.Sprintf("review item %s is at version %d, not %d", self.ID, self.Actual, self.Expected)
}

type TransitionError struct {
	ID     uuid.UUID
	From   ReviewState
	To     ReviewState
	Reason string
}

func (self *TransitionError) Error() string {
	msg := fmt.Sprintf("review item %s cannot move from %s to %s", self.ID, self.From, self.To)
	if self.Reason != "" {
		msg += ": " + self.Reason
	}
	return msg
}

func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsMalformed(err error) bool {
	var target *SpecError
	return errors.As(err, &target) && target.Kind == SpecMalformed
}
