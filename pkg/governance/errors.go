package governance

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed input before any write. The caller must
// fix the request and resubmit.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// OutOfRangeError rejects a numeric field outside its allowed bounds.
type OutOfRangeError struct {
	Field    string
	Value    int32
	Min, Max int32
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d,%d]", e.Field, e.Value, e.Min, e.Max)
}

// ConflictError rejects a write that would duplicate an existing record.
// The existing record is left untouched.
type ConflictError struct {
	Resource string
	Detail   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Detail)
}

// DuplicateVoteError rejects a second ballot from the same voter on the same
// proposal. Exactly-once semantics per voter: retries are not silently accepted.
type DuplicateVoteError struct {
	ProposalID string
	AdminID    string
}

func (e *DuplicateVoteError) Error() string {
	return fmt.Sprintf("admin %s already voted on proposal %s", e.AdminID, e.ProposalID)
}

// InvalidStateError rejects an operation the proposal's current status does
// not permit.
type InvalidStateError struct {
	ProposalID string
	Status     string
	Op         string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s proposal %s in status %q", e.Op, e.ProposalID, e.Status)
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// IsValidation reports whether err is a validation or out-of-range error.
func IsValidation(err error) bool {
	var ve *ValidationError
	var oe *OutOfRangeError
	return errors.As(err, &ve) || errors.As(err, &oe)
}

// IsConflict reports whether err is a conflict or duplicate-vote error.
func IsConflict(err error) bool {
	var ce *ConflictError
	var de *DuplicateVoteError
	return errors.As(err, &ce) || errors.As(err, &de)
}

// IsInvalidState reports whether err is an invalid-state error.
func IsInvalidState(err error) bool {
	var se *InvalidStateError
	return errors.As(err, &se)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
