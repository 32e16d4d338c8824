package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel errors ─────────────────────────────────────────────────────────

var (
	// ErrNotFound is returned when a record is missing or not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller's role or ownership does not
	// permit the operation.
	ErrForbidden = errors.New("you do not have permission to perform this action")

	// ErrPaymentRequired is returned for actions gated behind full access.
	ErrPaymentRequired = errors.New("unlock full access to continue")

	// ErrAlreadyApplied is returned when an active application exists for
	// the same teacher and opportunity.
	ErrAlreadyApplied = errors.New("you have already applied to this opportunity")

	// ErrAlreadySelected is returned when the teacher is already shortlisted
	// for the job.
	ErrAlreadySelected = errors.New("this teacher is already selected for this job")

	// ErrRunInProgress is returned when another matching run holds the lock.
	ErrRunInProgress = errors.New("matching is already running, please wait for it to finish")
)

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// TransitionError reports a status change the state machine rejects.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("status cannot change from %s to %s", e.From, e.To)
}

// QuotaError reports that a school reached its job posting limit.
type QuotaError struct {
	Max    int
	Active int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("job posting quota reached: your plan allows %d active jobs and you have %d", e.Max, e.Active)
}
