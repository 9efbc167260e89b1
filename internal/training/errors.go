package training

import (
	"fmt"

	"github.com/myrjola/trainingplan/internal/errors"
)

// Every error returned by this package wraps exactly one of these so that callers can branch with errors.Is.
var (
	// ErrValidation reports malformed input. It is never coerced into a valid value.
	ErrValidation = errors.NewSentinel("validation error")
	// ErrConflict reports a write that would overwrite a committed plan or lost an optimistic concurrency check.
	ErrConflict = errors.NewSentinel("conflict")
	// ErrDependencyUnavailable reports a failing Calendar Service. Plan generation recovers from it.
	ErrDependencyUnavailable = errors.NewSentinel("dependency unavailable")
	// ErrDataIntegrity reports reference data that cannot satisfy a request, e.g. no exercise for a pattern.
	ErrDataIntegrity = errors.NewSentinel("data integrity error")
	// ErrPersistence reports a failed read or write against the store.
	ErrPersistence = errors.NewSentinel("persistence error")
	// ErrNotFound reports a missing goal, plan, exercise, or justification.
	ErrNotFound = errors.NewSentinel("not found")
)

// WarningKind classifies degraded situations attached to an otherwise successful result.
type WarningKind string

const (
	WarningCalendarUnavailable   WarningKind = "calendar_unavailable"
	WarningMissingExercises      WarningKind = "missing_exercises"
	WarningUnbalancedWeek        WarningKind = "unbalanced_week"
	WarningCalendarPublishFailed WarningKind = "calendar_publish_failed"
)

// Warning is surfaced to the user next to a plan. It is not an error because the plan is still usable.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func validationError(msg string, args ...any) error {
	return errorf(ErrValidation, msg, args...)
}

// errorf wraps sentinel with a formatted message.
func errorf(sentinel error, msg string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(msg, args...))
}
