/*
errors.go - Centralized error types for the derivation core

ERROR CATEGORIES:
  1. Precondition violations - user-actionable, name the blocking condition
  2. Step failures - a multi-step effect sequence stopped partway
  3. Storage conflicts - uniqueness violations on idempotent posting

WHAT IS NOT AN ERROR HERE:
  - Malformed or foreign tag text (decoders return "absent")
  - Orders that cannot be linked to any stay (reported as unlinked)
  - A duplicate room charge during posting (counted as a skip)

USAGE:
  if frontdesk.IsPrecondition(err) {
      var pe *frontdesk.PreconditionError
      errors.As(err, &pe)
      // pe.Condition tells the desk which override, if any, applies
  }
*/
package frontdesk

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPreconditionFailed is the base of every precondition violation.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrRateNotConfigured is returned when posting nightly charges without
	// a positive nightly rate. Zero-amount charges are never posted.
	ErrRateNotConfigured = errors.New("nightly rate not configured")

	// ErrDuplicateRoomCharge is returned by stores when a room-charge order
	// for the same (room, reservation) already exists. The poster treats it
	// as success-as-skip; nothing else should surface it to users.
	ErrDuplicateRoomCharge = errors.New("room charge already exists for this night")

	// ErrDuplicateNight is returned by stores when a second active
	// night-reservation is created for the same room, guest and date.
	ErrDuplicateNight = errors.New("night already reserved for this guest and room")

	// ErrStayNotFound is returned when a stay key resolves to nothing in the
	// current reservation snapshot.
	ErrStayNotFound = errors.New("stay not found")

	// ErrNotFound is returned by stores when a referenced row does not exist.
	ErrNotFound = errors.New("record not found")
)

// =============================================================================
// PRECONDITION ERRORS - Name the specific blocking condition
// =============================================================================

// Condition identifies which checkout/check-in precondition blocked an
// operation. Front-desk staff need the specific condition to know which
// override, if any, is applicable.
type Condition string

const (
	CondWrongDay             Condition = "wrong_day"
	CondNotCheckedIn         Condition = "not_checked_in"
	CondAlreadyCheckedIn     Condition = "already_checked_in"
	CondRoomOccupied         Condition = "room_occupied"
	CondRoomNotReady         Condition = "room_not_ready"
	CondMissingCharges       Condition = "missing_nightly_charges"
	CondBalanceDue           Condition = "balance_due"
	CondOverrideNotPermitted Condition = "override_not_permitted"
	CondRateNotConfigured    Condition = "rate_not_configured"
	CondStayCancelled        Condition = "stay_cancelled"
)

// PreconditionError reports a blocked transition. It is never silently
// coerced into a default; callers surface Condition to the user.
type PreconditionError struct {
	Condition Condition
	Message   string
	StayKey   string

	// Cause optionally carries a sentinel so errors.Is can match the
	// specific failure (e.g. ErrRateNotConfigured) as well as the base.
	Cause error
}

func (e *PreconditionError) Error() string {
	if e.StayKey != "" {
		return fmt.Sprintf("%s: %s (stay %s)", e.Condition, e.Message, e.StayKey)
	}
	return fmt.Sprintf("%s: %s", e.Condition, e.Message)
}

func (e *PreconditionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrPreconditionFailed, e.Cause}
	}
	return []error{ErrPreconditionFailed}
}

// IsPrecondition reports whether err is a blocked-transition error.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}

// =============================================================================
// STEP ERRORS - Partial failure of an effect sequence
// =============================================================================

// StepError reports which step of a multi-step mutation sequence failed and
// on which entity. Earlier steps are NOT rolled back; the caller retries the
// remainder, not the whole sequence.
type StepError struct {
	Step     string
	EntityID string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed on %s: %v", e.Step, e.EntityID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid or conflicting
// client input rather than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrPreconditionFailed) ||
		errors.Is(err, ErrRateNotConfigured) ||
		errors.Is(err, ErrDuplicateNight) ||
		errors.Is(err, ErrStayNotFound) ||
		errors.Is(err, ErrNotFound)
}

// IsConflict returns true for storage-level uniqueness conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRoomCharge) ||
		errors.Is(err, ErrDuplicateNight)
}
