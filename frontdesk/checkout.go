/*
checkout.go - Check-in / checkout / cancellation policy engine

PURPOSE:
  Evaluates desk-side lifecycle transitions against hotel policy and, when
  permitted, applies them as an ordered sequence of store mutations.

KEY CONCEPTS:
  - A stay has no state machine of its own. Its state is derived on every
    read from its nights' statuses plus the room's occupancy flag, so the
    engine re-derives state instead of trusting a cached one.
  - Preconditions name the blocking condition. Elevated actors (manager,
    admin) may override most conditions; a non-elevated actor asking for an
    override is rejected outright, never downgraded to a plain attempt.
  - Effect sequences are NOT atomic. Mutations run in a fixed order and stop
    at the first failure; completed steps stay applied and the result lists
    them so the desk can retry the remainder.

SEE ALSO:
  - poster.go: nightly-charge posting invoked from check-in (policy driven)
    and re-checked at checkout
  - folio.go: balance computation backing the checkout payment gate
*/
package frontdesk

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// STORE INTERFACES - Mutation intents the engine emits
// =============================================================================

// ReservationWriter updates night-reservation lifecycle statuses.
type ReservationWriter interface {
	SetReservationStatus(ctx context.Context, id ReservationID, status ReservationStatus) error
}

// RoomWriter updates room occupancy and desk-side room tags.
type RoomWriter interface {
	SetRoomOccupied(ctx context.Context, id RoomID, occupied bool) error
	// PatchRoomTags merges tag key/values into the room's special-requests
	// field; an empty value deletes the key.
	PatchRoomTags(ctx context.Context, id RoomID, patch map[string]string) error
}

// =============================================================================
// DERIVED STAY STATE
// =============================================================================

// StayState is the desk-facing lifecycle position of a stay, derived fresh
// on every evaluation.
type StayState string

const (
	StateNotArrived StayState = "not_arrived"
	StateCheckedIn  StayState = "checked_in"
	StateCheckedOut StayState = "checked_out"
	StateCancelled  StayState = "cancelled"
)

// StateOf derives the lifecycle state from the stay's aggregate status and
// occupancy-backed check-in flag.
func StateOf(stay *Stay) StayState {
	switch {
	case stay.Status == ReservationCancelled:
		return StateCancelled
	case stay.Status == ReservationCompleted:
		return StateCheckedOut
	case stay.CheckedIn:
		return StateCheckedIn
	default:
		return StateNotArrived
	}
}

// =============================================================================
// TRANSITION RESULTS
// =============================================================================

// StepResult records one applied mutation of an effect sequence.
type StepResult struct {
	Step     string
	EntityID string
}

// TransitionResult reports how far a transition's effect sequence got.
// Failed is nil on full success. Posted/PostErr report the outcome of any
// charge-posting side effect; a posting failure never unwinds the
// transition itself.
type TransitionResult struct {
	Completed []StepResult
	Failed    error

	Posted  *PostResult
	PostErr error
}

// Ok reports whether every step applied.
func (r *TransitionResult) Ok() bool { return r.Failed == nil }

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies desk-side stay transitions against the backing stores.
type Engine struct {
	Reservations ReservationWriter
	Rooms        RoomWriter
	Orders       OrderReader
	Poster       *ChargePoster

	// Today resolves the operational date for precondition checks;
	// nil = calendar date in loc (or UTC).
	Today func() DateKey
	Loc   *time.Location
}

func (e *Engine) today() DateKey {
	if e.Today != nil {
		return e.Today()
	}
	loc := e.Loc
	if loc == nil {
		loc = time.UTC
	}
	return DateKeyOf(time.Now(), loc)
}

func (e *Engine) loc() *time.Location {
	if e.Loc != nil {
		return e.Loc
	}
	return time.UTC
}

// checkOverride rejects override requests from non-elevated actors. An
// override is an audited escalation, so a staff-level request for one is an
// error in its own right rather than a fallback to the normal path.
func checkOverride(actor Actor, override bool, stayKey string) error {
	if override && !actor.Role.Elevated() {
		return &PreconditionError{
			Condition: CondOverrideNotPermitted,
			Message:   fmt.Sprintf("role %q may not override checkout policy", actor.Role),
			StayKey:   stayKey,
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Check-in
// -----------------------------------------------------------------------------

// CheckIn validates and applies a check-in for the stay.
//
// Preconditions (each skippable by an elevated actor with override):
//   - today is the stay's first night
//   - the room is not already occupied
//   - housekeeping marks the room ready
//
// Effects, in order: mark the room occupied, then confirm each pending
// night. When hotel policy enables auto-posting and the nightly rate
// resolves, missing nightly charges are posted afterwards; a posting failure
// is reported on the result but does not undo the check-in.
func (e *Engine) CheckIn(ctx context.Context, stay *Stay, settings HotelSettings, actor Actor, override bool) (*TransitionResult, error) {
	if err := checkOverride(actor, override, stay.Key()); err != nil {
		return nil, err
	}

	switch StateOf(stay) {
	case StateCancelled:
		return nil, &PreconditionError{Condition: CondStayCancelled, Message: "stay is cancelled", StayKey: stay.Key()}
	case StateCheckedIn, StateCheckedOut:
		return nil, &PreconditionError{Condition: CondAlreadyCheckedIn, Message: "stay is already checked in", StayKey: stay.Key()}
	}

	if !override {
		if today := e.today(); !today.Equal(stay.FirstNight) {
			return nil, &PreconditionError{
				Condition: CondWrongDay,
				Message:   fmt.Sprintf("stay starts %s, today is %s", stay.FirstNight, today),
				StayKey:   stay.Key(),
			}
		}
		if stay.Room.Occupied {
			return nil, &PreconditionError{Condition: CondRoomOccupied, Message: "room is still occupied", StayKey: stay.Key()}
		}
		if rs := RoomStateOf(stay.Room); rs.Housekeeping != HousekeepingReady {
			return nil, &PreconditionError{
				Condition: CondRoomNotReady,
				Message:   fmt.Sprintf("housekeeping state is %q", rs.Housekeeping),
				StayKey:   stay.Key(),
			}
		}
	}

	// Occupancy is claimed first so a failure partway through night
	// confirmation still leaves the room marked as taken.
	result := &TransitionResult{}
	if err := e.Rooms.SetRoomOccupied(ctx, stay.RoomID, true); err != nil {
		result.Failed = &StepError{Step: "occupy_room", EntityID: string(stay.RoomID), Err: err}
		return result, result.Failed
	}
	result.Completed = append(result.Completed, StepResult{Step: "occupy_room", EntityID: string(stay.RoomID)})
	for _, n := range stay.Nights {
		if n.Status != ReservationPending {
			continue
		}
		if err := e.Reservations.SetReservationStatus(ctx, n.ID, ReservationConfirmed); err != nil {
			result.Failed = &StepError{Step: "confirm_night", EntityID: string(n.ID), Err: err}
			return result, result.Failed
		}
		result.Completed = append(result.Completed, StepResult{Step: "confirm_night", EntityID: string(n.ID)})
	}

	if settings.AutoPostCharges && e.Poster != nil {
		rate := NightlyRate(settings, RoomStateOf(stay.Room))
		posted, err := e.Poster.EnsureNightlyCharges(ctx, stay, rate, settings.Currency, stay.ActiveNightDates())
		result.Posted = &posted
		result.PostErr = err
	}

	return result, nil
}

// -----------------------------------------------------------------------------
// Checkout
// -----------------------------------------------------------------------------

// Checkout validates and applies a checkout for the stay.
//
// Preconditions (each skippable by an elevated actor with override):
//   - the stay is currently checked in
//   - today falls inside the stay window or on the checkout date
//   - every active night has its room charge posted
//     (unless hotel policy disables the gate)
//   - the folio balance is settled (unless hotel policy disables the gate)
//
// Effects, in order: complete each active night, release room occupancy,
// then tag the room dirty and queue it for cleaning.
func (e *Engine) Checkout(ctx context.Context, stay *Stay, settings HotelSettings, actor Actor, override bool) (*TransitionResult, error) {
	if err := checkOverride(actor, override, stay.Key()); err != nil {
		return nil, err
	}

	switch StateOf(stay) {
	case StateCancelled:
		return nil, &PreconditionError{Condition: CondStayCancelled, Message: "stay is cancelled", StayKey: stay.Key()}
	case StateNotArrived, StateCheckedOut:
		return nil, &PreconditionError{Condition: CondNotCheckedIn, Message: "stay is not checked in", StayKey: stay.Key()}
	}

	if !override {
		if today := e.today(); !e.insideStayWindow(stay, today) {
			return nil, &PreconditionError{
				Condition: CondWrongDay,
				Message:   fmt.Sprintf("checkout date is %s, today is %s", stay.CheckoutDate, today),
				StayKey:   stay.Key(),
			}
		}

		orders, err := e.Orders.OrdersForRoom(ctx, stay.RoomID)
		if err != nil {
			return nil, &StepError{Step: "load_folio_orders", EntityID: string(stay.RoomID), Err: err}
		}
		folio := BuildFolio(stay, orders, e.loc())

		if settings.BlockOnMissingCharges && len(folio.MissingNights) > 0 {
			return nil, &PreconditionError{
				Condition: CondMissingCharges,
				Message:   fmt.Sprintf("%d night(s) have no room charge posted", len(folio.MissingNights)),
				StayKey:   stay.Key(),
			}
		}
		if settings.RequirePaidFolio && !folio.Settled() {
			return nil, &PreconditionError{
				Condition: CondBalanceDue,
				Message:   fmt.Sprintf("balance due %s %s", folio.BalanceDue.StringFixed(2), settings.Currency),
				StayKey:   stay.Key(),
			}
		}
	}

	result := &TransitionResult{}
	for _, n := range stay.Nights {
		if !n.Status.Active() {
			continue
		}
		if err := e.Reservations.SetReservationStatus(ctx, n.ID, ReservationCompleted); err != nil {
			result.Failed = &StepError{Step: "complete_night", EntityID: string(n.ID), Err: err}
			return result, result.Failed
		}
		result.Completed = append(result.Completed, StepResult{Step: "complete_night", EntityID: string(n.ID)})
	}
	if err := e.Rooms.SetRoomOccupied(ctx, stay.RoomID, false); err != nil {
		result.Failed = &StepError{Step: "release_room", EntityID: string(stay.RoomID), Err: err}
		return result, result.Failed
	}
	result.Completed = append(result.Completed, StepResult{Step: "release_room", EntityID: string(stay.RoomID)})

	patch := map[string]string{
		TagHousekeeping: string(HousekeepingDirty),
		TagCleaningList: "1",
	}
	if err := e.Rooms.PatchRoomTags(ctx, stay.RoomID, patch); err != nil {
		result.Failed = &StepError{Step: "queue_cleaning", EntityID: string(stay.RoomID), Err: err}
		return result, result.Failed
	}
	result.Completed = append(result.Completed, StepResult{Step: "queue_cleaning", EntityID: string(stay.RoomID)})

	return result, nil
}

// insideStayWindow reports whether day is a valid operational date for
// checking the stay out: any day of the stay, plus the checkout date.
func (e *Engine) insideStayWindow(stay *Stay, day DateKey) bool {
	return day.AfterOrEqual(stay.FirstNight) && day.BeforeOrEqual(stay.CheckoutDate)
}

// -----------------------------------------------------------------------------
// Cancellation
// -----------------------------------------------------------------------------

// Cancel cancels every remaining active night of the stay. Rooms and orders
// are untouched: a cancelled stay never got the room, and any posted charges
// stop counting because cancelled nights leave the folio on the next read.
func (e *Engine) Cancel(ctx context.Context, stay *Stay, actor Actor) (*TransitionResult, error) {
	switch StateOf(stay) {
	case StateCancelled:
		return nil, &PreconditionError{Condition: CondStayCancelled, Message: "stay is already cancelled", StayKey: stay.Key()}
	case StateCheckedOut:
		return nil, &PreconditionError{Condition: CondNotCheckedIn, Message: "stay is already checked out", StayKey: stay.Key()}
	}

	result := &TransitionResult{}
	for _, n := range stay.Nights {
		if !n.Status.Active() {
			continue
		}
		if err := e.Reservations.SetReservationStatus(ctx, n.ID, ReservationCancelled); err != nil {
			result.Failed = &StepError{Step: "cancel_night", EntityID: string(n.ID), Err: err}
			return result, result.Failed
		}
		result.Completed = append(result.Completed, StepResult{Step: "cancel_night", EntityID: string(n.ID)})
	}
	return result, nil
}
