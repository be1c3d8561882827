/*
poster.go - Idempotent nightly room-charge posting

PURPOSE:
  Guarantees at most one room-charge order per (stay, night), creating only
  the ones that are missing. Invoked at check-in (when hotel policy asks for
  it) and on demand from the folio screen.

IDEMPOTENCY MODEL - READ THIS BEFORE CHANGING ANYTHING:
  The poster re-checks each night against the latest order snapshot before
  creating, but check and create are two separate round-trips, so the
  client-side check is ADVISORY ONLY. The authoritative guarantee is the
  store's uniqueness constraint on (room id, reservation id) for room-charge
  orders (store/sqlite enforces it with a partial unique index; the memory
  store simulates it). A uniqueness violation on create is success-as-skip,
  never an error. Do not remove the constraint and rely on the check.

PARTIAL FAILURE:
  Nights are posted one at a time, in date order, stopping at the first
  failure. Already-created nights stay committed - no rollback. The result
  carries created/skipped counts and the failed night so the caller can
  retry just the remainder.
*/
package frontdesk

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE INTERFACES - The poster's only view of the order store
// =============================================================================

// OrderReader supplies the latest order snapshot for a room.
type OrderReader interface {
	OrdersForRoom(ctx context.Context, roomID RoomID) ([]Order, error)
}

// OrderWriter emits order mutation intents.
type OrderWriter interface {
	// CreateOrder persists a new order. Must return ErrDuplicateRoomCharge
	// when the order carries charge metadata that collides with an existing
	// active room charge for the same room.
	CreateOrder(ctx context.Context, o Order) error

	// MarkOrderPaid records a payment token on an order.
	MarkOrderPaid(ctx context.Context, id OrderID, token string) error
}

// OrderStore combines the reader and writer sides.
type OrderStore interface {
	OrderReader
	OrderWriter
}

// =============================================================================
// POSTER
// =============================================================================

// PostResult reports how a posting run went. When Err is set the run stopped
// at FailedNight; earlier nights remain committed.
type PostResult struct {
	Created int
	Skipped int

	// FailedNight is the night whose create failed, nil on full success.
	FailedNight *DateKey
}

// ChargePoster posts missing nightly room charges.
type ChargePoster struct {
	Orders OrderStore

	// Now is the clock used for order ids and timestamps; nil = time.Now.
	Now func() time.Time
}

// EnsureNightlyCharges makes sure each target night has exactly one
// room-charge order, creating the missing ones at the given rate.
//
// The rate must be positive: posting zero-amount charges would silently hide
// a misconfigured hotel, so that is a precondition error, not a no-op.
// Nights outside the stay's active nights are counted as skipped.
func (p *ChargePoster) EnsureNightlyCharges(
	ctx context.Context,
	stay *Stay,
	rate decimal.Decimal,
	currency string,
	nights []DateKey,
) (PostResult, error) {
	var result PostResult

	if !rate.IsPositive() {
		return result, &PreconditionError{
			Condition: CondRateNotConfigured,
			Message:   "nightly rate is not configured for this room",
			StayKey:   stay.Key(),
			Cause:     ErrRateNotConfigured,
		}
	}

	sorted := make([]DateKey, len(nights))
	copy(sorted, nights)
	for i := 1; i < len(sorted); i++ { // insertion sort: target sets are tiny
		for j := i; j > 0 && sorted[j].Before(sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	active := stay.ActiveNightIDs()
	for _, night := range sorted {
		resID, covered := stay.NightByDate[night]
		if !covered || !active[resID] {
			result.Skipped++
			continue
		}

		// Advisory re-check against the latest snapshot. The store's
		// uniqueness constraint is what actually prevents duplicates.
		existing, err := p.Orders.OrdersForRoom(ctx, stay.RoomID)
		if err != nil {
			result.FailedNight = &night
			return result, &StepError{Step: "check_existing_charge", EntityID: string(resID), Err: err}
		}
		if hasChargeFor(existing, resID) {
			result.Skipped++
			continue
		}

		order := p.buildChargeOrder(stay, resID, night, rate, currency)
		if err := p.Orders.CreateOrder(ctx, order); err != nil {
			if IsConflict(err) {
				// Lost the race to a concurrent poster. The charge exists,
				// which is all we wanted.
				result.Skipped++
				continue
			}
			result.FailedNight = &night
			return result, &StepError{Step: "create_room_charge", EntityID: string(resID), Err: err}
		}
		result.Created++
	}

	return result, nil
}

func hasChargeFor(orders []Order, resID ReservationID) bool {
	for _, o := range orders {
		if !o.Status.Active() || Classify(o) != KindRoomCharge {
			continue
		}
		if id, ok := ChargeReservationID(o); ok && id == resID {
			return true
		}
	}
	return false
}

func (p *ChargePoster) buildChargeOrder(stay *Stay, resID ReservationID, night DateKey, rate decimal.Decimal, currency string) Order {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}

	ref := ChargeRef{
		ReservationID: resID,
		Date:          night,
		HotelID:       stay.HotelID,
		RoomID:        stay.RoomID,
		RoomNumber:    stay.RoomNumber,
	}

	// The marker line is the contract; the plain-text second line records
	// the rate and currency for audit without touching the format.
	note := EncodeChargeNote(ref) + "\n" +
		fmt.Sprintf("Room %d night %s @ %s %s", stay.RoomNumber, night, rate.StringFixed(2), currency)

	return Order{
		ID:         OrderID(fmt.Sprintf("ord-%d", now.UnixNano())),
		RoomID:     stay.RoomID,
		Number:     RoomChargeNumberPrefix + string(resID),
		Note:       note,
		Total:      rate.StringFixed(2),
		GuestEmail: stay.GuestEmail,
		Status:     OrderOpen,
		PlacedAt:   now,
	}
}
