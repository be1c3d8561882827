/*
orders.go - Order classification and stay linkage

PURPOSE:
  Orders are generic records: a room-service meal, a delivery, and a nightly
  room charge all live in the same table, told apart only by conventions.
  This file decides (a) what billing category an order is, and (b) which stay
  it belongs to. Both decisions were historically re-implemented per screen
  with slight variations; they live here exactly once.

CLASSIFICATION PRECEDENCE (first match wins, strongest signal first):
  1. Note begins with the room-charge marker        -> RoomCharge
  2. Order number begins with "ROOM-"               -> RoomCharge (legacy)
  3. Non-empty room reference                       -> RoomService
  4. Non-empty delivery address                     -> Delivery
  5. Otherwise                                      -> Other

  The "ROOM-" number fallback predates note tagging. It can misclassify a
  legitimately numbered order that happens to share the prefix; existing
  data depends on it, so it stays.

LINKAGE RESOLUTION:
  (a) Charge-note metadata carrying a reservation id resolves directly to the
      stay owning that night.
  (b) Otherwise, (room id, lowercased guest email, calendar date) resolves
      against the stay index.
  Orders that resolve neither way stay unlinked - that is a reporting state,
  not an error.
*/
package frontdesk

import "strings"

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classify assigns a billing category to an order.
func Classify(o Order) OrderKind {
	switch {
	case HasChargeMarker(o.Note):
		return KindRoomCharge
	case strings.HasPrefix(o.Number, RoomChargeNumberPrefix):
		return KindRoomCharge
	case o.RoomID != "":
		return KindRoomService
	case strings.TrimSpace(o.DeliveryAddress) != "":
		return KindDelivery
	default:
		return KindOther
	}
}

// ChargeReservationID extracts the night-reservation id a room-charge order
// is linked to: charge-note metadata first, then the legacy order-number
// form ROOM-<reservation id>. ok=false when neither yields an id.
func ChargeReservationID(o Order) (ReservationID, bool) {
	if ref, ok := DecodeChargeNote(o.Note); ok {
		return ref.ReservationID, true
	}
	if rest, found := strings.CutPrefix(o.Number, RoomChargeNumberPrefix); found && rest != "" {
		return ReservationID(rest), true
	}
	return "", false
}

// =============================================================================
// LINKER
// =============================================================================

// LinkToStay resolves which stay an order belongs to, or nil when the order
// is unlinked. Charge metadata beats the order's own room/date fields.
func (ix *StayIndex) LinkToStay(o Order) *Stay {
	if id, ok := ChargeReservationID(o); ok {
		if s := ix.byReservation[id]; s != nil {
			return s
		}
	}
	if o.RoomID == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(o.GuestEmail))
	if email == "" || o.PlacedAt.IsZero() {
		return nil
	}
	return ix.byComposite[compositeKey{
		Room:  o.RoomID,
		Email: email,
		Date:  DateKeyOf(o.PlacedAt, ix.loc),
	}]
}

// =============================================================================
// PAYMENT PREDICATE - The single shared definition of "paid"
// =============================================================================

// IsPaid reports whether an order is settled. An explicit paid flag wins;
// otherwise any non-blank payment token counts. Every call site in the
// system must use this predicate - divergent paid detection is exactly the
// defect class this package exists to remove.
func IsPaid(o Order) bool {
	if o.Paid != nil {
		return *o.Paid
	}
	return strings.TrimSpace(o.PaymentToken) != ""
}
