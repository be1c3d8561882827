/*
Package frontdesk is the derivation core of the front-desk dashboard.

PURPOSE:
  The reservation backend has no first-class "stay" or "folio" entity: a
  multi-night stay is one reservation row per night, and billing lines are
  plain order records distinguished by encoded text conventions. This package
  reconstructs the derived concepts every screen needs (stays, folios,
  room-charge linkage, checkout policy) deterministically from that raw
  per-night data.

KEY CONCEPTS IN THIS FILE (types.go):
  - DateKey: A calendar date (the "night"), safe across DST transitions
  - NightReservation/Room/Hotel/Order: The external read model, read-only
  - Actor: The acting user, passed explicitly to every policy check
  - ParseMoney: Lenient decimal parsing (zero on failure, never NaN)

DESIGN PRINCIPLES:
  1. Derived-on-read: Stays and folios are recomputed from scratch on every
     read. No caching, no incremental mutation, no drift from source data.
  2. Precision: Uses decimal.Decimal for all monetary amounts.
  3. Type Safety: Strong typing for IDs prevents mixing room/hotel/order IDs.
  4. Explicit context: The acting user's role is a parameter, never ambient.

SEE ALSO:
  - tags.go: The micro-format codec for convention-encoded metadata
  - stay.go: Grouping per-night rows into contiguous stays
  - folio.go: Billing aggregation per stay
*/
package frontdesk

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type HotelID string
type RoomID string
type ReservationID string
type OrderID string

// =============================================================================
// STATUSES
// =============================================================================

// ReservationStatus is the status of a single night-reservation row.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Active reports whether the reservation still counts toward billing.
func (s ReservationStatus) Active() bool { return s != ReservationCancelled }

// OrderStatus is the status of an order record.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderPreparing OrderStatus = "preparing"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Active reports whether the order counts toward a folio.
func (s OrderStatus) Active() bool { return s != OrderCancelled }

// OrderKind is the billing category assigned by the classifier.
type OrderKind string

const (
	KindRoomCharge  OrderKind = "room_charge"
	KindRoomService OrderKind = "room_service"
	KindDelivery    OrderKind = "delivery"
	KindOther       OrderKind = "other"
)

// =============================================================================
// DATE KEY - Calendar date, the unit of a "night"
// =============================================================================

// DateKey identifies one calendar night. It is a plain (year, month, day)
// tuple so that date arithmetic is calendar arithmetic: adding a day across a
// daylight-saving transition never produces an off-by-one. DateKey is
// comparable and usable as a map key.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDateKey(year int, month time.Month, day int) DateKey {
	// Normalize through time.Date so Feb 30 etc. roll over consistently.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return DateKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DateKeyOf returns the local calendar date of a timestamp. A nil location
// defaults to UTC.
func DateKeyOf(t time.Time, loc *time.Location) DateKey {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return DateKey{Year: y, Month: m, Day: d}
}

// ParseDateKey parses "2006-01-02". Returns ok=false on malformed input.
func ParseDateKey(s string) (DateKey, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return DateKey{}, false
	}
	return DateKeyOf(t, time.UTC), true
}

// Time returns the date as UTC midnight, for arithmetic and formatting only.
func (d DateKey) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// TimeIn returns the date as midnight in loc. Timestamps that will be read
// back through DateKeyOf with the same location must be built with this, not
// Time, or the calendar date shifts west of UTC. A nil location defaults to
// UTC.
func (d DateKey) TimeIn(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d DateKey) AddDays(n int) DateKey {
	return DateKeyOf(d.Time().AddDate(0, 0, n), time.UTC)
}

func (d DateKey) Before(other DateKey) bool { return d.Time().Before(other.Time()) }
func (d DateKey) After(other DateKey) bool  { return d.Time().After(other.Time()) }
func (d DateKey) Equal(other DateKey) bool  { return d == other }
func (d DateKey) BeforeOrEqual(other DateKey) bool {
	return d == other || d.Before(other)
}
func (d DateKey) AfterOrEqual(other DateKey) bool {
	return d == other || d.After(other)
}

func (d DateKey) IsZero() bool { return d == DateKey{} }

func (d DateKey) String() string { return d.Time().Format("2006-01-02") }

// DaysBetween returns to − from in whole calendar days.
func DaysBetween(from, to DateKey) int {
	return int(to.Time().Sub(from.Time()).Hours() / 24)
}

// =============================================================================
// MONEY - Lenient decimal parsing
// =============================================================================

// ParseMoney parses a monetary amount from the backend's weakly-typed text
// fields. Anything that does not parse as a finite number is zero; totals
// must never see NaN.
func ParseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// EXTERNAL READ MODEL - Supplied by the backend, read-only to the core
// =============================================================================

// Hotel is a hotel record. Description doubles as its settings tag store.
type Hotel struct {
	ID          HotelID
	Name        string
	Description string
}

// Room is a room's live snapshot. SpecialRequests is free text that doubles
// as the room's tag store (housekeeping state, cleaning queue, rate override).
type Room struct {
	ID              RoomID
	HotelID         HotelID
	Number          int
	Occupied        bool
	SpecialRequests string
}

// NightReservation is one booking record: one room, one guest, one night.
// Night is a timestamp whose local calendar date is the night being booked.
type NightReservation struct {
	ID         ReservationID
	RoomID     RoomID
	GuestEmail string
	GuestName  string
	GuestPhone string
	Night      time.Time
	Status     ReservationStatus
	Room       Room // live snapshot of the owning room
}

// Order is a billing record. Total is the raw numeric text from the backend;
// Paid is nil when the backend only recorded a payment token.
type Order struct {
	ID              OrderID
	RoomID          RoomID // empty when the order has no room reference
	Number          string
	Note            string
	Total           string
	Paid            *bool
	PaymentToken    string
	DeliveryAddress string
	GuestEmail      string
	Status          OrderStatus
	PlacedAt        time.Time
}

// Amount returns the parsed order total (zero when unparseable).
func (o Order) Amount() decimal.Decimal { return ParseMoney(o.Total) }

// =============================================================================
// ACTOR - Explicit acting-user context for policy checks
// =============================================================================

type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Elevated reports whether the role may exercise checkout/check-in overrides.
func (r Role) Elevated() bool { return r == RoleManager || r == RoleAdmin }

// Actor is the user performing a mutation. Always passed explicitly; the
// core never reads ambient session state.
type Actor struct {
	ID   string
	Role Role
}
