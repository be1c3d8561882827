/*
folio.go - Billing aggregation per stay

PURPOSE:
  A folio is the billing view of a stay: which orders belong on the bill,
  what is owed, what was paid and how. Like the stay itself it is derived on
  demand from the order list and never persisted.

FILTERING RULES:
  Room-charge lines: active orders classified RoomCharge whose linkage
    resolves to one of the stay's active night ids (charge-note metadata, or
    the legacy ROOM-<id> number fallback).
  Service lines: active room-service (or unclassified-but-room-linked)
    orders. Unpaid ones are ALWAYS included - dropping an open balance
    silently is the worst failure mode a folio can have. Paid ones are
    included only when dated inside [first night, checkout), so unrelated
    history from earlier visits never leaks onto this bill.

TOTALS:
  room + service = grand; paid = sum over included paid lines;
  balance due = grand - paid. Unparseable amounts count as zero.

MISSING NIGHTS:
  Active nights with no room-charge line yet. This set feeds the idempotent
  poster (poster.go) and the checkout gate (checkout.go).
*/
package frontdesk

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FOLIO - Derived billing view
// =============================================================================

// FolioLine is one billing line on a stay's folio.
type FolioLine struct {
	OrderID       OrderID
	Number        string
	Kind          OrderKind
	Amount        decimal.Decimal
	Paid          bool
	Method        string // payment method, empty for unpaid lines
	Date          DateKey
	ReservationID ReservationID // linked night, room charges only
}

// MethodTotal is one bucket of the payment-method breakdown.
type MethodTotal struct {
	Method string
	Amount decimal.Decimal
}

// Folio is the derived billing view of one stay. Recomputed on demand from
// the current order snapshot; never cached across writes.
type Folio struct {
	StayKey string

	RoomCharges []FolioLine
	Services    []FolioLine

	RoomTotal    decimal.Decimal
	ServiceTotal decimal.Decimal
	GrandTotal   decimal.Decimal
	PaidTotal    decimal.Decimal
	BalanceDue   decimal.Decimal

	// Payments is the paid-line breakdown by method, descending by amount.
	Payments []MethodTotal

	// MissingNights are active nights with no room charge posted yet.
	MissingNights []DateKey
}

// Settled reports whether the folio carries no open balance.
func (f Folio) Settled() bool { return !f.BalanceDue.IsPositive() }

// =============================================================================
// RECONCILER
// =============================================================================

// BuildFolio aggregates the orders belonging to a stay into its folio.
// orders is the full order list for the stay's room (active and not); loc is
// the operational timezone for the paid-line date window (nil = UTC).
func BuildFolio(stay *Stay, orders []Order, loc *time.Location) Folio {
	if loc == nil {
		loc = time.UTC
	}

	folio := Folio{
		StayKey:      stay.Key(),
		RoomTotal:    decimal.Zero,
		ServiceTotal: decimal.Zero,
		PaidTotal:    decimal.Zero,
	}

	activeNights := stay.ActiveNightIDs()
	charged := make(map[ReservationID]bool)

	for _, o := range orders {
		if !o.Status.Active() {
			continue
		}

		switch Classify(o) {
		case KindRoomCharge:
			resID, ok := ChargeReservationID(o)
			if !ok || !activeNights[resID] {
				continue // a charge for some other stay, or unlinkable
			}
			line := newFolioLine(o, loc)
			line.ReservationID = resID
			folio.RoomCharges = append(folio.RoomCharges, line)
			folio.RoomTotal = folio.RoomTotal.Add(line.Amount)
			charged[resID] = true

		case KindRoomService, KindOther:
			if o.RoomID != stay.RoomID {
				continue
			}
			line := newFolioLine(o, loc)
			if line.Paid && !insideWindow(line.Date, stay) {
				continue
			}
			folio.Services = append(folio.Services, line)
			folio.ServiceTotal = folio.ServiceTotal.Add(line.Amount)
		}
	}

	folio.GrandTotal = folio.RoomTotal.Add(folio.ServiceTotal)
	folio.PaidTotal = paidTotal(folio.RoomCharges).Add(paidTotal(folio.Services))
	folio.BalanceDue = folio.GrandTotal.Sub(folio.PaidTotal)
	folio.Payments = methodBreakdown(folio.RoomCharges, folio.Services)
	folio.MissingNights = missingNights(stay, charged)
	return folio
}

func newFolioLine(o Order, loc *time.Location) FolioLine {
	line := FolioLine{
		OrderID: o.ID,
		Number:  o.Number,
		Kind:    Classify(o),
		Amount:  o.Amount(),
		Paid:    IsPaid(o),
		Date:    DateKeyOf(o.PlacedAt, loc),
	}
	if line.Paid {
		line.Method = ParsePaymentMethod(o.PaymentToken)
		if line.Method == "" {
			line.Method = PaymentMethodOther
		}
	}
	return line
}

// insideWindow reports whether a date falls in [first night, checkout).
func insideWindow(d DateKey, stay *Stay) bool {
	return stay.FirstNight.BeforeOrEqual(d) && d.Before(stay.CheckoutDate)
}

func paidTotal(lines []FolioLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Paid {
			total = total.Add(l.Amount)
		}
	}
	return total
}

func methodBreakdown(lineSets ...[]FolioLine) []MethodTotal {
	byMethod := make(map[string]decimal.Decimal)
	for _, lines := range lineSets {
		for _, l := range lines {
			if !l.Paid {
				continue
			}
			byMethod[l.Method] = byMethod[l.Method].Add(l.Amount)
		}
	}

	breakdown := make([]MethodTotal, 0, len(byMethod))
	for method, amount := range byMethod {
		breakdown = append(breakdown, MethodTotal{Method: method, Amount: amount})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if !breakdown[i].Amount.Equal(breakdown[j].Amount) {
			return breakdown[i].Amount.GreaterThan(breakdown[j].Amount)
		}
		return breakdown[i].Method < breakdown[j].Method
	})
	return breakdown
}

func missingNights(stay *Stay, charged map[ReservationID]bool) []DateKey {
	var missing []DateKey
	for _, d := range stay.ActiveNightDates() {
		if !charged[stay.NightByDate[d]] {
			missing = append(missing, d)
		}
	}
	return missing
}
