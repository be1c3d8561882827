/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Each scenario creates hotels, rooms,
	night-reservations and orders that demonstrate specific desk flows.

AVAILABLE SCENARIOS:

	arrival-day:   A guest arriving today; hotel auto-posts nightly charges
	mid-stay:      A checked-in guest with partial charges and open orders
	checkout-day:  Two stays on their checkout date, one settled, one not

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Save hotels (with settings tags) and rooms (with state tags)
 3. Create per-night reservations
 4. Create orders: room charges via encoded notes, services, payments

USAGE VIA API:

	POST /api/scenarios/load
	{"id": "mid-stay"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: routing of LoadScenario, ListScenarios
  - frontdesk/tags.go: tag and charge-note formats used by the seeds
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "arrival-day",
		Name:        "Arrival Day",
		Description: "Three-night stay starting today; hotel auto-posts nightly charges at check-in",
	},
	{
		ID:          "mid-stay",
		Name:        "Mid-Stay",
		Description: "Checked-in guest with one charge posted, one missing, and open service orders",
	},
	{
		ID:          "checkout-day",
		Name:        "Checkout Day",
		Description: "Two stays on their checkout date: one settled, one with balance due",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the store and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ctx := r.Context()
	if resetter, ok := h.Store.(interface{ Reset(context.Context) error }); ok {
		if err := resetter.Reset(ctx); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to reset store", err)
			return
		}
	}

	var err error
	switch req.ID {
	case "arrival-day":
		err = h.loadArrivalDayScenario(ctx)
	case "mid-stay":
		err = h.loadMidStayScenario(ctx)
	case "checkout-day":
		err = h.loadCheckoutDayScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown scenario %q", req.ID), nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load scenario", err)
		return
	}

	h.currentScenario = req.ID
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadArrivalDayScenario seeds a three-night stay whose first night is
// today. The hotel has autopost enabled and a base rate, so checking in
// posts all three room charges.
func (h *Handler) loadArrivalDayScenario(ctx context.Context) error {
	hotel := frontdesk.Hotel{
		ID:   "hot-grand",
		Name: "Grand Meridian",
		Description: "Boutique hotel near the waterfront.\n" +
			frontdesk.EncodeTags(map[string]string{
				frontdesk.TagRate:     "180",
				frontdesk.TagCurrency: "USD",
				frontdesk.TagAutoPost: "1",
			}, ""),
	}
	if err := h.Store.SaveHotel(ctx, hotel); err != nil {
		return err
	}

	room := frontdesk.Room{ID: "room-101", HotelID: hotel.ID, Number: 101}
	if err := h.Store.SaveRoom(ctx, room); err != nil {
		return err
	}

	today := h.today()
	return h.seedNights(ctx, room.ID, "res-arr", "nina.alvarez@example.com", "Nina Alvarez",
		today, 3, frontdesk.ReservationPending)
}

// loadMidStayScenario seeds a checked-in stay halfway through: the first
// night's charge is posted, the second is missing, and the room has open
// service orders plus one paid via the payment provider.
func (h *Handler) loadMidStayScenario(ctx context.Context) error {
	hotel := frontdesk.Hotel{
		ID:   "hot-grand",
		Name: "Grand Meridian",
		Description: frontdesk.EncodeTags(map[string]string{
			frontdesk.TagRate:     "140",
			frontdesk.TagCurrency: "USD",
		}, ""),
	}
	if err := h.Store.SaveHotel(ctx, hotel); err != nil {
		return err
	}

	room := frontdesk.Room{ID: "room-204", HotelID: hotel.ID, Number: 204, Occupied: true}
	if err := h.Store.SaveRoom(ctx, room); err != nil {
		return err
	}

	yesterday := h.today().AddDays(-1)
	if err := h.seedNights(ctx, room.ID, "res-mid", "omar.haddad@example.com", "Omar Haddad",
		yesterday, 3, frontdesk.ReservationConfirmed); err != nil {
		return err
	}

	// First night's room charge, posted at check-in.
	charge := frontdesk.Order{
		ID:     "ord-mid-charge1",
		RoomID: room.ID,
		Number: frontdesk.RoomChargeNumberPrefix + "res-mid-1",
		Note: frontdesk.EncodeChargeNote(frontdesk.ChargeRef{
			ReservationID: "res-mid-1",
			Date:          yesterday,
			HotelID:       hotel.ID,
			RoomID:        room.ID,
			RoomNumber:    room.Number,
		}),
		Total:      "140",
		GuestEmail: "omar.haddad@example.com",
		Status:     frontdesk.OrderOpen,
		PlacedAt:   yesterday.TimeIn(h.Loc).Add(15 * time.Hour),
	}
	if err := h.Store.CreateOrder(ctx, charge); err != nil {
		return err
	}

	// Room-service dinner, unpaid.
	dinner := frontdesk.Order{
		ID:         "ord-mid-dinner",
		RoomID:     room.ID,
		Note:       "Dinner: grilled salmon, sparkling water",
		Total:      "64.50",
		GuestEmail: "omar.haddad@example.com",
		Status:     frontdesk.OrderDelivered,
		PlacedAt:   yesterday.TimeIn(h.Loc).Add(20 * time.Hour),
	}
	if err := h.Store.CreateOrder(ctx, dinner); err != nil {
		return err
	}

	// Breakfast, paid through the payment provider.
	breakfast := frontdesk.Order{
		ID:           "ord-mid-breakfast",
		RoomID:       room.ID,
		Note:         "Breakfast tray",
		Total:        "22.00",
		PaymentToken: "pi_stripe_3NQm8w2eZvKYlo2C",
		GuestEmail:   "omar.haddad@example.com",
		Status:       frontdesk.OrderDelivered,
		PlacedAt:     h.today().TimeIn(h.Loc).Add(8 * time.Hour),
	}
	return h.Store.CreateOrder(ctx, breakfast)
}

// loadCheckoutDayScenario seeds two single-night stays checking out today.
// Room 301's folio is fully paid; room 302 has a balance due, so its
// checkout is blocked until payment or a manager override.
func (h *Handler) loadCheckoutDayScenario(ctx context.Context) error {
	hotel := frontdesk.Hotel{
		ID:   "hot-grand",
		Name: "Grand Meridian",
		Description: frontdesk.EncodeTags(map[string]string{
			frontdesk.TagRate:     "120",
			frontdesk.TagCurrency: "USD",
		}, ""),
	}
	if err := h.Store.SaveHotel(ctx, hotel); err != nil {
		return err
	}

	lastNight := h.today().AddDays(-1)

	guests := []struct {
		roomID frontdesk.RoomID
		number int
		prefix string
		email  string
		name   string
		paid   bool
	}{
		{"room-301", 301, "res-out-a", "li.wen@example.com", "Li Wen", true},
		{"room-302", 302, "res-out-b", "sara.kim@example.com", "Sara Kim", false},
	}

	for _, g := range guests {
		room := frontdesk.Room{ID: g.roomID, HotelID: hotel.ID, Number: g.number, Occupied: true}
		if err := h.Store.SaveRoom(ctx, room); err != nil {
			return err
		}
		if err := h.seedNights(ctx, g.roomID, g.prefix, g.email, g.name,
			lastNight, 1, frontdesk.ReservationConfirmed); err != nil {
			return err
		}

		resID := frontdesk.ReservationID(g.prefix + "-1")
		charge := frontdesk.Order{
			ID:     frontdesk.OrderID("ord-" + g.prefix),
			RoomID: g.roomID,
			Number: frontdesk.RoomChargeNumberPrefix + string(resID),
			Note: frontdesk.EncodeChargeNote(frontdesk.ChargeRef{
				ReservationID: resID,
				Date:          lastNight,
				HotelID:       hotel.ID,
				RoomID:        g.roomID,
				RoomNumber:    g.number,
			}),
			Total:      "120",
			GuestEmail: g.email,
			Status:     frontdesk.OrderOpen,
			PlacedAt:   lastNight.TimeIn(h.Loc).Add(16 * time.Hour),
		}
		if g.paid {
			charge.PaymentToken = frontdesk.ManualPaymentToken(
				frontdesk.PaymentMethodOther, "desk-1", "USD", lastNight.TimeIn(h.Loc).Add(18*time.Hour).UnixMilli())
		}
		if err := h.Store.CreateOrder(ctx, charge); err != nil {
			return err
		}
	}
	return nil
}

// seedNights creates count consecutive nights starting at first, ids
// <prefix>-1 .. <prefix>-N.
func (h *Handler) seedNights(ctx context.Context, roomID frontdesk.RoomID, prefix, email, name string,
	first frontdesk.DateKey, count int, status frontdesk.ReservationStatus) error {
	for i := 0; i < count; i++ {
		n := frontdesk.NightReservation{
			ID:         frontdesk.ReservationID(fmt.Sprintf("%s-%d", prefix, i+1)),
			RoomID:     roomID,
			GuestEmail: email,
			GuestName:  name,
			Night:      first.AddDays(i).TimeIn(h.Loc),
			Status:     status,
		}
		if err := h.Store.CreateReservation(ctx, n); err != nil {
			return err
		}
	}
	return nil
}
