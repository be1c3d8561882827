/*
handlers_test.go - HTTP-level tests for the desk API

Exercises the full request path: router, handler, derivation core and the
in-memory store, with a pinned clock so scenario seeds land on known dates.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk"
	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandler(store.NewMemory(), time.UTC)
	h.Now = func() time.Time {
		return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	}
	return NewRouter(h)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func loadScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ID: id})
	require.Equal(t, http.StatusOK, rec.Code, "scenario %s must load: %s", id, rec.Body.String())
}

// =============================================================================
// STAYS
// =============================================================================

func TestListStays_ArrivalDay(t *testing.T) {
	router := newTestAPI(t)
	loadScenario(t, router, "arrival-day")

	rec := do(t, router, http.MethodGet, "/api/stays", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stays := decode[[]StayDTO](t, rec)
	require.Len(t, stays, 1)
	s := stays[0]
	assert.Equal(t, "res-arr-1", s.ID)
	assert.Equal(t, "2026-03-10", s.FirstNight)
	assert.Equal(t, "2026-03-13", s.CheckoutDate)
	assert.Equal(t, 3, s.NightCount)
	assert.Equal(t, "not_arrived", s.State)
	assert.Len(t, s.Nights, 3)
}

func TestGetStay_UnknownReservation(t *testing.T) {
	router := newTestAPI(t)
	loadScenario(t, router, "arrival-day")

	rec := do(t, router, http.MethodGet, "/api/stays/res-ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckIn_AutoPostsCharges(t *testing.T) {
	// GIVEN: The arrival-day scenario (autopost on, rate 180)
	// WHEN: Checking the guest in
	// THEN: The transition completes and all three nightly charges post

	router := newTestAPI(t)
	loadScenario(t, router, "arrival-day")

	rec := do(t, router, http.MethodPost, "/api/stays/res-arr-1/checkin",
		TransitionRequest{ActorID: "desk-1", Role: "staff"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[TransitionDTO](t, rec)
	assert.Empty(t, result.Failed)
	require.NotNil(t, result.Posted)
	assert.Equal(t, 3, result.Posted.Created)
	assert.Empty(t, result.PostError)

	stay := decode[StayDTO](t, do(t, router, http.MethodGet, "/api/stays/res-arr-1", nil))
	assert.Equal(t, "checked_in", stay.State)

	folio := decode[FolioDTO](t, do(t, router, http.MethodGet, "/api/stays/res-arr-1/folio", nil))
	assert.Equal(t, "540.00", folio.RoomTotal)
	assert.Equal(t, "540.00", folio.BalanceDue)
	assert.False(t, folio.Settled)
	assert.Empty(t, folio.MissingNights)
}

func TestCheckout_BlockedOnMissingCharges(t *testing.T) {
	router := newTestAPI(t)
	loadScenario(t, router, "mid-stay")

	rec := do(t, router, http.MethodPost, "/api/stays/res-mid-1/checkout",
		TransitionRequest{ActorID: "desk-1", Role: "staff"})

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, string(frontdesk.CondMissingCharges), resp.Condition)
}

func TestCheckout_BalanceGateAndPayment(t *testing.T) {
	// GIVEN: The checkout-day scenario, where room 302's charge is unpaid
	// WHEN: Checking out, paying, then checking out again
	// THEN: Only the second attempt passes the balance gate

	router := newTestAPI(t)
	loadScenario(t, router, "checkout-day")

	rec := do(t, router, http.MethodPost, "/api/stays/res-out-b-1/checkout",
		TransitionRequest{ActorID: "desk-1", Role: "staff"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(frontdesk.CondBalanceDue), decode[ErrorResponse](t, rec).Condition)

	rec = do(t, router, http.MethodPost, "/api/orders/ord-res-out-b/pay",
		PayOrderRequest{Method: "cash", ActorID: "desk-1", Currency: "USD"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decode[OrderDTO](t, rec)
	assert.True(t, paid.Paid)
	assert.Equal(t, "CASH", paid.Method)

	rec = do(t, router, http.MethodPost, "/api/stays/res-out-b-1/checkout",
		TransitionRequest{ActorID: "desk-1", Role: "staff"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[TransitionDTO](t, rec)
	assert.Empty(t, result.Failed)
}

func TestCheckout_SettledStayReleasesAndQueuesCleaning(t *testing.T) {
	router := newTestAPI(t)
	loadScenario(t, router, "checkout-day")

	rec := do(t, router, http.MethodPost, "/api/stays/res-out-a-1/checkout",
		TransitionRequest{ActorID: "desk-1", Role: "staff"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	queue := decode[[]RoomDTO](t, do(t, router, http.MethodGet, "/api/housekeeping", nil))
	require.Len(t, queue, 1)
	assert.Equal(t, "room-301", queue[0].ID)
	assert.Equal(t, "dirty", queue[0].Housekeeping)
	assert.False(t, queue[0].Occupied)
}

func TestTransition_StaffOverrideRejected(t *testing.T) {
	router := newTestAPI(t)
	loadScenario(t, router, "checkout-day")

	rec := do(t, router, http.MethodPost, "/api/stays/res-out-b-1/checkout",
		TransitionRequest{ActorID: "desk-1", Role: "staff", Override: true})

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(frontdesk.CondOverrideNotPermitted), decode[ErrorResponse](t, rec).Condition)
}

func TestTransition_ManagerOverridePasses(t *testing.T) {
	router := newTestAPI(t)
	loadScenario(t, router, "checkout-day")

	rec := do(t, router, http.MethodPost, "/api/stays/res-out-b-1/checkout",
		TransitionRequest{ActorID: "mgr-1", Role: "manager", Override: true})

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPostCharges_FillsMissingNights(t *testing.T) {
	// The mid-stay scenario has one of three charges posted.
	router := newTestAPI(t)
	loadScenario(t, router, "mid-stay")

	rec := do(t, router, http.MethodPost, "/api/stays/res-mid-1/charges", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[PostResultDTO](t, rec)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)

	folio := decode[FolioDTO](t, do(t, router, http.MethodGet, "/api/stays/res-mid-1/folio", nil))
	assert.Empty(t, folio.MissingNights)
}

// =============================================================================
// ORDERS
// =============================================================================

func TestListOrders_ClassifiedAndLinked(t *testing.T) {
	router := newTestAPI(t)
	loadScenario(t, router, "mid-stay")

	rec := do(t, router, http.MethodGet, "/api/orders?room=room-204", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	orders := decode[[]OrderDTO](t, rec)
	require.Len(t, orders, 3)

	byID := map[string]OrderDTO{}
	for _, o := range orders {
		byID[o.ID] = o
		assert.NotEmpty(t, o.StayKey, "every order in this scenario links to the stay")
	}
	assert.Equal(t, string(frontdesk.KindRoomCharge), byID["ord-mid-charge1"].Kind)
	assert.False(t, byID["ord-mid-dinner"].Paid)
	assert.True(t, byID["ord-mid-breakfast"].Paid)
	assert.Equal(t, frontdesk.PaymentMethodStripe, byID["ord-mid-breakfast"].Method)
}

func TestCreateOrder_RequiresTotal(t *testing.T) {
	router := newTestAPI(t)

	rec := do(t, router, http.MethodPost, "/api/orders", CreateOrderRequest{RoomID: "room-101"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func TestCreateReservation_DuplicateNightConflicts(t *testing.T) {
	router := newTestAPI(t)
	loadScenario(t, router, "arrival-day")

	// The arrival-day guest already holds room-101 on this night.
	rec := do(t, router, http.MethodPost, "/api/reservations", CreateReservationRequest{
		RoomID:     "room-101",
		GuestEmail: "NINA.ALVAREZ@example.com",
		Night:      "2026-03-10",
	})

	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestCreateReservation_RejectsBadDate(t *testing.T) {
	router := newTestAPI(t)

	rec := do(t, router, http.MethodPost, "/api/reservations", CreateReservationRequest{
		RoomID:     "room-101",
		GuestEmail: "guest@example.com",
		Night:      "March 10",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReservation_KeepsCalendarDateWestOfUTC(t *testing.T) {
	// GIVEN: A handler operating five hours west of UTC
	// WHEN: Booking a night through the API
	// THEN: The derived stay shows the booked calendar date, not the day before

	h := NewHandler(store.NewMemory(), time.FixedZone("UTC-5", -5*3600))
	h.Now = func() time.Time {
		return time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC)
	}
	router := NewRouter(h)

	ctx := context.Background()
	require.NoError(t, h.Store.SaveHotel(ctx, frontdesk.Hotel{ID: "hot-1", Name: "Harborview"}))
	require.NoError(t, h.Store.SaveRoom(ctx, frontdesk.Room{ID: "room-101", HotelID: "hot-1", Number: 101}))

	rec := do(t, router, http.MethodPost, "/api/reservations", CreateReservationRequest{
		RoomID:     "room-101",
		GuestEmail: "lena.moreau@example.com",
		GuestName:  "Lena Moreau",
		Night:      "2026-08-30",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	stays := decode[[]StayDTO](t, do(t, router, http.MethodGet, "/api/stays", nil))
	require.Len(t, stays, 1)
	assert.Equal(t, "2026-08-30", stays[0].FirstNight)
	assert.Equal(t, "2026-08-30", stays[0].LastNight)
}

func TestLoadScenario_KeepsCalendarDatesWestOfUTC(t *testing.T) {
	// GIVEN: A handler operating five hours west of UTC
	// WHEN: Loading the arrival-day scenario
	// THEN: The seeded stay starts today in local terms, so walk-in check-in works

	h := NewHandler(store.NewMemory(), time.FixedZone("UTC-5", -5*3600))
	h.Now = func() time.Time {
		return time.Date(2026, time.March, 10, 14, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))
	}
	router := NewRouter(h)
	loadScenario(t, router, "arrival-day")

	stays := decode[[]StayDTO](t, do(t, router, http.MethodGet, "/api/stays", nil))
	require.Len(t, stays, 1)
	assert.Equal(t, "2026-03-10", stays[0].FirstNight)

	rec := do(t, router, http.MethodPost, "/api/stays/res-arr-1/checkin",
		TransitionRequest{ActorID: "desk-1", Role: "staff"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestLoadScenario_UnknownID(t *testing.T) {
	router := newTestAPI(t)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadScenario_ResetsPreviousData(t *testing.T) {
	router := newTestAPI(t)
	loadScenario(t, router, "checkout-day")
	loadScenario(t, router, "arrival-day")

	stays := decode[[]StayDTO](t, do(t, router, http.MethodGet, "/api/stays", nil))
	require.Len(t, stays, 1)
	assert.Equal(t, "res-arr-1", stays[0].ID)
}
