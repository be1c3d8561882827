/*
handlers.go - HTTP API handlers for the front-desk dashboard

PURPOSE:
  Exposes the stay/folio derivation core via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Stays (derived on every read, never persisted):
    GET    /api/stays                   List derived stays
    GET    /api/stays/{id}              Stay detail (id = any constituent
                                        night-reservation id)
    GET    /api/stays/{id}/folio        Reconciled folio
    POST   /api/stays/{id}/checkin      Check the stay in
    POST   /api/stays/{id}/checkout     Check the stay out
    POST   /api/stays/{id}/cancel       Cancel remaining nights
    POST   /api/stays/{id}/charges      Post missing nightly charges

  Orders:
    GET    /api/orders                  List orders (?room= filter)
    POST   /api/orders                  Create a service/delivery order
    POST   /api/orders/{id}/pay         Record a manual payment

  Rooms / housekeeping:
    GET    /api/rooms                   List rooms (?hotel= filter)
    GET    /api/rooms/{id}              Room detail with decoded tag state
    PUT    /api/rooms/{id}/tags         Merge a tag patch
    GET    /api/housekeeping            Cleaning queue

  Hotels / reservations:
    GET    /api/hotels                  List hotels with decoded settings
    PUT    /api/hotels/{id}/tags        Merge a settings tag patch
    POST   /api/reservations            Book one night

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    POST   /api/scenarios/load          Load a demo scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Rebuild the stay index from a fresh reservation snapshot
  3. Call domain logic (grouping, folio, engine, poster)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Blocked precondition (response names the condition) or
         storage uniqueness conflict
  - 500: Internal errors

SECURITY NOTE:
  The acting user is taken from the request body, not from a session.
  All endpoints are public; front the API with real authentication before
  exposing it.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  frontdesk.Store
	Engine *frontdesk.Engine
	Poster *frontdesk.ChargePoster

	// Loc is the hotel-local timezone used for all calendar derivation.
	Loc *time.Location

	// Now overrides the clock in tests; nil = time.Now.
	Now func() time.Time

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler wired to the given store.
func NewHandler(store frontdesk.Store, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	poster := &frontdesk.ChargePoster{Orders: store}
	h := &Handler{
		Store:  store,
		Poster: poster,
		Loc:    loc,
	}
	h.Engine = &frontdesk.Engine{
		Reservations: store,
		Rooms:        store,
		Orders:       store,
		Poster:       poster,
		Loc:          loc,
		Today:        h.today,
	}
	return h
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) today() frontdesk.DateKey {
	return frontdesk.DateKeyOf(h.now(), h.Loc)
}

// stayIndex rebuilds the derived stay index from a fresh snapshot. Stays are
// never cached: the backing rows can change between any two requests.
func (h *Handler) stayIndex(r *http.Request) (*frontdesk.StayIndex, error) {
	ctx := r.Context()

	nights, err := h.Store.ListReservations(ctx)
	if err != nil {
		return nil, err
	}
	hotels, err := h.Store.ListHotels(ctx)
	if err != nil {
		return nil, err
	}

	stays := frontdesk.GroupIntoStays(nights, hotels, h.Loc)
	return frontdesk.NewStayIndex(stays, h.Loc), nil
}

// resolveStay finds the stay owning the reservation id from the URL.
func (h *Handler) resolveStay(w http.ResponseWriter, r *http.Request) (*frontdesk.Stay, bool) {
	ix, err := h.stayIndex(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load reservations", err)
		return nil, false
	}

	id := frontdesk.ReservationID(chi.URLParam(r, "id"))
	stay := ix.ByReservation(id)
	if stay == nil {
		writeError(w, http.StatusNotFound, "stay not found", frontdesk.ErrStayNotFound)
		return nil, false
	}
	return stay, true
}

// staySettings loads the decoded settings of the stay's hotel.
func (h *Handler) staySettings(r *http.Request, stay *frontdesk.Stay) (frontdesk.HotelSettings, error) {
	hotel, err := h.Store.GetHotel(r.Context(), stay.HotelID)
	if err != nil {
		return frontdesk.HotelSettings{}, err
	}
	if hotel == nil {
		return frontdesk.SettingsOf(frontdesk.Hotel{}), nil
	}
	return frontdesk.SettingsOf(*hotel), nil
}

// =============================================================================
// STAYS
// =============================================================================

// ListStays returns every derived stay, in display order.
func (h *Handler) ListStays(w http.ResponseWriter, r *http.Request) {
	ix, err := h.stayIndex(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load reservations", err)
		return
	}

	stays := make([]StayDTO, 0, len(ix.Stays()))
	for _, s := range ix.Stays() {
		stays = append(stays, toStayDTO(s))
	}
	writeJSON(w, http.StatusOK, stays)
}

// GetStay returns one stay by any of its reservation ids.
func (h *Handler) GetStay(w http.ResponseWriter, r *http.Request) {
	stay, ok := h.resolveStay(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStayDTO(stay))
}

// GetFolio reconciles and returns the stay's folio.
func (h *Handler) GetFolio(w http.ResponseWriter, r *http.Request) {
	stay, ok := h.resolveStay(w, r)
	if !ok {
		return
	}

	orders, err := h.Store.OrdersForRoom(r.Context(), stay.RoomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders", err)
		return
	}

	folio := frontdesk.BuildFolio(stay, orders, h.Loc)
	writeJSON(w, http.StatusOK, toFolioDTO(folio))
}

// CheckIn applies a check-in transition.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.Engine.CheckIn)
}

// Checkout applies a checkout transition.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.Engine.Checkout)
}

type transitionFunc func(ctx context.Context, stay *frontdesk.Stay, settings frontdesk.HotelSettings, actor frontdesk.Actor, override bool) (*frontdesk.TransitionResult, error)

func (h *Handler) applyTransition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	stay, ok := h.resolveStay(w, r)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	settings, err := h.staySettings(r, stay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load hotel settings", err)
		return
	}

	actor := frontdesk.Actor{ID: req.ActorID, Role: frontdesk.Role(req.Role)}
	result, err := fn(r.Context(), stay, settings, actor, req.Override)
	if err != nil {
		// A partial effect sequence still reports how far it got.
		if result != nil && len(result.Completed) > 0 {
			writeJSON(w, http.StatusInternalServerError, toTransitionDTO(result))
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransitionDTO(result))
}

// Cancel cancels the stay's remaining nights.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	stay, ok := h.resolveStay(w, r)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actor := frontdesk.Actor{ID: req.ActorID, Role: frontdesk.Role(req.Role)}
	result, err := h.Engine.Cancel(r.Context(), stay, actor)
	if err != nil {
		if result != nil && len(result.Completed) > 0 {
			writeJSON(w, http.StatusInternalServerError, toTransitionDTO(result))
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransitionDTO(result))
}

// PostCharges posts the stay's missing nightly charges.
func (h *Handler) PostCharges(w http.ResponseWriter, r *http.Request) {
	stay, ok := h.resolveStay(w, r)
	if !ok {
		return
	}

	settings, err := h.staySettings(r, stay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load hotel settings", err)
		return
	}

	rate := frontdesk.NightlyRate(settings, frontdesk.RoomStateOf(stay.Room))
	result, err := h.Poster.EnsureNightlyCharges(r.Context(), stay, rate, settings.Currency, stay.ActiveNightDates())
	if err != nil {
		if result.Created > 0 || result.Skipped > 0 {
			writeJSON(w, http.StatusInternalServerError, toPostResultDTO(result))
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResultDTO(result))
}

// =============================================================================
// ORDERS
// =============================================================================

// ListOrders returns all orders, classified and linked to their stays.
// Optional ?room= narrows to one room.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ix, err := h.stayIndex(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load reservations", err)
		return
	}

	var orders []frontdesk.Order
	if roomID := r.URL.Query().Get("room"); roomID != "" {
		orders, err = h.Store.OrdersForRoom(r.Context(), frontdesk.RoomID(roomID))
	} else {
		orders, err = h.Store.ListOrders(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders", err)
		return
	}

	dtos := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, toOrderDTO(o, ix))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateOrder creates a service or delivery order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Total == "" {
		writeError(w, http.StatusBadRequest, "total is required", nil)
		return
	}

	now := h.now()
	order := frontdesk.Order{
		ID:              frontdesk.OrderID(fmt.Sprintf("ord-%d", now.UnixNano())),
		RoomID:          frontdesk.RoomID(req.RoomID),
		Note:            req.Note,
		Total:           req.Total,
		GuestEmail:      req.GuestEmail,
		DeliveryAddress: req.DeliveryAddress,
		Status:          frontdesk.OrderOpen,
		PlacedAt:        now,
	}

	if err := h.Store.CreateOrder(r.Context(), order); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(order, nil))
}

// PayOrder records a manual payment on an order.
func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	var req PayOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, "method is required", nil)
		return
	}

	id := frontdesk.OrderID(chi.URLParam(r, "id"))
	order, err := h.Store.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order not found", frontdesk.ErrNotFound)
		return
	}

	token := frontdesk.ManualPaymentToken(req.Method, req.ActorID, req.Currency, h.now().UnixMilli())
	if err := h.Store.MarkOrderPaid(r.Context(), id, token); err != nil {
		writeDomainError(w, err)
		return
	}

	order.PaymentToken = token
	paid := true
	order.Paid = &paid
	writeJSON(w, http.StatusOK, toOrderDTO(*order, nil))
}

// =============================================================================
// ROOMS / HOUSEKEEPING
// =============================================================================

// ListRooms returns rooms with their decoded tag state. Optional ?hotel=
// narrows to one hotel.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Store.ListRooms(r.Context(), frontdesk.HotelID(r.URL.Query().Get("hotel")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load rooms", err)
		return
	}

	dtos := make([]RoomDTO, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, toRoomDTO(room))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRoom returns one room.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Store.GetRoom(r.Context(), frontdesk.RoomID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found", frontdesk.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(*room))
}

// PatchRoomTags merges a tag patch into the room's tag store.
func (h *Handler) PatchRoomTags(w http.ResponseWriter, r *http.Request) {
	var req TagPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "tags is required", nil)
		return
	}

	id := frontdesk.RoomID(chi.URLParam(r, "id"))
	if err := h.Store.PatchRoomTags(r.Context(), id, req.Tags); err != nil {
		writeDomainError(w, err)
		return
	}

	room, err := h.Store.GetRoom(r.Context(), id)
	if err != nil || room == nil {
		writeError(w, http.StatusInternalServerError, "failed to reload room", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(*room))
}

// ListCleaningQueue returns the rooms flagged for cleaning.
func (h *Handler) ListCleaningQueue(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Store.ListRooms(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load rooms", err)
		return
	}

	queue := make([]RoomDTO, 0)
	for _, room := range rooms {
		if frontdesk.RoomStateOf(room).OnCleaningList {
			queue = append(queue, toRoomDTO(room))
		}
	}
	writeJSON(w, http.StatusOK, queue)
}

// =============================================================================
// HOTELS / RESERVATIONS
// =============================================================================

// ListHotels returns hotels with their decoded settings.
func (h *Handler) ListHotels(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.Store.ListHotels(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load hotels", err)
		return
	}

	dtos := make([]HotelDTO, 0, len(hotels))
	for _, hotel := range hotels {
		dtos = append(dtos, toHotelDTO(hotel))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PatchHotelTags merges a settings tag patch into the hotel's tag store.
func (h *Handler) PatchHotelTags(w http.ResponseWriter, r *http.Request) {
	var req TagPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "tags is required", nil)
		return
	}

	id := frontdesk.HotelID(chi.URLParam(r, "id"))
	if err := h.Store.PatchHotelTags(r.Context(), id, req.Tags); err != nil {
		writeDomainError(w, err)
		return
	}

	hotel, err := h.Store.GetHotel(r.Context(), id)
	if err != nil || hotel == nil {
		writeError(w, http.StatusInternalServerError, "failed to reload hotel", err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelDTO(*hotel))
}

// CreateReservation books a single night.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.RoomID == "" || req.GuestEmail == "" {
		writeError(w, http.StatusBadRequest, "room_id and guest_email are required", nil)
		return
	}
	night, ok := frontdesk.ParseDateKey(req.Night)
	if !ok {
		writeError(w, http.StatusBadRequest, "night must be YYYY-MM-DD", nil)
		return
	}

	res := frontdesk.NightReservation{
		ID:         frontdesk.ReservationID(fmt.Sprintf("res-%d", h.now().UnixNano())),
		RoomID:     frontdesk.RoomID(req.RoomID),
		GuestEmail: req.GuestEmail,
		GuestName:  req.GuestName,
		GuestPhone: req.GuestPhone,
		Night:      night.TimeIn(h.Loc),
		Status:     frontdesk.ReservationPending,
	}

	if err := h.Store.CreateReservation(r.Context(), res); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"reservation_id": string(res.ID),
		"night":          night.String(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps core errors onto HTTP statuses. Blocked
// preconditions name their condition so the desk UI can offer the right
// override.
func writeDomainError(w http.ResponseWriter, err error) {
	var pe *frontdesk.PreconditionError
	if errors.As(err, &pe) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:     pe.Message,
			Condition: string(pe.Condition),
		})
		return
	}

	switch {
	case errors.Is(err, frontdesk.ErrNotFound), errors.Is(err, frontdesk.ErrStayNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	case frontdesk.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", err)
	case frontdesk.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
