/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the derived domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - frontdesk/stay.go, frontdesk/folio.go: Source of the derived views
*/
package api

import (
	"time"

	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error     string `json:"error"`
	Condition string `json:"condition,omitempty"`
	Details   string `json:"details,omitempty"`
}

// =============================================================================
// STAYS
// =============================================================================

// StayDTO is the derived multi-night stay view.
type StayDTO struct {
	Key          string     `json:"key"`
	ID           string     `json:"id"` // first night's reservation id, URL-safe
	HotelID      string     `json:"hotel_id"`
	HotelName    string     `json:"hotel_name"`
	RoomID       string     `json:"room_id"`
	RoomNumber   int        `json:"room_number"`
	GuestEmail   string     `json:"guest_email"`
	GuestName    string     `json:"guest_name,omitempty"`
	GuestPhone   string     `json:"guest_phone,omitempty"`
	FirstNight   string     `json:"first_night"`
	LastNight    string     `json:"last_night"`
	CheckoutDate string     `json:"checkout_date"`
	NightCount   int        `json:"night_count"`
	Status       string     `json:"status"`
	State        string     `json:"state"`
	Nights       []NightDTO `json:"nights"`
}

// NightDTO is one constituent night-reservation row.
type NightDTO struct {
	ReservationID string `json:"reservation_id"`
	Date          string `json:"date"`
	Status        string `json:"status"`
}

// TransitionRequest carries the acting user and override flag for
// check-in/checkout/cancel calls.
type TransitionRequest struct {
	ActorID  string `json:"actor_id"`
	Role     string `json:"role"`
	Override bool   `json:"override"`
}

// TransitionDTO reports an applied (or partially applied) transition.
type TransitionDTO struct {
	Completed []StepDTO      `json:"completed"`
	Failed    string         `json:"failed,omitempty"`
	Posted    *PostResultDTO `json:"posted,omitempty"`
	PostError string         `json:"post_error,omitempty"`
}

type StepDTO struct {
	Step     string `json:"step"`
	EntityID string `json:"entity_id"`
}

// PostResultDTO reports a nightly-charge posting run.
type PostResultDTO struct {
	Created     int    `json:"created"`
	Skipped     int    `json:"skipped"`
	FailedNight string `json:"failed_night,omitempty"`
}

// =============================================================================
// FOLIO
// =============================================================================

type FolioDTO struct {
	StayKey       string           `json:"stay_key"`
	RoomCharges   []FolioLineDTO   `json:"room_charges"`
	Services      []FolioLineDTO   `json:"services"`
	RoomTotal     string           `json:"room_total"`
	ServiceTotal  string           `json:"service_total"`
	GrandTotal    string           `json:"grand_total"`
	PaidTotal     string           `json:"paid_total"`
	BalanceDue    string           `json:"balance_due"`
	Settled       bool             `json:"settled"`
	Payments      []MethodTotalDTO `json:"payments"`
	MissingNights []string         `json:"missing_nights"`
}

type FolioLineDTO struct {
	OrderID       string `json:"order_id"`
	Number        string `json:"number"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	Paid          bool   `json:"paid"`
	Method        string `json:"method,omitempty"`
	Date          string `json:"date,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
}

type MethodTotalDTO struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
}

// =============================================================================
// ROOMS / HOTELS
// =============================================================================

// RoomDTO is a room snapshot with its decoded tag state.
type RoomDTO struct {
	ID             string `json:"id"`
	HotelID        string `json:"hotel_id"`
	Number         int    `json:"number"`
	Occupied       bool   `json:"occupied"`
	Housekeeping   string `json:"housekeeping"`
	OnCleaningList bool   `json:"on_cleaning_list"`
	RateOverride   string `json:"rate_override,omitempty"`
}

// TagPatchRequest merges tag key/values; an empty value deletes the key.
type TagPatchRequest struct {
	Tags map[string]string `json:"tags"`
}

// HotelDTO is a hotel with its decoded settings.
type HotelDTO struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Settings HotelSettingsDTO `json:"settings"`
}

type HotelSettingsDTO struct {
	Currency              string `json:"currency"`
	BaseRate              string `json:"base_rate"`
	AutoPostCharges       bool   `json:"auto_post_charges"`
	RequirePaidFolio      bool   `json:"require_paid_folio"`
	BlockOnMissingCharges bool   `json:"block_on_missing_charges"`
	OpensAt               string `json:"opens_at,omitempty"`
	ClosesAt              string `json:"closes_at,omitempty"`
}

// =============================================================================
// ORDERS / RESERVATIONS
// =============================================================================

// OrderDTO is an order with its derived classification and payment view.
type OrderDTO struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"room_id,omitempty"`
	Number   string    `json:"number"`
	Kind     string    `json:"kind"`
	Total    string    `json:"total"`
	Paid     bool      `json:"paid"`
	Method   string    `json:"method,omitempty"`
	Status   string    `json:"status"`
	PlacedAt time.Time `json:"placed_at"`
	StayKey  string    `json:"stay_key,omitempty"`
}

// CreateOrderRequest creates a service/delivery order.
type CreateOrderRequest struct {
	RoomID          string `json:"room_id,omitempty"`
	Note            string `json:"note,omitempty"`
	Total           string `json:"total"`
	GuestEmail      string `json:"guest_email,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
}

// PayOrderRequest records a manual payment on an order.
type PayOrderRequest struct {
	Method   string `json:"method"`
	ActorID  string `json:"actor_id"`
	Currency string `json:"currency,omitempty"`
}

// CreateReservationRequest books one night.
type CreateReservationRequest struct {
	RoomID     string `json:"room_id"`
	GuestEmail string `json:"guest_email"`
	GuestName  string `json:"guest_name,omitempty"`
	GuestPhone string `json:"guest_phone,omitempty"`
	Night      string `json:"night"` // YYYY-MM-DD
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ID string `json:"id"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toStayDTO(s *frontdesk.Stay) StayDTO {
	dto := StayDTO{
		Key:          s.Key(),
		ID:           string(s.Nights[0].ID),
		HotelID:      string(s.HotelID),
		HotelName:    s.HotelName,
		RoomID:       string(s.RoomID),
		RoomNumber:   s.RoomNumber,
		GuestEmail:   s.GuestEmail,
		GuestName:    s.GuestName,
		GuestPhone:   s.GuestPhone,
		FirstNight:   s.FirstNight.String(),
		LastNight:    s.LastNight.String(),
		CheckoutDate: s.CheckoutDate.String(),
		NightCount:   s.NightCount(),
		Status:       string(s.Status),
		State:        string(frontdesk.StateOf(s)),
	}
	for _, n := range s.Nights {
		dto.Nights = append(dto.Nights, NightDTO{
			ReservationID: string(n.ID),
			Date:          frontdesk.DateKeyOf(n.Night, time.UTC).String(),
			Status:        string(n.Status),
		})
	}
	return dto
}

func toFolioDTO(f frontdesk.Folio) FolioDTO {
	dto := FolioDTO{
		StayKey:      f.StayKey,
		RoomTotal:    f.RoomTotal.StringFixed(2),
		ServiceTotal: f.ServiceTotal.StringFixed(2),
		GrandTotal:   f.GrandTotal.StringFixed(2),
		PaidTotal:    f.PaidTotal.StringFixed(2),
		BalanceDue:   f.BalanceDue.StringFixed(2),
		Settled:      f.Settled(),
	}
	for _, l := range f.RoomCharges {
		dto.RoomCharges = append(dto.RoomCharges, toFolioLineDTO(l))
	}
	for _, l := range f.Services {
		dto.Services = append(dto.Services, toFolioLineDTO(l))
	}
	for _, p := range f.Payments {
		dto.Payments = append(dto.Payments, MethodTotalDTO{
			Method: p.Method,
			Amount: p.Amount.StringFixed(2),
		})
	}
	for _, d := range f.MissingNights {
		dto.MissingNights = append(dto.MissingNights, d.String())
	}
	return dto
}

func toFolioLineDTO(l frontdesk.FolioLine) FolioLineDTO {
	dto := FolioLineDTO{
		OrderID:       string(l.OrderID),
		Number:        l.Number,
		Kind:          string(l.Kind),
		Amount:        l.Amount.StringFixed(2),
		Paid:          l.Paid,
		Method:        l.Method,
		ReservationID: string(l.ReservationID),
	}
	if !l.Date.IsZero() {
		dto.Date = l.Date.String()
	}
	return dto
}

func toRoomDTO(r frontdesk.Room) RoomDTO {
	state := frontdesk.RoomStateOf(r)
	dto := RoomDTO{
		ID:             string(r.ID),
		HotelID:        string(r.HotelID),
		Number:         r.Number,
		Occupied:       r.Occupied,
		Housekeeping:   string(state.Housekeeping),
		OnCleaningList: state.OnCleaningList,
	}
	if state.RateOverride.IsPositive() {
		dto.RateOverride = state.RateOverride.StringFixed(2)
	}
	return dto
}

func toHotelDTO(h frontdesk.Hotel) HotelDTO {
	settings := frontdesk.SettingsOf(h)
	return HotelDTO{
		ID:   string(h.ID),
		Name: h.Name,
		Settings: HotelSettingsDTO{
			Currency:              settings.Currency,
			BaseRate:              settings.BaseRate.StringFixed(2),
			AutoPostCharges:       settings.AutoPostCharges,
			RequirePaidFolio:      settings.RequirePaidFolio,
			BlockOnMissingCharges: settings.BlockOnMissingCharges,
			OpensAt:               settings.OpensAt,
			ClosesAt:              settings.ClosesAt,
		},
	}
}

func toOrderDTO(o frontdesk.Order, ix *frontdesk.StayIndex) OrderDTO {
	dto := OrderDTO{
		ID:       string(o.ID),
		RoomID:   string(o.RoomID),
		Number:   o.Number,
		Kind:     string(frontdesk.Classify(o)),
		Total:    o.Total,
		Paid:     frontdesk.IsPaid(o),
		Method:   frontdesk.ParsePaymentMethod(o.PaymentToken),
		Status:   string(o.Status),
		PlacedAt: o.PlacedAt,
	}
	if ix != nil {
		if stay := ix.LinkToStay(o); stay != nil {
			dto.StayKey = stay.Key()
		}
	}
	return dto
}

func toTransitionDTO(res *frontdesk.TransitionResult) TransitionDTO {
	dto := TransitionDTO{}
	for _, s := range res.Completed {
		dto.Completed = append(dto.Completed, StepDTO{Step: s.Step, EntityID: s.EntityID})
	}
	if res.Failed != nil {
		dto.Failed = res.Failed.Error()
	}
	if res.Posted != nil {
		dto.Posted = toPostResultDTO(*res.Posted)
	}
	if res.PostErr != nil {
		dto.PostError = res.PostErr.Error()
	}
	return dto
}

func toPostResultDTO(r frontdesk.PostResult) *PostResultDTO {
	dto := &PostResultDTO{Created: r.Created, Skipped: r.Skipped}
	if r.FailedNight != nil {
		dto.FailedNight = r.FailedNight.String()
	}
	return dto
}
