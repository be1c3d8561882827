// Store interfaces for the derivation core. The core never caches store
// reads; every stay, folio and state evaluation starts from a fresh
// snapshot, so the interfaces below are the whole contract between the
// derivation logic and persistence.
package frontdesk

import "context"

// Inventory is the read side: the raw hotel/room/reservation/order rows the
// derivation core works from.
type Inventory interface {
	ListHotels(ctx context.Context) ([]Hotel, error)
	GetHotel(ctx context.Context, id HotelID) (*Hotel, error)
	ListRooms(ctx context.Context, hotelID HotelID) ([]Room, error)
	GetRoom(ctx context.Context, id RoomID) (*Room, error)

	// ListReservations returns every night-reservation row, each carrying a
	// live snapshot of its room.
	ListReservations(ctx context.Context) ([]NightReservation, error)

	ListOrders(ctx context.Context) ([]Order, error)
	GetOrder(ctx context.Context, id OrderID) (*Order, error)

	OrderReader
}

// InventoryWriter is the write side.
type InventoryWriter interface {
	SaveHotel(ctx context.Context, h Hotel) error
	SaveRoom(ctx context.Context, r Room) error

	// CreateReservation persists a night row. Must return ErrDuplicateNight
	// when an active reservation already covers the same room, guest email
	// and calendar date.
	CreateReservation(ctx context.Context, n NightReservation) error

	// PatchHotelTags merges tag key/values into the hotel's description
	// field; an empty value deletes the key.
	PatchHotelTags(ctx context.Context, id HotelID, patch map[string]string) error

	SetOrderStatus(ctx context.Context, id OrderID, status OrderStatus) error

	ReservationWriter
	RoomWriter
	OrderWriter
}

// Store is the full persistence surface.
type Store interface {
	Inventory
	InventoryWriter
}
