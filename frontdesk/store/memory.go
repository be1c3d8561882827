// Package store provides the in-memory Store implementation used by tests
// and the demo scenarios.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory holds all rows in maps behind one mutex. It enforces the same two
// uniqueness rules as the SQLite store: one active room-charge order per
// (room, reservation), and one active night per (room, guest email, date).
type Memory struct {
	mu           sync.RWMutex
	hotels       map[frontdesk.HotelID]frontdesk.Hotel
	rooms        map[frontdesk.RoomID]frontdesk.Room
	reservations map[frontdesk.ReservationID]frontdesk.NightReservation
	orders       map[frontdesk.OrderID]frontdesk.Order
}

func NewMemory() *Memory {
	return &Memory{
		hotels:       make(map[frontdesk.HotelID]frontdesk.Hotel),
		rooms:        make(map[frontdesk.RoomID]frontdesk.Room),
		reservations: make(map[frontdesk.ReservationID]frontdesk.NightReservation),
		orders:       make(map[frontdesk.OrderID]frontdesk.Order),
	}
}

var _ frontdesk.Store = (*Memory)(nil)

// =============================================================================
// READ SIDE
// =============================================================================

func (m *Memory) ListHotels(_ context.Context) ([]frontdesk.Hotel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hotels := make([]frontdesk.Hotel, 0, len(m.hotels))
	for _, h := range m.hotels {
		hotels = append(hotels, h)
	}
	sort.Slice(hotels, func(i, j int) bool { return hotels[i].Name < hotels[j].Name })
	return hotels, nil
}

func (m *Memory) GetHotel(_ context.Context, id frontdesk.HotelID) (*frontdesk.Hotel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hotels[id]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (m *Memory) ListRooms(_ context.Context, hotelID frontdesk.HotelID) ([]frontdesk.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rooms []frontdesk.Room
	for _, r := range m.rooms {
		if hotelID == "" || r.HotelID == hotelID {
			rooms = append(rooms, r)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].HotelID != rooms[j].HotelID {
			return rooms[i].HotelID < rooms[j].HotelID
		}
		return rooms[i].Number < rooms[j].Number
	})
	return rooms, nil
}

func (m *Memory) GetRoom(_ context.Context, id frontdesk.RoomID) (*frontdesk.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ListReservations returns every reservation row with a fresh room snapshot
// joined in, oldest night first.
func (m *Memory) ListReservations(_ context.Context) ([]frontdesk.NightReservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	nights := make([]frontdesk.NightReservation, 0, len(m.reservations))
	for _, n := range m.reservations {
		n.Room = m.rooms[n.RoomID]
		nights = append(nights, n)
	}
	sort.Slice(nights, func(i, j int) bool {
		if !nights[i].Night.Equal(nights[j].Night) {
			return nights[i].Night.Before(nights[j].Night)
		}
		return nights[i].ID < nights[j].ID
	})
	return nights, nil
}

func (m *Memory) ListOrders(_ context.Context) ([]frontdesk.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectOrders(""), nil
}

func (m *Memory) OrdersForRoom(_ context.Context, roomID frontdesk.RoomID) ([]frontdesk.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectOrders(roomID), nil
}

func (m *Memory) collectOrders(roomID frontdesk.RoomID) []frontdesk.Order {
	var orders []frontdesk.Order
	for _, o := range m.orders {
		if roomID == "" || o.RoomID == roomID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].PlacedAt.Equal(orders[j].PlacedAt) {
			return orders[i].PlacedAt.Before(orders[j].PlacedAt)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders
}

func (m *Memory) GetOrder(_ context.Context, id frontdesk.OrderID) (*frontdesk.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// =============================================================================
// WRITE SIDE
// =============================================================================

func (m *Memory) SaveHotel(_ context.Context, h frontdesk.Hotel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotels[h.ID] = h
	return nil
}

func (m *Memory) SaveRoom(_ context.Context, r frontdesk.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID] = r
	return nil
}

// CreateReservation enforces night uniqueness: the same guest may not hold
// two active reservations for the same room and calendar date.
func (m *Memory) CreateReservation(_ context.Context, n frontdesk.NightReservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(n.GuestEmail))
	date := frontdesk.DateKeyOf(n.Night, time.UTC)
	for _, existing := range m.reservations {
		if existing.ID == n.ID {
			continue
		}
		if !existing.Status.Active() || existing.RoomID != n.RoomID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(existing.GuestEmail)) != email {
			continue
		}
		if frontdesk.DateKeyOf(existing.Night, time.UTC) == date {
			return frontdesk.ErrDuplicateNight
		}
	}

	m.reservations[n.ID] = n
	return nil
}

func (m *Memory) SetReservationStatus(_ context.Context, id frontdesk.ReservationID, status frontdesk.ReservationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.reservations[id]
	if !ok {
		return frontdesk.ErrNotFound
	}
	n.Status = status
	m.reservations[id] = n
	return nil
}

func (m *Memory) SetRoomOccupied(_ context.Context, id frontdesk.RoomID, occupied bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return frontdesk.ErrNotFound
	}
	r.Occupied = occupied
	m.rooms[id] = r
	return nil
}

func (m *Memory) PatchRoomTags(_ context.Context, id frontdesk.RoomID, patch map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return frontdesk.ErrNotFound
	}
	r.SpecialRequests = frontdesk.EncodeTags(patch, r.SpecialRequests)
	m.rooms[id] = r
	return nil
}

func (m *Memory) PatchHotelTags(_ context.Context, id frontdesk.HotelID, patch map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hotels[id]
	if !ok {
		return frontdesk.ErrNotFound
	}
	h.Description = frontdesk.EncodeTags(patch, h.Description)
	m.hotels[id] = h
	return nil
}

// CreateOrder enforces room-charge uniqueness the same way the SQLite
// partial index does: at most one active charge per (room, reservation).
func (m *Memory) CreateOrder(_ context.Context, o frontdesk.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if resID, ok := frontdesk.ChargeReservationID(o); ok && o.Status.Active() {
		for _, existing := range m.orders {
			if existing.ID == o.ID || existing.RoomID != o.RoomID || !existing.Status.Active() {
				continue
			}
			if id, ok := frontdesk.ChargeReservationID(existing); ok && id == resID {
				return frontdesk.ErrDuplicateRoomCharge
			}
		}
	}

	m.orders[o.ID] = o
	return nil
}

func (m *Memory) MarkOrderPaid(_ context.Context, id frontdesk.OrderID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return frontdesk.ErrNotFound
	}
	o.PaymentToken = token
	paid := true
	o.Paid = &paid
	m.orders[id] = o
	return nil
}

// SetOrderStatus updates an order's lifecycle status.
func (m *Memory) SetOrderStatus(_ context.Context, id frontdesk.OrderID, status frontdesk.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return frontdesk.ErrNotFound
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

// Reset clears all data (for demo scenarios).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hotels = make(map[frontdesk.HotelID]frontdesk.Hotel)
	m.rooms = make(map[frontdesk.RoomID]frontdesk.Room)
	m.reservations = make(map[frontdesk.ReservationID]frontdesk.NightReservation)
	m.orders = make(map[frontdesk.OrderID]frontdesk.Order)
	return nil
}
