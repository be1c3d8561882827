/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements frontdesk.Store using SQLite. In production, the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  hotels:       Hotel records; description doubles as the settings tag store
  rooms:        Room snapshots; special_requests doubles as the room tag store
  reservations: One row per (room, guest, night)
  orders:       Billing rows; charge_res_id is extracted from the order's
                note/number at insert so uniqueness can be enforced in SQL

UNIQUENESS - THE POINT OF THIS STORE:
  Two partial unique indexes back the derivation core's idempotency rules:
  - idx_unique_room_charge: at most one active room-charge order per
    (room, reservation). Violations surface as ErrDuplicateRoomCharge,
    which the charge poster treats as success-as-skip.
  - idx_unique_guest_night: at most one active reservation per
    (room, guest email, calendar date). Violations surface as
    ErrDuplicateNight.
  Cancelled rows are excluded so a cancelled night or charge can be rebooked.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - frontdesk/storeiface.go: Interface definitions
  - frontdesk/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk"
)

// Store implements frontdesk.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ frontdesk.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS hotels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		hotel_id TEXT NOT NULL REFERENCES hotels(id),
		number INTEGER NOT NULL,
		occupied BOOLEAN NOT NULL DEFAULT FALSE,
		special_requests TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_hotel ON rooms(hotel_id);

	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL REFERENCES rooms(id),
		guest_email TEXT NOT NULL,
		guest_name TEXT,
		guest_phone TEXT,
		night TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reservations_room
		ON reservations(room_id);
	CREATE INDEX IF NOT EXISTS idx_reservations_guest
		ON reservations(guest_email);

	-- CRITICAL: a guest cannot hold two active reservations for the same
	-- room on the same calendar date. Cancelled rows are excluded so the
	-- night can be rebooked after a cancellation.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_guest_night
		ON reservations(room_id, LOWER(guest_email), DATE(night))
		WHERE status != 'cancelled';

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		room_id TEXT,
		number TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		total TEXT NOT NULL DEFAULT '0',
		paid BOOLEAN,
		payment_token TEXT NOT NULL DEFAULT '',
		delivery_address TEXT NOT NULL DEFAULT '',
		guest_email TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'open',
		charge_res_id TEXT,
		placed_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_room ON orders(room_id);
	CREATE INDEX IF NOT EXISTS idx_orders_placed_at ON orders(placed_at);

	-- CRITICAL: at most one active room-charge order per (room, reservation).
	-- charge_res_id is extracted from the order's note/number at insert;
	-- NULL means the order is not a room charge and is exempt.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_room_charge
		ON orders(room_id, charge_res_id)
		WHERE charge_res_id IS NOT NULL AND status != 'cancelled';
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HOTELS
// =============================================================================

func (s *Store) SaveHotel(ctx context.Context, h frontdesk.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO hotels (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.Name, h.Description,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetHotel(ctx context.Context, id frontdesk.HotelID) (*frontdesk.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var h frontdesk.Hotel
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description FROM hotels WHERE id = ?", id,
	).Scan(&h.ID, &h.Name, &h.Description)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) ListHotels(ctx context.Context) ([]frontdesk.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description FROM hotels ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hotels []frontdesk.Hotel
	for rows.Next() {
		var h frontdesk.Hotel
		if err := rows.Scan(&h.ID, &h.Name, &h.Description); err != nil {
			return nil, err
		}
		hotels = append(hotels, h)
	}
	return hotels, rows.Err()
}

// PatchHotelTags merges a tag patch into the hotel's description field.
// Read and write happen under the write lock so concurrent patches cannot
// drop each other's keys.
func (s *Store) PatchHotelTags(ctx context.Context, id frontdesk.HotelID, patch map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var description string
	err := s.db.QueryRowContext(ctx,
		"SELECT description FROM hotels WHERE id = ?", id,
	).Scan(&description)
	if err == sql.ErrNoRows {
		return frontdesk.ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE hotels SET description = ? WHERE id = ?",
		frontdesk.EncodeTags(patch, description), id,
	)
	return err
}

// =============================================================================
// ROOMS
// =============================================================================

func (s *Store) SaveRoom(ctx context.Context, r frontdesk.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO rooms (id, hotel_id, number, occupied, special_requests, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hotel_id = excluded.hotel_id,
			number = excluded.number,
			occupied = excluded.occupied,
			special_requests = excluded.special_requests
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.HotelID, r.Number, r.Occupied, r.SpecialRequests,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetRoom(ctx context.Context, id frontdesk.RoomID) (*frontdesk.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r frontdesk.Room
	err := s.db.QueryRowContext(ctx,
		"SELECT id, hotel_id, number, occupied, special_requests FROM rooms WHERE id = ?", id,
	).Scan(&r.ID, &r.HotelID, &r.Number, &r.Occupied, &r.SpecialRequests)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListRooms(ctx context.Context, hotelID frontdesk.HotelID) ([]frontdesk.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, hotel_id, number, occupied, special_requests FROM rooms"
	var args []any
	if hotelID != "" {
		query += " WHERE hotel_id = ?"
		args = append(args, hotelID)
	}
	query += " ORDER BY hotel_id, number"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []frontdesk.Room
	for rows.Next() {
		var r frontdesk.Room
		if err := rows.Scan(&r.ID, &r.HotelID, &r.Number, &r.Occupied, &r.SpecialRequests); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (s *Store) SetRoomOccupied(ctx context.Context, id frontdesk.RoomID, occupied bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE rooms SET occupied = ? WHERE id = ?", occupied, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// PatchRoomTags merges a tag patch into the room's special-requests field,
// read-modify-write under the write lock.
func (s *Store) PatchRoomTags(ctx context.Context, id frontdesk.RoomID, patch map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var requests string
	err := s.db.QueryRowContext(ctx,
		"SELECT special_requests FROM rooms WHERE id = ?", id,
	).Scan(&requests)
	if err == sql.ErrNoRows {
		return frontdesk.ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE rooms SET special_requests = ? WHERE id = ?",
		frontdesk.EncodeTags(patch, requests), id,
	)
	return err
}

// =============================================================================
// RESERVATIONS
// =============================================================================

// CreateReservation inserts a night row. The idx_unique_guest_night index
// rejects a second active reservation for the same room, guest and date.
func (s *Store) CreateReservation(ctx context.Context, n frontdesk.NightReservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := n.Status
	if status == "" {
		status = frontdesk.ReservationPending
	}

	query := `
		INSERT INTO reservations (id, room_id, guest_email, guest_name, guest_phone, night, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.RoomID, n.GuestEmail, n.GuestName, n.GuestPhone,
		n.Night.UTC().Format(time.RFC3339),
		status,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		// SQLite names expression indexes, but plain-column ones by their
		// columns, so match either form.
		if isUniqueConstraintError(err) &&
			(strings.Contains(err.Error(), "idx_unique_guest_night") ||
				strings.Contains(err.Error(), "reservations.room_id")) {
			return frontdesk.ErrDuplicateNight
		}
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

// ListReservations returns every reservation row with its room snapshot
// joined in, oldest night first.
func (s *Store) ListReservations(ctx context.Context) ([]frontdesk.NightReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT r.id, r.room_id, r.guest_email, r.guest_name, r.guest_phone, r.night, r.status,
		       rm.id, rm.hotel_id, rm.number, rm.occupied, rm.special_requests
		FROM reservations r
		JOIN rooms rm ON rm.id = r.room_id
		ORDER BY r.night ASC, r.id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nights []frontdesk.NightReservation
	for rows.Next() {
		var n frontdesk.NightReservation
		var guestName, guestPhone sql.NullString
		var night string
		if err := rows.Scan(
			&n.ID, &n.RoomID, &n.GuestEmail, &guestName, &guestPhone, &night, &n.Status,
			&n.Room.ID, &n.Room.HotelID, &n.Room.Number, &n.Room.Occupied, &n.Room.SpecialRequests,
		); err != nil {
			return nil, err
		}
		n.GuestName = guestName.String
		n.GuestPhone = guestPhone.String
		n.Night, _ = time.Parse(time.RFC3339, night)
		nights = append(nights, n)
	}
	return nights, rows.Err()
}

func (s *Store) SetReservationStatus(ctx context.Context, id frontdesk.ReservationID, status frontdesk.ReservationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE reservations SET status = ? WHERE id = ?", status, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// =============================================================================
// ORDERS
// =============================================================================

// CreateOrder inserts an order row. The charge reservation id, when the
// order carries one, is extracted into its own column so the
// idx_unique_room_charge index can reject duplicate active charges.
func (s *Store) CreateOrder(ctx context.Context, o frontdesk.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := o.Status
	if status == "" {
		status = frontdesk.OrderOpen
	}

	var chargeResID sql.NullString
	if resID, ok := frontdesk.ChargeReservationID(o); ok {
		chargeResID = sql.NullString{String: string(resID), Valid: true}
	}

	query := `
		INSERT INTO orders (id, room_id, number, note, total, paid, payment_token,
			delivery_address, guest_email, status, charge_res_id, placed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	placedAt := o.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		o.ID, nullString(string(o.RoomID)), o.Number, o.Note, o.Total,
		nullBool(o.Paid), o.PaymentToken, o.DeliveryAddress, o.GuestEmail,
		status, chargeResID,
		placedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) &&
			(strings.Contains(err.Error(), "idx_unique_room_charge") ||
				strings.Contains(err.Error(), "charge_res_id")) {
			return frontdesk.ErrDuplicateRoomCharge
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id frontdesk.OrderID) (*frontdesk.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders, err := s.queryOrders(ctx, orderSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

func (s *Store) ListOrders(ctx context.Context) ([]frontdesk.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryOrders(ctx, orderSelect+" ORDER BY placed_at ASC, id ASC")
}

func (s *Store) OrdersForRoom(ctx context.Context, roomID frontdesk.RoomID) ([]frontdesk.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryOrders(ctx, orderSelect+" WHERE room_id = ? ORDER BY placed_at ASC, id ASC", roomID)
}

const orderSelect = `
	SELECT id, room_id, number, note, total, paid, payment_token,
	       delivery_address, guest_email, status, placed_at
	FROM orders`

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]frontdesk.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []frontdesk.Order
	for rows.Next() {
		var o frontdesk.Order
		var roomID sql.NullString
		var paid sql.NullBool
		var placedAt string
		if err := rows.Scan(
			&o.ID, &roomID, &o.Number, &o.Note, &o.Total, &paid,
			&o.PaymentToken, &o.DeliveryAddress, &o.GuestEmail, &o.Status, &placedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.RoomID = frontdesk.RoomID(roomID.String)
		if paid.Valid {
			v := paid.Bool
			o.Paid = &v
		}
		o.PlacedAt, _ = time.Parse(time.RFC3339, placedAt)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) MarkOrderPaid(ctx context.Context, id frontdesk.OrderID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET paid = TRUE, payment_token = ? WHERE id = ?", token, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) SetOrderStatus(ctx context.Context, id frontdesk.OrderID, status frontdesk.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = ? WHERE id = ?", status, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"orders", "reservations", "rooms", "hotels"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return frontdesk.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
