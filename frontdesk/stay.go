/*
stay.go - Grouping per-night reservation rows into contiguous stays

PURPOSE:
  The backend stores one reservation row per guest per room per night. Every
  dashboard screen needs the derived concept of a "stay": a contiguous run of
  nights for the same room and guest. This file owns that derivation.

ALGORITHM (GroupIntoStays):
  1. Partition rows by (room id, lowercased guest email)
  2. Map each row to its local calendar date; duplicate dates keep the first
     row encountered (defensive - the backend should prevent them)
  3. Split the sorted distinct dates into maximal runs of consecutive days
  4. Each run is one Stay: checkout = last night + 1 day
  5. Aggregate status precedence: all-cancelled > any-confirmed > any-pending
     > any-completed > first night's own status
  6. Output sorted by hotel name, room number, start date

DERIVED, NEVER STORED:
  Stays are recomputed from scratch on every read of the reservation list.
  There is no cache and no incremental update: staleness here directly causes
  double-booking or double-billing, so the aggregator stays cheap enough to
  re-run instead. Treat the output as an immutable value; re-derive after any
  mutation.

INVARIANTS:
  - The nights of a Stay form a gap-free calendar run for one room+guest
  - Two Stays of the same room+guest never overlap or touch (touching runs
    would have been merged)
  - A cancelled night inside a run does not break contiguity, but it is
    excluded from ActiveNightIDs

SEE ALSO:
  - orders.go: StayIndex lookups used to attach orders to stays
  - checkout.go: state transitions over a Stay
*/
package frontdesk

import (
	"sort"
	"strings"
	"time"
)

// =============================================================================
// STAY - The derived core entity
// =============================================================================

// Stay is a contiguous run of night-reservations for one room and guest.
// Identity is the composite (room id, guest email, first night).
type Stay struct {
	RoomID     RoomID
	HotelID    HotelID
	HotelName  string
	RoomNumber int

	GuestEmail string // lowercased
	GuestName  string
	GuestPhone string

	FirstNight   DateKey
	LastNight    DateKey
	CheckoutDate DateKey // last night + 1 day

	// Constituent rows, ascending by date.
	Nights []NightReservation

	// Calendar date -> night-reservation id, for fast lookup.
	NightByDate map[DateKey]ReservationID

	// Aggregate status across the run (see status precedence above).
	Status ReservationStatus

	// CheckedIn is true only when the aggregate status is confirmed or
	// completed, the room's occupancy flag is set, AND at least one night is
	// confirmed/completed. The extra night check guards against a stale
	// occupancy flag left over from an unrelated guest.
	CheckedIn bool

	// Latest room snapshot, for rate and housekeeping derivation.
	Room Room
}

// Key returns the deterministic composite identity of the stay.
func (s *Stay) Key() string {
	return string(s.RoomID) + "|" + s.GuestEmail + "|" + s.FirstNight.String()
}

// NightCount returns the number of nights in the stay.
func (s *Stay) NightCount() int { return DaysBetween(s.FirstNight, s.LastNight) + 1 }

// CoversDate reports whether the date falls on one of the stay's nights.
func (s *Stay) CoversDate(d DateKey) bool {
	return s.FirstNight.BeforeOrEqual(d) && d.BeforeOrEqual(s.LastNight)
}

// FolioIDForDate returns the night-reservation id for a date, falling back
// to the first night's id. In the absence of a real folio entity that id
// stands in for the folio id.
func (s *Stay) FolioIDForDate(d DateKey) ReservationID {
	if id, ok := s.NightByDate[d]; ok {
		return id
	}
	return s.Nights[0].ID
}

// ActiveNightIDs returns the ids of the stay's non-cancelled nights.
func (s *Stay) ActiveNightIDs() map[ReservationID]bool {
	ids := make(map[ReservationID]bool, len(s.Nights))
	for _, n := range s.Nights {
		if n.Status.Active() {
			ids[n.ID] = true
		}
	}
	return ids
}

// ActiveNightDates returns the calendar dates of non-cancelled nights,
// ascending. These are the nights that require a room charge.
func (s *Stay) ActiveNightDates() []DateKey {
	active := s.ActiveNightIDs()
	dates := make([]DateKey, 0, len(active))
	for d, id := range s.NightByDate {
		if active[id] {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// GroupIntoStays derives stays from raw night-reservation rows. hotels is
// used only to resolve hotel names for the stable output ordering; unknown
// hotels sort by their id. loc is the operational timezone for mapping the
// reservation timestamp to its calendar night (nil = UTC).
//
// Pure and deterministic: same input, structurally equal output.
func GroupIntoStays(nights []NightReservation, hotels []Hotel, loc *time.Location) []Stay {
	hotelNames := make(map[HotelID]string, len(hotels))
	for _, h := range hotels {
		hotelNames[h.ID] = h.Name
	}

	type partitionKey struct {
		Room  RoomID
		Email string
	}

	// 1. Partition by room + guest; de-duplicate per calendar date keeping
	// the first row encountered.
	byPartition := make(map[partitionKey]map[DateKey]NightReservation)
	var order []partitionKey
	for _, n := range nights {
		key := partitionKey{Room: n.RoomID, Email: strings.ToLower(strings.TrimSpace(n.GuestEmail))}
		dates, ok := byPartition[key]
		if !ok {
			dates = make(map[DateKey]NightReservation)
			byPartition[key] = dates
			order = append(order, key)
		}
		d := DateKeyOf(n.Night, loc)
		if _, dup := dates[d]; dup {
			continue
		}
		dates[d] = n
	}

	// 2. Split each partition's dates into maximal consecutive runs.
	var stays []Stay
	for _, key := range order {
		dates := byPartition[key]
		sorted := make([]DateKey, 0, len(dates))
		for d := range dates {
			sorted = append(sorted, d)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

		runStart := 0
		for i := 1; i <= len(sorted); i++ {
			if i < len(sorted) && DaysBetween(sorted[i-1], sorted[i]) == 1 {
				continue
			}
			run := sorted[runStart:i]
			stays = append(stays, buildStay(key.Email, run, dates, hotelNames))
			runStart = i
		}
	}

	// 3. Stable output ordering: hotel name, room number, start date.
	sort.SliceStable(stays, func(i, j int) bool {
		a, b := stays[i], stays[j]
		an, bn := a.HotelName, b.HotelName
		if an == "" {
			an = string(a.HotelID)
		}
		if bn == "" {
			bn = string(b.HotelID)
		}
		if an != bn {
			return an < bn
		}
		if a.RoomNumber != b.RoomNumber {
			return a.RoomNumber < b.RoomNumber
		}
		return a.FirstNight.Before(b.FirstNight)
	})

	return stays
}

func buildStay(email string, run []DateKey, rows map[DateKey]NightReservation, hotelNames map[HotelID]string) Stay {
	first := rows[run[0]]

	stay := Stay{
		RoomID:       first.RoomID,
		HotelID:      first.Room.HotelID,
		HotelName:    hotelNames[first.Room.HotelID],
		RoomNumber:   first.Room.Number,
		GuestEmail:   email,
		GuestName:    first.GuestName,
		GuestPhone:   first.GuestPhone,
		FirstNight:   run[0],
		LastNight:    run[len(run)-1],
		CheckoutDate: run[len(run)-1].AddDays(1),
		NightByDate:  make(map[DateKey]ReservationID, len(run)),
		Room:         first.Room,
	}

	for _, d := range run {
		n := rows[d]
		stay.Nights = append(stay.Nights, n)
		stay.NightByDate[d] = n.ID
		stay.Room = n.Room // keep the latest snapshot
	}

	stay.Status = aggregateStatus(stay.Nights)
	stay.CheckedIn = deriveCheckedIn(stay.Status, stay.Room, stay.Nights)
	return stay
}

// aggregateStatus applies the deterministic precedence: all-cancelled wins,
// then confirmed, pending, completed, then the first night's own status.
func aggregateStatus(nights []NightReservation) ReservationStatus {
	allCancelled := true
	var anyConfirmed, anyPending, anyCompleted bool
	for _, n := range nights {
		if n.Status != ReservationCancelled {
			allCancelled = false
		}
		switch n.Status {
		case ReservationConfirmed:
			anyConfirmed = true
		case ReservationPending:
			anyPending = true
		case ReservationCompleted:
			anyCompleted = true
		}
	}
	switch {
	case allCancelled:
		return ReservationCancelled
	case anyConfirmed:
		return ReservationConfirmed
	case anyPending:
		return ReservationPending
	case anyCompleted:
		return ReservationCompleted
	default:
		return nights[0].Status
	}
}

func deriveCheckedIn(status ReservationStatus, room Room, nights []NightReservation) bool {
	if status != ReservationConfirmed && status != ReservationCompleted {
		return false
	}
	if !room.Occupied {
		return false
	}
	for _, n := range nights {
		if n.Status == ReservationConfirmed || n.Status == ReservationCompleted {
			return true
		}
	}
	return false
}

// =============================================================================
// STAY INDEX - Precomputed lookups for the order linker
// =============================================================================

type compositeKey struct {
	Room  RoomID
	Email string
	Date  DateKey
}

// StayIndex resolves stays by constituent reservation id or by the
// composite (room, guest email, date) key. Build it once per snapshot.
type StayIndex struct {
	stays         []*Stay
	byReservation map[ReservationID]*Stay
	byComposite   map[compositeKey]*Stay
	loc           *time.Location
}

// NewStayIndex builds lookups over the given stays. The slice is retained;
// do not mutate it afterwards.
func NewStayIndex(stays []Stay, loc *time.Location) *StayIndex {
	if loc == nil {
		loc = time.UTC
	}
	ix := &StayIndex{
		byReservation: make(map[ReservationID]*Stay),
		byComposite:   make(map[compositeKey]*Stay),
		loc:           loc,
	}
	for i := range stays {
		s := &stays[i]
		ix.stays = append(ix.stays, s)
		for _, n := range s.Nights {
			ix.byReservation[n.ID] = s
		}
		for d := range s.NightByDate {
			ix.byComposite[compositeKey{Room: s.RoomID, Email: s.GuestEmail, Date: d}] = s
		}
	}
	return ix
}

// Stays returns all indexed stays in aggregation order.
func (ix *StayIndex) Stays() []*Stay { return ix.stays }

// ByReservation resolves the stay owning a night-reservation id.
func (ix *StayIndex) ByReservation(id ReservationID) *Stay {
	return ix.byReservation[id]
}

// ByKey resolves a stay by its composite Key() string.
func (ix *StayIndex) ByKey(key string) *Stay {
	for _, s := range ix.stays {
		if s.Key() == key {
			return s
		}
	}
	return nil
}
