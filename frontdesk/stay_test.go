package frontdesk_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	testHotel = frontdesk.Hotel{ID: "hot-1", Name: "Grand Meridian"}
	testRoom  = frontdesk.Room{ID: "room-101", HotelID: "hot-1", Number: 101}
)

func night(id string, room frontdesk.Room, email string, date frontdesk.DateKey, status frontdesk.ReservationStatus) frontdesk.NightReservation {
	return frontdesk.NightReservation{
		ID:         frontdesk.ReservationID(id),
		RoomID:     room.ID,
		GuestEmail: email,
		Night:      date.Time(),
		Status:     status,
		Room:       room,
	}
}

func day(d int) frontdesk.DateKey {
	return frontdesk.NewDateKey(2026, time.March, d)
}

// =============================================================================
// GROUPING
// =============================================================================

func TestGroupIntoStays_ConsecutiveNights_OneStay(t *testing.T) {
	// GIVEN: Three consecutive nights for the same guest and room
	// WHEN: Grouping
	// THEN: One stay spanning all three, checkout the morning after

	nights := []frontdesk.NightReservation{
		night("r1", testRoom, "guest@example.com", day(10), frontdesk.ReservationConfirmed),
		night("r2", testRoom, "guest@example.com", day(11), frontdesk.ReservationConfirmed),
		night("r3", testRoom, "guest@example.com", day(12), frontdesk.ReservationConfirmed),
	}

	stays := frontdesk.GroupIntoStays(nights, []frontdesk.Hotel{testHotel}, time.UTC)

	require.Len(t, stays, 1)
	s := stays[0]
	assert.Equal(t, day(10), s.FirstNight)
	assert.Equal(t, day(12), s.LastNight)
	assert.Equal(t, day(13), s.CheckoutDate)
	assert.Equal(t, 3, s.NightCount())
	assert.Equal(t, "Grand Meridian", s.HotelName)
}

func TestGroupIntoStays_GapSplitsStay(t *testing.T) {
	// GIVEN: Nights on the 10th, 11th and 14th
	// WHEN: Grouping
	// THEN: Two separate stays; the gap is a checkout and a re-arrival

	nights := []frontdesk.NightReservation{
		night("r1", testRoom, "guest@example.com", day(10), frontdesk.ReservationConfirmed),
		night("r2", testRoom, "guest@example.com", day(11), frontdesk.ReservationConfirmed),
		night("r3", testRoom, "guest@example.com", day(14), frontdesk.ReservationConfirmed),
	}

	stays := frontdesk.GroupIntoStays(nights, []frontdesk.Hotel{testHotel}, time.UTC)

	require.Len(t, stays, 2)
	assert.Equal(t, day(10), stays[0].FirstNight)
	assert.Equal(t, day(11), stays[0].LastNight)
	assert.Equal(t, day(14), stays[1].FirstNight)
	assert.Equal(t, day(14), stays[1].LastNight)
}

func TestGroupIntoStays_EmailCaseAndWhitespaceFolded(t *testing.T) {
	// The guest identity is the lowercased trimmed email. Variants from
	// different booking paths must land in the same stay.
	nights := []frontdesk.NightReservation{
		night("r1", testRoom, "Guest@Example.com", day(10), frontdesk.ReservationConfirmed),
		night("r2", testRoom, " guest@example.com ", day(11), frontdesk.ReservationConfirmed),
	}

	stays := frontdesk.GroupIntoStays(nights, nil, time.UTC)

	require.Len(t, stays, 1)
	assert.Equal(t, "guest@example.com", stays[0].GuestEmail)
	assert.Equal(t, 2, stays[0].NightCount())
}

func TestGroupIntoStays_DuplicateDate_KeepsFirstRow(t *testing.T) {
	// Legacy data can hold two rows for the same night. The first row
	// encountered wins; the duplicate adds nothing.
	nights := []frontdesk.NightReservation{
		night("r1", testRoom, "guest@example.com", day(10), frontdesk.ReservationConfirmed),
		night("r-dup", testRoom, "guest@example.com", day(10), frontdesk.ReservationPending),
	}

	stays := frontdesk.GroupIntoStays(nights, nil, time.UTC)

	require.Len(t, stays, 1)
	require.Len(t, stays[0].Nights, 1)
	assert.Equal(t, frontdesk.ReservationID("r1"), stays[0].Nights[0].ID)
}

func TestGroupIntoStays_DifferentRooms_SeparateStays(t *testing.T) {
	room2 := frontdesk.Room{ID: "room-102", HotelID: "hot-1", Number: 102}
	nights := []frontdesk.NightReservation{
		night("r1", testRoom, "guest@example.com", day(10), frontdesk.ReservationConfirmed),
		night("r2", room2, "guest@example.com", day(11), frontdesk.ReservationConfirmed),
	}

	stays := frontdesk.GroupIntoStays(nights, []frontdesk.Hotel{testHotel}, time.UTC)

	require.Len(t, stays, 2)
	assert.Equal(t, 101, stays[0].RoomNumber)
	assert.Equal(t, 102, stays[1].RoomNumber)
}

func TestGroupIntoStays_Deterministic(t *testing.T) {
	// Same snapshot grouped twice yields structurally equal output; the
	// dashboard re-derives on every request and must not flicker.
	nights := []frontdesk.NightReservation{
		night("r3", testRoom, "b@example.com", day(14), frontdesk.ReservationPending),
		night("r1", testRoom, "a@example.com", day(10), frontdesk.ReservationConfirmed),
		night("r2", testRoom, "a@example.com", day(11), frontdesk.ReservationConfirmed),
	}
	hotels := []frontdesk.Hotel{testHotel}

	first := frontdesk.GroupIntoStays(nights, hotels, time.UTC)
	second := frontdesk.GroupIntoStays(nights, hotels, time.UTC)

	assert.Equal(t, first, second)
}

// =============================================================================
// STATUS AGGREGATION
// =============================================================================

func TestGroupIntoStays_StatusPrecedence(t *testing.T) {
	cases := []struct {
		name     string
		statuses []frontdesk.ReservationStatus
		want     frontdesk.ReservationStatus
	}{
		{"all cancelled", []frontdesk.ReservationStatus{frontdesk.ReservationCancelled, frontdesk.ReservationCancelled}, frontdesk.ReservationCancelled},
		{"confirmed wins over pending", []frontdesk.ReservationStatus{frontdesk.ReservationPending, frontdesk.ReservationConfirmed}, frontdesk.ReservationConfirmed},
		{"pending wins over completed", []frontdesk.ReservationStatus{frontdesk.ReservationCompleted, frontdesk.ReservationPending}, frontdesk.ReservationPending},
		{"completed only", []frontdesk.ReservationStatus{frontdesk.ReservationCompleted, frontdesk.ReservationCompleted}, frontdesk.ReservationCompleted},
		{"cancelled plus confirmed is confirmed", []frontdesk.ReservationStatus{frontdesk.ReservationCancelled, frontdesk.ReservationConfirmed}, frontdesk.ReservationConfirmed},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var nights []frontdesk.NightReservation
			for i, st := range c.statuses {
				nights = append(nights, night(
					string(rune('a'+i)), testRoom, "guest@example.com", day(10+i), st))
			}
			stays := frontdesk.GroupIntoStays(nights, nil, time.UTC)
			require.Len(t, stays, 1)
			assert.Equal(t, c.want, stays[0].Status)
		})
	}
}

func TestGroupIntoStays_CheckedInDerivation(t *testing.T) {
	occupied := testRoom
	occupied.Occupied = true

	// Confirmed nights in an occupied room: checked in.
	stays := frontdesk.GroupIntoStays([]frontdesk.NightReservation{
		night("r1", occupied, "guest@example.com", day(10), frontdesk.ReservationConfirmed),
	}, nil, time.UTC)
	require.Len(t, stays, 1)
	assert.True(t, stays[0].CheckedIn)

	// Same nights, room not occupied: not checked in.
	stays = frontdesk.GroupIntoStays([]frontdesk.NightReservation{
		night("r1", testRoom, "guest@example.com", day(10), frontdesk.ReservationConfirmed),
	}, nil, time.UTC)
	require.Len(t, stays, 1)
	assert.False(t, stays[0].CheckedIn)

	// Pending nights in an occupied room: the occupancy flag is someone
	// else's, not this guest's.
	stays = frontdesk.GroupIntoStays([]frontdesk.NightReservation{
		night("r1", occupied, "guest@example.com", day(10), frontdesk.ReservationPending),
	}, nil, time.UTC)
	require.Len(t, stays, 1)
	assert.False(t, stays[0].CheckedIn)
}

// =============================================================================
// STAY INDEX
// =============================================================================

func TestStayIndex_Lookups(t *testing.T) {
	nights := []frontdesk.NightReservation{
		night("r1", testRoom, "guest@example.com", day(10), frontdesk.ReservationConfirmed),
		night("r2", testRoom, "guest@example.com", day(11), frontdesk.ReservationConfirmed),
	}
	stays := frontdesk.GroupIntoStays(nights, []frontdesk.Hotel{testHotel}, time.UTC)
	ix := frontdesk.NewStayIndex(stays, time.UTC)

	byRes := ix.ByReservation("r2")
	require.NotNil(t, byRes)
	assert.Equal(t, day(10), byRes.FirstNight)

	assert.Nil(t, ix.ByReservation("unknown"))

	byKey := ix.ByKey(byRes.Key())
	require.NotNil(t, byKey)
	assert.Same(t, byRes, byKey)
}

func TestDateKey_TimeInRoundTripsThroughLocation(t *testing.T) {
	// Reservation timestamps built in the operational timezone must map back
	// to the same calendar date; UTC midnight does not west of UTC.
	west := time.FixedZone("UTC-5", -5*3600)
	d := frontdesk.NewDateKey(2026, time.August, 30)

	assert.Equal(t, d, frontdesk.DateKeyOf(d.TimeIn(west), west))
	assert.Equal(t, d.AddDays(-1), frontdesk.DateKeyOf(d.Time(), west))
	assert.Equal(t, d, frontdesk.DateKeyOf(d.TimeIn(nil), time.UTC))
}

func TestStay_CoversDateAndFolioID(t *testing.T) {
	nights := []frontdesk.NightReservation{
		night("r1", testRoom, "guest@example.com", day(10), frontdesk.ReservationConfirmed),
		night("r2", testRoom, "guest@example.com", day(11), frontdesk.ReservationConfirmed),
	}
	stays := frontdesk.GroupIntoStays(nights, nil, time.UTC)
	require.Len(t, stays, 1)
	s := stays[0]

	assert.True(t, s.CoversDate(day(10)))
	assert.True(t, s.CoversDate(day(11)))
	assert.False(t, s.CoversDate(day(9)))
	assert.False(t, s.CoversDate(day(12)))

	assert.Equal(t, frontdesk.ReservationID("r2"), s.FolioIDForDate(day(11)))
	// A date with no underlying row falls back to the first night's id.
	assert.Equal(t, frontdesk.ReservationID("r1"), s.FolioIDForDate(day(25)))
}

func TestStay_ActiveNightDates_SkipsCancelled(t *testing.T) {
	nights := []frontdesk.NightReservation{
		night("r1", testRoom, "guest@example.com", day(10), frontdesk.ReservationConfirmed),
		night("r2", testRoom, "guest@example.com", day(11), frontdesk.ReservationCancelled),
		night("r3", testRoom, "guest@example.com", day(12), frontdesk.ReservationConfirmed),
	}
	stays := frontdesk.GroupIntoStays(nights, nil, time.UTC)
	require.Len(t, stays, 1)

	dates := stays[0].ActiveNightDates()
	assert.Equal(t, []frontdesk.DateKey{day(10), day(12)}, dates)
}
