package frontdesk_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk"
)

func chargeNote(resID string, date frontdesk.DateKey) string {
	return frontdesk.EncodeChargeNote(frontdesk.ChargeRef{
		ReservationID: frontdesk.ReservationID(resID),
		Date:          date,
		HotelID:       testHotel.ID,
		RoomID:        testRoom.ID,
		RoomNumber:    testRoom.Number,
	})
}

// =============================================================================
// CLASSIFIER
// =============================================================================

func TestClassify_Precedence(t *testing.T) {
	cases := []struct {
		name  string
		order frontdesk.Order
		want  frontdesk.OrderKind
	}{
		{
			"charge marker wins over everything",
			frontdesk.Order{Note: chargeNote("r1", day(10)), RoomID: "room-101", DeliveryAddress: "12 Elm St"},
			frontdesk.KindRoomCharge,
		},
		{
			"legacy ROOM- number without marker",
			frontdesk.Order{Number: "ROOM-r1", RoomID: "room-101"},
			frontdesk.KindRoomCharge,
		},
		{
			"room reference means room service",
			frontdesk.Order{RoomID: "room-101", Note: "club sandwich"},
			frontdesk.KindRoomService,
		},
		{
			"delivery address without room",
			frontdesk.Order{DeliveryAddress: "12 Elm St"},
			frontdesk.KindDelivery,
		},
		{
			"blank delivery address is not a delivery",
			frontdesk.Order{DeliveryAddress: "   "},
			frontdesk.KindOther,
		},
		{
			"nothing at all",
			frontdesk.Order{Note: "walk-in espresso"},
			frontdesk.KindOther,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, frontdesk.Classify(c.order))
		})
	}
}

func TestChargeReservationID_NoteBeatsNumber(t *testing.T) {
	// The note's metadata is authoritative even when the number disagrees.
	o := frontdesk.Order{
		Note:   chargeNote("res-note", day(10)),
		Number: "ROOM-res-number",
	}

	id, ok := frontdesk.ChargeReservationID(o)
	require.True(t, ok)
	assert.Equal(t, frontdesk.ReservationID("res-note"), id)
}

func TestChargeReservationID_NumberFallback(t *testing.T) {
	id, ok := frontdesk.ChargeReservationID(frontdesk.Order{Number: "ROOM-res-7"})
	require.True(t, ok)
	assert.Equal(t, frontdesk.ReservationID("res-7"), id)

	// Bare prefix carries no id.
	_, ok = frontdesk.ChargeReservationID(frontdesk.Order{Number: "ROOM-"})
	assert.False(t, ok)

	_, ok = frontdesk.ChargeReservationID(frontdesk.Order{Note: "no metadata here"})
	assert.False(t, ok)
}

// =============================================================================
// LINKER
// =============================================================================

func newTestIndex(t *testing.T) *frontdesk.StayIndex {
	t.Helper()
	nights := []frontdesk.NightReservation{
		night("r1", testRoom, "guest@example.com", day(10), frontdesk.ReservationConfirmed),
		night("r2", testRoom, "guest@example.com", day(11), frontdesk.ReservationConfirmed),
	}
	stays := frontdesk.GroupIntoStays(nights, []frontdesk.Hotel{testHotel}, time.UTC)
	return frontdesk.NewStayIndex(stays, time.UTC)
}

func TestLinkToStay_ViaChargeMetadata(t *testing.T) {
	ix := newTestIndex(t)

	stay := ix.LinkToStay(frontdesk.Order{Note: chargeNote("r2", day(11))})

	require.NotNil(t, stay)
	assert.Equal(t, day(10), stay.FirstNight)
}

func TestLinkToStay_ViaRoomGuestDate(t *testing.T) {
	// GIVEN: A service order with no charge metadata
	// WHEN: Its room, guest email and placement date match a stay night
	// THEN: It links to that stay

	ix := newTestIndex(t)

	stay := ix.LinkToStay(frontdesk.Order{
		RoomID:     testRoom.ID,
		GuestEmail: "GUEST@example.com",
		PlacedAt:   day(11).Time().Add(19 * time.Hour),
	})

	require.NotNil(t, stay)
	assert.Equal(t, day(10), stay.FirstNight)
}

func TestLinkToStay_Unresolvable(t *testing.T) {
	ix := newTestIndex(t)

	// Missing guest email: ambiguous, stays unlinked.
	assert.Nil(t, ix.LinkToStay(frontdesk.Order{
		RoomID:   testRoom.ID,
		PlacedAt: day(10).Time(),
	}))

	// Date outside any stay night.
	assert.Nil(t, ix.LinkToStay(frontdesk.Order{
		RoomID:     testRoom.ID,
		GuestEmail: "guest@example.com",
		PlacedAt:   day(20).Time(),
	}))

	// Charge metadata naming an unknown reservation, no fallback fields.
	assert.Nil(t, ix.LinkToStay(frontdesk.Order{Note: chargeNote("res-ghost", day(10))}))
}

// =============================================================================
// PAYMENT PREDICATE
// =============================================================================

func TestIsPaid(t *testing.T) {
	yes, no := true, false

	// Explicit flag wins in both directions.
	assert.True(t, frontdesk.IsPaid(frontdesk.Order{Paid: &yes}))
	assert.False(t, frontdesk.IsPaid(frontdesk.Order{Paid: &no, PaymentToken: "tok_paid"}))

	// Without a flag, any non-blank token counts.
	assert.True(t, frontdesk.IsPaid(frontdesk.Order{PaymentToken: "pi_stripe_x"}))
	assert.False(t, frontdesk.IsPaid(frontdesk.Order{PaymentToken: "   "}))
	assert.False(t, frontdesk.IsPaid(frontdesk.Order{}))
}
