package frontdesk_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Barakmozes/FrontDeskFlow-sub000/frontdesk"
)

// =============================================================================
// TAG LINE CODEC
// =============================================================================

func TestDecodeTags_ForeignText_YieldsEmpty(t *testing.T) {
	// GIVEN: A note written by a human, predating the tag convention
	// WHEN: Decoding it
	// THEN: No tags, no error

	tags := frontdesk.DecodeTags("Guest prefers a quiet room.\nExtra pillows please.")
	assert.Empty(t, tags)
}

func TestEncodeTags_RoundTrip(t *testing.T) {
	// GIVEN: A patch of tags over an empty field
	// WHEN: Encoding then decoding
	// THEN: Every patched key survives

	patch := map[string]string{
		frontdesk.TagHousekeeping: "dirty",
		frontdesk.TagCleaningList: "1",
		frontdesk.TagRate:         "150",
	}

	encoded := frontdesk.EncodeTags(patch, "")
	decoded := frontdesk.DecodeTags(encoded)

	assert.Equal(t, "dirty", decoded[frontdesk.TagHousekeeping])
	assert.Equal(t, "1", decoded[frontdesk.TagCleaningList])
	assert.Equal(t, "150", decoded[frontdesk.TagRate])
}

func TestEncodeTags_PreservesForeignText(t *testing.T) {
	// GIVEN: A field holding human text plus an existing tag line
	// WHEN: Patching one tag
	// THEN: The human text is untouched and the other tags survive

	existing := "Guest prefers a quiet room.\nFD:TAGS|hk=ready|rate=120"

	updated := frontdesk.EncodeTags(map[string]string{frontdesk.TagHousekeeping: "dirty"}, existing)

	assert.Contains(t, updated, "Guest prefers a quiet room.")
	decoded := frontdesk.DecodeTags(updated)
	assert.Equal(t, "dirty", decoded[frontdesk.TagHousekeeping])
	assert.Equal(t, "120", decoded[frontdesk.TagRate])
}

func TestEncodeTags_EmptyValueDeletesKey(t *testing.T) {
	existing := frontdesk.EncodeTags(map[string]string{
		frontdesk.TagCleaningList: "1",
		frontdesk.TagHousekeeping: "dirty",
	}, "")

	updated := frontdesk.EncodeTags(map[string]string{frontdesk.TagCleaningList: ""}, existing)

	decoded := frontdesk.DecodeTags(updated)
	_, present := decoded[frontdesk.TagCleaningList]
	assert.False(t, present, "deleted key should be gone")
	assert.Equal(t, "dirty", decoded[frontdesk.TagHousekeeping])
}

func TestEncodeTags_Deterministic(t *testing.T) {
	// Same patch twice produces byte-identical text; the desk diffs these
	// fields to detect concurrent edits.
	patch := map[string]string{"b": "2", "a": "1", "c": "3"}

	first := frontdesk.EncodeTags(patch, "")
	second := frontdesk.EncodeTags(patch, "")

	assert.Equal(t, first, second)
	assert.Equal(t, "FD:TAGS|a=1|b=2|c=3", first)
}

// =============================================================================
// ROOM-CHARGE MARKER CODEC
// =============================================================================

func TestChargeNote_RoundTrip(t *testing.T) {
	ref := frontdesk.ChargeRef{
		ReservationID: "res-42",
		Date:          frontdesk.NewDateKey(2026, time.March, 10),
		HotelID:       "hot-1",
		RoomID:        "room-101",
		RoomNumber:    101,
	}

	note := frontdesk.EncodeChargeNote(ref)
	require.True(t, frontdesk.HasChargeMarker(note))

	decoded, ok := frontdesk.DecodeChargeNote(note)
	require.True(t, ok)
	assert.Equal(t, ref, decoded)
}

func TestChargeNote_SegmentOrderIsFixed(t *testing.T) {
	// Existing rows depend on the exact segment order.
	note := frontdesk.EncodeChargeNote(frontdesk.ChargeRef{
		ReservationID: "res-1",
		Date:          frontdesk.NewDateKey(2026, time.January, 5),
		HotelID:       "h",
		RoomID:        "r",
		RoomNumber:    7,
	})
	assert.Equal(t, "FD:ROOM_CHARGE|res=res-1|date=2026-01-05|hotel=h|roomId=r|room=7", note)
}

func TestDecodeChargeNote_IgnoresAuditLines(t *testing.T) {
	// GIVEN: A marker line followed by human-readable audit text
	// WHEN: Decoding
	// THEN: The marker decodes; the extra line is ignored

	note := frontdesk.EncodeChargeNote(frontdesk.ChargeRef{
		ReservationID: "res-9",
		Date:          frontdesk.NewDateKey(2026, time.June, 1),
	}) + "\nRoom 101 night 2026-06-01 @ 140.00 USD"

	ref, ok := frontdesk.DecodeChargeNote(note)
	require.True(t, ok)
	assert.Equal(t, frontdesk.ReservationID("res-9"), ref.ReservationID)
}

func TestDecodeChargeNote_ForeignNote_NotRecognized(t *testing.T) {
	_, ok := frontdesk.DecodeChargeNote("please deliver after 6pm")
	assert.False(t, ok)

	// A marker with no reservation id is useless and must not match.
	_, ok = frontdesk.DecodeChargeNote("FD:ROOM_CHARGE|date=2026-01-01")
	assert.False(t, ok)
}

// =============================================================================
// PAYMENT TOKENS
// =============================================================================

func TestParsePaymentMethod(t *testing.T) {
	cases := []struct {
		token string
		want  string
	}{
		{"", ""},
		{"MANUAL|CASH|by=desk-1|currency=USD|ts=1700000000000", "CASH"},
		{"MANUAL|card|by=desk-2|currency=EUR|ts=1700000000000", "CARD"},
		{"pi_stripe_3NQm8w2eZvKYlo2C", "STRIPE"},
		{"tok_a1b2c3", "OTHER"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, frontdesk.ParsePaymentMethod(c.token), "token %q", c.token)
	}
}

func TestManualPaymentToken_ParsesBack(t *testing.T) {
	token := frontdesk.ManualPaymentToken("cash", "desk-3", "USD", 1700000000000)

	assert.Equal(t, "MANUAL|CASH|by=desk-3|currency=USD|ts=1700000000000", token)
	assert.Equal(t, "CASH", frontdesk.ParsePaymentMethod(token))
}
