/*
tags.go - Codec for convention-encoded metadata in free-text fields

PURPOSE:
  The backend has nowhere to put structured attributes, so several free-text
  fields double as miniature key/value stores: room notes carry housekeeping
  state and rate overrides, hotel descriptions carry settings, and order
  notes carry room-charge linkage. This file is the ONLY place that encodes
  or decodes those conventions; the rest of the system never string-matches
  a note directly.

WIRE FORMATS (bit-compatible with existing data, treat as a contract):
  Tag line (rooms, hotels):
    FD:TAGS|hk=ready|clean=1|rate=120
  Room-charge marker (order notes):
    FD:ROOM_CHARGE|res=<id>|date=<yyyy-mm-dd>|hotel=<id>|roomId=<id>|room=<n>
  Payment token:
    MANUAL|<METHOD>|by=<actor>|currency=<code>|ts=<epoch-ms>

TOLERANCE:
  The fields also hold ordinary human-written content, including content
  written before these conventions existed, and third-party payment tokens.
  Decoding NEVER fails: unrecognized input yields an empty result, and
  encoding preserves unrelated text byte-for-byte.

ROUND-TRIP PROPERTY:
  DecodeTags(EncodeTags(patch, t)) contains every key set in patch, and the
  non-tag content of t is unchanged.
*/
package frontdesk

import (
	"sort"
	"strconv"
	"strings"
)

const (
	tagPrefix         = "FD:TAGS"
	chargeNotePrefix  = "FD:ROOM_CHARGE"
	manualTokenPrefix = "MANUAL"

	// RoomChargeNumberPrefix marks room-charge orders created before note
	// tagging existed (and those created by the poster, for consistency).
	RoomChargeNumberPrefix = "ROOM-"
)

// Recognized tag keys. Rooms and hotels use separate stores, so "rate" means
// the nightly override on a room and the base nightly rate on a hotel.
const (
	TagHousekeeping = "hk"
	TagCleaningList = "clean"
	TagRate         = "rate"
	TagCurrency     = "currency"
	TagAutoPost     = "autopost"
	TagRequirePaid  = "require_paid"
	TagBlockMissing = "block_missing"
	TagOpensAt      = "open"
	TagClosesAt     = "close"
)

// =============================================================================
// TAG LINE CODEC
// =============================================================================

// DecodeTags extracts the key/value tags embedded in a free-text field.
// Foreign or malformed input yields an empty map, never an error.
func DecodeTags(text string) map[string]string {
	tags := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, tagPrefix+"|") && line != tagPrefix {
			continue
		}
		for _, seg := range strings.Split(line, "|")[1:] {
			k, v, ok := strings.Cut(seg, "=")
			if !ok || k == "" {
				continue
			}
			tags[k] = v
		}
	}
	return tags
}

// EncodeTags merges patch into the tags already present in existing and
// returns the updated text. Non-tag lines are preserved byte-for-byte, in
// place. An empty value in patch deletes the key. Keys are rendered in
// sorted order so encoding is deterministic.
func EncodeTags(patch map[string]string, existing string) string {
	merged := DecodeTags(existing)
	for k, v := range patch {
		if v == "" {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tagLine string
	if len(keys) > 0 {
		parts := make([]string, 0, len(keys)+1)
		parts = append(parts, tagPrefix)
		for _, k := range keys {
			parts = append(parts, k+"="+merged[k])
		}
		tagLine = strings.Join(parts, "|")
	}

	// Replace the first existing tag line in place; drop any duplicates.
	var out []string
	replaced := false
	for _, line := range strings.Split(existing, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, tagPrefix+"|") || trimmed == tagPrefix {
			if !replaced && tagLine != "" {
				out = append(out, tagLine)
			}
			replaced = true
			continue
		}
		out = append(out, line)
	}
	if !replaced && tagLine != "" {
		if len(out) == 1 && out[0] == "" {
			out[0] = tagLine
		} else {
			out = append(out, tagLine)
		}
	}
	return strings.Join(out, "\n")
}

// =============================================================================
// ROOM-CHARGE MARKER CODEC
// =============================================================================

// ChargeRef is the linkage metadata embedded in a room-charge order's note.
// It is the only durable connection between an order and a stay.
type ChargeRef struct {
	ReservationID ReservationID
	Date          DateKey
	HotelID       HotelID
	RoomID        RoomID
	RoomNumber    int
}

// DecodeChargeNote extracts room-charge linkage from an order note.
// Notes not in our format (including third-party payment blobs) return
// ok=false rather than an error.
func DecodeChargeNote(note string) (ChargeRef, bool) {
	for _, line := range strings.Split(note, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, chargeNotePrefix+"|") {
			continue
		}
		var ref ChargeRef
		for _, seg := range strings.Split(line, "|")[1:] {
			k, v, ok := strings.Cut(seg, "=")
			if !ok {
				continue
			}
			switch k {
			case "res":
				ref.ReservationID = ReservationID(v)
			case "date":
				if d, ok := ParseDateKey(v); ok {
					ref.Date = d
				}
			case "hotel":
				ref.HotelID = HotelID(v)
			case "roomId":
				ref.RoomID = RoomID(v)
			case "room":
				ref.RoomNumber = atoiSafe(v)
			}
		}
		if ref.ReservationID != "" {
			return ref, true
		}
	}
	return ChargeRef{}, false
}

// EncodeChargeNote renders the room-charge marker line. Segment order is
// fixed; existing data depends on it.
func EncodeChargeNote(ref ChargeRef) string {
	var b strings.Builder
	b.WriteString(chargeNotePrefix)
	b.WriteString("|res=" + string(ref.ReservationID))
	b.WriteString("|date=" + ref.Date.String())
	b.WriteString("|hotel=" + string(ref.HotelID))
	b.WriteString("|roomId=" + string(ref.RoomID))
	b.WriteString("|room=" + strconv.Itoa(ref.RoomNumber))
	return b.String()
}

// HasChargeMarker reports whether a note begins with the room-charge marker.
// Classification uses the prefix only; the full decode may still fail on a
// truncated marker, which then falls through to weaker signals.
func HasChargeMarker(note string) bool {
	return strings.HasPrefix(strings.TrimSpace(note), chargeNotePrefix+"|")
}

// =============================================================================
// PAYMENT TOKEN
// =============================================================================

// PaymentMethodOther is the bucket for tokens in no recognized format.
const (
	PaymentMethodStripe = "STRIPE"
	PaymentMethodOther  = "OTHER"
)

// ParsePaymentMethod extracts the payment method from a token.
// MANUAL|CASH|by=alice|... yields "CASH"; anything mentioning stripe maps to
// the fixed external label; any other non-empty token is "OTHER".
func ParsePaymentMethod(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if parts := strings.Split(token, "|"); parts[0] == manualTokenPrefix && len(parts) > 1 && parts[1] != "" {
		return strings.ToUpper(parts[1])
	}
	if strings.Contains(strings.ToLower(token), "stripe") {
		return PaymentMethodStripe
	}
	return PaymentMethodOther
}

// ManualPaymentToken builds a manual-payment token for mark-paid intents.
func ManualPaymentToken(method, actor, currency string, epochMillis int64) string {
	return strings.Join([]string{
		manualTokenPrefix,
		strings.ToUpper(method),
		"by=" + actor,
		"currency=" + currency,
		"ts=" + strconv.FormatInt(epochMillis, 10),
	}, "|")
}

// atoiSafe parses a lenient integer field: malformed input is zero.
func atoiSafe(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
