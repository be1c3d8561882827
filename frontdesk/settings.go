// settings.go - Typed views over the room and hotel tag stores.
//
// Rooms and hotels carry their structured attributes as encoded tags inside
// free-text fields (see tags.go). These helpers decode them once into typed
// values so the rest of the core never touches raw tag maps.
package frontdesk

import "github.com/shopspring/decimal"

// =============================================================================
// HOUSEKEEPING
// =============================================================================

type HousekeepingState string

const (
	HousekeepingReady      HousekeepingState = "ready"
	HousekeepingDirty      HousekeepingState = "dirty"
	HousekeepingInProgress HousekeepingState = "cleaning"
)

// RoomState is the decoded tag store of a room.
type RoomState struct {
	Housekeeping   HousekeepingState
	OnCleaningList bool
	// RateOverride is zero when the room has no nightly-rate override.
	RateOverride decimal.Decimal
}

// RoomStateOf decodes a room's tags. A room with no tags (or foreign text in
// the field) is ready and not on the cleaning list: the conventions were
// introduced after the data existed, so absence must mean the default.
func RoomStateOf(room Room) RoomState {
	tags := DecodeTags(room.SpecialRequests)
	state := RoomState{
		Housekeeping: HousekeepingReady,
		RateOverride: decimal.Zero,
	}
	switch HousekeepingState(tags[TagHousekeeping]) {
	case HousekeepingDirty:
		state.Housekeeping = HousekeepingDirty
	case HousekeepingInProgress:
		state.Housekeeping = HousekeepingInProgress
	}
	state.OnCleaningList = tags[TagCleaningList] == "1"
	state.RateOverride = ParseMoney(tags[TagRate])
	return state
}

// =============================================================================
// HOTEL SETTINGS
// =============================================================================

// HotelSettings is the decoded tag store of a hotel.
type HotelSettings struct {
	Currency string
	BaseRate decimal.Decimal

	// AutoPostCharges: post missing nightly room charges at check-in.
	AutoPostCharges bool
	// RequirePaidFolio: block checkout while balance due is positive.
	RequirePaidFolio bool
	// BlockOnMissingCharges: block checkout while nights lack room charges.
	BlockOnMissingCharges bool

	OpensAt  string
	ClosesAt string
}

// SettingsOf decodes a hotel's tags. Checkout gating flags default to on:
// an untagged hotel should block an unsettled checkout, not wave it through.
func SettingsOf(hotel Hotel) HotelSettings {
	tags := DecodeTags(hotel.Description)
	s := HotelSettings{
		Currency:              "USD",
		BaseRate:              ParseMoney(tags[TagRate]),
		AutoPostCharges:       tags[TagAutoPost] == "1",
		RequirePaidFolio:      tags[TagRequirePaid] != "0",
		BlockOnMissingCharges: tags[TagBlockMissing] != "0",
		OpensAt:               tags[TagOpensAt],
		ClosesAt:              tags[TagClosesAt],
	}
	if c := tags[TagCurrency]; c != "" {
		s.Currency = c
	}
	return s
}

// NightlyRate resolves the rate for a room: the room's override when set,
// otherwise the hotel's base rate. May be zero when neither is configured;
// the poster refuses to post zero-amount charges.
func NightlyRate(settings HotelSettings, room RoomState) decimal.Decimal {
	if room.RateOverride.IsPositive() {
		return room.RateOverride
	}
	return settings.BaseRate
}
