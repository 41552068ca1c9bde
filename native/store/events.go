package store

import (
	"strconv"

	"hashupcore/core/events"
	"hashupcore/core/types"
)

const (
	// EventTypePauseToggled is emitted when the owner flips the paused flag.
	EventTypePauseToggled = "store.pause.toggled"
	// EventTypeHashupFeeUpdated is emitted when the platform fee changes.
	EventTypeHashupFeeUpdated = "store.fee.updated"
	// EventTypePaymentTokenUpdated is emitted when the payment token changes.
	EventTypePaymentTokenUpdated = "store.payment_token.updated"
	// EventTypeWhitelistToggled is emitted when a marketplace entry flips.
	EventTypeWhitelistToggled = "store.whitelist.toggled"
	// EventTypeListingCreated is emitted when a license is listed for sale.
	EventTypeListingCreated = "store.listing.created"
	// EventTypeListingSold is emitted for every settled purchase.
	EventTypeListingSold = "store.listing.sold"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// PauseToggledEvent captures the new paused state.
func PauseToggledEvent(paused bool) *types.Event {
	return &types.Event{
		Type: EventTypePauseToggled,
		Attributes: map[string]string{
			"paused": strconv.FormatBool(paused),
		},
	}
}

// HashupFeeUpdatedEvent captures the new platform fee in whole percent.
func HashupFeeUpdatedEvent(fee uint32) *types.Event {
	return &types.Event{
		Type: EventTypeHashupFeeUpdated,
		Attributes: map[string]string{
			"fee": strconv.FormatUint(uint64(fee), 10),
		},
	}
}

// PaymentTokenUpdatedEvent captures the new payment token address.
func PaymentTokenUpdatedEvent(token string) *types.Event {
	return &types.Event{
		Type: EventTypePaymentTokenUpdated,
		Attributes: map[string]string{
			"token": token,
		},
	}
}

// WhitelistToggledEvent captures a marketplace whitelist flip.
func WhitelistToggledEvent(marketplace string, whitelisted bool) *types.Event {
	return &types.Event{
		Type: EventTypeWhitelistToggled,
		Attributes: map[string]string{
			"marketplace": marketplace,
			"whitelisted": strconv.FormatBool(whitelisted),
		},
	}
}

// ListingCreatedEvent captures a new listing and its terms.
func ListingCreatedEvent(license string, price string, amount string, marketplaceFee uint32) *types.Event {
	return &types.Event{
		Type: EventTypeListingCreated,
		Attributes: map[string]string{
			"license":        license,
			"price":          price,
			"amount":         amount,
			"marketplaceFee": strconv.FormatUint(uint64(marketplaceFee), 10),
		},
	}
}

// ListingSoldEvent captures a settled purchase and the remaining inventory.
func ListingSoldEvent(license string, marketplace string, buyer string, price string, remaining string) *types.Event {
	return &types.Event{
		Type: EventTypeListingSold,
		Attributes: map[string]string{
			"license":     license,
			"marketplace": marketplace,
			"buyer":       buyer,
			"price":       price,
			"remaining":   remaining,
		},
	}
}
