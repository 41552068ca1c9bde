package license

import (
	"hashupcore/core/events"
	"hashupcore/core/types"
)

const (
	// EventTypeLicenseCreated is emitted when a new license ledger is registered.
	EventTypeLicenseCreated = "license.created"
	// EventTypeTransfer is emitted for every balance movement, fee included.
	EventTypeTransfer = "license.transfer"
	// EventTypeApproval is emitted when a spender allowance is set.
	EventTypeApproval = "license.approval"
	// EventTypeSaleOpened is emitted the first time the sale gate opens.
	EventTypeSaleOpened = "license.sale.opened"
	// EventTypeStoreUpdated is emitted when the trusted store operator changes.
	EventTypeStoreUpdated = "license.store.updated"
	// EventTypeMetadataUpdated is emitted when the metadata URL changes.
	EventTypeMetadataUpdated = "license.metadata.updated"
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

// LicenseCreatedEvent returns the structured payload for a new license ledger.
func LicenseCreatedEvent(license string, creator string, symbol string, totalSupply string) *types.Event {
	return &types.Event{
		Type: EventTypeLicenseCreated,
		Attributes: map[string]string{
			"license":     license,
			"creator":     creator,
			"symbol":      symbol,
			"totalSupply": totalSupply,
		},
	}
}

// TransferEvent captures a balance movement and the fee carved out of it.
func TransferEvent(license string, from string, to string, amount string, fee string) *types.Event {
	return &types.Event{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"license": license,
			"from":    from,
			"to":      to,
			"amount":  amount,
			"fee":     fee,
		},
	}
}

// ApprovalEvent captures an allowance being set.
func ApprovalEvent(license string, owner string, spender string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeApproval,
		Attributes: map[string]string{
			"license": license,
			"owner":   owner,
			"spender": spender,
			"amount":  amount,
		},
	}
}

// SaleOpenedEvent captures the one-way sale gate opening.
func SaleOpenedEvent(license string, admin string) *types.Event {
	return &types.Event{
		Type: EventTypeSaleOpened,
		Attributes: map[string]string{
			"license": license,
			"admin":   admin,
		},
	}
}

// StoreUpdatedEvent captures a change of the trusted store operator.
func StoreUpdatedEvent(license string, store string) *types.Event {
	return &types.Event{
		Type: EventTypeStoreUpdated,
		Attributes: map[string]string{
			"license": license,
			"store":   store,
		},
	}
}

// MetadataUpdatedEvent captures a metadata URL change.
func MetadataUpdatedEvent(license string, url string) *types.Event {
	return &types.Event{
		Type: EventTypeMetadataUpdated,
		Attributes: map[string]string{
			"license": license,
			"url":     url,
		},
	}
}
