package token

import (
	"hashupcore/core/events"
	"hashupcore/core/types"
)

const (
	// EventTypeTokenCreated is emitted when a new payment token is registered.
	EventTypeTokenCreated = "token.created"
	// EventTypeTokenTransfer is emitted for every balance movement.
	EventTypeTokenTransfer = "token.transfer"
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

// TokenCreatedEvent returns the structured payload for a new payment token.
func TokenCreatedEvent(token string, creator string, symbol string, totalSupply string) *types.Event {
	return &types.Event{
		Type: EventTypeTokenCreated,
		Attributes: map[string]string{
			"token":       token,
			"creator":     creator,
			"symbol":      symbol,
			"totalSupply": totalSupply,
		},
	}
}

// TokenTransferEvent captures a payment token balance movement.
func TokenTransferEvent(token string, from string, to string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeTokenTransfer,
		Attributes: map[string]string{
			"token":  token,
			"from":   from,
			"to":     to,
			"amount": amount,
		},
	}
}
