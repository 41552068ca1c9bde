package observability

import (
	"log/slog"

	"hashupcore/core/events"
	"hashupcore/core/types"
)

type payloadCarrier interface {
	Event() *types.Event
}

// LogEmitter forwards ledger events to a structured logger. It is the default
// emitter installed by the daemon so every state transition leaves an audit
// line.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter wraps a logger as an event emitter.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit implements the events.Emitter interface.
func (l *LogEmitter) Emit(evt events.Event) {
	if l == nil || l.logger == nil || evt == nil {
		return
	}
	args := []any{slog.String("event", evt.EventType())}
	if carrier, ok := evt.(payloadCarrier); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				args = append(args, slog.String(key, value))
			}
		}
	}
	l.logger.Info("ledger event", args...)
}

var _ events.Emitter = (*LogEmitter)(nil)
