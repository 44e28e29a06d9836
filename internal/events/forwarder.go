package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Publisher sends a payload to a named channel. Satisfied by the Redis
// progress store.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Forwarder relays bus events onto per-character Redis pub/sub channels so
// the web front end can consume them over SSE. Forwarding is best-effort:
// a publish failure is logged and play continues.
type Forwarder struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewForwarder creates a forwarder. Call Attach to wire it to a bus.
func NewForwarder(publisher Publisher, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		publisher: publisher,
		logger:    logger,
	}
}

// Attach subscribes the forwarder to every event on the bus.
func (f *Forwarder) Attach(bus *Bus) UnsubscribeFunc {
	return bus.SubscribeAll(f.forward)
}

func (f *Forwarder) forward(e Event) {
	channel := fmt.Sprintf("trigger-events:%s", e.Character)

	data, err := json.Marshal(e)
	if err != nil {
		f.logger.Error("Failed to marshal event", "error", err, "type", e.Type)
		return
	}

	if err := f.publisher.Publish(context.Background(), channel, data); err != nil {
		f.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return
	}

	f.logger.Debug("Event forwarded",
		"channel", channel,
		"event_type", e.Type,
		"trigger_id", e.TriggerID,
	)
}
