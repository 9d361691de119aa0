package events

import (
	"context"
	"log/slog"
)

// RegisterAuditSubscriber attaches a subscriber that writes every admin
// mutation event to the structured log. Payload fields are flattened so the
// audit trail is greppable without JSON parsing.
func RegisterAuditSubscriber(bus *EventBus, log *slog.Logger) {
	handler := func(ctx context.Context, event Event) error {
		attrs := []any{
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
		}
		if data, ok := event.Payload().(map[string]interface{}); ok {
			for k, v := range data {
				attrs = append(attrs, k, v)
			}
		}
		log.Info("audit: "+event.EventType(), attrs...)
		return nil
	}

	for _, eventType := range []string{
		EventTypePermissionsChanged,
		EventTypeGroupPermissionsChanged,
		EventTypeUserPermissionsChanged,
		EventTypeGroupChanged,
		EventTypeUserChanged,
	} {
		bus.Subscribe(eventType, handler)
	}
}
