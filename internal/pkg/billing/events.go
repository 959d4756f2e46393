package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Webhook event types consumed by the reconciler. Anything else is recorded
// and acknowledged without processing.
const (
	EventProductCreated      = "product.created"
	EventProductUpdated      = "product.updated"
	EventSubscriptionCreated = "subscription.created"
	EventSubscriptionUpdated = "subscription.updated"
)

// SubscriptionEventData is the slice of the subscription webhook payload the
// reconciler actually reads. Everything else is re-fetched from the API
// before writing, so out-of-order deliveries converge on the live snapshot.
type SubscriptionEventData struct {
	ID       string      `json:"id" validate:"required"`
	Customer CustomerRef `json:"customer" validate:"required"`
}

// Event is the decoded, validated webhook payload: a tagged union keyed by
// the provider event type with one concrete schema per variant.
type Event struct {
	ID   string
	Type string

	Product      *Product
	Subscription *SubscriptionEventData
}

var eventValidator = validator.New()

// IsReconcilable reports whether the event type is one the reconciler
// handles.
func IsReconcilable(eventType string) bool {
	switch strings.TrimSpace(eventType) {
	case EventProductCreated, EventProductUpdated,
		EventSubscriptionCreated, EventSubscriptionUpdated:
		return true
	default:
		return false
	}
}

// ParseEvent decodes a raw webhook body into the matching event variant and
// validates it. eventID is the provider's delivery id taken from the webhook
// headers. Returns an error for unknown types; callers decide whether to
// treat those as ignorable.
func ParseEvent(eventID string, body []byte) (*Event, error) {
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode webhook envelope: %w", err)
	}

	event := &Event{ID: eventID, Type: strings.TrimSpace(envelope.Type)}

	switch event.Type {
	case EventProductCreated, EventProductUpdated:
		var product Product
		if err := json.Unmarshal(envelope.Data, &product); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		if err := eventValidator.Struct(&product); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", event.Type, err)
		}
		event.Product = &product

	case EventSubscriptionCreated, EventSubscriptionUpdated:
		var sub SubscriptionEventData
		if err := json.Unmarshal(envelope.Data, &sub); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		if err := eventValidator.Struct(&sub); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", event.Type, err)
		}
		event.Subscription = &sub

	default:
		return nil, fmt.Errorf("unsupported webhook event type: %q", envelope.Type)
	}

	return event, nil
}
