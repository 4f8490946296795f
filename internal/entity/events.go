package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event type tags as they appear on the wire and in the cart_events table.
const (
	EventItemAdded         = "item_added"
	EventItemUpdated       = "item_updated"
	EventItemRemoved       = "item_removed"
	EventItemSavedForLater = "item_saved_for_later"
)

// Event represents a cart lifecycle event.
type Event interface {
	EventType() string
}

// ItemAdded is emitted when a user drops an item into their cart.
type ItemAdded struct {
	CartID    string  `json:"cart_id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

func (e ItemAdded) EventType() string { return EventItemAdded }

// ItemUpdated is emitted when the quantity of an item already in the cart changes.
type ItemUpdated struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (e ItemUpdated) EventType() string { return EventItemUpdated }

// ItemRemoved is emitted when a user takes an item out of their cart.
type ItemRemoved struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (e ItemRemoved) EventType() string { return EventItemRemoved }

// ItemSavedForLater is emitted when a user parks an item on their saved list.
type ItemSavedForLater struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
}

func (e ItemSavedForLater) EventType() string { return EventItemSavedForLater }

// EventRecord represents a cart event stored in the append-only log.
type EventRecord struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	CartID    string    `json:"cart_id"`
	EventType string    `json:"event_type"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Decode unmarshals the record payload into its typed event.
func (r EventRecord) Decode() (Event, error) {
	switch r.EventType {
	case EventItemAdded:
		var e ItemAdded
		if err := json.Unmarshal(r.Payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", r.EventType, err)
		}
		return e, nil
	case EventItemUpdated:
		var e ItemUpdated
		if err := json.Unmarshal(r.Payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", r.EventType, err)
		}
		return e, nil
	case EventItemRemoved:
		var e ItemRemoved
		if err := json.Unmarshal(r.Payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", r.EventType, err)
		}
		return e, nil
	case EventItemSavedForLater:
		var e ItemSavedForLater
		if err := json.Unmarshal(r.Payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", r.EventType, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown cart event type: %s", r.EventType)
	}
}

// EventEnvelope is the wire format consumed from the cart events topic.
type EventEnvelope struct {
	EventType string          `json:"event_type"`
	UserID    *string         `json:"user_id,omitempty"`
	SessionID *string         `json:"session_id,omitempty"`
	CartID    string          `json:"cart_id"`
	Data      json.RawMessage `json:"data"`
}

// DecodeEvent unmarshals the envelope data into its typed event.
func (env EventEnvelope) DecodeEvent() (Event, error) {
	rec := EventRecord{CartID: env.CartID, EventType: env.EventType, Payload: env.Data}
	return rec.Decode()
}
