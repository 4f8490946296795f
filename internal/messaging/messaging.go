// Package messaging abstracts the broker the engine consumes cart events from
// and publishes reminder jobs to.
package messaging

import "context"

// Default topics. The storefront produces cart mutations on TopicCartEvents;
// the notification system consumes reminder jobs from TopicReminders.
const (
	TopicCartEvents = "carts.events"
	TopicReminders  = "carts.reminders"
)

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Subscriber defines an interface for subscribing to a message topic.
type Subscriber interface {
	Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error)
}

// ReminderQueued is the message published for each abandonment episode marked
// reminder-sent. Email lookup and delivery happen downstream, so a send
// failure can never unwind the bulk-update commit.
type ReminderQueued struct {
	AbandonmentID string  `json:"abandonment_id"`
	CartID        string  `json:"cart_id"`
	UserID        string  `json:"user_id"`
	ItemsCount    int     `json:"items_count"`
	TotalValue    float64 `json:"total_value"`
}
