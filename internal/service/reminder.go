package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/egannguyen/cart-insights/internal/messaging"
	"github.com/egannguyen/cart-insights/internal/repository"
)

// Dispatcher marks reminder-eligible abandonment episodes and queues one
// reminder job per episode for the notification system.
type Dispatcher struct {
	abandonments repository.AbandonmentRepository
	publisher    messaging.Publisher
	topic        string
	threshold    time.Duration
}

func NewDispatcher(abandonments repository.AbandonmentRepository, publisher messaging.Publisher, topic string, threshold time.Duration) *Dispatcher {
	return &Dispatcher{abandonments: abandonments, publisher: publisher, topic: topic, threshold: threshold}
}

// RemindResult summarizes one reminder sweep.
type RemindResult struct {
	Marked        int `json:"marked"`
	PublishErrors int `json:"publish_errors"`
}

func (r RemindResult) String() string {
	return fmt.Sprintf("reminder sweep: %d marked, %d publish errors", r.Marked, r.PublishErrors)
}

// SendAbandonmentReminders flags every eligible episode in one bulk update,
// then publishes a reminder job per flagged episode. The mark commits before
// any publish, so a broker failure never blocks it; each record is marked at
// most once.
func (d *Dispatcher) SendAbandonmentReminders(ctx context.Context) (RemindResult, error) {
	var res RemindResult

	cutoff := time.Now().Add(-d.threshold)
	marked, err := d.abandonments.MarkRemindersSent(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("failed to mark reminders: %w", err)
	}
	res.Marked = len(marked)

	for _, a := range marked {
		if a.UserID == nil {
			continue
		}
		job := messaging.ReminderQueued{
			AbandonmentID: a.ID,
			CartID:        a.CartID,
			UserID:        *a.UserID,
			ItemsCount:    a.ItemsCount,
			TotalValue:    a.TotalValue,
		}
		if err := d.publisher.PublishEvent(ctx, d.topic, a.CartID, job); err != nil {
			res.PublishErrors++
			slog.Error("Failed to queue reminder", "abandonment_id", a.ID, "err", err)
		}
	}

	if res.Marked > 0 {
		slog.Info("Reminder sweep finished", "marked", res.Marked, "publish_errors", res.PublishErrors)
	}
	return res, nil
}
