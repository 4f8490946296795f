package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/cart-insights/internal/entity"
	"github.com/egannguyen/cart-insights/internal/repository"
)

type eventLog struct {
	db *sql.DB
}

// NewEventLog creates an EventLog backed by Postgres.
func NewEventLog(db *sql.DB) repository.EventLog {
	return &eventLog{db: db}
}

func (l *eventLog) Append(ctx context.Context, rec entity.EventRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx,
		"INSERT INTO cart_events (id, user_id, cart_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		rec.ID, rec.UserID, rec.CartID, rec.EventType, rec.Payload, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append cart event %s: %w", rec.EventType, err)
	}
	return nil
}

func (l *eventLog) UserEventCounts(ctx context.Context, userID string) (int, int, error) {
	var added, saved int
	err := l.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE event_type = $2),
			COUNT(*) FILTER (WHERE event_type = $3)
		FROM cart_events WHERE user_id = $1`,
		userID, entity.EventItemAdded, entity.EventItemSavedForLater,
	).Scan(&added, &saved)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count cart events for user %s: %w", userID, err)
	}
	return added, saved, nil
}
