package repository

import (
	"context"
	"time"

	"github.com/egannguyen/cart-insights/internal/entity"
)

// EventLog handles the append-only cart event log.
type EventLog interface {
	// Append writes one event record. Records are never updated or deleted.
	Append(ctx context.Context, rec entity.EventRecord) error
	// UserEventCounts returns how many item_added and item_saved_for_later
	// events the user has logged.
	UserEventCounts(ctx context.Context, userID string) (added, saved int, err error)
}

// CartRepository maintains the cart and cart item state mirror.
type CartRepository interface {
	// ApplyEvent folds a cart mutation event into the mirror and touches the
	// cart's updated_at clock.
	ApplyEvent(ctx context.Context, userID, sessionID *string, event entity.Event) error
	// FindStale returns carts with at least one item whose updated_at is older
	// than the cutoff, with an item count and value snapshot per cart.
	FindStale(ctx context.Context, cutoff time.Time) ([]entity.AbandonmentCandidate, error)
}

// AbandonmentRepository handles persistence for abandonment episodes.
type AbandonmentRepository interface {
	// CreateEpisode inserts one abandonment record for the candidate unless an
	// open episode already covers the cart's current abandonment window. It
	// reports whether a record was created, in its own transaction.
	CreateEpisode(ctx context.Context, cand entity.AbandonmentCandidate) (bool, error)
	// MarkRemindersSent flags every eligible episode (unrecovered, unreminded,
	// older than the cutoff, with a known user) in one bulk update and returns
	// the flagged episodes.
	MarkRemindersSent(ctx context.Context, cutoff time.Time) ([]entity.Abandonment, error)
	// UserBehavior gathers the scoring input snapshot for one user.
	UserBehavior(ctx context.Context, userID string) (entity.UserBehavior, error)
	// UserIDsWithHistory returns every user holding any cart or abandonment
	// history, the scoring population.
	UserIDsWithHistory(ctx context.Context) ([]string, error)
	// Stats aggregates episode counts for the diagnostics summary.
	Stats(ctx context.Context) (entity.AbandonmentStats, error)
}

// ScoreRepository handles persistence for computed user scores.
type ScoreRepository interface {
	Get(ctx context.Context, userID string) (*entity.UserScore, error)
	// ExistingUserIDs reports which of the given users already have a score
	// row, so the writer can partition inserts from updates.
	ExistingUserIDs(ctx context.Context, userIDs []string) (map[string]bool, error)
	BulkInsert(ctx context.Context, scores []entity.UserScore) error
	BulkUpdate(ctx context.Context, scores []entity.UserScore) error
	// Upsert writes a single score, the per-row fallback when a batch fails.
	Upsert(ctx context.Context, score entity.UserScore) error
	// Averages aggregates the score table for the diagnostics summary.
	Averages(ctx context.Context) (entity.ScoreAverages, error)
	// SegmentCounts buckets composite scores by the display segment cut points.
	SegmentCounts(ctx context.Context) (map[string]int, error)
}
