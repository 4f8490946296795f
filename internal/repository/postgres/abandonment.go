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

type abandonmentRepository struct {
	db *sql.DB
}

// NewAbandonmentRepository creates an AbandonmentRepository backed by Postgres.
func NewAbandonmentRepository(db *sql.DB) repository.AbandonmentRepository {
	return &abandonmentRepository{db: db}
}

func (r *abandonmentRepository) CreateEpisode(ctx context.Context, cand entity.AbandonmentCandidate) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// An episode created after the cart's last activity still covers the
	// current abandonment window; only one open record may exist per window.
	var open bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM cart_abandonments WHERE cart_id = $1 AND recovered = FALSE AND created_at >= $2)",
		cand.CartID, cand.UpdatedAt,
	).Scan(&open)
	if err != nil {
		return false, fmt.Errorf("failed to check open episode for cart %s: %w", cand.CartID, err)
	}
	if open {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO cart_abandonments (id, cart_id, user_id, items_count, total_value) VALUES ($1, $2, $3, $4, $5)",
		uuid.NewString(), cand.CartID, cand.UserID, cand.ItemsCount, cand.TotalValue,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert abandonment for cart %s: %w", cand.CartID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func (r *abandonmentRepository) MarkRemindersSent(ctx context.Context, cutoff time.Time) ([]entity.Abandonment, error) {
	// One bulk update; email resolution belongs to the notification consumer,
	// so "known email" filters down to a known user here.
	rows, err := r.db.QueryContext(ctx,
		`UPDATE cart_abandonments
		SET reminder_sent = TRUE, reminder_sent_at = NOW()
		WHERE recovered = FALSE AND reminder_sent = FALSE AND created_at <= $1 AND user_id IS NOT NULL
		RETURNING id, cart_id, user_id, items_count, total_value, recovered, reminder_sent, reminder_sent_at, created_at`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark reminders sent: %w", err)
	}
	defer rows.Close()

	var marked []entity.Abandonment
	for rows.Next() {
		var a entity.Abandonment
		var userID sql.NullString
		var sentAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.CartID, &userID, &a.ItemsCount, &a.TotalValue, &a.Recovered, &a.ReminderSent, &sentAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan marked abandonment: %w", err)
		}
		if userID.Valid {
			a.UserID = &userID.String
		}
		if sentAt.Valid {
			a.ReminderSentAt = &sentAt.Time
		}
		marked = append(marked, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating marked abandonment rows: %w", err)
	}
	return marked, nil
}

func (r *abandonmentRepository) UserBehavior(ctx context.Context, userID string) (entity.UserBehavior, error) {
	b := entity.UserBehavior{UserID: userID}

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT c.id) FROM carts c JOIN cart_items i ON i.cart_id = c.id WHERE c.user_id = $1",
		userID,
	).Scan(&b.TotalCarts)
	if err != nil {
		return b, fmt.Errorf("failed to count carts for user %s: %w", userID, err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE a.recovered),
			COALESCE(AVG(a.total_value), 0),
			COALESCE(AVG(EXTRACT(EPOCH FROM (a.created_at - c.created_at)) / 3600), 0)
		FROM cart_abandonments a
		JOIN carts c ON c.id = a.cart_id
		WHERE a.user_id = $1`,
		userID,
	).Scan(&b.AbandonedCarts, &b.RecoveredCarts, &b.AvgAbandonedValue, &b.AvgHoursToAbandon)
	if err != nil {
		return b, fmt.Errorf("failed to aggregate abandonments for user %s: %w", userID, err)
	}

	return b, nil
}

func (r *abandonmentRepository) UserIDsWithHistory(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM carts WHERE user_id IS NOT NULL
		UNION
		SELECT user_id FROM cart_abandonments WHERE user_id IS NOT NULL
		ORDER BY 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query users with history: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user id rows: %w", err)
	}
	return ids, nil
}

func (r *abandonmentRepository) Stats(ctx context.Context) (entity.AbandonmentStats, error) {
	var s entity.AbandonmentStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE recovered), COUNT(*) FILTER (WHERE reminder_sent)
		FROM cart_abandonments`,
	).Scan(&s.Total, &s.Recovered, &s.Reminded)
	if err != nil {
		return s, fmt.Errorf("failed to aggregate abandonment stats: %w", err)
	}
	return s, nil
}
