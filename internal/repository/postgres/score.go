package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/egannguyen/cart-insights/internal/entity"
	"github.com/egannguyen/cart-insights/internal/repository"
)

type scoreRepository struct {
	db *sql.DB
}

// NewScoreRepository creates a ScoreRepository backed by Postgres.
func NewScoreRepository(db *sql.DB) repository.ScoreRepository {
	return &scoreRepository{db: db}
}

const scoreColumns = "user_id, abandonment_score, value_score, conversion_score, hesitation_score, composite_score, discount_eligible, recommended_discount, promo_code, calculated_at"

func (r *scoreRepository) Get(ctx context.Context, userID string) (*entity.UserScore, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+scoreColumns+" FROM user_scores WHERE user_id = $1", userID)

	var s entity.UserScore
	var promo sql.NullString
	err := row.Scan(&s.UserID, &s.AbandonmentScore, &s.ValueScore, &s.ConversionScore, &s.HesitationScore,
		&s.CompositeScore, &s.DiscountEligible, &s.RecommendedDiscount, &promo, &s.CalculatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load score for user %s: %w", userID, err)
	}
	if promo.Valid {
		s.PromoCode = &promo.String
	}
	return &s, nil
}

func (r *scoreRepository) ExistingUserIDs(ctx context.Context, userIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return existing, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM user_scores WHERE user_id = ANY($1)", pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query existing score rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan existing user id: %w", err)
		}
		existing[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating existing user id rows: %w", err)
	}
	return existing, nil
}

func (r *scoreRepository) BulkInsert(ctx context.Context, scores []entity.UserScore) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO user_scores ("+scoreColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range scores {
		_, err = stmt.ExecContext(ctx, s.UserID, s.AbandonmentScore, s.ValueScore, s.ConversionScore,
			s.HesitationScore, s.CompositeScore, s.DiscountEligible, s.RecommendedDiscount, s.PromoCode, s.CalculatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert score for user %s: %w", s.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *scoreRepository) BulkUpdate(ctx context.Context, scores []entity.UserScore) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE user_scores SET abandonment_score = $2, value_score = $3, conversion_score = $4,
			hesitation_score = $5, composite_score = $6, discount_eligible = $7,
			recommended_discount = $8, promo_code = $9, calculated_at = $10
		WHERE user_id = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range scores {
		_, err = stmt.ExecContext(ctx, s.UserID, s.AbandonmentScore, s.ValueScore, s.ConversionScore,
			s.HesitationScore, s.CompositeScore, s.DiscountEligible, s.RecommendedDiscount, s.PromoCode, s.CalculatedAt)
		if err != nil {
			return fmt.Errorf("failed to update score for user %s: %w", s.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *scoreRepository) Upsert(ctx context.Context, s entity.UserScore) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_scores (`+scoreColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			abandonment_score = EXCLUDED.abandonment_score,
			value_score = EXCLUDED.value_score,
			conversion_score = EXCLUDED.conversion_score,
			hesitation_score = EXCLUDED.hesitation_score,
			composite_score = EXCLUDED.composite_score,
			discount_eligible = EXCLUDED.discount_eligible,
			recommended_discount = EXCLUDED.recommended_discount,
			promo_code = EXCLUDED.promo_code,
			calculated_at = EXCLUDED.calculated_at`,
		s.UserID, s.AbandonmentScore, s.ValueScore, s.ConversionScore, s.HesitationScore,
		s.CompositeScore, s.DiscountEligible, s.RecommendedDiscount, s.PromoCode, s.CalculatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert score for user %s: %w", s.UserID, err)
	}
	return nil
}

func (r *scoreRepository) Averages(ctx context.Context) (entity.ScoreAverages, error) {
	var a entity.ScoreAverages
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(AVG(composite_score), 0),
			COALESCE(AVG(abandonment_score), 0),
			COALESCE(AVG(value_score), 0),
			COALESCE(AVG(conversion_score), 0),
			COALESCE(AVG(hesitation_score), 0),
			COUNT(*) FILTER (WHERE discount_eligible)
		FROM user_scores`,
	).Scan(&a.Users, &a.AvgComposite, &a.AvgAbandonment, &a.AvgValue, &a.AvgConversion, &a.AvgHesitation, &a.Eligible)
	if err != nil {
		return a, fmt.Errorf("failed to aggregate score averages: %w", err)
	}
	return a, nil
}

func (r *scoreRepository) SegmentCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT CASE
			WHEN composite_score >= 75 THEN 'high_value'
			WHEN composite_score >= 50 THEN 'medium_value'
			WHEN composite_score >= 25 THEN 'low_value'
			ELSE 'at_risk'
		END AS segment, COUNT(*)
		FROM user_scores
		GROUP BY 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query segment counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var segment string
		var n int
		if err := rows.Scan(&segment, &n); err != nil {
			return nil, fmt.Errorf("failed to scan segment count: %w", err)
		}
		counts[segment] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment count rows: %w", err)
	}
	return counts, nil
}
