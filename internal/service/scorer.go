package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/cart-insights/internal/entity"
	"github.com/egannguyen/cart-insights/internal/repository"
	"github.com/egannguyen/cart-insights/internal/scoring"
)

// ScoreCache is the optional read-through cache in front of the score table.
type ScoreCache interface {
	Get(ctx context.Context, userID string) (*entity.UserScore, error)
	Set(ctx context.Context, score entity.UserScore) error
}

// Scorer recomputes user engagement scores from the event log and abandonment
// history and bulk-persists them.
type Scorer struct {
	abandonments repository.AbandonmentRepository
	events       repository.EventLog
	scores       repository.ScoreRepository
	engine       *scoring.Engine
	cache        ScoreCache // may be nil
}

func NewScorer(
	abandonments repository.AbandonmentRepository,
	events repository.EventLog,
	scores repository.ScoreRepository,
	engine *scoring.Engine,
	cache ScoreCache,
) *Scorer {
	return &Scorer{
		abandonments: abandonments,
		events:       events,
		scores:       scores,
		engine:       engine,
		cache:        cache,
	}
}

// BulkResult summarizes one full recompute run.
type BulkResult struct {
	Users   int `json:"users"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errored int `json:"errored"`
}

func (r BulkResult) String() string {
	return fmt.Sprintf("scoring run: %d users, %d created, %d updated, %d errored", r.Users, r.Created, r.Updated, r.Errored)
}

// ScoreView is a persisted score with the discount policy applied on read.
// The stored eligibility fields may lag a policy change between scoring runs;
// the view fields are always current.
type ScoreView struct {
	entity.UserScore
	Tier            scoring.DiscountTier `json:"tier"`
	Segment         scoring.Segment      `json:"segment"`
	CurrentDiscount float64              `json:"current_discount"`
}

// CalculateUserScoresBulk recomputes scores for every user with any cart or
// abandonment history, partitions them into insert and update batches, and
// commits each batch in one operation. A per-user failure is logged and
// counted, never aborting the batch.
func (s *Scorer) CalculateUserScoresBulk(ctx context.Context) (BulkResult, error) {
	var res BulkResult

	ids, err := s.abandonments.UserIDsWithHistory(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list users to score: %w", err)
	}
	res.Users = len(ids)

	computed := make([]entity.UserScore, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("scoring run cancelled: %w", err)
		}
		score, err := s.computeScore(ctx, id)
		if err != nil {
			res.Errored++
			slog.Error("Failed to score user", "user_id", id, "err", err)
			continue
		}
		computed = append(computed, score)
	}

	computedIDs := make([]string, len(computed))
	for i, sc := range computed {
		computedIDs[i] = sc.UserID
	}
	existing, err := s.scores.ExistingUserIDs(ctx, computedIDs)
	if err != nil {
		return res, fmt.Errorf("failed to partition score writes: %w", err)
	}

	var inserts, updates []entity.UserScore
	for _, sc := range computed {
		if existing[sc.UserID] {
			updates = append(updates, sc)
		} else {
			inserts = append(inserts, sc)
		}
	}

	res.Created = len(inserts) - s.writeBatch(ctx, inserts, s.scores.BulkInsert)
	res.Updated = len(updates) - s.writeBatch(ctx, updates, s.scores.BulkUpdate)
	res.Errored += (len(inserts) - res.Created) + (len(updates) - res.Updated)

	s.fillCache(ctx, computed)

	slog.Info("Bulk scoring finished", "users", res.Users, "created", res.Created, "updated", res.Updated, "errored", res.Errored)
	return res, nil
}

// writeBatch commits one partition, falling back to per-row upserts when the
// batched write fails so one bad row cannot discard the partition's progress.
// It returns the number of rows that could not be written.
func (s *Scorer) writeBatch(ctx context.Context, scores []entity.UserScore, batch func(context.Context, []entity.UserScore) error) int {
	if len(scores) == 0 {
		return 0
	}
	err := batch(ctx, scores)
	if err == nil {
		return 0
	}
	slog.Error("Batched score write failed, retrying per row", "rows", len(scores), "err", err)

	failed := 0
	for _, sc := range scores {
		if err := s.scores.Upsert(ctx, sc); err != nil {
			failed++
			slog.Error("Failed to write score", "user_id", sc.UserID, "err", err)
		}
	}
	return failed
}

func (s *Scorer) fillCache(ctx context.Context, scores []entity.UserScore) {
	if s.cache == nil {
		return
	}
	for _, sc := range scores {
		if err := s.cache.Set(ctx, sc); err != nil {
			slog.Error("Failed to cache score", "user_id", sc.UserID, "err", err)
		}
	}
}

// CalculateUserScore recomputes and persists one user's score, the ad-hoc
// diagnostics path.
func (s *Scorer) CalculateUserScore(ctx context.Context, userID string) (*entity.UserScore, error) {
	score, err := s.computeScore(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.scores.Upsert(ctx, score); err != nil {
		return nil, err
	}
	s.fillCache(ctx, []entity.UserScore{score})
	return &score, nil
}

// GetUserScore returns the persisted score with tiering applied on read,
// preferring the cache. Returns nil when the user has never been scored.
func (s *Scorer) GetUserScore(ctx context.Context, userID string) (*ScoreView, error) {
	var score *entity.UserScore
	var err error

	if s.cache != nil {
		score, err = s.cache.Get(ctx, userID)
		if err != nil {
			slog.Error("Score cache read failed", "user_id", userID, "err", err)
		}
	}
	if score == nil {
		score, err = s.scores.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		if score == nil {
			return nil, nil
		}
		s.fillCache(ctx, []entity.UserScore{*score})
	}

	discount, tier := scoring.Discount(score.CompositeScore)
	return &ScoreView{
		UserScore:       *score,
		Tier:            tier,
		Segment:         scoring.SegmentFor(score.CompositeScore),
		CurrentDiscount: discount,
	}, nil
}

// computeScore gathers the behavior snapshot and runs the engine. Components
// are rounded only here, at the persistence boundary; the composite is
// computed from the unrounded components.
func (s *Scorer) computeScore(ctx context.Context, userID string) (entity.UserScore, error) {
	behavior, err := s.abandonments.UserBehavior(ctx, userID)
	if err != nil {
		return entity.UserScore{}, err
	}
	behavior.ItemsAdded, behavior.ItemsSavedForLater, err = s.events.UserEventCounts(ctx, userID)
	if err != nil {
		return entity.UserScore{}, err
	}

	bd := s.engine.Score(behavior)
	discount, _ := scoring.Discount(bd.Composite)
	eligible := scoring.Eligible(bd.Composite)

	score := entity.UserScore{
		UserID:              userID,
		AbandonmentScore:    scoring.Round2(bd.Abandonment),
		ValueScore:          scoring.Round2(bd.Value),
		ConversionScore:     scoring.Round2(bd.Conversion),
		HesitationScore:     scoring.Round2(bd.Hesitation),
		CompositeScore:      scoring.Round2(bd.Composite),
		DiscountEligible:    eligible,
		RecommendedDiscount: discount,
		CalculatedAt:        time.Now(),
	}
	if eligible {
		code := newPromoCode()
		score.PromoCode = &code
	}
	return score, nil
}

func newPromoCode() string {
	return "CART-" + strings.ToUpper(uuid.NewString()[:8])
}
