package service

import (
	"context"
	"fmt"

	"github.com/egannguyen/cart-insights/internal/entity"
	"github.com/egannguyen/cart-insights/internal/repository"
)

// Analytics produces the read-only diagnostics summary over scores and
// abandonment history.
type Analytics struct {
	scores       repository.ScoreRepository
	abandonments repository.AbandonmentRepository
}

func NewAnalytics(scores repository.ScoreRepository, abandonments repository.AbandonmentRepository) *Analytics {
	return &Analytics{scores: scores, abandonments: abandonments}
}

// Summary is the diagnostics dump: score averages, segment distribution, and
// abandonment/recovery rates.
type Summary struct {
	Scores       entity.ScoreAverages    `json:"scores"`
	Segments     map[string]int          `json:"segments"`
	Abandonments entity.AbandonmentStats `json:"abandonments"`
	RecoveryRate float64                 `json:"recovery_rate"`
}

// Summary gathers the aggregates. Readers tolerate in-flight scoring runs; no
// consistent snapshot is taken across the tables.
func (a *Analytics) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	var err error

	sum.Scores, err = a.scores.Averages(ctx)
	if err != nil {
		return sum, fmt.Errorf("failed to load score averages: %w", err)
	}
	sum.Segments, err = a.scores.SegmentCounts(ctx)
	if err != nil {
		return sum, fmt.Errorf("failed to load segment counts: %w", err)
	}
	sum.Abandonments, err = a.abandonments.Stats(ctx)
	if err != nil {
		return sum, fmt.Errorf("failed to load abandonment stats: %w", err)
	}
	if sum.Abandonments.Total > 0 {
		sum.RecoveryRate = float64(sum.Abandonments.Recovered) / float64(sum.Abandonments.Total) * 100
	}
	return sum, nil
}
