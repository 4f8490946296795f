// Package service holds the batch entry points: abandonment detection,
// reminder dispatch, bulk scoring, event ingestion, and the diagnostics
// summary.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/egannguyen/cart-insights/internal/repository"
)

// Detector sweeps for carts untouched past the threshold and records one
// abandonment episode per cart per window.
type Detector struct {
	carts        repository.CartRepository
	abandonments repository.AbandonmentRepository
	threshold    time.Duration
}

func NewDetector(carts repository.CartRepository, abandonments repository.AbandonmentRepository, threshold time.Duration) *Detector {
	return &Detector{carts: carts, abandonments: abandonments, threshold: threshold}
}

// DetectResult summarizes one detector sweep.
type DetectResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (r DetectResult) String() string {
	return fmt.Sprintf("abandonment sweep: %d created, %d skipped, %d failed", r.Created, r.Skipped, r.Failed)
}

// DetectAbandonedCarts flags every stale cart holding at least one item.
// Each episode is created in its own transaction; one cart failing never
// aborts the sweep. Idempotent: an open episode suppresses re-flagging.
func (d *Detector) DetectAbandonedCarts(ctx context.Context) (DetectResult, error) {
	var res DetectResult

	cutoff := time.Now().Add(-d.threshold)
	candidates, err := d.carts.FindStale(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("failed to find stale carts: %w", err)
	}

	for _, cand := range candidates {
		created, err := d.abandonments.CreateEpisode(ctx, cand)
		if err != nil {
			res.Failed++
			slog.Error("Failed to record abandonment", "cart_id", cand.CartID, "err", err)
			continue
		}
		if !created {
			res.Skipped++
			continue
		}
		res.Created++
		slog.Info("Cart abandonment recorded", "cart_id", cand.CartID, "items", cand.ItemsCount, "value", cand.TotalValue)
	}

	return res, nil
}
