package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/cart-insights/internal/entity"
)

func strPtr(s string) *string { return &s }

func staleCart(cartID, userID string) entity.AbandonmentCandidate {
	return entity.AbandonmentCandidate{
		CartID:     cartID,
		UserID:     strPtr(userID),
		ItemsCount: 2,
		TotalValue: 7500,
		UpdatedAt:  time.Now().Add(-30 * time.Hour),
	}
}

func TestDetectAbandonedCarts(t *testing.T) {
	carts := &fakeCartRepo{stale: []entity.AbandonmentCandidate{
		staleCart("c1", "u1"),
		staleCart("c2", "u2"),
	}}
	repo := newFakeAbandonmentRepo()
	d := NewDetector(carts, repo, 24*time.Hour)

	res, err := d.DetectAbandonedCarts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 0, res.Failed)
	assert.Len(t, repo.created, 2)
}

func TestDetectAbandonedCarts_Idempotent(t *testing.T) {
	carts := &fakeCartRepo{stale: []entity.AbandonmentCandidate{staleCart("c1", "u1")}}
	repo := newFakeAbandonmentRepo()
	d := NewDetector(carts, repo, 24*time.Hour)

	first, err := d.DetectAbandonedCarts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	// Same data, immediate re-run: the open episode suppresses a duplicate.
	second, err := d.DetectAbandonedCarts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, repo.created, 1)
}

func TestDetectAbandonedCarts_OneFailureDoesNotAbortSweep(t *testing.T) {
	carts := &fakeCartRepo{stale: []entity.AbandonmentCandidate{
		staleCart("c1", "u1"),
		staleCart("c2", "u2"),
		staleCart("c3", "u3"),
	}}
	repo := newFakeAbandonmentRepo()
	repo.failCarts["c2"] = true
	d := NewDetector(carts, repo, 24*time.Hour)

	res, err := d.DetectAbandonedCarts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Failed)
}

func TestDetectAbandonedCarts_QueryErrorSurfaces(t *testing.T) {
	carts := &fakeCartRepo{staleErr: context.DeadlineExceeded}
	d := NewDetector(carts, newFakeAbandonmentRepo(), 24*time.Hour)

	_, err := d.DetectAbandonedCarts(context.Background())
	assert.Error(t, err)
}
