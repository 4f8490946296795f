package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/cart-insights/internal/entity"
)

func TestAnalyticsSummary(t *testing.T) {
	repo := newFakeAbandonmentRepo()
	repo.stats = entity.AbandonmentStats{Total: 8, Recovered: 2, Reminded: 5}
	a := NewAnalytics(newFakeScoreRepo(), repo)

	sum, err := a.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, sum.Abandonments.Total)
	assert.Equal(t, 25.0, sum.RecoveryRate)
}

func TestAnalyticsSummary_NoHistory(t *testing.T) {
	a := NewAnalytics(newFakeScoreRepo(), newFakeAbandonmentRepo())

	sum, err := a.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, sum.RecoveryRate)
}
