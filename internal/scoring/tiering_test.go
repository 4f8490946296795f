package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscount(t *testing.T) {
	tests := []struct {
		composite    float64
		wantDiscount float64
		wantTier     DiscountTier
	}{
		{100, 10.00, TierPremium},
		{80, 10.00, TierPremium},
		{79.99, 7.50, TierGold},
		{60, 7.50, TierGold},
		{59.99, 5.00, TierSilver},
		{40, 5.00, TierSilver},
		{39.99, 0.00, TierStandard},
		{0, 0.00, TierStandard},
	}
	for _, tt := range tests {
		discount, tier := Discount(tt.composite)
		assert.Equal(t, tt.wantDiscount, discount, "composite %v", tt.composite)
		assert.Equal(t, tt.wantTier, tier, "composite %v", tt.composite)
	}
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible(80))
	assert.True(t, Eligible(40))
	assert.False(t, Eligible(39.99))
	assert.False(t, Eligible(0))
}

func TestSegmentFor(t *testing.T) {
	// Display buckets use different cut points than the discount tiers.
	assert.Equal(t, SegmentHighValue, SegmentFor(75))
	assert.Equal(t, SegmentMediumValue, SegmentFor(74.99))
	assert.Equal(t, SegmentMediumValue, SegmentFor(50))
	assert.Equal(t, SegmentLowValue, SegmentFor(49.99))
	assert.Equal(t, SegmentLowValue, SegmentFor(25))
	assert.Equal(t, SegmentAtRisk, SegmentFor(24.99))
}
