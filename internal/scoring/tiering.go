package scoring

// DiscountTier labels the discount bracket a composite score falls into.
type DiscountTier string

const (
	TierPremium  DiscountTier = "premium"
	TierGold     DiscountTier = "gold"
	TierSilver   DiscountTier = "silver"
	TierStandard DiscountTier = "standard"
)

// Discount maps a composite score to its recommended discount percentage and
// tier. Boundaries are inclusive on the lower tier edge.
func Discount(composite float64) (float64, DiscountTier) {
	switch {
	case composite >= 80:
		return 10.00, TierPremium
	case composite >= 60:
		return 7.50, TierGold
	case composite >= 40:
		return 5.00, TierSilver
	default:
		return 0.00, TierStandard
	}
}

// Eligible reports whether a composite score qualifies for any discount.
func Eligible(composite float64) bool {
	return composite >= 40
}

// Segment is the analytics display bucket for a composite score. It uses
// different cut points than the discount tiers and the two schemes stay
// separate.
type Segment string

const (
	SegmentHighValue   Segment = "high_value"
	SegmentMediumValue Segment = "medium_value"
	SegmentLowValue    Segment = "low_value"
	SegmentAtRisk      Segment = "at_risk"
)

// SegmentFor buckets a composite score for dashboards and summaries.
func SegmentFor(composite float64) Segment {
	switch {
	case composite >= 75:
		return SegmentHighValue
	case composite >= 50:
		return SegmentMediumValue
	case composite >= 25:
		return SegmentLowValue
	default:
		return SegmentAtRisk
	}
}
