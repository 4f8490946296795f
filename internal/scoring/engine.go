// Package scoring computes multi-factor engagement scores from cart behavior.
package scoring

import (
	"math"

	"github.com/egannguyen/cart-insights/internal/entity"
)

// Weights defines the relative importance of each scoring component. Values
// are percentages and sum to 100.
type Weights struct {
	Abandonment      float64 `yaml:"abandonment"`
	Value            float64 `yaml:"value"`
	Conversion       float64 `yaml:"conversion"`
	Hesitation       float64 `yaml:"hesitation"`
	PriceSensitivity float64 `yaml:"price_sensitivity"`
}

// DefaultWeights returns the default component weights.
func DefaultWeights() Weights {
	return Weights{
		Abandonment:      30,
		Value:            25,
		Conversion:       20,
		Hesitation:       15,
		PriceSensitivity: 10,
	}
}

// Benchmarks holds the monetary anchors the value-based components interpolate
// between.
type Benchmarks struct {
	LowCartValue          float64 `yaml:"low_cart_value"`          // maps to value score 20
	HighCartValue         float64 `yaml:"high_cart_value"`         // maps to value score 100
	PriceSensitivityValue float64 `yaml:"price_sensitivity_value"` // at or above maps to 80
}

// DefaultBenchmarks returns the default monetary anchors.
func DefaultBenchmarks() Benchmarks {
	return Benchmarks{
		LowCartValue:          5000,
		HighCartValue:         50000,
		PriceSensitivityValue: 30000,
	}
}

// neutralScore is used whenever a component has no history to work from.
const neutralScore = 50

// Breakdown holds the per-component scores and the weighted composite, all in
// [0,100]. Components are unrounded; rounding happens at the persistence and
// presentation boundaries only, so the composite never accumulates rounding
// drift.
type Breakdown struct {
	Abandonment      float64 `json:"abandonment"`
	Value            float64 `json:"value"`
	Conversion       float64 `json:"conversion"`
	Hesitation       float64 `json:"hesitation"`
	PriceSensitivity float64 `json:"price_sensitivity"`
	Composite        float64 `json:"composite"`
}

// Engine computes scores with a fixed set of weights and benchmarks.
type Engine struct {
	weights    Weights
	benchmarks Benchmarks
}

// NewEngine creates a scoring engine. Zero-value weights or benchmarks fall
// back to the defaults.
func NewEngine(w Weights, b Benchmarks) *Engine {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	if b == (Benchmarks{}) {
		b = DefaultBenchmarks()
	}
	return &Engine{weights: w, benchmarks: b}
}

// Score computes all five component scores and the weighted composite for one
// user's behavior snapshot. Deterministic for identical input.
func (e *Engine) Score(b entity.UserBehavior) Breakdown {
	bd := Breakdown{
		Abandonment:      e.abandonmentScore(b),
		Value:            e.valueScore(b),
		Conversion:       e.conversionScore(b),
		Hesitation:       e.hesitationScore(b),
		PriceSensitivity: e.priceSensitivityScore(b),
	}

	composite := bd.Abandonment*e.weights.Abandonment/100 +
		bd.Value*e.weights.Value/100 +
		bd.Conversion*e.weights.Conversion/100 +
		bd.Hesitation*e.weights.Hesitation/100 +
		bd.PriceSensitivity*e.weights.PriceSensitivity/100

	bd.Composite = clamp(composite)
	return bd
}

// abandonmentScore rewards users who rarely abandon carts. The episode count
// can exceed the cart count when a cart is re-abandoned after being modified,
// so the result must clamp at 0 rather than error.
func (e *Engine) abandonmentScore(b entity.UserBehavior) float64 {
	if b.TotalCarts == 0 {
		return neutralScore
	}
	if b.AbandonedCarts == 0 {
		return 100
	}
	ratio := float64(b.AbandonedCarts) / float64(b.TotalCarts)
	return clamp(100 - ratio*100)
}

// valueScore maps the average abandoned cart value onto [20,100] between the
// low and high benchmarks.
func (e *Engine) valueScore(b entity.UserBehavior) float64 {
	if b.AbandonedCarts == 0 {
		return neutralScore
	}
	switch {
	case b.AvgAbandonedValue <= e.benchmarks.LowCartValue:
		return 20
	case b.AvgAbandonedValue >= e.benchmarks.HighCartValue:
		return 100
	default:
		return lerp(b.AvgAbandonedValue, e.benchmarks.LowCartValue, e.benchmarks.HighCartValue, 20, 100)
	}
}

// conversionScore is the recovery rate of the user's abandonment episodes.
func (e *Engine) conversionScore(b entity.UserBehavior) float64 {
	if b.AbandonedCarts == 0 {
		return neutralScore
	}
	return clamp(float64(b.RecoveredCarts) / float64(b.AbandonedCarts) * 100)
}

// hesitationScore blends time-to-abandon speed (70%) with save-for-later
// frequency (30%).
func (e *Engine) hesitationScore(b entity.UserBehavior) float64 {
	timeSub := e.timeToAbandonScore(b)
	saveSub := e.saveRatioScore(b)
	return clamp(timeSub*0.7 + saveSub*0.3)
}

// timeToAbandonScore treats a fast abandon (<=1h) as 100 and a slow one
// (>=48h) as 20, interpolating in between.
func (e *Engine) timeToAbandonScore(b entity.UserBehavior) float64 {
	if b.AbandonedCarts == 0 {
		return neutralScore
	}
	switch {
	case b.AvgHoursToAbandon <= 1:
		return 100
	case b.AvgHoursToAbandon >= 48:
		return 20
	default:
		return lerp(b.AvgHoursToAbandon, 1, 48, 100, 20)
	}
}

// saveRatioScore penalizes parking items on the saved list instead of buying.
func (e *Engine) saveRatioScore(b entity.UserBehavior) float64 {
	if b.ItemsAdded == 0 {
		return neutralScore
	}
	ratio := float64(b.ItemsSavedForLater) / float64(b.ItemsAdded)
	return clamp(100 - ratio*100)
}

// priceSensitivityScore compares the average abandoned value to a single
// benchmark: at or above scores 80, below scales linearly from 50 toward 80.
func (e *Engine) priceSensitivityScore(b entity.UserBehavior) float64 {
	if b.AbandonedCarts == 0 {
		return neutralScore
	}
	if b.AvgAbandonedValue >= e.benchmarks.PriceSensitivityValue {
		return 80
	}
	return clamp(50 + b.AvgAbandonedValue/e.benchmarks.PriceSensitivityValue*30)
}

// lerp maps x from [x0,x1] onto [y0,y1] linearly.
func lerp(x, x0, x1, y0, y1 float64) float64 {
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}

func clamp(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// Round2 rounds a score to two decimals. Applied only when a score crosses a
// persistence or presentation boundary.
func Round2(s float64) float64 {
	return math.Round(s*100) / 100
}
