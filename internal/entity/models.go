package entity

import (
	"time"
)

// Cart represents a shopping cart owned by either a registered user or a guest
// session, never both.
type Cart struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	SessionID *string   `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"` // the abandonment clock
}

// CartItem is a line item within a cart. Price is captured at the moment of
// addition and never re-read from the catalog.
type CartItem struct {
	ID              string    `json:"id"`
	CartID          string    `json:"cart_id"`
	ProductID       string    `json:"product_id"`
	Quantity        int       `json:"quantity"`
	PriceAtAddition float64   `json:"price_at_addition"`
	CreatedAt       time.Time `json:"created_at"`
}

// Abandonment records one abandonment episode for a cart, with an item count
// and value snapshot taken at detection time.
type Abandonment struct {
	ID             string     `json:"id"`
	CartID         string     `json:"cart_id"`
	UserID         *string    `json:"user_id,omitempty"`
	ItemsCount     int        `json:"items_count"`
	TotalValue     float64    `json:"total_value"`
	Recovered      bool       `json:"recovered"`
	ReminderSent   bool       `json:"reminder_sent"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AbandonmentCandidate is a stale cart selected by the detector sweep, carrying
// the snapshot fields the episode record needs.
type AbandonmentCandidate struct {
	CartID     string
	UserID     *string
	ItemsCount int
	TotalValue float64
	UpdatedAt  time.Time
}

// UserBehavior is the per-user input snapshot the scoring engine works from.
// Zero values mean "no history" and map to the neutral defaults.
type UserBehavior struct {
	UserID             string
	TotalCarts         int     // distinct carts that hold at least one item
	AbandonedCarts     int     // abandonment episodes recorded for the user
	RecoveredCarts     int     // episodes later marked recovered
	AvgAbandonedValue  float64 // mean total_value across episodes
	AvgHoursToAbandon  float64 // mean hours between cart creation and detection
	ItemsAdded         int     // item_added events logged
	ItemsSavedForLater int     // item_saved_for_later events logged
}

// UserScore is the persisted scoring result, one row per user, overwritten on
// every recompute.
type UserScore struct {
	UserID              string    `json:"user_id"`
	AbandonmentScore    float64   `json:"abandonment_score"`
	ValueScore          float64   `json:"value_score"`
	ConversionScore     float64   `json:"conversion_score"`
	HesitationScore     float64   `json:"hesitation_score"`
	CompositeScore      float64   `json:"composite_score"`
	DiscountEligible    bool      `json:"discount_eligible"`
	RecommendedDiscount float64   `json:"recommended_discount"`
	PromoCode           *string   `json:"promo_code,omitempty"`
	CalculatedAt        time.Time `json:"calculated_at"`
}

// ScoreAverages aggregates the user_scores table for the diagnostics summary.
type ScoreAverages struct {
	Users          int     `json:"users"`
	AvgComposite   float64 `json:"avg_composite"`
	AvgAbandonment float64 `json:"avg_abandonment"`
	AvgValue       float64 `json:"avg_value"`
	AvgConversion  float64 `json:"avg_conversion"`
	AvgHesitation  float64 `json:"avg_hesitation"`
	Eligible       int     `json:"eligible"`
}

// AbandonmentStats aggregates the cart_abandonments table.
type AbandonmentStats struct {
	Total     int `json:"total"`
	Recovered int `json:"recovered"`
	Reminded  int `json:"reminded"`
}
