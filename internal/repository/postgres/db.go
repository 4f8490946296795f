package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

func migrateDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS carts (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			session_id TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			CHECK ((user_id IS NULL) != (session_id IS NULL))
		);

		CREATE TABLE IF NOT EXISTS cart_items (
			id TEXT PRIMARY KEY,
			cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL,
			quantity INT NOT NULL DEFAULT 1 CHECK (quantity >= 1),
			price_at_addition DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (cart_id, product_id)
		);

		CREATE TABLE IF NOT EXISTS cart_events (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			cart_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS cart_abandonments (
			id TEXT PRIMARY KEY,
			cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
			user_id TEXT,
			items_count INT NOT NULL DEFAULT 0,
			total_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			recovered BOOLEAN NOT NULL DEFAULT FALSE,
			reminder_sent BOOLEAN NOT NULL DEFAULT FALSE,
			reminder_sent_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS user_scores (
			user_id TEXT PRIMARY KEY,
			abandonment_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			value_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			conversion_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			hesitation_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			composite_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			discount_eligible BOOLEAN NOT NULL DEFAULT FALSE,
			recommended_discount DOUBLE PRECISION NOT NULL DEFAULT 0,
			promo_code TEXT,
			calculated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_carts_updated_at ON carts (updated_at);
		CREATE INDEX IF NOT EXISTS idx_cart_events_user ON cart_events (user_id, event_type);
		CREATE INDEX IF NOT EXISTS idx_abandonments_cart ON cart_abandonments (cart_id, recovered);
		CREATE INDEX IF NOT EXISTS idx_abandonments_reminder ON cart_abandonments (reminder_sent, recovered, created_at);
	`)
	return err
}
