package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/egannguyen/cart-insights/internal/entity"
	"github.com/egannguyen/cart-insights/internal/repository"
)

// Ingestor consumes cart mutation events from the storefront, appends them to
// the immutable event log, and folds them into the cart state mirror.
type Ingestor struct {
	events repository.EventLog
	carts  repository.CartRepository
}

func NewIngestor(events repository.EventLog, carts repository.CartRepository) *Ingestor {
	return &Ingestor{events: events, carts: carts}
}

// HandleMessage processes one event envelope from the cart events topic.
func (i *Ingestor) HandleMessage(ctx context.Context, payload []byte) error {
	var env entity.EventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("failed to unmarshal cart event envelope: %w", err)
	}

	event, err := env.DecodeEvent()
	if err != nil {
		return fmt.Errorf("failed to decode cart event: %w", err)
	}

	rec := entity.EventRecord{
		UserID:    env.UserID,
		CartID:    env.CartID,
		EventType: env.EventType,
		Payload:   env.Data,
		CreatedAt: time.Now(),
	}
	if err := i.events.Append(ctx, rec); err != nil {
		return fmt.Errorf("failed to log cart event: %w", err)
	}

	if err := i.carts.ApplyEvent(ctx, env.UserID, env.SessionID, event); err != nil {
		return fmt.Errorf("failed to apply cart event: %w", err)
	}

	slog.Debug("Ingested cart event", "cart_id", env.CartID, "event_type", env.EventType)
	return nil
}
