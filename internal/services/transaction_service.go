package services

import (
	"context"
	"log/slog"

	"ledger/internal/core"
	"ledger/internal/events"
	"ledger/internal/ledger"
)

// EventPublisher is the outbound announcement port. A nil publisher is
// valid; mutations then stay local.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, evt *events.TransactionEvent) error
}

// TransactionService orchestrates transaction mutations across the local
// store and the event queue.
type TransactionService struct {
	store     *ledger.Store
	publisher EventPublisher
}

func NewTransactionService(store *ledger.Store, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// Add records a transaction locally and announces it. The local write is
// authoritative; a publish failure is logged and the call still succeeds.
func (s *TransactionService) Add(ctx context.Context, txn core.Transaction) (core.Transaction, error) {
	saved, err := s.store.AddTransaction(ctx, txn)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.publish(ctx, events.NewAddEvent(saved)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish add event",
			"transaction_id", saved.ID, "error", err)
	}

	return saved, nil
}

// Remove deletes a transaction locally and announces it. Removing an
// unknown id succeeds without announcing anything.
func (s *TransactionService) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := s.store.RemoveTransaction(ctx, id)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	if err := s.publish(ctx, events.NewRemoveEvent(id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish remove event",
			"transaction_id", id, "error", err)
	}

	return true, nil
}

func (s *TransactionService) publish(ctx context.Context, evt *events.TransactionEvent) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping announcement")
		return nil
	}
	return s.publisher.PublishTransaction(ctx, evt)
}
