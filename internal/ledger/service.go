// Package ledger validates transaction requests, enforces the editability
// gate and forwards accepted requests to the persistence boundary.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cleared-dev/tally/internal/events"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Service provides the ledger operations.
type Service struct {
	store store.Store
	pub   events.Publisher
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a ledger Service. A nil publisher or logger is replaced
// by a no-op publisher and slog.Default.
func NewService(st store.Store, pub events.Publisher, log *slog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: st, pub: pub, log: log, now: time.Now}
}

// Categories returns the category set for a transaction type.
func Categories(typ model.TransactionType) []string {
	return model.Categories(typ)
}

// CreateTransaction validates in and saves it. Balances are left to the
// store.
func (s *Service) CreateTransaction(ctx context.Context, in Input) (model.Transaction, error) {
	d := Normalize(in.Type, in.Details)
	if err := Validate(in.Type, d); err != nil {
		return model.Transaction{}, err
	}

	tx, err := model.New(in.Type, d)
	if err != nil {
		return model.Transaction{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return model.Transaction{}, model.Boundary("creating transaction", err)
	}

	s.log.InfoContext(ctx, "transaction created",
		"id", saved.ID,
		"type", saved.Type(),
		"amount", saved.Amount.String(),
		"category", saved.Category,
		"from", saved.FromAccount,
		"to", saved.ToAccount)
	s.publish(ctx, events.TransactionCreated, saved)
	return saved, nil
}

// UpdateTransaction replaces every editable field of transaction id with
// patch. The type never changes.
func (s *Service) UpdateTransaction(ctx context.Context, id string, patch model.Details) (model.Transaction, error) {
	existing, err := s.editable(ctx, id)
	if err != nil {
		return model.Transaction{}, err
	}

	d := Normalize(existing.Type(), patch)
	if err := Validate(existing.Type(), d); err != nil {
		return model.Transaction{}, err
	}

	saved, err := s.store.UpdateTransaction(ctx, existing.WithDetails(d))
	if err != nil {
		return model.Transaction{}, model.Boundary("updating transaction", err)
	}

	s.log.InfoContext(ctx, "transaction updated", "id", saved.ID, "type", saved.Type(), "amount", saved.Amount.String())
	s.publish(ctx, events.TransactionUpdated, saved)
	return saved, nil
}

// DeleteTransaction removes transaction id.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	existing, err := s.editable(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return model.Boundary("deleting transaction", err)
	}

	s.log.InfoContext(ctx, "transaction deleted", "id", id)
	s.publish(ctx, events.TransactionDeleted, existing)
	return nil
}

// GetTransaction returns transaction id.
func (s *Service) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return model.Transaction{}, model.Boundary("getting transaction", err)
	}
	return tx, nil
}

// ListTransactions returns the full ledger snapshot.
func (s *Service) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	txns, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, model.Boundary("listing transactions", err)
	}
	return txns, nil
}

// ListTransactionsInRange returns transactions dated within [start, end].
// An inverted range is empty and never reaches the store.
func (s *Service) ListTransactionsInRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	if start.After(end) {
		return nil, nil
	}
	txns, err := s.store.ListTransactionsInRange(ctx, start, end)
	if err != nil {
		return nil, model.Boundary("listing transactions in range", err)
	}
	return txns, nil
}

// editable loads transaction id and rejects it when it is not editable.
func (s *Service) editable(ctx context.Context, id string) (model.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return model.Transaction{}, model.Boundary("getting transaction", err)
	}
	if !existing.Editable {
		return model.Transaction{}, &model.PermissionError{ID: id}
	}
	return existing, nil
}

func (s *Service) publish(ctx context.Context, kind events.Kind, tx model.Transaction) {
	details := fmt.Sprintf("%s %s", tx.Type(), tx.Amount.StringFixed(2))
	if tx.Category != "" {
		details += " " + tx.Category
	}
	err := s.pub.Publish(ctx, events.Event{Kind: kind, EntityID: tx.ID, Details: details, At: s.now()})
	if err != nil {
		s.log.WarnContext(ctx, "publishing transaction event failed", "kind", kind, "id", tx.ID, "error", err)
	}
}
