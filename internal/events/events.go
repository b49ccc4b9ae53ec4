// Package events announces ledger mutations to interested parties after they
// have been persisted.
package events

import (
	"context"
	"errors"
	"time"
)

// Kind names what happened.
type Kind string

const (
	AccountCreated     Kind = "account.created"
	AccountDeleted     Kind = "account.deleted"
	TransactionCreated Kind = "transaction.created"
	TransactionUpdated Kind = "transaction.updated"
	TransactionDeleted Kind = "transaction.deleted"
)

// Event describes one completed mutation.
type Event struct {
	Kind     Kind      `json:"kind"`
	EntityID string    `json:"entity_id"`
	Details  string    `json:"details"`
	At       time.Time `json:"at"`
}

// Publisher receives events. Publishing happens after the mutation is
// committed, so a failure here never rolls anything back.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Func adapts a function to a Publisher.
type Func func(ctx context.Context, e Event) error

func (f Func) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
