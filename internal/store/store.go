// Package store defines the persistence boundary the ledger engine talks to.
//
// Implementations own account balances: they apply each transaction's
// model.Transaction.Effects when it is created, swap old effects for new ones
// on update, and reverse them on delete. Unknown ids are reported as
// *model.NotFoundError and duplicate account names as *model.ValidationError;
// every other error is opaque to callers.
package store

import (
	"context"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// Store is the persistence boundary.
type Store interface {
	// CreateAccount assigns an ID and saves the account.
	CreateAccount(ctx context.Context, a model.Account) (model.Account, error)
	// ListAccounts returns every live account ordered by ID.
	ListAccounts(ctx context.Context) ([]model.Account, error)
	GetAccountByName(ctx context.Context, name string) (model.Account, error)
	DeleteAccount(ctx context.Context, id int) error

	// CreateTransaction assigns an ID and timestamps, marks the transaction
	// editable, saves it and applies its balance effects.
	CreateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (model.Transaction, error)
	// UpdateTransaction replaces the stored transaction with the same ID.
	UpdateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	// ListTransactions returns every transaction. Order carries no meaning.
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	// ListTransactionsInRange returns transactions dated within
	// [start, end], both inclusive.
	ListTransactionsInRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error)

	Close() error
}

// AccountNotFound builds the not-found error for an account id.
func AccountNotFound(id string) error {
	return &model.NotFoundError{Kind: "account", ID: id}
}

// TransactionNotFound builds the not-found error for a transaction id.
func TransactionNotFound(id string) error {
	return &model.NotFoundError{Kind: "transaction", ID: id}
}

// DuplicateAccount builds the error for a second live account with name.
func DuplicateAccount(name string) error {
	return &model.ValidationError{Field: "accountName", Reason: "an account named \"" + name + "\" already exists"}
}

// InRange reports whether t lies within [start, end].
func InRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
