package storetest

import (
	"context"
	"time"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Broken returns a store whose every call fails with err, standing in for an
// unreachable persistence service.
func Broken(err error) store.Store {
	return brokenStore{err: err}
}

type brokenStore struct{ err error }

func (b brokenStore) CreateAccount(context.Context, model.Account) (model.Account, error) {
	return model.Account{}, b.err
}

func (b brokenStore) ListAccounts(context.Context) ([]model.Account, error) { return nil, b.err }

func (b brokenStore) GetAccountByName(context.Context, string) (model.Account, error) {
	return model.Account{}, b.err
}

func (b brokenStore) DeleteAccount(context.Context, int) error { return b.err }

func (b brokenStore) CreateTransaction(context.Context, model.Transaction) (model.Transaction, error) {
	return model.Transaction{}, b.err
}

func (b brokenStore) GetTransaction(context.Context, string) (model.Transaction, error) {
	return model.Transaction{}, b.err
}

func (b brokenStore) UpdateTransaction(context.Context, model.Transaction) (model.Transaction, error) {
	return model.Transaction{}, b.err
}

func (b brokenStore) DeleteTransaction(context.Context, string) error { return b.err }

func (b brokenStore) ListTransactions(context.Context) ([]model.Transaction, error) {
	return nil, b.err
}

func (b brokenStore) ListTransactionsInRange(context.Context, time.Time, time.Time) ([]model.Transaction, error) {
	return nil, b.err
}

func (b brokenStore) Close() error { return nil }
