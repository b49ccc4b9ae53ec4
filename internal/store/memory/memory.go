// Package memory is an in-process store.Store.
package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Store keeps accounts and transactions in memory.
type Store struct {
	mu           sync.Mutex
	accounts     []model.Account
	transactions []model.Transaction
	nextAccount  int
	seqs         id.Sequences
	now          func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{nextAccount: 1, seqs: id.Sequences{}, now: time.Now}
}

// Seed inserts accounts and transactions as-is, without applying balance
// effects. It stands in for data produced by another system, such as
// transactions that arrive already marked non-editable.
func (s *Store) Seed(accounts []model.Account, txns []model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		s.accounts = append(s.accounts, a)
		if a.ID >= s.nextAccount {
			s.nextAccount = a.ID + 1
		}
	}
	s.transactions = append(s.transactions, txns...)
}

func (s *Store) CreateAccount(_ context.Context, a model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Name == a.Name {
			return model.Account{}, store.DuplicateAccount(a.Name)
		}
	}
	a.ID = s.nextAccount
	s.nextAccount++
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.accounts)
	slices.SortFunc(out, func(a, b model.Account) int { return a.ID - b.ID })
	return out, nil
}

func (s *Store) GetAccountByName(_ context.Context, name string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Name == name {
			return a, nil
		}
	}
	return model.Account{}, store.AccountNotFound(name)
}

func (s *Store) DeleteAccount(_ context.Context, accountID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.accounts {
		if a.ID == accountID {
			s.accounts = slices.Delete(s.accounts, i, i+1)
			return nil
		}
	}
	return store.AccountNotFound(strconv.Itoa(accountID))
}

func (s *Store) CreateTransaction(_ context.Context, tx model.Transaction) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.transactions))
	for i, t := range s.transactions {
		ids[i] = t.ID
	}
	now := s.now()
	tx.ID = s.seqs.Mint(tx.Date, ids)
	tx.Editable = true
	tx.CreatedAt = now
	tx.UpdatedAt = now

	s.transactions = append(s.transactions, tx)
	model.ApplyEffects(s.accounts, tx.Effects())
	return tx, nil
}

func (s *Store) GetTransaction(_ context.Context, txID string) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(txID)
	if i < 0 {
		return model.Transaction{}, store.TransactionNotFound(txID)
	}
	return s.transactions[i], nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx model.Transaction) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(tx.ID)
	if i < 0 {
		return model.Transaction{}, store.TransactionNotFound(tx.ID)
	}
	old := s.transactions[i]
	updated := old.WithDetails(tx.Details())
	updated.UpdatedAt = s.now()

	model.ApplyEffects(s.accounts, model.Reverse(old.Effects()))
	model.ApplyEffects(s.accounts, updated.Effects())
	s.transactions[i] = updated
	return updated, nil
}

func (s *Store) DeleteTransaction(_ context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(txID)
	if i < 0 {
		return store.TransactionNotFound(txID)
	}
	model.ApplyEffects(s.accounts, model.Reverse(s.transactions[i].Effects()))
	s.transactions = slices.Delete(s.transactions, i, i+1)
	return nil
}

func (s *Store) ListTransactions(_ context.Context) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transactions), nil
}

func (s *Store) ListTransactionsInRange(_ context.Context, start, end time.Time) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Transaction
	for _, t := range s.transactions {
		if store.InRange(t.Date, start, end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(txID string) int {
	for i, t := range s.transactions {
		if t.ID == txID {
			return i
		}
	}
	return -1
}
