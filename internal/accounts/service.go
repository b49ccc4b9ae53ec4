// Package accounts is the account store front: it validates account requests
// before they reach the persistence boundary.
package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/events"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Service validates and forwards account operations.
type Service struct {
	store store.Store
	pub   events.Publisher
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a Service. A nil publisher or logger is replaced by a
// no-op publisher and slog.Default.
func NewService(st store.Store, pub events.Publisher, log *slog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: st, pub: pub, log: log, now: time.Now}
}

// ParseBalance parses a user-entered initial balance.
func ParseBalance(s string) (decimal.Decimal, error) {
	return model.ParseDecimal("initialBalance", s)
}

// Validate checks the fields of a new account.
func Validate(name string, accountType model.AccountType) error {
	if strings.TrimSpace(name) == "" {
		return &model.ValidationError{Field: "accountName", Reason: "must not be empty"}
	}
	if !accountType.Valid() {
		return &model.ValidationError{Field: "accountType", Reason: fmt.Sprintf("unknown account type %q; want one of %s", accountType, model.Names(model.AccountTypes()))}
	}
	return nil
}

// CreateAccount validates and saves a new account whose balance starts at
// initialBalance. Names must be unique among live accounts.
func (s *Service) CreateAccount(ctx context.Context, name string, initialBalance decimal.Decimal, accountType model.AccountType) (model.Account, error) {
	name = strings.TrimSpace(name)
	if err := Validate(name, accountType); err != nil {
		return model.Account{}, err
	}

	existing, err := s.store.ListAccounts(ctx)
	if err != nil {
		return model.Account{}, model.Boundary("listing accounts", err)
	}
	for _, a := range existing {
		if a.Name == name {
			return model.Account{}, store.DuplicateAccount(name)
		}
	}

	acct, err := s.store.CreateAccount(ctx, model.Account{Name: name, Type: accountType, Balance: initialBalance})
	if err != nil {
		return model.Account{}, model.Boundary("creating account", err)
	}

	s.log.InfoContext(ctx, "account created", "id", acct.ID, "name", acct.Name, "type", acct.Type, "balance", acct.Balance.String())
	s.publish(ctx, events.AccountCreated, strconv.Itoa(acct.ID), fmt.Sprintf("%s %s %s", acct.Name, acct.Type, acct.Balance.StringFixed(2)))
	return acct, nil
}

// ListAccounts returns every live account.
func (s *Service) ListAccounts(ctx context.Context) ([]model.Account, error) {
	accts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, model.Boundary("listing accounts", err)
	}
	return accts, nil
}

// GetAccountByName looks an account up by its unique name.
func (s *Service) GetAccountByName(ctx context.Context, name string) (model.Account, error) {
	acct, err := s.store.GetAccountByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return model.Account{}, model.Boundary("getting account", err)
	}
	return acct, nil
}

// DeleteAccount removes an account. Transactions naming it are left alone.
func (s *Service) DeleteAccount(ctx context.Context, id int) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return model.Boundary("deleting account", err)
	}
	s.log.InfoContext(ctx, "account deleted", "id", id)
	s.publish(ctx, events.AccountDeleted, strconv.Itoa(id), "")
	return nil
}

// TotalBalance sums the balance of every live account.
func (s *Service) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	accts, err := s.ListAccounts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return TotalBalance(accts), nil
}

// TotalBalance sums the balances of accts.
func TotalBalance(accts []model.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accts {
		total = total.Add(a.Balance)
	}
	return total
}

func (s *Service) publish(ctx context.Context, kind events.Kind, entityID, details string) {
	err := s.pub.Publish(ctx, events.Event{Kind: kind, EntityID: entityID, Details: details, At: s.now()})
	if err != nil {
		s.log.WarnContext(ctx, "publishing account event failed", "kind", kind, "id", entityID, "error", err)
	}
}
