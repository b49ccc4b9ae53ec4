package accounts

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// DefaultAccounts returns the accounts a new data directory starts with.
func DefaultAccounts() []model.Account {
	return []model.Account{
		{Name: "Cash", Type: model.AccountTypeCash, Balance: decimal.Zero},
	}
}
