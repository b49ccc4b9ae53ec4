package model

import "github.com/shopspring/decimal"

// AccountType classifies where money is held.
type AccountType string

const (
	AccountTypeCash       AccountType = "CASH"
	AccountTypeBank       AccountType = "BANK"
	AccountTypeCreditCard AccountType = "CREDIT_CARD"
	AccountTypeWallet     AccountType = "WALLET"
)

// AccountTypes returns every account type in display order.
func AccountTypes() []AccountType {
	return []AccountType{AccountTypeCash, AccountTypeBank, AccountTypeCreditCard, AccountTypeWallet}
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCash, AccountTypeBank, AccountTypeCreditCard, AccountTypeWallet:
		return true
	}
	return false
}

// Account is a named place money is held. Transactions refer to accounts by
// Name, never by ID, so a deleted account leaves dangling names behind.
type Account struct {
	ID      int
	Name    string
	Type    AccountType
	Balance decimal.Decimal
}
