package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of financial event. It is fixed when a
// Transaction is constructed.
type TransactionType string

const (
	TypeIncome   TransactionType = "INCOME"
	TypeExpense  TransactionType = "EXPENSE"
	TypeTransfer TransactionType = "TRANSFER"
)

// TransactionTypes returns every transaction type in display order.
func TransactionTypes() []TransactionType {
	return []TransactionType{TypeIncome, TypeExpense, TypeTransfer}
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// Division separates office from personal money, orthogonal to category.
type Division string

const (
	DivisionOffice   Division = "OFFICE"
	DivisionPersonal Division = "PERSONAL"
)

// Divisions returns every division.
func Divisions() []Division {
	return []Division{DivisionOffice, DivisionPersonal}
}

// Valid reports whether d is a known division.
func (d Division) Valid() bool {
	return d == DivisionOffice || d == DivisionPersonal
}

// Details holds the user-editable fields of a transaction.
type Details struct {
	Amount      decimal.Decimal
	Category    string
	Division    Division
	Description string
	Date        time.Time
	FromAccount string
	ToAccount   string
}

// Transaction is a single ledger event. Its type is unexported and only set
// by New, so it cannot change after construction.
type Transaction struct {
	ID          string
	typ         TransactionType
	Amount      decimal.Decimal // always positive; direction comes from the type
	Category    string
	Division    Division
	Description string
	Date        time.Time
	FromAccount string
	ToAccount   string
	Editable    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New builds an unsaved transaction of the given type. Transfers never carry
// a category or division.
func New(typ TransactionType, d Details) (Transaction, error) {
	if !typ.Valid() {
		return Transaction{}, &ValidationError{Field: "type", Reason: "unknown transaction type " + quote(string(typ)) + "; want one of " + Names(TransactionTypes())}
	}
	t := Transaction{typ: typ}
	return t.WithDetails(d), nil
}

// NewIncome is New(TypeIncome, d).
func NewIncome(d Details) Transaction {
	t, _ := New(TypeIncome, d)
	return t
}

// NewExpense is New(TypeExpense, d).
func NewExpense(d Details) Transaction {
	t, _ := New(TypeExpense, d)
	return t
}

// NewTransfer is New(TypeTransfer, d).
func NewTransfer(d Details) Transaction {
	t, _ := New(TypeTransfer, d)
	return t
}

// Type returns the transaction type.
func (t Transaction) Type() TransactionType {
	return t.typ
}

// Details returns the editable fields.
func (t Transaction) Details() Details {
	return Details{
		Amount:      t.Amount,
		Category:    t.Category,
		Division:    t.Division,
		Description: t.Description,
		Date:        t.Date,
		FromAccount: t.FromAccount,
		ToAccount:   t.ToAccount,
	}
}

// WithDetails returns a copy with every editable field replaced. ID, type,
// editability and timestamps are kept.
func (t Transaction) WithDetails(d Details) Transaction {
	t.Amount = d.Amount
	t.Category = d.Category
	t.Division = d.Division
	t.Description = d.Description
	t.Date = d.Date
	t.FromAccount = d.FromAccount
	t.ToAccount = d.ToAccount
	if t.typ == TypeTransfer {
		t.Category = ""
		t.Division = ""
	}
	return t
}

// HasCategory reports whether the transaction carries a category.
func (t Transaction) HasCategory() bool {
	return t.Category != ""
}

func quote(s string) string {
	return `"` + s + `"`
}

// Names lists enum values for messages and help text: "INCOME, EXPENSE, TRANSFER".
func Names[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
