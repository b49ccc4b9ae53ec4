package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New("REFUND", Details{Amount: dec("1")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewTransfer_ClearsCategoryAndDivision(t *testing.T) {
	tx := NewTransfer(Details{
		Amount:      dec("10"),
		Category:    "Food",
		Division:    DivisionOffice,
		FromAccount: "Main",
		ToAccount:   "Wallet",
	})
	assert.Equal(t, TypeTransfer, tx.Type())
	assert.Empty(t, tx.Category)
	assert.Empty(t, tx.Division)
	assert.False(t, tx.HasCategory())
}

func TestWithDetails_KeepsIdentity(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tx := NewExpense(Details{Amount: dec("5"), Category: "Food", Division: DivisionPersonal, Description: "lunch"})
	tx.ID = "2025-01-001"
	tx.Editable = true
	tx.CreatedAt = created

	updated := tx.WithDetails(Details{Amount: dec("7"), Category: "Fuel", Division: DivisionOffice, Description: "gas"})
	assert.Equal(t, "2025-01-001", updated.ID)
	assert.Equal(t, TypeExpense, updated.Type())
	assert.True(t, updated.Editable)
	assert.Equal(t, created, updated.CreatedAt)
	assert.True(t, updated.Amount.Equal(dec("7")))
	assert.Equal(t, "Fuel", updated.Category)
	assert.Equal(t, "lunch", tx.Details().Description, "original copy is untouched")
}

func TestEffects(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want []BalanceEffect
	}{
		{"income to account", NewIncome(Details{Amount: dec("500"), ToAccount: "Main"}),
			[]BalanceEffect{{Account: "Main", Delta: dec("500")}}},
		{"income untracked", NewIncome(Details{Amount: dec("500")}), nil},
		{"expense from account", NewExpense(Details{Amount: dec("20"), FromAccount: "Main"}),
			[]BalanceEffect{{Account: "Main", Delta: dec("-20")}}},
		{"expense ignores to account", NewExpense(Details{Amount: dec("20"), ToAccount: "Main"}), nil},
		{"transfer", NewTransfer(Details{Amount: dec("100"), FromAccount: "Main", ToAccount: "Wallet"}),
			[]BalanceEffect{{Account: "Main", Delta: dec("-100")}, {Account: "Wallet", Delta: dec("100")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tx.Effects()
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Account, got[i].Account)
				assert.True(t, tt.want[i].Delta.Equal(got[i].Delta), "delta %s != %s", got[i].Delta, tt.want[i].Delta)
			}
		})
	}
}

func TestApplyEffects_ReverseRestoresBalances(t *testing.T) {
	accounts := []Account{
		{ID: 1, Name: "Main", Balance: dec("1000")},
		{ID: 2, Name: "Wallet", Balance: dec("50")},
	}
	tx := NewTransfer(Details{Amount: dec("100"), FromAccount: "Main", ToAccount: "Wallet"})

	ApplyEffects(accounts, tx.Effects())
	assert.True(t, accounts[0].Balance.Equal(dec("900")))
	assert.True(t, accounts[1].Balance.Equal(dec("150")))

	ApplyEffects(accounts, Reverse(tx.Effects()))
	assert.True(t, accounts[0].Balance.Equal(dec("1000")))
	assert.True(t, accounts[1].Balance.Equal(dec("50")))
}

func TestApplyEffects_DanglingAccountSkipped(t *testing.T) {
	accounts := []Account{{ID: 1, Name: "Main", Balance: dec("10")}}
	tx := NewIncome(Details{Amount: dec("5"), ToAccount: "Closed"})
	ApplyEffects(accounts, tx.Effects())
	assert.True(t, accounts[0].Balance.Equal(dec("10")))
}

func TestCategories(t *testing.T) {
	assert.Len(t, Categories(TypeExpense), 12)
	assert.Len(t, Categories(TypeIncome), 6)
	assert.Nil(t, Categories(TypeTransfer))

	assert.True(t, IsCategory(TypeIncome, "Salary"))
	assert.False(t, IsCategory(TypeExpense, "Salary"))
	assert.False(t, IsCategory(TypeExpense, "food"), "matching is case-sensitive")
	assert.True(t, IsCategory(TypeExpense, "Other"))
	assert.False(t, IsCategory(TypeTransfer, "Other"))

	// Callers get a copy.
	cats := Categories(TypeIncome)
	cats[0] = "Changed"
	assert.Equal(t, "Salary", Categories(TypeIncome)[0])
}

func TestEnumValid(t *testing.T) {
	for _, at := range AccountTypes() {
		assert.True(t, at.Valid(), string(at))
	}
	assert.False(t, AccountType("SAVINGS").Valid())
	for _, tt := range TransactionTypes() {
		assert.True(t, tt.Valid(), string(tt))
	}
	for _, d := range Divisions() {
		assert.True(t, d.Valid(), string(d))
	}
	assert.False(t, Division("HOME").Valid())
}

func TestBoundary(t *testing.T) {
	assert.NoError(t, Boundary("op", nil))

	nf := &NotFoundError{Kind: "account", ID: "3"}
	assert.Same(t, nf, Boundary("delete account", nf))

	cause := errors.New("connection refused")
	err := Boundary("list accounts", cause)
	assert.ErrorIs(t, err, ErrBoundary)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "list accounts: connection refused", err.Error())

	wrapped := fmt.Errorf("loading: %w", &PermissionError{ID: "x"})
	assert.Equal(t, wrapped, Boundary("op", wrapped))
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1000", "1000", true},
		{"-25.50", "-25.5", true},
		{"12,34", "12.34", true},
		{"0,5", "0.5", true},
		{"1,2345", "1.2345", true},
		{"1,000", "", false},
		{"12,500", "", false},
		{"1,000,000", "", false},
		{"1.000,50", "", false},
		{"1,000.50", "", false},
		{" 7 ", "7", true},
		{"NaN", "", false},
		{"Inf", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDecimal("amount", tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrValidation, "%q", tc.in)
			continue
		}
		require.NoError(t, err, "%q", tc.in)
		assert.True(t, got.Equal(dec(tc.want)), "%q parsed as %s", tc.in, got)
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "INCOME, EXPENSE, TRANSFER", Names(TransactionTypes()))
	assert.Equal(t, "CASH, BANK, CREDIT_CARD, WALLET", Names(AccountTypes()))
	assert.Equal(t, "", Names([]Division{}))

	_, err := New("REFUND", Details{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INCOME, EXPENSE, TRANSFER")
}
