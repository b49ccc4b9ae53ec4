// Package storetest holds behaviour checks shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises the store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("AccountLifecycle", func(t *testing.T) { testAccountLifecycle(t, newStore(t)) })
	t.Run("DuplicateAccountName", func(t *testing.T) { testDuplicateAccountName(t, newStore(t)) })
	t.Run("DeleteUnknownAccount", func(t *testing.T) { testDeleteUnknownAccount(t, newStore(t)) })
	t.Run("TransactionIDs", func(t *testing.T) { testTransactionIDs(t, newStore(t)) })
	t.Run("BalanceEffects", func(t *testing.T) { testBalanceEffects(t, newStore(t)) })
	t.Run("UpdateSwapsEffects", func(t *testing.T) { testUpdateSwapsEffects(t, newStore(t)) })
	t.Run("DeleteReversesEffects", func(t *testing.T) { testDeleteReversesEffects(t, newStore(t)) })
	t.Run("DanglingAccountReference", func(t *testing.T) { testDanglingAccountReference(t, newStore(t)) })
	t.Run("UnknownTransaction", func(t *testing.T) { testUnknownTransaction(t, newStore(t)) })
	t.Run("ListInRange", func(t *testing.T) { testListInRange(t, newStore(t)) })
	t.Run("RoundTripFields", func(t *testing.T) { testRoundTripFields(t, newStore(t)) })
	t.Run("FarDates", func(t *testing.T) { testFarDates(t, newStore(t)) })
	t.Run("DeletedIDsNotReused", func(t *testing.T) { testDeletedIDsNotReused(t, newStore(t)) })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 9, 30, 0, 0, time.UTC)
}

func mustAccount(t *testing.T, s store.Store, name, balance string) model.Account {
	t.Helper()
	a, err := s.CreateAccount(context.Background(), model.Account{Name: name, Type: model.AccountTypeCash, Balance: dec(balance)})
	require.NoError(t, err)
	return a
}

func mustTx(t *testing.T, s store.Store, tx model.Transaction) model.Transaction {
	t.Helper()
	got, err := s.CreateTransaction(context.Background(), tx)
	require.NoError(t, err)
	return got
}

func balanceOf(t *testing.T, s store.Store, name string) decimal.Decimal {
	t.Helper()
	a, err := s.GetAccountByName(context.Background(), name)
	require.NoError(t, err)
	return a.Balance
}

func assertBalance(t *testing.T, s store.Store, name, want string) {
	t.Helper()
	got := balanceOf(t, s, name)
	assert.True(t, got.Equal(dec(want)), "%s balance = %s, want %s", name, got, want)
}

func testAccountLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	main := mustAccount(t, s, "Main", "1000")
	wallet := mustAccount(t, s, "Wallet", "25.50")
	assert.NotEqual(t, main.ID, wallet.ID)

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Main", list[0].Name)
	assert.Equal(t, model.AccountTypeCash, list[0].Type)
	assert.True(t, list[1].Balance.Equal(dec("25.50")))

	again, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, again, "order is stable across calls")

	require.NoError(t, s.DeleteAccount(ctx, main.ID))
	list, err = s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Wallet", list[0].Name)

	_, err = s.GetAccountByName(ctx, "Main")
	assert.ErrorIs(t, err, model.ErrNotFound)

	// The name is free again once the account is gone.
	mustAccount(t, s, "Main", "0")
}

func testDuplicateAccountName(t *testing.T, s store.Store) {
	mustAccount(t, s, "Main", "1")
	_, err := s.CreateAccount(context.Background(), model.Account{Name: "Main", Type: model.AccountTypeBank})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func testDeleteUnknownAccount(t *testing.T, s store.Store) {
	err := s.DeleteAccount(context.Background(), 4242)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testTransactionIDs(t *testing.T, s store.Store) {
	a := mustTx(t, s, model.NewIncome(model.Details{Amount: dec("1"), Category: "Gift", Division: model.DivisionPersonal, Description: "a", Date: at(2025, 1, 5)}))
	b := mustTx(t, s, model.NewIncome(model.Details{Amount: dec("1"), Category: "Gift", Division: model.DivisionPersonal, Description: "b", Date: at(2025, 1, 6)}))
	c := mustTx(t, s, model.NewIncome(model.Details{Amount: dec("1"), Category: "Gift", Division: model.DivisionPersonal, Description: "c", Date: at(2025, 2, 1)}))

	assert.Equal(t, "2025-01-001", a.ID)
	assert.Equal(t, "2025-01-002", b.ID)
	assert.Equal(t, "2025-02-001", c.ID)
	assert.True(t, a.Editable, "new transactions are editable")
	assert.False(t, a.CreatedAt.IsZero())
}

func testBalanceEffects(t *testing.T, s store.Store) {
	mustAccount(t, s, "Main", "1000")
	mustAccount(t, s, "Wallet", "0")

	mustTx(t, s, model.NewIncome(model.Details{Amount: dec("500"), Category: "Salary", Division: model.DivisionPersonal, Description: "pay", Date: at(2025, 3, 1), ToAccount: "Main"}))
	mustTx(t, s, model.NewExpense(model.Details{Amount: dec("120.25"), Category: "Food", Division: model.DivisionPersonal, Description: "groceries", Date: at(2025, 3, 2), FromAccount: "Main"}))
	mustTx(t, s, model.NewTransfer(model.Details{Amount: dec("200"), Description: "top up", Date: at(2025, 3, 3), FromAccount: "Main", ToAccount: "Wallet"}))
	mustTx(t, s, model.NewExpense(model.Details{Amount: dec("9"), Category: "Food", Division: model.DivisionPersonal, Description: "untracked cash", Date: at(2025, 3, 4)}))

	assertBalance(t, s, "Main", "1179.75")
	assertBalance(t, s, "Wallet", "200")
}

func testUpdateSwapsEffects(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAccount(t, s, "Main", "100")
	mustAccount(t, s, "Card", "0")

	tx := mustTx(t, s, model.NewExpense(model.Details{Amount: dec("30"), Category: "Fuel", Division: model.DivisionOffice, Description: "fuel", Date: at(2025, 4, 1), FromAccount: "Main"}))
	assertBalance(t, s, "Main", "70")

	d := tx.Details()
	d.Amount = dec("45")
	d.FromAccount = "Card"
	updated, err := s.UpdateTransaction(ctx, tx.WithDetails(d))
	require.NoError(t, err)
	assert.Equal(t, tx.ID, updated.ID)
	assert.Equal(t, model.TypeExpense, updated.Type())
	assert.True(t, updated.Amount.Equal(dec("45")))

	assertBalance(t, s, "Main", "100")
	assertBalance(t, s, "Card", "-45")

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Card", got.FromAccount)
}

func testDeleteReversesEffects(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAccount(t, s, "Main", "100")
	mustAccount(t, s, "Wallet", "10")

	tx := mustTx(t, s, model.NewTransfer(model.Details{Amount: dec("40"), Description: "move", Date: at(2025, 5, 1), FromAccount: "Main", ToAccount: "Wallet"}))
	assertBalance(t, s, "Main", "60")
	assertBalance(t, s, "Wallet", "50")

	require.NoError(t, s.DeleteTransaction(ctx, tx.ID))
	assertBalance(t, s, "Main", "100")
	assertBalance(t, s, "Wallet", "10")

	_, err := s.GetTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testDanglingAccountReference(t *testing.T, s store.Store) {
	ctx := context.Background()
	main := mustAccount(t, s, "Main", "100")
	tx := mustTx(t, s, model.NewExpense(model.Details{Amount: dec("10"), Category: "Food", Division: model.DivisionPersonal, Description: "snack", Date: at(2025, 6, 1), FromAccount: "Main"}))

	require.NoError(t, s.DeleteAccount(ctx, main.ID))

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err, "transactions survive account deletion")
	assert.Equal(t, "Main", got.FromAccount)

	require.NoError(t, s.DeleteTransaction(ctx, tx.ID), "reversing onto a missing account is not an error")
}

func testUnknownTransaction(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.GetTransaction(ctx, "2025-01-999")
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = s.DeleteTransaction(ctx, "2025-01-999")
	assert.ErrorIs(t, err, model.ErrNotFound)

	ghost := model.NewIncome(model.Details{Amount: dec("1"), Category: "Gift", Division: model.DivisionPersonal, Description: "x", Date: at(2025, 1, 1)})
	ghost.ID = "2025-01-999"
	_, err = s.UpdateTransaction(ctx, ghost)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testListInRange(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, d := range []time.Time{at(2025, 1, 31), at(2025, 2, 1), at(2025, 2, 28), at(2025, 3, 1)} {
		mustTx(t, s, model.NewExpense(model.Details{Amount: dec("1"), Category: "Food", Division: model.DivisionPersonal, Description: d.Format(time.DateOnly), Date: d}))
	}

	all, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	got, err := s.ListTransactionsInRange(ctx, at(2025, 2, 1), at(2025, 2, 28))
	require.NoError(t, err)
	require.Len(t, got, 2, "both bounds are inclusive")

	got, err = s.ListTransactionsInRange(ctx, at(2025, 3, 2), at(2025, 3, 1))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testRoundTripFields(t *testing.T, s store.Store) {
	ctx := context.Background()
	when := time.Date(2025, 7, 14, 18, 45, 0, 0, time.UTC)
	created := mustTx(t, s, model.NewIncome(model.Details{
		Amount:      dec("1234.56"),
		Category:    "Freelance",
		Division:    model.DivisionOffice,
		Description: "Invoice, July \"final\"",
		Date:        when,
		ToAccount:   "Bank",
	}))

	got, err := s.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TypeIncome, got.Type())
	assert.True(t, got.Amount.Equal(dec("1234.56")))
	assert.Equal(t, "Freelance", got.Category)
	assert.Equal(t, model.DivisionOffice, got.Division)
	assert.Equal(t, "Invoice, July \"final\"", got.Description)
	assert.True(t, got.Date.Equal(when), "date %s != %s", got.Date, when)
	assert.Equal(t, "Bank", got.ToAccount)
	assert.Empty(t, got.FromAccount)
	assert.True(t, got.Editable)
}

func testFarDates(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, when := range []time.Time{
		time.Date(1600, 6, 1, 9, 30, 0, 0, time.UTC),
		time.Date(2300, 6, 1, 9, 30, 0, 0, time.UTC),
	} {
		created := mustTx(t, s, model.NewExpense(model.Details{Amount: dec("1"), Category: "Food", Division: model.DivisionPersonal, Description: "far", Date: when}))

		got, err := s.GetTransaction(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.Date.Equal(when), "date %s stored as %s", when, got.Date)

		in, err := s.ListTransactionsInRange(ctx, when.AddDate(0, 0, -1), when.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, in, 1)
		assert.Equal(t, created.ID, in[0].ID)
	}
}

func testDeletedIDsNotReused(t *testing.T, s store.Store) {
	ctx := context.Background()
	gift := func(day int) model.Transaction {
		return model.NewIncome(model.Details{Amount: dec("1"), Category: "Gift", Division: model.DivisionPersonal, Description: "gift", Date: at(2025, 3, day)})
	}
	mustTx(t, s, gift(1))
	second := mustTx(t, s, gift(2))
	require.NoError(t, s.DeleteTransaction(ctx, second.ID))

	third := mustTx(t, s, gift(3))
	assert.Equal(t, "2025-03-003", third.ID, "the deleted newest id stays retired")
}
