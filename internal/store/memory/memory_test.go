package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestSeed_KeepsFieldsAndSkipsEffects(t *testing.T) {
	s := New()
	locked := model.NewExpense(model.Details{
		Amount:      decimal.NewFromInt(10),
		Category:    "Rent",
		Division:    model.DivisionOffice,
		Description: "system generated",
		Date:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		FromAccount: "Main",
	})
	locked.ID = "2025-01-001"
	s.Seed([]model.Account{{ID: 7, Name: "Main", Type: model.AccountTypeBank, Balance: decimal.NewFromInt(50)}}, []model.Transaction{locked})

	got, err := s.GetTransaction(context.Background(), "2025-01-001")
	require.NoError(t, err)
	assert.False(t, got.Editable)

	acct, err := s.GetAccountByName(context.Background(), "Main")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(50)))

	next, err := s.CreateAccount(context.Background(), model.Account{Name: "Other", Type: model.AccountTypeCash})
	require.NoError(t, err)
	assert.Equal(t, 8, next.ID, "ids continue after seeded accounts")
}
