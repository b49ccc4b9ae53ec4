package remote

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/httpapi"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/memory"
	"github.com/cleared-dev/tally/internal/store/storetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, st store.Store, opts httpapi.Options) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httpapi.New(accounts.NewService(st, nil, log), ledger.NewService(st, nil, log), nil, log)
	ts := httptest.NewServer(srv.Handler(opts))
	t.Cleanup(ts.Close)
	return ts
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		ts := newServer(t, memory.New(), httpapi.Options{})
		c, err := New(ts.URL, "", "")
		require.NoError(t, err)
		return c
	})
}

func TestPermissionErrorRoundTrips(t *testing.T) {
	st := memory.New()
	locked := model.NewExpense(model.Details{
		Amount:      decimal.NewFromInt(5),
		Category:    "Rent",
		Division:    model.DivisionOffice,
		Description: "locked",
		Date:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	locked.ID = "2025-01-777"
	st.Seed(nil, []model.Transaction{locked})

	c, err := New(newServer(t, st, httpapi.Options{}).URL, "", "")
	require.NoError(t, err)

	err = c.DeleteTransaction(context.Background(), "2025-01-777")
	var pe *model.PermissionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "2025-01-777", pe.ID)
}

func TestValidationErrorRoundTrips(t *testing.T) {
	c, err := New(newServer(t, memory.New(), httpapi.Options{}).URL, "", "")
	require.NoError(t, err)

	_, err = c.CreateAccount(context.Background(), model.Account{Name: "X", Type: "GOLD"})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "accountType", ve.Field)
	assert.Contains(t, ve.Error(), "GOLD")
}

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	ts := newServer(t, memory.New(), httpapi.Options{APIUser: "me", APIPasswordHash: string(hash)})

	anon, err := New(ts.URL, "", "")
	require.NoError(t, err)
	_, err = anon.ListAccounts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	authed, err := New(ts.URL+"/", "me", "pw")
	require.NoError(t, err)
	_, err = authed.ListAccounts(context.Background())
	assert.NoError(t, err)
}

func TestServerDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := New(url, "", "")
	require.NoError(t, err)
	_, err = c.ListTransactions(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
}

func TestNew_RejectsBadScheme(t *testing.T) {
	_, err := New("ftp://example.com", "", "")
	assert.Error(t, err)
}
