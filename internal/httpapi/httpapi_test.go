package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/cache"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/memory"
	"github.com/cleared-dev/tally/internal/store/storetest"
	"github.com/cleared-dev/tally/internal/summary"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	handler http.Handler
	store   *memory.Store
	cache   *cache.Memory
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	st := memory.New()
	return newFixtureWith(t, st, opts, st)
}

func newFixtureWith(t *testing.T, st store.Store, opts Options, mem *memory.Store) *fixture {
	t.Helper()
	c := cache.NewMemory(16, time.Hour)
	inv := cache.Invalidator(c, quiet)
	srv := New(accounts.NewService(st, inv, quiet), ledger.NewService(st, inv, quiet), c, quiet)
	srv.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	return &fixture{handler: srv.Handler(opts), store: mem, cache: c}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const salary = `{"type":"INCOME","amount":500,"category":"Salary","division":"PERSONAL","description":"March pay","transactionDate":"2025-03-01T09:00:00Z","toAccount":"Main"}`

func TestHealth(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestAccounts(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/api/accounts?accountName=Main&initialBalance=1000&accountType=bank", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Account](t, rec)
	assert.Equal(t, model.AccountTypeBank, created.Type)

	rec = f.do(t, http.MethodPost, "/api/accounts?accountName=Wallet&accountType=WALLET", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/accounts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]model.Account](t, rec)
	require.Len(t, list, 2)
	assert.Contains(t, rec.Body.String(), `"accountName":"Main"`)

	rec = f.do(t, http.MethodGet, "/api/accounts/total", "")
	require.Equal(t, http.StatusOK, rec.Code)
	total := decode[map[string]decimal.Decimal](t, rec)
	assert.True(t, total["totalBalance"].Equal(decimal.NewFromInt(1000)))

	rec = f.do(t, http.MethodGet, "/api/accounts/Main", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/accounts?accountName=Main&initialBalance=1&accountType=CASH", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "duplicate name")

	rec = f.do(t, http.MethodDelete, "/api/accounts/"+strconv.Itoa(created.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/accounts/Main", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/accounts/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAccount_BadBalance(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodPost, "/api/accounts?accountName=X&initialBalance=lots&accountType=CASH", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "initialBalance", body.Field)
}

func TestTransactionLifecycle(t *testing.T) {
	f := newFixture(t, Options{})
	f.do(t, http.MethodPost, "/api/accounts?accountName=Main&initialBalance=100&accountType=BANK", "")

	rec := f.do(t, http.MethodPost, "/api/transactions", salary)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decode[model.Transaction](t, rec)
	assert.Equal(t, "2025-03-001", tx.ID)
	assert.True(t, tx.Editable)

	rec = f.do(t, http.MethodGet, "/api/accounts/Main", "")
	acct := decode[model.Account](t, rec)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(600)), "balance = %s", acct.Balance)

	update := strings.Replace(salary, `"amount":500`, `"amount":"450.50"`, 1)
	rec = f.do(t, http.MethodPut, "/api/transactions/"+tx.ID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Transaction](t, rec)
	assert.True(t, updated.Amount.Equal(decimal.RequireFromString("450.50")))

	rec = f.do(t, http.MethodGet, "/api/transactions/"+tx.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/transactions/"+tx.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/accounts/Main", "")
	acct = decode[model.Account](t, rec)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(100)))

	rec = f.do(t, http.MethodGet, "/api/transactions/"+tx.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTransaction_Validation(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/api/transactions", `{"type":"EXPENSE","category":"Food","division":"PERSONAL","description":"no amount","transactionDate":"2025-03-01T09:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount", decode[errorBody](t, rec).Field)

	rec = f.do(t, http.MethodPost, "/api/transactions", `{"type":"TRANSFER","amount":5,"description":"x","transactionDate":"2025-03-01T09:00:00Z","fromAccount":"A","toAccount":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/transactions", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "malformed JSON")

	rec = f.do(t, http.MethodPost, "/api/transactions", strings.Replace(salary, "2025-03-01T09:00:00Z", "someday", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "transactionDate", decode[errorBody](t, rec).Field)
}

func TestNonEditableTransaction(t *testing.T) {
	f := newFixture(t, Options{})
	locked := model.NewExpense(model.Details{
		Amount:      decimal.NewFromInt(99),
		Category:    "Loan",
		Division:    model.DivisionPersonal,
		Description: "standing order",
		Date:        time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	locked.ID = "2025-03-900"
	f.store.Seed(nil, []model.Transaction{locked})

	rec := f.do(t, http.MethodPut, "/api/transactions/2025-03-900", strings.Replace(salary, "INCOME", "EXPENSE", 1))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "2025-03-900", decode[errorBody](t, rec).ID)

	rec = f.do(t, http.MethodDelete, "/api/transactions/2025-03-900", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListAndFilter(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodGet, "/api/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())

	f.do(t, http.MethodPost, "/api/transactions", salary)
	f.do(t, http.MethodPost, "/api/transactions", `{"type":"EXPENSE","amount":300,"category":"Food","division":"OFFICE","description":"Team lunch","transactionDate":"2025-03-05T13:00:00Z"}`)
	f.do(t, http.MethodPost, "/api/transactions", `{"type":"EXPENSE","amount":200,"category":"Fuel","division":"PERSONAL","description":"Morning Coffee run","transactionDate":"2025-04-02T08:00:00Z"}`)

	tests := []struct {
		target string
		want   int
	}{
		{"/api/transactions", 3},
		{"/api/transactions?type=expense", 2},
		{"/api/transactions?division=OFFICE", 1},
		{"/api/transactions?searchTerm=coffee", 1},
		{"/api/transactions?startDate=2025-03-01T00:00:00Z&endDate=2025-03-31T23:59:59Z", 2},
		{"/api/transactions/type/INCOME", 1},
		{"/api/transactions/division/personal", 2},
		{"/api/transactions/category/Fuel", 1},
		{"/api/transactions/date-range?startDate=2025-04-01T00:00:00Z&endDate=2025-04-30T23:59:59Z", 1},
	}
	for _, tt := range tests {
		rec := f.do(t, http.MethodGet, tt.target, "")
		require.Equal(t, http.StatusOK, rec.Code, tt.target)
		assert.Len(t, decode[[]model.Transaction](t, rec), tt.want, tt.target)
	}

	rec = f.do(t, http.MethodGet, "/api/transactions?type=refund", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/transactions/date-range?startDate=2025-04-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/transactions/categories/used", "")
	assert.Equal(t, []string{"Salary", "Food", "Fuel"}, decode[[]string](t, rec))
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, Options{})
	f.do(t, http.MethodPost, "/api/transactions", salary)

	target := "/api/transactions/dashboard?startDate=2025-03-01T00:00:00Z&endDate=2025-03-31T23:59:59Z"
	rec := f.do(t, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"categoryWiseIncome":{"Salary":"500"}`)
	sum := decode[summary.Summary](t, rec)
	assert.True(t, sum.TotalIncome.Equal(decimal.NewFromInt(500)))
	assert.True(t, sum.Balance.Equal(decimal.NewFromInt(500)))
	require.Len(t, sum.RecentTransactions, 1)

	// A mutation purges the cached summary.
	f.do(t, http.MethodPost, "/api/transactions", `{"type":"EXPENSE","amount":300,"category":"Food","division":"PERSONAL","description":"Groceries","transactionDate":"2025-03-05T13:00:00Z"}`)
	rec = f.do(t, http.MethodGet, target, "")
	sum = decode[summary.Summary](t, rec)
	assert.True(t, sum.Balance.Equal(decimal.NewFromInt(200)), "balance = %s", sum.Balance)

	rec = f.do(t, http.MethodGet, "/api/transactions/dashboard?period=month", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[summary.Summary](t, rec).Count)

	rec = f.do(t, http.MethodGet, "/api/transactions/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code, "defaults to the current month")
	assert.Equal(t, 2, decode[summary.Summary](t, rec).Count)

	rec = f.do(t, http.MethodGet, "/api/transactions/dashboard?period=decade", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/transactions/dashboard/divisions?period=month", "")
	require.Equal(t, http.StatusOK, rec.Code)
	split := decode[map[model.Division]summary.Summary](t, rec)
	assert.True(t, split[model.DivisionPersonal].TotalExpense.Equal(decimal.NewFromInt(300)))
}

func TestCategories(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodGet, "/api/transactions/categories?type=income", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.Categories(model.TypeIncome), decode[[]string](t, rec))

	rec = f.do(t, http.MethodGet, "/api/transactions/categories?type=TRANSFER", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBoundaryFailure(t *testing.T) {
	f := newFixtureWith(t, storetest.Broken(errors.New("connection refused")), Options{}, nil)

	rec := f.do(t, http.MethodGet, "/api/accounts", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Message, "connection refused")

	rec = f.do(t, http.MethodPost, "/api/transactions", salary)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	f := newFixture(t, Options{APIUser: "admin", APIPasswordHash: string(hash)})

	rec := f.do(t, http.MethodGet, "/api/accounts", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.SetBasicAuth("admin", "s3cret")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health stays open")
}

func TestCORS(t *testing.T) {
	f := newFixture(t, Options{AllowOrigins: []string{"http://localhost:3000"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/accounts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(&model.ValidationError{Field: "x"}))
	assert.Equal(t, http.StatusForbidden, StatusFor(&model.PermissionError{ID: "x"}))
	assert.Equal(t, http.StatusNotFound, StatusFor(&model.NotFoundError{Kind: "account"}))
	assert.Equal(t, http.StatusBadGateway, StatusFor(model.Boundary("op", errors.New("x"))))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("x")))
}
