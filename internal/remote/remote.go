// Package remote is a store.Store that talks to a running `tally serve`
// over its REST API, so the CLI can share one ledger with the browser.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Client implements store.Store against the /api routes.
type Client struct {
	base     *url.URL
	user     string
	password string
	http     *http.Client
}

var _ store.Store = (*Client)(nil)

// New returns a Client for the server at baseURL. Basic auth is sent when
// user is non-empty.
func New(baseURL, user, password string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing remote URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote URL %q must be http or https", baseURL)
	}
	return &Client{
		base:     u,
		user:     user,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// errorBody mirrors the server's error response.
type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Kind    string `json:"kind"`
	ID      string `json:"id"`
}

type transactionBody struct {
	Type            model.TransactionType `json:"type"`
	Amount          string                `json:"amount"`
	Category        string                `json:"category,omitempty"`
	Division        model.Division        `json:"division,omitempty"`
	Description     string                `json:"description"`
	TransactionDate string                `json:"transactionDate"`
	FromAccount     string                `json:"fromAccount,omitempty"`
	ToAccount       string                `json:"toAccount,omitempty"`
}

func bodyOf(tx model.Transaction) transactionBody {
	return transactionBody{
		Type:            tx.Type(),
		Amount:          tx.Amount.String(),
		Category:        tx.Category,
		Division:        tx.Division,
		Description:     tx.Description,
		TransactionDate: tx.Date.Format(time.RFC3339Nano),
		FromAccount:     tx.FromAccount,
		ToAccount:       tx.ToAccount,
	}
}

func (c *Client) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	q := url.Values{}
	q.Set("accountName", a.Name)
	q.Set("initialBalance", a.Balance.String())
	q.Set("accountType", string(a.Type))
	var out model.Account
	err := c.do(ctx, http.MethodPost, "/api/accounts", q, nil, &out)
	return out, err
}

func (c *Client) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var out []model.Account
	err := c.do(ctx, http.MethodGet, "/api/accounts", nil, nil, &out)
	return out, err
}

func (c *Client) GetAccountByName(ctx context.Context, name string) (model.Account, error) {
	var out model.Account
	err := c.do(ctx, http.MethodGet, "/api/accounts/"+url.PathEscape(name), nil, nil, &out)
	return out, err
}

func (c *Client) DeleteAccount(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/accounts/"+strconv.Itoa(id), nil, nil, nil)
}

func (c *Client) CreateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	var out model.Transaction
	err := c.do(ctx, http.MethodPost, "/api/transactions", nil, bodyOf(tx), &out)
	return out, err
}

func (c *Client) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	var out model.Transaction
	err := c.do(ctx, http.MethodGet, "/api/transactions/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) UpdateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	var out model.Transaction
	err := c.do(ctx, http.MethodPut, "/api/transactions/"+url.PathEscape(tx.ID), nil, bodyOf(tx), &out)
	return out, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/transactions/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	var out []model.Transaction
	err := c.do(ctx, http.MethodGet, "/api/transactions", nil, nil, &out)
	return out, err
}

func (c *Client) ListTransactionsInRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	q := url.Values{}
	q.Set("startDate", start.Format(time.RFC3339Nano))
	q.Set("endDate", end.Format(time.RFC3339Nano))
	var out []model.Transaction
	err := c.do(ctx, http.MethodGet, "/api/transactions/date-range", q, nil, &out)
	return out, err
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeError turns an error response back into the typed error the server
// started from. Statuses without a domain meaning stay opaque.
func decodeError(method, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb errorBody
	if json.Unmarshal(data, &eb) != nil || eb.Message == "" {
		eb.Message = strings.TrimSpace(string(data))
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		reason := eb.Reason
		if reason == "" {
			reason = eb.Message
		}
		return &model.ValidationError{Field: eb.Field, Reason: reason}
	case http.StatusForbidden:
		return &model.PermissionError{ID: eb.ID}
	case http.StatusNotFound:
		if eb.Kind != "" {
			return &model.NotFoundError{Kind: eb.Kind, ID: eb.ID}
		}
	}
	return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, eb.Message)
}
