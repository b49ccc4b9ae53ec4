package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/cache"
	"github.com/cleared-dev/tally/internal/filter"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/summary"
)

// transactionRequest is the body of create and update calls. Amount accepts
// a JSON number or string; a missing amount fails validation as zero.
type transactionRequest struct {
	Type            string              `json:"type"`
	Amount          decimal.NullDecimal `json:"amount"`
	Category        string              `json:"category"`
	Division        string              `json:"division"`
	Description     string              `json:"description"`
	TransactionDate string              `json:"transactionDate"`
	FromAccount     string              `json:"fromAccount"`
	ToAccount       string              `json:"toAccount"`
}

func (r transactionRequest) details() (model.Details, error) {
	d := model.Details{
		Amount:      r.Amount.Decimal,
		Category:    r.Category,
		Division:    model.Division(strings.ToUpper(strings.TrimSpace(r.Division))),
		Description: r.Description,
		FromAccount: r.FromAccount,
		ToAccount:   r.ToAccount,
	}
	if !r.Amount.Valid {
		d.Amount = decimal.Zero
	}
	if strings.TrimSpace(r.TransactionDate) != "" {
		t, err := summary.ParseTime("transactionDate", r.TransactionDate, false)
		if err != nil {
			return model.Details{}, err
		}
		d.Date = t
	}
	return d, nil
}

func bindTransaction(c *gin.Context) (transactionRequest, error) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return transactionRequest{}, badRequest("body", err.Error())
	}
	return req, nil
}

func (s *Server) createTransaction(c *gin.Context) {
	req, err := bindTransaction(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	d, err := req.details()
	if err != nil {
		s.fail(c, err)
		return
	}
	tx, err := s.ledger.CreateTransaction(c.Request.Context(), ledger.Input{
		Type:    model.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Details: d,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (s *Server) updateTransaction(c *gin.Context) {
	req, err := bindTransaction(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	d, err := req.details()
	if err != nil {
		s.fail(c, err)
		return
	}
	tx, err := s.ledger.UpdateTransaction(c.Request.Context(), c.Param("id"), d)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *Server) deleteTransaction(c *gin.Context) {
	if err := s.ledger.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getTransaction(c *gin.Context) {
	tx, err := s.ledger.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// listTransactions returns every transaction, narrowed by any of the
// type, division, category, startDate, endDate and searchTerm parameters.
func (s *Server) listTransactions(c *gin.Context) {
	s.respondFiltered(c, filter.Params{
		Type:       c.Query("type"),
		Division:   c.Query("division"),
		Category:   c.Query("category"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
		SearchTerm: c.Query("searchTerm"),
	})
}

func (s *Server) transactionsByType(c *gin.Context) {
	s.respondFiltered(c, filter.Params{Type: c.Param("type")})
}

func (s *Server) transactionsByDivision(c *gin.Context) {
	s.respondFiltered(c, filter.Params{Division: c.Param("division")})
}

func (s *Server) transactionsByCategory(c *gin.Context) {
	s.respondFiltered(c, filter.Params{Category: c.Param("category")})
}

func (s *Server) respondFiltered(c *gin.Context, p filter.Params) {
	f, err := filter.Parse(p)
	if err != nil {
		s.fail(c, err)
		return
	}
	txns, err := s.ledger.ListTransactions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(filter.Apply(txns, f)))
}

func (s *Server) transactionsInRange(c *gin.Context) {
	start, end, err := requiredRange(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	txns, err := s.ledger.ListTransactionsInRange(c.Request.Context(), start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(txns))
}

// dashboard summarizes ?startDate&endDate, or ?period=week|month|year. With
// neither it covers the current month.
func (s *Server) dashboard(c *gin.Context) {
	start, end, err := s.window(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	key := cache.Key(start, end)

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.WarnContext(ctx, "summary cache read failed", "error", err)
	} else if ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	txns, err := s.ledger.ListTransactionsInRange(ctx, start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	sum := summary.Summarize(txns, start, end)
	if err := s.cache.Set(ctx, key, sum); err != nil {
		s.log.WarnContext(ctx, "summary cache write failed", "error", err)
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) dashboardByDivision(c *gin.Context) {
	start, end, err := s.window(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	txns, err := s.ledger.ListTransactionsInRange(c.Request.Context(), start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary.ByDivision(txns, start, end))
}

func (s *Server) window(c *gin.Context) (time.Time, time.Time, error) {
	if period := c.Query("period"); period != "" {
		return summary.PeriodRange(period, s.now())
	}
	if c.Query("startDate") == "" && c.Query("endDate") == "" {
		start, end := summary.MonthRange(s.now())
		return start, end, nil
	}
	return requiredRange(c)
}

func requiredRange(c *gin.Context) (time.Time, time.Time, error) {
	startStr, endStr := c.Query("startDate"), c.Query("endDate")
	if startStr == "" {
		return time.Time{}, time.Time{}, badRequest("startDate", "required")
	}
	if endStr == "" {
		return time.Time{}, time.Time{}, badRequest("endDate", "required")
	}
	return summary.ParseRange(startStr, endStr)
}

func (s *Server) categories(c *gin.Context) {
	typ := model.TransactionType(strings.ToUpper(strings.TrimSpace(c.Query("type"))))
	if typ != model.TypeIncome && typ != model.TypeExpense {
		s.fail(c, badRequest("type", "must be INCOME or EXPENSE"))
		return
	}
	c.JSON(http.StatusOK, ledger.Categories(typ))
}

// usedCategories lists the distinct categories present in the ledger.
func (s *Server) usedCategories(c *gin.Context) {
	txns, err := s.ledger.ListTransactions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(filter.Categories(txns)))
}

// nonNil makes empty results encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
