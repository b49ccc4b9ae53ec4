package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/model"
)

// createAccount reads accountName, initialBalance and accountType from the
// query string. A missing initialBalance starts the account at zero.
func (s *Server) createAccount(c *gin.Context) {
	balance := decimal.Zero
	if raw := c.Query("initialBalance"); strings.TrimSpace(raw) != "" {
		var err error
		if balance, err = accounts.ParseBalance(raw); err != nil {
			s.fail(c, err)
			return
		}
	}
	accountType := model.AccountType(strings.ToUpper(strings.TrimSpace(c.Query("accountType"))))

	a, err := s.accounts.CreateAccount(c.Request.Context(), c.Query("accountName"), balance, accountType)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) listAccounts(c *gin.Context) {
	list, err := s.accounts.ListAccounts(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

func (s *Server) totalBalance(c *gin.Context) {
	total, err := s.accounts.TotalBalance(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalBalance": total})
}

func (s *Server) getAccount(c *gin.Context) {
	a, err := s.accounts.GetAccountByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) deleteAccount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		s.fail(c, badRequest("id", "must be an integer"))
		return
	}
	if err := s.accounts.DeleteAccount(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
