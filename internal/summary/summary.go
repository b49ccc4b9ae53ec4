// Package summary derives dashboard figures from a ledger snapshot. Every
// function here is pure: the result depends only on the arguments.
package summary

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// RecentLimit caps Summary.RecentTransactions.
const RecentLimit = 5

// Summary is the dashboard view of one date window.
type Summary struct {
	Start               time.Time                  `json:"startDate"`
	End                 time.Time                  `json:"endDate"`
	TotalIncome         decimal.Decimal            `json:"totalIncome"`
	TotalExpense        decimal.Decimal            `json:"totalExpense"`
	Balance             decimal.Decimal            `json:"balance"` // TotalIncome - TotalExpense; transfers excluded
	CategoryWiseIncome  map[string]decimal.Decimal `json:"categoryWiseIncome"`
	CategoryWiseExpense map[string]decimal.Decimal `json:"categoryWiseExpense"`
	RecentTransactions  []model.Transaction        `json:"recentTransactions"` // newest first, at most RecentLimit
	Count               int                        `json:"count"`              // transactions inside the window, transfers included
}

// Summarize aggregates the transactions dated within [start, end]. An
// inverted window produces an empty summary.
func Summarize(txns []model.Transaction, start, end time.Time) Summary {
	s := Summary{
		Start:               start,
		End:                 end,
		TotalIncome:         decimal.Zero,
		TotalExpense:        decimal.Zero,
		Balance:             decimal.Zero,
		CategoryWiseIncome:  map[string]decimal.Decimal{},
		CategoryWiseExpense: map[string]decimal.Decimal{},
		RecentTransactions:  []model.Transaction{},
	}

	var window []model.Transaction
	for _, tx := range txns {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		window = append(window, tx)

		switch tx.Type() {
		case model.TypeIncome:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
			s.CategoryWiseIncome[tx.Category] = s.CategoryWiseIncome[tx.Category].Add(tx.Amount)
		case model.TypeExpense:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
			s.CategoryWiseExpense[tx.Category] = s.CategoryWiseExpense[tx.Category].Add(tx.Amount)
		}
	}

	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	s.Count = len(window)

	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Date.After(window[j].Date)
	})
	if len(window) > RecentLimit {
		window = window[:RecentLimit]
	}
	s.RecentTransactions = append(s.RecentTransactions, window...)
	return s
}

// ByDivision summarizes each division separately. Transfers carry no
// division and appear in neither summary.
func ByDivision(txns []model.Transaction, start, end time.Time) map[model.Division]Summary {
	split := make(map[model.Division][]model.Transaction, 2)
	for _, tx := range txns {
		if tx.Division.Valid() {
			split[tx.Division] = append(split[tx.Division], tx)
		}
	}
	out := make(map[model.Division]Summary, 2)
	for _, d := range model.Divisions() {
		out[d] = Summarize(split[d], start, end)
	}
	return out
}
