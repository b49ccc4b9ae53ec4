// Package filter narrows a transaction list by type, division, category,
// date range and free-text search.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/summary"
)

// Filters holds the optional constraints. A zero field places no
// constraint; set fields are combined with AND.
type Filters struct {
	Type       model.TransactionType
	Division   model.Division
	Category   string
	StartDate  time.Time // applies only when EndDate is also set
	EndDate    time.Time // applies only when StartDate is also set
	SearchTerm string    // case-insensitive; matches description or category
}

// Active reports whether any constraint is set.
func (f Filters) Active() bool {
	return f.Type != "" || f.Division != "" || f.Category != "" ||
		!f.StartDate.IsZero() || !f.EndDate.IsZero() || f.SearchTerm != ""
}

// hasRange reports whether the date range constraint applies. A lone bound
// is ignored rather than treated as open-ended.
func (f Filters) hasRange() bool {
	return !f.StartDate.IsZero() && !f.EndDate.IsZero()
}

// Match reports whether tx satisfies every set constraint.
func (f Filters) Match(tx model.Transaction) bool {
	if f.Type != "" && tx.Type() != f.Type {
		return false
	}
	if f.Division != "" && tx.Division != f.Division {
		return false
	}
	if f.Category != "" && tx.Category != f.Category {
		return false
	}
	if f.hasRange() && (tx.Date.Before(f.StartDate) || tx.Date.After(f.EndDate)) {
		return false
	}
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		inDescription := strings.Contains(strings.ToLower(tx.Description), term)
		inCategory := tx.HasCategory() && strings.Contains(strings.ToLower(tx.Category), term)
		if !inDescription && !inCategory {
			return false
		}
	}
	return true
}

// Apply returns the transactions matching f in their input order. With no
// constraints set the input is returned as-is.
func Apply(txns []model.Transaction, f Filters) []model.Transaction {
	if !f.Active() {
		return txns
	}
	out := make([]model.Transaction, 0, len(txns))
	for _, tx := range txns {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// Categories lists the distinct non-empty categories in txns, in order of
// first appearance.
func Categories(txns []model.Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tx := range txns {
		if tx.Category == "" || seen[tx.Category] {
			continue
		}
		seen[tx.Category] = true
		out = append(out, tx.Category)
	}
	return out
}

// Params is the string form of Filters, as it arrives from flags or query
// parameters.
type Params struct {
	Type       string
	Division   string
	Category   string
	StartDate  string
	EndDate    string
	SearchTerm string
}

// Parse converts p into Filters. Type and division are upper-cased so
// "income" and "INCOME" are the same filter; unknown values, like any
// unparseable date bound, are a ValidationError.
func Parse(p Params) (Filters, error) {
	f := Filters{
		Type:       model.TransactionType(strings.ToUpper(strings.TrimSpace(p.Type))),
		Division:   model.Division(strings.ToUpper(strings.TrimSpace(p.Division))),
		Category:   strings.TrimSpace(p.Category),
		SearchTerm: p.SearchTerm,
	}
	if f.Type != "" && !f.Type.Valid() {
		return Filters{}, &model.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q; want one of %s", p.Type, model.Names(model.TransactionTypes()))}
	}
	if f.Division != "" && !f.Division.Valid() {
		return Filters{}, &model.ValidationError{Field: "division", Reason: fmt.Sprintf("unknown division %q; want one of %s", p.Division, model.Names(model.Divisions()))}
	}

	var err error
	if strings.TrimSpace(p.StartDate) != "" {
		if f.StartDate, err = summary.ParseTime("startDate", p.StartDate, false); err != nil {
			return Filters{}, err
		}
	}
	if strings.TrimSpace(p.EndDate) != "" {
		if f.EndDate, err = summary.ParseTime("endDate", p.EndDate, true); err != nil {
			return Filters{}, err
		}
	}
	return f, nil
}
