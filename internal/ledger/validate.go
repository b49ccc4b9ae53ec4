package ledger

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// Transaction dates must carry a four-digit year.
const (
	MinYear = 1000
	MaxYear = 9999
)

// Input is a request to record a new transaction.
type Input struct {
	Type model.TransactionType
	model.Details
}

// Validate checks details against the rules for typ and reports every
// violation at once:
//
//   - amount must be positive
//   - description is required
//   - transactionDate is required and has a four-digit year
//   - INCOME/EXPENSE need a category from the type's set and a division
//   - TRANSFER needs both accounts, and they must differ
//   - no transaction may move money from an account to itself
func Validate(typ model.TransactionType, d model.Details) error {
	var errs []*model.ValidationError
	add := func(field, reason string) {
		errs = append(errs, &model.ValidationError{Field: field, Reason: reason})
	}

	if !typ.Valid() {
		add("type", fmt.Sprintf("unknown transaction type %q; want one of %s", typ, model.Names(model.TransactionTypes())))
	}
	if !d.Amount.IsPositive() {
		add("amount", fmt.Sprintf("must be greater than zero, got %s", d.Amount))
	}
	if strings.TrimSpace(d.Description) == "" {
		add("description", "must not be empty")
	}
	if d.Date.IsZero() {
		add("transactionDate", "must be set")
	} else if y := d.Date.Year(); y < MinYear || y > MaxYear {
		add("transactionDate", fmt.Sprintf("year %d is outside %d-%d", y, MinYear, MaxYear))
	}

	switch typ {
	case model.TypeIncome, model.TypeExpense:
		if d.Category == "" {
			add("category", "required for "+string(typ))
		} else if !model.IsCategory(typ, d.Category) {
			add("category", fmt.Sprintf("%q is not a %s category", d.Category, typ))
		}
		if !d.Division.Valid() {
			add("division", fmt.Sprintf("must be %s or %s, got %q", model.DivisionOffice, model.DivisionPersonal, d.Division))
		}
		if d.FromAccount != "" && d.FromAccount == d.ToAccount {
			add("toAccount", "must differ from fromAccount")
		}
	case model.TypeTransfer:
		if d.FromAccount == "" {
			add("fromAccount", "required for TRANSFER")
		}
		if d.ToAccount == "" {
			add("toAccount", "required for TRANSFER")
		}
		if d.FromAccount != "" && d.FromAccount == d.ToAccount {
			add("toAccount", "must differ from fromAccount")
		}
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return &model.ValidationError{Reason: strings.Join(msgs, "; ")}
}

// Normalize trims free text and drops fields that do not apply to typ.
func Normalize(typ model.TransactionType, d model.Details) model.Details {
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	d.FromAccount = strings.TrimSpace(d.FromAccount)
	d.ToAccount = strings.TrimSpace(d.ToAccount)
	if typ == model.TypeTransfer {
		d.Category = ""
		d.Division = ""
	}
	return d
}
