package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// transactionJSON is the wire shape of a Transaction, named after the fields
// the browser client reads.
type transactionJSON struct {
	ID              string          `json:"id"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category,omitempty"`
	Division        Division        `json:"division,omitempty"`
	Description     string          `json:"description"`
	TransactionDate time.Time       `json:"transactionDate"`
	FromAccount     string          `json:"fromAccount,omitempty"`
	ToAccount       string          `json:"toAccount,omitempty"`
	IsEditable      bool            `json:"isEditable"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:              t.ID,
		Type:            t.typ,
		Amount:          t.Amount,
		Category:        t.Category,
		Division:        t.Division,
		Description:     t.Description,
		TransactionDate: t.Date,
		FromAccount:     t.FromAccount,
		ToAccount:       t.ToAccount,
		IsEditable:      t.Editable,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var w transactionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	tx, err := New(w.Type, Details{
		Amount:      w.Amount,
		Category:    w.Category,
		Division:    w.Division,
		Description: w.Description,
		Date:        w.TransactionDate,
		FromAccount: w.FromAccount,
		ToAccount:   w.ToAccount,
	})
	if err != nil {
		return err
	}
	tx.ID = w.ID
	tx.Editable = w.IsEditable
	tx.CreatedAt = w.CreatedAt
	tx.UpdatedAt = w.UpdatedAt
	*t = tx
	return nil
}

type accountJSON struct {
	ID          int             `json:"id"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Balance     decimal.Decimal `json:"balance"`
}

func (a Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(accountJSON{ID: a.ID, AccountName: a.Name, AccountType: a.Type, Balance: a.Balance})
}

func (a *Account) UnmarshalJSON(data []byte) error {
	var w accountJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = Account{ID: w.ID, Name: w.AccountName, Type: w.AccountType, Balance: w.Balance}
	return nil
}
