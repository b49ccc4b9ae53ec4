package csvstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
)

// AccountsHeader is the CSV header for accounts.csv.
const AccountsHeader = "account_id,account_name,account_type,balance"

// TransactionsHeader is the CSV header for transactions.csv.
const TransactionsHeader = "id,type,amount,category,division,description,transaction_date,from_account,to_account,editable,created_at,updated_at"

const (
	numAccountFields = 4
	colAcctID        = 0
	colAcctName      = 1
	colAcctType      = 2
	colAcctBalance   = 3
)

const (
	numTxFields = 12
	colID       = 0
	colType     = 1
	colAmount   = 2
	colCategory = 3
	colDivision = 4
	colDesc     = 5
	colDate     = 6
	colFrom     = 7
	colTo       = 8
	colEditable = 9
	colCreated  = 10
	colUpdated  = 11
)

// SequencesHeader is the CSV header for sequences.csv.
const SequencesHeader = "month,last_seq"

const numSeqFields = 2

const timeFormat = time.RFC3339Nano

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	records, err := readAll(r, numAccountFields)
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	var accounts []model.Account
	for i, rec := range records {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv, header included.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(AccountsHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numAccountFields)
	row[colAcctID] = strconv.Itoa(acct.ID)
	row[colAcctName] = acct.Name
	row[colAcctType] = string(acct.Type)
	row[colAcctBalance] = acct.Balance.String()
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numAccountFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numAccountFields, len(record))
	}

	acctID, err := strconv.Atoi(record[colAcctID])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_id %q: %w", record[colAcctID], err)
	}

	balance, err := decimal.NewFromString(record[colAcctBalance])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing balance %q: %w", record[colAcctBalance], err)
	}

	return model.Account{
		ID:      acctID,
		Name:    record[colAcctName],
		Type:    model.AccountType(record[colAcctType]),
		Balance: balance,
	}, nil
}

// ReadTransactions reads transactions.csv.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	records, err := readAll(r, numTxFields)
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	var txns []model.Transaction
	for i, rec := range records {
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, tx)
	}
	return txns, nil
}

// WriteTransactions writes transactions.csv, header included.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(TransactionsHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txns {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, numTxFields)
	row[colID] = tx.ID
	row[colType] = string(tx.Type())
	row[colAmount] = tx.Amount.String()
	row[colCategory] = tx.Category
	row[colDivision] = string(tx.Division)
	row[colDesc] = tx.Description
	row[colDate] = tx.Date.Format(timeFormat)
	row[colFrom] = tx.FromAccount
	row[colTo] = tx.ToAccount
	row[colEditable] = strconv.FormatBool(tx.Editable)
	if !tx.CreatedAt.IsZero() {
		row[colCreated] = tx.CreatedAt.Format(timeFormat)
	}
	if !tx.UpdatedAt.IsZero() {
		row[colUpdated] = tx.UpdatedAt.Format(timeFormat)
	}
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numTxFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numTxFields, len(record))
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	date, err := time.Parse(timeFormat, record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing transaction_date %q: %w", record[colDate], err)
	}

	editable, err := strconv.ParseBool(record[colEditable])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing editable %q: %w", record[colEditable], err)
	}

	tx, err := model.New(model.TransactionType(record[colType]), model.Details{
		Amount:      amount,
		Category:    record[colCategory],
		Division:    model.Division(record[colDivision]),
		Description: record[colDesc],
		Date:        date,
		FromAccount: record[colFrom],
		ToAccount:   record[colTo],
	})
	if err != nil {
		return model.Transaction{}, err
	}
	tx.ID = record[colID]
	tx.Editable = editable

	if tx.CreatedAt, err = parseOptionalTime(record[colCreated]); err != nil {
		return model.Transaction{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if tx.UpdatedAt, err = parseOptionalTime(record[colUpdated]); err != nil {
		return model.Transaction{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return tx, nil
}

// ReadSequences reads sequences.csv, the per-month high-water marks of
// transaction IDs.
func ReadSequences(r io.Reader) (id.Sequences, error) {
	records, err := readAll(r, numSeqFields)
	if err != nil {
		return nil, fmt.Errorf("reading sequences CSV: %w", err)
	}

	seqs := id.Sequences{}
	for i, rec := range records {
		seq, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing last_seq %q: %w", i+2, rec[1], err)
		}
		seqs[rec[0]] = seq
	}
	return seqs, nil
}

// WriteSequences writes sequences.csv ordered by month, header included.
func WriteSequences(w io.Writer, seqs id.Sequences) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(SequencesHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, month := range slices.Sorted(maps.Keys(seqs)) {
		if err := cw.Write([]string{month, strconv.Itoa(seqs[month])}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeFormat, s)
}

// readAll returns every record after the header.
func readAll(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}
