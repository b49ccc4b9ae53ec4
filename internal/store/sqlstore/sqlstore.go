// Package sqlstore is a store.Store on database/sql, running against SQLite
// (modernc.org/sqlite) or PostgreSQL (pgx). Balance updates happen in Go
// inside the same SQL transaction as the row change they belong to.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Backend selects the SQL dialect.
type Backend string

const (
	SQLite   Backend = "sqlite"
	Postgres Backend = "postgres"
)

// ParseBackend accepts "sqlite" or "postgres" (also "postgresql" and "pgx").
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return "", fmt.Errorf("unknown SQL backend %q", s)
}

// Store implements store.Store on a *sql.DB.
type Store struct {
	db      *sql.DB
	backend Backend
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn, runs migrations and returns a ready Store. For
// SQLite, dsn is a file path and its directory is created if needed.
func Open(ctx context.Context, backend Backend, dsn string) (*Store, error) {
	if backend == SQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := openDB(backend, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", backend, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(backend, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, backend: backend, now: time.Now}, nil
}

func openDB(backend Backend, dsn string) (*sql.DB, error) {
	switch backend {
	case SQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// One connection, so writers never see SQLITE_BUSY from each other.
		db.SetMaxOpenConns(1)
		return db, nil
	case Postgres:
		config, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse database URL: %w", err)
		}
		return stdlib.OpenDB(*config), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Version reports SQLite's data_version, which changes when another
// connection commits to the database file. PostgreSQL has no comparable
// cheap counter, so its version is constant and writers outside this process
// go unnoticed.
func (s *Store) Version(ctx context.Context) (string, error) {
	if s.backend != SQLite {
		return "", nil
	}
	var v int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return "", fmt.Errorf("read data_version: %w", err)
	}
	return strconv.FormatInt(v, 10), nil
}

// rebind turns ? placeholders into $N for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.backend != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) inTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const accountColumns = "id, name, type, balance"

func (s *Store) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	err := s.inTx(ctx, func(q querier) error {
		var exists int
		err := q.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM accounts WHERE name = ?"), a.Name).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check account name: %w", err)
		}
		if exists > 0 {
			return store.DuplicateAccount(a.Name)
		}
		err = q.QueryRowContext(ctx,
			s.rebind("INSERT INTO accounts (name, type, balance) VALUES (?, ?, ?) RETURNING id"),
			a.Name, string(a.Type), a.Balance.String(),
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAccountByName(ctx context.Context, name string) (model.Account, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+accountColumns+" FROM accounts WHERE name = ?"), name)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, store.AccountNotFound(name)
	}
	return a, err
}

func (s *Store) DeleteAccount(ctx context.Context, accountID int) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM accounts WHERE id = ?"), accountID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n == 0 {
		return store.AccountNotFound(strconv.Itoa(accountID))
	}
	return nil
}

const txColumns = "id, type, amount, category, division, description, transaction_date, from_account, to_account, editable, created_at, updated_at"

func (s *Store) CreateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	err := s.inTx(ctx, func(q querier) error {
		txID, err := s.mintID(ctx, q, tx.Date)
		if err != nil {
			return err
		}
		now := s.now().Truncate(time.Microsecond)
		tx.ID = txID
		tx.Date = tx.Date.Truncate(time.Microsecond)
		tx.Editable = true
		tx.CreatedAt = now
		tx.UpdatedAt = now

		_, err = q.ExecContext(ctx,
			s.rebind("INSERT INTO transactions ("+txColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
			tx.ID, string(tx.Type()), tx.Amount.String(), tx.Category, string(tx.Division), tx.Description,
			toDB(tx.Date), tx.FromAccount, tx.ToAccount, tx.Editable,
			toDB(tx.CreatedAt), toDB(tx.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return s.applyEffects(ctx, q, tx.Effects())
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, txID string) (model.Transaction, error) {
	return s.getTransaction(ctx, s.db, txID)
}

func (s *Store) getTransaction(ctx context.Context, q querier, txID string) (model.Transaction, error) {
	row := q.QueryRowContext(ctx, s.rebind("SELECT "+txColumns+" FROM transactions WHERE id = ?"), txID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, store.TransactionNotFound(txID)
	}
	return tx, err
}

func (s *Store) UpdateTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	var updated model.Transaction
	err := s.inTx(ctx, func(q querier) error {
		old, err := s.getTransaction(ctx, q, tx.ID)
		if err != nil {
			return err
		}
		updated = old.WithDetails(tx.Details())
		updated.Date = updated.Date.Truncate(time.Microsecond)
		updated.UpdatedAt = s.now().Truncate(time.Microsecond)

		_, err = q.ExecContext(ctx,
			s.rebind(`UPDATE transactions SET amount = ?, category = ?, division = ?, description = ?,
				transaction_date = ?, from_account = ?, to_account = ?, updated_at = ? WHERE id = ?`),
			updated.Amount.String(), updated.Category, string(updated.Division), updated.Description,
			toDB(updated.Date), updated.FromAccount, updated.ToAccount, toDB(updated.UpdatedAt),
			updated.ID,
		)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if err := s.applyEffects(ctx, q, model.Reverse(old.Effects())); err != nil {
			return err
		}
		return s.applyEffects(ctx, q, updated.Effects())
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return updated, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, txID string) error {
	return s.inTx(ctx, func(q querier) error {
		old, err := s.getTransaction(ctx, q, txID)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, s.rebind("DELETE FROM transactions WHERE id = ?"), txID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return s.applyEffects(ctx, q, model.Reverse(old.Effects()))
	})
}

func (s *Store) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	return s.queryTransactions(ctx, "SELECT "+txColumns+" FROM transactions ORDER BY transaction_date, id")
}

func (s *Store) ListTransactionsInRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	return s.queryTransactions(ctx,
		s.rebind("SELECT "+txColumns+" FROM transactions WHERE transaction_date >= ? AND transaction_date <= ? ORDER BY transaction_date, id"),
		toDB(start), toDB(end))
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// mintID returns the next transaction ID for the month of date and raises
// the month's high-water mark in id_sequences.
func (s *Store) mintID(ctx context.Context, q querier, date time.Time) (string, error) {
	ids, err := s.monthIDs(ctx, q, date)
	if err != nil {
		return "", err
	}
	key := id.MonthKey(date)
	var last int
	err = q.QueryRowContext(ctx, s.rebind("SELECT last_seq FROM id_sequences WHERE month = ?"), key).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read id sequence: %w", err)
	}

	seqs := id.Sequences{key: last}
	txID := seqs.Mint(date, ids)
	_, err = q.ExecContext(ctx, s.rebind(`INSERT INTO id_sequences (month, last_seq) VALUES (?, ?)
		ON CONFLICT (month) DO UPDATE SET last_seq = excluded.last_seq`), key, seqs[key])
	if err != nil {
		return "", fmt.Errorf("write id sequence: %w", err)
	}
	return txID, nil
}

// monthIDs returns the IDs already minted for the month of date.
func (s *Store) monthIDs(ctx context.Context, q querier, date time.Time) ([]string, error) {
	rows, err := q.QueryContext(ctx, s.rebind("SELECT id FROM transactions WHERE id LIKE ?"), id.MonthPrefix(date)+"%")
	if err != nil {
		return nil, fmt.Errorf("list transaction ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var txID string
		if err := rows.Scan(&txID); err != nil {
			return nil, fmt.Errorf("scan transaction id: %w", err)
		}
		ids = append(ids, txID)
	}
	return ids, rows.Err()
}

// applyEffects adjusts balances of the named accounts. Accounts that no
// longer exist are skipped.
func (s *Store) applyEffects(ctx context.Context, q querier, effects []model.BalanceEffect) error {
	for _, e := range effects {
		var balance decimal.Decimal
		err := q.QueryRowContext(ctx, s.rebind("SELECT balance FROM accounts WHERE name = ?"), e.Account).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read balance of %q: %w", e.Account, err)
		}
		_, err = q.ExecContext(ctx, s.rebind("UPDATE accounts SET balance = ? WHERE name = ?"), balance.Add(e.Delta).String(), e.Account)
		if err != nil {
			return fmt.Errorf("update balance of %q: %w", e.Account, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(sc scanner) (model.Account, error) {
	var (
		a       model.Account
		typ     string
		balance decimal.Decimal
	)
	if err := sc.Scan(&a.ID, &a.Name, &typ, &balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, err
		}
		return model.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.Type = model.AccountType(typ)
	a.Balance = balance
	return a, nil
}

func scanTransaction(sc scanner) (model.Transaction, error) {
	var (
		txID, typ, category, division, desc, from, to string
		amount                                        decimal.Decimal
		date, created, updated                        int64
		editable                                      bool
	)
	err := sc.Scan(&txID, &typ, &amount, &category, &division, &desc, &date, &from, &to, &editable, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Transaction{}, err
		}
		return model.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	tx, err := model.New(model.TransactionType(typ), model.Details{
		Amount:      amount,
		Category:    category,
		Division:    model.Division(division),
		Description: desc,
		Date:        fromDB(date),
		FromAccount: from,
		ToAccount:   to,
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", txID, err)
	}
	tx.ID = txID
	tx.Editable = editable
	tx.CreatedAt = fromDB(created)
	tx.UpdatedAt = fromDB(updated)
	return tx, nil
}

// Times are stored as Unix microseconds. Nanoseconds would overflow int64
// outside 1678-2262.
func toDB(t time.Time) int64 { return t.UnixMicro() }

func fromDB(us int64) time.Time { return time.UnixMicro(us) }
