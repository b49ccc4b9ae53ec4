// Package csvstore is a store.Store backed by plain CSV files in a data
// directory, suited to keeping the ledger under git.
package csvstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// File names inside the data directory.
const (
	AccountsFile     = "accounts.csv"
	TransactionsFile = "transactions.csv"
	SequencesFile    = "sequences.csv"
)

// Store reads and rewrites the CSV files on every call, so edits made to the
// files between calls are picked up.
type Store struct {
	dir    string
	mu     sync.Mutex
	now    func() time.Time
	rename func(oldpath, newpath string) error
}

var _ store.Store = (*Store)(nil)

// Open returns a Store rooted at dir, creating the directory and empty files
// with headers when they are missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	s := &Store{dir: dir, now: time.Now, rename: os.Rename}
	for _, f := range []struct{ name, header string }{
		{AccountsFile, AccountsHeader},
		{TransactionsFile, TransactionsHeader},
		{SequencesFile, SequencesHeader},
	} {
		if err := s.ensure(f.name, f.header); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) ensure(name, header string) error {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	if err := os.WriteFile(path, []byte(header+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s *Store) CreateAccount(_ context.Context, a model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts()
	if err != nil {
		return model.Account{}, err
	}
	next := 1
	for _, existing := range accounts {
		if existing.Name == a.Name {
			return model.Account{}, store.DuplicateAccount(a.Name)
		}
		next = max(next, existing.ID+1)
	}
	a.ID = next
	accounts = append(accounts, a)
	if err := s.commit(accountsFile(accounts)); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(accounts, func(a, b model.Account) int { return a.ID - b.ID })
	return accounts, nil
}

func (s *Store) GetAccountByName(_ context.Context, name string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts()
	if err != nil {
		return model.Account{}, err
	}
	for _, a := range accounts {
		if a.Name == name {
			return a, nil
		}
	}
	return model.Account{}, store.AccountNotFound(name)
}

func (s *Store) DeleteAccount(_ context.Context, accountID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(accounts, func(a model.Account) bool { return a.ID == accountID })
	if i < 0 {
		return store.AccountNotFound(strconv.Itoa(accountID))
	}
	return s.commit(accountsFile(slices.Delete(accounts, i, i+1)))
}

func (s *Store) CreateTransaction(_ context.Context, tx model.Transaction) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, txns, err := s.loadAll()
	if err != nil {
		return model.Transaction{}, err
	}
	seqs, err := s.loadSequences()
	if err != nil {
		return model.Transaction{}, err
	}

	ids := make([]string, len(txns))
	for i, t := range txns {
		ids[i] = t.ID
	}
	now := s.now()
	tx.ID = seqs.Mint(tx.Date, ids)
	tx.Editable = true
	tx.CreatedAt = now
	tx.UpdatedAt = now

	model.ApplyEffects(accounts, tx.Effects())
	if err := s.commit(sequencesFile(seqs), accountsFile(accounts), transactionsFile(append(txns, tx))); err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) GetTransaction(_ context.Context, txID string) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txns, err := s.loadTransactions()
	if err != nil {
		return model.Transaction{}, err
	}
	i := indexOf(txns, txID)
	if i < 0 {
		return model.Transaction{}, store.TransactionNotFound(txID)
	}
	return txns[i], nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx model.Transaction) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, txns, err := s.loadAll()
	if err != nil {
		return model.Transaction{}, err
	}
	i := indexOf(txns, tx.ID)
	if i < 0 {
		return model.Transaction{}, store.TransactionNotFound(tx.ID)
	}
	old := txns[i]
	updated := old.WithDetails(tx.Details())
	updated.UpdatedAt = s.now()

	model.ApplyEffects(accounts, model.Reverse(old.Effects()))
	model.ApplyEffects(accounts, updated.Effects())
	txns[i] = updated
	if err := s.commit(accountsFile(accounts), transactionsFile(txns)); err != nil {
		return model.Transaction{}, err
	}
	return updated, nil
}

func (s *Store) DeleteTransaction(_ context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, txns, err := s.loadAll()
	if err != nil {
		return err
	}
	i := indexOf(txns, txID)
	if i < 0 {
		return store.TransactionNotFound(txID)
	}
	model.ApplyEffects(accounts, model.Reverse(txns[i].Effects()))
	return s.commit(accountsFile(accounts), transactionsFile(slices.Delete(txns, i, i+1)))
}

func (s *Store) ListTransactions(_ context.Context) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadTransactions()
}

func (s *Store) ListTransactionsInRange(_ context.Context, start, end time.Time) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txns, err := s.loadTransactions()
	if err != nil {
		return nil, err
	}
	var out []model.Transaction
	for _, t := range txns {
		if store.InRange(t.Date, start, end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

// Version fingerprints the data files. It changes whenever any of them is
// rewritten with different content, by this process or another.
func (s *Store) Version(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := fnv.New64a()
	for _, name := range []string{AccountsFile, TransactionsFile, SequencesFile} {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reading %s: %w", name, err)
		}
		h.Write(data)
		h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}

func indexOf(txns []model.Transaction, txID string) int {
	return slices.IndexFunc(txns, func(t model.Transaction) bool { return t.ID == txID })
}

func (s *Store) loadAll() ([]model.Account, []model.Transaction, error) {
	accounts, err := s.loadAccounts()
	if err != nil {
		return nil, nil, err
	}
	txns, err := s.loadTransactions()
	if err != nil {
		return nil, nil, err
	}
	return accounts, txns, nil
}

func (s *Store) loadAccounts() ([]model.Account, error) {
	var accounts []model.Account
	err := s.read(AccountsFile, func(r io.Reader) (err error) {
		accounts, err = ReadAccounts(r)
		return err
	})
	return accounts, err
}

func (s *Store) loadTransactions() ([]model.Transaction, error) {
	var txns []model.Transaction
	err := s.read(TransactionsFile, func(r io.Reader) (err error) {
		txns, err = ReadTransactions(r)
		return err
	})
	return txns, err
}

func (s *Store) loadSequences() (id.Sequences, error) {
	seqs := id.Sequences{}
	err := s.read(SequencesFile, func(r io.Reader) (err error) {
		seqs, err = ReadSequences(r)
		return err
	})
	return seqs, err
}

func (s *Store) read(name string, decode func(io.Reader) error) error {
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()
	if err := decode(f); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// file is the new content of one data file, or the encoding error that
// prevented building it.
type file struct {
	name string
	data []byte
	err  error
}

func accountsFile(accounts []model.Account) file {
	var buf bytes.Buffer
	err := WriteAccounts(&buf, accounts)
	return file{name: AccountsFile, data: buf.Bytes(), err: err}
}

func transactionsFile(txns []model.Transaction) file {
	var buf bytes.Buffer
	err := WriteTransactions(&buf, txns)
	return file{name: TransactionsFile, data: buf.Bytes(), err: err}
}

func sequencesFile(seqs id.Sequences) file {
	var buf bytes.Buffer
	err := WriteSequences(&buf, seqs)
	return file{name: SequencesFile, data: buf.Bytes(), err: err}
}

// staged is a file written to a temp path next to its target, along with
// the target's contents before the commit.
type staged struct {
	name    string
	tmp     string
	prev    []byte
	existed bool
}

// commit replaces files in the order given. Every file is staged before the
// first rename; if a rename fails, the files already replaced get their
// previous contents back, so a failed mutation leaves the directory as it
// was. Callers list transactions.csv last.
func (s *Store) commit(files ...file) error {
	var pending []staged
	defer func() {
		for _, st := range pending {
			os.Remove(st.tmp)
		}
	}()

	for _, f := range files {
		if f.err != nil {
			return fmt.Errorf("encoding %s: %w", f.name, f.err)
		}
		prev, err := os.ReadFile(filepath.Join(s.dir, f.name))
		existed := err == nil
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", f.name, err)
		}
		tmp, err := s.stage(f.name, f.data)
		if err != nil {
			return err
		}
		pending = append(pending, staged{name: f.name, tmp: tmp, prev: prev, existed: existed})
	}

	for i, st := range pending {
		if err := s.rename(st.tmp, filepath.Join(s.dir, st.name)); err != nil {
			err = fmt.Errorf("replacing %s: %w", st.name, err)
			return errors.Join(err, s.restore(pending[:i]))
		}
	}
	return nil
}

// restore puts back the previous contents of files replaced by a failed
// commit, newest first.
func (s *Store) restore(done []staged) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		path := filepath.Join(s.dir, st.name)
		if !st.existed {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("restoring %s: %w", st.name, err))
			}
			continue
		}
		tmp, err := s.stage(st.name, st.prev)
		if err == nil {
			if err = s.rename(tmp, path); err != nil {
				os.Remove(tmp)
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restoring %s: %w", st.name, err))
		}
	}
	return errors.Join(errs...)
}

// stage writes data to a new temp file in the data directory and returns
// its path.
func (s *Store) stage(name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing %s: %w", name, err)
	}
	return tmp.Name(), nil
}
