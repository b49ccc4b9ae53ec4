package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/cache"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/events"
	"github.com/cleared-dev/tally/internal/gitops"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/logging"
	"github.com/cleared-dev/tally/internal/remote"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/csvstore"
	"github.com/cleared-dev/tally/internal/store/memory"
	"github.com/cleared-dev/tally/internal/store/sqlstore"
)

// app is everything a command needs, built from the project configuration.
type app struct {
	root     string
	cfg      *config.Config
	log      *slog.Logger
	store    store.Store
	cache    cache.Summaries
	mem      *cache.Memory // nil unless summaries are cached in-process
	accounts *accounts.Service
	ledger   *ledger.Service

	closers []func() error
}

// loadConfig reads <root>/tally.yaml (defaults when absent), then .env and
// TALLY_* overrides.
func loadConfig(root string) (*config.Config, error) {
	if err := config.LoadDotEnv(root); err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openApp wires the store, publishers and services for the project at root.
// actor names who is acting in the audit log ("cli" or "api").
func openApp(cmd *cobra.Command, root, actor string) (*app, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := loadConfig(absRoot)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cmd.ErrOrStderr(), logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Component: actor})
	if err != nil {
		return nil, err
	}

	a := &app{root: absRoot, cfg: cfg, log: log}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStore(ctx, cfg, absRoot)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, st.Close)

	if err := a.openCache(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if v, ok := st.(versioner); ok {
		a.cache = cache.NewVersioned(a.cache, v.Version)
	}

	pubs := events.Multi{}
	local := cfg.Storage.Backend != config.BackendRemote
	if local {
		pubs = append(pubs, auditlog.NewPublisher(absRoot, actor))
	}
	if local && cfg.Storage.Backend == config.BackendCSV && cfg.Git.AutoCommit && gitops.IsRepo(absRoot) {
		pubs = append(pubs, &gitops.Committer{
			Dir:         absRoot,
			AuthorName:  cfg.Git.AuthorName,
			AuthorEmail: cfg.Git.AuthorEmail,
			Log:         log,
		})
	}
	if cfg.Events.AMQPURL != "" {
		amqp, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		pubs = append(pubs, amqp)
		a.closers = append(a.closers, amqp.Close)
	}
	pubs = append(pubs, cache.Invalidator(a.cache, log))

	a.accounts = accounts.NewService(st, pubs, log)
	a.ledger = ledger.NewService(st, pubs, log)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, root string) (store.Store, error) {
	dsn := cfg.ResolveDSN(root)
	switch cfg.Storage.Backend {
	case config.BackendCSV:
		return csvstore.Open(dsn)
	case config.BackendSQLite:
		return sqlstore.Open(ctx, sqlstore.SQLite, dsn)
	case config.BackendPostgres:
		return sqlstore.Open(ctx, sqlstore.Postgres, dsn)
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendRemote:
		return remote.New(cfg.Remote.URL, cfg.Remote.User, cfg.Remote.Password)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// versioner is implemented by stores that other processes can write to
// directly, such as a CSV directory or a SQLite file.
type versioner interface {
	Version(ctx context.Context) (string, error)
}

func (a *app) openCache(ctx context.Context) error {
	if a.cfg.Cache.RedisURL == "" {
		a.mem = cache.NewMemory(a.cfg.Cache.Size, a.cfg.Cache.TTL)
		a.cache = a.mem
		return nil
	}
	client, err := cache.DialRedis(ctx, a.cfg.Cache.RedisURL)
	if err != nil {
		return err
	}
	a.cache = cache.NewRedis(client, "tally:summary:", a.cfg.Cache.TTL)
	a.closers = append(a.closers, client.Close)
	return nil
}

// Close releases everything openApp acquired, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// withApp opens the app for the --dir project, runs fn and closes it.
func withApp(cmd *cobra.Command, actor string, fn func(a *app) error) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	a, err := openApp(cmd, dir, actor)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
