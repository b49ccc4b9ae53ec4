package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/gitops"
)

type initOptions struct {
	backend string
	dsn     string
	noGit   bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tally project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cmd.Flags().GetString("dir")
			if err != nil {
				return err
			}
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			hash, err := runInit(cmd.Context(), absDir, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if hash != "" {
				fmt.Fprintf(out, "Initialized tally project at %s (%s)\n", absDir, hash)
			} else {
				fmt.Fprintf(out, "Initialized tally project at %s\n", absDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.backend, "backend", config.BackendCSV, "storage backend: csv, sqlite or postgres")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "storage location (default depends on backend)")
	cmd.Flags().BoolVar(&opts.noGit, "no-git", false, "skip git init and the initial commit")

	return cmd
}

// runInit lays out a project and returns the initial commit hash, if any.
func runInit(ctx context.Context, dir string, opts initOptions) (string, error) {
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return "", fmt.Errorf("creating directory logs: %w", err)
	}

	cfg := config.Default()
	cfg.Storage.Backend = opts.backend
	switch {
	case opts.dsn != "":
		cfg.Storage.DSN = opts.dsn
	case opts.backend == config.BackendSQLite:
		cfg.Storage.DSN = filepath.Join("data", "tally.db")
	case opts.backend == config.BackendPostgres:
		return "", fmt.Errorf("--dsn is required for the postgres backend")
	}
	switch opts.backend {
	case config.BackendCSV, config.BackendSQLite, config.BackendPostgres:
	default:
		return "", fmt.Errorf("init does not support backend %q", opts.backend)
	}
	cfg.Git.AutoCommit = !opts.noGit && opts.backend == config.BackendCSV

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	gitignore := ".env\n*.db\n*.db-journal\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return "", fmt.Errorf("writing .gitignore: %w", err)
	}

	st, err := openStore(ctx, cfg, dir)
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	existing, err := st.ListAccounts(ctx)
	if err != nil {
		return "", fmt.Errorf("listing accounts: %w", err)
	}
	if len(existing) == 0 {
		for _, a := range accounts.DefaultAccounts() {
			if _, err := st.CreateAccount(ctx, a); err != nil {
				return "", fmt.Errorf("writing default accounts: %w", err)
			}
		}
	}

	if opts.noGit {
		return "", nil
	}
	if !gitops.IsRepo(dir) {
		if err := gitops.Init(dir); err != nil {
			return "", fmt.Errorf("git init: %w", err)
		}
	}
	hash, err := gitops.CommitAll(dir, "init: Initialize tally project", cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return "", fmt.Errorf("initial commit: %w", err)
	}
	return hash, nil
}
