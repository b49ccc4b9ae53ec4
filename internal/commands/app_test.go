package commands

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/cache"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/summary"
)

func testCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetErr(io.Discard)
	return cmd
}

func TestOpenApp_SummaryCacheSeesOtherWriters(t *testing.T) {
	for _, backend := range []string{config.BackendCSV, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			_, err := runInit(ctx, dir, initOptions{backend: backend, noGit: true})
			require.NoError(t, err)

			server, err := openApp(testCommand(), dir, "api")
			require.NoError(t, err)
			defer server.Close()
			require.NotNil(t, server.mem)

			key := cache.Key(time.Unix(0, 0), time.Unix(100, 0))
			_, _, err = server.cache.Get(ctx, key)
			require.NoError(t, err)
			require.NoError(t, server.cache.Set(ctx, key, summary.Summary{Count: 1}))
			_, ok, err := server.cache.Get(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)

			cli, err := openApp(testCommand(), dir, "cli")
			require.NoError(t, err)
			_, err = cli.accounts.CreateAccount(ctx, "Bank", decimal.Zero, model.AccountTypeBank)
			require.NoError(t, err)
			require.NoError(t, cli.Close())

			_, ok, err = server.cache.Get(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok, "a write from another process purges the server's summaries")
		})
	}
}

func TestOpenApp_MemoryBackendNotVersioned(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	require.NoError(t, config.Save(filepath.Join(dir, config.FileName), cfg))

	a, err := openApp(testCommand(), dir, "cli")
	require.NoError(t, err)
	defer a.Close()
	assert.Same(t, a.mem, a.cache.(*cache.Memory))
}
