package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/httpapi"
)

const (
	shutdownTimeout = 10 * time.Second
	cacheSweepEvery = time.Minute
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "api", func(a *app) error {
				if a.cfg.Storage.Backend == config.BackendRemote {
					return errors.New("serve needs a local storage backend, not remote")
				}
				if cmd.Flags().Changed("addr") {
					a.cfg.Server.Addr = addr
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return serve(ctx, a)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then drains it.
func serve(ctx context.Context, a *app) error {
	gin.SetMode(gin.ReleaseMode)
	api := httpapi.New(a.accounts, a.ledger, a.cache, a.log)
	srv := &http.Server{
		Addr: a.cfg.Server.Addr,
		Handler: api.Handler(httpapi.Options{
			AllowOrigins:    a.cfg.Server.AllowOrigins,
			APIUser:         a.cfg.Server.APIUser,
			APIPasswordHash: a.cfg.Server.APIPasswordHash,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("listening", "addr", srv.Addr, "backend", a.cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if mem := a.mem; mem != nil {
		g.Go(func() error {
			ticker := time.NewTicker(cacheSweepEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if n := mem.CleanExpired(); n > 0 {
						a.log.Debug("cache sweep", "expired", n, "cached", mem.Len())
					}
				}
			}
		})
	}
	return g.Wait()
}
