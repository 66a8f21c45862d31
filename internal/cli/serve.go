package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lazypower/ecan/internal/config"
	"github.com/lazypower/ecan/internal/logging"
	"github.com/lazypower/ecan/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agents on a schedule and serve status over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := newHost(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	logger.Info("ecan starting",
		zap.String("version", VersionString()),
		zap.String("store", h.storeDesc),
		zap.String("config", path),
		zap.Duration("interval", cfg.Scheduler.Interval))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return h.sched.Run(ctx) })

	g.Go(func() error {
		err := config.Watch(ctx, path, h.holder, logger, nil)
		if err != nil {
			// A missing config directory only costs live reload.
			logger.Warn("config watch disabled", zap.Error(err))
		}
		return nil
	})

	if cfg.Server.Enabled {
		httpServer := &http.Server{
			Addr:    cfg.ListenAddr(),
			Handler: server.New(h.store, h.bank, h.sched, VersionString(), logger),
		}
		g.Go(func() error {
			logger.Info("status server listening", zap.String("addr", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("ecan stopped")
	return err
}
