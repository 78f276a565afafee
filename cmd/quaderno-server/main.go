// Command quaderno-server exposes the expense ledger over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"quaderno/internal/cli"
	apphttp "quaderno/internal/http"
	"quaderno/internal/log"
	"quaderno/internal/metrics"
	"quaderno/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err, 1)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	metrics.Init()

	ctx, stop := cli.GracefulShutdown(context.Background(), logger)
	defer stop()

	ledger, res, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to open ledger", err, 1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	svc := services.NewExpenseService(ledger, nil, logger)
	summary := svc.Start(ctx)
	logger.Info("Ledger loaded",
		log.FieldOperation, log.OpStartup,
		log.FieldRecords, ledger.Len(),
		log.FieldAmount, summary.AllTime.Cents)
	srv, err := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:          logger,
		Health:          res.Health,
		SummaryCacheMax: cfg.SummaryCacheSize,
		SummaryCacheTTL: cfg.SummaryCacheTTL,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to configure server", err, 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting quaderno server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if ledger.Pending() {
			if err := ledger.Resync(shutdownCtx); err != nil {
				logger.Error("Unsaved expenses lost on shutdown", log.FieldOperation, log.OpShutdown, log.FieldError, err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		stop()
		_ = res.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
