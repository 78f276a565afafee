// Package cli provides common initialization utilities shared by
// cmd/quaderno and cmd/quaderno-server.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"quaderno/internal/backend"
	"quaderno/internal/config"
	"quaderno/internal/log"
	"quaderno/internal/services"
)

// SetupLogger builds the process logger from level and format names and
// installs it as the slog default.
func SetupLogger(out io.Writer, level, format string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Format = format
	if out != nil {
		cfg.Output = out
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads the environment, applies the optional YAML
// overlay and validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenLedger creates the configured backend and a ledger on top of it.
// The ledger is not loaded yet. Callers close the returned backend.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*services.Ledger, *backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}
	ledger := services.NewLedger(res.Store, bcfg.Locale, logger)
	logger.Info("Ledger ready",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, bcfg.Type.String(),
		log.FieldSlot, bcfg.SlotName)
	return ledger, res, nil
}

// GracefulShutdown returns a context cancelled on the first SIGINT or
// SIGTERM. The returned stop function releases the signal handler.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown, "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// Fatal logs err and exits with code.
func Fatal(logger *log.Logger, msg string, err error, code int) {
	logger.Error(msg, log.FieldError, err)
	os.Exit(code)
}
