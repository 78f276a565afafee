// Command quaderno records expenses from the terminal and prints running
// totals together with a per-category breakdown.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"quaderno/internal/cli"
	"quaderno/internal/config"
	"quaderno/internal/core"
	"quaderno/internal/export"
	"quaderno/internal/log"
	"quaderno/internal/render"
	"quaderno/internal/services"
)

const (
	exitOK      = 0
	exitError   = 1
	exitUsage   = 2
	exitInvalid = 3
	exitStorage = 4
)

const usage = `usage: quaderno [--config file.yaml] <command> [args]

commands:
  add <amount> [note...]     record an expense
  list                       print every expense and the summaries
  summary [--date YYYY-MM-DD] print the summaries for a day
  reset --yes                delete every expense
  export [--out file.xlsx]   write entries and summaries to a workbook
  sync                       rewrite the stored list in the current format
`

func main() {
	cli.LoadEnvFile()
	ctx, stop := cli.GracefulShutdown(context.Background(), log.Discard())
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type app struct {
	svc    *services.ExpenseService
	logger *log.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("quaderno", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "YAML file overriding the environment")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}
	if *configPath != "" {
		if err := os.Setenv(config.FileEnv, *configPath); err != nil {
			fmt.Fprintf(stderr, "quaderno: %v\n", err)
			return exitError
		}
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintf(stderr, "quaderno: %v\n", err)
		return exitUsage
	}
	logger := cli.SetupLogger(stderr, cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentCLI)

	ledger, res, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err)
		return exitError
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	a := &app{logger: logger, stdout: stdout, stderr: stderr}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd != "list" {
		ledger.Initialize(ctx)
	}
	switch cmd {
	case "add":
		a.svc = services.NewExpenseService(ledger, render.NewTerminal(stdout, true), logger)
		return a.add(ctx, rest)
	case "list":
		a.svc = services.NewExpenseService(ledger, render.NewTerminal(stdout, true), logger)
		a.svc.Start(ctx)
		return exitOK
	case "summary":
		a.svc = services.NewExpenseService(ledger, nil, logger)
		return a.summary(rest)
	case "reset":
		a.svc = services.NewExpenseService(ledger, render.NewTerminal(stdout, false), logger)
		return a.reset(ctx, rest)
	case "export":
		a.svc = services.NewExpenseService(ledger, nil, logger)
		return a.export(rest)
	case "sync":
		if err := ledger.Rewrite(ctx); err != nil {
			return a.fail(err)
		}
		fmt.Fprintf(stdout, "saved %d expenses\n", ledger.Len())
		return exitOK
	default:
		fmt.Fprintf(stderr, "quaderno: unknown command %q\n\n", cmd)
		fs.Usage()
		return exitUsage
	}
}

// add takes its arguments verbatim so that "-5" reaches the amount parser
// instead of the flag parser.
func (a *app) add(ctx context.Context, args []string) int {
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Fprintln(a.stderr, "quaderno add: missing amount")
		return exitUsage
	}
	if _, err := a.svc.Submit(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return a.fail(err)
	}
	return exitOK
}

func (a *app) summary(args []string) int {
	fs := a.flagSet("summary")
	date := fs.String("date", "", "day to summarize (YYYY-MM-DD), defaults to today")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	ref, err := a.parseDate(*date)
	if err != nil {
		fmt.Fprintf(a.stderr, "quaderno summary: %v\n", err)
		return exitUsage
	}
	sink := render.NewTerminal(a.stdout, false)
	services.RenderSummary(sink, a.svc.Summary(ref))
	if err := sink.Flush(); err != nil {
		return a.fail(err)
	}
	return exitOK
}

func (a *app) reset(ctx context.Context, args []string) int {
	fs := a.flagSet("reset")
	yes := fs.Bool("yes", false, "confirm deleting every expense")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if !*yes {
		fmt.Fprintln(a.stderr, "quaderno reset: this deletes every expense; rerun with --yes to confirm")
		return exitUsage
	}
	if err := a.svc.Reset(ctx); err != nil {
		return a.fail(err)
	}
	return exitOK
}

func (a *app) export(args []string) int {
	fs := a.flagSet("export")
	out := fs.String("out", "quaderno.xlsx", "workbook path")
	date := fs.String("date", "", "day used for the daily total (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	ref, err := a.parseDate(*date)
	if err != nil {
		fmt.Fprintf(a.stderr, "quaderno export: %v\n", err)
		return exitUsage
	}

	records := a.svc.Ledger().Records()
	data, err := export.BuildWorkbook(records, a.svc.Summary(ref))
	if err != nil {
		return a.fail(err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return a.fail(fmt.Errorf("write %s: %w", *out, err))
	}
	a.logger.Info("Workbook written", log.FieldOperation, log.OpExport, log.FieldRecords, len(records), log.FieldBytes, len(data))
	fmt.Fprintf(a.stdout, "wrote %d expenses to %s\n", len(records), *out)
	return exitOK
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("quaderno "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseDate reads YYYY-MM-DD in the ledger time zone. Empty means now.
func (a *app) parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, a.svc.Ledger().Locale().Loc())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", v)
	}
	return t, nil
}

func (a *app) fail(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		fmt.Fprintf(a.stderr, "quaderno: %v\n", err)
		return exitInvalid
	case errors.Is(err, core.ErrStorageWriteFailure):
		a.logger.Error("Storage write failed", log.FieldError, err)
		return exitStorage
	default:
		a.logger.Error("Command failed", log.FieldError, err)
		return exitError
	}
}
