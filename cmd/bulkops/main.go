// Package main is the entry point for the bulkops application.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/bulkops/internal/config"
	"github.com/joe/bulkops/internal/history"
	"github.com/joe/bulkops/internal/logging"
	"github.com/joe/bulkops/internal/opengine"
	"github.com/joe/bulkops/internal/progress"
	"github.com/joe/bulkops/internal/tui"
	"github.com/joe/bulkops/internal/tui/shared"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailed    = 1
	exitCancelled = 130
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailed)
	}

	os.Exit(run(cfg, os.Stdout, os.Stderr))
}

// run executes one operation and returns the process exit code.
func run(cfg *config.Config, stdout, stderr *os.File) int {
	interactive := !cfg.NoTUI && isTerminal(stdout)

	log, closeLog, err := newLogger(cfg, interactive, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)

		return exitFailed
	}
	defer closeLog()

	opts := []opengine.Option{opengine.WithLogger(log), opengine.WithWorkers(cfg.Workers)}

	if !cfg.NoHistory {
		ledger, err := history.Open(cfg.HistoryDB)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.HistoryDB).Msg("history disabled")
		} else {
			defer func() { _ = ledger.Close() }()

			opts = append(opts, opengine.WithHistory(ledger))
		}
	}

	var bridge *shared.EventBridge

	switch {
	case interactive:
		bridge = shared.NewEventBridge()
		defer bridge.Close()

		opts = append(opts, opengine.WithEmitter(bridge))
	case isTerminal(stderr) && cfg.LogFile != "":
		opts = append(opts, opengine.WithEmitter(opengine.MultiEmitter{
			progress.NewCLIProgress(stderr), progress.NewLogReporter(log),
		}))
	case isTerminal(stderr):
		opts = append(opts, opengine.WithEmitter(progress.NewCLIProgress(stderr)))
	default:
		opts = append(opts, opengine.WithEmitter(progress.NewLogReporter(log)))
	}

	mgr := opengine.NewManager(opts...)
	defer mgr.Close()

	id, err := mgr.Submit(prepare(cfg, log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)

		return exitFailed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		mgr.Cancel(id)
	}()

	if interactive {
		if _, err := tui.Run(mgr, id, bridge, tea.WithOutput(stdout)); err != nil {
			log.Error().Err(err).Msg("progress view failed")
		}
	}

	snap, err := mgr.Wait(context.Background(), id)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)

		return exitFailed
	}

	return exitCode(snap)
}

// prepare builds the request and fills the preflight hints for transfers.
func prepare(cfg *config.Config, log zerolog.Logger) opengine.Request {
	req := cfg.Request()
	if req.Kind != opengine.KindCopy && req.Kind != opengine.KindMove {
		return req
	}

	est := opengine.Estimate(req.Sources, req.Destination)
	req.IsCrossVolume = req.IsCrossVolume || est.IsCrossVolume

	if !est.LikelyLarge {
		totals := est.Totals
		req.TotalsHint = &totals
	}

	for _, conflict := range est.Conflicts {
		log.Warn().Str("name", conflict.Name).Str("target", conflict.Target).Msg("destination already exists, it will be overwritten")
	}

	log.Debug().Int("files", est.Totals.Files).Int64("bytes", est.Totals.Bytes).
		Bool("cross_volume", req.IsCrossVolume).Bool("likely_large", est.LikelyLarge).Msg("estimated")

	return req
}

// newLogger writes to the log file when given. The interactive view owns
// the terminal, so without a log file its logs are dropped.
func newLogger(cfg *config.Config, interactive bool, stderr *os.File) (zerolog.Logger, func(), error) {
	var out io.Writer = stderr

	closeLog := func() {}

	switch {
	case cfg.LogFile != "":
		file, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return zerolog.Nop(), closeLog, err
		}

		out = file
		closeLog = func() { _ = file.Close() }
	case interactive:
		out = io.Discard
	}

	log, err := logging.New(cfg.LogLevel, out)
	if err != nil {
		closeLog()

		return zerolog.Nop(), func() {}, err
	}

	return log, closeLog, nil
}

func exitCode(snap opengine.Snapshot) int {
	switch snap.State {
	case opengine.StateCompleted:
		return exitOK
	case opengine.StateCancelled:
		return exitCancelled
	default:
		return exitFailed
	}
}

func isTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd())) //nolint:gosec // fd fits in int
}
