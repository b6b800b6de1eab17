// Package progress renders engine events for non-interactive runs: a
// progress bar for terminals and structured log lines otherwise.
package progress

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/joe/bulkops/internal/opengine"
)

// CLIProgress draws one operation's snapshots as a progress bar. It
// implements opengine.EventEmitter.
type CLIProgress struct {
	mu      sync.Mutex
	w       io.Writer
	bar     *progressbar.ProgressBar
	byFiles bool
	done    bool
}

// NewCLIProgress creates a bar that writes to w (usually stderr).
func NewCLIProgress(w io.Writer) *CLIProgress {
	return &CLIProgress{w: w}
}

// Emit implements opengine.EventEmitter.
func (p *CLIProgress) Emit(event opengine.Event) {
	var snap opengine.Snapshot

	switch e := event.(type) {
	case opengine.StatusChanged:
		snap = e.Snapshot
	case opengine.ProgressTick:
		snap = e.Snapshot
	default:
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return
	}

	switch snap.State {
	case opengine.StateQueued, opengine.StateCalculating:
		return
	case opengine.StateRunning, opengine.StatePaused:
		p.start(snap)
		p.bar.Describe(describe(snap))
		_ = p.bar.Set64(p.position(snap))
	case opengine.StateCompleted:
		p.start(snap)
		p.bar.Describe(describe(snap))
		_ = p.bar.Finish()
		p.done = true
	case opengine.StateCancelled, opengine.StateError, opengine.StateWaitingForConflictResolution:
		if p.bar != nil {
			_ = p.bar.Exit()
		}

		p.report(snap)
		p.done = true
	}
}

func (p *CLIProgress) start(snap opengine.Snapshot) {
	if p.bar != nil {
		return
	}

	p.byFiles = snap.TotalBytes == 0

	total := snap.TotalBytes
	if p.byFiles {
		total = int64(snap.TotalFiles)
	}

	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(describe(snap)),
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionShowBytes(!p.byFiles),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(50), //nolint:mnd // bar width
		progressbar.OptionThrottle(100*time.Millisecond), //nolint:mnd // redraw rate
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(p.w, "\n")
		}),
		progressbar.OptionSpinnerType(14), //nolint:mnd // spinner style
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (p *CLIProgress) position(snap opengine.Snapshot) int64 {
	if p.byFiles {
		return int64(snap.ProcessedFiles)
	}

	return snap.ProcessedBytes
}

func (p *CLIProgress) report(snap opengine.Snapshot) {
	if snap.State == opengine.StateCancelled {
		_, _ = fmt.Fprintf(p.w, "\n%s cancelled after %d of %d items\n", snap.Kind, snap.ProcessedFiles, snap.TotalFiles)

		return
	}

	_, _ = fmt.Fprintf(p.w, "\nError: %s\n", snap.Reason)

	for _, suggestion := range snap.Suggestions {
		_, _ = fmt.Fprintf(p.w, "  - %s\n", suggestion)
	}
}

func describe(snap opengine.Snapshot) string {
	label := snap.Kind.String()

	switch {
	case snap.State == opengine.StatePaused:
		label += " (paused)"
	case snap.Turbo:
		label += " (turbo)"
	}

	if snap.CurrentFile != "" {
		label += " " + filepath.Base(snap.CurrentFile)
	}

	return label
}

// LogReporter writes state changes at info level and progress ticks at
// debug level. It implements opengine.EventEmitter.
type LogReporter struct {
	log zerolog.Logger
}

// NewLogReporter creates a reporter that logs to log.
func NewLogReporter(log zerolog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

// Emit implements opengine.EventEmitter.
func (r *LogReporter) Emit(event opengine.Event) {
	switch e := event.(type) {
	case opengine.StatusChanged:
		entry := r.log.Info()
		if e.Snapshot.State == opengine.StateError {
			entry = r.log.Error().Str("reason", e.Snapshot.Reason).Strs("suggestions", e.Snapshot.Suggestions)
		}

		fields(entry, e.Snapshot).Msg("status")
	case opengine.ProgressTick:
		fields(r.log.Debug(), e.Snapshot).Float64("throughput", e.Snapshot.Throughput).
			Str("current", e.Snapshot.CurrentFile).Msg("progress")
	case opengine.HistoryRecorded:
		r.log.Info().Str("id", e.OperationID).Str("transaction", e.TransactionID).Msg("recorded for undo")
	}
}

func fields(entry *zerolog.Event, snap opengine.Snapshot) *zerolog.Event {
	return entry.Str("id", snap.ID).Stringer("kind", snap.Kind).Stringer("state", snap.State).
		Int("files", snap.ProcessedFiles).Int("total_files", snap.TotalFiles).
		Int64("bytes", snap.ProcessedBytes).Int64("total_bytes", snap.TotalBytes).
		Float64("percent", snap.Percent())
}
