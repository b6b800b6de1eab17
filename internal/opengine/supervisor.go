package opengine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/joe/bulkops/internal/history"
	pkgerrors "github.com/joe/bulkops/pkg/errors"
)

// supervise drives one operation from Queued to a terminal state. It is the
// only writer of the record's plan-derived fields.
func (m *Manager) supervise(rec *record, req Request, filter FileFilter) {
	log := m.log.With().Str("id", rec.snap.ID).Stringer("kind", req.Kind).Logger()
	controls := rec.controls

	m.transition(rec, StateCalculating, func(s *Snapshot) {
		s.StartedAt = m.clock.Now()
	})

	planner := NewPlanner(m.fs, m.split, filter, log)
	plan := planner.Plan(req.Kind, req.Sources, req.Destination, controls)

	if controls.Cancelled() {
		m.complete(rec, req, nil)

		return
	}

	m.transition(rec, m.runningState(controls), func(s *Snapshot) {
		s.TotalBytes = plan.TotalBytes
		s.TotalFiles = plan.TotalFiles
		s.FastMoved = plan.FastMoved
	})

	log.Debug().Int64("bytes", plan.TotalBytes).Int("files", plan.TotalFiles).
		Int("fast_moved", plan.FastMoved).Msg("planned")

	prog := &progress{}
	done := make(chan struct{})

	var runErr error

	go func() {
		defer close(done)

		runErr = m.execute(rec, req, plan, prog)
	}()

	m.report(rec, prog, done)

	// Counters are final once the workers have exited.
	rec.update(func(s *Snapshot) {
		sample(s, prog, controls)
	})

	if runErr == nil && !controls.Cancelled() {
		m.finish(rec)
	}

	m.complete(rec, req, runErr)
}

func (m *Manager) runningState(controls *Controls) State {
	if controls.Paused() {
		return StatePaused
	}

	return StateRunning
}

func (m *Manager) execute(rec *record, req Request, plan Plan, prog *progress) error {
	switch req.Kind {
	case KindCopy, KindMove:
		m.executeTransfer(rec, req, plan, prog)

		return nil
	case KindDelete, KindTrash:
		return m.executeRemoval(rec, req, plan, prog)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(req.Kind))
	}
}

func (m *Manager) workerCount(items int) int {
	return max(1, min(m.workers, items))
}

func (m *Manager) executeTransfer(rec *record, req Request, plan Plan, prog *progress) {
	if len(plan.Pairs) == 0 {
		return
	}

	log := m.log.With().Str("id", rec.snap.ID).Logger()
	work := &transfer{
		id:       rec.snap.ID,
		pairs:    plan.Pairs,
		move:     req.Kind == KindMove,
		fs:       m.fs,
		ops:      m.fileOps(),
		controls: rec.controls,
		progress: prog,
		onError:  m.onFileError,
		log:      log,
	}

	pool{
		workers:  m.workerCount(len(plan.Pairs)),
		total:    len(plan.Pairs),
		controls: rec.controls,
		clock:    m.clock,
		priority: m.priority,
		log:      log,
	}.run(work.unit)

	if req.Kind != KindMove || rec.controls.Cancelled() {
		return
	}

	// Deepest directories first so parents empty out before they are tried.
	dirs := append([]string(nil), plan.SlowDirs...)
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))

	ops := m.fileOps()
	for _, dir := range dirs {
		if err := ops.PruneEmptyDirs(dir); err != nil {
			log.Debug().Err(err).Str("dir", dir).Msg("prune source directory")
		}
	}
}

func (m *Manager) executeRemoval(rec *record, req Request, plan Plan, prog *progress) error {
	controls := rec.controls

	for _, arc := range plan.Archives {
		if controls.Cancelled() {
			return nil
		}

		if m.archive == nil {
			return fmt.Errorf("%w: %s", ErrNoArchiveRemover, arc)
		}

		entries := plan.Virtual[arc]
		prog.setCurrent(arc)

		err := m.archive.RemoveEntries(arc, entries)
		if err != nil {
			return fmt.Errorf("failed to remove %d entries from archive %s: %w", len(entries), arc, err)
		}

		prog.processedFiles.Add(int64(len(entries)))
	}

	if len(plan.Real) == 0 {
		return nil
	}

	if controls.Turbo() {
		if controls.Cancelled() {
			return nil
		}

		var err error
		if req.Kind == KindTrash {
			err = m.shell.TrashAll(plan.Real)
		} else {
			err = m.shell.DeleteAll(plan.Real)
		}

		if err != nil {
			return fmt.Errorf("bulk %s failed: %w", req.Kind, err)
		}

		prog.processedFiles.Add(int64(len(plan.Real)))

		return nil
	}

	log := m.log.With().Str("id", rec.snap.ID).Logger()
	work := &removal{
		id:       rec.snap.ID,
		sources:  plan.Real,
		trash:    req.Kind == KindTrash,
		fs:       m.fs,
		shell:    m.shell,
		controls: controls,
		clock:    m.clock,
		progress: prog,
		onError:  m.onFileError,
		log:      log,
	}

	pool{
		workers:  m.workerCount(len(plan.Real)),
		total:    len(plan.Real),
		controls: controls,
		clock:    m.clock,
		priority: m.priority,
		log:      log,
	}.run(work.unit)

	return nil
}

// complete resolves the terminal state. Cancel wins over any other outcome.
func (m *Manager) complete(rec *record, req Request, runErr error) {
	now := m.clock.Now()

	var snap Snapshot

	switch {
	case rec.controls.Cancelled():
		snap = rec.update(func(s *Snapshot) {
			s.State = StateCancelled
			s.Throughput = 0
			s.FinishedAt = now
		})
	case runErr != nil:
		enriched := m.enricher.Enrich(runErr, "")
		suggestions := suggestionsOf(enriched)

		snap = rec.update(func(s *Snapshot) {
			s.State = StateError
			s.Reason = runErr.Error()
			s.Suggestions = suggestions
			s.Throughput = 0
			s.FinishedAt = now
		})
	default:
		snap = rec.update(func(s *Snapshot) {
			s.State = StateCompleted
			s.ProcessedBytes = s.TotalBytes
			s.ProcessedFiles = s.TotalFiles
			s.Throughput = 0
			s.CurrentFile = ""
			s.FinishedAt = now
		})
	}

	event := m.log.Info()
	if snap.State == StateError {
		event = m.log.Warn().Str("reason", snap.Reason)
	}

	event.Str("id", snap.ID).Stringer("state", snap.State).Int("files", snap.ProcessedFiles).
		Int64("bytes", snap.ProcessedBytes).Msg("operation finished")

	m.emitter.Emit(StatusChanged{Snapshot: snap})

	if snap.State == StateCompleted {
		m.recordHistory(snap, req)
	}
}

func (m *Manager) recordHistory(snap Snapshot, req Request) {
	if m.ledger == nil {
		return
	}

	var kind history.Type

	switch req.Kind {
	case KindCopy:
		kind = history.TypeCopy
	case KindMove:
		kind = history.TypeMove
	case KindTrash:
		kind = history.TypeDelete
	case KindDelete:
		return
	}

	tx := history.NewTransaction(kind, history.Details{
		Paths:     append([]string(nil), req.Sources...),
		TargetDir: snap.Destination,
	})

	err := m.ledger.Record(tx)
	if err != nil {
		m.log.Warn().Err(err).Str("id", snap.ID).Msg("failed to record history")

		return
	}

	m.emitter.Emit(HistoryRecorded{OperationID: snap.ID, TransactionID: tx.ID})
}

func suggestionsOf(err error) []string {
	var actionable pkgerrors.ActionableError
	if errors.As(err, &actionable) {
		return actionable.Suggestions()
	}

	return nil
}
