package opengine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joe/bulkops/internal/archive"
	"github.com/joe/bulkops/internal/shellops"
	pkgerrors "github.com/joe/bulkops/pkg/errors"
	"github.com/joe/bulkops/pkg/fileops"
	"github.com/joe/bulkops/pkg/filesystem"
)

// Manager is the caller-facing side of the engine: it validates and submits
// requests, exposes snapshots and routes control signals.
type Manager struct {
	registry    *Registry
	fs          filesystem.FileSystem
	archive     ArchiveRemover
	split       VirtualPathSplitter
	shell       Shell
	ledger      HistoryLedger
	priority    PriorityFactory
	emitter     EventEmitter
	log         zerolog.Logger
	clock       TimeProvider
	workers     int
	onFileError func(FileError)
	enricher    pkgerrors.Enricher

	wg     sync.WaitGroup
	mu     sync.Mutex // guards closed against wg.Add
	closed atomic.Bool
}

// NewManager creates a Manager. Without options it uses the real filesystem,
// zip archive support, freedesktop trash and the platform priority strategy,
// and records no history.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		fs:       filesystem.NewRealFileSystem(),
		archive:  archive.NewRemover(),
		split:    archive.SplitVirtualPath,
		shell:    shellops.New(),
		priority: NewPriorityStrategy,
		emitter:  nopEmitter{},
		log:      zerolog.Nop(),
		clock:    &RealTimeProvider{},
		enricher: pkgerrors.NewEnricher(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = NewRegistry(DefaultSoftCap)
	}

	if m.workers <= 0 {
		m.workers = DefaultWorkers()
	}

	return m
}

// Registry returns the registry the manager stores records in.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Submit validates req, stores a Queued record and starts the operation in
// the background. It returns the operation id without waiting.
func (m *Manager) Submit(req Request) (string, error) {
	err := validate(req)
	if err != nil {
		return "", err
	}

	filter, err := NewGlobFilter(req.Exclude)
	if err != nil {
		return "", err
	}

	controls := &Controls{}
	controls.SetTurbo(req.Turbo)

	snap := Snapshot{
		ID:            uuid.NewString(),
		Kind:          req.Kind,
		Sources:       append([]string(nil), req.Sources...),
		State:         StateQueued,
		Turbo:         req.Turbo,
		IsCrossVolume: req.IsCrossVolume,
		CreatedAt:     m.clock.Now(),
	}

	if req.Kind == KindCopy || req.Kind == KindMove {
		snap.Destination = req.Destination
	}

	if req.TotalsHint != nil {
		snap.TotalBytes = req.TotalsHint.Bytes
		snap.TotalFiles = req.TotalsHint.Files
	}

	rec := newRecord(snap, controls)

	m.mu.Lock()
	if m.closed.Load() {
		m.mu.Unlock()

		return "", ErrManagerClosed
	}

	m.wg.Add(1)
	m.registry.insert(rec)
	m.mu.Unlock()

	m.log.Info().Str("id", snap.ID).Stringer("kind", req.Kind).Int("sources", len(req.Sources)).
		Bool("turbo", req.Turbo).Msg("operation submitted")
	m.emitter.Emit(StatusChanged{Snapshot: rec.snapshot()})

	go func() {
		defer m.wg.Done()
		defer close(rec.done)

		m.supervise(rec, req, filter)
	}()

	return snap.ID, nil
}

func validate(req Request) error {
	if !req.Kind.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(req.Kind))
	}

	if len(req.Sources) == 0 {
		return ErrNoSources
	}

	if (req.Kind == KindCopy || req.Kind == KindMove) && req.Destination == "" {
		return ErrNoDestination
	}

	return nil
}

// Status returns a snapshot of the operation.
func (m *Manager) Status(id string) (Snapshot, bool) {
	return m.registry.Snapshot(id)
}

// List returns snapshots of every known operation, oldest first.
func (m *Manager) List() []Snapshot {
	return m.registry.Snapshots()
}

// Cancel requests cancellation. It reports whether the operation exists.
func (m *Manager) Cancel(id string) bool {
	controls, ok := m.registry.Controls(id)
	if ok {
		controls.Cancel()
	}

	return ok
}

// Pause pauses the operation. It reports whether the operation exists.
func (m *Manager) Pause(id string) bool {
	return m.setPaused(id, true)
}

// Resume resumes a paused operation. It reports whether the operation exists.
func (m *Manager) Resume(id string) bool {
	return m.setPaused(id, false)
}

// setPaused flips the pause flag and, while the workers run, the state with
// it. Other phases pick the flag up when they enter Running.
func (m *Manager) setPaused(id string, paused bool) bool {
	rec, ok := m.registry.lookup(id)
	if !ok {
		return false
	}

	if paused {
		rec.controls.Pause()
	} else {
		rec.controls.Resume()
	}

	from, to := StateRunning, StatePaused
	if !paused {
		from, to = StatePaused, StateRunning
	}

	var changed bool

	snap := rec.update(func(s *Snapshot) {
		if s.State == from {
			s.State = to
			changed = true
		}
	})

	if changed {
		m.log.Debug().Str("id", snap.ID).Stringer("state", to).Msg("state changed")
		m.emitter.Emit(StatusChanged{Snapshot: snap})
	}

	return true
}

// SetTurbo switches turbo mode. It reports whether the operation exists.
func (m *Manager) SetTurbo(id string, on bool) bool {
	rec, ok := m.registry.lookup(id)
	if !ok {
		return false
	}

	rec.controls.SetTurbo(on)

	snap := rec.update(func(s *Snapshot) {
		s.Turbo = on
	})

	m.emitter.Emit(StatusChanged{Snapshot: snap})

	return true
}

// Wait blocks until the operation reaches a terminal state or ctx ends.
func (m *Manager) Wait(ctx context.Context, id string) (Snapshot, error) {
	rec, ok := m.registry.lookup(id)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}

	select {
	case <-rec.done:
		return rec.snapshot(), nil
	case <-ctx.Done():
		return rec.snapshot(), fmt.Errorf("waiting for %s: %w", id, ctx.Err())
	}
}

// Close cancels every active operation and waits for their supervisors.
// Submit fails after Close.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed.Store(true)
	m.mu.Unlock()

	for _, rec := range m.registry.active() {
		rec.controls.Cancel()
	}

	m.wg.Wait()
}

func (m *Manager) transition(rec *record, state State, mutate func(*Snapshot)) {
	snap := rec.update(func(s *Snapshot) {
		if mutate != nil {
			mutate(s)
		}

		s.State = state
	})

	m.log.Debug().Str("id", snap.ID).Stringer("state", state).Msg("state changed")
	m.emitter.Emit(StatusChanged{Snapshot: snap})
}

func (m *Manager) fileOps() *fileops.FileOps {
	ops := fileops.NewFileOps(m.fs)
	ops.Sleep = m.clock.Sleep

	return ops
}
