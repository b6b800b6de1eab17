package opengine

import (
	"github.com/rs/zerolog"

	"github.com/joe/bulkops/internal/history"
	"github.com/joe/bulkops/pkg/filesystem"
)

// ArchiveRemover removes entries from an archive file.
type ArchiveRemover interface {
	RemoveEntries(archivePath string, entries []string) error
}

// Shell is the OS boundary for bulk delete and trash.
type Shell interface {
	DeleteAll(paths []string) error
	TrashAll(paths []string) error
}

// HistoryLedger records completed operations for undo.
type HistoryLedger interface {
	Record(tx history.Transaction) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry injects the registry that owns operation records.
func WithRegistry(registry *Registry) Option {
	return func(m *Manager) {
		m.registry = registry
	}
}

// WithHistory sets the ledger that completed operations are recorded in.
func WithHistory(ledger HistoryLedger) Option {
	return func(m *Manager) {
		m.ledger = ledger
	}
}

// WithArchive sets the archive collaborator and the virtual path splitter.
func WithArchive(remover ArchiveRemover, split VirtualPathSplitter) Option {
	return func(m *Manager) {
		m.archive = remover
		m.split = split
	}
}

// WithShell sets the delete/trash collaborator.
func WithShell(shell Shell) Option {
	return func(m *Manager) {
		m.shell = shell
	}
}

// WithPriority sets how workers create their thread priority strategy.
func WithPriority(factory PriorityFactory) Option {
	return func(m *Manager) {
		m.priority = factory
	}
}

// WithEmitter sets where events are delivered.
func WithEmitter(emitter EventEmitter) Option {
	return func(m *Manager) {
		m.emitter = emitter
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithTimeProvider replaces the clock, tickers and sleeps.
func WithTimeProvider(clock TimeProvider) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithWorkers overrides the pool size. n <= 0 keeps DefaultWorkers.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		m.workers = n
	}
}

// WithFileSystem replaces the filesystem used for planning and copying.
func WithFileSystem(fs filesystem.FileSystem) Option {
	return func(m *Manager) {
		m.fs = fs
	}
}

// WithFileErrorHook receives per-file failures that the engine swallows.
// It must not block.
func WithFileErrorHook(hook func(FileError)) Option {
	return func(m *Manager) {
		m.onFileError = hook
	}
}
