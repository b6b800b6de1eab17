//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package opengine_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/joe/bulkops/internal/history"
	"github.com/joe/bulkops/internal/opengine"
	"github.com/joe/bulkops/pkg/filesystem"
)

// fastClock shortens every tick and sleep so throttled runs finish quickly.
type fastClock struct {
	*opengine.RealTimeProvider
}

func newFastClock() fastClock {
	return fastClock{RealTimeProvider: &opengine.RealTimeProvider{}}
}

func (fastClock) NewTicker(d time.Duration) opengine.Ticker {
	return (&opengine.RealTimeProvider{}).NewTicker(d / 10)
}

func (fastClock) Sleep(d time.Duration) {
	time.Sleep(d / 50)
}

// hookFS is the real filesystem with optional interception points.
type hookFS struct {
	*filesystem.RealFileSystem

	onOpen     func(path string)
	onLstat    func(path string)
	failRename bool
	openErr    map[string]error
}

func newHookFS() *hookFS {
	return &hookFS{RealFileSystem: filesystem.NewRealFileSystem()}
}

func (h *hookFS) Open(path string) (filesystem.File, error) {
	if h.onOpen != nil {
		h.onOpen(path)
	}

	if err, ok := h.openErr[path]; ok {
		return nil, err
	}

	return h.RealFileSystem.Open(path)
}

func (h *hookFS) Lstat(path string) (os.FileInfo, error) {
	if h.onLstat != nil {
		h.onLstat(path)
	}

	return h.RealFileSystem.Lstat(path)
}

func (h *hookFS) Rename(oldPath, newPath string) error {
	if h.failRename {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: syscall.EXDEV}
	}

	return h.RealFileSystem.Rename(oldPath, newPath)
}

// fakeShell records calls and optionally fails them.
type fakeShell struct {
	mu        sync.Mutex
	deletes   [][]string
	trashes   [][]string
	deleteErr error
	trashErr  error
	journal   *journal
}

func (s *fakeShell) DeleteAll(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes = append(s.deletes, append([]string(nil), paths...))
	s.journal.add("shell")

	return s.deleteErr
}

func (s *fakeShell) TrashAll(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trashes = append(s.trashes, append([]string(nil), paths...))
	s.journal.add("shell")

	return s.trashErr
}

func (s *fakeShell) calls() (deletes, trashes [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([][]string(nil), s.deletes...), append([][]string(nil), s.trashes...)
}

type fakeArchive struct {
	mu      sync.Mutex
	removed map[string][]string
	err     error
	journal *journal
}

func (a *fakeArchive) RemoveEntries(archivePath string, entries []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.removed == nil {
		a.removed = map[string][]string{}
	}

	a.removed[archivePath] = append(a.removed[archivePath], entries...)
	a.journal.add("archive")

	return a.err
}

// journal records the order collaborators were called in.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	if j == nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]string(nil), j.entries...)
}

type fakeLedger struct {
	mu  sync.Mutex
	txs []history.Transaction
	err error
}

func (l *fakeLedger) Record(tx history.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return l.err
	}

	l.txs = append(l.txs, tx)

	return nil
}

func (l *fakeLedger) recorded() []history.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]history.Transaction(nil), l.txs...)
}

// recorder keeps every event in order.
type recorder struct {
	mu     sync.Mutex
	events []opengine.Event
}

func (r *recorder) Emit(event opengine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recorder) all() []opengine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]opengine.Event(nil), r.events...)
}

// snapshots returns the snapshots carried by every event, in order.
func (r *recorder) snapshots() []opengine.Snapshot {
	var out []opengine.Snapshot

	for _, event := range r.all() {
		switch e := event.(type) {
		case opengine.StatusChanged:
			out = append(out, e.Snapshot)
		case opengine.ProgressTick:
			out = append(out, e.Snapshot)
		}
	}

	return out
}

func newManager(t *testing.T, opts ...opengine.Option) *opengine.Manager {
	t.Helper()

	base := []opengine.Option{
		opengine.WithTimeProvider(newFastClock()),
		opengine.WithPriority(opengine.NoopPriority),
		opengine.WithShell(&fakeShell{}),
	}

	mgr := opengine.NewManager(append(base, opts...)...)
	t.Cleanup(mgr.Close)

	return mgr
}

func wait(t *testing.T, mgr *opengine.Manager, id string) opengine.Snapshot {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	snap, err := mgr.Wait(ctx, id)
	if err != nil {
		t.Fatalf("operation %s did not finish: %v (state %s)", id, err, snap.State)
	}

	return snap
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func patterned(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}

	return data
}
