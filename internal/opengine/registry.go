package opengine

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry defaults.
const (
	DefaultSoftCap    = 50
	DefaultPurgeBatch = 20
)

type record struct {
	mu       sync.RWMutex
	snap     Snapshot
	controls *Controls
	done     chan struct{}
}

func newRecord(snap Snapshot, controls *Controls) *record {
	return &record{
		snap:     snap,
		controls: controls,
		done:     make(chan struct{}),
	}
}

func (r *record) snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snap.clone()
}

// update applies fn under the lock and returns the resulting snapshot.
func (r *record) update(fn func(*Snapshot)) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn(&r.snap)

	return r.snap.clone()
}

// Registry owns every operation record. It keeps at most softCap records
// while terminal ones can be purged; active records are never evicted.
type Registry struct {
	mu         sync.Mutex
	records    map[string]*record
	softCap    int
	purgeBatch int
}

// NewRegistry creates a registry. softCap <= 0 selects DefaultSoftCap.
func NewRegistry(softCap int) *Registry {
	if softCap <= 0 {
		softCap = DefaultSoftCap
	}

	return &Registry{
		records:    make(map[string]*record),
		softCap:    softCap,
		purgeBatch: DefaultPurgeBatch,
	}
}

// Len returns the number of records held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.records)
}

// Snapshot returns a copy of the record's state.
func (r *Registry) Snapshot(id string) (Snapshot, bool) {
	rec, ok := r.lookup(id)
	if !ok {
		return Snapshot{}, false
	}

	return rec.snapshot(), true
}

// Snapshots returns copies of every record, oldest first.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	recs := lo.Values(r.records)
	r.mu.Unlock()

	snaps := lo.Map(recs, func(rec *record, _ int) Snapshot { return rec.snapshot() })
	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID < snaps[j].ID
		}

		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})

	return snaps
}

// Controls returns the control handle of an operation.
func (r *Registry) Controls(id string) (*Controls, bool) {
	rec, ok := r.lookup(id)
	if !ok {
		return nil, false
	}

	return rec.controls, true
}

func (r *Registry) lookup(id string) (*record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]

	return rec, ok
}

func (r *Registry) insert(rec *record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) >= r.softCap {
		r.purgeLocked()
	}

	r.records[rec.snap.ID] = rec
}

// purgeLocked drops up to purgeBatch terminal records, oldest first.
func (r *Registry) purgeLocked() {
	type candidate struct {
		id   string
		snap Snapshot
	}

	terminal := lo.FilterMap(lo.Entries(r.records), func(e lo.Entry[string, *record], _ int) (candidate, bool) {
		snap := e.Value.snapshot()

		return candidate{id: e.Key, snap: snap}, snap.State.IsTerminal()
	})

	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].snap.CreatedAt.Before(terminal[j].snap.CreatedAt)
	})

	for _, c := range lo.Slice(terminal, 0, r.purgeBatch) {
		delete(r.records, c.id)
	}
}

func (r *Registry) active() []*record {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.Filter(lo.Values(r.records), func(rec *record, _ int) bool {
		return !rec.snapshot().State.IsTerminal()
	})
}
