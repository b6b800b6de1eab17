package opengine

import "time"

// Progress reporter tuning.
const (
	ReportInterval = 500 * time.Millisecond
	speedSlots     = 4
)

// speedWindow averages the last speedSlots instantaneous rates.
type speedWindow struct {
	samples [speedSlots]float64
	count   int
	next    int
}

// add records rate and returns the mean of the window.
func (w *speedWindow) add(rate float64) float64 {
	w.samples[w.next] = rate
	w.next = (w.next + 1) % speedSlots
	w.count = min(w.count+1, speedSlots)

	var sum float64
	for i := range w.count {
		sum += w.samples[i]
	}

	return sum / float64(w.count)
}

// sample copies the shared counters into the record's display fields.
func sample(snap *Snapshot, prog *progress, controls *Controls) {
	snap.ProcessedBytes = prog.processedBytes.Load()
	snap.ProcessedFiles = int(prog.processedFiles.Load())
	snap.CurrentFile = prog.currentFile()

	// Files may grow while they are copied.
	snap.ProcessedBytes = min(snap.ProcessedBytes, snap.TotalBytes)
	snap.ProcessedFiles = min(snap.ProcessedFiles, snap.TotalFiles)

	switch {
	case snap.State == StateRunning && controls.Paused():
		snap.State = StatePaused
	case snap.State == StatePaused && !controls.Paused():
		snap.State = StateRunning
	}
}

// report publishes a ProgressTick every ReportInterval until done closes.
func (m *Manager) report(rec *record, prog *progress, done <-chan struct{}) {
	ticker := m.clock.NewTicker(ReportInterval)
	defer ticker.Stop()

	var window speedWindow

	lastBytes := prog.processedBytes.Load()
	lastAt := m.clock.Now()

	for {
		select {
		case <-done:
			return
		case <-ticker.C():
		}

		now := m.clock.Now()
		bytes := prog.processedBytes.Load()

		var rate float64
		if elapsed := now.Sub(lastAt).Seconds(); elapsed > 0 {
			rate = float64(bytes-lastBytes) / elapsed
		}

		lastBytes, lastAt = bytes, now
		mean := window.add(rate)

		var changed bool

		snap := rec.update(func(s *Snapshot) {
			prevState := s.State
			sample(s, prog, rec.controls)
			s.Throughput = mean
			changed = prevState != s.State
		})

		if changed {
			m.log.Debug().Str("id", snap.ID).Stringer("state", snap.State).Msg("state changed")
			m.emitter.Emit(StatusChanged{Snapshot: snap})
		}

		m.emitter.Emit(ProgressTick{Snapshot: snap})
	}
}

// finish emits the closing 100% snapshot of an uncancelled run.
func (m *Manager) finish(rec *record) {
	snap := rec.update(func(s *Snapshot) {
		s.ProcessedBytes = s.TotalBytes
		s.ProcessedFiles = s.TotalFiles
		s.Throughput = 0
		s.CurrentFile = ""
	})

	m.emitter.Emit(ProgressTick{Snapshot: snap})
}
