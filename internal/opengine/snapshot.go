package opengine

import "time"

// Totals are byte and file counts for an operation.
type Totals struct {
	Bytes int64
	Files int
}

// Request describes an operation to submit.
type Request struct {
	Kind        Kind
	Sources     []string
	Destination string // ignored for Delete and Trash
	Turbo       bool
	// IsCrossVolume is a caller hint shown in snapshots.
	IsCrossVolume bool
	// TotalsHint is shown in snapshots until planning computes real totals.
	TotalsHint *Totals
	// Exclude holds doublestar patterns matched against paths relative to
	// each source root.
	Exclude []string
}

// Snapshot is a point-in-time copy of an operation's observable state.
type Snapshot struct {
	ID             string
	Kind           Kind
	Sources        []string
	Destination    string
	State          State
	Reason         string
	Suggestions    []string
	TotalBytes     int64
	ProcessedBytes int64
	TotalFiles     int
	ProcessedFiles int
	CurrentFile    string
	Throughput     float64 // bytes per second
	Turbo          bool
	IsCrossVolume  bool
	FastMoved      int
	CreatedAt      time.Time
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Percent returns progress in [0, 100], by bytes when byte totals are known
// and by files otherwise.
func (s Snapshot) Percent() float64 {
	switch {
	case s.TotalBytes > 0:
		return min(100, float64(s.ProcessedBytes)/float64(s.TotalBytes)*100) //nolint:mnd // percent
	case s.TotalFiles > 0:
		return min(100, float64(s.ProcessedFiles)/float64(s.TotalFiles)*100) //nolint:mnd // percent
	case s.State == StateCompleted:
		return 100 //nolint:mnd // percent
	default:
		return 0
	}
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Sources = append([]string(nil), s.Sources...)
	out.Suggestions = append([]string(nil), s.Suggestions...)

	return out
}
