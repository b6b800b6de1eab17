package shared

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/bulkops/internal/opengine"
)

// PollInterval is how often the view asks the engine for a fresh snapshot.
const PollInterval = 100 * time.Millisecond

// SnapshotMsg carries a polled snapshot of the watched operation.
type SnapshotMsg struct {
	Snapshot opengine.Snapshot
}

// PollMsg is sent every PollInterval.
type PollMsg time.Time

// PollCmd schedules the next PollMsg.
func PollCmd() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return PollMsg(t)
	})
}
