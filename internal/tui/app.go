// Package tui renders a running operation and maps keys to its controls.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/bulkops/internal/opengine"
	"github.com/joe/bulkops/internal/tui/shared"
)

// Controller is the part of the engine the view drives.
type Controller interface {
	Status(id string) (opengine.Snapshot, bool)
	Pause(id string) bool
	Resume(id string) bool
	SetTurbo(id string, on bool) bool
	Cancel(id string) bool
}

// Model is the bubbletea model for one operation.
type Model struct {
	ctrl      Controller
	id        string
	bridge    *shared.EventBridge
	snap      opengine.Snapshot
	progress  progress.Model
	spinner   spinner.Model
	width     int
	paused    bool
	cancelled bool
	historyID string
	quitting  bool
}

// NewModel creates a view of operation id. Events arrive through bridge,
// which must be the emitter the engine was built with.
func NewModel(ctrl Controller, id string, bridge *shared.EventBridge) *Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = shared.LabelStyle()

	model := &Model{
		ctrl:     ctrl,
		id:       id,
		bridge:   bridge,
		progress: shared.NewProgressModel(shared.ProgressBarWidth),
		spinner:  spin,
	}

	if snap, ok := ctrl.Status(id); ok {
		model.snap = snap
		model.paused = snap.State == opengine.StatePaused
	}

	return model
}

// Run shows the model until the operation ends and returns its final snapshot.
func Run(ctrl Controller, id string, bridge *shared.EventBridge, opts ...tea.ProgramOption) (opengine.Snapshot, error) {
	model := NewModel(ctrl, id, bridge)

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return model.Snapshot(), fmt.Errorf("failed to run progress view: %w", err)
	}

	if m, ok := final.(*Model); ok {
		return m.Snapshot(), nil
	}

	return model.Snapshot(), nil
}

// Snapshot returns the latest snapshot the view has seen.
func (m *Model) Snapshot() opengine.Snapshot {
	return m.snap
}

// HistoryID returns the transaction id once the operation was recorded.
func (m *Model) HistoryID() string {
	return m.historyID
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.bridge.ListenCmd(), m.spinner.Tick, shared.PollCmd())
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-4*shared.DefaultPadding, shared.ProgressEllipsisLength),
			shared.MaxProgressBarWidth)

		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case shared.EngineEventMsg:
		m.applyEvent(msg.Event)

		return m, m.next(m.bridge.ListenCmd())
	case shared.PollMsg:
		return m, m.next(tea.Batch(m.pollCmd(), shared.PollCmd()))
	case shared.SnapshotMsg:
		m.applySnapshot(msg.Snapshot)

		return m, m.next(nil)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "p", " ":
		if m.snap.State.IsTerminal() {
			return m, nil
		}

		if m.paused {
			m.ctrl.Resume(m.id)
		} else {
			m.ctrl.Pause(m.id)
		}

		m.paused = !m.paused
	case "t":
		if m.snap.State.IsTerminal() {
			return m, nil
		}

		if m.ctrl.SetTurbo(m.id, !m.snap.Turbo) {
			m.snap.Turbo = !m.snap.Turbo
		}
	case "c", shared.KeyCtrlC:
		if m.snap.State.IsTerminal() {
			m.quitting = true

			return m, tea.Quit
		}

		m.ctrl.Cancel(m.id)
		m.cancelled = true
	case "q", "esc":
		if m.snap.State.IsTerminal() {
			m.quitting = true

			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *Model) applyEvent(event opengine.Event) {
	switch e := event.(type) {
	case opengine.StatusChanged:
		m.applySnapshot(e.Snapshot)
	case opengine.ProgressTick:
		m.applySnapshot(e.Snapshot)
	case opengine.HistoryRecorded:
		if e.OperationID == m.id {
			m.historyID = e.TransactionID
		}
	}
}

// applySnapshot keeps the newest view of the operation. Terminal snapshots
// are never replaced.
func (m *Model) applySnapshot(snap opengine.Snapshot) {
	if snap.ID != m.id || m.snap.State.IsTerminal() {
		return
	}

	m.snap = snap
	m.paused = snap.State == opengine.StatePaused
}

func (m *Model) pollCmd() tea.Cmd {
	return func() tea.Msg {
		snap, ok := m.ctrl.Status(m.id)
		if !ok {
			return nil
		}

		return shared.SnapshotMsg{Snapshot: snap}
	}
}

// next returns cmd, or quits once the operation is terminal.
func (m *Model) next(cmd tea.Cmd) tea.Cmd {
	if m.snap.State.IsTerminal() {
		m.quitting = true

		return tea.Quit
	}

	return cmd
}
