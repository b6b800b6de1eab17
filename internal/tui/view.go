package tui

import (
	"fmt"
	"strings"

	"github.com/joe/bulkops/internal/opengine"
	"github.com/joe/bulkops/internal/tui/shared"
)

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(shared.RenderTitle("bulkops " + m.snap.Kind.String()))
	b.WriteString("\n")
	b.WriteString(m.renderTarget())
	b.WriteString("\n\n")
	b.WriteString(m.renderState())
	b.WriteString("\n")

	if m.snap.State != opengine.StateQueued && m.snap.State != opengine.StateCalculating {
		b.WriteString(shared.RenderBar(m.progress, m.snap))
		b.WriteString(fmt.Sprintf(" %5.1f%%\n", m.snap.Percent()))
		b.WriteString(m.renderCounters())
		b.WriteString("\n")
	}

	if m.snap.CurrentFile != "" && !m.snap.State.IsTerminal() {
		b.WriteString(shared.RenderLabel("Current: "))
		b.WriteString(shared.TruncatePath(m.snap.CurrentFile, m.pathWidth()))
		b.WriteString("\n")
	}

	if m.snap.FastMoved > 0 {
		b.WriteString(shared.RenderDim(fmt.Sprintf("Renamed in place: %d\n", m.snap.FastMoved)))
	}

	if m.snap.State == opengine.StateError {
		b.WriteString("\n")
		b.WriteString(shared.RenderError(m.snap.Reason))
		b.WriteString("\n")

		for _, suggestion := range m.snap.Suggestions {
			b.WriteString("  • " + suggestion + "\n")
		}
	}

	if m.historyID != "" {
		b.WriteString(shared.RenderDim("Recorded for undo\n"))
	}

	b.WriteString("\n")
	b.WriteString(shared.RenderDim(m.renderHelp()))

	return shared.RenderBox(b.String()) + "\n"
}

func (m *Model) renderTarget() string {
	sources := fmt.Sprintf("%d source", len(m.snap.Sources))
	if len(m.snap.Sources) != 1 {
		sources += "s"
	}

	if m.snap.Destination == "" {
		return shared.RenderDim(sources)
	}

	return shared.RenderDim(sources + " → " + m.snap.Destination)
}

func (m *Model) renderState() string {
	var state string

	switch m.snap.State {
	case opengine.StateCompleted:
		state = shared.RenderSuccess("✓ Completed")
	case opengine.StateCancelled:
		state = shared.RenderWarning("Cancelled")
	case opengine.StateError:
		state = shared.RenderError("✗ Failed")
	case opengine.StatePaused:
		state = shared.RenderWarning("Paused")
	default:
		state = m.spinner.View() + " " + m.snap.State.String()

		if m.cancelled {
			state += " (cancelling)"
		}
	}

	mode := "background"
	if m.snap.Turbo {
		mode = "turbo"
	}

	return state + "  " + shared.RenderLabel(mode)
}

func (m *Model) renderCounters() string {
	parts := []string{fmt.Sprintf("Files: %d/%d", m.snap.ProcessedFiles, m.snap.TotalFiles)}

	if m.snap.TotalBytes > 0 {
		parts = append(parts, fmt.Sprintf("Bytes: %s / %s",
			shared.FormatBytes(m.snap.ProcessedBytes), shared.FormatBytes(m.snap.TotalBytes)))
	}

	if m.snap.Throughput > 0 {
		parts = append(parts, "Speed: "+shared.FormatRate(m.snap.Throughput))

		if eta, ok := shared.ETA(m.snap.TotalBytes-m.snap.ProcessedBytes, m.snap.Throughput); ok {
			parts = append(parts, "ETA: "+shared.FormatDuration(eta))
		}
	}

	return strings.Join(parts, "   ")
}

func (m *Model) renderHelp() string {
	if m.snap.State.IsTerminal() {
		return "q quit"
	}

	pause := "p pause"
	if m.paused {
		pause = "p resume"
	}

	return pause + " · t turbo · c cancel"
}

func (m *Model) pathWidth() int {
	if m.width == 0 {
		return shared.MaxProgressBarWidth
	}

	return max(m.width-4*shared.DefaultPadding-len("Current: "), shared.ProgressEllipsisLength+1)
}
