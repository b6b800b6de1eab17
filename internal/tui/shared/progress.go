package shared

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/joe/bulkops/internal/opengine"
)

// NewProgressModel creates the operation progress bar. Percentages are
// rendered by the caller.
func NewProgressModel(width int) progress.Model {
	bar := progress.New(progress.WithSolidFill(accentColorCode), progress.WithoutPercentage())
	bar.Width = width
	bar.EmptyColor = dimColorCode

	return bar
}

// RenderBar draws the bar for snap. Paused operations are drawn in the
// warning color, finished ones in the success or error color.
func RenderBar(model progress.Model, snap opengine.Snapshot) string {
	fraction := snap.Percent() / ProgressPercentageScale

	if colorsDisabled {
		return RenderASCIIBar(fraction, model.Width)
	}

	switch snap.State {
	case opengine.StatePaused:
		model.FullColor = warningColorCode
	case opengine.StateCompleted:
		model.FullColor = successColorCode
	case opengine.StateError, opengine.StateCancelled:
		model.FullColor = errorColorCode
	}

	return model.ViewAs(fraction)
}

// RenderASCIIBar draws "[####------]" with fraction in [0, 1] of width cells filled.
func RenderASCIIBar(fraction float64, width int) string {
	filled := int(min(max(fraction, 0), 1) * float64(width))

	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
