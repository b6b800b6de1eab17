// Package opengine runs bulk Copy, Move, Delete and Trash operations on a
// pool of OS threads. Each operation is observable through snapshots and
// controllable through cooperative cancel, pause and turbo signals.
package opengine

import (
	"fmt"
	"strings"
)

// Kind is the operation type.
type Kind int

// Operation kinds.
const (
	KindCopy Kind = iota
	KindMove
	KindDelete
	KindTrash
)

//nolint:gochecknoglobals // lookup table
var kindNames = map[Kind]string{
	KindCopy:   "copy",
	KindMove:   "move",
	KindDelete: "delete",
	KindTrash:  "trash",
}

// ParseKind parses copy, move, delete or trash (case-insensitive).
func ParseKind(text string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(text))
	for kind, name := range kindNames {
		if name == want {
			return kind, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, text)
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// UnmarshalText implements encoding.TextUnmarshaler (used by go-arg).
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k Kind) valid() bool {
	_, ok := kindNames[k]

	return ok
}

// State is the lifecycle state of an operation.
type State int

// Operation states. WaitingForConflictResolution is reserved: no transition
// enters it.
const (
	StateQueued State = iota
	StateCalculating
	StateRunning
	StatePaused
	StateCompleted
	StateCancelled
	StateError
	StateWaitingForConflictResolution
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "Queued"
	case StateCalculating:
		return "Calculating"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateCompleted:
		return "Completed"
	case StateCancelled:
		return "Cancelled"
	case StateError:
		return "Error"
	case StateWaitingForConflictResolution:
		return "WaitingForConflictResolution"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether s is Completed, Cancelled or Error.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateError
}
