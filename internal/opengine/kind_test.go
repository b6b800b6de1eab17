//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package opengine_test

import (
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/bulkops/internal/opengine"
)

func TestParseKind(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	for text, want := range map[string]opengine.Kind{
		"copy":    opengine.KindCopy,
		"MOVE":    opengine.KindMove,
		" delete": opengine.KindDelete,
		"Trash":   opengine.KindTrash,
	} {
		kind, err := opengine.ParseKind(text)
		g.Expect(err).NotTo(HaveOccurred(), text)
		g.Expect(kind).To(Equal(want))
	}

	_, err := opengine.ParseKind("shred")
	g.Expect(err).To(MatchError(opengine.ErrUnknownKind))
}

func TestKindTextRoundTrip(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var kind opengine.Kind
	g.Expect(kind.UnmarshalText([]byte("trash"))).To(Succeed())
	g.Expect(kind).To(Equal(opengine.KindTrash))

	text, err := kind.MarshalText()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(text)).To(Equal("trash"))

	g.Expect(kind.UnmarshalText([]byte("nope"))).To(MatchError(opengine.ErrUnknownKind))
	g.Expect(opengine.Kind(9).String()).To(Equal("Kind(9)"))
}

func TestTerminalStates(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(opengine.StateCompleted.IsTerminal()).To(BeTrue())
	g.Expect(opengine.StateCancelled.IsTerminal()).To(BeTrue())
	g.Expect(opengine.StateError.IsTerminal()).To(BeTrue())
	g.Expect(opengine.StateRunning.IsTerminal()).To(BeFalse())
	g.Expect(opengine.StatePaused.IsTerminal()).To(BeFalse())
	g.Expect(opengine.StateWaitingForConflictResolution.IsTerminal()).To(BeFalse())
	g.Expect(opengine.StatePaused.String()).To(Equal("Paused"))
}

func TestSnapshotPercent(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(opengine.Snapshot{TotalBytes: 200, ProcessedBytes: 50}.Percent()).To(Equal(25.0))
	g.Expect(opengine.Snapshot{TotalFiles: 4, ProcessedFiles: 3}.Percent()).To(Equal(75.0))
	g.Expect(opengine.Snapshot{TotalBytes: 10, ProcessedBytes: 20}.Percent()).To(Equal(100.0))
	g.Expect(opengine.Snapshot{State: opengine.StateCompleted}.Percent()).To(Equal(100.0))
	g.Expect(opengine.Snapshot{State: opengine.StateRunning}.Percent()).To(BeZero())
}

func TestChannelEmitterNeverBlocks(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	emitter := opengine.NewChannelEmitter(1)
	emitter.Emit(opengine.ProgressTick{Snapshot: opengine.Snapshot{ID: "first"}})
	emitter.Emit(opengine.ProgressTick{Snapshot: opengine.Snapshot{ID: "dropped"}})

	event := <-emitter.Events()
	g.Expect(event).To(Equal(opengine.ProgressTick{Snapshot: opengine.Snapshot{ID: "first"}}))
	g.Expect(emitter.Events()).NotTo(Receive())

	var got []opengine.Event

	multi := opengine.MultiEmitter{
		opengine.EmitterFunc(func(e opengine.Event) { got = append(got, e) }),
		opengine.EmitterFunc(func(e opengine.Event) { got = append(got, e) }),
	}
	multi.Emit(opengine.HistoryRecorded{OperationID: "op"})
	g.Expect(got).To(HaveLen(2))
}
