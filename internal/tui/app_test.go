package tui_test

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joe/bulkops/internal/opengine"
	"github.com/joe/bulkops/internal/tui"
	"github.com/joe/bulkops/internal/tui/shared"
)

type fakeController struct {
	mu    sync.Mutex
	snap  opengine.Snapshot
	calls []string
}

func (f *fakeController) Status(id string) (opengine.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.snap, id == f.snap.ID
}

func (f *fakeController) record(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)

	return true
}

func (f *fakeController) Pause(string) bool  { return f.record("pause") }
func (f *fakeController) Resume(string) bool { return f.record("resume") }
func (f *fakeController) Cancel(string) bool { return f.record("cancel") }

func (f *fakeController) SetTurbo(_ string, on bool) bool {
	if on {
		return f.record("turbo on")
	}

	return f.record("turbo off")
}

func (f *fakeController) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

func key(s string) tea.KeyMsg {
	if s == "ctrl+c" {
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}

	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}

	_, ok := cmd().(tea.QuitMsg)

	return ok
}

var _ = Describe("Model", func() {
	var (
		ctrl   *fakeController
		bridge *shared.EventBridge
		model  *tui.Model
		snap   opengine.Snapshot
	)

	BeforeEach(func() {
		snap = opengine.Snapshot{
			ID:             "op-1",
			Kind:           opengine.KindCopy,
			Sources:        []string{"/src/a", "/src/b"},
			Destination:    "/dst",
			State:          opengine.StateRunning,
			TotalBytes:     2048,
			ProcessedBytes: 1024,
			TotalFiles:     4,
			ProcessedFiles: 2,
			CurrentFile:    "/src/a/file.bin",
			Throughput:     512,
		}
		ctrl = &fakeController{snap: snap}
		bridge = shared.NewEventBridge()
		model = tui.NewModel(ctrl, "op-1", bridge)
	})

	AfterEach(func() {
		bridge.Close()
	})

	Describe("Rendering", func() {
		It("starts from the controller's snapshot", func() {
			Expect(model.Snapshot()).To(Equal(snap))
		})

		It("shows kind, target, counters and current file", func() {
			view := model.View()

			Expect(view).To(ContainSubstring("bulkops copy"))
			Expect(view).To(ContainSubstring("2 sources → /dst"))
			Expect(view).To(ContainSubstring("Files: 2/4"))
			Expect(view).To(ContainSubstring("1.0 KB / 2.0 KB"))
			Expect(view).To(ContainSubstring("Speed: 512 B/s"))
			Expect(view).To(ContainSubstring("ETA: 2s"))
			Expect(view).To(ContainSubstring("file.bin"))
			Expect(view).To(ContainSubstring("50.0%"))
			Expect(view).To(ContainSubstring("background"))
		})

		It("shows the failure reason and suggestions", func() {
			failed := snap
			failed.State = opengine.StateError
			failed.Reason = "bulk delete failed: permission denied"
			failed.Suggestions = []string{"Check file permissions"}

			model.Update(shared.EngineEventMsg{Event: opengine.StatusChanged{Snapshot: failed}})

			view := model.View()
			Expect(view).To(ContainSubstring("permission denied"))
			Expect(view).To(ContainSubstring("Check file permissions"))
			Expect(view).To(ContainSubstring("q quit"))
		})
	})

	Describe("Keys", func() {
		It("toggles pause and resume", func() {
			model.Update(key("p"))
			Expect(model.View()).To(ContainSubstring("p resume"))

			model.Update(key("p"))
			Expect(ctrl.recorded()).To(Equal([]string{"pause", "resume"}))
		})

		It("toggles turbo", func() {
			model.Update(key("t"))
			Expect(model.Snapshot().Turbo).To(BeTrue())
			Expect(model.View()).NotTo(ContainSubstring("background"))

			model.Update(key("t"))
			Expect(ctrl.recorded()).To(Equal([]string{"turbo on", "turbo off"}))
		})

		It("cancels on c and ctrl+c without quitting", func() {
			_, cmd := model.Update(key("c"))
			Expect(isQuit(cmd)).To(BeFalse())

			_, cmd = model.Update(key("ctrl+c"))
			Expect(isQuit(cmd)).To(BeFalse())

			Expect(ctrl.recorded()).To(Equal([]string{"cancel", "cancel"}))
			Expect(model.View()).To(ContainSubstring("cancelling"))
		})

		It("ignores q while the operation runs", func() {
			_, cmd := model.Update(key("q"))
			Expect(cmd).To(BeNil())
		})
	})

	Describe("Events", func() {
		It("follows progress ticks of its own operation only", func() {
			next := snap
			next.ProcessedBytes = 2000

			other := snap
			other.ID = "op-2"
			other.ProcessedBytes = 1

			model.Update(shared.EngineEventMsg{Event: opengine.ProgressTick{Snapshot: next}})
			model.Update(shared.EngineEventMsg{Event: opengine.ProgressTick{Snapshot: other}})

			Expect(model.Snapshot().ProcessedBytes).To(Equal(int64(2000)))
		})

		It("remembers the history transaction", func() {
			model.Update(shared.EngineEventMsg{Event: opengine.HistoryRecorded{OperationID: "op-1", TransactionID: "tx-9"}})

			Expect(model.HistoryID()).To(Equal("tx-9"))
			Expect(model.View()).To(ContainSubstring("Recorded for undo"))
		})

		It("quits on a terminal snapshot and keeps it", func() {
			done := snap
			done.State = opengine.StateCompleted
			done.ProcessedBytes = done.TotalBytes

			_, cmd := model.Update(shared.EngineEventMsg{Event: opengine.StatusChanged{Snapshot: done}})
			Expect(isQuit(cmd)).To(BeTrue())

			late := snap
			model.Update(shared.SnapshotMsg{Snapshot: late})
			Expect(model.Snapshot().State).To(Equal(opengine.StateCompleted))
			Expect(model.View()).To(ContainSubstring("Completed"))
		})

		It("recovers a missed terminal event by polling", func() {
			ctrl.mu.Lock()
			ctrl.snap.State = opengine.StateCancelled
			ctrl.mu.Unlock()

			_, cmd := model.Update(shared.PollMsg{})
			Expect(cmd).NotTo(BeNil())

			msg := ctrl.pollOnce()
			_, cmd = model.Update(msg)
			Expect(isQuit(cmd)).To(BeTrue())
			Expect(model.Snapshot().State).To(Equal(opengine.StateCancelled))
		})
	})

	Describe("Window size", func() {
		It("adapts the path width", func() {
			deep := snap
			deep.CurrentFile = "/a/very/long/directory/structure/that/keeps/going/file.bin"
			model.Update(shared.EngineEventMsg{Event: opengine.ProgressTick{Snapshot: deep}})
			model.Update(tea.WindowSizeMsg{Width: 40, Height: 20})

			view := model.View()
			Expect(view).To(ContainSubstring("..."))
			Expect(view).To(ContainSubstring("file.bin"))
			Expect(view).NotTo(ContainSubstring("/a/very/long"))
		})
	})
})

func (f *fakeController) pollOnce() tea.Msg {
	snap, _ := f.Status(f.snap.ID)

	return shared.SnapshotMsg{Snapshot: snap}
}
