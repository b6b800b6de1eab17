package opengine

// Event is the interface implemented by all engine events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// StatusChanged is emitted on every state transition and control change.
type StatusChanged struct {
	Snapshot Snapshot
}

func (StatusChanged) isEvent() {}

// ProgressTick is emitted by the progress reporter every tick.
type ProgressTick struct {
	Snapshot Snapshot
}

func (ProgressTick) isEvent() {}

// HistoryRecorded is emitted after a completed operation is written to the
// history ledger.
type HistoryRecorded struct {
	OperationID   string
	TransactionID string
}

func (HistoryRecorded) isEvent() {}

// ChannelEmitter delivers events on a buffered channel. When the buffer is
// full the event is dropped so workers and supervisors never block on a slow
// consumer.
type ChannelEmitter struct {
	ch chan Event
}

// NewChannelEmitter creates an emitter with the given buffer size.
func NewChannelEmitter(size int) *ChannelEmitter {
	return &ChannelEmitter{ch: make(chan Event, size)}
}

// Emit implements EventEmitter.
func (e *ChannelEmitter) Emit(event Event) {
	select {
	case e.ch <- event:
	default:
	}
}

// Events returns the receive side of the channel.
func (e *ChannelEmitter) Events() <-chan Event {
	return e.ch
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(Event)

// Emit implements EventEmitter.
func (f EmitterFunc) Emit(event Event) {
	f(event)
}

// MultiEmitter fans events out to several emitters in order.
type MultiEmitter []EventEmitter

// Emit implements EventEmitter.
func (m MultiEmitter) Emit(event Event) {
	for _, emitter := range m {
		emitter.Emit(event)
	}
}

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}
