package opengine

import "sync/atomic"

// Controls holds the cooperative signals shared by every worker of one
// operation. The zero value is ready to use.
type Controls struct {
	cancel atomic.Bool
	pause  atomic.Bool
	turbo  atomic.Bool
}

// Cancel requests cancellation. It cannot be undone.
func (c *Controls) Cancel() { c.cancel.Store(true) }

// Pause asks workers to stop claiming and copying until Resume.
func (c *Controls) Pause() { c.pause.Store(true) }

// Resume clears a pause.
func (c *Controls) Resume() { c.pause.Store(false) }

// SetTurbo switches between throttled and full-speed mode.
func (c *Controls) SetTurbo(on bool) { c.turbo.Store(on) }

// Cancelled reports whether cancellation was requested.
func (c *Controls) Cancelled() bool { return c.cancel.Load() }

// Paused reports whether the operation is paused.
func (c *Controls) Paused() bool { return c.pause.Load() }

// Turbo reports whether turbo mode is on.
func (c *Controls) Turbo() bool { return c.turbo.Load() }
