package opengine

import "github.com/rs/zerolog"

// PriorityStrategy lowers and restores the scheduling priority of the
// calling OS thread.
type PriorityStrategy interface {
	EnterBackground() error
	LeaveBackground() error
}

// PriorityFactory creates the strategy a worker uses for its own thread.
type PriorityFactory func() PriorityStrategy

type noopPriority struct{}

func (noopPriority) EnterBackground() error { return nil }
func (noopPriority) LeaveBackground() error { return nil }

// NoopPriority returns a strategy that never touches thread priority.
func NoopPriority() PriorityStrategy {
	return noopPriority{}
}

// throttle tracks one worker's background mode and only calls the strategy
// on transitions.
type throttle struct {
	strategy     PriorityStrategy
	inBackground bool
	stuck        bool // restoring normal priority failed
	log          zerolog.Logger
}

func newThrottle(strategy PriorityStrategy, log zerolog.Logger) *throttle {
	return &throttle{strategy: strategy, log: log}
}

// Observe moves the thread into background mode when turbo is off and back
// when it is on.
func (t *throttle) Observe(turbo bool) {
	switch {
	case !turbo && !t.inBackground:
		if err := t.strategy.EnterBackground(); err != nil {
			t.log.Debug().Err(err).Msg("enter background priority")
		}

		t.inBackground = true
	case turbo && t.inBackground:
		t.leave()
	}
}

// Release restores normal priority if needed. It reports false when the
// thread may still be in background mode.
func (t *throttle) Release() bool {
	if t.inBackground {
		t.leave()
	}

	return !t.stuck
}

func (t *throttle) leave() bool {
	t.inBackground = false

	if err := t.strategy.LeaveBackground(); err != nil {
		t.log.Debug().Err(err).Msg("leave background priority")
		t.stuck = true

		return false
	}

	return true
}
