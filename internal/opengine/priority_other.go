//go:build !linux

package opengine

// NewPriorityStrategy returns the platform strategy. Only Linux supports
// per-thread priority here.
func NewPriorityStrategy() PriorityStrategy {
	return noopPriority{}
}
