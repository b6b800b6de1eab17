//go:build linux

package opengine

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	backgroundNice = 10
	normalNice     = 0

	ioprioClassShift = 13
	ioprioClassBE    = 2
	ioprioClassIdle  = 3
	ioprioWhoProcess = 1
	ioprioNormalData = 4
)

// threadPriority adjusts the CPU nice value and I/O class of the calling
// thread. Linux applies both per thread when addressed by tid.
type threadPriority struct{}

// NewPriorityStrategy returns the platform strategy.
func NewPriorityStrategy() PriorityStrategy {
	return threadPriority{}
}

// EnterBackground lowers CPU priority and moves I/O to the idle class.
func (threadPriority) EnterBackground() error {
	return setThread(backgroundNice, ioprioClassIdle<<ioprioClassShift)
}

// LeaveBackground restores normal CPU priority and best-effort I/O.
func (threadPriority) LeaveBackground() error {
	return setThread(normalNice, ioprioClassBE<<ioprioClassShift|ioprioNormalData)
}

func setThread(nice, ioprio int) error {
	tid := unix.Gettid()

	err := unix.Setpriority(unix.PRIO_PROCESS, tid, nice)
	if err != nil {
		return fmt.Errorf("setpriority tid %d: %w", tid, err)
	}

	_, _, errno := unix.Syscall(unix.SYS_IOPRIO_SET, ioprioWhoProcess, uintptr(tid), uintptr(ioprio))
	if errno != 0 {
		return fmt.Errorf("ioprio_set tid %d: %w", tid, errno)
	}

	return nil
}
