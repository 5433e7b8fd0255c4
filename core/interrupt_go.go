//go:build !tinygo

package core

import "sync/atomic"

// State is the saved interrupt mask. On the host it is the masking depth before
// the matching disableInterrupts call.
type State uintptr

// maskDepth emulates PRIMASK so that the host scheduler defers dispatch while a
// critical section is open.
var maskDepth int32

func disableInterrupts() State {
	return State(atomic.AddInt32(&maskDepth, 1) - 1)
}

func restoreInterrupts(state State) {
	atomic.StoreInt32(&maskDepth, int32(state))
}

func interruptsMasked() bool {
	return atomic.LoadInt32(&maskDepth) > 0
}
