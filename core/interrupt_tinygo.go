//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved PRIMASK value.
type State = interrupt.State

// disableInterrupts masks every configurable interrupt and returns the previous state
func disableInterrupts() State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state State) {
	interrupt.Restore(state)
}

// interruptsMasked is only consulted by the host dispatcher; on hardware the
// NVIC does the pending bookkeeping.
func interruptsMasked() bool {
	return false
}
