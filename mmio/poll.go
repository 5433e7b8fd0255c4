package mmio

import "errors"

// DefaultPollLimit bounds a handshake wait when a Poller has no explicit limit.
// At 170 MHz a spin of a flag test is a few cycles, so this is well above any
// documented peripheral handshake.
const DefaultPollLimit = 1_000_000

// HardwareTimeout is returned when a peripheral handshake never completes.
type HardwareTimeout struct {
	Op    string // handshake that was awaited
	Spins uint32 // iterations spent before giving up
}

func (e *HardwareTimeout) Error() string {
	return "hardware timeout: " + e.Op
}

// IsTimeout reports whether err is or wraps a *HardwareTimeout.
func IsTimeout(err error) bool {
	var t *HardwareTimeout
	return errors.As(err, &t)
}

// Poller waits for hardware flags with a bounded number of iterations.
type Poller struct {
	// Limit is the maximum number of condition checks; zero means DefaultPollLimit.
	Limit uint32
	// Relax, if set, runs between checks.
	Relax func()
}

// Until spins until cond returns true or the limit is exhausted.
func (p Poller) Until(op string, cond func() bool) error {
	limit := p.Limit
	if limit == 0 {
		limit = DefaultPollLimit
	}
	for i := uint32(0); i < limit; i++ {
		if cond() {
			return nil
		}
		if p.Relax != nil {
			p.Relax()
		}
	}
	if cond() {
		return nil
	}
	return &HardwareTimeout{Op: op, Spins: limit}
}

// UntilSet waits for any bit of mask to read as set.
func (p Poller) UntilSet(op string, r *Reg32, mask uint32) error {
	return p.Until(op, func() bool { return r.HasBits(mask) })
}

// UntilClear waits for every bit of mask to read as clear.
func (p Poller) UntilClear(op string, r *Reg32, mask uint32) error {
	return p.Until(op, func() bool { return !r.HasBits(mask) })
}
