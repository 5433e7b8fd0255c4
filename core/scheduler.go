package core

// Line identifies one interrupt source bound to the scheduler.
type Line uint8

// Priority orders lines; a higher value preempts a lower one. Priority 0 is
// the background context and cannot be bound.
type Priority uint8

// Handler is a task body. It must not block.
type Handler func()

const (
	MaxLines = 8

	PriorityBackground Priority = 0
	PriorityMax        Priority = 15

	// NVIC implementation bits on the target; priorities live in the top
	// bits of the 8-bit field and a lower value is more urgent.
	nvicPriorityBits = 4
)

type task struct {
	name    string
	prio    Priority
	handler Handler
	runs    uint32
}

// Scheduler dispatches interrupt lines to handlers by fixed priority.
//
// On the target the NVIC does the arbitration: each ISR calls Service and
// HardwarePriority supplies the value for SetPriority. On the host, Raise
// emulates pending bits and preemption so that the simulated peripherals
// exercise the same nesting as the hardware.
type Scheduler struct {
	tasks   [MaxLines]task
	pending uint32
	active  Priority
}

// Bind attaches a handler to a line. Each line is bound once, at boot.
func (s *Scheduler) Bind(line Line, name string, prio Priority, h Handler) {
	if line >= MaxLines {
		panic("core: caller must only pass the configured interrupt lines")
	}
	if s.tasks[line].handler != nil {
		panic("core: interrupt line " + name + " bound twice")
	}
	if prio == PriorityBackground || prio > PriorityMax {
		panic("core: task " + name + " needs a priority in 1..15")
	}
	if h == nil {
		panic("core: nil handler for " + name)
	}
	s.tasks[line] = task{name: name, prio: prio, handler: h}
}

// Raise marks a line pending and dispatches every pending line that
// outranks the running task. Lines raised while interrupts are masked stay
// pending until the mask is lifted through Critical.
func (s *Scheduler) Raise(line Line) {
	if line >= MaxLines || s.tasks[line].handler == nil {
		panic("core: raise of unbound interrupt line")
	}
	s.pending |= 1 << line
	s.dispatch()
}

// Pending reports whether a line is waiting to run.
func (s *Scheduler) Pending(line Line) bool {
	return s.pending&(1<<line) != 0
}

// Service runs a line's handler directly. It is the ISR body on the
// target, where the NVIC has already arbitrated priority.
func (s *Scheduler) Service(line Line) {
	t := &s.tasks[line]
	t.runs++
	t.handler()
}

// Critical runs fn with interrupts masked, then dispatches whatever was
// raised meanwhile.
func (s *Scheduler) Critical(fn func()) {
	state := disableInterrupts()
	fn()
	restoreInterrupts(state)
	if !interruptsMasked() {
		s.dispatch()
	}
}

func (s *Scheduler) dispatch() {
	if interruptsMasked() {
		return
	}
	for {
		line, ok := s.next()
		if !ok {
			return
		}
		s.pending &^= 1 << line
		t := &s.tasks[line]
		saved := s.active
		s.active = t.prio
		t.runs++
		t.handler()
		s.active = saved
	}
}

// next picks the highest-priority pending line above the running priority.
// Ties go to the lower line number, as on the NVIC.
func (s *Scheduler) next() (Line, bool) {
	best, found := Line(0), false
	for i := Line(0); i < MaxLines; i++ {
		if s.pending&(1<<i) == 0 {
			continue
		}
		p := s.tasks[i].prio
		if p <= s.active {
			continue
		}
		if !found || p > s.tasks[best].prio {
			best, found = i, true
		}
	}
	return best, found
}

// Active returns the priority of the running task, or PriorityBackground.
func (s *Scheduler) Active() Priority {
	return s.active
}

// Runs returns how many times a line's handler has executed.
func (s *Scheduler) Runs(line Line) uint32 {
	return s.tasks[line].runs
}

// Name returns the name a line was bound with.
func (s *Scheduler) Name(line Line) string {
	return s.tasks[line].name
}

// Priority returns a line's logical priority.
func (s *Scheduler) Priority(line Line) Priority {
	return s.tasks[line].prio
}

// HardwarePriority encodes a line's priority for the NVIC: logical 15 maps
// to 0x00 (most urgent) and logical 1 to 0xE0.
func (s *Scheduler) HardwarePriority(line Line) uint8 {
	return uint8(PriorityMax-s.tasks[line].prio) << (8 - nvicPriorityBits)
}
