package core

import "gofoc/protocol"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// EventKind classifies an entry in the trace ring.
type EventKind uint8

// Event kinds. Zero marks an empty slot.
const (
	EvtBoot         EventKind = 1 // v1 = timer ticks per period
	EvtCalibrated   EventKind = 2 // unit; v1 = vref_cal in µV, v2 = average code
	EvtTrimFallback EventKind = 3 // v1 = rejected trim word
	EvtZeroOffset   EventKind = 4 // unit; v1 = zero code
	EvtTimeout      EventKind = 5 // v1 = spins spent polling
	EvtStreamPass   EventKind = 6 // unit; v1 = passes so far
	EvtFault        EventKind = 7 // v1 = fault code
	EvtOverrun      EventKind = 8 // unit; v1 = overruns so far
)

func (k EventKind) String() string {
	switch k {
	case EvtBoot:
		return "BOOT"
	case EvtCalibrated:
		return "CALIBRATED"
	case EvtTrimFallback:
		return "TRIM_FALLBACK"
	case EvtZeroOffset:
		return "ZERO_OFFSET"
	case EvtTimeout:
		return "TIMEOUT!"
	case EvtStreamPass:
		return "STREAM_PASS"
	case EvtFault:
		return "FAULT!"
	case EvtOverrun:
		return "OVERRUN"
	}
	return "UNKNOWN"
}

const (
	EventRingSize = 32 // Keep the last 32 events
)

var (
	debugPrintln DebugWriter = func(s string) {}

	debugEnabled bool = false

	eventRing     [EventRingSize]protocol.Event
	eventRingHead uint8
	eventsTotal   uint32
	eventsSent    uint32
)

// SetDebugWriter sets the platform-specific debug output function
// (the debug USART on the target, a test buffer on the host).
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables text debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent stores an event stamped with the PWM period counter. It does
// not allocate and may be called from any task.
func RecordEvent(kind EventKind, unit uint8, v1, v2 uint32) {
	state := disableInterrupts()
	idx := eventRingHead
	eventRing[idx] = protocol.Event{
		Kind:  uint8(kind),
		Unit:  unit,
		Clock: GetTime(),
		V1:    v1,
		V2:    v2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	eventsTotal++
	restoreInterrupts(state)
}

// EventsRecorded returns the number of events recorded since the last
// ClearEvents, including those the ring has overwritten.
func EventsRecorded() uint32 {
	return eventsTotal
}

// SnapshotEvents copies the retained events, oldest first, into dst and
// returns the count copied.
func SnapshotEvents(dst []protocol.Event) int {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	n := 0
	for i := uint8(0); i < EventRingSize && n < len(dst); i++ {
		evt := eventRing[(eventRingHead+i)%EventRingSize]
		if evt.Kind == 0 {
			continue
		}
		dst[n] = evt
		n++
	}
	return n
}

// EncodeEvents frames every event recorded since the previous call that is
// still in the ring, stopping when out is full. It returns the number of
// frames written.
func EncodeEvents(enc *protocol.Encoder, out protocol.OutputBuffer) int {
	var snap [EventRingSize]protocol.Event
	state := disableInterrupts()
	total := eventsTotal
	head := eventRingHead
	snap = eventRing
	restoreInterrupts(state)

	unsent := total - eventsSent
	if unsent > EventRingSize {
		unsent = EventRingSize
	}
	written := 0
	for i := uint32(0); i < unsent; i++ {
		idx := (uint32(head) + EventRingSize - unsent + i) % EventRingSize
		if !enc.EncodeEvent(out, snap[idx]) {
			break
		}
		written++
	}
	eventsSent = total - unsent + uint32(written)
	return written
}

// DumpEvents prints the ring through the debug writer, oldest first.
func DumpEvents() {
	if debugPrintln == nil {
		return
	}
	var snap [EventRingSize]protocol.Event
	n := SnapshotEvents(snap[:])

	debugPrintln("[TRACE] === Event Ring Dump ===")
	debugPrintln("[TRACE] Control periods: " + utoa(GetTime()))
	for _, evt := range snap[:n] {
		line := "[TRACE] " + EventKind(evt.Kind).String() +
			" unit=" + utoa(uint32(evt.Unit)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.V1) +
			" v2=" + utoa(evt.V2)
		if EventKind(evt.Kind) == EvtCalibrated {
			line += " (" + FormatMilli(int32(evt.V1/1000)) + " V)"
		}
		debugPrintln(line)
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearEvents empties the ring.
func ClearEvents() {
	state := disableInterrupts()
	for i := range eventRing {
		eventRing[i] = protocol.Event{}
	}
	eventRingHead = 0
	eventsTotal = 0
	eventsSent = 0
	restoreInterrupts(state)
}
