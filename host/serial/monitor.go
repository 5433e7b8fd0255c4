package serial

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gofoc/protocol"
)

// Handler receives decoded frames. Nil callbacks are skipped.
type Handler struct {
	Identify  func(version string)
	Event     func(protocol.Event)
	Telemetry func(protocol.Telemetry)
	// Malformed is called for a frame whose CRC was good but whose payload
	// did not decode.
	Malformed func(protocol.Frame, error)
}

// Monitor reads the firmware's trace stream and dispatches whole frames.
type Monitor struct {
	r     io.Reader
	h     Handler
	fifo  *protocol.FifoBuffer
	dec   protocol.FrameDecoder
	chunk []byte
}

// NewMonitor reads from r. The fifo holds a few frames so a read that
// splits a frame is completed by the next one.
func NewMonitor(r io.Reader, h Handler) *Monitor {
	return &Monitor{
		r:     r,
		h:     h,
		fifo:  protocol.NewFifoBuffer(8 * protocol.FrameLengthMax),
		chunk: make([]byte, protocol.FrameLengthMax),
	}
}

// Poll performs one read and dispatches every frame it completes.
func (m *Monitor) Poll() error {
	free := m.fifo.Free()
	if free > len(m.chunk) {
		free = len(m.chunk)
	}
	n, err := m.r.Read(m.chunk[:free])
	if n > 0 {
		m.fifo.Write(m.chunk[:n])
		m.dec.Feed(m.fifo, m.dispatch)
	}
	return err
}

// Run polls until ctx is done or the reader fails. End of input is not an
// error.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := m.Poll(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read trace stream: %w", err)
		}
	}
}

// Stats reports the decoder counters.
func (m *Monitor) Stats() (frames, dropped, lost uint32) {
	return m.dec.Frames, m.dec.Dropped, m.dec.Lost
}

// Reset forgets buffered bytes and sequence history.
func (m *Monitor) Reset() {
	m.fifo.Reset()
	m.dec.Reset()
}

func (m *Monitor) dispatch(f protocol.Frame) {
	switch f.Msg {
	case protocol.MsgIdentify:
		v, err := protocol.DecodeIdentify(f.Payload)
		if err != nil {
			m.malformed(f, err)
			return
		}
		if m.h.Identify != nil {
			m.h.Identify(v)
		}
	case protocol.MsgEvent:
		ev, err := protocol.DecodeEvent(f.Payload)
		if err != nil {
			m.malformed(f, err)
			return
		}
		if m.h.Event != nil {
			m.h.Event(ev)
		}
	case protocol.MsgTelemetry:
		t, err := protocol.DecodeTelemetry(f.Payload)
		if err != nil {
			m.malformed(f, err)
			return
		}
		if m.h.Telemetry != nil {
			m.h.Telemetry(t)
		}
	default:
		m.malformed(f, fmt.Errorf("unknown message %d", f.Msg))
	}
}

func (m *Monitor) malformed(f protocol.Frame, err error) {
	if m.h.Malformed != nil {
		m.h.Malformed(f, err)
	}
}
