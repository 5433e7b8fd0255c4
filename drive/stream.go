package drive

import (
	"sync/atomic"

	"gofoc/adc"
	"gofoc/core"
	"gofoc/dma"
)

// StreamTask services one regular-sequence DMA stream: it acknowledges the
// transfer-complete flag and counts passes. The samples themselves stay in
// the buffer for background readers.
type StreamTask struct {
	unit *adc.Unit
	ch   *dma.Channel
	buf  dma.StreamBuffer

	passes   atomic.Uint32
	overruns atomic.Uint32
}

// Run is the interrupt body.
func (s *StreamTask) Run() {
	if !s.ch.TransferComplete() {
		return
	}
	s.ch.ClearTransferComplete()
	if s.passes.Add(1) == 1 {
		core.RecordEvent(core.EvtStreamPass, s.unit.ID(), 1, uint32(s.ch.Number()))
	}
	if s.unit.Overrun() {
		s.unit.ClearOverrun()
		core.RecordEvent(core.EvtOverrun, s.unit.ID(), s.overruns.Add(1), 0)
	}
}

// Passes counts completed buffer passes.
func (s *StreamTask) Passes() uint32 {
	return s.passes.Load()
}

// Overruns counts passes that found the regular overrun flag set.
func (s *StreamTask) Overruns() uint32 {
	return s.overruns.Load()
}

// Buffer is the stream's sample buffer.
func (s *StreamTask) Buffer() *dma.StreamBuffer {
	return &s.buf
}
