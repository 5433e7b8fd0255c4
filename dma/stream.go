package dma

import "gofoc/mmio"

// StreamLength is the number of samples per circular pass: one regular
// sequence of eight conversions.
const StreamLength = 8

// StreamBuffer is the memory end of a circular ADC stream. The DMA channel
// writes it continuously; readers get no synchronisation. Each element is
// loaded with a single half-word access, so a reader sees either the old
// or the new sample of an element, and a Copy may mix samples from two
// passes. That is acceptable for the slow telemetry it feeds.
type StreamBuffer struct {
	data [StreamLength]uint16
}

func (b *StreamBuffer) address() uint32 {
	return mmio.BufferAddress(b.data[:])
}

// Len returns the buffer capacity.
func (b *StreamBuffer) Len() int {
	return len(b.data)
}

// At returns sample i.
func (b *StreamBuffer) At(i int) uint16 {
	return load16(&b.data[i])
}

// Copy copies the samples into dst and returns the count.
func (b *StreamBuffer) Copy(dst []uint16) int {
	n := 0
	for n < len(dst) && n < len(b.data) {
		dst[n] = load16(&b.data[n])
		n++
	}
	return n
}

// Mean averages one pass, truncating.
func (b *StreamBuffer) Mean() uint16 {
	var sum uint32
	for i := range b.data {
		sum += uint32(load16(&b.data[i]))
	}
	return uint16(sum / uint32(len(b.data)))
}
