//go:build !tinygo

package dma

// The simulated DMA runs on the reader's goroutine.
func load16(p *uint16) uint16 {
	return *p
}
