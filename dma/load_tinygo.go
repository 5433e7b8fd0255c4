//go:build tinygo

package dma

import "runtime/volatile"

func load16(p *uint16) uint16 {
	return volatile.LoadUint16(p)
}
