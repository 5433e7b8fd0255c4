//go:build tinygo

package mmio

import (
	"runtime/volatile"
	"unsafe"
)

// Get performs a volatile load of the register.
func (r *Reg32) Get() uint32 {
	return volatile.LoadUint32(&r.raw)
}

// Set performs a volatile store to the register.
func (r *Reg32) Set(value uint32) {
	volatile.StoreUint32(&r.raw, value)
}

// Address returns the bus address of the register, for programming DMA
// peripheral-side addresses.
func (r *Reg32) Address() uint32 {
	return uint32(uintptr(unsafe.Pointer(&r.raw)))
}

// BufferAddress returns the bus address of the first element of buf.
func BufferAddress(buf []uint16) uint32 {
	if len(buf) == 0 {
		panic("mmio: empty DMA buffer")
	}
	return uint32(uintptr(unsafe.Pointer(&buf[0])))
}
