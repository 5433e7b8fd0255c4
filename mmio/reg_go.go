//go:build !tinygo

package mmio

import (
	"sync"
	"sync/atomic"
)

// On the host there is no peripheral behind a register, so register blocks are
// ordinary memory. Hardware behaviour is attached with OnRead/OnWrite hooks and
// bus addresses are synthesized so that DMA bindings can be resolved again.

// ReadHook returns the value a read observes, given the stored value.
type ReadHook func(stored uint32) uint32

// WriteHook returns the value to store, given the stored and written values.
type WriteHook func(stored, written uint32) uint32

type hooks struct {
	read  ReadHook
	write WriteHook
}

const fakeBase = 0x2000_0000

var bus struct {
	sync.Mutex
	hooks   map[*Reg32]hooks
	regAddr map[*Reg32]uint32
	regAt   map[uint32]*Reg32
	bufAt   map[uint32][]uint16
	next    uint32
}

func init() {
	Reset()
}

// Reset drops every hook and synthesized address.
func Reset() {
	bus.Lock()
	bus.hooks = make(map[*Reg32]hooks)
	bus.regAddr = make(map[*Reg32]uint32)
	bus.regAt = make(map[uint32]*Reg32)
	bus.bufAt = make(map[uint32][]uint16)
	bus.next = fakeBase
	bus.Unlock()
}

// OnRead attaches a read hook to r, replacing any previous one.
func OnRead(r *Reg32, h ReadHook) {
	bus.Lock()
	e := bus.hooks[r]
	e.read = h
	bus.hooks[r] = e
	bus.Unlock()
}

// OnWrite attaches a write hook to r, replacing any previous one.
func OnWrite(r *Reg32, h WriteHook) {
	bus.Lock()
	e := bus.hooks[r]
	e.write = h
	bus.hooks[r] = e
	bus.Unlock()
}

// Peek loads r without running hooks.
func Peek(r *Reg32) uint32 {
	return atomic.LoadUint32(&r.raw)
}

// Poke stores into r without running hooks.
func Poke(r *Reg32, value uint32) {
	atomic.StoreUint32(&r.raw, value)
}

func lookup(r *Reg32) hooks {
	bus.Lock()
	h := bus.hooks[r]
	bus.Unlock()
	return h
}

// Get loads the register, running its read hook if any.
func (r *Reg32) Get() uint32 {
	v := atomic.LoadUint32(&r.raw)
	if h := lookup(r); h.read != nil {
		v = h.read(v)
	}
	return v
}

// Set stores the register, running its write hook if any.
func (r *Reg32) Set(value uint32) {
	if h := lookup(r); h.write != nil {
		value = h.write(atomic.LoadUint32(&r.raw), value)
	}
	atomic.StoreUint32(&r.raw, value)
}

func allocate(size uint32) uint32 {
	addr := bus.next
	bus.next += (size + 3) &^ 3
	return addr
}

// Address returns a synthesized, stable bus address for r.
func (r *Reg32) Address() uint32 {
	bus.Lock()
	defer bus.Unlock()
	if a, ok := bus.regAddr[r]; ok {
		return a
	}
	a := allocate(4)
	bus.regAddr[r] = a
	bus.regAt[a] = r
	return a
}

// BufferAddress returns a synthesized bus address for buf.
func BufferAddress(buf []uint16) uint32 {
	if len(buf) == 0 {
		panic("mmio: empty DMA buffer")
	}
	bus.Lock()
	defer bus.Unlock()
	for a, b := range bus.bufAt {
		if &b[0] == &buf[0] {
			return a
		}
	}
	a := allocate(uint32(2 * len(buf)))
	bus.bufAt[a] = buf
	return a
}

// RegisterAt resolves an address returned by Reg32.Address.
func RegisterAt(addr uint32) (*Reg32, bool) {
	bus.Lock()
	defer bus.Unlock()
	r, ok := bus.regAt[addr]
	return r, ok
}

// BufferAt resolves an address returned by BufferAddress.
func BufferAt(addr uint32) ([]uint16, bool) {
	bus.Lock()
	defer bus.Unlock()
	b, ok := bus.bufAt[addr]
	return b, ok
}
