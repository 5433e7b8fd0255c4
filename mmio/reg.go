// Package mmio provides typed access to memory-mapped peripheral registers.
//
// A single Get or Set is one bus access. Sequences of accesses (read-modify-write
// helpers included) are not atomic; the owner of a register block serializes them.
package mmio

// Reg32 is one 32-bit peripheral register.
type Reg32 struct {
	raw uint32
}

// SetBits sets the bits in mask with a read-modify-write.
func (r *Reg32) SetBits(mask uint32) {
	r.Set(r.Get() | mask)
}

// ClearBits clears the bits in mask with a read-modify-write.
func (r *Reg32) ClearBits(mask uint32) {
	r.Set(r.Get() &^ mask)
}

// HasBits reports whether any bit of mask is set.
func (r *Reg32) HasBits(mask uint32) bool {
	return r.Get()&mask != 0
}

// ReplaceBits writes value into the field described by mask and pos.
// mask is the unshifted field mask.
func (r *Reg32) ReplaceBits(value, mask uint32, pos uint8) {
	r.Set(r.Get()&^(mask<<pos) | (value&mask)<<pos)
}

// Field extracts the field described by mask and pos.
func (r *Reg32) Field(mask uint32, pos uint8) uint32 {
	return (r.Get() >> pos) & mask
}
