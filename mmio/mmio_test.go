//go:build !tinygo

package mmio

import (
	"errors"
	"fmt"
	"testing"
)

func TestRegisterBitHelpers(t *testing.T) {
	Reset()
	var r Reg32

	r.SetBits(0x0000_00F0)
	if r.Get() != 0xF0 {
		t.Errorf("SetBits: got 0x%X", r.Get())
	}
	r.ClearBits(0x30)
	if r.Get() != 0xC0 {
		t.Errorf("ClearBits: got 0x%X", r.Get())
	}
	if !r.HasBits(0x80) || r.HasBits(0x01) {
		t.Errorf("HasBits mismatch for 0x%X", r.Get())
	}

	r.ReplaceBits(0b101, 0b111, 8)
	if got := r.Field(0b111, 8); got != 0b101 {
		t.Errorf("Field after ReplaceBits: got %b", got)
	}
	if r.Get()&0xFF != 0xC0 {
		t.Errorf("ReplaceBits touched bits outside the field: 0x%X", r.Get())
	}
}

func TestHooks(t *testing.T) {
	Reset()
	var status, data Reg32

	// Write-one-to-clear semantics.
	Poke(&status, 0b1111)
	OnWrite(&status, func(stored, written uint32) uint32 { return stored &^ written })
	status.Set(0b0100)
	if got := Peek(&status); got != 0b1011 {
		t.Errorf("w1c write: got %b", got)
	}

	reads := 0
	OnRead(&data, func(stored uint32) uint32 {
		reads++
		return stored + uint32(reads)
	})
	Poke(&data, 10)
	if data.Get() != 11 || data.Get() != 12 {
		t.Error("read hook not applied per access")
	}
}

func TestAddressesResolve(t *testing.T) {
	Reset()
	var r Reg32
	a := r.Address()
	if r.Address() != a {
		t.Fatal("register address not stable")
	}
	got, ok := RegisterAt(a)
	if !ok || got != &r {
		t.Errorf("RegisterAt(0x%X) did not resolve", a)
	}

	buf := make([]uint16, 8)
	ba := BufferAddress(buf)
	if ba == a {
		t.Error("buffer and register share an address")
	}
	back, ok := BufferAt(ba)
	if !ok || &back[0] != &buf[0] {
		t.Errorf("BufferAt(0x%X) did not resolve", ba)
	}
	if BufferAddress(buf) != ba {
		t.Error("buffer address not stable")
	}
}

func TestPollerTimeout(t *testing.T) {
	var r Reg32
	p := Poller{Limit: 10}

	err := p.UntilSet("flag", &r, 1)
	if err == nil {
		t.Fatal("expected timeout")
	}
	if !IsTimeout(err) {
		t.Errorf("IsTimeout(%v) = false", err)
	}
	var ht *HardwareTimeout
	if !errors.As(fmt.Errorf("boot: %w", err), &ht) || ht.Op != "flag" || ht.Spins != 10 {
		t.Errorf("unexpected timeout detail: %+v", ht)
	}
	if err.Error() != "hardware timeout: flag" {
		t.Errorf("message: %q", err.Error())
	}
}

func TestPollerRelaxCompletes(t *testing.T) {
	var r Reg32
	spins := 0
	p := Poller{Limit: 100, Relax: func() {
		spins++
		if spins == 5 {
			Poke(&r, 1)
		}
	}}
	if err := p.UntilSet("flag", &r, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.UntilClear("flag", &r, 2); err != nil {
		t.Fatalf("UntilClear on clear bit: %v", err)
	}
	if spins != 5 {
		t.Errorf("expected 5 relax calls, got %d", spins)
	}
}
