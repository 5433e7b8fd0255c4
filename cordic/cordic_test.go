//go:build !tinygo

package cordic_test

import (
	"math"
	"testing"

	"gofoc/cordic"
	"gofoc/mmio"
	"gofoc/sim"
	"gofoc/stm32g4"
)

func TestInitSequence(t *testing.T) {
	b := sim.NewBoard(1650)
	e := cordic.New(b.Periph.CORDIC)
	e.Init()

	if b.CORDIC.Writes != 2 || b.CORDIC.Reads != 2 || b.CORDIC.Outstanding() != 0 {
		t.Errorf("primer: writes=%d reads=%d outstanding=%d",
			b.CORDIC.Writes, b.CORDIC.Reads, b.CORDIC.Outstanding())
	}
	csr := mmio.Peek(&b.Periph.CORDIC.CSR)
	want := uint32(stm32g4.CORDIC_FUNC_Sine | 5<<stm32g4.CORDIC_CSR_PRECISION_Pos | stm32g4.CORDIC_CSR_NRES)
	if csr&^stm32g4.CORDIC_CSR_RRDY != want {
		t.Errorf("CSR = %#x, want %#x", csr, want)
	}
}

func TestCompute(t *testing.T) {
	b := sim.NewBoard(1650)
	e := cordic.New(b.Periph.CORDIC)
	e.Init()

	for _, theta := range []float32{0, 0.25, -0.25, 0.5, -0.75, 0.999} {
		s, c := e.Compute(theta)
		ws, wc := math.Sincos(float64(theta) * math.Pi)
		if math.Abs(float64(s)-ws) > 1e-6 || math.Abs(float64(c)-wc) > 1e-6 {
			t.Errorf("θ=%v: got (%v, %v), want (%v, %v)", theta, s, c, ws, wc)
		}
	}
	// Exactly two reads per argument.
	if b.CORDIC.Reads-2 != 2*(b.CORDIC.Writes-2) {
		t.Errorf("writes=%d reads=%d", b.CORDIC.Writes, b.CORDIC.Reads)
	}
}

func TestDeferred(t *testing.T) {
	b := sim.NewBoard(1650)
	e := cordic.New(b.Periph.CORDIC)
	e.Init()

	e.Request(0.5)
	if !e.Pending() || b.CORDIC.Outstanding() != 2 {
		t.Fatalf("pending=%v outstanding=%d", e.Pending(), b.CORDIC.Outstanding())
	}
	s, c := e.Result()
	if math.Abs(float64(s)-1) > 1e-6 || math.Abs(float64(c)) > 1e-6 {
		t.Errorf("sin/cos(π/2) = %v, %v", s, c)
	}
	if e.Pending() {
		t.Error("still pending after Result")
	}
}

func TestMisuse(t *testing.T) {
	b := sim.NewBoard(1650)
	e := cordic.New(b.Periph.CORDIC)
	mustPanic(t, "before Init", func() { e.Compute(0) })
	e.Init()
	mustPanic(t, "Result without Request", func() { e.Result() })
	e.Request(0.1)
	mustPanic(t, "double Request", func() { e.Request(0.2) })
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}
