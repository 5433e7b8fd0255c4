//go:build !tinygo

package pwm

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"gofoc/core"
	"gofoc/mmio"
	"gofoc/sim"
	"gofoc/stm32g4"
)

func newGenerator() (*Generator, *stm32g4.TIM) {
	regs := stm32g4.NewPeripherals().TIM1
	return New(regs, core.DefaultClockPlan), regs
}

func TestConfigureRegisters(t *testing.T) {
	g, regs := newGenerator()
	g.Configure(Config{PeriodTicks: 8500})

	checks := []struct {
		name string
		reg  *mmio.Reg32
		want uint32
	}{
		{"CR1", &regs.CR1, stm32g4.TIM_CR1_CMS_CA1<<stm32g4.TIM_CR1_CMS_Pos | stm32g4.TIM_CR1_ARPE | stm32g4.TIM_CR1_CEN},
		{"ARR", &regs.ARR, 8499},
		{"PSC", &regs.PSC, 0},
		{"RCR", &regs.RCR, 1},
		{"CCMR1", &regs.CCMR1, 0x6868},
		{"CCMR2", &regs.CCMR2, 0x6868},
		{"CCMR3", &regs.CCMR3, 0x68},
		{"CCER", &regs.CCER, 0x555},
		{"BDTR", &regs.BDTR, 85 | stm32g4.TIM_BDTR_OSSI},
		{"CCR1", &regs.CCR1, 0},
		{"CCR4", &regs.CCR4, 8498},
		{"CCR5", &regs.CCR5, 1},
		{"CR2", &regs.CR2, 0b111<<4 | 0b1000<<20},
	}
	for _, c := range checks {
		if got := mmio.Peek(c.reg); got != c.want {
			t.Errorf("%s = %#x, want %#x", c.name, got, c.want)
		}
	}
	if g.DeadTicks() != 85 {
		t.Errorf("dead time %d ticks, want 85", g.DeadTicks())
	}
	if regs.BDTR.HasBits(stm32g4.TIM_BDTR_MOE) {
		t.Error("MOE set by Configure")
	}
}

func TestCarrierFrequency(t *testing.T) {
	g, _ := newGenerator()
	g.Configure(Config{PeriodTicks: 8500})
	if f := g.CarrierFrequency(); f != 10*physic.KiloHertz {
		t.Errorf("carrier %s, want 10kHz", f)
	}
}

func TestEnableOutputsOrdering(t *testing.T) {
	g, regs := newGenerator()
	func() {
		defer func() {
			if recover() == nil {
				t.Error("EnableOutputs before Configure did not panic")
			}
		}()
		g.EnableOutputs()
	}()

	g.Configure(Config{PeriodTicks: 1000, DeadTime: time.Microsecond})
	g.EnableOutputs()
	if !regs.BDTR.HasBits(stm32g4.TIM_BDTR_MOE) {
		t.Fatal("MOE not set")
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Configure with outputs enabled did not panic")
			}
		}()
		g.Configure(Config{PeriodTicks: 2000})
	}()

	g.DisableOutputs()
	if regs.BDTR.HasBits(stm32g4.TIM_BDTR_MOE) {
		t.Error("MOE still set after DisableOutputs")
	}
	g.Configure(Config{PeriodTicks: 2000})
	if got := mmio.Peek(&regs.ARR); got != 1999 {
		t.Errorf("ARR after reconfigure = %d", got)
	}
}

func TestDutyClamp(t *testing.T) {
	duties := []uint32{0, 1, 255, 32768, 65534, 65535, 65536, 1 << 20, 0xFFFFFFFF}
	for _, period := range []uint32{3, 100, 8500, 50000, 65536} {
		g, regs := newGenerator()
		g.Configure(Config{PeriodTicks: period})
		for _, d := range duties {
			g.SetDuty(d, d/2, d/3)
			for i, r := range []*mmio.Reg32{&regs.CCR1, &regs.CCR2, &regs.CCR3} {
				if v := mmio.Peek(r); v > period {
					t.Errorf("period %d duty %d: CCR%d = %d", period, d, i+1, v)
				}
			}
		}
		for d := uint32(0); d < DutyScale; d += 97 {
			if c := g.Compare(d); c > period {
				t.Fatalf("period %d duty %d: compare %d", period, d, c)
			}
		}
	}
}

func TestDutyScaling(t *testing.T) {
	g, _ := newGenerator()
	g.Configure(Config{PeriodTicks: 8500})
	cases := map[uint32]uint32{
		0:     0,
		32768: 4249,
		65535: 8498,
		99999: 8498,
	}
	for duty, want := range cases {
		if got := g.Compare(duty); got != want {
			t.Errorf("Compare(%d) = %d, want %d", duty, got, want)
		}
	}
}

func TestEncodeDeadTime(t *testing.T) {
	cases := []struct {
		ticks uint32
		want  uint8
	}{
		{0, 0x00},
		{85, 85},
		{127, 0x7F},
		{128, 0x80},
		{200, 0xA4},
		{254, 0xBF},
		{255, 0xBF},
		{256, 0xC0},
		{504, 0xDF},
		{510, 0xDF},
		{512, 0xE0},
		{1008, 0xFF},
		{5000, 0xFF},
	}
	for _, c := range cases {
		if got := EncodeDeadTime(c.ticks); got != c.want {
			t.Errorf("EncodeDeadTime(%d) = %#x, want %#x", c.ticks, got, c.want)
		}
	}
}

func TestDeadTimeNeverLonger(t *testing.T) {
	for ticks := uint32(0); ticks <= 1008; ticks++ {
		got := DecodeDeadTime(EncodeDeadTime(ticks))
		if got > ticks {
			t.Fatalf("%d ticks encodes to %d", ticks, got)
		}
		if ticks-got >= 16 {
			t.Fatalf("%d ticks encodes to %d, step too coarse", ticks, got)
		}
	}
}

// A duty written mid-period must not reach the output before the next
// update event.
func TestGlitchFreeUpdate(t *testing.T) {
	b := sim.NewBoard(1650)
	g := New(b.Periph.TIM1, core.DefaultClockPlan)
	g.Configure(Config{PeriodTicks: 1000})
	arr := uint32(999)

	const oldDuty, newDuty = 16384, 49152
	oldCmp, newCmp := g.Compare(oldDuty), g.Compare(newDuty)
	g.SetDuty(oldDuty, oldDuty, oldDuty)
	g.EnableOutputs()

	b.RunPeriods(1)
	if cnt, _ := b.Timer.Counter(); cnt != 0 {
		t.Fatalf("counter %d after one period", cnt)
	}
	if b.Timer.Active(1) != oldCmp {
		t.Fatalf("active compare %d, want %d", b.Timer.Active(1), oldCmp)
	}

	// Write at the top of the count.
	b.Step(arr)
	g.SetDuty(newDuty, newDuty, newDuty)

	high := uint32(0)
	for i := uint32(0); i < arr-1; i++ {
		b.Step(1)
		if b.Timer.Active(1) != oldCmp {
			t.Fatalf("compare changed mid-period at tick %d", i)
		}
		if b.Timer.OutputHigh(1) {
			high++
		}
	}
	if high != oldCmp-1 {
		t.Errorf("high for %d ticks in the rest of the period, want %d", high, oldCmp-1)
	}

	updates := b.Timer.Updates
	b.Step(1)
	if b.Timer.Updates != updates+1 {
		t.Fatal("no update event at the end of the period")
	}
	for ch := 1; ch <= 3; ch++ {
		if b.Timer.Active(ch) != newCmp {
			t.Errorf("channel %d compare %d after update, want %d", ch, b.Timer.Active(ch), newCmp)
		}
	}
}

func TestStop(t *testing.T) {
	b := sim.NewBoard(1650)
	g := New(b.Periph.TIM1, core.DefaultClockPlan)
	g.Configure(Config{PeriodTicks: 100})
	g.EnableOutputs()
	g.Stop()
	if b.Timer.Running() || g.OutputsEnabled() {
		t.Error("timer still running after Stop")
	}
	before := b.Timer.Ticks
	b.Step(50)
	if b.Timer.Ticks != before {
		t.Error("counter advanced after Stop")
	}
}
