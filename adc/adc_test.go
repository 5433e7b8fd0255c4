//go:build !tinygo

package adc

import (
	"errors"
	"math"
	"testing"
	"time"

	"gofoc/core"
	"gofoc/mmio"
	"gofoc/protocol"
	"gofoc/sim"
	"gofoc/stm32g4"
)

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func noDelay(time.Duration) {}

func newFrontEnd(b *sim.Board, poll mmio.Poller) *FrontEnd {
	p := b.Periph
	return &FrontEnd{
		Common: NewCommon(p.ADC12),
		ADC1: New(p.ADC1, Config{
			ID:             1,
			RegularChannel: 3,
			RegularSample:  stm32g4.SampleCycles24_5,
			CurrentChannel: 13,
			CurrentSample:  stm32g4.SampleCycles2_5,
			InjectedIRQ:    true,
			Reference:      true,
			Poll:           poll,
			Delay:          noDelay,
		}),
		ADC2: New(p.ADC2, Config{
			ID:             2,
			RegularChannel: 1,
			RegularSample:  stm32g4.SampleCycles24_5,
			CurrentChannel: 16,
			CurrentSample:  stm32g4.SampleCycles2_5,
			Poll:           poll,
			Delay:          noDelay,
		}),
	}
}

func lastEvent(t *testing.T) protocol.Event {
	t.Helper()
	var evts [core.EventRingSize]protocol.Event
	n := core.SnapshotEvents(evts[:])
	if n == 0 {
		t.Fatal("no events recorded")
	}
	return evts[n-1]
}

func TestReferenceVoltage(t *testing.T) {
	cases := []struct {
		trim uint16
		want float32
		ok   bool
	}{
		{1650, 3.0 * 1650 / 4095, true},
		{TrimMin, 3.0 * TrimMin / 4095, true},
		{TrimMax, 3.0 * TrimMax / 4095, true},
		{TrimMin - 1, FallbackReference, false},
		{TrimMax + 1, FallbackReference, false},
		{0xFFFF, FallbackReference, false},
	}
	for _, c := range cases {
		got, ok := ReferenceVoltage(c.trim)
		if ok != c.ok || math.Abs(float64(got-c.want)) > 1e-6 {
			t.Errorf("ReferenceVoltage(%d) = %v, %v; want %v, %v", c.trim, got, ok, c.want, c.ok)
		}
	}
}

func TestCalibrateMeasuresSupply(t *testing.T) {
	core.ClearEvents()
	b := sim.NewBoard(1650)
	// Vrefint = 1.2088 V at 3.3 V converts to 1500.
	b.ADC1.Inputs[stm32g4.ADC1_ChannelVrefint] = 1500
	f := newFrontEnd(b, mmio.Poller{})

	if err := f.Calibrate(); err != nil {
		t.Fatal(err)
	}
	if got := f.ADC1.VrefCal(); math.Abs(float64(got)-3.3) > 1e-4 {
		t.Errorf("vref_cal = %v, want 3.3", got)
	}
	if f.ADC2.VrefCal() != f.ADC1.VrefCal() {
		t.Errorf("ADC2 vref_cal %v differs from ADC1 %v", f.ADC2.VrefCal(), f.ADC1.VrefCal())
	}
	if f.ADC1.State() != StateCalibrating {
		t.Errorf("state = %v", f.ADC1.State())
	}
	if got := mmio.Peek(&b.Periph.ADC12.CCR); got != stm32g4.ADC_CCR_DUAL_RegInjSimult|stm32g4.ADC_CCR_VREFEN {
		t.Errorf("common CCR = %#x", got)
	}
	e := lastEvent(t)
	if core.EventKind(e.Kind) != core.EvtCalibrated || e.Unit != 1 || e.V2 != 1500 {
		t.Errorf("event = %+v", e)
	}
	if e.V1 < 3299000 || e.V1 > 3301000 {
		t.Errorf("event vref = %d µV", e.V1)
	}
}

func TestCalibrateFallsBackOnBadTrim(t *testing.T) {
	core.ClearEvents()
	b := sim.NewBoard(100)
	b.ADC1.Inputs[stm32g4.ADC1_ChannelVrefint] = 1500
	f := newFrontEnd(b, mmio.Poller{})

	if err := f.Calibrate(); err != nil {
		t.Fatal(err)
	}
	want := 1.212 * 4095 / 1500.0
	if got := f.ADC1.VrefCal(); math.Abs(float64(got)-want) > 1e-4 {
		t.Errorf("vref_cal = %v, want %v", got, want)
	}
	var evts [4]protocol.Event
	n := core.SnapshotEvents(evts[:])
	if n < 1 || core.EventKind(evts[0].Kind) != core.EvtTrimFallback || evts[0].V1 != 100 {
		t.Errorf("events = %+v", evts[:n])
	}
}

func TestCalibrateReferenceUnreadable(t *testing.T) {
	b := sim.NewBoard(1650)
	b.ADC1.Inputs[stm32g4.ADC1_ChannelVrefint] = 1500
	f := newFrontEnd(b, mmio.Poller{})

	// Without the common block the Vrefint buffer is off and reads zero.
	err := f.ADC1.Calibrate()
	if !errors.Is(err, ErrReferenceUnreadable) {
		t.Errorf("err = %v, want ErrReferenceUnreadable", err)
	}
	if f.ADC1.VrefCal() != FallbackReference {
		t.Errorf("vref_cal changed to %v", f.ADC1.VrefCal())
	}
}

func TestConfigureRegisters(t *testing.T) {
	b := sim.NewBoard(1650)
	b.ADC1.Inputs[stm32g4.ADC1_ChannelVrefint] = 1500
	f := newFrontEnd(b, mmio.Poller{})
	if err := f.Calibrate(); err != nil {
		t.Fatal(err)
	}
	f.Configure()

	r := b.Periph.ADC1
	checks := []struct {
		name string
		reg  *mmio.Reg32
		want uint32
	}{
		{"CFGR", &r.CFGR, 1 | 1<<1 | 10<<5 | 1<<10 | 1<<12 | 1<<31},
		{"SMPR1", &r.SMPR1, 3 << 9},
		{"SMPR2", &r.SMPR2, 0},
		{"SQR1", &r.SQR1, 7 | 3<<6 | 3<<12 | 3<<18 | 3<<24},
		{"SQR2", &r.SQR2, 3 | 3<<6 | 3<<12 | 3<<18},
		{"JSQR", &r.JSQR, 1 | 1<<7 | 13<<9 | 13<<15},
		{"IER", &r.IER, stm32g4.ADC_IER_JEOSIE},
	}
	for _, c := range checks {
		if got := mmio.Peek(c.reg); got != c.want {
			t.Errorf("ADC1 %s = %#x, want %#x", c.name, got, c.want)
		}
	}
	if got := mmio.Peek(&b.Periph.ADC2.IER); got != 0 {
		t.Errorf("ADC2 IER = %#x", got)
	}
	if got := mmio.Peek(&b.Periph.ADC2.SMPR2); got != 0 {
		t.Errorf("ADC2 SMPR2 = %#x", got)
	}
	if got := mmio.Peek(&b.Periph.ADC2.SMPR1); got != 3<<3 {
		t.Errorf("ADC2 SMPR1 = %#x", got)
	}
	if f.ADC1.State() != StateReady {
		t.Errorf("state = %v", f.ADC1.State())
	}
}

func TestAverageReadingRestoresConfiguration(t *testing.T) {
	b := sim.NewBoard(1650)
	b.ADC1.Inputs[stm32g4.ADC1_ChannelVrefint] = 1500
	f := newFrontEnd(b, mmio.Poller{})
	if err := f.Calibrate(); err != nil {
		t.Fatal(err)
	}
	f.Configure()

	r := b.Periph.ADC1
	regs := []*mmio.Reg32{&r.SMPR1, &r.SMPR2, &r.SQR1, &r.SQR2, &r.CFGR, &r.CFGR2, &r.IER, &r.JSQR}
	before := make([]uint32, len(regs))
	for i, reg := range regs {
		before[i] = mmio.Peek(reg)
	}

	toggle := false
	b.ADC1.Source = func(ch uint8) uint16 {
		if ch != 13 {
			return 0
		}
		toggle = !toggle
		if toggle {
			return 2047
		}
		return 2048
	}
	got, err := f.ADC1.AverageReading(13)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2047 {
		t.Errorf("average = %d, want 2047 (truncated 2047.5)", got)
	}
	for i, reg := range regs {
		if after := mmio.Peek(reg); after != before[i] {
			t.Errorf("register %d changed: %#x -> %#x", i, before[i], after)
		}
	}

	// Twice in a row gives the same result and leaves the same state.
	again, err := f.ADC1.AverageReading(13)
	if err != nil || again != got {
		t.Errorf("second average = %d, %v", again, err)
	}
	if f.ADC1.State() != StateReady {
		t.Errorf("state = %v", f.ADC1.State())
	}
}

func TestZeroOffsets(t *testing.T) {
	core.ClearEvents()
	b := sim.NewBoard(1650)
	b.ADC1.Inputs[stm32g4.ADC1_ChannelVrefint] = 1500
	b.ADC1.Inputs[13] = 2041
	b.ADC2.Inputs[16] = 2055
	f := newFrontEnd(b, mmio.Poller{})
	if err := f.Calibrate(); err != nil {
		t.Fatal(err)
	}
	f.Configure()
	if err := f.ZeroOffsets(); err != nil {
		t.Fatal(err)
	}
	if f.OffsetA != 2041 || f.OffsetB != 2055 {
		t.Errorf("offsets = %d, %d", f.OffsetA, f.OffsetB)
	}
	e := lastEvent(t)
	if core.EventKind(e.Kind) != core.EvtZeroOffset || e.Unit != 2 || e.V1 != 2055 {
		t.Errorf("event = %+v", e)
	}
}

func TestStateTransitions(t *testing.T) {
	b := sim.NewBoard(1650)
	b.ADC1.Inputs[stm32g4.ADC1_ChannelVrefint] = 1500
	f := newFrontEnd(b, mmio.Poller{})
	u := f.ADC1

	if u.State() != StateReset {
		t.Errorf("initial state = %v", u.State())
	}
	expectPanic(t, "configure in reset", u.Configure)
	expectPanic(t, "start in reset", func() { u.Start() })

	if err := f.Calibrate(); err != nil {
		t.Fatal(err)
	}
	f.Configure()
	if err := f.Start(); err != nil {
		t.Fatal(err)
	}
	if u.State() != StateRunning || f.ADC2.State() != StateRunning {
		t.Fatalf("states = %v, %v", u.State(), f.ADC2.State())
	}
	if !b.Periph.ADC1.CR.HasBits(stm32g4.ADC_CR_ADSTART | stm32g4.ADC_CR_JADSTART) {
		t.Error("sequences not armed")
	}
	expectPanic(t, "configure while running", u.Configure)
	expectPanic(t, "calibrate while running", func() { u.Calibrate() })
	expectPanic(t, "average while running", func() { u.AverageReading(13) })

	if err := f.Stop(); err != nil {
		t.Fatal(err)
	}
	if u.State() != StateReady {
		t.Errorf("state after stop = %v", u.State())
	}
	if b.Periph.ADC1.CR.HasBits(stm32g4.ADC_CR_ADSTART | stm32g4.ADC_CR_JADSTART) {
		t.Error("sequences still armed after stop")
	}
	if StateRunning.String() != "running" || State(9).String() != "invalid" {
		t.Error("State.String")
	}
}

func TestCalibrationTimeout(t *testing.T) {
	core.ClearEvents()
	b := sim.NewBoard(1650)
	b.ADC1.StuckCalibration = true
	f := newFrontEnd(b, mmio.Poller{Limit: 50})

	err := f.ADC1.Calibrate()
	if !mmio.IsTimeout(err) {
		t.Fatalf("err = %v, want timeout", err)
	}
	var ht *mmio.HardwareTimeout
	if !errors.As(err, &ht) || ht.Op != "adc calibration" {
		t.Errorf("timeout = %v", err)
	}
	e := lastEvent(t)
	if core.EventKind(e.Kind) != core.EvtTimeout || e.Unit != 1 || e.V1 != 50 {
		t.Errorf("event = %+v", e)
	}
}

func TestReadyTimeout(t *testing.T) {
	b := sim.NewBoard(1650)
	b.ADC2.StuckReady = true
	f := newFrontEnd(b, mmio.Poller{Limit: 20})
	if err := f.ADC2.Calibrate(); err != nil {
		t.Fatal(err)
	}
	if err := f.ADC2.Enable(); !mmio.IsTimeout(err) {
		t.Errorf("enable err = %v, want timeout", err)
	}
}

func TestInjectedConversionOnTrigger(t *testing.T) {
	b := sim.NewBoard(1650)
	b.ADC1.Inputs[stm32g4.ADC1_ChannelVrefint] = 1500
	b.ADC1.Inputs[13] = 2100
	b.ADC2.Inputs[16] = 1950
	var irqs []int
	b.Connect(func(irq int) { irqs = append(irqs, irq) })

	f := newFrontEnd(b, mmio.Poller{})
	if err := f.Calibrate(); err != nil {
		t.Fatal(err)
	}
	f.Configure()
	if err := f.Start(); err != nil {
		t.Fatal(err)
	}

	// Minimal center-aligned timer with TRGO on OC4REF.
	tim := b.Periph.TIM1
	tim.ARR.Set(99)
	tim.RCR.Set(1)
	tim.CCMR2.Set(stm32g4.TIM_CCMR_PWM1_PRELOAD << stm32g4.TIM_CCMR_Ch2_Offset)
	tim.CCR4.Set(98)
	tim.CR2.Set(stm32g4.TIM_CR2_MMS_OC4REF << stm32g4.TIM_CR2_MMS_Pos)
	tim.EGR.Set(stm32g4.TIM_EGR_UG)
	tim.CR1.Set(stm32g4.TIM_CR1_CMS_CA1<<stm32g4.TIM_CR1_CMS_Pos | stm32g4.TIM_CR1_ARPE | stm32g4.TIM_CR1_CEN)
	b.RunPeriods(1)

	if len(irqs) == 0 {
		t.Fatal("no interrupt raised")
	}
	for _, irq := range irqs {
		if irq != stm32g4.IRQ_ADC1_2 {
			t.Fatalf("irqs = %v", irqs)
		}
	}
	if !f.ADC1.InjectedFlag() {
		t.Error("JEOS not set")
	}
	if f.ADC1.InjectedData() != 2100 || f.ADC2.InjectedData() != 1950 || f.ADC1.InjectedRank(1) != 2100 {
		t.Errorf("injected = %d, %d", f.ADC1.InjectedData(), f.ADC2.InjectedData())
	}
	in, ok := f.TakeInjected()
	if !ok || in != (InjectedSample{A: 2100, B: 1950}) {
		t.Errorf("TakeInjected = %+v, %v", in, ok)
	}
	if f.ADC1.InjectedFlag() || f.ADC2.InjectedFlag() {
		t.Error("JEOS still set after TakeInjected")
	}
	if _, ok := f.TakeInjected(); ok {
		t.Error("second TakeInjected in the same period")
	}
	if got := f.ADC1.Volts(2100); math.Abs(float64(got)-2100*3.3/4095) > 1e-4 {
		t.Errorf("Volts = %v", got)
	}
	if f.ADC1.DataRegisterAddress() != b.Periph.ADC1.DR.Address() {
		t.Error("DataRegisterAddress")
	}
}
