// Package adc drives the two STM32G4 ADC units that measure the phase
// currents, the bus voltage and the driver temperature.
//
// Each unit runs an eight-deep regular sequence on the slow channel, started
// by TIM1 TRGO2 and drained by circular DMA, and a two-deep injected sequence
// on its current channel, started by TIM1 TRGO near the centre of the low-side
// on-time. One-shot measurements (calibration and offset averaging) borrow
// the unit under software trigger and put the stream configuration back.
package adc

import (
	"time"

	"gofoc/core"
	"gofoc/mmio"
	"gofoc/stm32g4"
)

// State is the lifecycle position of a Unit.
type State uint8

const (
	StateReset State = iota
	StateCalibrating
	StateReady
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateReset:
		return "reset"
	case StateCalibrating:
		return "calibrating"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	}
	return "invalid"
}

// Regular sequence depth; the DMA stream buffer matches it.
const SequenceLength = 8

// DefaultSettle is the regulator start-up time (tADCVREG_STUP is 20 µs).
const DefaultSettle = 20 * time.Microsecond

// Config selects the channels a unit converts.
type Config struct {
	// ID tags the unit's trace events (1 for ADC1, 2 for ADC2).
	ID uint8

	RegularChannel uint8
	RegularSample  stm32g4.SampleTime
	CurrentChannel uint8
	CurrentSample  stm32g4.SampleTime

	// InjectedIRQ enables the end-of-injected-sequence interrupt.
	InjectedIRQ bool
	// Reference makes Calibrate measure the internal reference and derive
	// vref_cal. Only ADC1 reaches the Vrefint channel.
	Reference bool

	Poll   mmio.Poller
	Settle time.Duration
	Delay  func(time.Duration)
	// Trim reads the factory Vrefint calibration word.
	Trim func() uint16
}

// Unit is one ADC.
type Unit struct {
	regs  *stm32g4.ADC
	cfg   Config
	state State

	vrefCal float32
}

// New wraps an ADC register block. Zero fields of cfg take defaults.
func New(regs *stm32g4.ADC, cfg Config) *Unit {
	if cfg.RegularChannel > stm32g4.MaxChannel || cfg.CurrentChannel > stm32g4.MaxChannel {
		panic("adc: channel out of range")
	}
	if cfg.Settle == 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Delay == nil {
		cfg.Delay = time.Sleep
	}
	if cfg.Trim == nil {
		cfg.Trim = stm32g4.ReadVrefintCal
	}
	return &Unit{regs: regs, cfg: cfg, vrefCal: FallbackReference}
}

// State returns the lifecycle state.
func (u *Unit) State() State {
	return u.state
}

// ID returns the trace tag from Config.
func (u *Unit) ID() uint8 {
	return u.cfg.ID
}

func (u *Unit) mustNotRun(op string) {
	if u.state == StateRunning {
		panic("adc: " + op + " while converting")
	}
}

// wait records a timeout event before handing the error back.
func (u *Unit) wait(err error) error {
	if t, ok := err.(*mmio.HardwareTimeout); ok {
		core.RecordEvent(core.EvtTimeout, u.cfg.ID, t.Spins, 0)
	}
	return err
}

// Configure programs the streaming setup: an eight-rank regular sequence
// of RegularChannel on rising TRGO2 with circular DMA and overwrite on
// overrun, and a two-rank injected sequence of CurrentChannel on rising
// TRGO. The unit must have been calibrated.
func (u *Unit) Configure() {
	u.mustNotRun("configure")
	if u.state == StateReset {
		panic("adc: configure before calibrate")
	}
	r := u.regs
	r.CFGR.Set(stm32g4.ADC_CFGR_DMAEN | stm32g4.ADC_CFGR_DMACFG |
		stm32g4.ADC_CFGR_OVRMOD | stm32g4.ADC_CFGR_JQDIS |
		stm32g4.ADC12_EXTSEL_TIM1_TRGO2<<stm32g4.ADC_CFGR_EXTSEL_Pos |
		stm32g4.ADC_TriggerRising<<stm32g4.ADC_CFGR_EXTEN_Pos)
	r.CFGR2.Set(0)

	var smpr [2]uint32
	for _, s := range [...]struct {
		ch  uint8
		smp stm32g4.SampleTime
	}{
		{u.cfg.RegularChannel, u.cfg.RegularSample},
		{u.cfg.CurrentChannel, u.cfg.CurrentSample},
	} {
		reg, pos := stm32g4.SMPRPosition(s.ch)
		smpr[reg] &^= stm32g4.SampleTimeMsk << pos
		smpr[reg] |= uint32(s.smp) << pos
	}
	r.SMPR1.Set(smpr[0])
	r.SMPR2.Set(smpr[1])

	var sqr [2]uint32
	sqr[0] = SequenceLength - 1
	for rank := 1; rank <= SequenceLength; rank++ {
		reg, pos := stm32g4.SQRPosition(rank)
		sqr[reg] |= uint32(u.cfg.RegularChannel) << pos
	}
	r.SQR1.Set(sqr[0])
	r.SQR2.Set(sqr[1])

	ch := uint32(u.cfg.CurrentChannel)
	r.JSQR.Set(1<<stm32g4.ADC_JSQR_JL_Pos |
		stm32g4.ADC12_JEXTSEL_TIM1_TRGO<<stm32g4.ADC_JSQR_JEXTSEL_Pos |
		stm32g4.ADC_TriggerRising<<stm32g4.ADC_JSQR_JEXTEN_Pos |
		ch<<stm32g4.ADC_JSQR_JSQ1_Pos | ch<<stm32g4.ADC_JSQR_JSQ2_Pos)

	if u.cfg.InjectedIRQ {
		r.IER.Set(stm32g4.ADC_IER_JEOSIE)
	} else {
		r.IER.Set(0)
	}
	u.state = StateReady
}

// Enable powers the converter and waits for ADRDY. It is a no-op if the
// unit is already enabled.
func (u *Unit) Enable() error {
	r := u.regs
	if r.CR.HasBits(stm32g4.ADC_CR_ADEN) {
		return nil
	}
	r.ISR.Set(stm32g4.ADC_ISR_ADRDY)
	r.CR.SetBits(stm32g4.ADC_CR_ADEN)
	return u.wait(u.cfg.Poll.UntilSet("adc ready", &r.ISR, stm32g4.ADC_ISR_ADRDY))
}

// Start arms both sequences on their hardware triggers.
func (u *Unit) Start() error {
	if u.state != StateReady {
		panic("adc: start requires a configured unit")
	}
	if err := u.Enable(); err != nil {
		return err
	}
	u.regs.ISR.Set(stm32g4.ADC_ISR_OVR | stm32g4.ADC_ISR_EOC | stm32g4.ADC_ISR_EOS |
		stm32g4.ADC_ISR_JEOC | stm32g4.ADC_ISR_JEOS)
	u.regs.CR.SetBits(stm32g4.ADC_CR_ADSTART | stm32g4.ADC_CR_JADSTART)
	u.state = StateRunning
	return nil
}

// Stop halts both sequences and returns the unit to Ready.
func (u *Unit) Stop() error {
	if u.state != StateRunning {
		return nil
	}
	r := u.regs
	r.CR.SetBits(stm32g4.ADC_CR_ADSTP | stm32g4.ADC_CR_JADSTP)
	err := u.cfg.Poll.UntilClear("adc stop", &r.CR, stm32g4.ADC_CR_ADSTART|stm32g4.ADC_CR_JADSTART)
	if err != nil {
		return u.wait(err)
	}
	u.state = StateReady
	return nil
}

// InjectedFlag reports whether an injected sequence has completed since the
// flag was last cleared.
func (u *Unit) InjectedFlag() bool {
	return u.regs.ISR.HasBits(stm32g4.ADC_ISR_JEOS)
}

// ClearInjectedFlag acknowledges the injected sequence.
func (u *Unit) ClearInjectedFlag() {
	u.regs.ISR.Set(stm32g4.ADC_ISR_JEOS | stm32g4.ADC_ISR_JEOC)
}

// InjectedData returns the current sample from injected rank 1.
func (u *Unit) InjectedData() uint16 {
	return uint16(u.regs.JDR[0].Get() & stm32g4.ADC_DataMsk)
}

// InjectedRank returns the sample from injected rank n (0-based).
func (u *Unit) InjectedRank(n int) uint16 {
	return uint16(u.regs.JDR[n].Get() & stm32g4.ADC_DataMsk)
}

// DataRegisterAddress is the peripheral address for the regular DMA stream.
func (u *Unit) DataRegisterAddress() uint32 {
	return u.regs.DR.Address()
}

// Overrun reports whether a regular conversion found the previous result
// unread. With OVRMOD the new sample replaced it; the flag is informational.
func (u *Unit) Overrun() bool {
	return u.regs.ISR.HasBits(stm32g4.ADC_ISR_OVR)
}

// ClearOverrun acknowledges the overrun flag.
func (u *Unit) ClearOverrun() {
	u.regs.ISR.Set(stm32g4.ADC_ISR_OVR)
}
