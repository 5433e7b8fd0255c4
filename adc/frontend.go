package adc

import (
	"gofoc/core"
	"gofoc/stm32g4"
)

// Common is the ADC12 shared block.
type Common struct {
	regs *stm32g4.ADCCommon
}

func NewCommon(regs *stm32g4.ADCCommon) *Common {
	return &Common{regs: regs}
}

// Configure selects combined regular and injected simultaneous mode and
// turns on the Vrefint buffer. Both units must be disabled.
func (c *Common) Configure() {
	c.regs.CCR.ReplaceBits(stm32g4.ADC_CCR_DUAL_RegInjSimult, stm32g4.ADC_CCR_DUAL_Msk, stm32g4.ADC_CCR_DUAL_Pos)
	c.regs.CCR.SetBits(stm32g4.ADC_CCR_VREFEN)
}

// FrontEnd groups the two units of the dual-mode pair. ADC1 is the master
// and measures the reference; ADC2 reuses its vref_cal.
type FrontEnd struct {
	Common *Common
	ADC1   *Unit
	ADC2   *Unit

	// Zero-current codes of the two current channels.
	OffsetA uint16
	OffsetB uint16
}

// Calibrate configures the common block and calibrates both units.
func (f *FrontEnd) Calibrate() error {
	f.Common.Configure()
	if err := f.ADC1.Calibrate(); err != nil {
		return err
	}
	if err := f.ADC2.Calibrate(); err != nil {
		return err
	}
	f.ADC2.ShareReference(f.ADC1)
	return nil
}

// Configure programs the streaming setup on both units.
func (f *FrontEnd) Configure() {
	f.ADC1.Configure()
	f.ADC2.Configure()
}

// ZeroOffsets averages each current channel with no current flowing and
// stores the result. The gate driver must be idle.
func (f *FrontEnd) ZeroOffsets() error {
	a, err := f.ADC1.AverageReading(f.ADC1.cfg.CurrentChannel)
	if err != nil {
		return err
	}
	b, err := f.ADC2.AverageReading(f.ADC2.cfg.CurrentChannel)
	if err != nil {
		return err
	}
	f.OffsetA, f.OffsetB = a, b
	core.RecordEvent(core.EvtZeroOffset, f.ADC1.cfg.ID, uint32(a), 0)
	core.RecordEvent(core.EvtZeroOffset, f.ADC2.cfg.ID, uint32(b), 0)
	return nil
}

// Start arms both units, slave first.
func (f *FrontEnd) Start() error {
	if err := f.ADC2.Start(); err != nil {
		return err
	}
	return f.ADC1.Start()
}

// Stop halts both units.
func (f *FrontEnd) Stop() error {
	if err := f.ADC1.Stop(); err != nil {
		return err
	}
	return f.ADC2.Stop()
}

// InjectedSample is one period's pair of phase-current codes.
type InjectedSample struct {
	A, B uint16
}

// TakeInjected acknowledges the injected end of sequence on both units and
// returns the phase-current codes. ok is false when ADC1 has not finished a
// sequence since the last call.
func (f *FrontEnd) TakeInjected() (s InjectedSample, ok bool) {
	if !f.ADC1.InjectedFlag() {
		return s, false
	}
	f.ADC1.ClearInjectedFlag()
	f.ADC2.ClearInjectedFlag()
	return InjectedSample{A: f.ADC1.InjectedData(), B: f.ADC2.InjectedData()}, true
}
