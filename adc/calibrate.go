package adc

import (
	"errors"

	"gofoc/core"
	"gofoc/stm32g4"
)

// Vrefint factory trim: the raw reading of the internal reference taken at
// VDDA = 3.0 V. Words outside the plausible range are ignored.
const (
	TrimMin = stm32g4.VrefintCalMin
	TrimMax = stm32g4.VrefintCalMax

	// FallbackReference is the datasheet Vrefint typical, used when the
	// trim word is implausible.
	FallbackReference float32 = stm32g4.VrefintDefault
)

// Sample counts for one-shot averaging.
const (
	CalibrationSamples = 128
	AverageSamples     = 64
)

// ErrReferenceUnreadable is returned when the internal reference converts to
// zero, which means the Vrefint buffer is off or the analog supply is down.
var ErrReferenceUnreadable = errors.New("adc: internal reference reads zero")

// ReferenceVoltage returns the Vrefint voltage implied by a factory trim
// word, or FallbackReference and false if the word is out of range.
func ReferenceVoltage(trim uint16) (float32, bool) {
	if trim < TrimMin || trim > TrimMax {
		return FallbackReference, false
	}
	return stm32g4.VrefintCalVoltage * float32(trim) / stm32g4.ADC_FullScale12, true
}

// Calibrate brings the unit out of deep power-down, runs the single-ended
// offset calibration and, for the reference unit, measures vref_cal.
func (u *Unit) Calibrate() error {
	u.mustNotRun("calibrate")
	r := u.regs
	u.state = StateCalibrating

	if r.CR.HasBits(stm32g4.ADC_CR_ADEN) {
		r.CR.SetBits(stm32g4.ADC_CR_ADDIS)
		if err := u.cfg.Poll.UntilClear("adc disable", &r.CR, stm32g4.ADC_CR_ADEN); err != nil {
			return u.wait(err)
		}
	}
	r.CR.ClearBits(stm32g4.ADC_CR_DEEPPWD)
	r.CR.SetBits(stm32g4.ADC_CR_ADVREGEN)
	if err := u.cfg.Poll.UntilSet("adc regulator", &r.CR, stm32g4.ADC_CR_ADVREGEN); err != nil {
		return u.wait(err)
	}
	u.cfg.Delay(u.cfg.Settle)

	r.CR.ClearBits(stm32g4.ADC_CR_ADCALDIF)
	r.CR.SetBits(stm32g4.ADC_CR_ADCAL)
	if err := u.cfg.Poll.UntilClear("adc calibration", &r.CR, stm32g4.ADC_CR_ADCAL); err != nil {
		return u.wait(err)
	}

	if u.cfg.Reference {
		return u.calibrateReference()
	}
	return nil
}

func (u *Unit) calibrateReference() error {
	trim := u.cfg.Trim()
	ref, ok := ReferenceVoltage(trim)
	if !ok {
		core.RecordEvent(core.EvtTrimFallback, u.cfg.ID, uint32(trim), 0)
	}
	avg, err := u.oneShot(stm32g4.ADC1_ChannelVrefint, CalibrationSamples)
	if err != nil {
		return err
	}
	if avg == 0 {
		return ErrReferenceUnreadable
	}
	u.vrefCal = ref * stm32g4.ADC_FullScale12 / avg
	core.RecordEvent(core.EvtCalibrated, u.cfg.ID, uint32(u.vrefCal*1e6), uint32(avg))
	return nil
}

// VrefCal returns the analog supply voltage measured at calibration.
func (u *Unit) VrefCal() float32 {
	return u.vrefCal
}

// ShareReference copies vref_cal from the unit that measured it.
func (u *Unit) ShareReference(from *Unit) {
	u.vrefCal = from.vrefCal
}

// Volts converts a raw code to the pin voltage.
func (u *Unit) Volts(code uint16) float32 {
	return float32(code) * u.vrefCal / stm32g4.ADC_FullScale12
}

// AverageReading converts channel AverageSamples times under software
// trigger and returns the truncated mean. The streaming configuration is
// left as it was.
func (u *Unit) AverageReading(channel uint8) (uint16, error) {
	u.mustNotRun("average reading")
	if channel > stm32g4.MaxChannel {
		panic("adc: channel out of range")
	}
	avg, err := u.oneShot(channel, AverageSamples)
	return uint16(avg), err
}

type snapshot struct {
	smpr1, smpr2, sqr1, sqr2, cfgr, cfgr2, ier uint32
}

func (u *Unit) save() snapshot {
	r := u.regs
	return snapshot{
		smpr1: r.SMPR1.Get(),
		smpr2: r.SMPR2.Get(),
		sqr1:  r.SQR1.Get(),
		sqr2:  r.SQR2.Get(),
		cfgr:  r.CFGR.Get(),
		cfgr2: r.CFGR2.Get(),
		ier:   r.IER.Get(),
	}
}

func (u *Unit) restore(s snapshot) {
	r := u.regs
	r.SMPR1.Set(s.smpr1)
	r.SMPR2.Set(s.smpr2)
	r.SQR1.Set(s.sqr1)
	r.SQR2.Set(s.sqr2)
	r.CFGR.Set(s.cfgr)
	r.CFGR2.Set(s.cfgr2)
	r.IER.Set(s.ier)
}

// oneShot averages n software-triggered conversions of channel at the
// longest sampling time.
func (u *Unit) oneShot(channel uint8, n int) (float32, error) {
	r := u.regs
	saved := u.save()
	defer u.restore(saved)

	r.IER.Set(0)
	r.CFGR.Set(0)
	r.CFGR2.Set(0)
	var smpr [2]uint32
	reg, pos := stm32g4.SMPRPosition(channel)
	smpr[reg] = uint32(stm32g4.SampleCycles640_5) << pos
	r.SMPR1.Set(smpr[0])
	r.SMPR2.Set(smpr[1])
	_, sq := stm32g4.SQRPosition(1)
	r.SQR1.Set(uint32(channel) << sq)
	r.SQR2.Set(0)

	if err := u.Enable(); err != nil {
		return 0, err
	}
	var sum uint32
	for i := 0; i < n; i++ {
		r.CR.SetBits(stm32g4.ADC_CR_ADSTART)
		if err := u.cfg.Poll.UntilSet("adc conversion", &r.ISR, stm32g4.ADC_ISR_EOC); err != nil {
			return 0, u.wait(err)
		}
		sum += r.DR.Get() & stm32g4.ADC_DataMsk
		r.ISR.Set(stm32g4.ADC_ISR_EOC | stm32g4.ADC_ISR_EOS)
	}
	return float32(sum) / float32(n), nil
}
