//go:build !tinygo

package sim

import (
	"gofoc/mmio"
	"gofoc/stm32g4"
)

// ADC models one ADC unit: regulator and calibration handshakes, the ready
// flag, software-started single conversions, hardware-triggered regular and
// injected sequences, and the OVRMOD overrun policy.
type ADC struct {
	Name string

	regs   *stm32g4.ADC
	common *stm32g4.ADCCommon

	// Inputs holds the code each channel converts to. Source, when set,
	// takes precedence.
	Inputs [stm32g4.MaxChannel + 1]uint16
	Source func(channel uint8) uint16

	// CalSpins is how many CR reads see ADCAL before calibration finishes.
	CalSpins int
	// StuckCalibration and StuckReady make the handshakes never complete.
	StuckCalibration bool
	StuckReady       bool

	calBusy int
	stalled bool

	request func()

	Conversions       uint64 // regular conversions
	InjectedRuns      uint64 // injected sequences
	Overruns          uint64 // regular conversions that found EOC still set
	InjectedOverwrite uint64 // injected sequences that found JEOS still set
}

func newADC(name string, regs *stm32g4.ADC, common *stm32g4.ADCCommon) *ADC {
	a := &ADC{Name: name, regs: regs, common: common, CalSpins: 3}

	mmio.OnWrite(&regs.CR, a.writeCR)
	mmio.OnRead(&regs.CR, func(stored uint32) uint32 {
		if stored&stm32g4.ADC_CR_ADCAL != 0 && !a.StuckCalibration {
			if a.calBusy > 0 {
				a.calBusy--
			} else {
				stored &^= stm32g4.ADC_CR_ADCAL
				mmio.Poke(&regs.CR, stored)
			}
		}
		return stored
	})
	mmio.OnWrite(&regs.ISR, func(stored, v uint32) uint32 {
		if v&stm32g4.ADC_ISR_OVR != 0 {
			a.stalled = false
		}
		return stored &^ v
	})
	mmio.OnRead(&regs.DR, func(stored uint32) uint32 {
		mmio.Poke(&regs.ISR, mmio.Peek(&regs.ISR)&^stm32g4.ADC_ISR_EOC)
		return stored
	})
	return a
}

func (a *ADC) writeCR(stored, v uint32) uint32 {
	const (
		aden     = stm32g4.ADC_CR_ADEN
		adstart  = stm32g4.ADC_CR_ADSTART
		jadstart = stm32g4.ADC_CR_JADSTART
	)
	if v&stm32g4.ADC_CR_ADCAL != 0 && stored&stm32g4.ADC_CR_ADCAL == 0 {
		a.calBusy = a.CalSpins
	}
	if v&aden != 0 && stored&aden == 0 && !a.StuckReady {
		a.setISR(stm32g4.ADC_ISR_ADRDY)
	}
	if v&stm32g4.ADC_CR_ADDIS != 0 {
		v &^= aden | stm32g4.ADC_CR_ADDIS
	}
	if v&stm32g4.ADC_CR_ADSTP != 0 {
		v &^= adstart | stm32g4.ADC_CR_ADSTP
	}
	if v&stm32g4.ADC_CR_JADSTP != 0 {
		v &^= jadstart | stm32g4.ADC_CR_JADSTP
	}
	if v&adstart != 0 && v&aden != 0 && a.regularTrigger() == stm32g4.ADC_TriggerDisabled {
		// Software start: run the sequence now, then ADSTART self-clears.
		a.runRegular()
		v &^= adstart
	}
	return v
}

func (a *ADC) setISR(bits uint32) {
	mmio.Poke(&a.regs.ISR, mmio.Peek(&a.regs.ISR)|bits)
}

func (a *ADC) regularTrigger() uint32 {
	return mmio.Peek(&a.regs.CFGR) >> stm32g4.ADC_CFGR_EXTEN_Pos & stm32g4.ADC_CFGR_EXTEN_Msk
}

func (a *ADC) sample(ch uint8) uint16 {
	if ch == stm32g4.ADC1_ChannelVrefint && mmio.Peek(&a.common.CCR)&stm32g4.ADC_CCR_VREFEN == 0 {
		return 0
	}
	if a.Source != nil {
		return a.Source(ch)
	}
	return a.Inputs[ch]
}

func (a *ADC) enabled() bool {
	return mmio.Peek(&a.regs.CR)&stm32g4.ADC_CR_ADEN != 0
}

func (a *ADC) runRegular() {
	if a.stalled {
		return
	}
	sqr := [...]*mmio.Reg32{&a.regs.SQR1, &a.regs.SQR2, &a.regs.SQR3, &a.regs.SQR4}
	n := int(mmio.Peek(&a.regs.SQR1)&stm32g4.ADC_SQR1_L_Msk) + 1
	for rank := 1; rank <= n && !a.stalled; rank++ {
		reg, pos := stm32g4.SQRPosition(rank)
		ch := uint8(mmio.Peek(sqr[reg]) >> pos & stm32g4.ADC_SQ_Msk)
		a.convert(ch)
	}
	a.setISR(stm32g4.ADC_ISR_EOS)
}

func (a *ADC) convert(ch uint8) {
	a.Conversions++
	cfgr := mmio.Peek(&a.regs.CFGR)
	if mmio.Peek(&a.regs.ISR)&stm32g4.ADC_ISR_EOC != 0 {
		a.Overruns++
		a.setISR(stm32g4.ADC_ISR_OVR)
		if cfgr&stm32g4.ADC_CFGR_OVRMOD == 0 {
			// Preserve mode: DR keeps the old sample and conversions stop
			// until OVR is cleared.
			a.stalled = true
			return
		}
	}
	mmio.Poke(&a.regs.DR, uint32(a.sample(ch)))
	a.setISR(stm32g4.ADC_ISR_EOC)
	if cfgr&stm32g4.ADC_CFGR_DMAEN != 0 && a.request != nil {
		a.request()
	}
}

func (a *ADC) triggerRegular(extsel uint32) {
	cfgr := mmio.Peek(&a.regs.CFGR)
	if !a.enabled() || mmio.Peek(&a.regs.CR)&stm32g4.ADC_CR_ADSTART == 0 {
		return
	}
	if a.regularTrigger() != stm32g4.ADC_TriggerRising ||
		cfgr>>stm32g4.ADC_CFGR_EXTSEL_Pos&stm32g4.ADC_CFGR_EXTSEL_Msk != extsel {
		return
	}
	a.runRegular()
}

// triggerInjected runs the injected sequence if JSQR selects jextsel. It
// reports whether the end-of-sequence interrupt is requested.
func (a *ADC) triggerInjected(jextsel uint32) bool {
	if !a.enabled() || mmio.Peek(&a.regs.CR)&stm32g4.ADC_CR_JADSTART == 0 {
		return false
	}
	jsqr := mmio.Peek(&a.regs.JSQR)
	if jsqr>>stm32g4.ADC_JSQR_JEXTEN_Pos&stm32g4.ADC_JSQR_JEXTEN_Msk != stm32g4.ADC_TriggerRising ||
		jsqr>>stm32g4.ADC_JSQR_JEXTSEL_Pos&stm32g4.ADC_JSQR_JEXTSEL_Msk != jextsel {
		return false
	}
	if mmio.Peek(&a.regs.ISR)&stm32g4.ADC_ISR_JEOS != 0 {
		a.InjectedOverwrite++
	}
	n := int(jsqr&stm32g4.ADC_JSQR_JL_Msk) + 1
	for rank := 0; rank < n; rank++ {
		ch := uint8(jsqr >> (stm32g4.ADC_JSQR_JSQ1_Pos + 6*rank) & stm32g4.ADC_JSQR_JSQ_Msk)
		mmio.Poke(&a.regs.JDR[rank], uint32(a.sample(ch)))
	}
	a.InjectedRuns++
	a.setISR(stm32g4.ADC_ISR_JEOC | stm32g4.ADC_ISR_JEOS)
	return mmio.Peek(&a.regs.IER)&stm32g4.ADC_IER_JEOSIE != 0
}

// Stalled reports whether a preserve-mode overrun has stopped conversions.
func (a *ADC) Stalled() bool {
	return a.stalled
}
