//go:build !tinygo

// Package sim models the STM32G4 peripherals used by the drive on the host.
//
// Register blocks are plain memory (see package mmio); sim attaches read and
// write hooks that reproduce the behaviour the drivers depend on: handshake
// flags, write-1-to-clear status registers, preloaded timer compares, trigger
// outputs, injected and regular conversions, circular DMA and the CORDIC
// result queue. Everything runs on the caller's goroutine, driven by Step.
package sim

import (
	"math"

	"gofoc/stm32g4"
)

// Board is a simulated MCU with the motor-control peripherals wired the way
// the drive expects: TIM1 trigger outputs to both ADCs, ADC requests through
// DMAMUX into DMA1, and interrupt lines into a user callback.
type Board struct {
	Periph stm32g4.Peripherals

	Timer  *Timer
	ADC1   *ADC
	ADC2   *ADC
	DMA    *DMA
	CORDIC *CORDIC

	// VDDA is the analog supply used by SetVolts.
	VDDA float64

	irq func(irq int)
}

// NewBoard allocates fresh peripherals and attaches their models. The
// factory trim word is set to trim.
func NewBoard(trim uint16) *Board {
	p := stm32g4.NewPeripherals()
	stm32g4.SetVrefintCal(trim)

	b := &Board{
		Periph: p,
		VDDA:   3.3,
		irq:    func(int) {},
	}
	b.Timer = newTimer(p.TIM1)
	b.ADC1 = newADC("ADC1", p.ADC1, p.ADC12)
	b.ADC2 = newADC("ADC2", p.ADC2, p.ADC12)
	b.DMA = newDMA(p.DMA1, p.DMAMUX)
	b.CORDIC = newCORDIC(p.CORDIC)

	b.ADC1.request = func() { b.DMA.Request(stm32g4.DMAMUX_REQ_ADC1) }
	b.ADC2.request = func() { b.DMA.Request(stm32g4.DMAMUX_REQ_ADC2) }
	b.DMA.complete = func(ch uint8) {
		b.irq(stm32g4.DMA1ChannelIRQ(ch))
	}
	b.Timer.trgo = func() {
		b.trigger(true, stm32g4.ADC12_JEXTSEL_TIM1_TRGO, stm32g4.ADC12_EXTSEL_TIM1_TRGO)
	}
	b.Timer.trgo2 = func() {
		b.trigger(false, 0, stm32g4.ADC12_EXTSEL_TIM1_TRGO2)
	}
	return b
}

// Connect routes interrupt requests (stm32g4.IRQ_* numbers) to raise.
func (b *Board) Connect(raise func(irq int)) {
	b.irq = raise
}

// trigger fans one timer trigger out to both ADCs. Both units convert before
// the shared ADC1_2 interrupt is requested, as the dual-mode hardware does.
func (b *Board) trigger(trgo bool, jextsel, extsel uint32) {
	inj := false
	if trgo {
		i1 := b.ADC1.triggerInjected(jextsel)
		i2 := b.ADC2.triggerInjected(jextsel)
		inj = i1 || i2
	}
	b.ADC1.triggerRegular(extsel)
	b.ADC2.triggerRegular(extsel)
	if inj {
		b.irq(stm32g4.IRQ_ADC1_2)
	}
}

// Step advances the timer by ticks timer-clock cycles.
func (b *Board) Step(ticks uint32) {
	b.Timer.Step(ticks)
}

// RunPeriods advances the timer by n full PWM periods.
func (b *Board) RunPeriods(n int) {
	for i := 0; i < n; i++ {
		b.Timer.Step(b.Timer.PeriodTicks())
	}
}

// Code converts a voltage on an ADC pin to the 12-bit code at VDDA.
func (b *Board) Code(volts float64) uint16 {
	c := math.Round(volts / b.VDDA * stm32g4.ADC_FullScale12)
	return uint16(math.Max(0, math.Min(c, stm32g4.ADC_FullScale12)))
}

// SetVolts drives an ADC input with a voltage.
func (b *Board) SetVolts(a *ADC, channel uint8, volts float64) {
	a.Inputs[channel] = b.Code(volts)
}
