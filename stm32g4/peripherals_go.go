//go:build !tinygo

package stm32g4

import "sync/atomic"

// NewPeripherals allocates a detached set of register blocks. On the host
// they are plain memory; package sim attaches hardware behaviour to them.
func NewPeripherals() Peripherals {
	return Peripherals{
		TIM1:   new(TIM),
		ADC1:   new(ADC),
		ADC2:   new(ADC),
		ADC12:  new(ADCCommon),
		DMA1:   new(DMA),
		DMAMUX: new(DMAMUX),
		CORDIC: new(CORDIC),
		SPI1:   new(SPI),
		GPIOB:  new(GPIO),
	}
}

var vrefintCal atomic.Uint32

// ReadVrefintCal returns the trim word installed with SetVrefintCal.
func ReadVrefintCal() uint16 {
	return uint16(vrefintCal.Load())
}

// SetVrefintCal installs the factory trim word seen by ReadVrefintCal.
func SetVrefintCal(code uint16) {
	vrefintCal.Store(uint32(code))
}
