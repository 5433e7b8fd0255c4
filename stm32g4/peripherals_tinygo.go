//go:build tinygo

package stm32g4

import (
	"runtime/volatile"
	"unsafe"
)

var taken bool

// TakePeripherals returns the hardware register blocks. It panics if called
// twice, so every block has a single owner for the lifetime of the firmware.
func TakePeripherals() Peripherals {
	if taken {
		panic("stm32g4: peripherals already taken")
	}
	taken = true
	return Peripherals{
		TIM1:   (*TIM)(unsafe.Pointer(uintptr(TIM1Base))),
		ADC1:   (*ADC)(unsafe.Pointer(uintptr(ADC1Base))),
		ADC2:   (*ADC)(unsafe.Pointer(uintptr(ADC2Base))),
		ADC12:  (*ADCCommon)(unsafe.Pointer(uintptr(ADC12Base))),
		DMA1:   (*DMA)(unsafe.Pointer(uintptr(DMA1Base))),
		DMAMUX: (*DMAMUX)(unsafe.Pointer(uintptr(DMAMUXBase))),
		CORDIC: (*CORDIC)(unsafe.Pointer(uintptr(CORDICBase))),
		SPI1:   (*SPI)(unsafe.Pointer(uintptr(SPI1Base))),
		GPIOB:  (*GPIO)(unsafe.Pointer(uintptr(GPIOBBase))),
	}
}

// ReadVrefintCal loads the factory VREFINT trim word from system memory. The
// word lives outside every peripheral block, so this is a plain volatile load.
func ReadVrefintCal() uint16 {
	return volatile.LoadUint16((*uint16)(unsafe.Pointer(uintptr(VrefintCalAddr))))
}
