package stm32g4

import "gofoc/mmio"

// GPIO is a general-purpose I/O port. Pin modes are set up before the
// drive boots; the drive only drives output levels.
type GPIO struct {
	MODER   mmio.Reg32 // 0x00
	OTYPER  mmio.Reg32 // 0x04
	OSPEEDR mmio.Reg32 // 0x08
	PUPDR   mmio.Reg32 // 0x0C
	IDR     mmio.Reg32 // 0x10
	ODR     mmio.Reg32 // 0x14
	BSRR    mmio.Reg32 // 0x18
	LCKR    mmio.Reg32 // 0x1C
	AFRL    mmio.Reg32 // 0x20
	AFRH    mmio.Reg32 // 0x24
	BRR     mmio.Reg32 // 0x28
}

// Encoder chip select: PB8, active low.
const EncoderNSSPin = 8

// Drive sets or resets pin with a single BSRR write.
func (g *GPIO) Drive(pin uint8, high bool) {
	if pin > 15 {
		panic("stm32g4: caller must only pass pins 0..15")
	}
	if high {
		g.BSRR.Set(1 << pin)
	} else {
		g.BSRR.Set(1 << (pin + 16))
	}
}
