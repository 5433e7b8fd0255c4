package stm32g4

// Peripherals is the set of register blocks handed to the motor-control core.
// Each block must have exactly one owner; see TakePeripherals.
type Peripherals struct {
	TIM1   *TIM
	ADC1   *ADC
	ADC2   *ADC
	ADC12  *ADCCommon
	DMA1   *DMA
	DMAMUX *DMAMUX
	CORDIC *CORDIC
	SPI1   *SPI
	GPIOB  *GPIO
}

// Base addresses.
const (
	TIM1Base    = 0x4001_2C00
	SPI1Base    = 0x4001_3000
	DMA1Base    = 0x4002_0000
	DMAMUXBase  = 0x4002_0800
	CORDICBase  = 0x4002_0C00
	ADC1Base    = 0x5000_0000
	ADC2Base    = 0x5000_0100
	ADC12Base   = 0x5000_0300
	GPIOBBase   = 0x4800_0400
	FlashSysMem = 0x1FFF_0000
)

// VREFINT factory calibration word: raw code for the internal reference measured
// at VDDA = 3.0 V, 30 °C.
const (
	VrefintCalAddr    = 0x1FFF_75AA
	VrefintCalMin     = 1570
	VrefintCalMax     = 1734
	VrefintCalVoltage = 3.0
	VrefintDefault    = 1.212
)

// Interrupt lines used by the core.
const (
	IRQ_DMA1_CH1 = 11
	IRQ_DMA1_CH2 = 12
	IRQ_ADC1_2   = 18
	IRQ_DMA1_CH8 = 96
)

// DMA1ChannelIRQ returns the interrupt line of DMA1 channel n (1..8).
func DMA1ChannelIRQ(n uint8) int {
	if n == 8 {
		return IRQ_DMA1_CH8
	}
	return IRQ_DMA1_CH1 + int(n) - 1
}

// NVICPriorityBits is the number of implemented priority bits.
const NVICPriorityBits = 4
