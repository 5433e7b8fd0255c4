package stm32g4

import "gofoc/mmio"

// ADC is one ADC unit register block.
type ADC struct {
	ISR     mmio.Reg32    // 0x00
	IER     mmio.Reg32    // 0x04
	CR      mmio.Reg32    // 0x08
	CFGR    mmio.Reg32    // 0x0C
	CFGR2   mmio.Reg32    // 0x10
	SMPR1   mmio.Reg32    // 0x14
	SMPR2   mmio.Reg32    // 0x18
	_       [1]uint32     // 0x1C
	TR1     mmio.Reg32    // 0x20
	TR2     mmio.Reg32    // 0x24
	TR3     mmio.Reg32    // 0x28
	_       [1]uint32     // 0x2C
	SQR1    mmio.Reg32    // 0x30
	SQR2    mmio.Reg32    // 0x34
	SQR3    mmio.Reg32    // 0x38
	SQR4    mmio.Reg32    // 0x3C
	DR      mmio.Reg32    // 0x40
	_       [2]uint32     // 0x44
	JSQR    mmio.Reg32    // 0x4C
	_       [4]uint32     // 0x50
	OFR     [4]mmio.Reg32 // 0x60
	_       [4]uint32     // 0x70
	JDR     [4]mmio.Reg32 // 0x80
	_       [4]uint32     // 0x90
	AWD2CR  mmio.Reg32    // 0xA0
	AWD3CR  mmio.Reg32    // 0xA4
	_       [2]uint32     // 0xA8
	DIFSEL  mmio.Reg32    // 0xB0
	CALFACT mmio.Reg32    // 0xB4
	_       [2]uint32     // 0xB8
	GCOMP   mmio.Reg32    // 0xC0
}

// ADCCommon is the ADC12/ADC345 shared register block.
type ADCCommon struct {
	CSR mmio.Reg32 // 0x00
	_   [1]uint32  // 0x04
	CCR mmio.Reg32 // 0x08
	CDR mmio.Reg32 // 0x0C
}

// ADC ISR / IER (same bit positions; IER bits enable the matching flag).
const (
	ADC_ISR_ADRDY = 1 << 0
	ADC_ISR_EOSMP = 1 << 1
	ADC_ISR_EOC   = 1 << 2
	ADC_ISR_EOS   = 1 << 3
	ADC_ISR_OVR   = 1 << 4
	ADC_ISR_JEOC  = 1 << 5
	ADC_ISR_JEOS  = 1 << 6
	ADC_ISR_JQOVF = 1 << 10

	ADC_IER_JEOSIE = ADC_ISR_JEOS
)

// ADC CR
const (
	ADC_CR_ADEN     = 1 << 0
	ADC_CR_ADDIS    = 1 << 1
	ADC_CR_ADSTART  = 1 << 2
	ADC_CR_JADSTART = 1 << 3
	ADC_CR_ADSTP    = 1 << 4
	ADC_CR_JADSTP   = 1 << 5
	ADC_CR_ADVREGEN = 1 << 28
	ADC_CR_DEEPPWD  = 1 << 29
	ADC_CR_ADCALDIF = 1 << 30
	ADC_CR_ADCAL    = 1 << 31
)

// ADC CFGR
const (
	ADC_CFGR_DMAEN      = 1 << 0
	ADC_CFGR_DMACFG     = 1 << 1 // circular DMA mode
	ADC_CFGR_RES_Pos    = 3
	ADC_CFGR_EXTSEL_Pos = 5
	ADC_CFGR_EXTSEL_Msk = 0b11111
	ADC_CFGR_EXTEN_Pos  = 10
	ADC_CFGR_EXTEN_Msk  = 0b11
	ADC_CFGR_OVRMOD     = 1 << 12 // overwrite on overrun
	ADC_CFGR_CONT       = 1 << 13
	ADC_CFGR_JQDIS      = 1 << 31
)

// ADC JSQR
const (
	ADC_JSQR_JL_Pos      = 0
	ADC_JSQR_JL_Msk      = 0b11
	ADC_JSQR_JEXTSEL_Pos = 2
	ADC_JSQR_JEXTSEL_Msk = 0b11111
	ADC_JSQR_JEXTEN_Pos  = 7
	ADC_JSQR_JEXTEN_Msk  = 0b11
	ADC_JSQR_JSQ1_Pos    = 9
	ADC_JSQR_JSQ2_Pos    = 15
	ADC_JSQR_JSQ3_Pos    = 21
	ADC_JSQR_JSQ4_Pos    = 27
	ADC_JSQR_JSQ_Msk     = 0b11111
)

// ADC SQR1 (length + first four ranks) and SQR2 (ranks 5..9).
const (
	ADC_SQR1_L_Pos = 0
	ADC_SQR1_L_Msk = 0b1111
	ADC_SQ_Msk     = 0b11111
)

// SQRPosition returns the register index (0 for SQR1, 1 for SQR2, ...) and the
// bit position of regular rank (1-based).
func SQRPosition(rank int) (reg int, pos uint8) {
	if rank < 1 || rank > 16 {
		panic("stm32g4: regular rank out of range")
	}
	if rank <= 4 {
		return 0, uint8(6 * rank)
	}
	rank -= 5
	return 1 + rank/5, uint8(6 * (rank % 5))
}

// Trigger edge encodings shared by EXTEN and JEXTEN.
const (
	ADC_TriggerDisabled = 0b00
	ADC_TriggerRising   = 0b01
)

// ADC12 external trigger selections.
const (
	ADC12_EXTSEL_TIM1_TRGO  = 9
	ADC12_EXTSEL_TIM1_TRGO2 = 10
	ADC12_JEXTSEL_TIM1_TRGO = 0
)

// SampleTime is an SMPx encoding.
type SampleTime uint32

// Sampling time encodings, in ADC clock cycles.
const (
	SampleCycles2_5   SampleTime = 0
	SampleCycles6_5   SampleTime = 1
	SampleCycles12_5  SampleTime = 2
	SampleCycles24_5  SampleTime = 3
	SampleCycles47_5  SampleTime = 4
	SampleCycles92_5  SampleTime = 5
	SampleCycles247_5 SampleTime = 6
	SampleCycles640_5 SampleTime = 7

	SampleTimeMsk = 0b111
)

// SMPRPosition returns the register index (0 for SMPR1, 1 for SMPR2) and bit
// position of the sampling time field for channel.
func SMPRPosition(channel uint8) (reg int, pos uint8) {
	if channel > MaxChannel {
		panic("stm32g4: ADC channel out of range")
	}
	if channel < 10 {
		return 0, 3 * channel
	}
	return 1, 3 * (channel - 10)
}

// ADC input channels.
const (
	MaxChannel          = 18
	ADC1_ChannelVrefint = 18
)

// ADC common CCR
const (
	ADC_CCR_DUAL_Pos          = 0
	ADC_CCR_DUAL_Msk          = 0b11111
	ADC_CCR_DUAL_RegInjSimult = 0b00001
	ADC_CCR_VREFEN            = 1 << 22
	ADC_CCR_VSENSESEL         = 1 << 23
)

// ADC data.
const (
	ADC_DataMsk     = 0xFFFF
	ADC_FullScale12 = 4095
)
