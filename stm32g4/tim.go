// Package stm32g4 describes the STM32G4 peripheral register blocks used by the
// motor-control core: advanced timer, ADC, DMA, DMAMUX, CORDIC and SPI.
package stm32g4

import "gofoc/mmio"

// TIM is the advanced-control timer register block (TIM1/TIM8/TIM20).
type TIM struct {
	CR1   mmio.Reg32 // 0x00
	CR2   mmio.Reg32 // 0x04
	SMCR  mmio.Reg32 // 0x08
	DIER  mmio.Reg32 // 0x0C
	SR    mmio.Reg32 // 0x10
	EGR   mmio.Reg32 // 0x14
	CCMR1 mmio.Reg32 // 0x18
	CCMR2 mmio.Reg32 // 0x1C
	CCER  mmio.Reg32 // 0x20
	CNT   mmio.Reg32 // 0x24
	PSC   mmio.Reg32 // 0x28
	ARR   mmio.Reg32 // 0x2C
	RCR   mmio.Reg32 // 0x30
	CCR1  mmio.Reg32 // 0x34
	CCR2  mmio.Reg32 // 0x38
	CCR3  mmio.Reg32 // 0x3C
	CCR4  mmio.Reg32 // 0x40
	BDTR  mmio.Reg32 // 0x44
	CCR5  mmio.Reg32 // 0x48
	CCR6  mmio.Reg32 // 0x4C
	CCMR3 mmio.Reg32 // 0x50
	DTR2  mmio.Reg32 // 0x54
	ECR   mmio.Reg32 // 0x58
	TISEL mmio.Reg32 // 0x5C
	AF1   mmio.Reg32 // 0x60
	AF2   mmio.Reg32 // 0x64
	OR1   mmio.Reg32 // 0x68
}

// TIM CR1
const (
	TIM_CR1_CEN      = 1 << 0
	TIM_CR1_UDIS     = 1 << 1
	TIM_CR1_URS      = 1 << 2
	TIM_CR1_OPM      = 1 << 3
	TIM_CR1_DIR      = 1 << 4
	TIM_CR1_CMS_Pos  = 5
	TIM_CR1_CMS_Msk  = 0b11
	TIM_CR1_CMS_CA1  = 0b01 // center-aligned mode 1
	TIM_CR1_ARPE     = 1 << 7
	TIM_CR1_UIFREMAP = 1 << 11
)

// TIM CR2
const (
	TIM_CR2_MMS_Pos     = 4
	TIM_CR2_MMS_Msk     = 0b111
	TIM_CR2_MMS_OC4REF  = 0b111
	TIM_CR2_MMS2_Pos    = 20
	TIM_CR2_MMS2_Msk    = 0b1111
	TIM_CR2_MMS2_OC5REF = 0b1000
)

// TIM DIER / SR / EGR
const (
	TIM_DIER_UIE = 1 << 0
	TIM_DIER_BIE = 1 << 7
	TIM_SR_UIF   = 1 << 0
	TIM_SR_BIF   = 1 << 7
	TIM_EGR_UG   = 1 << 0
)

// Output-compare mode fields. Each CCMRx register carries two channels: the
// first at bit 0, the second at bit 8.
const (
	TIM_CCMR_OCxPE      = 1 << 3
	TIM_CCMR_OCxM_Pos   = 4
	TIM_CCMR_OCxM_Msk   = 0b111
	TIM_CCMR_OCxM_PWM1  = 0b110 // active while CNT < CCRx
	TIM_CCMR_Ch2_Offset = 8

	TIM_CCMR_PWM1_PRELOAD = TIM_CCMR_OCxM_PWM1<<TIM_CCMR_OCxM_Pos | TIM_CCMR_OCxPE
)

// TIM CCER
const (
	TIM_CCER_CC1E  = 1 << 0
	TIM_CCER_CC1NE = 1 << 2
	TIM_CCER_CC2E  = 1 << 4
	TIM_CCER_CC2NE = 1 << 6
	TIM_CCER_CC3E  = 1 << 8
	TIM_CCER_CC3NE = 1 << 10
	TIM_CCER_CC4E  = 1 << 12
	TIM_CCER_CC5E  = 1 << 16
)

// TIM BDTR
const (
	TIM_BDTR_DTG_Msk = 0xFF
	TIM_BDTR_OSSI    = 1 << 10
	TIM_BDTR_OSSR    = 1 << 11
	TIM_BDTR_BKE     = 1 << 12
	TIM_BDTR_AOE     = 1 << 14
	TIM_BDTR_MOE     = 1 << 15
)
