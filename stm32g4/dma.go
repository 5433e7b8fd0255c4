package stm32g4

import "gofoc/mmio"

// DMAChannelRegs is the per-channel slice of a DMA controller.
type DMAChannelRegs struct {
	CCR   mmio.Reg32
	CNDTR mmio.Reg32
	CPAR  mmio.Reg32
	CMAR  mmio.Reg32
	_     [1]uint32
}

// DMA is a DMA controller (DMA1/DMA2) with eight channels.
type DMA struct {
	ISR  mmio.Reg32 // 0x00
	IFCR mmio.Reg32 // 0x04
	Ch   [DMAChannels]DMAChannelRegs
}

// DMAMUX is the request router in front of DMA1/DMA2.
type DMAMUX struct {
	CCR [DMAMUXChannels]mmio.Reg32
}

const (
	DMAChannels    = 8
	DMAMUXChannels = 16
)

// DMA CCR
const (
	DMA_CCR_EN        = 1 << 0
	DMA_CCR_TCIE      = 1 << 1
	DMA_CCR_HTIE      = 1 << 2
	DMA_CCR_TEIE      = 1 << 3
	DMA_CCR_DIR       = 1 << 4
	DMA_CCR_CIRC      = 1 << 5
	DMA_CCR_PINC      = 1 << 6
	DMA_CCR_MINC      = 1 << 7
	DMA_CCR_PSIZE_Pos = 8
	DMA_CCR_MSIZE_Pos = 10
	DMA_CCR_SIZE_16   = 0b01
	DMA_CCR_PL_Pos    = 12
)

// DMA ISR/IFCR flag bits for channel n (1-based). Each channel owns a nibble.
const (
	DMA_ISR_GIF  = 1 << 0
	DMA_ISR_TCIF = 1 << 1
	DMA_ISR_HTIF = 1 << 2
	DMA_ISR_TEIF = 1 << 3
	DMA_ISR_ALL  = DMA_ISR_GIF | DMA_ISR_TCIF | DMA_ISR_HTIF | DMA_ISR_TEIF
)

// DMAFlagShift returns the bit offset of channel n's nibble in ISR/IFCR.
func DMAFlagShift(n uint8) uint8 {
	return 4 * (n - 1)
}

// DMAMUX CxCR
const (
	DMAMUX_CCR_DMAREQ_ID_Msk = 0x7F
)

// DMAMUX request IDs.
const (
	DMAMUX_REQ_ADC1 = 5
	DMAMUX_REQ_ADC2 = 36
)
