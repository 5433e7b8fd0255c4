package dma

import "gofoc/stm32g4"

// RequestID is a DMAMUX request source.
type RequestID uint8

const (
	RequestADC1 RequestID = stm32g4.DMAMUX_REQ_ADC1
	RequestADC2 RequestID = stm32g4.DMAMUX_REQ_ADC2
)

// Router maps DMAMUX slots to request sources. Slot n feeds DMA1 channel
// n+1 for n < 8 and DMA2 channel n-7 above that.
type Router struct {
	regs *stm32g4.DMAMUX
}

func NewRouter(regs *stm32g4.DMAMUX) *Router {
	return &Router{regs: regs}
}

// Route selects the request source for slot (0..15).
func (r *Router) Route(slot uint8, req RequestID) {
	if slot >= stm32g4.DMAMUXChannels {
		panic("dma: caller must only pass the configured DMAMUX slots")
	}
	if uint32(req) > stm32g4.DMAMUX_CCR_DMAREQ_ID_Msk {
		panic("dma: request id out of range")
	}
	r.regs.CCR[slot].ReplaceBits(uint32(req), stm32g4.DMAMUX_CCR_DMAREQ_ID_Msk, 0)
}

// SlotFor returns the DMAMUX slot feeding DMA1 channel n.
func SlotFor(n uint8) uint8 {
	return n - 1
}
