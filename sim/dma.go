//go:build !tinygo

package sim

import (
	"gofoc/mmio"
	"gofoc/stm32g4"
)

// DMA models DMA1 behind DMAMUX: a request from a peripheral moves one
// half-word from the channel's peripheral address to its memory address,
// counting CNDTR down and reloading it in circular mode.
type DMA struct {
	regs *stm32g4.DMA
	mux  *stm32g4.DMAMUX

	reload [stm32g4.DMAChannels]uint32

	complete func(ch uint8)

	Transfers [stm32g4.DMAChannels]uint64
	Passes    [stm32g4.DMAChannels]uint64
}

func newDMA(regs *stm32g4.DMA, mux *stm32g4.DMAMUX) *DMA {
	d := &DMA{regs: regs, mux: mux}
	mmio.OnWrite(&regs.IFCR, func(_, v uint32) uint32 {
		clear := v
		for n := uint8(1); n <= stm32g4.DMAChannels; n++ {
			shift := stm32g4.DMAFlagShift(n)
			if v>>shift&stm32g4.DMA_ISR_GIF != 0 {
				clear |= stm32g4.DMA_ISR_ALL << shift
			}
		}
		mmio.Poke(&regs.ISR, mmio.Peek(&regs.ISR)&^clear)
		return 0
	})
	mmio.OnWrite(&regs.ISR, func(stored, _ uint32) uint32 {
		return stored // read-only
	})
	for i := range regs.Ch {
		ch := &regs.Ch[i]
		idx := i
		mmio.OnWrite(&ch.CCR, func(stored, v uint32) uint32 {
			if v&stm32g4.DMA_CCR_EN != 0 && stored&stm32g4.DMA_CCR_EN == 0 {
				d.reload[idx] = mmio.Peek(&ch.CNDTR)
			}
			return v
		})
	}
	return d
}

// Request delivers a DMAMUX request line to every channel routed to it.
func (d *DMA) Request(id uint32) {
	for slot := range d.mux.CCR {
		if slot >= stm32g4.DMAChannels {
			break
		}
		if mmio.Peek(&d.mux.CCR[slot])&stm32g4.DMAMUX_CCR_DMAREQ_ID_Msk == id {
			d.transfer(uint8(slot + 1))
		}
	}
}

func (d *DMA) transfer(n uint8) {
	ch := &d.regs.Ch[n-1]
	ccr := mmio.Peek(&ch.CCR)
	if ccr&stm32g4.DMA_CCR_EN == 0 {
		return
	}
	remaining := mmio.Peek(&ch.CNDTR)
	if remaining == 0 {
		return
	}
	src, ok := mmio.RegisterAt(mmio.Peek(&ch.CPAR))
	if !ok {
		d.flag(n, stm32g4.DMA_ISR_TEIF)
		return
	}
	buf, ok := mmio.BufferAt(mmio.Peek(&ch.CMAR))
	if !ok {
		d.flag(n, stm32g4.DMA_ISR_TEIF)
		return
	}
	total := d.reload[n-1]
	idx := total - remaining
	v := src.Get()
	if int(idx) < len(buf) {
		buf[idx] = uint16(v)
	}
	d.Transfers[n-1]++

	remaining--
	if remaining == total/2 {
		d.flag(n, stm32g4.DMA_ISR_HTIF)
	}
	if remaining == 0 {
		d.Passes[n-1]++
		if ccr&stm32g4.DMA_CCR_CIRC != 0 {
			remaining = total
		}
		mmio.Poke(&ch.CNDTR, remaining)
		d.flag(n, stm32g4.DMA_ISR_TCIF)
		if ccr&stm32g4.DMA_CCR_TCIE != 0 && d.complete != nil {
			d.complete(n)
		}
		return
	}
	mmio.Poke(&ch.CNDTR, remaining)
}

func (d *DMA) flag(n uint8, bits uint32) {
	shift := stm32g4.DMAFlagShift(n)
	mmio.Poke(&d.regs.ISR, mmio.Peek(&d.regs.ISR)|(bits|stm32g4.DMA_ISR_GIF)<<shift)
}
