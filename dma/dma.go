// Package dma sets up DMA1 channels for circular peripheral-to-memory
// streaming of 16-bit ADC results, and routes DMAMUX requests to them.
package dma

import (
	"gofoc/mmio"
	"gofoc/stm32g4"
)

// Controller hands out the channels of one DMA controller. Each channel can
// be claimed once.
type Controller struct {
	regs    *stm32g4.DMA
	poll    mmio.Poller
	claimed uint8
}

// NewController wraps a DMA controller. poll bounds the wait in Stop.
func NewController(regs *stm32g4.DMA, poll mmio.Poller) *Controller {
	return &Controller{regs: regs, poll: poll}
}

// Claim returns channel n (1..8).
func (c *Controller) Claim(n uint8) *Channel {
	if n < 1 || n > stm32g4.DMAChannels {
		panic("dma: caller must only pass the configured channel set")
	}
	bit := uint8(1) << (n - 1)
	if c.claimed&bit != 0 {
		panic("dma: channel claimed twice")
	}
	c.claimed |= bit
	return &Channel{
		n:     n,
		dma:   c.regs,
		regs:  &c.regs.Ch[n-1],
		shift: stm32g4.DMAFlagShift(n),
		poll:  c.poll,
	}
}

// Channel is one claimed DMA channel.
type Channel struct {
	n     uint8
	dma   *stm32g4.DMA
	regs  *stm32g4.DMAChannelRegs
	shift uint8
	poll  mmio.Poller
	bound bool
}

const streamCCR = stm32g4.DMA_CCR_SIZE_16<<stm32g4.DMA_CCR_PSIZE_Pos |
	stm32g4.DMA_CCR_SIZE_16<<stm32g4.DMA_CCR_MSIZE_Pos |
	stm32g4.DMA_CCR_MINC |
	stm32g4.DMA_CCR_CIRC |
	stm32g4.DMA_CCR_TCIE

// Bind configures the channel for 16-bit peripheral-to-memory transfers
// from peripheralAddr, circular, with the transfer-complete interrupt.
func (ch *Channel) Bind(peripheralAddr uint32) error {
	if err := ch.Stop(); err != nil {
		return err
	}
	ch.regs.CCR.Set(streamCCR)
	ch.regs.CPAR.Set(peripheralAddr)
	ch.bound = true
	return nil
}

// Start clears the channel's flags, points it at buf and enables it. The
// transfer re-arms by itself at the end of every pass.
func (ch *Channel) Start(buf *StreamBuffer) {
	if !ch.bound {
		panic("dma: channel started before Bind")
	}
	ch.ClearAllFlags()
	ch.regs.CMAR.Set(buf.address())
	ch.regs.CNDTR.Set(uint32(len(buf.data)))
	ch.regs.CCR.SetBits(stm32g4.DMA_CCR_EN)
}

// Stop disables the channel and waits until the hardware reports it idle.
func (ch *Channel) Stop() error {
	ch.regs.CCR.ClearBits(stm32g4.DMA_CCR_EN)
	return ch.poll.UntilClear("dma channel disable", &ch.regs.CCR, stm32g4.DMA_CCR_EN)
}

// TransferComplete reports the channel's TCIF flag.
func (ch *Channel) TransferComplete() bool {
	return ch.dma.ISR.HasBits(stm32g4.DMA_ISR_TCIF << ch.shift)
}

// ClearTransferComplete acknowledges TCIF. IFCR is write-1-to-clear.
func (ch *Channel) ClearTransferComplete() {
	ch.dma.IFCR.Set(stm32g4.DMA_ISR_TCIF << ch.shift)
}

// ClearAllFlags acknowledges every flag of the channel.
func (ch *Channel) ClearAllFlags() {
	ch.dma.IFCR.Set(stm32g4.DMA_ISR_ALL << ch.shift)
}

// Remaining returns CNDTR, the transfers left in the current pass.
func (ch *Channel) Remaining() uint32 {
	return ch.regs.CNDTR.Get()
}

// Number returns the channel number (1..8).
func (ch *Channel) Number() uint8 {
	return ch.n
}

// Enabled reports whether the channel is running.
func (ch *Channel) Enabled() bool {
	return ch.regs.CCR.HasBits(stm32g4.DMA_CCR_EN)
}
