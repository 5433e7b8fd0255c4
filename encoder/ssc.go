package encoder

import (
	"errors"

	"gofoc/mmio"
	"gofoc/stm32g4"
)

var (
	ErrFullDuplex = errors.New("encoder: ssc link is half duplex")
	ErrOddLength  = errors.New("encoder: ssc transfers whole 16-bit words")
)

// SSC drives an SPI block as a single-wire, half-duplex master with 16-bit
// frames in mode 1. It implements drivers.SPI for the TLE5012: a Tx with
// only a write buffer drives the line, a Tx with only a read buffer
// releases it and clocks words in. Words travel most significant byte
// first.
type SSC struct {
	regs *stm32g4.SPI
	poll mmio.Poller
}

// NewSSC configures regs. prescaler is the CR1 BR field: the SPI clock is
// the bus clock divided by 2<<prescaler.
func NewSSC(regs *stm32g4.SPI, prescaler uint8, poll mmio.Poller) *SSC {
	regs.CR1.Set(0)
	regs.CR1.Set(uint32(prescaler&7)<<stm32g4.SPI_CR1_BR_Pos |
		stm32g4.SPI_CR1_CPHA |
		stm32g4.SPI_CR1_MSTR |
		stm32g4.SPI_CR1_SSI | stm32g4.SPI_CR1_SSM |
		stm32g4.SPI_CR1_BIDIOE | stm32g4.SPI_CR1_BIDIMODE)
	regs.CR2.Set(stm32g4.SPI_CR2_DS_16 << stm32g4.SPI_CR2_DS_Pos)
	return &SSC{regs: regs, poll: poll}
}

// Tx writes w or reads r; one of them must be empty.
func (s *SSC) Tx(w, r []byte) error {
	switch {
	case len(w) != 0 && len(r) != 0:
		return ErrFullDuplex
	case len(w)%2 != 0 || len(r)%2 != 0:
		return ErrOddLength
	case len(w) != 0:
		return s.write(w)
	case len(r) != 0:
		return s.read(r)
	}
	return nil
}

// Transfer is not available on a half-duplex link.
func (s *SSC) Transfer(b byte) (byte, error) {
	return 0, ErrFullDuplex
}

func (s *SSC) write(w []byte) error {
	cr1 := &s.regs.CR1
	cr1.SetBits(stm32g4.SPI_CR1_BIDIOE)
	cr1.SetBits(stm32g4.SPI_CR1_SPE)
	defer cr1.ClearBits(stm32g4.SPI_CR1_SPE)
	for i := 0; i < len(w); i += 2 {
		if err := s.poll.UntilSet("ssc transmit", &s.regs.SR, stm32g4.SPI_SR_TXE); err != nil {
			return err
		}
		s.regs.DR.Set(uint32(w[i])<<8 | uint32(w[i+1]))
	}
	return s.poll.UntilClear("ssc idle", &s.regs.SR, stm32g4.SPI_SR_BSY)
}

// read clocks len(r)/2 words in. The clock runs for as long as SPE is set,
// so SPE is dropped while the last word is on the wire.
func (s *SSC) read(r []byte) error {
	cr1 := &s.regs.CR1
	cr1.ClearBits(stm32g4.SPI_CR1_BIDIOE)
	for s.regs.SR.HasBits(stm32g4.SPI_SR_RXNE) {
		s.regs.DR.Get()
	}
	cr1.SetBits(stm32g4.SPI_CR1_SPE)
	n := len(r) / 2
	for i := 0; i < n; i++ {
		if i == n-1 {
			cr1.ClearBits(stm32g4.SPI_CR1_SPE)
		}
		if err := s.poll.UntilSet("ssc receive", &s.regs.SR, stm32g4.SPI_SR_RXNE); err != nil {
			cr1.ClearBits(stm32g4.SPI_CR1_SPE)
			return err
		}
		v := s.regs.DR.Get()
		r[2*i], r[2*i+1] = byte(v>>8), byte(v)
	}
	return nil
}
