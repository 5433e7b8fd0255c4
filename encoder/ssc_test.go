//go:build !tinygo

package encoder

import (
	"errors"
	"testing"

	"gofoc/mmio"
	"gofoc/stm32g4"
)

// sensorLine models the SPI block with a sensor that answers every read
// phase with the queued words.
type sensorLine struct {
	regs      *stm32g4.SPI
	reply     []uint16
	written   []uint16
	receiving bool
	speAtRead []bool
}

func newSensorLine(t *testing.T, reply ...uint16) *sensorLine {
	t.Helper()
	mmio.Reset()
	t.Cleanup(mmio.Reset)
	l := &sensorLine{regs: new(stm32g4.SPI), reply: reply}
	mmio.OnWrite(&l.regs.CR1, func(_, v uint32) uint32 {
		if v&stm32g4.SPI_CR1_SPE != 0 && v&stm32g4.SPI_CR1_BIDIOE == 0 {
			l.receiving = true
		}
		return v
	})
	mmio.OnRead(&l.regs.SR, func(uint32) uint32 {
		sr := uint32(stm32g4.SPI_SR_TXE)
		if l.receiving && len(l.reply) > 0 {
			sr |= stm32g4.SPI_SR_RXNE
		}
		return sr
	})
	mmio.OnWrite(&l.regs.DR, func(_, v uint32) uint32 {
		l.written = append(l.written, uint16(v))
		return v
	})
	mmio.OnRead(&l.regs.DR, func(uint32) uint32 {
		if len(l.reply) == 0 {
			return 0
		}
		v := l.reply[0]
		l.reply = l.reply[1:]
		l.speAtRead = append(l.speAtRead, mmio.Peek(&l.regs.CR1)&stm32g4.SPI_CR1_SPE != 0)
		return uint32(v)
	})
	return l
}

func TestSSCConfigure(t *testing.T) {
	l := newSensorLine(t)
	NewSSC(l.regs, 2, mmio.Poller{Limit: 10})
	cr1 := mmio.Peek(&l.regs.CR1)
	want := uint32(2<<stm32g4.SPI_CR1_BR_Pos | stm32g4.SPI_CR1_CPHA | stm32g4.SPI_CR1_MSTR |
		stm32g4.SPI_CR1_SSI | stm32g4.SPI_CR1_SSM | stm32g4.SPI_CR1_BIDIOE | stm32g4.SPI_CR1_BIDIMODE)
	if cr1 != want {
		t.Errorf("CR1 = %#x, want %#x", cr1, want)
	}
	if cr2 := mmio.Peek(&l.regs.CR2); cr2 != stm32g4.SPI_CR2_DS_16<<stm32g4.SPI_CR2_DS_Pos {
		t.Errorf("CR2 = %#x", cr2)
	}
}

func TestSSCReadAngle(t *testing.T) {
	l := newSensorLine(t, 0x9234, 0x7000)
	sensor := New(NewSSC(l.regs, 2, mmio.Poller{Limit: 10}), nil)
	sensor.CheckSafety = true

	got, err := sensor.ReadAngle()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x1234 {
		t.Errorf("angle = %#x", got)
	}
	if len(l.written) != 1 || l.written[0] != readAngleCmd {
		t.Errorf("command words = %#x", l.written)
	}
	// The clock is stopped before the last word arrives.
	if len(l.speAtRead) != 2 || !l.speAtRead[0] || l.speAtRead[1] {
		t.Errorf("SPE at each read = %v", l.speAtRead)
	}
	if mmio.Peek(&l.regs.CR1)&stm32g4.SPI_CR1_SPE != 0 {
		t.Error("SPI left enabled")
	}
}

func TestSSCReceiveTimeout(t *testing.T) {
	l := newSensorLine(t)
	s := NewSSC(l.regs, 0, mmio.Poller{Limit: 5})
	err := s.Tx(nil, make([]byte, 2))
	var ht *mmio.HardwareTimeout
	if !errors.As(err, &ht) || ht.Op != "ssc receive" {
		t.Fatalf("err = %v", err)
	}
	if mmio.Peek(&l.regs.CR1)&stm32g4.SPI_CR1_SPE != 0 {
		t.Error("SPI left enabled after timeout")
	}
}

func TestSSCRejects(t *testing.T) {
	l := newSensorLine(t)
	s := NewSSC(l.regs, 0, mmio.Poller{Limit: 5})
	if err := s.Tx([]byte{1, 2}, []byte{0, 0}); !errors.Is(err, ErrFullDuplex) {
		t.Errorf("full duplex: %v", err)
	}
	if err := s.Tx([]byte{1}, nil); !errors.Is(err, ErrOddLength) {
		t.Errorf("odd length: %v", err)
	}
	if _, err := s.Transfer(0); !errors.Is(err, ErrFullDuplex) {
		t.Errorf("transfer: %v", err)
	}
	if err := s.Tx(nil, nil); err != nil {
		t.Errorf("empty: %v", err)
	}
}
