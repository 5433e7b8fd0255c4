// Package encoder reads rotor position from an Infineon TLE5012B magnetic
// angle sensor on a three-wire SSC (half-duplex SPI) link.
package encoder

import (
	"errors"

	"tinygo.org/x/drivers"

	"gofoc/cordic"
)

// Command words. A read command is 1 in bit 15, the register address in
// bits 4..9 and the word count in bits 0..3.
const (
	cmdRead      = 0x8000
	regAngle     = 0x02 << 4
	readAngleCmd = cmdRead | regAngle | 1

	// AngleBits is the width of the angle value (AVAL, 15 bits).
	AngleBits = 15
	AngleMask = 1<<AngleBits - 1
	// Counts per mechanical revolution.
	Counts = 1 << AngleBits
)

// Safety word status bits, each low on error.
const (
	safetySystemOK = 1 << 14
	safetyIfaceOK  = 1 << 13
	safetyAngleOK  = 1 << 12
)

var (
	ErrSensorFault    = errors.New("encoder: sensor reported a system error")
	ErrInterfaceFault = errors.New("encoder: sensor reported an interface error")
	ErrInvalidAngle   = errors.New("encoder: angle value invalid")
)

// TLE5012 is one sensor. The bus must already be set up for 16-bit-friendly
// mode 1 transfers; Tx with a nil read buffer drives the data line and Tx
// with a nil write buffer releases it.
type TLE5012 struct {
	bus    drivers.SPI
	chip   func(selected bool)
	buf    [4]byte
	safety uint16

	// CheckSafety makes ReadAngle fail when the safety word flags an error.
	CheckSafety bool
}

// New returns a sensor on bus. chip drives the active-low select line; it
// receives true to select.
func New(bus drivers.SPI, chip func(selected bool)) *TLE5012 {
	if chip == nil {
		chip = func(bool) {}
	}
	chip(false)
	return &TLE5012{bus: bus, chip: chip}
}

// ReadAngle returns the raw 15-bit mechanical angle.
func (s *TLE5012) ReadAngle() (uint16, error) {
	s.buf[0] = readAngleCmd >> 8
	s.buf[1] = readAngleCmd & 0xFF
	s.chip(true)
	err := s.bus.Tx(s.buf[:2], nil)
	if err == nil {
		err = s.bus.Tx(nil, s.buf[:4])
	}
	s.chip(false)
	if err != nil {
		return 0, err
	}
	angle := uint16(s.buf[0])<<8 | uint16(s.buf[1])
	s.safety = uint16(s.buf[2])<<8 | uint16(s.buf[3])
	if s.CheckSafety {
		switch {
		case s.safety&safetySystemOK == 0:
			return 0, ErrSensorFault
		case s.safety&safetyIfaceOK == 0:
			return 0, ErrInterfaceFault
		case s.safety&safetyAngleOK == 0:
			return 0, ErrInvalidAngle
		}
	}
	return angle & AngleMask, nil
}

// Safety returns the safety word that followed the last angle.
func (s *TLE5012) Safety() uint16 {
	return s.safety
}

// ElectricalAngle converts a raw mechanical angle to an electrical angle in
// the CORDIC's native units ([-1, 1) for [-π, π)). offset is the electrical
// angle, in native units, read when the rotor is aligned with phase A.
func ElectricalAngle(raw uint16, polePairs uint8, offset float32) float32 {
	turns := float64(raw&AngleMask) / Counts * float64(polePairs)
	return float32(cordic.WrapTurn(2*turns - float64(offset)))
}
