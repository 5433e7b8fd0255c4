//go:build !tinygo

package bench

import (
	"math"

	"gofoc/encoder"
	"gofoc/sim"
)

// Plant is the motor seen by the simulated board: a rotor turning at a
// constant speed with sinusoidal phase currents locked to it.
type Plant struct {
	RPM float64 // mechanical speed
	// Amps is the phase current amplitude. With raw current sensing it is
	// the amplifier output swing in volts.
	Amps float64
	// Lag is the current vector angle from the rotor d axis, in radians.
	// π/2 puts the whole amplitude on q.
	Lag float64

	BusVolts  float64
	TempVolts float64
}

// rotor is the encoder and current model. ReadAngle returns the position
// the currents were last sampled at, then moves on by one period.
type rotor struct {
	Plant

	pos   float64 // encoder counts
	delta float64 // counts per control period

	polePairs uint8
	offset    float32

	zero        float64 // amplifier output at zero current
	voltsPerAmp float64
	spinning    bool
}

func (r *rotor) raw() uint16 {
	return uint16(int64(r.pos)) & encoder.AngleMask
}

func (r *rotor) ReadAngle() (uint16, error) {
	a := r.raw()
	r.pos = math.Mod(r.pos+r.delta, encoder.Counts)
	return a, nil
}

// electrical is the rotor's electrical angle in radians, as the firmware
// derives it from the current encoder reading.
func (r *rotor) electrical() float64 {
	return float64(encoder.ElectricalAngle(r.raw(), r.polePairs, r.offset)) * math.Pi
}

// phase is the current in the phase shifted by shift from phase A.
func (r *rotor) phase(shift float64) float64 {
	if !r.spinning {
		return 0
	}
	return r.Amps * math.Cos(r.electrical()+r.Lag+shift)
}

// source drives one current channel of a from the model and leaves every
// other channel on its fixed input.
func (r *rotor) source(b *sim.Board, a *sim.ADC, current uint8, shift float64) func(uint8) uint16 {
	return func(ch uint8) uint16 {
		if ch != current {
			return a.Inputs[ch]
		}
		return b.Code(r.zero + r.phase(shift)*r.voltsPerAmp)
	}
}
