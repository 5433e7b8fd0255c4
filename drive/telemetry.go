package drive

import (
	"periph.io/x/conn/v3/physic"

	"gofoc/core"
	"gofoc/protocol"
)

// Status is a background view of the drive.
type Status struct {
	Clock        uint32
	ControlRuns  uint32
	StreamPasses [2]uint32
	AngleErrors  uint32

	Bus      physic.ElectricPotential
	TempCode uint16
	Id, Iq   physic.ElectricCurrent
	Sector   uint8
}

// Status gathers counters, the latest control sample and the stream means.
// Currents are in amps unless the profile reports raw pin voltages, in
// which case Id and Iq carry volts scaled as amps.
func (s *System) Status() Status {
	last := s.Control.Last()
	busPin := s.FrontEnd.ADC2.Volts(s.Stream2.buf.Mean())
	return Status{
		Clock:        core.GetTime(),
		ControlRuns:  s.Control.Runs(),
		StreamPasses: [2]uint32{s.Stream1.Passes(), s.Stream2.Passes()},
		AngleErrors:  s.Control.AngleErrors(),
		Bus:          volts(busPin * s.Profile.Sense.BusDivider),
		TempCode:     s.Stream1.buf.Mean(),
		Id:           amps(last.Frame.D),
		Iq:           amps(last.Frame.Q),
		Sector:       last.Duty.Sector,
	}
}

func volts(v float32) physic.ElectricPotential {
	return physic.ElectricPotential(float64(v) * float64(physic.Volt))
}

func amps(a float32) physic.ElectricCurrent {
	return physic.ElectricCurrent(float64(a) * float64(physic.Ampere))
}

// Message converts st to the telemetry frame payload.
func (st *Status) Message() protocol.Telemetry {
	return protocol.Telemetry{
		Clock:        st.Clock,
		ControlRuns:  st.ControlRuns,
		StreamPasses: st.StreamPasses,
		BusMillivolt: int32(st.Bus / physic.MilliVolt),
		TempCode:     uint32(st.TempCode),
		IdMilliamp:   int32(st.Id / physic.MilliAmpere),
		IqMilliamp:   int32(st.Iq / physic.MilliAmpere),
		Sector:       st.Sector,
	}
}
