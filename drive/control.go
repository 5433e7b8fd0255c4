package drive

import (
	"math"
	"sync/atomic"

	"gofoc/adc"
	"gofoc/core"
	"gofoc/cordic"
	"gofoc/encoder"
	"gofoc/foc"
	"gofoc/pwm"
)

// AngleSource reports the raw 15-bit mechanical rotor angle.
type AngleSource interface {
	ReadAngle() (uint16, error)
}

// Fault codes carried in EvtFault events.
const (
	FaultAngle = 1 // the angle source returned an error
)

// RotorFrame is the measured current vector in the stationary and rotor
// frames.
type RotorFrame struct {
	Alpha, Beta float32
	D, Q        float32
}

// Sample is everything the control task computed in one PWM period.
type Sample struct {
	Period     uint32
	RawA, RawB uint16
	Angle      uint16  // raw mechanical angle
	Theta      float32 // electrical angle, native units
	Ia, Ib     float32
	Frame      RotorFrame
	Duty       foc.Duty
}

// command packs (vd, vq) as two float32 bit patterns in one word so the
// control task never sees half of an update.
type command struct {
	bits atomic.Uint64
}

func (c *command) store(vd, vq float32) {
	c.bits.Store(uint64(math.Float32bits(vd))<<32 | uint64(math.Float32bits(vq)))
}

func (c *command) load() (vd, vq float32) {
	v := c.bits.Load()
	return math.Float32frombits(uint32(v >> 32)), math.Float32frombits(uint32(v))
}

// ControlTask runs once per PWM period on the injected end-of-sequence
// interrupt: it samples both phase currents, transforms them into the rotor
// frame and writes the next duty cycle.
type ControlTask struct {
	fe     *adc.FrontEnd
	cordic *cordic.Engine
	pwm    *pwm.Generator
	angle  AngleSource

	polePairs uint8
	offset    float32
	deferred  bool

	zeroA, zeroB float32 // volts
	ampsPerVolt  float32

	cmd command

	lastAngle   uint16
	angleFailed bool

	runs        atomic.Uint32
	angleErrors atomic.Uint32

	seq  atomic.Uint32
	last Sample
}

// Run is the interrupt body.
func (c *ControlTask) Run() {
	in, ok := c.fe.TakeInjected()
	if !ok {
		return
	}
	period := core.AdvancePeriod()

	raw, err := c.angle.ReadAngle()
	if err != nil {
		c.angleErrors.Add(1)
		if !c.angleFailed {
			core.RecordEvent(core.EvtFault, 0, FaultAngle, 0)
			c.angleFailed = true
		}
		raw = c.lastAngle
	} else {
		c.angleFailed = false
		c.lastAngle = raw
	}
	theta := encoder.ElectricalAngle(raw, c.polePairs, c.offset)

	var sin, cos float32
	if c.deferred {
		c.cordic.Request(theta)
	} else {
		sin, cos = c.cordic.Compute(theta)
	}

	ia := (c.fe.ADC1.Volts(in.A) - c.zeroA) * c.ampsPerVolt
	ib := (c.fe.ADC2.Volts(in.B) - c.zeroB) * c.ampsPerVolt
	alpha, beta := foc.Clarke(ia, ib)

	if c.deferred {
		sin, cos = c.cordic.Result()
	}
	d, q := foc.Park(alpha, beta, sin, cos)

	vd, vq := c.cmd.load()
	va, vb := foc.InversePark(vd, vq, sin, cos)
	duty := foc.SVPWM(va, vb, pwm.DutyScale-1)
	c.pwm.SetDuty(duty.A, duty.B, duty.C)

	c.seq.Add(1)
	c.last = Sample{
		Period: period,
		RawA:   in.A,
		RawB:   in.B,
		Angle:  raw,
		Theta:  theta,
		Ia:     ia,
		Ib:     ib,
		Frame:  RotorFrame{Alpha: alpha, Beta: beta, D: d, Q: q},
		Duty:   duty,
	}
	c.seq.Add(1)
	c.runs.Add(1)
}

// Last returns the most recent sample. It retries while the control task
// is mid-update, so it must not be called from a context that the control
// task cannot preempt.
func (c *ControlTask) Last() Sample {
	for {
		s0 := c.seq.Load()
		if s0&1 != 0 {
			continue
		}
		s := c.last
		if c.seq.Load() == s0 {
			return s
		}
	}
}

// SetCommand sets the voltage vector, as a fraction of the bus voltage,
// applied from the next period on.
func (c *ControlTask) SetCommand(vd, vq float32) {
	c.cmd.store(vd, vq)
}

// Command returns the voltage vector in use.
func (c *ControlTask) Command() (vd, vq float32) {
	return c.cmd.load()
}

// Runs counts completed control periods.
func (c *ControlTask) Runs() uint32 {
	return c.runs.Load()
}

// AngleErrors counts periods that reused the previous angle.
func (c *ControlTask) AngleErrors() uint32 {
	return c.angleErrors.Load()
}
