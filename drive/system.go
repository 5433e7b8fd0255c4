// Package drive assembles the motor-control peripherals into a running
// field-oriented drive.
//
// Boot takes the peripheral set once and hands each register block to the
// one task that uses it:
//
//	control  (priority 5)  ADC1/ADC2 injected data, CORDIC, TIM1 compares
//	stream1  (priority 4)  DMA channel of the ADC1 regular stream
//	stream2  (priority 3)  DMA channel of the ADC2 regular stream
//
// The background context reads snapshots and stream buffers, which are
// stale tolerant, and writes the voltage command, which is a single atomic
// word.
package drive

import (
	"errors"

	"gofoc/adc"
	"gofoc/config"
	"gofoc/core"
	"gofoc/cordic"
	"gofoc/dma"
	"gofoc/mmio"
	"gofoc/pwm"
	"gofoc/stm32g4"
)

// Scheduler lines.
const (
	LineControl core.Line = iota
	LineStream1
	LineStream2
)

// Task priorities.
const (
	PriorityControl core.Priority = 5
	PriorityStream1 core.Priority = 4
	PriorityStream2 core.Priority = 3
)

var ErrInvalidProfile = errors.New("drive: invalid profile")

// System is a booted drive. Outputs stay gated until EnableOutputs.
type System struct {
	Profile config.Profile

	PWM      *pwm.Generator
	FrontEnd *adc.FrontEnd
	CORDIC   *cordic.Engine

	Control *ControlTask
	Stream1 *StreamTask
	Stream2 *StreamTask

	irqControl int
	irqStream1 int
	irqStream2 int
}

// Options carry platform hooks that are not part of the board profile.
type Options struct {
	// Relax runs between polls of a hardware flag.
	Relax func()
	// Trim overrides the factory Vrefint word source.
	Trim func() uint16
}

// Boot brings up the drive: CORDIC, PWM carrier with outputs gated, ADC
// calibration and configuration, zero-current offsets, DMA streams, and
// finally both ADCs armed on the timer triggers. It stops at the first
// hardware timeout.
func Boot(periph stm32g4.Peripherals, prof config.Profile, angle AngleSource, opts Options) (*System, error) {
	currentSample, ok1 := config.SampleTime(prof.ADC.CurrentCycles)
	slowSample, ok2 := config.SampleTime(prof.ADC.SlowCycles)
	if !ok1 || !ok2 || prof.Encoder.PolePairs == 0 || prof.DMA.ADC1Channel == prof.DMA.ADC2Channel {
		return nil, ErrInvalidProfile
	}
	core.TimerInit()
	core.RecordEvent(core.EvtBoot, 0, prof.PWM.PeriodTicks, prof.ClockMHz)

	poll := mmio.Poller{Limit: prof.PollLimit, Relax: opts.Relax}
	plan := prof.Plan()

	s := &System{
		Profile:    prof,
		PWM:        pwm.New(periph.TIM1, plan),
		CORDIC:     cordic.New(periph.CORDIC),
		irqControl: stm32g4.IRQ_ADC1_2,
		irqStream1: stm32g4.DMA1ChannelIRQ(prof.DMA.ADC1Channel),
		irqStream2: stm32g4.DMA1ChannelIRQ(prof.DMA.ADC2Channel),
	}
	s.FrontEnd = &adc.FrontEnd{
		Common: adc.NewCommon(periph.ADC12),
		ADC1: adc.New(periph.ADC1, adc.Config{
			ID:             1,
			RegularChannel: prof.ADC.Temperature,
			RegularSample:  slowSample,
			CurrentChannel: prof.ADC.CurrentA,
			CurrentSample:  currentSample,
			InjectedIRQ:    true,
			Reference:      true,
			Poll:           poll,
			Trim:           opts.Trim,
		}),
		ADC2: adc.New(periph.ADC2, adc.Config{
			ID:             2,
			RegularChannel: prof.ADC.BusVoltage,
			RegularSample:  slowSample,
			CurrentChannel: prof.ADC.CurrentB,
			CurrentSample:  currentSample,
			Poll:           poll,
			Trim:           opts.Trim,
		}),
	}
	fe := s.FrontEnd

	s.CORDIC.Init()
	s.PWM.Configure(pwm.Config{PeriodTicks: prof.PWM.PeriodTicks, DeadTime: prof.DeadTime()})

	if err := fe.Calibrate(); err != nil {
		return nil, err
	}
	fe.Configure()
	if !prof.Sense.RawCurrents {
		if err := fe.ZeroOffsets(); err != nil {
			return nil, err
		}
	}

	s.Control = &ControlTask{
		fe:          fe,
		cordic:      s.CORDIC,
		pwm:         s.PWM,
		angle:       angle,
		polePairs:   prof.Encoder.PolePairs,
		offset:      prof.Encoder.Offset,
		deferred:    prof.DeferredCORDIC,
		ampsPerVolt: prof.Sense.AmpsPerVolt(),
	}
	if !prof.Sense.RawCurrents {
		s.Control.zeroA = fe.ADC1.Volts(fe.OffsetA)
		s.Control.zeroB = fe.ADC2.Volts(fe.OffsetB)
	}
	s.Control.SetCommand(prof.Command.Vd, prof.Command.Vq)

	router := dma.NewRouter(periph.DMAMUX)
	ctrl := dma.NewController(periph.DMA1, poll)
	s.Stream1 = &StreamTask{unit: fe.ADC1, ch: ctrl.Claim(prof.DMA.ADC1Channel)}
	s.Stream2 = &StreamTask{unit: fe.ADC2, ch: ctrl.Claim(prof.DMA.ADC2Channel)}
	for _, st := range []struct {
		task *StreamTask
		req  dma.RequestID
	}{
		{s.Stream1, dma.RequestADC1},
		{s.Stream2, dma.RequestADC2},
	} {
		router.Route(dma.SlotFor(st.task.ch.Number()), st.req)
		if err := st.task.ch.Bind(st.task.unit.DataRegisterAddress()); err != nil {
			core.RecordEvent(core.EvtTimeout, st.task.unit.ID(), timeoutSpins(err), 0)
			return nil, err
		}
		st.task.ch.Start(&st.task.buf)
	}

	if err := fe.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

func timeoutSpins(err error) uint32 {
	var t *mmio.HardwareTimeout
	if errors.As(err, &t) {
		return t.Spins
	}
	return 0
}

// Bind attaches the three tasks to sched.
func (s *System) Bind(sched *core.Scheduler) {
	sched.Bind(LineControl, "control", PriorityControl, s.Control.Run)
	sched.Bind(LineStream1, "stream1", PriorityStream1, s.Stream1.Run)
	sched.Bind(LineStream2, "stream2", PriorityStream2, s.Stream2.Run)
}

// Line maps an interrupt number to the scheduler line serving it.
func (s *System) Line(irq int) (core.Line, bool) {
	switch irq {
	case s.irqControl:
		return LineControl, true
	case s.irqStream1:
		return LineStream1, true
	case s.irqStream2:
		return LineStream2, true
	}
	return 0, false
}

// EnableOutputs lets the bridge follow the PWM. Call it last, once the
// tasks are bound and their interrupts enabled.
func (s *System) EnableOutputs() {
	s.PWM.EnableOutputs()
}

// Shutdown gates the outputs, stops the carrier and halts conversions and
// streams. It returns the first error but attempts every step.
func (s *System) Shutdown() error {
	s.PWM.Stop()
	err := s.FrontEnd.Stop()
	for _, st := range []*StreamTask{s.Stream1, s.Stream2} {
		if e := st.ch.Stop(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
