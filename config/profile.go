// Package config describes a motor-drive board: clocks, PWM timing, ADC
// channel assignment, sensing gains and the rotor encoder.
package config

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/physic"

	"gofoc/core"
	"gofoc/stm32g4"
)

// Profile is one board configuration.
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	ClockMHz uint32 `yaml:"clockMHz"`

	PWM     PWMConfig     `yaml:"pwm"`
	ADC     ADCConfig     `yaml:"adc"`
	DMA     DMAConfig     `yaml:"dma"`
	Sense   SenseConfig   `yaml:"sense"`
	Encoder EncoderConfig `yaml:"encoder"`
	Command CommandConfig `yaml:"command"`

	// PollLimit bounds every hardware handshake; zero selects the default.
	PollLimit uint32 `yaml:"pollLimit,omitempty"`
	// DeferredCORDIC overlaps the sine/cosine computation with the current
	// scaling instead of waiting for it.
	DeferredCORDIC bool `yaml:"deferredCordic"`
}

type PWMConfig struct {
	PeriodTicks uint32 `yaml:"periodTicks"`
	DeadTimeNs  uint32 `yaml:"deadTimeNs"`
}

// ADCConfig assigns the input channels. Sample times are in ADC clock
// cycles and must be one of the hardware steps (2.5 ... 640.5).
type ADCConfig struct {
	CurrentA      uint8   `yaml:"currentA"`
	CurrentB      uint8   `yaml:"currentB"`
	Temperature   uint8   `yaml:"temperature"`
	BusVoltage    uint8   `yaml:"busVoltage"`
	CurrentCycles float32 `yaml:"currentCycles"`
	SlowCycles    float32 `yaml:"slowCycles"`
}

type DMAConfig struct {
	ADC1Channel uint8 `yaml:"adc1Channel"`
	ADC2Channel uint8 `yaml:"adc2Channel"`
}

// SenseConfig converts pin voltages to physical quantities.
type SenseConfig struct {
	ShuntOhms   float32 `yaml:"shuntOhms"`
	AmpGain     float32 `yaml:"ampGain"`
	BusDivider  float32 `yaml:"busDivider"`
	RawCurrents bool    `yaml:"rawCurrents"`
}

type EncoderConfig struct {
	PolePairs   uint8   `yaml:"polePairs"`
	Offset      float32 `yaml:"offset"`
	CheckSafety bool    `yaml:"checkSafety"`
}

// CommandConfig is the open-loop voltage vector applied after boot, as a
// fraction of the bus voltage.
type CommandConfig struct {
	Vd float32 `yaml:"vd"`
	Vq float32 `yaml:"vq"`
}

var sampleSteps = [...]float32{2.5, 6.5, 12.5, 24.5, 47.5, 92.5, 247.5, 640.5}

// SampleTime maps a cycle count to its SMPx encoding.
func SampleTime(cycles float32) (stm32g4.SampleTime, bool) {
	for i, c := range sampleSteps {
		if c == cycles {
			return stm32g4.SampleTime(i), true
		}
	}
	return 0, false
}

// Default is the reference board: B-G431B-ESC1-style inverter with the
// phase-A and phase-B amplifiers on ADC1 IN13 and ADC2 IN16.
func Default() Profile {
	return Profile{
		Name:        "default",
		Description: "170 MHz, 10 kHz carrier, two-shunt sensing",
		ClockMHz:    170,
		PWM:         PWMConfig{PeriodTicks: 8500, DeadTimeNs: 500},
		ADC: ADCConfig{
			CurrentA:      13,
			CurrentB:      16,
			Temperature:   3,
			BusVoltage:    1,
			CurrentCycles: 2.5,
			SlowCycles:    24.5,
		},
		DMA:     DMAConfig{ADC1Channel: 1, ADC2Channel: 2},
		Sense:   SenseConfig{ShuntOhms: 0.003, AmpGain: 9.14, BusDivider: 10.39},
		Encoder: EncoderConfig{PolePairs: 7},
	}
}

// Validate reports the first inconsistency in p.
func (p *Profile) Validate() error {
	switch {
	case p.ClockMHz == 0 || p.ClockMHz > 170:
		return errors.New("config: clockMHz must be in 1..170")
	case p.PWM.PeriodTicks < 3 || p.PWM.PeriodTicks > 1<<16:
		return errors.New("config: pwm.periodTicks must be in 3..65536")
	case p.PWM.DeadTimeNs == 0:
		return errors.New("config: pwm.deadTimeNs must be set")
	case p.ADC.CurrentA > stm32g4.MaxChannel || p.ADC.CurrentB > stm32g4.MaxChannel ||
		p.ADC.Temperature > stm32g4.MaxChannel || p.ADC.BusVoltage > stm32g4.MaxChannel:
		return errors.New("config: adc channels must be in 0..18")
	case p.ADC.CurrentA == p.ADC.Temperature || p.ADC.CurrentB == p.ADC.BusVoltage:
		return errors.New("config: current and slow channels share an input")
	case p.DMA.ADC1Channel < 1 || p.DMA.ADC1Channel > 8 || p.DMA.ADC2Channel < 1 || p.DMA.ADC2Channel > 8:
		return errors.New("config: dma channels must be in 1..8")
	case p.DMA.ADC1Channel == p.DMA.ADC2Channel:
		return errors.New("config: both streams on one dma channel")
	case p.Encoder.PolePairs == 0:
		return errors.New("config: encoder.polePairs must be at least 1")
	case !p.Sense.RawCurrents && (p.Sense.ShuntOhms <= 0 || p.Sense.AmpGain <= 0):
		return errors.New("config: sense.shuntOhms and sense.ampGain must be positive")
	case p.Sense.BusDivider < 0:
		return errors.New("config: sense.busDivider must not be negative")
	case p.Command.Vd*p.Command.Vd+p.Command.Vq*p.Command.Vq > 1:
		return errors.New("config: command vector longer than the bus")
	}
	if _, ok := SampleTime(p.ADC.CurrentCycles); !ok {
		return errors.New("config: adc.currentCycles is not a hardware sampling time")
	}
	if _, ok := SampleTime(p.ADC.SlowCycles); !ok {
		return errors.New("config: adc.slowCycles is not a hardware sampling time")
	}
	return nil
}

// Plan is the clock plan with every bus at the core clock.
func (p *Profile) Plan() core.ClockPlan {
	f := physic.Frequency(p.ClockMHz) * physic.MegaHertz
	return core.ClockPlan{Sys: f, AHB: f, APB: f, Timer: f}
}

// DeadTime returns the bridge dead time.
func (p *Profile) DeadTime() time.Duration {
	return time.Duration(p.PWM.DeadTimeNs) * time.Nanosecond
}

// AmpsPerVolt converts a current-amplifier output swing to phase current,
// or 1 when RawCurrents asks for pin voltages.
func (s SenseConfig) AmpsPerVolt() float32 {
	if s.RawCurrents {
		return 1
	}
	return 1 / (s.ShuntOhms * s.AmpGain)
}
