//go:build !tinygo

// Package bench runs the drive against the simulated board with a turning
// rotor and reports what the control loop measured.
package bench

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"periph.io/x/conn/v3/physic"

	"gofoc/adc"
	"gofoc/config"
	"gofoc/core"
	"gofoc/drive"
	"gofoc/encoder"
	"gofoc/protocol"
	"gofoc/sim"
	"gofoc/stm32g4"
)

// Options select the run length and the simulated hardware.
type Options struct {
	Periods int
	Trim    uint16 // factory Vrefint word
	VDDA    float64
	Plant   Plant
}

// DefaultOptions is a 24 V bus, 600 rpm and 2 A on the q axis for a fifth
// of a second at the default carrier.
func DefaultOptions() Options {
	return Options{
		Periods: 2000,
		Trim:    1650,
		VDDA:    3.3,
		Plant: Plant{
			RPM:       600,
			Amps:      2,
			Lag:       math.Pi / 2,
			BusVolts:  24,
			TempVolts: 0.76,
		},
	}
}

// Summary describes one measured series.
type Summary struct {
	Mean, StdDev float64
	Min, Max     float64
	// Ripple is the 99th percentile of the distance from the mean.
	Ripple float64
}

func summarize(x []float64) Summary {
	if len(x) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(x, nil)
	dev := make([]float64, len(x))
	for i, v := range x {
		dev[i] = math.Abs(v - mean)
	}
	slices.Sort(dev)
	return Summary{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(x),
		Max:    floats.Max(x),
		Ripple: stat.Quantile(0.99, stat.Empirical, dev, nil),
	}
}

// Report is the outcome of one run.
type Report struct {
	Profile      string
	Carrier      physic.Frequency
	Periods      int
	ControlRuns  uint32
	StreamPasses [2]uint32
	VrefCal      [2]float32
	Offsets      [2]uint16
	Bus          physic.ElectricPotential

	Id, Iq Summary
	// Electrical is the rotor's electrical frequency; Measured is the
	// strongest tone found in the sampled phase-A current.
	Electrical physic.Frequency
	Measured   physic.Frequency

	Events []protocol.Event
}

var ErrNoSamples = errors.New("bench: control task never ran")

// Run boots the drive on a fresh simulated board, turns the rotor for
// opts.Periods carrier periods and collects every control sample.
func Run(prof config.Profile, opts Options) (*Report, error) {
	if err := prof.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", prof.Name, err)
	}
	if opts.Periods <= 0 {
		return nil, errors.New("bench: periods must be positive")
	}
	core.ClearEvents()

	b := sim.NewBoard(opts.Trim)
	b.VDDA = opts.VDDA
	ref, ok := adc.ReferenceVoltage(opts.Trim)
	if !ok {
		ref = adc.FallbackReference
	}
	b.SetVolts(b.ADC1, stm32g4.ADC1_ChannelVrefint, float64(ref))
	b.SetVolts(b.ADC1, prof.ADC.Temperature, opts.Plant.TempVolts)
	if prof.Sense.BusDivider > 0 {
		b.SetVolts(b.ADC2, prof.ADC.BusVoltage, opts.Plant.BusVolts/float64(prof.Sense.BusDivider))
	}

	r := &rotor{
		Plant:       opts.Plant,
		polePairs:   prof.Encoder.PolePairs,
		offset:      prof.Encoder.Offset,
		zero:        opts.VDDA / 2,
		voltsPerAmp: 1 / float64(prof.Sense.AmpsPerVolt()),
	}
	b.ADC1.Source = r.source(b, b.ADC1, prof.ADC.CurrentA, 0)
	b.ADC2.Source = r.source(b, b.ADC2, prof.ADC.CurrentB, -2*math.Pi/3)

	sys, err := drive.Boot(b.Periph, prof, r, drive.Options{})
	if err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	sched := &core.Scheduler{}
	sys.Bind(sched)
	b.Connect(func(irq int) {
		if line, ok := sys.Line(irq); ok {
			sched.Raise(line)
		}
	})
	sys.EnableOutputs()

	fc := float64(sys.PWM.CarrierFrequency()) / float64(physic.Hertz)
	r.delta = opts.Plant.RPM / 60 / fc * encoder.Counts
	r.spinning = true

	ia := make([]float64, 0, opts.Periods)
	id := make([]float64, 0, opts.Periods)
	iq := make([]float64, 0, opts.Periods)
	var seen uint32
	for n := 0; n < opts.Periods; n++ {
		b.RunPeriods(1)
		s := sys.Control.Last()
		if s.Period == seen {
			continue
		}
		seen = s.Period
		ia = append(ia, float64(s.Ia))
		id = append(id, float64(s.Frame.D))
		iq = append(iq, float64(s.Frame.Q))
	}
	if len(ia) == 0 {
		return nil, ErrNoSamples
	}

	st := sys.Status()
	rep := &Report{
		Profile:      prof.Name,
		Carrier:      sys.PWM.CarrierFrequency(),
		Periods:      opts.Periods,
		ControlRuns:  st.ControlRuns,
		StreamPasses: st.StreamPasses,
		VrefCal:      [2]float32{sys.FrontEnd.ADC1.VrefCal(), sys.FrontEnd.ADC2.VrefCal()},
		Offsets:      [2]uint16{sys.FrontEnd.OffsetA, sys.FrontEnd.OffsetB},
		Bus:          st.Bus,
		Id:           summarize(id),
		Iq:           summarize(iq),
		Electrical:   hertz(opts.Plant.RPM / 60 * float64(prof.Encoder.PolePairs)),
		Measured:     hertz(dominant(ia) * fc),
	}
	var evts [core.EventRingSize]protocol.Event
	rep.Events = append(rep.Events, evts[:core.SnapshotEvents(evts[:])]...)

	if err := sys.Shutdown(); err != nil {
		return rep, fmt.Errorf("shutdown: %w", err)
	}
	return rep, nil
}

// dominant returns the frequency, in cycles per sample, of the largest
// non-DC bin of x.
func dominant(x []float64) float64 {
	if len(x) < 4 {
		return 0
	}
	fft := fourier.NewFFT(len(x))
	coeff := fft.Coefficients(nil, x)
	best, at := 0.0, 0
	for i := 1; i < len(coeff); i++ {
		if m := cmplx.Abs(coeff[i]); m > best {
			best, at = m, i
		}
	}
	return fft.Freq(at)
}

func hertz(f float64) physic.Frequency {
	return physic.Frequency(math.Round(f * float64(physic.Hertz)))
}
