//go:build !tinygo

package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Load parses a YAML profile, fills unset fields from Default and validates
// the result.
func Load(r io.Reader) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("config: empty profile")
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&p)
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return &p, nil
}

// applyDefaults fills in missing values from the reference board.
func applyDefaults(p *Profile) {
	def := Default()

	if p.Name == "" {
		p.Name = "custom"
	}
	if p.ClockMHz == 0 {
		p.ClockMHz = def.ClockMHz
	}
	if p.PWM.PeriodTicks == 0 {
		p.PWM.PeriodTicks = def.PWM.PeriodTicks
	}
	if p.PWM.DeadTimeNs == 0 {
		p.PWM.DeadTimeNs = def.PWM.DeadTimeNs
	}

	// A profile that names no channels at all uses the reference wiring.
	if p.ADC.CurrentA == 0 && p.ADC.CurrentB == 0 && p.ADC.Temperature == 0 && p.ADC.BusVoltage == 0 {
		p.ADC.CurrentA = def.ADC.CurrentA
		p.ADC.CurrentB = def.ADC.CurrentB
		p.ADC.Temperature = def.ADC.Temperature
		p.ADC.BusVoltage = def.ADC.BusVoltage
	}
	if p.ADC.CurrentCycles == 0 {
		p.ADC.CurrentCycles = def.ADC.CurrentCycles
	}
	if p.ADC.SlowCycles == 0 {
		p.ADC.SlowCycles = def.ADC.SlowCycles
	}

	if p.DMA.ADC1Channel == 0 {
		p.DMA.ADC1Channel = def.DMA.ADC1Channel
	}
	if p.DMA.ADC2Channel == 0 {
		p.DMA.ADC2Channel = def.DMA.ADC2Channel
	}

	if !p.Sense.RawCurrents {
		if p.Sense.ShuntOhms == 0 {
			p.Sense.ShuntOhms = def.Sense.ShuntOhms
		}
		if p.Sense.AmpGain == 0 {
			p.Sense.AmpGain = def.Sense.AmpGain
		}
	}
	if p.Sense.BusDivider == 0 {
		p.Sense.BusDivider = def.Sense.BusDivider
	}
	if p.Encoder.PolePairs == 0 {
		p.Encoder.PolePairs = def.Encoder.PolePairs
	}
}

// Encode writes p as YAML.
func (p *Profile) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}
