package core

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// ClockPlan is the set of bus and kernel clock frequencies left behind by the
// clock-tree bring-up. It is created once at boot and never changes.
type ClockPlan struct {
	Sys   physic.Frequency // core clock
	AHB   physic.Frequency // AHB bus (DMA, CORDIC, ADC digital interface)
	APB   physic.Frequency // APB2 bus
	Timer physic.Frequency // TIM1 kernel clock
}

// DefaultClockPlan is the 170 MHz PLL configuration (HSI16 / 4 * 85 / 2) with
// every bus prescaler at 1.
var DefaultClockPlan = ClockPlan{
	Sys:   170 * physic.MegaHertz,
	AHB:   170 * physic.MegaHertz,
	APB:   170 * physic.MegaHertz,
	Timer: 170 * physic.MegaHertz,
}

// TimerTicks converts d to timer-clock ticks, rounding to nearest.
func (p ClockPlan) TimerTicks(d time.Duration) uint32 {
	hz := int64(p.Timer / physic.Hertz)
	return uint32((int64(d)*hz + int64(time.Second)/2) / int64(time.Second))
}

// SysCycles converts d to core clock cycles, rounding up.
func (p ClockPlan) SysCycles(d time.Duration) uint32 {
	hz := int64(p.Sys / physic.Hertz)
	return uint32((int64(d)*hz + int64(time.Second) - 1) / int64(time.Second))
}

// CenterAlignedFrequency is the carrier frequency of a center-aligned counter
// with the given period: it counts up and down once per carrier cycle.
func (p ClockPlan) CenterAlignedFrequency(periodTicks uint32) physic.Frequency {
	if periodTicks == 0 {
		return 0
	}
	return p.Timer / physic.Frequency(2*int64(periodTicks))
}
