// Package pwm drives TIM1 as a three-phase, center-aligned, complementary
// PWM generator with dead time and two ADC trigger outputs.
package pwm

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"gofoc/core"
	"gofoc/stm32g4"
)

// DefaultDeadTime is the dead time programmed when Config leaves it zero.
const DefaultDeadTime = 500 * time.Nanosecond

// DutyScale is the exclusive upper bound of SetDuty inputs.
const DutyScale = 1 << 16

// Config describes the carrier.
type Config struct {
	// PeriodTicks is the carrier period in timer ticks; ARR is set to
	// PeriodTicks-1. Must be at least 3.
	PeriodTicks uint32
	// DeadTime between complementary edges; zero selects DefaultDeadTime.
	DeadTime time.Duration
}

// Generator owns the timer register block.
type Generator struct {
	regs *stm32g4.TIM
	plan core.ClockPlan

	period     uint32
	arr        uint32
	deadTicks  uint32
	configured bool
	outputs    bool
}

// New wraps TIM1. The timer clock comes from plan.
func New(regs *stm32g4.TIM, plan core.ClockPlan) *Generator {
	return &Generator{regs: regs, plan: plan}
}

// Configure programs the timer and starts the counter with outputs gated
// off. The compare channels come up at zero duty.
//
// Channel 4 (CCR = period-2) fires OC4REF on the down-count just after the
// reload and is routed to TRGO, the injected ADC trigger. Channel 5 (CCR = 1)
// fires at the bottom of the count and is routed to TRGO2, the regular ADC
// trigger.
func (g *Generator) Configure(cfg Config) {
	if g.outputs {
		panic("pwm: reconfigure while outputs are enabled")
	}
	if cfg.PeriodTicks < 3 || cfg.PeriodTicks > 1<<16 {
		panic("pwm: caller must only pass a period in 3..65536 ticks")
	}
	dead := cfg.DeadTime
	if dead == 0 {
		dead = DefaultDeadTime
	}
	t := g.regs

	// ARR is only written with the counter stopped.
	t.CR1.ClearBits(stm32g4.TIM_CR1_CEN)
	t.CR2.Set(0)
	t.CR1.Set(stm32g4.TIM_CR1_CMS_CA1<<stm32g4.TIM_CR1_CMS_Pos | stm32g4.TIM_CR1_ARPE)

	g.period = cfg.PeriodTicks
	g.arr = cfg.PeriodTicks - 1
	t.ARR.Set(g.arr)
	t.PSC.Set(0)
	// One update per full up/down cycle rather than per half.
	t.RCR.Set(1)

	const pair = stm32g4.TIM_CCMR_PWM1_PRELOAD | stm32g4.TIM_CCMR_PWM1_PRELOAD<<stm32g4.TIM_CCMR_Ch2_Offset
	t.CCMR1.Set(pair)
	t.CCMR2.Set(pair)
	t.CCMR3.Set(stm32g4.TIM_CCMR_PWM1_PRELOAD)

	t.CCER.Set(stm32g4.TIM_CCER_CC1E | stm32g4.TIM_CCER_CC1NE |
		stm32g4.TIM_CCER_CC2E | stm32g4.TIM_CCER_CC2NE |
		stm32g4.TIM_CCER_CC3E | stm32g4.TIM_CCER_CC3NE)

	g.deadTicks = DeadTimeTicks(g.plan, dead)
	t.BDTR.Set(uint32(EncodeDeadTime(g.deadTicks)) | stm32g4.TIM_BDTR_OSSI)

	t.CCR1.Set(0)
	t.CCR2.Set(0)
	t.CCR3.Set(0)
	t.CCR4.Set(cfg.PeriodTicks - 2)
	t.CCR5.Set(1)

	t.CR2.Set(stm32g4.TIM_CR2_MMS_OC4REF<<stm32g4.TIM_CR2_MMS_Pos |
		stm32g4.TIM_CR2_MMS2_OC5REF<<stm32g4.TIM_CR2_MMS2_Pos)

	// Load the preloaded values before the first period.
	t.EGR.Set(stm32g4.TIM_EGR_UG)
	g.configured = true
	t.CR1.SetBits(stm32g4.TIM_CR1_CEN)
}

// EnableOutputs sets MOE, letting the bridge drivers follow the PWM. It must
// come after Configure: before that the dead time is not programmed.
func (g *Generator) EnableOutputs() {
	if !g.configured {
		panic("pwm: outputs enabled before Configure")
	}
	g.regs.BDTR.SetBits(stm32g4.TIM_BDTR_MOE)
	g.outputs = true
}

// DisableOutputs clears MOE. With OSSI set the outputs go to their idle
// (off) level.
func (g *Generator) DisableOutputs() {
	g.regs.BDTR.ClearBits(stm32g4.TIM_BDTR_MOE)
	g.outputs = false
}

// OutputsEnabled reports whether MOE has been set by EnableOutputs.
func (g *Generator) OutputsEnabled() bool {
	return g.outputs
}

// SetDuty writes the three phase duties, each in [0, DutyScale). Larger
// values are clamped. The compare registers are preloaded, so the new duty
// takes effect at the next update event.
func (g *Generator) SetDuty(a, b, c uint32) {
	g.regs.CCR1.Set(g.Compare(a))
	g.regs.CCR2.Set(g.Compare(b))
	g.regs.CCR3.Set(g.Compare(c))
}

// Compare scales a duty in [0, DutyScale) to a compare value in
// [0, period].
func (g *Generator) Compare(duty uint32) uint32 {
	if duty >= DutyScale {
		duty = DutyScale - 1
	}
	return uint32(uint64(duty) * uint64(g.arr) / DutyScale)
}

// Stop halts the counter and gates the outputs.
func (g *Generator) Stop() {
	g.DisableOutputs()
	g.regs.CR1.ClearBits(stm32g4.TIM_CR1_CEN)
	g.configured = false
}

// Period returns the configured period in timer ticks.
func (g *Generator) Period() uint32 {
	return g.period
}

// DeadTicks returns the programmed dead time in timer ticks.
func (g *Generator) DeadTicks() uint32 {
	return g.deadTicks
}

// CarrierFrequency is the PWM frequency: the center-aligned counter counts
// up and down once per carrier cycle.
func (g *Generator) CarrierFrequency() physic.Frequency {
	return g.plan.CenterAlignedFrequency(g.period)
}
