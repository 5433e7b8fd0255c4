package core

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
)

func TestClockPlanTimerTicks(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want uint32
	}{
		{500 * time.Nanosecond, 85},
		{time.Microsecond, 170},
		{50 * time.Microsecond, 8500},
		{3 * time.Nanosecond, 1}, // 0.51 ticks rounds up
		{0, 0},
	}
	for _, tc := range cases {
		if got := DefaultClockPlan.TimerTicks(tc.d); got != tc.want {
			t.Errorf("TimerTicks(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

func TestClockPlanSysCycles(t *testing.T) {
	if got := DefaultClockPlan.SysCycles(20 * time.Microsecond); got != 3400 {
		t.Errorf("SysCycles(20µs) = %d, want 3400", got)
	}
	if got := DefaultClockPlan.SysCycles(time.Nanosecond); got != 1 {
		t.Errorf("SysCycles(1ns) = %d, want 1", got)
	}
}

func TestCenterAlignedFrequency(t *testing.T) {
	if got := DefaultClockPlan.CenterAlignedFrequency(8500); got != 10*physic.KiloHertz {
		t.Errorf("carrier for 8500 ticks = %s, want 10kHz", got)
	}
	if got := DefaultClockPlan.CenterAlignedFrequency(0); got != 0 {
		t.Errorf("carrier for zero period = %s", got)
	}
}
