package core

// The firmware has no free-running system timer of its own: time is counted in
// PWM periods, advanced once per control-task run. Trace events carry this
// counter as their clock.

var bootPeriod uint32

// GetTime returns the number of PWM periods observed by the control task.
func GetTime() uint32 {
	return getPeriods()
}

// AdvancePeriod marks the start of a new PWM period and returns its index.
// Only the control task calls it.
func AdvancePeriod() uint32 {
	return addPeriods(1)
}

// SetTime overrides the period counter (tests and warm restarts).
func SetTime(periods uint32) {
	setPeriods(periods)
}

// TimerInit records the boot reference point.
func TimerInit() {
	bootPeriod = GetTime()
}

// Uptime returns the periods elapsed since TimerInit.
func Uptime() uint32 {
	return GetTime() - bootPeriod
}
