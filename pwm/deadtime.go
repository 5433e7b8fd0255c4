package pwm

import (
	"time"

	"gofoc/core"
)

// DeadTimeTicks converts a dead time to timer ticks (tDTS = timer clock,
// CKD = 0).
func DeadTimeTicks(plan core.ClockPlan, d time.Duration) uint32 {
	return plan.TimerTicks(d)
}

// EncodeDeadTime returns the BDTR.DTG encoding closest to ticks without
// exceeding it. The generator has four ranges:
//
//	0xxxxxxx  DT = DTG[6:0]            0..127
//	10xxxxxx  DT = (64+DTG[5:0]) * 2   128..254
//	110xxxxx  DT = (32+DTG[4:0]) * 8   256..504
//	111xxxxx  DT = (32+DTG[4:0]) * 16  512..1008
//
// Longer dead times saturate at 1008 ticks.
func EncodeDeadTime(ticks uint32) uint8 {
	switch {
	case ticks <= 127:
		return uint8(ticks)
	case ticks <= 254:
		return 0x80 | uint8(ticks/2-64)
	case ticks < 256:
		return 0x80 | 63
	case ticks <= 504:
		return 0xC0 | uint8(ticks/8-32)
	case ticks < 512:
		return 0xC0 | 31
	case ticks <= 1008:
		return 0xE0 | uint8(ticks/16-32)
	}
	return 0xFF
}

// DecodeDeadTime returns the dead time in ticks a DTG value programs.
func DecodeDeadTime(dtg uint8) uint32 {
	v := uint32(dtg)
	switch {
	case v&0x80 == 0:
		return v
	case v&0xC0 == 0x80:
		return (64 + v&0x3F) * 2
	case v&0xE0 == 0xC0:
		return (32 + v&0x1F) * 8
	}
	return (32 + v&0x1F) * 16
}
