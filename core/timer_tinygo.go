//go:build tinygo

package core

import "runtime/volatile"

// Written only from the control interrupt, read from anywhere; a 32-bit
// aligned volatile access is single-copy atomic on Cortex-M.
var periodsValue volatile.Register32

func getPeriods() uint32 {
	return periodsValue.Get()
}

func setPeriods(n uint32) {
	periodsValue.Set(n)
}

func addPeriods(n uint32) uint32 {
	v := periodsValue.Get() + n
	periodsValue.Set(v)
	return v
}
