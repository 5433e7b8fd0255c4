//go:build !tinygo

package core

import "sync/atomic"

var periodsValue atomic.Uint32

func getPeriods() uint32 {
	return periodsValue.Load()
}

func setPeriods(n uint32) {
	periodsValue.Store(n)
}

func addPeriods(n uint32) uint32 {
	return periodsValue.Add(n)
}
