//go:build !tinygo

package sim

import (
	"gofoc/mmio"
	"gofoc/stm32g4"
)

// Timer models TIM1 in center-aligned mode: the counter runs 0→ARR→0, the
// repetition counter decrements at each overflow and underflow, and an
// update event copies preloaded compare and reload values into the active
// registers. OC4REF and OC5REF drive TRGO and TRGO2 when CR2 selects them.
type Timer struct {
	regs *stm32g4.TIM

	cnt    uint32
	down   bool
	rep    uint32
	arr    uint32
	active [6]uint32

	oc4, oc5 bool

	trgo, trgo2 func()

	// Updates counts update events; Ticks counts advanced clock cycles.
	Updates uint64
	Ticks   uint64
}

func newTimer(regs *stm32g4.TIM) *Timer {
	t := &Timer{regs: regs}
	ccrs := []*mmio.Reg32{&regs.CCR1, &regs.CCR2, &regs.CCR3, &regs.CCR4, &regs.CCR5, &regs.CCR6}
	for i, r := range ccrs {
		ch := i + 1
		mmio.OnWrite(r, func(_, v uint32) uint32 {
			if !t.preloaded(ch) {
				t.active[ch-1] = v
			}
			return v
		})
	}
	mmio.OnWrite(&regs.ARR, func(_, v uint32) uint32 {
		if mmio.Peek(&regs.CR1)&stm32g4.TIM_CR1_ARPE == 0 {
			t.arr = v
		}
		return v
	})
	mmio.OnWrite(&regs.EGR, func(_, v uint32) uint32 {
		if v&stm32g4.TIM_EGR_UG != 0 {
			t.cnt, t.down = 0, false
			t.update()
		}
		return 0
	})
	// SR flags are cleared by writing zero.
	mmio.OnWrite(&regs.SR, func(stored, v uint32) uint32 {
		return stored & v
	})
	mmio.OnRead(&regs.CNT, func(uint32) uint32 {
		return t.cnt
	})
	return t
}

func (t *Timer) preloaded(ch int) bool {
	var r *mmio.Reg32
	switch ch {
	case 1, 2:
		r = &t.regs.CCMR1
	case 3, 4:
		r = &t.regs.CCMR2
	default:
		r = &t.regs.CCMR3
	}
	bit := uint32(stm32g4.TIM_CCMR_OCxPE)
	if ch%2 == 0 {
		bit <<= stm32g4.TIM_CCMR_Ch2_Offset
	}
	return mmio.Peek(r)&bit != 0
}

func (t *Timer) update() {
	t.arr = mmio.Peek(&t.regs.ARR)
	ccrs := [...]uint32{
		mmio.Peek(&t.regs.CCR1), mmio.Peek(&t.regs.CCR2), mmio.Peek(&t.regs.CCR3),
		mmio.Peek(&t.regs.CCR4), mmio.Peek(&t.regs.CCR5), mmio.Peek(&t.regs.CCR6),
	}
	for i, v := range ccrs {
		if t.preloaded(i + 1) {
			t.active[i] = v
		}
	}
	t.rep = mmio.Peek(&t.regs.RCR)
	mmio.Poke(&t.regs.SR, mmio.Peek(&t.regs.SR)|stm32g4.TIM_SR_UIF)
	t.Updates++
}

// Step advances the counter by ticks cycles. Nothing moves while CEN is
// clear.
func (t *Timer) Step(ticks uint32) {
	for i := uint32(0); i < ticks; i++ {
		if mmio.Peek(&t.regs.CR1)&stm32g4.TIM_CR1_CEN == 0 {
			return
		}
		t.tick()
	}
}

func (t *Timer) tick() {
	t.Ticks++
	if t.arr == 0 {
		return
	}
	edge := false
	if !t.down {
		t.cnt++
		if t.cnt >= t.arr {
			t.cnt, t.down, edge = t.arr, true, true
		}
	} else {
		t.cnt--
		if t.cnt == 0 {
			t.down, edge = false, true
		}
	}
	if edge {
		if t.rep == 0 {
			t.update()
		} else {
			t.rep--
		}
	}

	oc4 := t.cnt < t.active[3]
	oc5 := t.cnt < t.active[4]
	rise4, rise5 := oc4 && !t.oc4, oc5 && !t.oc5
	t.oc4, t.oc5 = oc4, oc5

	cr2 := mmio.Peek(&t.regs.CR2)
	if rise4 && (cr2>>stm32g4.TIM_CR2_MMS_Pos)&stm32g4.TIM_CR2_MMS_Msk == stm32g4.TIM_CR2_MMS_OC4REF && t.trgo != nil {
		t.trgo()
	}
	if rise5 && (cr2>>stm32g4.TIM_CR2_MMS2_Pos)&stm32g4.TIM_CR2_MMS2_Msk == stm32g4.TIM_CR2_MMS2_OC5REF && t.trgo2 != nil {
		t.trgo2()
	}
}

// PeriodTicks is the length of one full up/down cycle.
func (t *Timer) PeriodTicks() uint32 {
	return 2 * t.arr
}

// Counter returns the counter value and direction.
func (t *Timer) Counter() (cnt uint32, down bool) {
	return t.cnt, t.down
}

// Active returns the compare value currently driving channel ch (1..6).
func (t *Timer) Active(ch int) uint32 {
	return t.active[ch-1]
}

// OutputHigh reports whether channel ch's high-side output is driven: MOE
// set and OCxREF active (PWM mode 1, CNT < CCRx).
func (t *Timer) OutputHigh(ch int) bool {
	if mmio.Peek(&t.regs.BDTR)&stm32g4.TIM_BDTR_MOE == 0 {
		return false
	}
	return t.cnt < t.active[ch-1]
}

// Running reports whether the counter is enabled.
func (t *Timer) Running() bool {
	return mmio.Peek(&t.regs.CR1)&stm32g4.TIM_CR1_CEN != 0
}
