//go:build !tinygo

package sim

import (
	"math"

	"gofoc/mmio"
	"gofoc/stm32g4"
)

// CORDIC models the sine function of the co-processor. Arguments and
// results are Q31; results queue up and are popped by RDATA reads.
type CORDIC struct {
	regs *stm32g4.CORDIC

	args    []int32
	modulus int32
	results []uint32
	last    uint32

	Writes uint64
	Reads  uint64
}

func newCORDIC(regs *stm32g4.CORDIC) *CORDIC {
	c := &CORDIC{regs: regs, modulus: math.MaxInt32}
	mmio.OnWrite(&regs.WDATA, func(_, v uint32) uint32 {
		c.Writes++
		c.write(int32(v))
		return v
	})
	mmio.OnRead(&regs.RDATA, func(uint32) uint32 {
		c.Reads++
		if len(c.results) > 0 {
			c.last = c.results[0]
			c.results = c.results[1:]
		}
		return c.last
	})
	mmio.OnRead(&regs.CSR, func(stored uint32) uint32 {
		if len(c.results) > 0 {
			return stored | stm32g4.CORDIC_CSR_RRDY
		}
		return stored &^ stm32g4.CORDIC_CSR_RRDY
	})
	return c
}

func (c *CORDIC) write(v int32) {
	csr := mmio.Peek(&c.regs.CSR)
	c.args = append(c.args, v)
	need := 1
	if csr&stm32g4.CORDIC_CSR_NARGS != 0 {
		need = 2
	}
	if len(c.args) < need {
		return
	}
	if need == 2 {
		c.modulus = c.args[1]
	}
	angle := c.args[0]
	c.args = c.args[:0]

	if csr>>stm32g4.CORDIC_CSR_FUNC_Pos&stm32g4.CORDIC_CSR_FUNC_Msk != stm32g4.CORDIC_FUNC_Sine {
		return
	}
	theta := float64(angle) / (1 << 31) * math.Pi
	m := float64(c.modulus) / (1 << 31)
	c.results = append(c.results, q31(m*math.Sin(theta)))
	if csr&stm32g4.CORDIC_CSR_NRES != 0 {
		c.results = append(c.results, q31(m*math.Cos(theta)))
	}
}

// Outstanding returns the number of unread results.
func (c *CORDIC) Outstanding() int {
	return len(c.results)
}

func q31(v float64) uint32 {
	x := math.Round(v * (1 << 31))
	x = math.Max(math.MinInt32, math.Min(x, math.MaxInt32))
	return uint32(int32(x))
}
