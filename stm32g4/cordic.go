package stm32g4

import "gofoc/mmio"

// CORDIC is the trigonometric co-processor register block.
type CORDIC struct {
	CSR   mmio.Reg32 // 0x00
	WDATA mmio.Reg32 // 0x04
	RDATA mmio.Reg32 // 0x08
}

// CORDIC CSR
const (
	CORDIC_CSR_FUNC_Pos      = 0
	CORDIC_CSR_FUNC_Msk      = 0b1111
	CORDIC_CSR_PRECISION_Pos = 4
	CORDIC_CSR_PRECISION_Msk = 0b1111
	CORDIC_CSR_SCALE_Pos     = 8
	CORDIC_CSR_IEN           = 1 << 16
	CORDIC_CSR_NRES          = 1 << 19 // two results
	CORDIC_CSR_NARGS         = 1 << 20 // two arguments
	CORDIC_CSR_RESSIZE       = 1 << 21 // 16-bit results
	CORDIC_CSR_ARGSIZE       = 1 << 22 // 16-bit arguments
	CORDIC_CSR_RRDY          = 1 << 31
)

// CORDIC functions.
const (
	CORDIC_FUNC_Cosine = 0
	CORDIC_FUNC_Sine   = 1
)
