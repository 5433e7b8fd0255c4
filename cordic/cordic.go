// Package cordic drives the STM32G4 CORDIC co-processor as a sine/cosine
// engine.
//
// Angles are in the engine's native unit: [-1, 1) spans [-π, π). The engine
// is programmed once for the sine function with two results, so every
// argument write yields exactly two reads, sine then cosine.
package cordic

import "gofoc/stm32g4"

const (
	// Precision 5 is 20 iterations, about 2^-19 worst-case error.
	precision = 5

	// Primer arguments for the two-argument initialisation: angle -π and
	// modulus just below 1. The modulus sticks for single-argument mode.
	primeAngle   = 0x80000000
	primeModulus = 0x7FFFFFFF
)

// Engine owns the CORDIC register block.
type Engine struct {
	regs    *stm32g4.CORDIC
	pending bool
	ready   bool
}

// New wraps the CORDIC block. Call Init before computing.
func New(regs *stm32g4.CORDIC) *Engine {
	return &Engine{regs: regs}
}

// Init programs the sine function, pushes one primer pair through the
// pipeline and then switches to single-argument writes.
func (e *Engine) Init() {
	e.regs.CSR.Set(stm32g4.CORDIC_FUNC_Sine<<stm32g4.CORDIC_CSR_FUNC_Pos |
		precision<<stm32g4.CORDIC_CSR_PRECISION_Pos |
		stm32g4.CORDIC_CSR_NRES |
		stm32g4.CORDIC_CSR_NARGS)

	e.regs.WDATA.Set(primeAngle)
	e.regs.WDATA.Set(primeModulus)
	_ = e.regs.RDATA.Get()
	_ = e.regs.RDATA.Get()

	e.regs.CSR.ClearBits(stm32g4.CORDIC_CSR_NARGS)
	e.pending = false
	e.ready = true
}

// Compute returns sin(θ·π) and cos(θ·π). Reading RDATA before the result is
// ready stalls the bus, so no polling is needed.
func (e *Engine) Compute(theta float32) (sin, cos float32) {
	e.Request(theta)
	return e.Result()
}

// Request starts a computation and returns immediately. The result must be
// collected with Result before the next Request.
func (e *Engine) Request(theta float32) {
	if !e.ready {
		panic("cordic: engine used before Init")
	}
	if e.pending {
		panic("cordic: previous result not collected")
	}
	e.regs.WDATA.Set(uint32(ToQ31(float64(theta))))
	e.pending = true
}

// Result collects the sine and cosine of the outstanding request.
func (e *Engine) Result() (sin, cos float32) {
	if !e.pending {
		panic("cordic: no request outstanding")
	}
	s := int32(e.regs.RDATA.Get())
	c := int32(e.regs.RDATA.Get())
	e.pending = false
	return float32(FromQ31(s)), float32(FromQ31(c))
}

// Pending reports whether a deferred request awaits collection.
func (e *Engine) Pending() bool {
	return e.pending
}
