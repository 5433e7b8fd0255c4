package cordic

import "math"

const q31One = 1 << 31

// ToQ31 converts v in [-1, 1) to Q31, rounding half away from zero. Values
// outside the range saturate; NaN converts to zero.
func ToQ31(v float64) int32 {
	if v != v {
		return 0
	}
	x := v * q31One
	if x >= 0 {
		x += 0.5
	} else {
		x -= 0.5
	}
	switch {
	case x >= math.MaxInt32:
		return math.MaxInt32
	case x <= math.MinInt32:
		return math.MinInt32
	}
	return int32(x)
}

// FromQ31 converts a Q31 code back to a float in [-1, 1).
func FromQ31(code int32) float64 {
	return float64(code) / q31One
}

// WrapTurn folds an angle in turns-of-half-circle units (1.0 == π) into
// the engine's native range [-1, 1).
func WrapTurn(x float64) float64 {
	x = math.Mod(x+1, 2)
	if x < 0 {
		x += 2
	}
	return x - 1
}
