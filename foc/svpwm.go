package foc

import "golang.org/x/exp/constraints"

const sqrt3by2 = 0.86602540378443864676

// Duty is the output of SVPWM: three phase duties in [0, max] and the
// sector of the voltage vector (1..6, 0 for the zero vector).
type Duty struct {
	A, B, C uint32
	Sector  uint8
}

// sectorOf maps the sign pattern of the three reference voltages to the
// hexagon sector, counter-clockwise from the α axis.
var sectorOf = [8]uint8{0, 2, 6, 1, 4, 3, 5, 0}

// Sector returns the sector (1..6) of the vector (α, β), or 0 if it is the
// zero vector.
func Sector(alpha, beta float32) uint8 {
	if alpha == 0 && beta == 0 {
		return 0
	}
	n := 0
	if beta > 0 {
		n |= 1
	}
	if sqrt3by2*alpha-0.5*beta > 0 {
		n |= 2
	}
	if -sqrt3by2*alpha-0.5*beta > 0 {
		n |= 4
	}
	return sectorOf[n]
}

// SVPWM maps a stationary-frame voltage, normalised to the DC bus, to phase
// duties in [0, max] using min/max zero-sequence injection. A vector
// outside the linear hexagon is scaled back onto it, keeping its angle.
func SVPWM(alpha, beta float32, max uint32) Duty {
	va := alpha
	vb := -0.5*alpha + sqrt3by2*beta
	vc := -0.5*alpha - sqrt3by2*beta

	hi := maxOf(va, maxOf(vb, vc))
	lo := minOf(va, minOf(vb, vc))
	if span := hi - lo; span > 1 {
		va, vb, vc = va/span, vb/span, vc/span
		hi, lo = hi/span, lo/span
	}
	offset := 0.5 - (hi+lo)/2

	return Duty{
		A:      scale(va+offset, max),
		B:      scale(vb+offset, max),
		C:      scale(vc+offset, max),
		Sector: Sector(alpha, beta),
	}
}

func scale(frac float32, max uint32) uint32 {
	v := frac * float32(max)
	return Clamp(uint32(Clamp(v+0.5, 0, float32(max))), 0, max)
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxOf[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func minOf[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
