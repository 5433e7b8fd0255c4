// Package foc holds the stateless field-oriented-control transforms:
// Clarke, Park, inverse Park and space-vector PWM.
//
// The transforms take sine and cosine rather than an angle so that the
// control task can feed them straight from the CORDIC. The Angle variants
// compute the trigonometry in software for reference and host use.
package foc

import "math"

const invSqrt3 = 0.57735026918962576451

// Clarke maps two phase currents of a balanced three-phase system
// (ia + ib + ic = 0) to the stationary α/β frame.
func Clarke(ia, ib float32) (alpha, beta float32) {
	return ia, (ia + 2*ib) * invSqrt3
}

// Park rotates α/β into the rotor d/q frame.
func Park(alpha, beta, sin, cos float32) (d, q float32) {
	d = alpha*cos + beta*sin
	q = beta*cos - alpha*sin
	return d, q
}

// InversePark rotates a d/q vector back into the α/β frame.
func InversePark(d, q, sin, cos float32) (alpha, beta float32) {
	alpha = d*cos - q*sin
	beta = q*cos + d*sin
	return alpha, beta
}

// ParkAngle is Park with θ in radians, computed in float64.
func ParkAngle(alpha, beta, theta float64) (d, q float64) {
	s, c := math.Sincos(theta)
	return alpha*c + beta*s, beta*c - alpha*s
}

// InverseParkAngle is InversePark with θ in radians, computed in float64.
func InverseParkAngle(d, q, theta float64) (alpha, beta float64) {
	s, c := math.Sincos(theta)
	return d*c - q*s, q*c + d*s
}
