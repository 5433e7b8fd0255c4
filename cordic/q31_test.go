package cordic

import (
	"math"
	"testing"
)

const lsb = 1.0 / (1 << 31)

func TestQ31RoundTrip(t *testing.T) {
	const steps = 1 << 16
	for i := 0; i < steps; i++ {
		theta := -1 + 2*float64(i)/steps
		got := FromQ31(ToQ31(theta))
		if math.Abs(got-theta) > lsb {
			t.Fatalf("theta %v round-trips to %v", theta, got)
		}
	}
}

func TestQ31Rounding(t *testing.T) {
	cases := []struct {
		v    float64
		want int32
	}{
		{0, 0},
		{math.Copysign(0, -1), 0},
		{0.5 * lsb, 1},
		{-0.5 * lsb, -1},
		{1.5 * lsb, 2},
		{-1.5 * lsb, -2},
		{0.49 * lsb, 0},
		{-0.49 * lsb, 0},
		{0.5, 1 << 30},
		{-1, math.MinInt32},
		{1, math.MaxInt32},
		{7, math.MaxInt32},
		{-7, math.MinInt32},
		{math.NaN(), 0},
	}
	for _, c := range cases {
		if got := ToQ31(c.v); got != c.want {
			t.Errorf("ToQ31(%v) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestWrapTurn(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		0.25: 0.25,
		1:    -1,
		1.5:  -0.5,
		-1:   -1,
		-1.5: 0.5,
		4.25: 0.25,
	}
	for in, want := range cases {
		if got := WrapTurn(in); math.Abs(got-want) > 1e-12 {
			t.Errorf("WrapTurn(%v) = %v, want %v", in, got, want)
		}
	}
}
