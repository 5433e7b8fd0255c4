package foc

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestClarkeBalanced(t *testing.T) {
	// ia = cos(wt), ib = cos(wt - 120°): α/β is a unit vector at wt.
	for deg := 0.0; deg < 360; deg += 15 {
		w := deg * math.Pi / 180
		ia := float32(math.Cos(w))
		ib := float32(math.Cos(w - 2*math.Pi/3))
		a, b := Clarke(ia, ib)
		got := []float64{float64(a), float64(b)}
		want := []float64{math.Cos(w), math.Sin(w)}
		if !floats.EqualApprox(got, want, 1e-6) {
			t.Errorf("%v°: got %v, want %v", deg, got, want)
		}
	}
}

func TestParkInverseParkRoundTrip(t *testing.T) {
	for deg := -180.0; deg < 180; deg += 7.5 {
		th := deg * math.Pi / 180
		s, c := float32(math.Sin(th)), float32(math.Cos(th))
		d, q := Park(0.3, -0.8, s, c)
		a, b := InversePark(d, q, s, c)
		if !scalar.EqualWithinAbs(float64(a), 0.3, 1e-6) || !scalar.EqualWithinAbs(float64(b), -0.8, 1e-6) {
			t.Errorf("%v°: round trip gave (%v, %v)", deg, a, b)
		}

		d64, q64 := ParkAngle(0.3, -0.8, th)
		if !scalar.EqualWithinAbs(float64(d), d64, 1e-6) || !scalar.EqualWithinAbs(float64(q), q64, 1e-6) {
			t.Errorf("%v°: Park (%v, %v) vs ParkAngle (%v, %v)", deg, d, q, d64, q64)
		}
		a64, b64 := InverseParkAngle(d64, q64, th)
		if !floats.EqualApprox([]float64{a64, b64}, []float64{0.3, -0.8}, 1e-12) {
			t.Errorf("%v°: InverseParkAngle gave (%v, %v)", deg, a64, b64)
		}
	}
}

func TestParkAlignedVector(t *testing.T) {
	// A current vector aligned with the rotor is pure d.
	th := 0.25 * math.Pi
	d, q := Park(float32(math.Cos(th)), float32(math.Sin(th)), float32(math.Sin(th)), float32(math.Cos(th)))
	if !scalar.EqualWithinAbs(float64(d), 1, 1e-6) || !scalar.EqualWithinAbs(float64(q), 0, 1e-6) {
		t.Errorf("d=%v q=%v", d, q)
	}
}

func TestSector(t *testing.T) {
	for k := 0; k < 6; k++ {
		th := (30 + 60*float64(k)) * math.Pi / 180
		if got := Sector(float32(math.Cos(th)), float32(math.Sin(th))); got != uint8(k+1) {
			t.Errorf("%v°: sector %d, want %d", 30+60*k, got, k+1)
		}
	}
	if Sector(0, 0) != 0 {
		t.Error("zero vector not sector 0")
	}
}

func TestSVPWMZeroVector(t *testing.T) {
	d := SVPWM(0, 0, 65535)
	if d.A != 32768 || d.B != 32768 || d.C != 32768 || d.Sector != 0 {
		t.Errorf("zero vector gave %+v", d)
	}
}

func TestSVPWMBoundsAndLineVoltages(t *testing.T) {
	const max = 10000
	for _, mag := range []float64{0.1, 0.4, 1 / math.Sqrt(3), 0.8, 3} {
		for deg := 0.0; deg < 360; deg += 5 {
			th := deg * math.Pi / 180
			alpha, beta := float32(mag*math.Cos(th)), float32(mag*math.Sin(th))
			d := SVPWM(alpha, beta, max)
			for _, v := range []uint32{d.A, d.B, d.C} {
				if v > max {
					t.Fatalf("mag %v %v°: duty %d above max", mag, deg, v)
				}
			}
			if d.Sector < 1 || d.Sector > 6 {
				t.Fatalf("mag %v %v°: sector %d", mag, deg, d.Sector)
			}

			// In the linear range the line-to-line duty differences
			// reproduce the requested vector.
			if mag <= 1/math.Sqrt(3)+1e-9 {
				vab := (float64(d.A) - float64(d.B)) / max
				want := 1.5*mag*math.Cos(th) - math.Sqrt(3)/2*mag*math.Sin(th)
				if !scalar.EqualWithinAbs(vab, want, 2.0/max) {
					t.Fatalf("mag %v %v°: Vab %v, want %v", mag, deg, vab, want)
				}
			}
		}
	}
}

func TestSVPWMOvermodulationKeepsAngle(t *testing.T) {
	const max = 1 << 16
	th := 20 * math.Pi / 180
	d := SVPWM(float32(2*math.Cos(th)), float32(2*math.Sin(th)), max)
	// Back out α/β from the duties.
	a, b, c := float64(d.A)/max, float64(d.B)/max, float64(d.C)/max
	alpha := (2*a - b - c) / 3
	beta := (b - c) / math.Sqrt(3)
	if got := math.Atan2(beta, alpha); !scalar.EqualWithinAbs(got, th, 1e-3) {
		t.Errorf("angle %v, want %v", got, th)
	}
	hi := math.Max(a, math.Max(b, c))
	lo := math.Min(a, math.Min(b, c))
	if !scalar.EqualWithinAbs(hi, 1, 1e-4) || !scalar.EqualWithinAbs(lo, 0, 1e-4) {
		t.Errorf("over-modulated duties span [%v, %v], want [0, 1]", lo, hi)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Error("int clamp")
	}
	if Clamp(float32(1.5), 0, 1) != 1 {
		t.Error("float clamp")
	}
}
