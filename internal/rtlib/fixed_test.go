package rtlib

import (
	"testing"

	"halfbyte/internal/numeric"
)

func fixedSamples() []numeric.Fixed {
	var out []numeric.Fixed
	for _, u := range grid16(1531) {
		out = append(out, numeric.Fixed(int16(u)))
	}
	for _, v := range []float64{0.0625, -0.0625, 0.5, 1, -1, 1.5, 2.25, -3.75, 10, 45.5, -100, 2047.9375, -2048} {
		f, _ := numeric.FixedFromFloat(v)
		out = append(out, f)
	}
	return out
}

func TestFixMul(t *testing.T) {
	h := newHarness(t, FixMul)
	samples := fixedSamples()
	for i, a := range samples {
		for _, b := range samples[i%7:][:10] {
			h.set16(FixA, a.Raw())
			h.set16(FixB, b.Raw())
			h.call(FixMul)
			if want := a.Mul(b); h.ax() != want.Raw() || h.get16(FixR) != want.Raw() {
				t.Fatalf("%v*%v = %v, want %v", a, b, numeric.Fixed(int16(h.ax())), want)
			}
		}
	}
}

func TestFixMulExamples(t *testing.T) {
	h := newHarness(t, FixMul)
	cases := []struct{ a, b, want float64 }{
		{1.5, 2, 3},
		{-1.5, 2, -3},
		{0.5, 0.5, 0.25},
		{100, 100, 2047.9375},
		{-100, 100, -2048},
		{-1024, 2, -2048},
		{-1000, 3, -2048},
		{1024, 2, 2047.9375},
		{0.0625, 0.0625, 0},
	}
	for _, c := range cases {
		a, _ := numeric.FixedFromFloat(c.a)
		b, _ := numeric.FixedFromFloat(c.b)
		h.set16(FixA, a.Raw())
		h.set16(FixB, b.Raw())
		h.call(FixMul)
		if got := numeric.Fixed(int16(h.ax())).Float(); got != c.want {
			t.Fatalf("%v*%v = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestFixDiv(t *testing.T) {
	h := newHarness(t, FixDiv)
	samples := fixedSamples()
	samples = append(samples, 0)
	for i, a := range samples {
		for _, b := range samples[i%5:][:12] {
			h.set16(FixA, a.Raw())
			h.set16(FixB, b.Raw())
			h.call(FixDiv)
			if want := a.Div(b); h.ax() != want.Raw() {
				t.Fatalf("%v/%v = %v, want %v", a, b, numeric.Fixed(int16(h.ax())), want)
			}
		}
	}
}

func TestFixDivReachesMinimum(t *testing.T) {
	h := newHarness(t, FixDiv)
	cases := []struct{ a, b, want float64 }{
		{-512, 0.25, -2048},
		{512, -0.25, -2048},
		{-1024, 0.25, -2048},
		{512, 0.25, 2047.9375},
	}
	for _, c := range cases {
		a, _ := numeric.FixedFromFloat(c.a)
		b, _ := numeric.FixedFromFloat(c.b)
		h.set16(FixA, a.Raw())
		h.set16(FixB, b.Raw())
		h.call(FixDiv)
		if got := numeric.Fixed(int16(h.ax())).Float(); got != c.want {
			t.Fatalf("%v/%v = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestFixDivByZeroSaturates(t *testing.T) {
	h := newHarness(t, FixDiv)
	for _, c := range []struct {
		a    int16
		want numeric.Fixed
	}{{16, numeric.FixedMax}, {-16, numeric.FixedMin}, {0, numeric.FixedMax}} {
		h.set16(FixA, uint16(c.a))
		h.set16(FixB, 0)
		h.call(FixDiv)
		if h.ax() != c.want.Raw() {
			t.Fatalf("%d/0 = $%04X, want $%04X", c.a, h.ax(), c.want.Raw())
		}
	}
}
