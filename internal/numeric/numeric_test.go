package numeric

import (
	"math"
	"testing"
)

func TestFixedRoundTripWholeRange(t *testing.T) {
	for raw := math.MinInt16; raw <= math.MaxInt16; raw++ {
		f := Fixed(int16(raw))
		v := f.Float()
		if v < FixedMinValue || v > FixedMaxValue {
			t.Fatalf("raw %d decoded outside the range: %v", raw, v)
		}
		back, ok := FixedFromFloat(v)
		if !ok || back != f {
			t.Fatalf("round trip of %v failed: got %d (%v)", v, back, ok)
		}
	}
}

func TestFixedSaturation(t *testing.T) {
	if f, ok := FixedFromFloat(2048); ok || f != FixedMax {
		t.Fatalf("2048 must saturate to max, got %d %v", f, ok)
	}
	if f, ok := FixedFromFloat(-3000); ok || f != FixedMin {
		t.Fatalf("-3000 must saturate to min, got %d %v", f, ok)
	}
	if f, ok := FixedFromInt(100); !ok || f.Raw() != 1600 {
		t.Fatalf("100 -> %d", f)
	}
	if _, ok := FixedFromInt(2048); ok {
		t.Fatalf("2048 is not representable")
	}
}

func TestFixedArithmeticSaturatesBySign(t *testing.T) {
	fix := func(v float64) Fixed {
		f, _ := FixedFromFloat(v)
		return f
	}
	cases := []struct {
		got  Fixed
		want Fixed
	}{
		{fix(-1024).Mul(fix(2)), FixedMin},
		{fix(-1000).Mul(fix(3)), FixedMin},
		{fix(1000).Mul(fix(3)), FixedMax},
		{fix(-512).Div(fix(0.25)), FixedMin},
		{fix(512).Div(fix(0.25)), FixedMax},
		{fix(-3).Mul(fix(0.5)), fix(-1.5)},
	}
	for i, c := range cases {
		if c.got != c.want {
			t.Fatalf("case %d: got %v, want %v", i, c.got, c.want)
		}
	}
}

func TestFixedString(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "0.0"},
		{1.5, "1.5"},
		{-1.5, "-1.5"},
		{3.0625, "3.0625"},
		{-2048, "-2048.0"},
		{2047.9375, "2047.9375"},
		{0.25, "0.25"},
	}
	for _, tt := range tests {
		f, _ := FixedFromFloat(tt.v)
		if got := f.String(); got != tt.want {
			t.Fatalf("%v: got %q, want %q", tt.v, got, tt.want)
		}
	}
	if Fixed(-24).Int() != -2 {
		t.Fatalf("-1.5 must floor to -2")
	}
}

func TestHalfEncoding(t *testing.T) {
	tests := []struct {
		v    float64
		want Half
	}{
		{0, 0x0000},
		{math.Copysign(0, -1), 0x8000},
		{1, 0x3C00},
		{-2, 0xC000},
		{0.5, 0x3800},
		{65504, 0x7BFF},
		{65520, HalfPosInf},
		{1e9, HalfPosInf},
		{math.Inf(-1), HalfNegInf},
		{math.Ldexp(1, -14), 0x0400},
		{math.Ldexp(1, -24), 0x0001},
		{math.Ldexp(1, -26), 0x0000},
		{0.1, 0x2E66},
		{1 + math.Ldexp(1, -11), 0x3C00}, // tie, rounds to even
		{1 + 3*math.Ldexp(1, -11), 0x3C02},
	}
	for _, tt := range tests {
		if got := HalfFromFloat(tt.v); got != tt.want {
			t.Fatalf("HalfFromFloat(%v) = %#04x, want %#04x", tt.v, uint16(got), uint16(tt.want))
		}
	}
	if !HalfFromFloat(math.NaN()).IsNaN() {
		t.Fatalf("NaN must stay NaN")
	}
}

func TestHalfRoundTripAllFinite(t *testing.T) {
	for bits := 0; bits <= 0xFFFF; bits++ {
		h := Half(bits)
		if h.IsNaN() {
			continue
		}
		back := HalfFromFloat(h.Float())
		if back != h {
			t.Fatalf("%#04x -> %v -> %#04x", bits, h.Float(), uint16(back))
		}
	}
}

func TestHalfToFixed(t *testing.T) {
	if got := HalfFromFloat(1.5).Fixed(); got.Raw() != 24 {
		t.Fatalf("1.5 -> %d", got)
	}
	if got := HalfFromFloat(-0.03).Fixed(); got != 0 {
		t.Fatalf("small negatives truncate to zero, got %d", got)
	}
	if got := HalfFromFloat(5000).Fixed(); got != FixedMax {
		t.Fatalf("5000 must saturate, got %d", got)
	}
	if got := HalfFromFloat(2.25).String(); got != "2.25" {
		t.Fatalf("2.25 formats as %q", got)
	}
}
