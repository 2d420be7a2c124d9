package numeric

import "math"

// Half is an IEEE 754 binary16 bit pattern: 1 sign bit, 5 exponent bits
// (bias 15) and 10 mantissa bits.
type Half uint16

const (
	HalfPosInf  Half = 0x7C00
	HalfNegInf  Half = 0xFC00
	HalfNaN     Half = 0x7E00
	HalfMaxBits Half = 0x7BFF // 65504
	halfBias         = 15
	halfMantBit      = 10
)

// HalfFromFloat rounds v to the nearest binary16, ties to even. Subnormals are
// produced below 2^-14; values that round past 65504 become infinity.
func HalfFromFloat(v float64) Half {
	if math.IsNaN(v) {
		return HalfNaN
	}
	var sign Half
	if math.Signbit(v) {
		sign = 0x8000
	}
	a := math.Abs(v)
	if math.IsInf(a, 0) {
		return sign | HalfPosInf
	}
	if a == 0 {
		return sign
	}
	frac, exp := math.Frexp(a)
	e := exp - 1
	if e < 1-halfBias {
		// subnormal: units of 2^-24
		m := math.RoundToEven(a * (1 << 24))
		return sign | Half(m)
	}
	m := math.RoundToEven(frac * 2 * (1 << halfMantBit))
	if m == 2<<halfMantBit {
		m = 1 << halfMantBit
		e++
	}
	if e > halfBias {
		return sign | HalfPosInf
	}
	return sign | Half(e+halfBias)<<halfMantBit | Half(m-(1<<halfMantBit))
}

// Float widens h exactly.
func (h Half) Float() float64 {
	sign := 1.0
	if h&0x8000 != 0 {
		sign = -1
	}
	exp := int(h>>halfMantBit) & 0x1F
	mant := float64(h & 0x3FF)
	switch exp {
	case 0:
		return sign * math.Ldexp(mant, -24)
	case 0x1F:
		if mant == 0 {
			return math.Inf(int(sign))
		}
		return math.NaN()
	}
	return sign * math.Ldexp(mant+1024, exp-25)
}

// IsNaN reports whether h encodes a NaN.
func (h Half) IsNaN() bool {
	return h&0x7C00 == 0x7C00 && h&0x3FF != 0
}

// IsInf reports whether h encodes an infinity.
func (h Half) IsInf() bool {
	return h&0x7FFF == 0x7C00
}

// Fixed converts h the way the runtime's flt_to_fix does: scale by 16,
// truncate toward zero, saturate at the fixed-point bounds.
func (h Half) Fixed() Fixed {
	v := h.Float()
	if math.IsNaN(v) {
		return 0
	}
	raw := math.Trunc(v * (1 << FracBits))
	switch {
	case raw < float64(FixedMin):
		return FixedMin
	case raw > float64(FixedMax):
		return FixedMax
	}
	return Fixed(int16(raw))
}

// String formats h through the fixed-point path, like flt_to_str.
func (h Half) String() string {
	return h.Fixed().String()
}
