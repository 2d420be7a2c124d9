// Package numeric holds the host-side encodings of the two non-integer scalar
// kinds: 12.4 fixed point and IEEE 754 binary16. The code generator uses them
// to encode literals; tests use them as oracles for the runtime routines.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// FracBits is the number of fractional bits of the fixed-point format.
const FracBits = 4

// Fixed is a 12.4 fixed-point value stored as value*16 in two's complement.
type Fixed int16

const (
	FixedMin = Fixed(math.MinInt16)
	FixedMax = Fixed(math.MaxInt16)
)

// FixedMinValue and FixedMaxValue bound the representable range.
const (
	FixedMinValue = -2048.0
	FixedMaxValue = 2047.9375
)

// FixedFromFloat rounds v to the nearest 1/16 step. Values outside the range
// saturate and report false.
func FixedFromFloat(v float64) (Fixed, bool) {
	if math.IsNaN(v) {
		return 0, false
	}
	raw := math.Round(v * (1 << FracBits))
	switch {
	case raw < float64(FixedMin):
		return FixedMin, false
	case raw > float64(FixedMax):
		return FixedMax, false
	}
	return Fixed(int16(raw)), true
}

// FixedFromInt shifts an integer into the format, saturating on overflow.
func FixedFromInt(v int64) (Fixed, bool) {
	if v < -2048 {
		return FixedMin, false
	}
	if v > 2047 {
		return FixedMax, false
	}
	return Fixed(int16(v << FracBits)), true
}

// FixedInRange reports whether v lies inside [-2048, 2047.9375].
func FixedInRange(v float64) bool {
	return v >= FixedMinValue && v <= FixedMaxValue
}

// Float returns the exact value of f.
func (f Fixed) Float() float64 {
	return float64(f) / (1 << FracBits)
}

// Raw returns the stored 16-bit pattern.
func (f Fixed) Raw() uint16 {
	return uint16(f)
}

// Int truncates toward negative infinity, which is what an arithmetic shift
// right by four does on the target.
func (f Fixed) Int() int16 {
	return int16(f) >> FracBits
}

// String formats f the way the runtime's fix_to_str does: integer part, a
// dot, and the shortest exact decimal fraction (at least one digit).
func (f Fixed) String() string {
	var b strings.Builder
	mag := uint16(f)
	if f < 0 {
		b.WriteByte('-')
		mag = uint16(-int32(f))
	}
	b.WriteString(strconv.FormatUint(uint64(mag>>FracBits), 10))
	b.WriteByte('.')
	frac := mag & 0x0F
	for {
		frac *= 10
		b.WriteByte(byte('0' + frac>>FracBits))
		frac &= 0x0F
		if frac == 0 {
			break
		}
	}
	return b.String()
}

// Mul multiplies with the runtime's rounding: the magnitude of the 32-bit
// product is shifted right by four (truncating toward zero), then the signed
// result saturates to [FixedMin, FixedMax].
func (f Fixed) Mul(g Fixed) Fixed {
	p := magnitude(f) * magnitude(g) >> FracBits
	return signed(p, (f < 0) != (g < 0))
}

// Div divides with the runtime's rounding. Division by zero saturates toward
// the sign of the dividend.
func (f Fixed) Div(g Fixed) Fixed {
	if g == 0 {
		if f < 0 {
			return FixedMin
		}
		return FixedMax
	}
	q := magnitude(f) << FracBits / magnitude(g)
	return signed(q, (f < 0) != (g < 0))
}

func magnitude(f Fixed) uint32 {
	if f < 0 {
		return uint32(-int32(f))
	}
	return uint32(f)
}

// signed applies the sign to mag, saturating at FixedMin or FixedMax.
func signed(mag uint32, neg bool) Fixed {
	if neg {
		return Fixed(-int32(min(mag, magnitude(FixedMin))))
	}
	return Fixed(int32(min(mag, uint32(FixedMax))))
}
