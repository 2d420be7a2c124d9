package types

import "fmt"

// ConversionKind classifies the code a conversion lowers to.
type ConversionKind uint8

const (
	ConvNone ConversionKind = iota
	ConvZeroExtend
	ConvSignExtend
	ConvTruncate
	ConvReinterpret // same width, other signedness
	ConvIntToFixed
	ConvFixedToInt
	ConvIntToFloat
	ConvFloatToInt
	ConvFixedToFloat
	ConvFloatToFixed
	ConvToBool
	ConvToString
	ConvFromString
	ConvInvalid
)

func (k ConversionKind) String() string {
	switch k {
	case ConvNone:
		return "none"
	case ConvZeroExtend:
		return "zero-extend"
	case ConvSignExtend:
		return "sign-extend"
	case ConvTruncate:
		return "truncate"
	case ConvReinterpret:
		return "reinterpret"
	case ConvIntToFixed:
		return "int-to-fixed"
	case ConvFixedToInt:
		return "fixed-to-int"
	case ConvIntToFloat:
		return "int-to-float"
	case ConvFloatToInt:
		return "float-to-int"
	case ConvFixedToFloat:
		return "fixed-to-float"
	case ConvFloatToFixed:
		return "float-to-fixed"
	case ConvToBool:
		return "to-bool"
	case ConvToString:
		return "to-string"
	case ConvFromString:
		return "from-string"
	case ConvInvalid:
		return "invalid"
	}
	return fmt.Sprintf("ConversionKind(%d)", k)
}

// Conversion moves a value from one scalar kind to another. Explicit is set
// when only a cast may request it.
type Conversion struct {
	From     Kind
	To       Kind
	Kind     ConversionKind
	Explicit bool
}

// IsNone reports a conversion that emits no code.
func (c Conversion) IsNone() bool { return c.Kind == ConvNone }

func (c Conversion) String() string {
	return fmt.Sprintf("%s->%s (%s)", c.From, c.To, c.Kind)
}

// Classify names the lowering of a from→to conversion, or ConvInvalid when no
// lowering exists at all.
func Classify(from, to Kind) ConversionKind {
	if from == to {
		return ConvNone
	}
	integral := func(k Kind) bool { return k.IsInteger() || k == KindBool }
	switch {
	case from == KindVoid || to == KindVoid || from == KindInvalid || to == KindInvalid:
		return ConvInvalid
	case to == KindBool:
		if from == KindString {
			return ConvInvalid
		}
		return ConvToBool
	case to == KindString:
		return ConvToString
	case from == KindString:
		if to.IsInteger() {
			return ConvFromString
		}
		return ConvInvalid
	case integral(from) && to.IsInteger():
		switch {
		case to.Size() > from.Size():
			if from.IsSigned() {
				return ConvSignExtend
			}
			return ConvZeroExtend
		case to.Size() < from.Size():
			return ConvTruncate
		}
		if from == KindBool {
			return ConvNone
		}
		return ConvReinterpret
	case integral(from) && to == KindFixed:
		return ConvIntToFixed
	case integral(from) && to == KindFloat:
		return ConvIntToFloat
	case from == KindFixed && to.IsInteger():
		return ConvFixedToInt
	case from == KindFloat && to.IsInteger():
		return ConvFloatToInt
	case from == KindFixed && to == KindFloat:
		return ConvFixedToFloat
	case from == KindFloat && to == KindFixed:
		return ConvFloatToFixed
	}
	return ConvInvalid
}

// Implicit reports whether a value of kind from may flow into kind to without
// a cast. Integers convert within their signedness in both directions; the
// only cross-signedness step is u8 into i16, which preserves every value.
func Implicit(from, to Kind) bool {
	if from == to {
		return from != KindInvalid && from != KindVoid
	}
	switch {
	case from == KindBool:
		return to.IsInteger()
	case from.IsInteger() && to.IsInteger():
		if from.IsSigned() == to.IsSigned() {
			return true
		}
		return from == KindU8 && to == KindI16
	case from.IsInteger():
		return to == KindFixed || to == KindFloat
	case from == KindFixed:
		return to == KindFloat
	}
	return false
}

// Castable reports whether an explicit cast from→to exists.
func Castable(from, to Kind) bool {
	if Implicit(from, to) {
		return true
	}
	switch Classify(from, to) {
	case ConvInvalid:
		return false
	case ConvIntToFixed, ConvIntToFloat:
		return from != KindBool
	}
	return true
}

// Promote returns the common operand type of a binary arithmetic or
// comparison, or false when the kinds do not meet.
func Promote(a, b Kind) (Kind, bool) {
	if a == b {
		return a, a != KindInvalid && a != KindVoid
	}
	if b == KindBool {
		a, b = b, a
	}
	switch {
	case a == KindBool:
		if b.IsInteger() {
			return b, true
		}
		return KindInvalid, false
	case a.IsInteger() && b.IsInteger():
		if a.IsSigned() == b.IsSigned() {
			if a.Size() >= b.Size() {
				return a, true
			}
			return b, true
		}
		u, s := a, b
		if u.IsSigned() {
			u, s = s, u
		}
		if u.Size() < s.Size() {
			return s, true
		}
		return KindInvalid, false
	}
	rank := func(k Kind) int {
		switch {
		case k.IsInteger():
			return 1
		case k == KindFixed:
			return 2
		case k == KindFloat:
			return 3
		}
		return 0
	}
	ra, rb := rank(a), rank(b)
	if ra == 0 || rb == 0 {
		return KindInvalid, false
	}
	if ra > rb {
		return a, true
	}
	return b, true
}
