// Package types describes the scalar and array types of the language and the
// rules that combine them: operand promotion, implicit assignment conversions
// and explicit casts.
package types

import "fmt"

// Kind enumerates the scalar kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindU8
	KindI8
	KindU16
	KindI16
	KindFixed // 12.4 signed fixed point
	KindFloat // IEEE 754 binary16
	KindBool
	KindString // pointer to a null-terminated byte sequence
)

// Scalars lists every kind a value can have, in declaration order.
var Scalars = []Kind{KindU8, KindI8, KindU16, KindI16, KindFixed, KindFloat, KindBool, KindString}

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindU8:
		return "u8"
	case KindI8:
		return "i8"
	case KindU16:
		return "u16"
	case KindI16:
		return "i16"
	case KindFixed:
		return "fixed"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind maps a source spelling back to its kind.
func ParseKind(s string) (Kind, bool) {
	for k := KindVoid; k <= KindString; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return KindInvalid, false
}

// IsInteger reports the four integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindU8 && k <= KindI16
}

// IsSigned is true for i8, i16, fixed and float.
func (k Kind) IsSigned() bool {
	switch k {
	case KindI8, KindI16, KindFixed, KindFloat:
		return true
	}
	return false
}

// IsUnsigned is true for u8 and u16.
func (k Kind) IsUnsigned() bool {
	return k == KindU8 || k == KindU16
}

// IsNumeric covers integers, fixed and float.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k == KindFixed || k == KindFloat
}

// Size is the storage size in bytes.
func (k Kind) Size() int {
	switch k {
	case KindU8, KindI8, KindBool:
		return 1
	case KindU16, KindI16, KindFixed, KindFloat, KindString:
		return 2
	}
	return 0
}

// Wide reports whether values of k travel in A (lo) and X (hi).
func (k Kind) Wide() bool { return k.Size() == 2 }

// Range returns the inclusive value range of an integer kind.
func (k Kind) Range() (lo, hi int64) {
	switch k {
	case KindU8:
		return 0, 0xFF
	case KindI8:
		return -0x80, 0x7F
	case KindU16:
		return 0, 0xFFFF
	case KindI16:
		return -0x8000, 0x7FFF
	case KindBool:
		return 0, 1
	}
	return 0, 0
}

// Type is a scalar or a fixed-length array of scalars.
type Type struct {
	Kind    Kind
	IsArray bool
	Len     uint16
}

// Predeclared scalar types.
var (
	Invalid = Type{}
	Void    = Scalar(KindVoid)
	U8      = Scalar(KindU8)
	I8      = Scalar(KindI8)
	U16     = Scalar(KindU16)
	I16     = Scalar(KindI16)
	Fixed   = Scalar(KindFixed)
	Float   = Scalar(KindFloat)
	Bool    = Scalar(KindBool)
	String  = Scalar(KindString)
)

// Scalar wraps a kind.
func Scalar(k Kind) Type { return Type{Kind: k} }

// Array builds elem[n].
func Array(elem Kind, n uint16) Type { return Type{Kind: elem, IsArray: true, Len: n} }

// Valid reports whether t names a real type.
func (t Type) Valid() bool { return t.Kind != KindInvalid }

// Elem is the element type of an array, or t itself for scalars.
func (t Type) Elem() Type { return Type{Kind: t.Kind} }

// Size is the storage size in bytes.
func (t Type) Size() int {
	if t.IsArray {
		return int(t.Len) * t.Kind.Size()
	}
	return t.Kind.Size()
}

// Wide reports whether a scalar of this type occupies A and X.
func (t Type) Wide() bool { return !t.IsArray && t.Kind.Wide() }

func (t Type) String() string {
	if t.IsArray {
		return fmt.Sprintf("%s[%d]", t.Kind, t.Len)
	}
	return t.Kind.String()
}
