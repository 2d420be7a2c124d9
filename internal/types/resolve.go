package types

import "fmt"

// MismatchError reports operands or conversions the type rules reject.
type MismatchError struct {
	Op    string
	Left  Type
	Right Type
}

func (e *MismatchError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("cannot convert %s to %s", e.Left, e.Right)
	}
	if !e.Right.Valid() {
		return fmt.Sprintf("cannot apply %s to %s", e.Op, e.Left)
	}
	return fmt.Sprintf("cannot apply %s to %s and %s", e.Op, e.Left, e.Right)
}

// Resolution is the typing of a binary expression: the type both operands are
// brought to, the type of the result, and the conversions that get them there.
type Resolution struct {
	Operand Type
	Result  Type
	Left    Conversion
	Right   Conversion
}

// Resolve types a binary operation. It is total: every pair of types yields
// either a resolution or a MismatchError. On mismatch the resolution still
// carries a usable fallback type (the left operand's) so lowering can go on
// collecting diagnostics.
func Resolve(op BinaryOp, l, r Type) (Resolution, error) {
	spec, ok := BinarySpecFor(op)
	if !ok || l.IsArray || r.IsArray || !l.Kind.Family().in(spec.Left) || !r.Kind.Family().in(spec.Right) {
		return fallback(op, l, r)
	}
	if spec.Result == BinaryResultLeft {
		// shift count is taken modulo the low byte, never converted
		return Resolution{
			Operand: l,
			Result:  l,
			Left:    identity(l.Kind),
			Right:   identity(r.Kind),
		}, nil
	}
	common, ok := Promote(l.Kind, r.Kind)
	if !ok || (spec.Common != FamilyNone && !common.Family().in(spec.Common)) {
		return fallback(op, l, r)
	}
	res := Resolution{
		Operand: Scalar(common),
		Result:  Scalar(common),
		Left:    Conversion{From: l.Kind, To: common, Kind: Classify(l.Kind, common)},
		Right:   Conversion{From: r.Kind, To: common, Kind: Classify(r.Kind, common)},
	}
	if spec.Result == BinaryResultBool {
		res.Result = Bool
	}
	return res, nil
}

// ResolveUnary types a prefix operation; the result keeps the operand type.
func ResolveUnary(op UnaryOp, t Type) (Type, error) {
	spec, ok := UnarySpecFor(op)
	if !ok || t.IsArray || !t.Kind.Family().in(spec.Operand) {
		return t, &MismatchError{Op: op.String(), Left: t}
	}
	return t, nil
}

// AssignConversion returns the implicit conversion applied when value is
// stored into a slot of type declared.
func AssignConversion(declared, value Type) (Conversion, error) {
	if declared.IsArray || value.IsArray || !Implicit(value.Kind, declared.Kind) {
		return Conversion{From: value.Kind, To: declared.Kind, Kind: ConvInvalid}, &MismatchError{Left: value, Right: declared}
	}
	return Conversion{From: value.Kind, To: declared.Kind, Kind: Classify(value.Kind, declared.Kind)}, nil
}

// CastConversion returns the conversion requested by an explicit cast.
func CastConversion(from, to Type) (Conversion, error) {
	if from.IsArray || to.IsArray || !Castable(from.Kind, to.Kind) {
		return Conversion{From: from.Kind, To: to.Kind, Kind: ConvInvalid, Explicit: true}, &MismatchError{Left: from, Right: to}
	}
	return Conversion{
		From:     from.Kind,
		To:       to.Kind,
		Kind:     Classify(from.Kind, to.Kind),
		Explicit: !Implicit(from.Kind, to.Kind),
	}, nil
}

func (f FamilyMask) in(set FamilyMask) bool {
	return f != FamilyNone && f&set == f
}

func identity(k Kind) Conversion {
	return Conversion{From: k, To: k, Kind: ConvNone}
}

func fallback(op BinaryOp, l, r Type) (Resolution, error) {
	t := l
	if !t.Valid() || t.IsArray {
		t = r
	}
	if t.IsArray {
		t = t.Elem()
	}
	res := Resolution{Operand: t, Result: t, Left: identity(l.Kind), Right: identity(r.Kind)}
	if spec, ok := BinarySpecFor(op); ok && spec.Result == BinaryResultBool {
		res.Result = Bool
	}
	return res, &MismatchError{Op: op.String(), Left: l, Right: r}
}
