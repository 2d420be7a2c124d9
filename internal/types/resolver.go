package types

import (
	"fmt"

	"halfbyte/internal/diag"
	"halfbyte/internal/numeric"
	"halfbyte/internal/source"
)

// Literal carries the compile-time value of an operand when it has one.
type Literal struct {
	Int     int64
	Float   float64
	IsFloat bool
}

func (l Literal) value() float64 {
	if l.IsFloat {
		return l.Float
	}
	return float64(l.Int)
}

// Resolver applies the type rules and turns violations into diagnostics.
type Resolver struct {
	reporter diag.Reporter
}

// NewResolver creates a resolver that reports to r.
func NewResolver(r diag.Reporter) *Resolver {
	return &Resolver{reporter: r}
}

// Binary resolves a binary operation, reporting TypeMismatch on failure.
func (r *Resolver) Binary(op BinaryOp, left, right Type, span source.Span) (Resolution, bool) {
	res, err := Resolve(op, left, right)
	if err != nil {
		diag.ReportError(r.reporter, diag.SemaTypeMismatch, span, err.Error()).Emit()
		return res, false
	}
	return res, true
}

// Unary resolves a prefix operation.
func (r *Resolver) Unary(op UnaryOp, t Type, span source.Span) (Type, bool) {
	res, err := ResolveUnary(op, t)
	if err != nil {
		diag.ReportError(r.reporter, diag.SemaTypeMismatch, span, err.Error()).Emit()
		return res, false
	}
	return res, true
}

// Assign checks that value may be stored into declared. A known literal is
// checked against the destination range: integers that do not fit warn about
// truncation, fixed-point values outside its range warn about overflow.
func (r *Resolver) Assign(declared, value Type, lit *Literal, span source.Span) (Conversion, bool) {
	conv, err := AssignConversion(declared, value)
	if err != nil {
		diag.ReportError(r.reporter, diag.SemaTypeMismatch, span, err.Error()).Emit()
		return conv, false
	}
	if lit != nil {
		r.checkRange(conv, *lit, span)
	}
	return conv, true
}

// Cast checks an explicit conversion. Casts between integers of different
// signedness are allowed but warned about.
func (r *Resolver) Cast(from, to Type, lit *Literal, span source.Span) (Conversion, bool) {
	conv, err := CastConversion(from, to)
	if err != nil {
		diag.ReportError(r.reporter, diag.SemaTypeMismatch, span, err.Error()).Emit()
		return conv, false
	}
	if from.Kind.IsInteger() && to.Kind.IsInteger() && from.Kind.IsSigned() != to.Kind.IsSigned() {
		diag.ReportWarning(r.reporter, diag.SemaSignReinterpretation, span,
			fmt.Sprintf("cast from %s to %s reinterprets the sign", from, to)).Emit()
	}
	if lit != nil {
		r.checkRange(conv, *lit, span)
	}
	return conv, true
}

func (r *Resolver) checkRange(conv Conversion, lit Literal, span source.Span) {
	switch {
	case conv.To.IsInteger() && !lit.IsFloat && (conv.From.IsInteger() || conv.From == KindBool):
		lo, hi := conv.To.Range()
		if lit.Int < lo || lit.Int > hi {
			diag.ReportWarning(r.reporter, diag.SemaPossibleTruncation, span,
				fmt.Sprintf("value %d does not fit in %s and will be truncated", lit.Int, conv.To)).Emit()
		}
	case conv.To == KindFixed && conv.From != KindString:
		if v := lit.value(); !numeric.FixedInRange(v) {
			diag.ReportWarning(r.reporter, diag.SemaFixedRangeOverflow, span,
				fmt.Sprintf("value %g is outside the fixed range [%g, %g]", v, numeric.FixedMinValue, numeric.FixedMaxValue)).Emit()
		}
	}
}

// CheckLiteral reports an integer literal that cannot be represented in any
// 16-bit kind.
func (r *Resolver) CheckLiteral(v int64, span source.Span) bool {
	if v < -0x8000 || v > 0xFFFF {
		diag.ReportError(r.reporter, diag.SemaLiteralOutOfRange, span,
			fmt.Sprintf("integer literal %d is out of the 16-bit range", v)).Emit()
		return false
	}
	return true
}

// LiteralKind picks the natural kind of an untyped integer literal: the
// narrowest unsigned kind for non-negative values, the narrowest signed kind
// otherwise.
func LiteralKind(v int64) Kind {
	switch {
	case v >= 0 && v <= 0xFF:
		return KindU8
	case v >= 0 && v <= 0xFFFF:
		return KindU16
	case v >= -0x80 && v < 0:
		return KindI8
	}
	return KindI16
}
