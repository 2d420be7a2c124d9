package mos

import (
	"fmt"

	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/isa"
	"halfbyte/internal/rtlib"
	"halfbyte/internal/source"
	"halfbyte/internal/types"
)

// LowerCast lowers an explicit conversion. Only here may explicit-only
// conversions appear.
func (e *Emitter) LowerCast(x *hir.Expr) error {
	d, ok := x.Data.(hir.CastData)
	if !ok {
		return fmt.Errorf("%w: cast without payload", ErrMalformedNode)
	}
	conv, ok := e.resolver.Cast(d.Value.Type, x.Type, e.literalHint(d.Value), x.Span)
	if !ok {
		if err := e.lowerValue(d.Value); err != nil {
			return err
		}
		e.zero(x.Type)
		return nil
	}
	return e.lowerConverted(d.Value, conv, true)
}

// lowerConverted lowers x and applies conv, folding literals at compile time.
func (e *Emitter) lowerConverted(x *hir.Expr, conv types.Conversion, explicit bool) error {
	if bits, ok := e.fold(x, conv); ok {
		e.loadImm(bits, conv.To.Wide())
		return nil
	}
	if err := e.lowerValue(x); err != nil {
		return err
	}
	return e.convert(conv, explicit, x.Span)
}

// convert rewrites the value in A or A/X from conv.From to conv.To.
func (e *Emitter) convert(conv types.Conversion, explicit bool, span source.Span) error {
	if conv.Kind == types.ConvInvalid || (conv.Explicit && !explicit) {
		return fmt.Errorf("%w: %s at %s", ErrUnauthorizedConversion, conv, span)
	}
	from, to := conv.From, conv.To
	switch conv.Kind {
	case types.ConvNone, types.ConvTruncate, types.ConvReinterpret:
	case types.ConvZeroExtend, types.ConvSignExtend:
		e.extend(from)
	case types.ConvIntToFixed:
		e.extend(from)
		e.storeZP(rtlib.Scratch, true)
		for range 4 {
			e.zp(isa.ASL, rtlib.Scratch)
			e.zp(isa.ROL, rtlib.Scratch+1)
		}
		e.loadZP(rtlib.Scratch, true)
	case types.ConvFixedToInt:
		// arithmetic shift right: the result is the floor
		e.storeZP(rtlib.Scratch, true)
		for range 4 {
			e.zp(isa.LDA, rtlib.Scratch+1)
			e.imm(isa.CMP, 0x80)
			e.zp(isa.ROR, rtlib.Scratch+1)
			e.zp(isa.ROR, rtlib.Scratch)
		}
		e.loadZP(rtlib.Scratch, to.Wide())
	case types.ConvIntToFloat:
		e.extend(from)
		e.storeZP(rtlib.IntA, true)
		if from.IsSigned() {
			e.call(rtlib.I16ToFlt)
		} else {
			e.call(rtlib.U16ToFlt)
		}
	case types.ConvFloatToInt:
		e.storeZP(rtlib.FltA, true)
		if to.IsSigned() {
			e.call(rtlib.FltToI16)
		} else {
			e.call(rtlib.FltToU16)
		}
	case types.ConvFixedToFloat:
		e.storeZP(rtlib.FixA, true)
		e.call(rtlib.FixToFlt)
	case types.ConvFloatToFixed:
		e.storeZP(rtlib.FltA, true)
		e.call(rtlib.FltToFix)
	case types.ConvToBool:
		e.toBool(from)
	case types.ConvToString:
		e.toString(from)
	case types.ConvFromString:
		e.storeZP(rtlib.StrP1, true)
		if to.IsSigned() {
			e.call(rtlib.StrToI16)
		} else {
			e.call(rtlib.StrToU16)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnauthorizedConversion, conv)
	}
	return nil
}

// toBool maps any non-zero value to 1. Both zeros of a float are false.
func (e *Emitter) toBool(from types.Kind) {
	done := e.label("bool")
	switch {
	case from == types.KindFloat:
		e.zp(isa.STA, rtlib.Scratch)
		e.op(isa.TXA)
		e.imm(isa.AND, 0x7F)
		e.zp(isa.ORA, rtlib.Scratch)
	case from.Wide():
		e.zp(isa.STX, rtlib.Scratch)
		e.zp(isa.ORA, rtlib.Scratch)
	default:
		e.setFlags()
	}
	e.branch(isa.BEQ, done)
	e.imm(isa.LDA, 1)
	e.bind(done)
}

// lowerString lowers x as a string, converting other scalars to text.
func (e *Emitter) lowerString(x *hir.Expr) error {
	if x.Type.Kind == types.KindString && !x.Type.IsArray {
		return e.lowerValue(x)
	}
	conv, err := types.CastConversion(x.Type, types.String)
	if err != nil {
		diag.ReportError(e.reporter, diag.SemaTypeMismatch, x.Span, err.Error()).Emit()
		e.zero(types.String)
		return nil
	}
	return e.lowerConverted(x, conv, true)
}
