package mos

import (
	"fmt"

	"halfbyte/internal/asm"
	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/isa"
	"halfbyte/internal/numeric"
	"halfbyte/internal/petscii"
	"halfbyte/internal/rtlib"
	"halfbyte/internal/types"
)

// LowerExpr lowers x and converts the value to want. An invalid or void want
// keeps the value in its own type.
func (e *Emitter) LowerExpr(x *hir.Expr, want types.Type) error {
	if x == nil {
		return fmt.Errorf("%w: nil expression", ErrMalformedNode)
	}
	if !want.Valid() || want.Kind == types.KindVoid || want == x.Type {
		return e.lowerValue(x)
	}
	conv, ok := e.resolver.Assign(want, x.Type, e.literalHint(x), x.Span)
	if !ok {
		if err := e.lowerValue(x); err != nil {
			return err
		}
		e.zero(want)
		return nil
	}
	return e.lowerConverted(x, conv, false)
}

// lowerValue lowers x in its own type.
func (e *Emitter) lowerValue(x *hir.Expr) error {
	switch d := x.Data.(type) {
	case hir.LiteralData:
		return e.lowerLiteral(x, d)
	case hir.VarRefData:
		return e.lowerVarRef(x, d)
	case hir.UnaryData:
		return e.lowerUnary(x, d)
	case hir.BinaryData:
		return e.lowerBinary(x, d)
	case hir.CallData:
		return e.lowerCall(x, d)
	case hir.IndexData:
		return e.lowerIndex(x, d)
	case hir.CastData:
		return e.LowerCast(x)
	case hir.BuiltinData:
		return e.lowerBuiltin(x, d)
	case hir.DataAddrData:
		return e.lowerDataAddr(d)
	}
	return fmt.Errorf("%w: expression %s", ErrMalformedNode, x.Kind)
}

func (e *Emitter) lowerLiteral(x *hir.Expr, d hir.LiteralData) error {
	if d.Kind == hir.LiteralString {
		e.loadString(d.String)
		return nil
	}
	bits, ok := e.literalBits(x.Type.Kind, d)
	if !ok {
		diag.ReportError(e.reporter, diag.SemaTypeMismatch, x.Span,
			fmt.Sprintf("literal cannot have type %s", x.Type)).Emit()
	}
	e.checkLiteral(x, d)
	e.loadImm(bits, x.Type.Wide())
	return nil
}

// checkLiteral reports a literal that does not fit its own type.
func (e *Emitter) checkLiteral(x *hir.Expr, d hir.LiteralData) {
	if d.Kind == hir.LiteralInt && x.Type.Kind.IsInteger() {
		if lo, hi := x.Type.Kind.Range(); d.Int < lo || d.Int > hi {
			diag.ReportError(e.reporter, diag.SemaLiteralOutOfRange, x.Span,
				fmt.Sprintf("integer literal %d does not fit in %s", d.Int, x.Type)).Emit()
		}
	}
	if x.Type.Kind == types.KindFixed {
		if v := literalFloat(d); !numeric.FixedInRange(v) {
			diag.ReportWarning(e.reporter, diag.SemaFixedRangeOverflow, x.Span,
				fmt.Sprintf("value %g is outside the fixed range and saturates", v)).Emit()
		}
	}
}

// loadString puts the address of an interned, zero-terminated copy of s in
// A/X.
func (e *Emitter) loadString(s string) {
	data := append(petscii.Encode(s), 0)
	if len(data)-1 > petscii.MaxLen {
		data = append(data[:petscii.MaxLen:petscii.MaxLen], 0)
	}
	l := e.pool.Intern(data)
	e.s.Emit(isa.LDA, asm.ImmLow(asm.At(l, 0)))
	e.s.Emit(isa.LDX, asm.ImmHigh(asm.At(l, 0)))
}

// literalBits encodes a literal in kind k.
func (e *Emitter) literalBits(k types.Kind, d hir.LiteralData) (uint16, bool) {
	switch k {
	case types.KindU8, types.KindI8:
		if d.Kind == hir.LiteralBool {
			return boolBits(d.Bool), true
		}
		return uint16(d.Int) & 0xFF, d.Kind == hir.LiteralInt
	case types.KindU16, types.KindI16:
		if d.Kind == hir.LiteralBool {
			return boolBits(d.Bool), true
		}
		return uint16(d.Int), d.Kind == hir.LiteralInt
	case types.KindFixed:
		f, _ := numeric.FixedFromFloat(literalFloat(d))
		return f.Raw(), d.Kind == hir.LiteralInt || d.Kind == hir.LiteralFloat
	case types.KindFloat:
		return uint16(numeric.HalfFromFloat(literalFloat(d))), d.Kind == hir.LiteralInt || d.Kind == hir.LiteralFloat
	case types.KindBool:
		switch d.Kind {
		case hir.LiteralBool:
			return boolBits(d.Bool), true
		case hir.LiteralInt:
			return boolBits(d.Int != 0), true
		}
	}
	return 0, false
}

func literalFloat(d hir.LiteralData) float64 {
	if d.Kind == hir.LiteralFloat {
		return d.Float
	}
	return float64(d.Int)
}

func boolBits(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// constValue returns the literal behind x: x itself or a constant it names.
func (e *Emitter) constValue(x *hir.Expr) (*hir.Expr, bool) {
	switch d := x.Data.(type) {
	case hir.LiteralData:
		return x, true
	case hir.VarRefData:
		if c, ok := e.consts[d.Symbol]; ok {
			return c, true
		}
	}
	return nil, false
}

// literalHint describes a compile-time operand for range checks.
func (e *Emitter) literalHint(x *hir.Expr) *types.Literal {
	c, ok := e.constValue(x)
	if !ok {
		return nil
	}
	d, _ := c.Literal()
	switch d.Kind {
	case hir.LiteralInt:
		return &types.Literal{Int: d.Int}
	case hir.LiteralFloat:
		return &types.Literal{Float: d.Float, IsFloat: true}
	case hir.LiteralBool:
		return &types.Literal{Int: int64(boolBits(d.Bool))}
	}
	return nil
}

// fold evaluates conv on a compile-time operand. Conversions that touch
// strings, or go from fixed or float to an integer, are left to the runtime.
func (e *Emitter) fold(x *hir.Expr, conv types.Conversion) (uint16, bool) {
	c, ok := e.constValue(x)
	if !ok || conv.From == types.KindString || conv.To == types.KindString {
		return 0, false
	}
	from, to := conv.From, conv.To
	d, _ := c.Literal()
	src, ok := e.literalBits(from, d)
	if !ok {
		return 0, false
	}
	if c == x {
		e.checkLiteral(x, d)
	}
	switch {
	case to == types.KindBool:
		if from == types.KindFloat {
			src &= 0x7FFF
		}
		return boolBits(src != 0), true
	case (from.IsInteger() || from == types.KindBool) && to.IsInteger():
		v := signedValue(src, from)
		if to.Wide() {
			return uint16(v), true
		}
		return uint16(v) & 0xFF, true
	case from.IsInteger() || from == types.KindBool:
		v := signedValue(src, from)
		if to == types.KindFixed {
			f, _ := numeric.FixedFromInt(v)
			return f.Raw(), true
		}
		return uint16(numeric.HalfFromFloat(float64(v))), true
	case from == types.KindFixed && to == types.KindFloat:
		return uint16(numeric.HalfFromFloat(numeric.Fixed(int16(src)).Float())), true
	case from == types.KindFloat && to == types.KindFixed:
		return numeric.Half(src).Fixed().Raw(), true
	case from == to:
		return src, true
	}
	return 0, false
}

// signedValue reads bits as a value of kind k.
func signedValue(bits uint16, k types.Kind) int64 {
	switch k {
	case types.KindI8:
		return int64(int8(uint8(bits)))
	case types.KindI16:
		return int64(int16(bits))
	case types.KindU8, types.KindBool:
		return int64(bits & 0xFF)
	}
	return int64(bits)
}

func (e *Emitter) lowerVarRef(x *hir.Expr, d hir.VarRefData) error {
	if c, ok := e.consts[d.Symbol]; ok {
		return e.LowerExpr(c, x.Type)
	}
	sym := e.prog.Symbol(d.Symbol)
	if sym == nil {
		return fmt.Errorf("%w: %d", ErrUnknownSymbol, d.Symbol)
	}
	ref, err := e.symbolRef(d.Symbol)
	if err != nil {
		return err
	}
	if sym.Type.IsArray {
		// an array used as a value is its address
		e.s.Emit(isa.LDA, asm.ImmLow(ref))
		e.s.Emit(isa.LDX, asm.ImmHigh(ref))
		return nil
	}
	e.load(ref, sym.Type.Wide())
	return nil
}

// symbolRef returns the storage of id.
func (e *Emitter) symbolRef(id hir.SymbolID) (asm.AddressRef, error) {
	ref, ok := e.alloc.Lookup(id)
	if !ok {
		name := fmt.Sprint(id)
		if sym := e.prog.Symbol(id); sym != nil {
			name = sym.Name
		}
		return asm.AddressRef{}, fmt.Errorf("%w: %s has no storage", ErrUnknownSymbol, name)
	}
	return ref, nil
}

func (e *Emitter) lowerUnary(x *hir.Expr, d hir.UnaryData) error {
	t, ok := e.resolver.Unary(d.Op, d.Operand.Type, x.Span)
	if err := e.lowerValue(d.Operand); err != nil {
		return err
	}
	if !ok {
		return nil
	}
	wide := t.Wide()
	switch d.Op {
	case types.UnaryNot:
		e.imm(isa.EOR, 1)
	case types.UnaryBitNot:
		e.imm(isa.EOR, 0xFF)
		if wide {
			e.op(isa.TAY)
			e.op(isa.TXA)
			e.imm(isa.EOR, 0xFF)
			e.op(isa.TAX)
			e.op(isa.TYA)
		}
	case types.UnaryNeg:
		if t.Kind == types.KindFloat {
			e.op(isa.TAY)
			e.op(isa.TXA)
			e.imm(isa.EOR, 0x80)
			e.op(isa.TAX)
			e.op(isa.TYA)
			return nil
		}
		e.imm(isa.EOR, 0xFF)
		e.op(isa.CLC)
		e.imm(isa.ADC, 1)
		if wide {
			e.op(isa.TAY)
			e.op(isa.TXA)
			e.imm(isa.EOR, 0xFF)
			e.imm(isa.ADC, 0)
			e.op(isa.TAX)
			e.op(isa.TYA)
		}
	default:
		return fmt.Errorf("%w: unary %s", ErrMalformedNode, d.Op)
	}
	return nil
}

// toString converts a scalar in A or A/X to a string in A/X.
func (e *Emitter) toString(from types.Kind) {
	switch from {
	case types.KindU8, types.KindU16:
		e.extend(from)
		e.storeZP(rtlib.IntA, true)
		e.call(rtlib.U16ToStr)
	case types.KindI8, types.KindI16:
		e.extend(from)
		e.storeZP(rtlib.IntA, true)
		e.call(rtlib.I16ToStr)
	case types.KindFixed:
		e.storeZP(rtlib.FixA, true)
		e.call(rtlib.FixToStr)
	case types.KindFloat:
		e.storeZP(rtlib.FltA, true)
		e.call(rtlib.FltToStr)
	case types.KindBool:
		e.zp(isa.STA, rtlib.IntA)
		e.call(rtlib.BoolToStr)
	}
}
