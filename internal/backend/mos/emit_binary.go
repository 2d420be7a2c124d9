package mos

import (
	"fmt"

	"halfbyte/internal/asm"
	"halfbyte/internal/hir"
	"halfbyte/internal/isa"
	"halfbyte/internal/rtlib"
	"halfbyte/internal/types"
)

// loc is a two-byte operand location: a zero-page slot or an absolute
// address.
type loc struct {
	ref  asm.AddressRef
	zp   bool
	slot uint8
}

func absLoc(ref asm.AddressRef) loc { return loc{ref: ref} }
func zpLoc(slot uint8) loc          { return loc{zp: true, slot: slot} }

func (l loc) at(i uint8) asm.Operand {
	if l.zp {
		return asm.ZP(l.slot + i)
	}
	return asm.Abs(l.ref.Plus(uint16(i)))
}

// compareLess sets the flags so that lessBranch(k) is taken when a < b.
func (e *Emitter) compareLess(k types.Kind, a, b loc) {
	wide := k.Wide()
	if !k.IsSigned() {
		e.s.Emit(isa.LDA, a.at(0))
		e.s.Emit(isa.CMP, b.at(0))
		if wide {
			e.s.Emit(isa.LDA, a.at(1))
			e.s.Emit(isa.SBC, b.at(1))
		}
		return
	}
	// N xor V is the sign of a-b
	if wide {
		e.s.Emit(isa.LDA, a.at(0))
		e.s.Emit(isa.CMP, b.at(0))
		e.s.Emit(isa.LDA, a.at(1))
		e.s.Emit(isa.SBC, b.at(1))
	} else {
		e.s.Emit(isa.LDA, a.at(0))
		e.op(isa.SEC)
		e.s.Emit(isa.SBC, b.at(0))
	}
	skip := e.label("lt")
	e.branch(isa.BVC, skip)
	e.imm(isa.EOR, 0x80)
	e.bind(skip)
}

func lessBranch(k types.Kind) isa.Mnemonic {
	if k.IsSigned() {
		return isa.BMI
	}
	return isa.BCC
}

func notLessBranch(k types.Kind) isa.Mnemonic {
	if k.IsSigned() {
		return isa.BPL
	}
	return isa.BCS
}

// compareEqual leaves Z set when a == b.
func (e *Emitter) compareEqual(a, b loc, wide bool) {
	e.s.Emit(isa.LDA, a.at(0))
	e.s.Emit(isa.CMP, b.at(0))
	if !wide {
		return
	}
	ne := e.label("ne")
	e.branch(isa.BNE, ne)
	e.s.Emit(isa.LDA, a.at(1))
	e.s.Emit(isa.CMP, b.at(1))
	e.bind(ne)
}

// stage evaluates both operands of d, converted to the operand type, into
// the zero-page slots a and b. The left value waits on the stack while the
// right one is computed, unless the right one is cheap enough to leave a
// alone.
func (e *Emitter) stage(d hir.BinaryData, res types.Resolution, a, b uint8) error {
	wide := res.Operand.Wide()
	if err := e.lowerConverted(d.Left, res.Left, false); err != nil {
		return err
	}
	if e.isLeaf(d.Right, res.Right) {
		e.storeZP(a, wide)
		if err := e.lowerConverted(d.Right, res.Right, false); err != nil {
			return err
		}
		e.storeZP(b, wide)
		return nil
	}
	e.push(wide)
	if err := e.lowerConverted(d.Right, res.Right, false); err != nil {
		return err
	}
	e.storeZP(b, wide)
	e.pop(wide)
	e.storeZP(a, wide)
	return nil
}

// isLeaf reports an operand whose evaluation uses no runtime routine and no
// operand slot.
func (e *Emitter) isLeaf(x *hir.Expr, conv types.Conversion) bool {
	if d, ok := x.Literal(); ok && d.Kind == hir.LiteralString {
		return conv.IsNone()
	}
	switch conv.Kind {
	case types.ConvNone, types.ConvZeroExtend, types.ConvSignExtend, types.ConvTruncate,
		types.ConvReinterpret, types.ConvIntToFixed, types.ConvFixedToInt, types.ConvToBool:
	default:
		return false
	}
	if _, ok := e.constValue(x); ok {
		return true
	}
	d, ok := x.Data.(hir.VarRefData)
	if !ok {
		return false
	}
	sym := e.prog.Symbol(d.Symbol)
	return sym != nil && !sym.Type.IsArray
}

func (e *Emitter) lowerBinary(x *hir.Expr, d hir.BinaryData) error {
	if d.Left == nil || d.Right == nil {
		return fmt.Errorf("%w: binary %s without operands", ErrMalformedNode, d.Op)
	}
	res, ok := e.resolver.Binary(d.Op, d.Left.Type, d.Right.Type, x.Span)
	if !ok {
		if err := e.lowerValue(d.Left); err != nil {
			return err
		}
		if err := e.lowerValue(d.Right); err != nil {
			return err
		}
		e.zero(res.Result)
		return nil
	}
	switch {
	case d.Op.IsLogical():
		return e.lowerLogical(d)
	case d.Op.IsShift():
		return e.lowerShift(d, res)
	case d.Op.IsComparison():
		return e.lowerCompare(d, res)
	}
	return e.lowerArith(d, res)
}

// lowerLogical computes and/or as a value, skipping the right operand when
// the left one decides.
func (e *Emitter) lowerLogical(d hir.BinaryData) error {
	done := e.label(d.Op.String())
	if err := e.LowerExpr(d.Left, types.Bool); err != nil {
		return err
	}
	e.setFlags()
	if d.Op == types.OpAnd {
		e.branch(isa.BEQ, done)
	} else {
		e.branch(isa.BNE, done)
	}
	if err := e.LowerExpr(d.Right, types.Bool); err != nil {
		return err
	}
	e.bind(done)
	return nil
}

func (e *Emitter) lowerArith(d hir.BinaryData, res types.Resolution) error {
	k := res.Operand.Kind
	switch k {
	case types.KindString:
		if d.Op != types.OpAdd {
			break
		}
		if err := e.stage(d, res, rtlib.StrP1, rtlib.StrP2); err != nil {
			return err
		}
		e.call(rtlib.StrConcat)
		return nil
	case types.KindFloat:
		ids := map[types.BinaryOp]rtlib.ID{
			types.OpAdd: rtlib.FltAdd,
			types.OpSub: rtlib.FltSub,
			types.OpMul: rtlib.FltMul,
			types.OpDiv: rtlib.FltDiv,
		}
		id, ok := ids[d.Op]
		if !ok {
			break
		}
		if err := e.stage(d, res, rtlib.FltA, rtlib.FltB); err != nil {
			return err
		}
		e.call(id)
		return nil
	case types.KindFixed:
		switch d.Op {
		case types.OpMul, types.OpDiv:
			if err := e.stage(d, res, rtlib.FixA, rtlib.FixB); err != nil {
				return err
			}
			if d.Op == types.OpMul {
				e.call(rtlib.FixMul)
			} else {
				e.call(rtlib.FixDiv)
			}
			return nil
		case types.OpAdd, types.OpSub, types.OpMod:
			return e.lowerIntArith(d, res)
		}
	default:
		if k.IsInteger() {
			return e.lowerIntArith(d, res)
		}
	}
	return fmt.Errorf("%w: %s on %s", ErrMalformedNode, d.Op, res.Operand)
}

// lowerIntArith handles integer operators and the fixed ones that work on
// the raw 16-bit pattern.
func (e *Emitter) lowerIntArith(d hir.BinaryData, res types.Resolution) error {
	k := res.Operand.Kind
	wide := k.Wide()
	signed := k.IsSigned()
	if err := e.stage(d, res, rtlib.IntA, rtlib.IntB); err != nil {
		return err
	}
	switch d.Op {
	case types.OpAdd:
		e.op(isa.CLC)
		e.bytewise(isa.ADC, wide)
	case types.OpSub:
		e.op(isa.SEC)
		e.bytewise(isa.SBC, wide)
	case types.OpBitAnd:
		e.bytewise(isa.AND, wide)
	case types.OpBitOr:
		e.bytewise(isa.ORA, wide)
	case types.OpBitXor:
		e.bytewise(isa.EOR, wide)
	case types.OpMul:
		if wide {
			e.call(rtlib.Mul16)
		} else {
			e.call(rtlib.Mul8)
		}
	case types.OpDiv, types.OpMod:
		switch {
		case wide && signed:
			e.call(rtlib.DivS16)
		case wide:
			e.call(rtlib.DivU16)
		case signed:
			e.call(rtlib.DivS8)
		default:
			e.call(rtlib.DivU8)
		}
		if d.Op == types.OpMod {
			e.loadZP(rtlib.IntRem, wide)
		}
	default:
		return fmt.Errorf("%w: %s on %s", ErrMalformedNode, d.Op, res.Operand)
	}
	return nil
}

// bytewise combines IntA and IntB with mn, carrying from low to high byte.
func (e *Emitter) bytewise(mn isa.Mnemonic, wide bool) {
	e.zp(isa.LDA, rtlib.IntA)
	e.zp(mn, rtlib.IntB)
	if !wide {
		return
	}
	e.op(isa.TAY)
	e.zp(isa.LDA, rtlib.IntA+1)
	e.zp(mn, rtlib.IntB+1)
	e.op(isa.TAX)
	e.op(isa.TYA)
}

func (e *Emitter) lowerCompare(d hir.BinaryData, res types.Resolution) error {
	k := res.Operand.Kind
	switch k {
	case types.KindString:
		if d.Op != types.OpEq && d.Op != types.OpNe {
			return fmt.Errorf("%w: %s on strings", ErrMalformedNode, d.Op)
		}
		if err := e.stage(d, res, rtlib.StrP1, rtlib.StrP2); err != nil {
			return err
		}
		e.call(rtlib.StrEq)
		if d.Op == types.OpNe {
			e.imm(isa.EOR, 1)
		}
		return nil
	case types.KindFloat:
		if err := e.stage(d, res, rtlib.FltA, rtlib.FltB); err != nil {
			return err
		}
		e.call(rtlib.FltCmp)
		// unordered compares as greater
		switch d.Op {
		case types.OpEq, types.OpNe:
			e.imm(isa.CMP, 0)
		case types.OpLt, types.OpGe:
			e.imm(isa.CMP, 0xFF)
		default:
			e.imm(isa.CMP, 1)
		}
		switch d.Op {
		case types.OpEq, types.OpLt, types.OpGt:
			e.materialize(isa.BEQ)
		default:
			e.materialize(isa.BNE)
		}
		return nil
	}

	if err := e.stage(d, res, rtlib.IntA, rtlib.IntB); err != nil {
		return err
	}
	a, b := zpLoc(rtlib.IntA), zpLoc(rtlib.IntB)
	switch d.Op {
	case types.OpEq:
		e.compareEqual(a, b, k.Wide())
		e.materialize(isa.BEQ)
	case types.OpNe:
		e.compareEqual(a, b, k.Wide())
		e.materialize(isa.BNE)
	case types.OpLt:
		e.compareLess(k, a, b)
		e.materialize(lessBranch(k))
	case types.OpGe:
		e.compareLess(k, a, b)
		e.materialize(notLessBranch(k))
	case types.OpGt:
		e.compareLess(k, b, a)
		e.materialize(lessBranch(k))
	case types.OpLe:
		e.compareLess(k, b, a)
		e.materialize(notLessBranch(k))
	}
	return nil
}

// lowerShift shifts the left operand by the low byte of the right one.
func (e *Emitter) lowerShift(d hir.BinaryData, res types.Resolution) error {
	k := res.Result.Kind
	wide := k.Wide()
	if err := e.LowerExpr(d.Left, res.Result); err != nil {
		return err
	}
	if c, ok := e.constValue(d.Right); ok {
		lit, _ := c.Literal()
		e.imm(isa.LDY, uint8(lit.Int))
	} else {
		e.push(wide)
		if err := e.LowerExpr(d.Right, d.Right.Type); err != nil {
			return err
		}
		e.op(isa.TAY)
		e.pop(wide)
	}
	if wide {
		e.storeZP(rtlib.Scratch, true)
	}

	loop := e.label("shift")
	done := e.label("shift_end")
	e.s.Emit(isa.CPY, asm.Imm(0))
	e.branch(isa.BEQ, done)
	e.bind(loop)
	switch {
	case d.Op == types.OpShl && wide:
		e.zp(isa.ASL, rtlib.Scratch)
		e.zp(isa.ROL, rtlib.Scratch+1)
	case d.Op == types.OpShl:
		e.op(isa.ASL)
	case wide && k.IsSigned():
		e.zp(isa.LDA, rtlib.Scratch+1)
		e.imm(isa.CMP, 0x80)
		e.zp(isa.ROR, rtlib.Scratch+1)
		e.zp(isa.ROR, rtlib.Scratch)
	case wide:
		e.zp(isa.LSR, rtlib.Scratch+1)
		e.zp(isa.ROR, rtlib.Scratch)
	case k.IsSigned():
		e.imm(isa.CMP, 0x80)
		e.op(isa.ROR)
	default:
		e.op(isa.LSR)
	}
	e.op(isa.DEY)
	e.branch(isa.BNE, loop)
	e.bind(done)
	if wide {
		e.loadZP(rtlib.Scratch, true)
	}
	return nil
}
