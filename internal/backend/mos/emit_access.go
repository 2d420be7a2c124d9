package mos

import (
	"fmt"

	"halfbyte/internal/asm"
	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/isa"
	"halfbyte/internal/rtlib"
	"halfbyte/internal/source"
	"halfbyte/internal/types"
)

// element describes one array access: where the array lives and how the
// index gets to the element.
type element struct {
	sym   *hir.Symbol
	base  asm.AddressRef
	elem  types.Type
	index *hir.Expr
	// const index
	fixed bool
	off   uint16
	// 8-bit index into at most one page of 8-bit elements
	short bool
}

func (e *Emitter) resolveElement(d hir.IndexData, span source.Span) (*element, error) {
	sym := e.prog.Symbol(d.Array)
	if sym == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSymbol, d.Array)
	}
	if !sym.Type.IsArray {
		diag.ReportError(e.reporter, diag.SemaTypeMismatch, span,
			fmt.Sprintf("%q is not an array", sym.Name)).Emit()
		return nil, nil
	}
	if d.Index == nil || !d.Index.Type.Kind.IsInteger() || d.Index.Type.IsArray {
		diag.ReportError(e.reporter, diag.SemaTypeMismatch, span,
			fmt.Sprintf("index of %q must be an integer", sym.Name)).Emit()
		return nil, nil
	}
	base, err := e.symbolRef(d.Array)
	if err != nil {
		return nil, err
	}
	el := &element{sym: sym, base: base, elem: sym.Type.Elem(), index: d.Index}
	size := el.elem.Size()
	if c, ok := e.constValue(d.Index); ok {
		lit, _ := c.Literal()
		if lit.Int < 0 || lit.Int >= int64(sym.Type.Len) {
			diag.ReportError(e.reporter, diag.SemaLiteralOutOfRange, d.Index.Span,
				fmt.Sprintf("index %d is out of range for %s", lit.Int, sym.Type)).Emit()
			return nil, nil
		}
		el.fixed = true
		el.off = uint16(lit.Int) * uint16(size)
		return el, nil
	}
	el.short = size == 1 && !d.Index.Type.Wide() && sym.Type.Size() <= 0x100
	return el, nil
}

// pointTo leaves the address of the element in Ptr.
func (e *Emitter) pointTo(el *element) error {
	if err := e.lowerValue(el.index); err != nil {
		return err
	}
	e.extend(el.index.Type.Kind)
	e.storeZP(rtlib.Ptr, true)
	if el.elem.Wide() {
		e.zp(isa.ASL, rtlib.Ptr)
		e.zp(isa.ROL, rtlib.Ptr+1)
	}
	e.op(isa.CLC)
	e.zp(isa.LDA, rtlib.Ptr)
	e.s.Emit(isa.ADC, asm.ImmLow(el.base))
	e.zp(isa.STA, rtlib.Ptr)
	e.zp(isa.LDA, rtlib.Ptr+1)
	e.s.Emit(isa.ADC, asm.ImmHigh(el.base))
	e.zp(isa.STA, rtlib.Ptr+1)
	return nil
}

func (e *Emitter) lowerIndex(x *hir.Expr, d hir.IndexData) error {
	el, err := e.resolveElement(d, x.Span)
	if err != nil {
		return err
	}
	if el == nil {
		e.zero(x.Type)
		return nil
	}
	wide := el.elem.Wide()
	switch {
	case el.fixed:
		e.load(el.base.Plus(el.off), wide)
	case el.short:
		if err := e.lowerValue(el.index); err != nil {
			return err
		}
		e.op(isa.TAY)
		e.s.Emit(isa.LDA, asm.AbsY(el.base))
	default:
		if err := e.pointTo(el); err != nil {
			return err
		}
		if wide {
			e.imm(isa.LDY, 1)
			e.s.Emit(isa.LDA, asm.IndY(rtlib.Ptr))
			e.op(isa.TAX)
			e.op(isa.DEY)
		} else {
			e.imm(isa.LDY, 0)
		}
		e.s.Emit(isa.LDA, asm.IndY(rtlib.Ptr))
	}
	return nil
}

// storeElement writes the value in A or A/X to the element. The index is
// evaluated after the value, so the value waits on the stack.
func (e *Emitter) storeElement(el *element) error {
	wide := el.elem.Wide()
	switch {
	case el.fixed:
		e.store(el.base.Plus(el.off), wide)
	case el.short:
		e.op(isa.PHA)
		if err := e.lowerValue(el.index); err != nil {
			return err
		}
		e.op(isa.TAY)
		e.op(isa.PLA)
		e.s.Emit(isa.STA, asm.AbsY(el.base))
	default:
		e.push(wide)
		if err := e.pointTo(el); err != nil {
			return err
		}
		e.pop(wide)
		e.imm(isa.LDY, 0)
		e.s.Emit(isa.STA, asm.IndY(rtlib.Ptr))
		if wide {
			e.op(isa.INY)
			e.op(isa.TXA)
			e.s.Emit(isa.STA, asm.IndY(rtlib.Ptr))
		}
	}
	return nil
}

func (e *Emitter) lowerLet(d hir.LetData, span source.Span) error {
	sym := e.prog.Symbol(d.Symbol)
	if sym == nil {
		return fmt.Errorf("%w: %d", ErrUnknownSymbol, d.Symbol)
	}
	ref, err := e.symbolRef(d.Symbol)
	if err != nil {
		return err
	}
	if sym.Type.IsArray {
		if d.Value != nil {
			diag.ReportError(e.reporter, diag.SemaTypeMismatch, span,
				fmt.Sprintf("array %q cannot have an initialiser", sym.Name)).Emit()
			return nil
		}
		e.clearRegion(ref.Addr, sym.Type.Size())
		return nil
	}
	if d.Value == nil {
		e.zero(sym.Type)
	} else if err := e.LowerExpr(d.Value, sym.Type); err != nil {
		return err
	}
	e.store(ref, sym.Type.Wide())
	return nil
}

func (e *Emitter) lowerAssign(d hir.AssignData, span source.Span) error {
	if d.Target == nil || d.Value == nil {
		return fmt.Errorf("%w: assignment without operands", ErrMalformedNode)
	}
	value := d.Value
	if d.Compound {
		res, _ := types.Resolve(d.Op, d.Target.Type, d.Value.Type)
		value = &hir.Expr{
			Kind: hir.ExprBinary,
			Type: res.Result,
			Span: span,
			Data: hir.BinaryData{Op: d.Op, Left: d.Target, Right: d.Value},
		}
	}

	switch t := d.Target.Data.(type) {
	case hir.VarRefData:
		sym := e.prog.Symbol(t.Symbol)
		if sym == nil {
			return fmt.Errorf("%w: %d", ErrUnknownSymbol, t.Symbol)
		}
		if sym.Class == hir.SymConst {
			diag.ReportError(e.reporter, diag.SemaTypeMismatch, span,
				fmt.Sprintf("cannot assign to constant %q", sym.Name)).Emit()
			return nil
		}
		if sym.Type.IsArray {
			diag.ReportError(e.reporter, diag.SemaTypeMismatch, span,
				fmt.Sprintf("cannot assign to array %q as a whole", sym.Name)).Emit()
			return nil
		}
		ref, err := e.symbolRef(t.Symbol)
		if err != nil {
			return err
		}
		if err := e.LowerExpr(value, sym.Type); err != nil {
			return err
		}
		e.store(ref, sym.Type.Wide())
		return nil
	case hir.IndexData:
		el, err := e.resolveElement(t, d.Target.Span)
		if err != nil || el == nil {
			return err
		}
		if el.sym.Class == hir.SymConst {
			diag.ReportError(e.reporter, diag.SemaTypeMismatch, span,
				fmt.Sprintf("cannot assign to constant %q", el.sym.Name)).Emit()
			return nil
		}
		if err := e.LowerExpr(value, el.elem); err != nil {
			return err
		}
		return e.storeElement(el)
	}
	diag.ReportError(e.reporter, diag.SemaTypeMismatch, span, "assignment target is not a variable or array element").Emit()
	return nil
}
