package mos

import (
	"fmt"

	"halfbyte/internal/asm"
	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/isa"
	"halfbyte/internal/rtlib"
	"halfbyte/internal/types"
)

// lowerCall stores the arguments into the callee's parameter slots and
// calls it. With more than one argument every value is computed before any
// slot is written, so an argument may itself call the same function.
func (e *Emitter) lowerCall(x *hir.Expr, d hir.CallData) error {
	f := e.prog.Func(d.Func)
	if f == nil {
		return fmt.Errorf("%w: %d", ErrUnknownFunction, d.Func)
	}
	label, ok := e.funcs[f.ID]
	if !ok {
		return fmt.Errorf("%w: %q has no label", ErrUnknownFunction, f.Name)
	}
	if len(d.Args) != len(f.Params) {
		diag.ReportError(e.reporter, diag.SemaArityMismatch, x.Span,
			fmt.Sprintf("%s takes %d arguments, got %d", f.Name, len(f.Params), len(d.Args))).Emit()
		e.zero(x.Type)
		return nil
	}

	params := make([]asm.AddressRef, len(f.Params))
	ptypes := make([]types.Type, len(f.Params))
	for i, id := range f.Params {
		ref, err := e.symbolRef(id)
		if err != nil {
			return err
		}
		params[i] = ref
		ptypes[i] = e.prog.Symbol(id).Type
	}

	switch len(d.Args) {
	case 0:
	case 1:
		if err := e.LowerExpr(d.Args[0], ptypes[0]); err != nil {
			return err
		}
		e.store(params[0], ptypes[0].Wide())
	default:
		for i, arg := range d.Args {
			if err := e.LowerExpr(arg, ptypes[i]); err != nil {
				return err
			}
			e.push(ptypes[i].Wide())
		}
		for i := len(d.Args) - 1; i >= 0; i-- {
			e.pop(ptypes[i].Wide())
			e.store(params[i], ptypes[i].Wide())
		}
	}
	e.s.Call(label)
	return nil
}

func (e *Emitter) lowerBuiltin(x *hir.Expr, d hir.BuiltinData) error {
	if !d.Builtin.Accepts(len(d.Args)) {
		diag.ReportError(e.reporter, diag.SemaArityMismatch, x.Span,
			fmt.Sprintf("%s takes %s arguments, got %d", d.Builtin, arityText(d.Builtin), len(d.Args))).Emit()
		e.zero(x.Type)
		return nil
	}
	params := d.Builtin.Params(len(d.Args))
	switch d.Builtin {
	case hir.BuiltinPrint, hir.BuiltinPrintln:
		for _, arg := range d.Args {
			if err := e.lowerString(arg); err != nil {
				return err
			}
			e.call(rtlib.PrintStr)
		}
		if d.Builtin == hir.BuiltinPrintln {
			e.call(rtlib.PrintNl)
		}
	case hir.BuiltinLen:
		if err := e.LowerExpr(d.Args[0], types.String); err != nil {
			return err
		}
		e.storeZP(rtlib.StrP1, true)
		e.call(rtlib.StrLen)
	case hir.BuiltinRand:
		// low four bits are the fraction of a 12.4 value
		e.call(rtlib.RandNext)
		e.imm(isa.AND, 0x0F)
		e.imm(isa.LDX, 0)
	case hir.BuiltinRandByte, hir.BuiltinRandWord, hir.BuiltinRandSByte, hir.BuiltinRandSWord:
		if len(d.Args) == 0 {
			e.call(rtlib.RandNext)
			return nil
		}
		return e.lowerRandRange(d.Args, params[0])
	case hir.BuiltinSeed:
		if err := e.LowerExpr(d.Args[0], types.U16); err != nil {
			return err
		}
		e.call(rtlib.RandSeed)
	case hir.BuiltinPeek:
		return e.lowerPeek(d.Args[0])
	case hir.BuiltinPoke:
		return e.lowerPoke(d.Args[0], d.Args[1])
	case hir.BuiltinStrAt:
		if err := e.LowerExpr(d.Args[1], params[1]); err != nil {
			return err
		}
		e.op(isa.PHA)
		if err := e.LowerExpr(d.Args[0], params[0]); err != nil {
			return err
		}
		e.storeZP(rtlib.StrP1, true)
		e.op(isa.PLA)
		e.call(rtlib.StrAt)
	case hir.BuiltinCls:
		e.imm(isa.LDA, petsciiClear)
		e.s.Emit(isa.JSR, asm.Abs(asm.Fixed(e.target.Chrout)))
	case hir.BuiltinCursor:
		if err := e.LowerExpr(d.Args[1], params[1]); err != nil {
			return err
		}
		e.op(isa.PHA)
		if err := e.LowerExpr(d.Args[0], params[0]); err != nil {
			return err
		}
		e.op(isa.TAY)
		e.op(isa.PLA)
		e.op(isa.TAX)
		e.op(isa.CLC)
		e.s.Emit(isa.JSR, asm.Abs(asm.Fixed(e.target.Plot)))
	default:
		return fmt.Errorf("%w: builtin %s", ErrMalformedNode, d.Builtin)
	}
	return nil
}

// petsciiClear clears the screen and homes the cursor when printed.
const petsciiClear = 0x93

func arityText(b hir.Builtin) string {
	n, m, variadic := b.Arity()
	switch {
	case variadic:
		return "any number of"
	case n != m:
		return fmt.Sprintf("%d or %d", n, m)
	}
	return fmt.Sprint(n)
}

// lowerRandRange widens both bounds to words in their own signedness and
// lets rand_range reduce the next state into [from, to].
func (e *Emitter) lowerRandRange(args []*hir.Expr, t types.Type) error {
	if err := e.LowerExpr(args[0], t); err != nil {
		return err
	}
	e.extend(t.Kind)
	e.push(true)
	if err := e.LowerExpr(args[1], t); err != nil {
		return err
	}
	e.extend(t.Kind)
	e.storeZP(rtlib.IntB, true)
	e.pop(true)
	e.storeZP(rtlib.IntA, true)
	e.call(rtlib.RandRange)
	return nil
}

// constAddr returns the value of a compile-time address.
func (e *Emitter) constAddr(x *hir.Expr) (uint16, bool) {
	c, ok := e.constValue(x)
	if !ok {
		return 0, false
	}
	d, _ := c.Literal()
	if d.Kind != hir.LiteralInt || d.Int < 0 || d.Int > 0xFFFF {
		return 0, false
	}
	return uint16(d.Int), true
}

func (e *Emitter) lowerPeek(addr *hir.Expr) error {
	if a, ok := e.constAddr(addr); ok {
		e.mem(isa.LDA, asm.Fixed(a))
		return nil
	}
	if err := e.LowerExpr(addr, types.U16); err != nil {
		return err
	}
	e.storeZP(rtlib.Ptr, true)
	e.imm(isa.LDY, 0)
	e.s.Emit(isa.LDA, asm.IndY(rtlib.Ptr))
	return nil
}

func (e *Emitter) lowerPoke(addr, value *hir.Expr) error {
	if err := e.LowerExpr(value, types.U8); err != nil {
		return err
	}
	if a, ok := e.constAddr(addr); ok {
		e.mem(isa.STA, asm.Fixed(a))
		return nil
	}
	e.op(isa.PHA)
	if err := e.LowerExpr(addr, types.U16); err != nil {
		return err
	}
	e.storeZP(rtlib.Ptr, true)
	e.op(isa.PLA)
	e.imm(isa.LDY, 0)
	e.s.Emit(isa.STA, asm.IndY(rtlib.Ptr))
	return nil
}
