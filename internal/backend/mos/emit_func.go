package mos

import (
	"fmt"

	"halfbyte/internal/asm"
	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/isa"
	"halfbyte/internal/trace"
)

// AllocateStorage places globals and constants in declaration order, then
// the static frame of every function: params in call order, then locals.
func (e *Emitter) AllocateStorage() error {
	for _, g := range e.prog.Globals {
		if _, err := e.alloc.AllocateSymbol(e.prog, g.Symbol); err != nil {
			return err
		}
		if sym := e.prog.Symbol(g.Symbol); sym.Class == hir.SymConst && g.Value.IsLiteral() && !sym.Type.IsArray {
			e.consts[g.Symbol] = g.Value
		}
	}
	e.globalLen = e.alloc.Used()
	for _, f := range e.prog.Funcs {
		e.funcs[f.ID] = e.s.NewLabel(f.Name)
		for _, id := range f.Params {
			if _, err := e.alloc.AllocateSymbol(e.prog, id); err != nil {
				return err
			}
		}
		for _, id := range f.Locals {
			if _, err := e.alloc.AllocateSymbol(e.prog, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// LowerGlobals emits the start-up sequence: clear the globals, run their
// initialisers in declaration order and seed the PRNG when the program draws
// random numbers.
func (e *Emitter) LowerGlobals() error {
	e.clearRegion(e.target.VarBase, e.globalLen)
	for _, g := range e.prog.Globals {
		if g.Value == nil {
			continue
		}
		sym := e.prog.Symbol(g.Symbol)
		if sym.Type.IsArray {
			diag.ReportError(e.reporter, diag.SemaTypeMismatch, g.Span,
				fmt.Sprintf("array %q cannot have an initialiser", sym.Name)).Emit()
			continue
		}
		if err := e.LowerExpr(g.Value, sym.Type); err != nil {
			return err
		}
		ref, err := e.symbolRef(g.Symbol)
		if err != nil {
			return err
		}
		e.store(ref, sym.Type.Wide())
	}
	return nil
}

// clearRegion zeroes n bytes from base, one page per loop.
func (e *Emitter) clearRegion(base uint16, n int) {
	if n <= 0 {
		return
	}
	e.imm(isa.LDA, 0)
	for off := 0; off < n; off += 0x100 {
		chunk := min(n-off, 0x100)
		e.imm(isa.LDX, uint8(chunk))
		loop := e.label("clear")
		e.bind(loop)
		e.op(isa.DEX)
		e.s.Emit(isa.STA, asm.AbsX(asm.Fixed(base+uint16(off))))
		e.branch(isa.BNE, loop)
	}
}

// LowerFunc emits the body of f at its label. A body that can fall off its
// end gets a closing RTS.
func (e *Emitter) LowerFunc(f *hir.Func) error {
	var parent uint64
	if e.span != nil {
		parent = e.span.ID()
	}
	sp := trace.Begin(e.tracer, trace.ScopeFunc, "func:"+f.Name, parent)
	defer sp.End("")

	label, ok := e.funcs[f.ID]
	if !ok {
		return fmt.Errorf("%w: %q has no label", ErrUnknownFunction, f.Name)
	}
	e.cur = f
	e.loops = e.loops[:0]
	defer func() { e.cur = nil }()

	e.bind(label)
	if err := e.LowerBlock(f.Body); err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	if f.Body.IsEmpty() || f.Body.Stmts[len(f.Body.Stmts)-1].Kind != hir.StmtReturn {
		e.op(isa.RTS)
	}
	return nil
}

// checkRecursion warns about every function that can reach itself. Frames
// are static, so a recursive call overwrites the caller's params and locals.
func (e *Emitter) checkRecursion() {
	calls := make(map[hir.FuncID][]hir.FuncID, len(e.prog.Funcs))
	for _, f := range e.prog.Funcs {
		hir.InspectBlock(f.Body, func(x *hir.Expr) bool {
			if d, ok := x.Data.(hir.CallData); ok {
				calls[f.ID] = append(calls[f.ID], d.Func)
			}
			return true
		})
	}
	for _, f := range e.prog.Funcs {
		seen := make(map[hir.FuncID]bool)
		stack := append([]hir.FuncID(nil), calls[f.ID]...)
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if id == f.ID {
				diag.ReportWarning(e.reporter, diag.SemaRecursiveCall, f.Span,
					fmt.Sprintf("function %q is recursive; every call shares one static frame", f.Name)).Emit()
				break
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			stack = append(stack, calls[id]...)
		}
	}
}
