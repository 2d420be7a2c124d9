// Package mos lowers a checked HIR program to 6502 machine code.
//
// The Emitter walks the program once. Every value it computes ends up in A
// (8-bit kinds and bool) or in A and X (low and high byte of 16-bit kinds).
// Operands that outlive the evaluation of a sibling go to the hardware stack;
// operands handed to runtime routines go to the zero-page slots of rtlib.
package mos

import (
	"context"
	"errors"
	"fmt"

	"halfbyte/internal/asm"
	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/isa"
	"halfbyte/internal/layout"
	"halfbyte/internal/rtlib"
	"halfbyte/internal/trace"
	"halfbyte/internal/types"
)

var (
	// ErrUnauthorizedConversion reports an explicit-only conversion reached
	// outside of a cast.
	ErrUnauthorizedConversion = errors.New("mos: conversion not authorized by the type rules")
	// ErrControlFlowState reports a control construct driven out of order.
	ErrControlFlowState = errors.New("mos: control-flow construct out of order")
	// ErrUnknownSymbol reports a reference to a symbol with no storage.
	ErrUnknownSymbol = errors.New("mos: unknown symbol")
	// ErrUnknownFunction reports a call to a function the program lacks.
	ErrUnknownFunction = errors.New("mos: unknown function")
	// ErrMalformedNode reports an HIR node whose payload does not match its kind.
	ErrMalformedNode = errors.New("mos: malformed HIR node")
)

// CodeGenerator is the lowering contract. Expressions leave their value in
// A or A/X; statements leave nothing behind; declarations reserve storage
// and emit the code that initialises it.
type CodeGenerator interface {
	// Expressions.
	LowerExpr(e *hir.Expr, want types.Type) error
	LowerCast(e *hir.Expr) error
	BranchFalse(cond *hir.Expr, target asm.LabelID) error
	BranchTrue(cond *hir.Expr, target asm.LabelID) error

	// Control flow.
	LowerStmt(s *hir.Stmt) error
	LowerBlock(b *hir.Block) error
	LowerIf(d hir.IfData) error
	LowerWhile(d hir.WhileData) error
	LowerFor(d hir.ForData) error

	// Declarations.
	AllocateStorage() error
	LowerGlobals() error
	LowerFunc(f *hir.Func) error
}

var _ CodeGenerator = (*Emitter)(nil)

// Options configures one compilation.
type Options struct {
	Target         layout.Target
	MaxDiagnostics int
}

// Result is the outcome of Compile. Image is nil when any error was reported.
type Result struct {
	Image       *asm.Image
	Diagnostics *diag.Bag
	Routines    []rtlib.ID
	Slots       []layout.Slot
	Unlinked    int // stream length before trampolines
}

// Emitter carries all state of one compilation. Nothing is global: two
// Emitters never share labels, fixups or allocations.
type Emitter struct {
	prog     *hir.Program
	target   layout.Target
	s        *asm.Stream
	lib      *rtlib.Library
	alloc    *layout.Allocator
	pool     *layout.Pool
	reporter diag.Reporter
	resolver *types.Resolver
	tracer   trace.Tracer
	span     *trace.Span

	funcs     map[hir.FuncID]asm.LabelID
	data      map[hir.DataID]asm.LabelID
	consts    map[hir.SymbolID]*hir.Expr
	cur       *hir.Func
	loops     []*construct
	labelSeq  int
	globalLen int
}

// NewEmitter prepares an Emitter that reports into bag.
func NewEmitter(prog *hir.Program, target layout.Target, bag *diag.Bag) *Emitter {
	s := asm.NewStream()
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	return &Emitter{
		prog:     prog,
		target:   target,
		s:        s,
		lib:      rtlib.New(s, target),
		alloc:    layout.NewAllocator(target),
		pool:     layout.NewPool(s),
		reporter: reporter,
		resolver: types.NewResolver(reporter),
		tracer:   trace.Nop,
		funcs:    make(map[hir.FuncID]asm.LabelID, len(prog.Funcs)),
		data:     make(map[hir.DataID]asm.LabelID, len(prog.Data)),
		consts:   make(map[hir.SymbolID]*hir.Expr),
	}
}

// Compile lowers prog for opts.Target and links the image. Internal
// invariant violations are returned as errors and also recorded as a
// diagnostic; user errors only go to the diagnostics.
func Compile(ctx context.Context, prog *hir.Program, opts Options) (*Result, error) {
	bag := diag.NewBag(opts.MaxDiagnostics)
	res := &Result{Diagnostics: bag}
	if prog == nil {
		return res, fmt.Errorf("%w: nil program", ErrMalformedNode)
	}
	if err := opts.Target.Validate(); err != nil {
		diag.ReportError(diag.BagReporter{Bag: bag}, diag.ProjInvalidTarget, noSpan(), err.Error()).Emit()
		return res, nil
	}
	e := NewEmitter(prog, opts.Target, bag)
	e.tracer = trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID
	e.span = trace.Begin(e.tracer, trace.ScopeProgram, "mos:"+prog.Name, parent)

	img, err := e.run()
	res.Routines = e.lib.Required()
	res.Slots = e.alloc.Slots()
	res.Unlinked = e.s.Len()
	if err != nil {
		diag.ReportError(diag.BagReporter{Bag: bag}, internalCode(err), noSpan(), err.Error()).Emit()
		e.span.End("failed")
		return res, err
	}
	if bag.HasErrors() {
		e.span.End("errors")
		return res, nil
	}
	res.Image = img
	e.span.End(fmt.Sprintf("%d bytes", len(img.Bytes)))
	return res, nil
}

func (e *Emitter) run() (*asm.Image, error) {
	if err := e.phase("allocate", e.AllocateStorage); err != nil {
		return nil, err
	}
	entry := e.prog.EntryFunc()
	if entry == nil {
		diag.ReportError(e.reporter, diag.SemaMissingEntry, noSpan(), "program has no entry function").Emit()
	}
	e.checkRecursion()
	e.declareData()

	stub, _ := e.target.Stub()
	e.s.Data(stub...)
	e.s.Here(startLabel)
	err := e.phase("lower", func() error {
		if err := e.LowerGlobals(); err != nil {
			return err
		}
		if e.prog.UsesBuiltin(hir.BuiltinRand, hir.BuiltinRandByte, hir.BuiltinRandWord,
			hir.BuiltinRandSByte, hir.BuiltinRandSWord) {
			e.call(rtlib.RandInit)
		}
		if entry != nil {
			e.s.Call(e.funcs[entry.ID])
		}
		e.op(isa.RTS)
		for _, f := range e.prog.Funcs {
			if err := e.LowerFunc(f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.phase("runtime", func() error {
		e.lib.Emit()
		e.pool.Emit()
		e.emitData()
		return e.s.Err()
	}); err != nil {
		return nil, err
	}

	var img *asm.Image
	err = e.phase("link", func() error {
		var err error
		img, err = e.s.Link(e.target.LoadAddress)
		return err
	})
	if err != nil {
		return nil, err
	}
	if addr, ok := img.Lookup(startLabel); ok {
		img.Entry = addr
	}
	return img, nil
}

func (e *Emitter) phase(name string, fn func() error) error {
	var parent uint64
	if e.span != nil {
		parent = e.span.ID()
	}
	sp := trace.Begin(e.tracer, trace.ScopePass, name, parent)
	err := fn()
	if err != nil {
		sp.End(err.Error())
		return err
	}
	sp.End("")
	return nil
}

// internalCode maps a fatal error to the diagnostic that reports it.
func internalCode(err error) diag.Code {
	switch {
	case errors.Is(err, asm.ErrUnresolvedLabel):
		return diag.BackendUnresolvedLabel
	case errors.Is(err, asm.ErrImageTooLarge):
		return diag.BackendImageTooLarge
	case errors.Is(err, layout.ErrOutOfVariableSpace):
		return diag.BackendOutOfVariableSpace
	case errors.Is(err, layout.ErrAllocationCollision):
		return diag.BackendAllocationCollision
	case errors.Is(err, ErrUnauthorizedConversion):
		return diag.BackendUnauthorizedConversion
	case errors.Is(err, ErrUnknownSymbol), errors.Is(err, ErrUnknownFunction):
		return diag.BackendUnknownSymbol
	}
	return diag.BackendInternal
}
