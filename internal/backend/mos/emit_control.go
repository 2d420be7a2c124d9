package mos

import (
	"fmt"

	"halfbyte/internal/asm"
	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/isa"
	"halfbyte/internal/source"
	"halfbyte/internal/types"
)

// phase is the progress of one control construct.
type phase uint8

const (
	phaseEntered phase = iota
	phaseCondition
	phaseBody
	phaseResolved
)

func (p phase) String() string {
	switch p {
	case phaseEntered:
		return "entered"
	case phaseCondition:
		return "condition-emitted"
	case phaseBody:
		return "body-emitted"
	case phaseResolved:
		return "resolved"
	}
	return fmt.Sprintf("phase(%d)", p)
}

type constructKind uint8

const (
	constructIf constructKind = iota
	constructWhile
	constructFor
)

func (k constructKind) String() string {
	switch k {
	case constructIf:
		return "if"
	case constructWhile:
		return "while"
	case constructFor:
		return "for"
	}
	return fmt.Sprintf("construct(%d)", k)
}

// construct tracks an if chain or a loop while it is being emitted. Loops
// own cont and exit; an if chain threads next from arm to arm and jumps to
// exit after every arm that is followed by another.
type construct struct {
	kind  constructKind
	phase phase
	cont  asm.LabelID
	exit  asm.LabelID
	next  asm.LabelID
}

func (c *construct) advance(to phase) error {
	ok := to == c.phase+1
	if c.kind == constructIf && c.phase == phaseBody && to == phaseCondition {
		ok = true
	}
	if !ok {
		return fmt.Errorf("%w: %s cannot go from %s to %s", ErrControlFlowState, c.kind, c.phase, to)
	}
	c.phase = to
	return nil
}

// LowerBlock lowers the statements of b in order.
func (e *Emitter) LowerBlock(b *hir.Block) error {
	if b == nil {
		return nil
	}
	for i := range b.Stmts {
		if err := e.LowerStmt(&b.Stmts[i]); err != nil {
			return err
		}
	}
	return nil
}

// LowerStmt lowers one statement.
func (e *Emitter) LowerStmt(s *hir.Stmt) error {
	switch d := s.Data.(type) {
	case hir.LetData:
		return e.lowerLet(d, s.Span)
	case hir.AssignData:
		return e.lowerAssign(d, s.Span)
	case hir.ExprStmtData:
		return e.LowerExpr(d.Expr, types.Invalid)
	case hir.ReturnData:
		return e.lowerReturn(d, s.Span)
	case hir.BreakData:
		return e.lowerJumpOut(s.Span, false)
	case hir.ContinueData:
		return e.lowerJumpOut(s.Span, true)
	case hir.IfData:
		return e.LowerIf(d)
	case hir.WhileData:
		return e.LowerWhile(d)
	case hir.ForData:
		return e.LowerFor(d)
	}
	return fmt.Errorf("%w: statement %s", ErrMalformedNode, s.Kind)
}

func (e *Emitter) lowerReturn(d hir.ReturnData, span source.Span) error {
	if e.cur == nil {
		return fmt.Errorf("%w: return outside of a function", ErrControlFlowState)
	}
	if d.Value != nil {
		want := e.cur.Result
		if !e.cur.HasResult() {
			diag.ReportError(e.reporter, diag.SemaTypeMismatch, span,
				fmt.Sprintf("function %q returns no value", e.cur.Name)).Emit()
			want = types.Invalid
		}
		if err := e.LowerExpr(d.Value, want); err != nil {
			return err
		}
	}
	e.op(isa.RTS)
	return nil
}

func (e *Emitter) lowerJumpOut(span source.Span, cont bool) error {
	word := "break"
	if cont {
		word = "continue"
	}
	if len(e.loops) == 0 {
		diag.ReportError(e.reporter, diag.BackendMisplacedJump, span, word+" outside of a loop").Emit()
		return nil
	}
	loop := e.loops[len(e.loops)-1]
	if cont {
		e.jump(loop.cont)
	} else {
		e.jump(loop.exit)
	}
	return nil
}

// LowerIf lowers if/elif/else. Each arm tests its condition and falls to the
// next arm's label when it does not hold.
func (e *Emitter) LowerIf(d hir.IfData) error {
	c := &construct{kind: constructIf, exit: e.label("if_end")}
	for i, arm := range d.Branches {
		last := i == len(d.Branches)-1
		c.next = c.exit
		if !last || d.Else != nil {
			c.next = e.label("if_next")
		}
		if err := e.BranchFalse(arm.Cond, c.next); err != nil {
			return err
		}
		if err := c.advance(phaseCondition); err != nil {
			return err
		}
		if err := e.LowerBlock(arm.Body); err != nil {
			return err
		}
		if err := c.advance(phaseBody); err != nil {
			return err
		}
		if c.next != c.exit {
			e.jump(c.exit)
			e.bind(c.next)
		}
	}
	if err := e.LowerBlock(d.Else); err != nil {
		return err
	}
	e.bind(c.exit)
	return c.advance(phaseResolved)
}

// LowerWhile lowers a pre-tested loop; continue re-tests the condition.
func (e *Emitter) LowerWhile(d hir.WhileData) error {
	top := e.label("while_top")
	c := &construct{kind: constructWhile, cont: top, exit: e.label("while_end")}
	e.bind(top)
	if err := e.BranchFalse(d.Cond, c.exit); err != nil {
		return err
	}
	if err := c.advance(phaseCondition); err != nil {
		return err
	}
	e.loops = append(e.loops, c)
	err := e.LowerBlock(d.Body)
	e.loops = e.loops[:len(e.loops)-1]
	if err != nil {
		return err
	}
	if err := c.advance(phaseBody); err != nil {
		return err
	}
	e.jump(top)
	e.bind(c.exit)
	return c.advance(phaseResolved)
}

// LowerFor lowers an inclusive counting loop:
//
//	v = from; bound = to
//	if v past bound: goto exit
//	top:  body
//	cont: if v == bound: goto exit
//	      step v; goto top
//	exit:
//
// The bound is tested before the step, so a loop that ends at the largest
// value of its type still terminates. A fixed counter may not land on its
// bound, so it leaves once less than 1.0 remains.
func (e *Emitter) LowerFor(d hir.ForData) error {
	sym := e.prog.Symbol(d.Var)
	if sym == nil {
		return fmt.Errorf("%w: loop variable %d", ErrUnknownSymbol, d.Var)
	}
	t := sym.Type
	if t.IsArray || !(t.Kind.IsInteger() || t.Kind == types.KindFixed) {
		diag.ReportError(e.reporter, diag.SemaTypeMismatch, sym.Span,
			fmt.Sprintf("loop variable %q must be an integer or fixed, not %s", sym.Name, t)).Emit()
		return nil
	}
	v, err := e.symbolRef(d.Var)
	if err != nil {
		return err
	}
	bound, err := e.alloc.AllocateHidden(sym.Name+".bound", t.Size())
	if err != nil {
		return err
	}
	wide := t.Wide()

	c := &construct{kind: constructFor, cont: e.label("for_next"), exit: e.label("for_end")}
	if err := e.LowerExpr(d.From, t); err != nil {
		return err
	}
	e.store(v, wide)
	if err := e.LowerExpr(d.To, t); err != nil {
		return err
	}
	e.store(bound, wide)

	// entry test: v > bound counting up, v < bound counting down
	if d.Down {
		e.compareLess(t.Kind, absLoc(v), absLoc(bound))
	} else {
		e.compareLess(t.Kind, absLoc(bound), absLoc(v))
	}
	e.branch(lessBranch(t.Kind), c.exit)
	if err := c.advance(phaseCondition); err != nil {
		return err
	}

	top := e.label("for_top")
	e.bind(top)
	e.loops = append(e.loops, c)
	err = e.LowerBlock(d.Body)
	e.loops = e.loops[:len(e.loops)-1]
	if err != nil {
		return err
	}
	if err := c.advance(phaseBody); err != nil {
		return err
	}

	e.bind(c.cont)
	if t.Kind == types.KindFixed {
		e.fixedLastStep(v, bound, d.Down, c.exit)
	} else {
		e.compareEqual(absLoc(v), absLoc(bound), wide)
		e.branch(isa.BEQ, c.exit)
	}
	e.step(v, t.Kind, d.Down)
	e.jump(top)
	e.bind(c.exit)
	return c.advance(phaseResolved)
}

// fixedLastStep jumps to exit when v is within 1.0 of bound. Inside the loop
// v never passes bound, so the distance fits an unsigned word.
func (e *Emitter) fixedLastStep(v, bound asm.AddressRef, down bool, exit asm.LabelID) {
	hi, lo := bound, v
	if down {
		hi, lo = v, bound
	}
	more := e.label("for_more")
	e.op(isa.SEC)
	e.mem(isa.LDA, hi)
	e.mem(isa.SBC, lo)
	e.op(isa.TAY)
	e.mem(isa.LDA, hi.Plus(1))
	e.mem(isa.SBC, lo.Plus(1))
	e.branch(isa.BNE, more)
	e.imm(isa.CPY, 0x10)
	e.branch(isa.BCC, exit)
	e.bind(more)
}

// step adds or subtracts one unit of k at ref: 1 for integers, 1.0 for fixed.
func (e *Emitter) step(ref asm.AddressRef, k types.Kind, down bool) {
	switch {
	case k == types.KindFixed:
		e.load(ref, true)
		if down {
			e.op(isa.SEC)
			e.imm(isa.SBC, 0x10)
			e.op(isa.TAY)
			e.op(isa.TXA)
			e.imm(isa.SBC, 0)
		} else {
			e.op(isa.CLC)
			e.imm(isa.ADC, 0x10)
			e.op(isa.TAY)
			e.op(isa.TXA)
			e.imm(isa.ADC, 0)
		}
		e.op(isa.TAX)
		e.op(isa.TYA)
		e.store(ref, true)
	case !k.Wide():
		if down {
			e.mem(isa.DEC, ref)
		} else {
			e.mem(isa.INC, ref)
		}
	case down:
		skip := e.label("dec")
		e.mem(isa.LDA, ref)
		e.branch(isa.BNE, skip)
		e.mem(isa.DEC, ref.Plus(1))
		e.bind(skip)
		e.mem(isa.DEC, ref)
	default:
		skip := e.label("inc")
		e.mem(isa.INC, ref)
		e.branch(isa.BNE, skip)
		e.mem(isa.INC, ref.Plus(1))
		e.bind(skip)
	}
}

// BranchFalse jumps to target when cond is false. and/or short-circuit.
func (e *Emitter) BranchFalse(cond *hir.Expr, target asm.LabelID) error {
	switch d := cond.Data.(type) {
	case hir.UnaryData:
		if d.Op == types.UnaryNot && d.Operand.Type.Kind == types.KindBool {
			return e.BranchTrue(d.Operand, target)
		}
	case hir.BinaryData:
		if isBoolPair(d) {
			switch d.Op {
			case types.OpAnd:
				if err := e.BranchFalse(d.Left, target); err != nil {
					return err
				}
				return e.BranchFalse(d.Right, target)
			case types.OpOr:
				skip := e.label("or")
				if err := e.BranchTrue(d.Left, skip); err != nil {
					return err
				}
				if err := e.BranchFalse(d.Right, target); err != nil {
					return err
				}
				e.bind(skip)
				return nil
			}
		}
	}
	if err := e.LowerExpr(cond, types.Bool); err != nil {
		return err
	}
	e.setFlags()
	e.branch(isa.BEQ, target)
	return nil
}

// BranchTrue jumps to target when cond is true.
func (e *Emitter) BranchTrue(cond *hir.Expr, target asm.LabelID) error {
	switch d := cond.Data.(type) {
	case hir.UnaryData:
		if d.Op == types.UnaryNot && d.Operand.Type.Kind == types.KindBool {
			return e.BranchFalse(d.Operand, target)
		}
	case hir.BinaryData:
		if isBoolPair(d) {
			switch d.Op {
			case types.OpOr:
				if err := e.BranchTrue(d.Left, target); err != nil {
					return err
				}
				return e.BranchTrue(d.Right, target)
			case types.OpAnd:
				skip := e.label("and")
				if err := e.BranchFalse(d.Left, skip); err != nil {
					return err
				}
				if err := e.BranchTrue(d.Right, target); err != nil {
					return err
				}
				e.bind(skip)
				return nil
			}
		}
	}
	if err := e.LowerExpr(cond, types.Bool); err != nil {
		return err
	}
	e.setFlags()
	e.branch(isa.BNE, target)
	return nil
}

func isBoolPair(d hir.BinaryData) bool {
	return d.Left.Type.Kind == types.KindBool && d.Right.Type.Kind == types.KindBool
}
