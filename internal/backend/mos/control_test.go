package mos

import (
	"testing"

	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/isa"
	"halfbyte/internal/types"
)

// branchEdge builds `if flag: <body>` with 25 assignments, copies of them
// `c = a` (six bytes) and the rest `a = 7` (five bytes).
func branchEdge(flag bool, copies int) *hir.Builder {
	b := hir.NewBuilder("edge")
	f := b.Global("flag", types.Bool, b.Bool(flag))
	a := b.Global("a", types.U8, nil)
	c := b.Global("c", types.U8, nil)
	var body []hir.Stmt
	for range 25 - copies {
		body = append(body, b.Assign(b.Var(a), b.Int(types.U8, 7)))
	}
	for range copies {
		body = append(body, b.Assign(b.Var(c), b.Var(a)))
	}
	b.Func("main", types.Void).Body(
		b.If(b.Var(f), body...).Stmt(),
		b.Println(b.Var(c)),
	)
	return b
}

func TestBranchAtTheEdgeOfItsRange(t *testing.T) {
	// 23*5 + 2*6 = 127 bytes fits, 22*5 + 3*6 = 128 does not
	for _, c := range []struct {
		copies      int
		trampolines int
	}{{2, 0}, {3, 1}} {
		res := compile(t, branchEdge(true, c.copies))
		mustImage(t, res)
		if res.Image.Trampolines != c.trampolines {
			t.Fatalf("%d copies: %d trampolines, want %d", c.copies, res.Image.Trampolines, c.trampolines)
		}
		if grown := len(res.Image.Bytes) - res.Unlinked; grown != 3*c.trampolines {
			t.Fatalf("%d copies: image grew by %d bytes", c.copies, grown)
		}
		for flag, want := range map[bool]string{true: "7\r", false: "0\r"} {
			expectOutput(t, branchEdge(flag, c.copies), want)
		}
	}
}

func TestElifChain(t *testing.T) {
	b := hir.NewBuilder("elif")
	main := b.Func("main", types.Void)
	i := main.Local("i", types.U8)
	main.Body(
		b.For(i, b.Int(types.U8, 0), b.Int(types.U8, 4), false,
			b.If(b.Binary(types.OpEq, b.Var(i), b.Int(types.U8, 0)), b.Print(b.Str("A"))).
				Elif(b.Binary(types.OpEq, b.Var(i), b.Int(types.U8, 1)), b.Print(b.Str("B"))).
				Elif(b.Binary(types.OpEq, b.Var(i), b.Int(types.U8, 2)), b.Print(b.Str("C"))).
				Elif(b.Binary(types.OpEq, b.Var(i), b.Int(types.U8, 3)), b.Print(b.Str("D"))).
				Else(b.Print(b.Str("E"))),
		),
	)
	expectOutput(t, b, "ABCDE")
}

func TestNestedIfs(t *testing.T) {
	b := hir.NewBuilder("nested")
	on := b.Global("on", types.Bool, b.Bool(true))
	x := b.Global("x", types.U8, b.Int(types.U8, 6))
	inner := b.If(b.Binary(types.OpGt, b.Var(x), b.Int(types.U8, 5)), b.Print(b.Str("6"))).
		Else(b.Print(b.Str("5")))
	for range 5 {
		inner = b.If(b.Var(on), b.Print(b.Str(".")), inner).Stmt()
	}
	b.Func("main", types.Void).Body(inner)
	res := compile(t, b)
	mustImage(t, res)
	if res.Image.Trampolines != 0 {
		t.Fatalf("every branch is in range, got %d trampolines", res.Image.Trampolines)
	}
	expectOutput(t, b, ".....6")
}

func TestNestedIfsTrampolineTargets(t *testing.T) {
	b := hir.NewBuilder("deep")
	x := b.Global("x", types.U8, b.Int(types.U8, 6))
	gt := func(n int64) *hir.Expr { return b.Binary(types.OpGt, b.Var(x), b.Int(types.U8, n)) }
	inner := b.If(gt(5), b.Print(b.Str("6"))).Else(b.Print(b.Str("5")))
	for n := int64(4); n >= 0; n-- {
		inner = b.If(gt(n), b.Print(b.Str(".")), inner).Else(b.Print(b.Str("!")))
	}
	b.Func("main", types.Void).Body(inner)
	res := compile(t, b)
	mustImage(t, res)
	img := res.Image
	if img.Trampolines == 0 {
		t.Fatalf("outer arms are longer than a branch can reach")
	}

	// user code ends where the first runtime routine begins
	end := uint16(img.End())
	for _, id := range res.Routines {
		if addr, ok := img.Lookup(id.String()); ok && addr < end {
			end = addr
		}
	}
	symbols := img.SymbolMap()
	for addr := img.Entry; addr < end; {
		op, ok := isa.Decode(img.Bytes[addr-img.Origin])
		if !ok {
			t.Fatalf("undefined opcode at $%04X", addr)
		}
		if (op.Mnemonic == isa.JMP || op.Mnemonic == isa.JSR) && op.Mode == isa.Absolute {
			at := addr - img.Origin
			target := uint16(img.Bytes[at+1]) | uint16(img.Bytes[at+2])<<8
			if _, named := symbols[target]; !named {
				t.Fatalf("%s at $%04X lands on $%04X, which is no label", op.Mnemonic, addr, target)
			}
		}
		addr += uint16(op.Mode.Size())
	}
	expectOutput(t, b, ".....6")
}

func TestWhileBreakContinue(t *testing.T) {
	b := hir.NewBuilder("while")
	main := b.Func("main", types.Void)
	i := main.Local("i", types.U8)
	main.Body(
		b.Let(i, b.Int(types.U8, 0)),
		b.While(b.Bool(true),
			b.AssignOp(types.OpAdd, b.Var(i), b.Int(types.U8, 1)),
			b.If(b.Binary(types.OpEq, b.Var(i), b.Int(types.U8, 3)), b.Continue()).Stmt(),
			b.If(b.Binary(types.OpGt, b.Var(i), b.Int(types.U8, 5)), b.Break()).Stmt(),
			b.Print(b.Var(i)),
		),
	)
	expectOutput(t, b, "1245")
}

func TestShortCircuit(t *testing.T) {
	b := hir.NewBuilder("logic")
	hits := b.Global("hits", types.U8, nil)
	touch := b.Func("touch", types.Bool)
	touch.Body(
		b.AssignOp(types.OpAdd, b.Var(hits), b.Int(types.U8, 1)),
		b.Return(b.Bool(true)),
	)
	b.Func("main", types.Void).Body(
		b.If(b.Binary(types.OpAnd, b.Bool(false), b.Call(touch.ID())), b.Print(b.Str("X"))).Stmt(),
		b.If(b.Binary(types.OpOr, b.Bool(true), b.Call(touch.ID())), b.Print(b.Str("Y"))).Stmt(),
		b.If(b.Unary(types.UnaryNot, b.Binary(types.OpAnd, b.Bool(true), b.Call(touch.ID()))), b.Print(b.Str("Z"))).Stmt(),
		b.Print(b.Binary(types.OpOr, b.Bool(false), b.Call(touch.ID()))),
		b.Println(b.Var(hits)),
	)
	expectOutput(t, b, "YTRUE2\r")
}

func TestForLoops(t *testing.T) {
	b := hir.NewBuilder("for")
	count := b.Global("count", types.U16, nil)
	main := b.Func("main", types.Void)
	i := main.Local("i", types.U8)
	j := main.Local("j", types.I16)
	k := main.Local("k", types.U8)
	main.Body(
		// ends at the largest u8 without wrapping around
		b.For(i, b.Int(types.U8, 250), b.Int(types.U8, 255), false,
			b.AssignOp(types.OpAdd, b.Var(count), b.Int(types.U16, 1)),
		),
		b.Println(b.Var(count)),
		b.For(j, b.Int(types.I16, 1), b.Int(types.I16, -2), true, b.Print(b.Var(j))),
		b.Println(),
		b.For(k, b.Int(types.U8, 5), b.Int(types.U8, 3), false, b.Print(b.Str("never"))),
		b.For(k, b.Int(types.U8, 0), b.Int(types.U8, 9), false,
			b.If(b.Binary(types.OpEq, b.Binary(types.OpMod, b.Var(k), b.Int(types.U8, 2)), b.Int(types.U8, 1)), b.Continue()).Stmt(),
			b.If(b.Binary(types.OpGe, b.Var(k), b.Int(types.U8, 6)), b.Break()).Stmt(),
			b.Print(b.Var(k)),
		),
	)
	expectOutput(t, b, "6\r10-1-2\r024")
}

func TestFixedForLoops(t *testing.T) {
	b := hir.NewBuilder("fixfor")
	main := b.Func("main", types.Void)
	v := main.Local("v", types.Fixed)
	loop := func(from, to float64, down bool) hir.Stmt {
		return b.For(v, b.Fixed(from), b.Fixed(to), down, b.Print(b.Var(v), b.Str(" ")))
	}
	main.Body(
		// the bound is not a whole step away from the start
		loop(0.5, 3.0, false), b.Println(),
		loop(3.0, 0.5, true), b.Println(),
		loop(1.0, 3.0, false), b.Println(),
		loop(2046.5, 2047.9375, false), b.Println(),
		loop(-2047.5, -2048, true), b.Println(),
	)
	expectOutput(t, b, "0.5 1.5 2.5 \r3.0 2.0 1.0 \r1.0 2.0 3.0 \r2046.5 2047.5 \r-2047.5 \r")
}

func TestMisplacedJump(t *testing.T) {
	b := hir.NewBuilder("jump")
	b.Func("main", types.Void).Body(b.Break())
	res := compile(t, b)
	if res.Image != nil || res.Diagnostics.Count(diag.BackendMisplacedJump) != 1 {
		t.Fatalf("break outside a loop must fail")
	}
}

func TestConstructPhases(t *testing.T) {
	c := &construct{kind: constructWhile}
	if err := c.advance(phaseBody); err == nil {
		t.Fatalf("skipping the condition must fail")
	}
	for _, p := range []phase{phaseCondition, phaseBody, phaseResolved} {
		if err := c.advance(p); err != nil {
			t.Fatalf("advance to %s: %v", p, err)
		}
	}
	arm := &construct{kind: constructIf}
	for _, p := range []phase{phaseCondition, phaseBody, phaseCondition, phaseBody, phaseResolved} {
		if err := arm.advance(p); err != nil {
			t.Fatalf("if advance to %s: %v", p, err)
		}
	}
	loop := &construct{kind: constructFor, phase: phaseBody}
	if err := loop.advance(phaseCondition); err == nil {
		t.Fatalf("a loop cannot go back to its condition")
	}
}
