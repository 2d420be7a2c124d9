package mos

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/layout"
	"halfbyte/internal/rtlib"
	"halfbyte/internal/sim"
	"halfbyte/internal/types"
)

func compile(t *testing.T, b *hir.Builder) *Result {
	t.Helper()
	res, err := Compile(context.Background(), b.Program(), Options{Target: layout.C64()})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return res
}

func mustImage(t *testing.T, res *Result) {
	t.Helper()
	if res.Image == nil {
		for _, d := range res.Diagnostics.Items() {
			t.Logf("%s: %s", d.Code.ID(), d.Message)
		}
		t.Fatalf("no image")
	}
}

// execute compiles b and runs it from the entry point.
func execute(t *testing.T, b *hir.Builder) (*sim.CPU, *Result) {
	t.Helper()
	res := compile(t, b)
	mustImage(t, res)
	cpu := sim.New()
	if err := cpu.Load(res.Image.Origin, res.Image.Bytes); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cpu.Call(res.Image.Entry, 5_000_000); err != nil {
		t.Fatalf("run: %v", err)
	}
	return cpu, res
}

// run compiles b, executes it and returns what it printed.
func run(t *testing.T, b *hir.Builder) string {
	t.Helper()
	cpu, _ := execute(t, b)
	return cpu.Output()
}

func expectOutput(t *testing.T, b *hir.Builder, want string) {
	t.Helper()
	if got := run(t, b); got != want {
		t.Fatalf("output %q, want %q", got, want)
	}
}

func TestStubAndEntry(t *testing.T) {
	b := hir.NewBuilder("stub")
	b.Func("main", types.Void).Body(b.Print(b.Str("hi")))
	res := compile(t, b)
	mustImage(t, res)
	img := res.Image
	if img.Origin != 0x0801 {
		t.Fatalf("origin $%04X", img.Origin)
	}
	stub, entry := layout.C64().Stub()
	if !bytes.HasPrefix(img.Bytes, stub) {
		t.Fatalf("image does not start with the BASIC stub")
	}
	if img.Entry != entry {
		t.Fatalf("entry $%04X, want $%04X", img.Entry, entry)
	}
}

func TestUnsignedWraps(t *testing.T) {
	b := hir.NewBuilder("wrap")
	a := b.Global("a", types.U8, b.Int(types.U8, 250))
	b.Func("main", types.Void).Body(b.Println(b.Binary(types.OpAdd, b.Var(a), b.Int(types.U8, 10))))
	expectOutput(t, b, "4\r")
}

func TestSignedWraps(t *testing.T) {
	b := hir.NewBuilder("wrap")
	x := b.Global("x", types.I8, b.Int(types.I8, -128))
	b.Func("main", types.Void).Body(b.Println(b.Binary(types.OpSub, b.Var(x), b.Int(types.I8, 1))))
	expectOutput(t, b, "127\r")
}

func TestIntegerArithmetic(t *testing.T) {
	b := hir.NewBuilder("arith")
	w := b.Global("w", types.U16, b.Int(types.U16, 1000))
	n := b.Global("n", types.I16, b.Int(types.I16, -7))
	s := b.Global("s", types.I16, b.Int(types.I16, -16))
	one := b.Global("one", types.U8, b.Int(types.U8, 1))
	b.Func("main", types.Void).Body(
		b.Println(b.Binary(types.OpMul, b.Var(w), b.Int(types.U16, 3))),
		b.Println(b.Binary(types.OpDiv, b.Var(n), b.Int(types.I16, 2))),
		b.Println(b.Binary(types.OpMod, b.Var(n), b.Int(types.I16, 2))),
		b.Println(b.Binary(types.OpShl, b.Var(one), b.Int(types.U8, 3))),
		b.Println(b.Binary(types.OpShr, b.Var(s), b.Int(types.U8, 2))),
		b.Println(b.Binary(types.OpBitXor, b.Var(w), b.Int(types.U16, 0xFF))),
		b.Println(b.Unary(types.UnaryNeg, b.Var(n))),
	)
	expectOutput(t, b, "3000\r-3\r-1\r8\r-4\r791\r7\r")
}

func TestComparisons(t *testing.T) {
	b := hir.NewBuilder("cmp")
	x := b.Global("x", types.I16, b.Int(types.I16, -5))
	u := b.Global("u", types.U16, b.Int(types.U16, 300))
	f := b.Global("f", types.Float, b.Float(1.5))
	b.Func("main", types.Void).Body(
		b.Print(b.Binary(types.OpLt, b.Var(x), b.Int(types.I16, 3))),
		b.Print(b.Binary(types.OpGt, b.Var(u), b.Int(types.U16, 255))),
		b.Print(b.Binary(types.OpLe, b.Var(u), b.Int(types.U16, 299))),
		b.Print(b.Binary(types.OpLt, b.Var(f), b.Float(2.0))),
		b.Print(b.Binary(types.OpEq, b.Str("ABC"), b.Str("ABC"))),
		b.Print(b.Binary(types.OpNe, b.Var(x), b.Int(types.I16, -5))),
	)
	expectOutput(t, b, "TRUETRUEFALSETRUETRUEFALSE")
}

func TestNumericFormats(t *testing.T) {
	b := hir.NewBuilder("nums")
	fx := b.Global("fx", types.Fixed, b.Fixed(1.5))
	b.Func("main", types.Void).Body(
		b.Println(b.Binary(types.OpAdd, b.Var(fx), b.Fixed(1.0))),
		b.Println(b.Float(1.5)),
		b.Println(b.Cast(b.Float(2.75), types.I16)),
		b.Println(b.Cast(b.Fixed(-1.5), types.I16)),
		b.Println(b.Binary(types.OpMul, b.Var(fx), b.Int(types.U8, 2))),
	)
	expectOutput(t, b, "2.5\r1.5\r2\r-2\r3.0\r")
}

func TestConcatSharesBuffer(t *testing.T) {
	b := hir.NewBuilder("concat")
	a := b.Global("a", types.String, nil)
	c := b.Global("c", types.String, nil)
	b.Func("main", types.Void).Body(
		b.Assign(b.Var(a), b.Binary(types.OpAdd, b.Str("X"), b.Str("Y"))),
		b.Assign(b.Var(c), b.Binary(types.OpAdd, b.Str("Z"), b.Str("W"))),
		b.Println(b.Var(a)),
		b.Println(b.Builtin(hir.BuiltinLen, b.Var(c))),
	)
	expectOutput(t, b, "ZW\r2\r")
}

func TestCallsAndArrays(t *testing.T) {
	b := hir.NewBuilder("calls")
	squares := b.Global("squares", types.Array(types.KindU16, 10), nil)
	small := b.Global("small", types.Array(types.KindU8, 4), nil)

	add := b.Func("add", types.U8)
	x := add.Param("x", types.U8)
	y := add.Param("y", types.U8)
	add.Body(b.Return(b.Binary(types.OpAdd, b.Var(x), b.Var(y))))

	main := b.Func("main", types.Void)
	i := main.Local("i", types.U8)
	main.Body(
		b.Println(b.Call(add.ID(), b.Call(add.ID(), b.Int(types.U8, 1), b.Int(types.U8, 2)),
			b.Call(add.ID(), b.Int(types.U8, 3), b.Int(types.U8, 4)))),
		b.For(i, b.Int(types.U8, 0), b.Int(types.U8, 9), false,
			b.Assign(b.Index(squares, b.Var(i)),
				b.Binary(types.OpMul, b.Cast(b.Var(i), types.U16), b.Cast(b.Var(i), types.U16))),
		),
		b.Println(b.Index(squares, b.Int(types.U8, 9))),
		b.Println(b.Index(squares, b.Binary(types.OpSub, b.Var(i), b.Int(types.U8, 2)))),
		b.Assign(b.Index(small, b.Int(types.U8, 2)), b.Int(types.U8, 7)),
		b.AssignOp(types.OpAdd, b.Index(small, b.Binary(types.OpSub, b.Var(i), b.Int(types.U8, 7))), b.Int(types.U8, 1)),
		b.Println(b.Index(small, b.Int(types.U8, 2))),
	)
	expectOutput(t, b, "10\r81\r49\r8\r")
}

func TestMissingEntry(t *testing.T) {
	b := hir.NewBuilder("noentry")
	b.Func("helper", types.Void).Body()
	res := compile(t, b)
	if res.Image != nil {
		t.Fatalf("image produced without an entry function")
	}
	if res.Diagnostics.Count(diag.SemaMissingEntry) != 1 {
		t.Fatalf("want one MissingEntry diagnostic")
	}
}

func TestRecursionWarns(t *testing.T) {
	b := hir.NewBuilder("rec")
	f := b.Func("loop", types.Void)
	f.Body(b.Do(b.Call(f.ID())))
	b.Func("main", types.Void).Body()
	res := compile(t, b)
	mustImage(t, res)
	if res.Diagnostics.Count(diag.SemaRecursiveCall) != 1 {
		t.Fatalf("want one RecursiveCall warning")
	}
}

func TestLiteralOutOfRange(t *testing.T) {
	b := hir.NewBuilder("range")
	b.Func("main", types.Void).Body(b.Println(b.Int(types.U8, 300)))
	res := compile(t, b)
	if res.Image != nil || res.Diagnostics.Count(diag.SemaLiteralOutOfRange) != 1 {
		t.Fatalf("want a LiteralOutOfRange error and no image")
	}
}

func TestImplicitNarrowingRejected(t *testing.T) {
	b := hir.NewBuilder("narrow")
	w := b.Global("w", types.I16, nil)
	n := b.Global("n", types.U8, nil)
	b.Func("main", types.Void).Body(b.Assign(b.Var(n), b.Var(w)))
	res := compile(t, b)
	if res.Image != nil || res.Diagnostics.Count(diag.SemaTypeMismatch) == 0 {
		t.Fatalf("i16 into u8 must be rejected")
	}
}

func TestDeterministic(t *testing.T) {
	build := func() []byte {
		b := hir.NewBuilder("det")
		g := b.Global("g", types.U16, b.Int(types.U16, 7))
		main := b.Func("main", types.Void)
		i := main.Local("i", types.U8)
		main.Body(
			b.For(i, b.Int(types.U8, 1), b.Int(types.U8, 3), false,
				b.AssignOp(types.OpMul, b.Var(g), b.Int(types.U16, 3)),
				b.Println(b.Var(g), b.Str(" "), b.Fixed(0.5)),
			),
		)
		res := compile(t, b)
		mustImage(t, res)
		return res.Image.Bytes
	}
	if !bytes.Equal(build(), build()) {
		t.Fatalf("two compilations differ")
	}
}

func TestSeededRandomIsRepeatable(t *testing.T) {
	b := hir.NewBuilder("rand")
	b.Func("main", types.Void).Body(
		b.Do(b.Builtin(hir.BuiltinSeed, b.Int(types.U16, 1234))),
		b.Println(b.Builtin(hir.BuiltinRandWord), b.Str(" "), b.Builtin(hir.BuiltinRandByte)),
		b.Println(b.Builtin(hir.BuiltinRand)),
	)
	first := run(t, b)
	if second := run(t, b); first != second {
		t.Fatalf("same seed printed %q then %q", first, second)
	}
}

func TestRandomIsSeededAtStartup(t *testing.T) {
	b := hir.NewBuilder("boot")
	b.Func("main", types.Void).Body(b.Println(b.Builtin(hir.BuiltinRandWord)))
	// the simulator's hardware registers read zero, so the fallback seed is used
	expectOutput(t, b, "57968\r")

	quiet := hir.NewBuilder("quiet")
	quiet.Func("main", types.Void).Body(quiet.Print(quiet.Str("X")))
	res := compile(t, quiet)
	mustImage(t, res)
	if slices.Contains(res.Routines, rtlib.RandInit) {
		t.Fatalf("a program without random numbers must not seed")
	}
}
