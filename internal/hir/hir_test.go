package hir

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"halfbyte/internal/types"
)

func sampleProgram() *Program {
	b := NewBuilder("sample")
	b.AddFile("sample.hb", []byte("var total: u16\n"))
	total := b.At(0, 14).Global("total", types.U16, nil)
	limit := b.Const("limit", types.U8, b.Int(types.U8, 10))
	grid := b.Global("grid", types.Array(types.KindU8, 8), nil)
	font := b.Data("font", 64, 0x3C, 0x66, 0x7E)

	sq := b.Func("square", types.U16)
	x := sq.Param("x", types.U8)
	sq.Body(b.Return(b.Binary(types.OpMul, b.Cast(b.Var(x), types.U16), b.Cast(b.Var(x), types.U16))))

	main := b.Func("main", types.Void)
	i := main.Local("i", types.U8)
	main.Body(
		b.For(i, b.Int(types.U8, 1), b.Var(limit), false,
			b.AssignOp(types.OpAdd, b.Var(total), b.Call(sq.ID(), b.Var(i))),
			b.Assign(b.Index(grid, b.Var(i)), b.Var(i)),
			b.If(b.Binary(types.OpGt, b.Var(total), b.Int(types.U16, 300)), b.Break()).
				Elif(b.Binary(types.OpEq, b.Var(i), b.Int(types.U8, 3)), b.Continue()).
				Else(b.Println(b.Str("tick"))),
		),
		b.While(b.Bool(false)),
		b.Println(b.Var(total)),
		b.Println(b.Builtin(BuiltinPeek, b.DataAddr(font))),
	)
	return b.Program()
}

func TestBuilderTypesExpressions(t *testing.T) {
	p := sampleProgram()
	if p.EntryFunc() == nil || p.EntryFunc().Name != "main" {
		t.Fatalf("main must be the entry point")
	}
	sq := p.FindFunc("square")
	ret := sq.Body.Stmts[0].Data.(ReturnData)
	if ret.Value.Type != types.U16 {
		t.Fatalf("u16 * u16 must be u16, got %s", ret.Value.Type)
	}
	if p.Symbol(3).Type.Size() != 8 {
		t.Fatalf("grid must take 8 bytes")
	}
	if p.Symbol(0) != nil || p.Symbol(99) != nil || p.Func(0) != nil {
		t.Fatalf("invalid IDs must not resolve")
	}
	if p.Symbols[0].Span.End != 14 {
		t.Fatalf("span not recorded: %+v", p.Symbols[0].Span)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	p := sampleProgram()
	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var want, got bytes.Buffer
	if err := Dump(&want, p); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if err := Dump(&got, back); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if want.String() != got.String() {
		t.Fatalf("round trip changed the program:\n%s\n---\n%s", want.String(), got.String())
	}
	if !reflect.DeepEqual(p.Symbols, back.Symbols) {
		t.Fatalf("symbols differ after round trip")
	}
	if string(back.Files[0].Content) != "var total: u16\n" {
		t.Fatalf("sources must travel with the program")
	}
	if !reflect.DeepEqual(p.Data, back.Data) {
		t.Fatalf("data blocks differ after round trip: %+v", back.Data)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0x01, 0x02}); !errors.Is(err, ErrBadFile) {
		t.Fatalf("expected ErrBadFile, got %v", err)
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	if err := Dump(&buf, sampleProgram()); err != nil {
		t.Fatalf("dump: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"const limit: u8 = 10:u8",
		"func square(x: u8) -> u16:",
		"func main() -> void @entry:",
		"    for i in 1:u8 to limit:",
		"        total += square(i)",
		"        grid[i] = i",
		"        elif (i == 3:u8):",
		"            println(\"tick\")",
		"    while false:\n        pass",
		"data font align 64: 3c 66 7e",
		"    println(peek(&font))",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump lacks %q:\n%s", want, out)
		}
	}
}

func TestUsesBuiltin(t *testing.T) {
	b := NewBuilder("walk")
	g := b.Global("g", types.U16, b.Builtin(BuiltinRandWord))
	main := b.Func("main", types.Void)
	i := main.Local("i", types.U8)
	main.Body(
		b.For(i, b.Int(types.U8, 0), b.Int(types.U8, 3), false,
			b.If(b.Binary(types.OpGt, b.Var(g), b.Int(types.U16, 9)),
				b.Println(b.Builtin(BuiltinLen, b.Str("abc"))),
			).Stmt(),
		),
	)
	p := b.Program()
	if !p.UsesBuiltin(BuiltinRandWord) {
		t.Fatalf("builtin in a global initialiser not found")
	}
	if !p.UsesBuiltin(BuiltinRand, BuiltinLen) {
		t.Fatalf("builtin nested in a loop not found")
	}
	if p.UsesBuiltin(BuiltinSeed) {
		t.Fatalf("seed is never called")
	}
	exprs := 0
	Inspect(p, func(*Expr) bool { exprs++; return true })
	// rand_word, 0, 3, the comparison with its operands, println, len and "abc"
	if exprs != 9 {
		t.Fatalf("visited %d expressions", exprs)
	}
}

func TestBuiltinArity(t *testing.T) {
	for _, c := range []struct {
		b    Builtin
		ok   []int
		bad  []int
		want []types.Type
	}{
		{BuiltinPrintln, []int{0, 1, 5}, nil, nil},
		{BuiltinPeek, []int{1}, []int{0, 2}, []types.Type{types.U16}},
		{BuiltinPoke, []int{2}, []int{1, 3}, []types.Type{types.U16, types.U8}},
		{BuiltinStrAt, []int{2}, []int{1}, []types.Type{types.String, types.U8}},
		{BuiltinCls, []int{0}, []int{1}, nil},
		{BuiltinRandSByte, []int{0, 2}, []int{1, 3}, []types.Type{types.I8, types.I8}},
		{BuiltinRandWord, []int{0, 2}, []int{1}, []types.Type{types.U16, types.U16}},
	} {
		for _, n := range c.ok {
			if !c.b.Accepts(n) {
				t.Fatalf("%s must accept %d arguments", c.b, n)
			}
		}
		for _, n := range c.bad {
			if c.b.Accepts(n) {
				t.Fatalf("%s must refuse %d arguments", c.b, n)
			}
		}
		if c.want != nil && !reflect.DeepEqual(c.b.Params(len(c.want)), c.want) {
			t.Fatalf("%s params %v, want %v", c.b, c.b.Params(len(c.want)), c.want)
		}
	}
	if len(BuiltinPrint.Params(3)) != 3 {
		t.Fatalf("print params must cover every argument")
	}
	if !BuiltinRandSWord.IsRandom() || BuiltinPeek.IsRandom() {
		t.Fatalf("IsRandom misclassifies")
	}
}
