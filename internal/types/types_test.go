package types

import (
	"errors"
	"reflect"
	"testing"

	"halfbyte/internal/diag"
	"halfbyte/internal/source"
)

func allTypes() []Type {
	out := []Type{Void, Array(KindU8, 4), Array(KindI16, 300)}
	for _, k := range Scalars {
		out = append(out, Scalar(k))
	}
	return out
}

func TestResolveIsTotalAndDeterministic(t *testing.T) {
	for _, op := range BinaryOps() {
		for _, l := range allTypes() {
			for _, r := range allTypes() {
				a, errA := Resolve(op, l, r)
				b, errB := Resolve(op, l, r)
				if !reflect.DeepEqual(a, b) || (errA == nil) != (errB == nil) {
					t.Fatalf("%s %s %s is not deterministic", l, op, r)
				}
				if errA != nil {
					var mm *MismatchError
					if !errors.As(errA, &mm) {
						t.Fatalf("%s %s %s: unexpected error %v", l, op, r, errA)
					}
					if !a.Result.Valid() && l.Valid() {
						t.Fatalf("%s %s %s: mismatch without fallback type", l, op, r)
					}
					continue
				}
				if !a.Result.Valid() || a.Left.Kind == ConvInvalid || a.Right.Kind == ConvInvalid {
					t.Fatalf("%s %s %s resolved to %+v", l, op, r, a)
				}
			}
		}
	}
}

func TestResolvePromotion(t *testing.T) {
	tests := []struct {
		op     BinaryOp
		l, r   Type
		result Type
	}{
		{OpAdd, U8, U8, U8},
		{OpAdd, U8, U16, U16},
		{OpAdd, I8, I16, I16},
		{OpAdd, U8, I16, I16},
		{OpAdd, I16, U8, I16},
		{OpMul, U16, Fixed, Fixed},
		{OpSub, Fixed, Float, Float},
		{OpDiv, I8, Float, Float},
		{OpAdd, Bool, U16, U16},
		{OpAdd, String, String, String},
		{OpMod, Fixed, U8, Fixed},
		{OpShl, U8, U16, U8},
		{OpShr, I16, U8, I16},
		{OpLt, U8, I16, Bool},
		{OpEq, String, String, Bool},
		{OpEq, Bool, Bool, Bool},
		{OpAnd, Bool, Bool, Bool},
	}
	for _, tt := range tests {
		res, err := Resolve(tt.op, tt.l, tt.r)
		if err != nil {
			t.Fatalf("%s %s %s: %v", tt.l, tt.op, tt.r, err)
		}
		if res.Result != tt.result {
			t.Fatalf("%s %s %s: got %s, want %s", tt.l, tt.op, tt.r, res.Result, tt.result)
		}
	}
}

func TestResolveMismatch(t *testing.T) {
	tests := []struct {
		op   BinaryOp
		l, r Type
	}{
		{OpAdd, I8, U16},
		{OpAdd, U8, I8},
		{OpAdd, U16, I16},
		{OpAdd, Bool, Bool},
		{OpAdd, Bool, Fixed},
		{OpSub, String, String},
		{OpAdd, String, U8},
		{OpMod, Float, U8},
		{OpBitAnd, Fixed, U8},
		{OpLt, Bool, Bool},
		{OpLt, String, String},
		{OpAnd, U8, Bool},
		{OpAdd, Array(KindU8, 4), U8},
	}
	for _, tt := range tests {
		res, err := Resolve(tt.op, tt.l, tt.r)
		if err == nil {
			t.Fatalf("%s %s %s must not resolve, got %+v", tt.l, tt.op, tt.r, res)
		}
	}
	res, _ := Resolve(OpAdd, I8, U16)
	if res.Result != I8 {
		t.Fatalf("fallback must be the left type, got %s", res.Result)
	}
}

func TestResolveConversions(t *testing.T) {
	res, err := Resolve(OpAdd, I8, I16)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Left.Kind != ConvSignExtend || res.Right.Kind != ConvNone {
		t.Fatalf("unexpected conversions %v / %v", res.Left, res.Right)
	}
	res, _ = Resolve(OpAdd, U8, Fixed)
	if res.Left.Kind != ConvIntToFixed {
		t.Fatalf("u8 must be shifted into fixed, got %v", res.Left)
	}
	res, _ = Resolve(OpAdd, Fixed, Float)
	if res.Left.Kind != ConvFixedToFloat {
		t.Fatalf("fixed must widen to float, got %v", res.Left)
	}
}

func TestUnary(t *testing.T) {
	if _, err := ResolveUnary(UnaryNeg, Fixed); err != nil {
		t.Fatalf("negating fixed: %v", err)
	}
	if _, err := ResolveUnary(UnaryNot, U8); err == nil {
		t.Fatalf("not on u8 must fail")
	}
	if _, err := ResolveUnary(UnaryBitNot, Float); err == nil {
		t.Fatalf("~ on float must fail")
	}
}

func TestAssignAndCast(t *testing.T) {
	ok := [][2]Type{
		{U16, U8}, {U8, U16}, {I16, U8}, {I16, I8}, {U8, Bool}, {Fixed, I16}, {Float, Fixed}, {Float, U16},
	}
	for _, pair := range ok {
		if _, err := AssignConversion(pair[0], pair[1]); err != nil {
			t.Fatalf("%s = %s: %v", pair[0], pair[1], err)
		}
	}
	bad := [][2]Type{
		{U8, I8}, {U16, I8}, {Fixed, Float}, {U8, Fixed}, {Bool, U8}, {String, U8}, {U8, String},
	}
	for _, pair := range bad {
		if _, err := AssignConversion(pair[0], pair[1]); err == nil {
			t.Fatalf("%s = %s must need a cast", pair[0], pair[1])
		}
	}

	casts := []struct {
		from, to Type
		kind     ConversionKind
	}{
		{I8, U8, ConvReinterpret},
		{I16, U8, ConvTruncate},
		{Float, Fixed, ConvFloatToFixed},
		{Fixed, I16, ConvFixedToInt},
		{U16, Bool, ConvToBool},
		{Float, Bool, ConvToBool},
		{Fixed, String, ConvToString},
		{Bool, String, ConvToString},
		{String, I16, ConvFromString},
	}
	for _, tt := range casts {
		conv, err := CastConversion(tt.from, tt.to)
		if err != nil || conv.Kind != tt.kind || !conv.Explicit {
			t.Fatalf("cast %s -> %s: %v %v", tt.from, tt.to, conv, err)
		}
	}
	for _, pair := range [][2]Type{{String, Fixed}, {Bool, Float}, {String, Bool}, {Void, U8}} {
		if _, err := CastConversion(pair[0], pair[1]); err == nil {
			t.Fatalf("cast %s -> %s must fail", pair[0], pair[1])
		}
	}
}

func TestResolverDiagnostics(t *testing.T) {
	bag := diag.NewBag(0)
	r := NewResolver(diag.BagReporter{Bag: bag})
	span := source.Span{File: 1, Start: 0, End: 3}

	r.Binary(OpAdd, I8, U16, span)
	r.Cast(I8, U16, nil, span)
	r.Assign(U8, U16, &Literal{Int: 300}, span)
	r.Assign(Fixed, U16, &Literal{Int: 4000}, span)
	r.Assign(U8, U16, &Literal{Int: 200}, span)
	r.CheckLiteral(70000, span)

	for code, want := range map[diag.Code]int{
		diag.SemaTypeMismatch:         1,
		diag.SemaSignReinterpretation: 1,
		diag.SemaPossibleTruncation:   1,
		diag.SemaFixedRangeOverflow:   1,
		diag.SemaLiteralOutOfRange:    1,
	} {
		if got := bag.Count(code); got != want {
			t.Fatalf("%s: got %d diagnostics, want %d", code, got, want)
		}
	}
}

func TestLiteralKind(t *testing.T) {
	tests := map[int64]Kind{0: KindU8, 255: KindU8, 256: KindU16, -1: KindI8, -129: KindI16}
	for v, want := range tests {
		if got := LiteralKind(v); got != want {
			t.Fatalf("LiteralKind(%d) = %s, want %s", v, got, want)
		}
	}
}
