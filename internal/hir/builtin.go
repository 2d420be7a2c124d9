package hir

import (
	"fmt"

	"halfbyte/internal/types"
)

// Builtin enumerates compiler-provided functions.
type Builtin uint8

const (
	BuiltinPrint     Builtin = iota // print(x...): no newline
	BuiltinPrintln                  // println(x...)
	BuiltinLen                      // len(s) -> u8
	BuiltinRand                     // rand() -> fixed in [0, 0.9375]
	BuiltinRandByte                 // rand_byte([from, to]) -> u8
	BuiltinRandWord                 // rand_word([from, to]) -> u16
	BuiltinSeed                     // seed(u16)
	BuiltinRandSByte                // rand_sbyte([from, to]) -> i8
	BuiltinRandSWord                // rand_sword([from, to]) -> i16
	BuiltinPeek                     // peek(addr u16) -> u8
	BuiltinPoke                     // poke(addr u16, v u8)
	BuiltinStrAt                    // str_at(s, i u8) -> u8, 0 past the end
	BuiltinCls                      // cls()
	BuiltinCursor                   // cursor(col u8, row u8)
)

var builtinNames = map[Builtin]string{
	BuiltinPrint:     "print",
	BuiltinPrintln:   "println",
	BuiltinLen:       "len",
	BuiltinRand:      "rand",
	BuiltinRandByte:  "rand_byte",
	BuiltinRandWord:  "rand_word",
	BuiltinSeed:      "seed",
	BuiltinRandSByte: "rand_sbyte",
	BuiltinRandSWord: "rand_sword",
	BuiltinPeek:      "peek",
	BuiltinPoke:      "poke",
	BuiltinStrAt:     "str_at",
	BuiltinCls:       "cls",
	BuiltinCursor:    "cursor",
}

func (b Builtin) String() string {
	if name, ok := builtinNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Builtin(%d)", b)
}

// Result is the type a builtin call produces.
func (b Builtin) Result() types.Type {
	switch b {
	case BuiltinLen, BuiltinRandByte, BuiltinPeek, BuiltinStrAt:
		return types.U8
	case BuiltinRand:
		return types.Fixed
	case BuiltinRandWord:
		return types.U16
	case BuiltinRandSByte:
		return types.I8
	case BuiltinRandSWord:
		return types.I16
	}
	return types.Void
}

// IsRandom reports the builtins that draw from the generator.
func (b Builtin) IsRandom() bool {
	switch b {
	case BuiltinRand, BuiltinRandByte, BuiltinRandWord, BuiltinRandSByte, BuiltinRandSWord:
		return true
	}
	return false
}

// Arity returns the accepted argument counts: exactly n, n or m for the
// ranged random builtins, or any count when variadic.
func (b Builtin) Arity() (n, m int, variadic bool) {
	switch b {
	case BuiltinPrint, BuiltinPrintln:
		return 0, 0, true
	case BuiltinLen, BuiltinSeed, BuiltinPeek:
		return 1, 1, false
	case BuiltinPoke, BuiltinStrAt, BuiltinCursor:
		return 2, 2, false
	case BuiltinRandByte, BuiltinRandWord, BuiltinRandSByte, BuiltinRandSWord:
		return 0, 2, false
	}
	return 0, 0, false
}

// Accepts reports whether a call with argc arguments is well formed.
func (b Builtin) Accepts(argc int) bool {
	n, m, variadic := b.Arity()
	return variadic || argc == n || argc == m
}

// Params returns the argument types of a call with argc arguments. Print
// arguments take any type and report Invalid.
func (b Builtin) Params(argc int) []types.Type {
	var ts []types.Type
	switch b {
	case BuiltinLen:
		ts = []types.Type{types.String}
	case BuiltinSeed, BuiltinPeek:
		ts = []types.Type{types.U16}
	case BuiltinPoke:
		ts = []types.Type{types.U16, types.U8}
	case BuiltinStrAt:
		ts = []types.Type{types.String, types.U8}
	case BuiltinCursor:
		ts = []types.Type{types.U8, types.U8}
	case BuiltinRandByte, BuiltinRandWord, BuiltinRandSByte, BuiltinRandSWord:
		ts = []types.Type{b.Result(), b.Result()}
	}
	if argc <= len(ts) {
		return ts[:argc]
	}
	return append(ts, make([]types.Type, argc-len(ts))...)
}
