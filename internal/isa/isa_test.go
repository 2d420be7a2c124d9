package isa

import (
	"strings"
	"testing"
)

func TestTableIsBijective(t *testing.T) {
	seen := make(map[byte]Op)
	for _, op := range Ops() {
		if prev, dup := seen[op.Code]; dup {
			t.Fatalf("opcode $%02X listed twice: %v and %v", op.Code, prev.Mnemonic, op.Mnemonic)
		}
		seen[op.Code] = op
		code, ok := Encode(op.Mnemonic, op.Mode)
		if !ok || code != op.Code {
			t.Fatalf("Encode(%v, %v) = $%02X, %v; want $%02X", op.Mnemonic, op.Mode, code, ok, op.Code)
		}
	}
	if len(seen) != 151 {
		t.Fatalf("expected 151 documented opcodes, got %d", len(seen))
	}
}

func TestEveryMnemonicHasEncoding(t *testing.T) {
	covered := make(map[Mnemonic]bool)
	for _, op := range Ops() {
		covered[op.Mnemonic] = true
	}
	for mn := ADC; mn < mnemonicCount; mn++ {
		if !covered[mn] {
			t.Fatalf("mnemonic %v has no encoding", mn)
		}
	}
}

func TestKnownEncodings(t *testing.T) {
	tests := []struct {
		mn   Mnemonic
		mode Mode
		want byte
	}{
		{LDA, Immediate, 0xA9},
		{LDA, IndirectY, 0xB1},
		{STA, AbsoluteY, 0x99},
		{LDX, AbsoluteY, 0xBE},
		{JMP, Absolute, 0x4C},
		{JSR, Absolute, 0x20},
		{BNE, Relative, 0xD0},
		{ROR, Accumulator, 0x6A},
		{RTS, Implied, 0x60},
	}
	for _, tt := range tests {
		got, ok := Encode(tt.mn, tt.mode)
		if !ok || got != tt.want {
			t.Fatalf("Encode(%v, %v) = $%02X, %v; want $%02X", tt.mn, tt.mode, got, ok, tt.want)
		}
	}
	if Supports(STA, Immediate) {
		t.Fatalf("STA has no immediate mode")
	}
}

func TestInvertBranch(t *testing.T) {
	for _, mn := range []Mnemonic{BCC, BCS, BEQ, BNE, BMI, BPL, BVC, BVS} {
		inv, ok := InvertBranch(mn)
		if !ok {
			t.Fatalf("%v should be invertible", mn)
		}
		back, _ := InvertBranch(inv)
		if back != mn {
			t.Fatalf("double inversion of %v gave %v", mn, back)
		}
	}
	if _, ok := InvertBranch(JMP); ok {
		t.Fatalf("JMP is not a conditional branch")
	}
	code, ok := InvertBranchCode(0xF0)
	if !ok || code != 0xD0 {
		t.Fatalf("BEQ should invert to BNE, got $%02X", code)
	}
}

func TestBranchFits(t *testing.T) {
	if !BranchFits(127) || !BranchFits(-128) {
		t.Fatalf("limits must fit")
	}
	if BranchFits(128) || BranchFits(-129) {
		t.Fatalf("values past the limits must not fit")
	}
}

func TestDisassemble(t *testing.T) {
	code := []byte{
		0xA9, 0x05, // LDA #$05
		0x8D, 0x00, 0xC0, // STA $C000
		0xD0, 0xF9, // BNE $1000
		0x60, // RTS
		0xFF, // not an opcode
	}
	lines := Disassemble(code, 0x1000, DisasmOptions{Symbols: map[uint16]string{0x1000: "start"}})
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	want := []string{"LDA #$05", "STA $C000", "BNE start", "RTS", ".byte $FF"}
	for i, w := range want {
		if lines[i].Text != w {
			t.Fatalf("line %d: got %q, want %q", i, lines[i].Text, w)
		}
	}
	if !strings.HasPrefix(lines[0].String(), "start:\n1000") {
		t.Fatalf("label not rendered: %q", lines[0].String())
	}
}

func TestDisassembleDataStart(t *testing.T) {
	code := []byte{0x60, 'H', 'I', 0}
	lines := Disassemble(code, 0x2000, DisasmOptions{DataStart: 0x2001})
	if len(lines) != 2 || lines[1].Text != ".byte $48,$49,$00" {
		t.Fatalf("unexpected data rendering: %+v", lines)
	}
}
