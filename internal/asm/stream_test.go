package asm

import (
	"bytes"
	"errors"
	"testing"

	"halfbyte/internal/isa"
)

func nops(s *Stream, n int) {
	for range n {
		s.Op(isa.NOP)
	}
}

func TestLinkPatchesForwardAndBackward(t *testing.T) {
	s := NewStream()
	top := s.Here("top")
	end := s.NewLabel("end")
	s.Emit(isa.LDA, Imm(1))
	s.Branch(isa.BEQ, end)
	s.Branch(isa.BNE, top)
	s.Bind(end)
	s.Op(isa.RTS)

	img, err := s.Link(0x1000)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	want := []byte{0xA9, 0x01, 0xF0, 0x02, 0xD0, 0xFA, 0x60}
	if !bytes.Equal(img.Bytes, want) {
		t.Fatalf("got % X, want % X", img.Bytes, want)
	}
	if addr, ok := img.Lookup("end"); !ok || addr != 0x1006 {
		t.Fatalf("end at $%04X, %v", addr, ok)
	}
}

func TestAbsoluteAndImmediateFixups(t *testing.T) {
	s := NewStream()
	data := s.NewLabel("data")
	s.Emit(isa.LDA, ImmLow(At(data, 0)))
	s.Emit(isa.LDX, ImmHigh(At(data, 0)))
	s.Emit(isa.LDA, Abs(At(data, 1)))
	s.Jump(data)
	s.Word(At(data, 0))
	s.Bind(data)
	s.Data('H', 'I', 0)

	img, err := s.Link(0x12F0)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	// data sits at $12F0 + 12.
	want := []byte{
		0xA9, 0xFC,
		0xA2, 0x12,
		0xAD, 0xFD, 0x12,
		0x4C, 0xFC, 0x12,
		0xFC, 0x12,
		'H', 'I', 0,
	}
	if !bytes.Equal(img.Bytes, want) {
		t.Fatalf("got % X, want % X", img.Bytes, want)
	}
}

func TestUnresolvedLabelIsFatal(t *testing.T) {
	s := NewStream()
	missing := s.NewLabel("missing")
	s.Jump(missing)
	if _, err := s.Link(0x0801); !errors.Is(err, ErrUnresolvedLabel) {
		t.Fatalf("expected ErrUnresolvedLabel, got %v", err)
	}
}

func TestBindTwiceIsFatal(t *testing.T) {
	s := NewStream()
	l := s.Here("twice")
	s.Bind(l)
	if !errors.Is(s.Err(), ErrLabelRebound) {
		t.Fatalf("expected ErrLabelRebound, got %v", s.Err())
	}
	if _, err := s.Link(0); !errors.Is(err, ErrLabelRebound) {
		t.Fatalf("link must surface the sticky error, got %v", err)
	}
}

func TestUnknownEncoding(t *testing.T) {
	s := NewStream()
	s.Emit(isa.STA, Imm(3))
	if !errors.Is(s.Err(), ErrUnknownEncoding) {
		t.Fatalf("expected ErrUnknownEncoding, got %v", s.Err())
	}
}

func forwardBranchOver(padding int) *Stream {
	s := NewStream()
	target := s.NewLabel("target")
	s.Branch(isa.BEQ, target)
	nops(s, padding)
	s.Bind(target)
	s.Op(isa.RTS)
	return s
}

func TestForwardBranchAtLimitStaysShort(t *testing.T) {
	s := forwardBranchOver(127)
	img, err := s.Link(0x0801)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if img.Trampolines != 0 || len(img.Bytes) != s.Len() {
		t.Fatalf("no trampoline expected, got %d (len %d vs %d)", img.Trampolines, len(img.Bytes), s.Len())
	}
	if img.Bytes[0] != 0xF0 || img.Bytes[1] != 127 {
		t.Fatalf("expected BEQ +127, got % X", img.Bytes[:2])
	}
}

func TestForwardBranchPastLimitIsTrampolined(t *testing.T) {
	s := forwardBranchOver(128)
	before := s.Len()
	img, err := s.Link(0x0801)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if img.Trampolines != 1 {
		t.Fatalf("expected one trampoline, got %d", img.Trampolines)
	}
	if len(img.Bytes) != before+3 {
		t.Fatalf("expected %d bytes after trampolining, got %d", before+3, len(img.Bytes))
	}
	// BNE +3 ; JMP target
	if img.Bytes[0] != 0xD0 || img.Bytes[1] != 0x03 || img.Bytes[2] != 0x4C {
		t.Fatalf("unexpected trampoline shape % X", img.Bytes[:5])
	}
	target, _ := img.Lookup("target")
	jmp := uint16(img.Bytes[3]) | uint16(img.Bytes[4])<<8
	if jmp != target || target != 0x0801+5+128 {
		t.Fatalf("JMP lands on $%04X, target at $%04X", jmp, target)
	}
	if img.Bytes[int(target-0x0801)] != 0x60 {
		t.Fatalf("target does not point at RTS")
	}
}

func TestBackwardBranchLimit(t *testing.T) {
	build := func(padding int) *Stream {
		s := NewStream()
		top := s.Here("top")
		nops(s, padding)
		s.Branch(isa.BNE, top)
		s.Op(isa.RTS)
		return s
	}
	img, err := build(126).Link(0x2000)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if img.Trampolines != 0 || img.Bytes[127] != 0x80 {
		t.Fatalf("expected BNE -128, got %02X (trampolines %d)", img.Bytes[127], img.Trampolines)
	}
	img, err = build(127).Link(0x2000)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if img.Trampolines != 1 {
		t.Fatalf("expected trampoline for -129")
	}
	if img.Bytes[127] != 0xF0 || img.Bytes[128] != 3 || img.Bytes[129] != 0x4C {
		t.Fatalf("unexpected backward trampoline % X", img.Bytes[127:132])
	}
	if img.Bytes[130] != 0x00 || img.Bytes[131] != 0x20 {
		t.Fatalf("JMP must target $2000, got % X", img.Bytes[130:132])
	}
}

func TestTrampolineCascades(t *testing.T) {
	s := NewStream()
	far1 := s.NewLabel("far1")
	far2 := s.NewLabel("far2")
	s.Branch(isa.BEQ, far1)
	nops(s, 10)
	s.Branch(isa.BNE, far2)
	nops(s, 114)
	s.Bind(far1)
	nops(s, 20)
	s.Bind(far2)
	s.Op(isa.RTS)

	img, err := s.Link(0x0801)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if img.Trampolines != 2 {
		t.Fatalf("the second insertion must push the first branch out of range, got %d trampolines", img.Trampolines)
	}
	if len(img.Bytes) != s.Len()+6 {
		t.Fatalf("expected growth of 6, got %d", len(img.Bytes)-s.Len())
	}
	assertBranchesInRange(t, img)
}

func TestAlignPadsBeforeData(t *testing.T) {
	s := NewStream()
	table := s.NewLabel("table")
	s.Emit(isa.LDA, Abs(At(table, 1)))
	s.Align(16)
	s.Bind(table)
	s.Data(0xAA, 0xBB)

	img, err := s.Link(0x1001)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if addr, _ := img.Lookup("table"); addr != 0x1010 {
		t.Fatalf("table at $%04X, want $1010", addr)
	}
	if len(img.Bytes) != 3+12+2 || img.Bytes[15] != 0xAA {
		t.Fatalf("unexpected layout % X", img.Bytes)
	}
	if !bytes.Equal(img.Bytes[3:15], make([]byte, 12)) {
		t.Fatalf("padding must be zero: % X", img.Bytes[3:15])
	}
	if img.Bytes[1] != 0x11 || img.Bytes[2] != 0x10 {
		t.Fatalf("LDA operand % X, want 11 10", img.Bytes[1:3])
	}
}

// The padding pushes the branch out of range; the trampoline then shifts the
// mark, which must shrink its padding to keep the alignment.
func TestAlignAndTrampolineSettle(t *testing.T) {
	s := NewStream()
	far := s.NewLabel("far")
	s.Branch(isa.BNE, far)
	nops(s, 120)
	s.Align(256)
	s.Bind(far)
	s.Op(isa.RTS)

	img, err := s.Link(0x1000)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if img.Trampolines != 1 {
		t.Fatalf("expected one trampoline, got %d", img.Trampolines)
	}
	if addr, _ := img.Lookup("far"); addr != 0x1100 {
		t.Fatalf("far at $%04X, want $1100", addr)
	}
	if len(img.Bytes) != 0x101 || img.Bytes[0x100] != 0x60 {
		t.Fatalf("image of %d bytes", len(img.Bytes))
	}
	if !bytes.Equal(img.Bytes[:5], []byte{0xF0, 0x03, 0x4C, 0x00, 0x11}) {
		t.Fatalf("unexpected trampoline % X", img.Bytes[:5])
	}
}

func TestAlignRejectsOddSizes(t *testing.T) {
	s := NewStream()
	s.Align(1)
	s.Op(isa.RTS)
	if _, err := s.Link(0x1000); err != nil {
		t.Fatalf("align 1 is a no-op: %v", err)
	}
	s.Align(24)
	if _, err := s.Link(0x1000); !errors.Is(err, ErrBadAlignment) {
		t.Fatalf("expected ErrBadAlignment, got %v", err)
	}
}

func TestLinkIsDeterministic(t *testing.T) {
	s := forwardBranchOver(300)
	a, err := s.Link(0x0801)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	b, err := s.Link(0x0801)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if !bytes.Equal(a.Bytes, b.Bytes) {
		t.Fatalf("linking twice produced different images")
	}
}

func TestImageTooLarge(t *testing.T) {
	s := NewStream()
	s.Data(make([]byte, 0x100)...)
	if _, err := s.Link(0xFF80); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

// assertBranchesInRange walks the image as code and checks that every
// relative branch decodes to an address inside the image.
func assertBranchesInRange(t *testing.T, img *Image) {
	t.Helper()
	for _, line := range isa.Disassemble(img.Bytes, img.Origin, isa.DisasmOptions{}) {
		op, ok := isa.Decode(line.Bytes[0])
		if !ok || op.Mode != isa.Relative || len(line.Bytes) != 2 {
			continue
		}
		target := isa.BranchTarget(line.Addr, line.Bytes[1])
		if int(target) < int(img.Origin) || int(target) > img.End() {
			t.Fatalf("branch at $%04X leaves the image ($%04X)", line.Addr, target)
		}
	}
}
