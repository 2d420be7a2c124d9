package layout

import (
	"bytes"
	"errors"
	"testing"

	"halfbyte/internal/asm"
	"halfbyte/internal/hir"
	"halfbyte/internal/types"
)

func TestC64Stub(t *testing.T) {
	target := C64()
	if err := target.Validate(); err != nil {
		t.Fatalf("default target invalid: %v", err)
	}
	stub, entry := target.Stub()
	if entry != 0x080E {
		t.Fatalf("entry $%04X, want $080E", entry)
	}
	want := []byte{0x0C, 0x08, 0x0A, 0x00, 0x9E, ' ', '2', '0', '6', '2', 0x00, 0x00, 0x00}
	if !bytes.Equal(stub, want) {
		t.Fatalf("stub % X, want % X", stub, want)
	}
	target.BasicStub = false
	if stub, entry := target.Stub(); stub != nil || entry != 0x0801 {
		t.Fatalf("no stub expected, got % X at $%04X", stub, entry)
	}
}

func TestValidateRejectsOverlap(t *testing.T) {
	target := C64()
	target.ConcatBase = 0xCD80
	if err := target.Validate(); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected overlap error, got %v", err)
	}
}

func TestAllocatorSequentialAndBounded(t *testing.T) {
	target := C64()
	target.VarLimit = target.VarBase + 4
	target.ConvBuffer = 0xC100
	a := NewAllocator(target)
	ref, err := a.Allocate(1, "a", 2)
	if err != nil || ref.Addr != 0xC000 {
		t.Fatalf("first slot at $%04X: %v", ref.Addr, err)
	}
	ref, err = a.Allocate(2, "b", 1)
	if err != nil || ref.Addr != 0xC002 {
		t.Fatalf("second slot at $%04X: %v", ref.Addr, err)
	}
	if _, err := a.Allocate(1, "a", 1); !errors.Is(err, ErrAllocationCollision) {
		t.Fatalf("expected collision, got %v", err)
	}
	if _, err := a.Allocate(3, "c", 2); !errors.Is(err, ErrOutOfVariableSpace) {
		t.Fatalf("expected out of space, got %v", err)
	}
	if _, err := a.Allocate(4, "d", 1); err != nil {
		t.Fatalf("last byte must still fit: %v", err)
	}
	if a.Used() != 4 || len(a.Slots()) != 3 {
		t.Fatalf("used %d, slots %d", a.Used(), len(a.Slots()))
	}
	if got, ok := a.Lookup(2); !ok || got.Addr != 0xC002 {
		t.Fatalf("lookup b: $%04X %v", got.Addr, ok)
	}
}

func TestAllocateSymbolUsesTypeSize(t *testing.T) {
	b := hir.NewBuilder("p")
	grid := b.Global("grid", types.Array(types.KindI16, 10), nil)
	a := NewAllocator(C64())
	if _, err := a.AllocateSymbol(b.Program(), grid); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if a.Used() != 20 {
		t.Fatalf("i16[10] takes 20 bytes, used %d", a.Used())
	}
}

func TestPoolDeduplicates(t *testing.T) {
	s := asm.NewStream()
	p := NewPool(s)
	a := p.Intern([]byte("HI\x00"))
	b := p.Intern([]byte("YO\x00"))
	c := p.Intern([]byte("HI\x00"))
	if a != c || a == b || p.Len() != 2 || p.Size() != 6 {
		t.Fatalf("pool did not deduplicate: %v %v %v len=%d", a, b, c, p.Len())
	}
	p.Emit()
	img, err := s.Link(0x1000)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	addr, ok := img.Lookup("const_1")
	if !ok || img.Bytes[addr-0x1000] != 'Y' {
		t.Fatalf("const_1 at $%04X does not hold YO", addr)
	}
}

func TestAllocateHiddenNeverCollides(t *testing.T) {
	a := NewAllocator(C64())
	if _, err := a.Allocate(1, "i", 1); err != nil {
		t.Fatal(err)
	}
	first, err := a.AllocateHidden("i.bound", 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.AllocateHidden("i.bound", 1)
	if err != nil {
		t.Fatal(err)
	}
	if first.Addr != 0xC001 || second.Addr != 0xC002 {
		t.Fatalf("hidden slots at $%04X and $%04X", first.Addr, second.Addr)
	}
	if _, ok := a.Lookup(1); !ok || len(a.Slots()) != 3 {
		t.Fatalf("hidden slots must not disturb symbol slots")
	}
}
