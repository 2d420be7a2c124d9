package rtlib

import (
	"slices"
	"testing"

	"halfbyte/internal/asm"
	"halfbyte/internal/layout"
)

func TestRegistryIsComplete(t *testing.T) {
	names := make(map[string]bool)
	for _, r := range All() {
		if r.emit == nil || r.Name == "" {
			t.Fatalf("routine %d is incomplete", r.ID)
		}
		if names[r.Name] {
			t.Fatalf("duplicate routine name %q", r.Name)
		}
		names[r.Name] = true
		for _, d := range r.Deps {
			if d >= idCount {
				t.Fatalf("%s depends on unknown routine %d", r.Name, d)
			}
		}
	}
	if len(names) != int(idCount) {
		t.Fatalf("expected %d routines, got %d", idCount, len(names))
	}
}

// Emitting a routine must not pull in anything its Deps do not declare.
func TestDeclaredDepsMatchCalls(t *testing.T) {
	for _, r := range All() {
		s := asm.NewStream()
		lib := New(s, layout.C64())
		lib.Require(r.ID)
		declared := lib.Required()
		lib.Emit()
		if got := lib.Required(); !slices.Equal(got, declared) {
			t.Fatalf("%s: declared closure %v, emitted %v", r.Name, declared, got)
		}
		if !slices.Equal(declared, Closure(r.ID)) {
			t.Fatalf("%s: Closure disagrees with Require", r.Name)
		}
		if _, err := s.Link(0x1000); err != nil {
			t.Fatalf("%s: %v", r.Name, err)
		}
	}
}

func TestRoutinesAreEmittedOnce(t *testing.T) {
	s := asm.NewStream()
	lib := New(s, layout.C64())
	lib.Call(DivS16)
	lib.Call(DivU16)
	lib.Call(DivS16)
	lib.Emit()
	lib.Emit()
	img, err := s.Link(0x2000)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	count := 0
	for _, sym := range img.Symbols {
		if sym.Name == "divu16" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("divu16 emitted %d times", count)
	}
	if got := lib.Required(); !slices.Equal(got, []ID{DivU16, DivS16}) {
		t.Fatalf("required %v", got)
	}
	divu, _ := img.Lookup("divu16")
	divs, _ := img.Lookup("divs16")
	if divu >= divs {
		t.Fatalf("routines must follow registry order: divu16 $%04X, divs16 $%04X", divu, divs)
	}
}

func TestEmissionIsDeterministic(t *testing.T) {
	build := func() []byte {
		s := asm.NewStream()
		lib := New(s, layout.C64())
		for _, id := range []ID{FltToStr, StrConcat, RandNext, Mul8} {
			lib.Call(id)
		}
		lib.Emit()
		img, err := s.Link(0x0900)
		if err != nil {
			t.Fatalf("link: %v", err)
		}
		return img.Bytes
	}
	if !slices.Equal(build(), build()) {
		t.Fatalf("two emissions differ")
	}
}
