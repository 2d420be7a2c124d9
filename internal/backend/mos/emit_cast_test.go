package mos

import (
	"errors"
	"testing"

	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/layout"
	"halfbyte/internal/source"
	"halfbyte/internal/types"
)

func TestConvertRefusesExplicitOnlyConversions(t *testing.T) {
	e := NewEmitter(hir.NewBuilder("conv").Program(), layout.C64(), diag.NewBag(0))
	narrow := types.Conversion{From: types.KindU16, To: types.KindU8, Kind: types.ConvTruncate, Explicit: true}

	err := e.convert(narrow, false, source.Span{})
	if !errors.Is(err, ErrUnauthorizedConversion) {
		t.Fatalf("implicit narrowing lowered: %v", err)
	}
	if code := internalCode(err); code != diag.BackendUnauthorizedConversion {
		t.Fatalf("mapped to %s, want %s", code.ID(), diag.BackendUnauthorizedConversion.ID())
	}
	if err := e.convert(narrow, true, source.Span{}); err != nil {
		t.Fatalf("explicit narrowing: %v", err)
	}

	invalid := types.Conversion{From: types.KindString, To: types.KindU8, Kind: types.ConvInvalid}
	if err := e.convert(invalid, true, source.Span{}); !errors.Is(err, ErrUnauthorizedConversion) {
		t.Fatalf("an invalid conversion lowered even when explicit: %v", err)
	}
}
