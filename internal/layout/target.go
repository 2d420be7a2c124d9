// Package layout places program data in target memory: the load address and
// BASIC stub, the static variable region, the shared runtime buffers and the
// constant pool that follows the code.
package layout

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidTarget reports an inconsistent memory map.
var ErrInvalidTarget = errors.New("layout: invalid target")

// Target describes the memory map of one machine.
type Target struct {
	Name        string
	LoadAddress uint16 // first byte of the image
	BasicStub   bool   // prefix the image with 10 SYS <entry>
	VarBase     uint16 // first byte of the variable region
	VarLimit    uint16 // first byte past the variable region
	ConvBuffer  uint16 // number-to-string conversions
	ConvSize    uint16
	ConcatBase  uint16 // string concatenation, 256 bytes
	Chrout      uint16 // KERNAL character output
	Plot        uint16 // KERNAL cursor position, X = row and Y = column
}

// C64 is the default target: BASIC start, variables at $C000-$CDFF and the
// string buffers above them.
func C64() Target {
	return Target{
		Name:        "c64",
		LoadAddress: 0x0801,
		BasicStub:   true,
		VarBase:     0xC000,
		VarLimit:    0xCE00,
		ConvBuffer:  0xCE00,
		ConvSize:    0x20,
		ConcatBase:  0xCF00,
		Chrout:      0xFFD2,
		Plot:        0xFFF0,
	}
}

// LookupTarget returns a predefined target by name.
func LookupTarget(name string) (Target, bool) {
	switch name {
	case "", "c64":
		return C64(), true
	}
	return Target{}, false
}

// ConcatSize is the capacity of the concatenation buffer including the
// terminator.
const ConcatSize = 256

// Validate checks that the regions are ordered and do not overlap.
func (t Target) Validate() error {
	if t.VarLimit <= t.VarBase {
		return fmt.Errorf("%w: variable region $%04X-$%04X is empty", ErrInvalidTarget, t.VarBase, t.VarLimit)
	}
	type region struct {
		name     string
		lo, size int
	}
	regions := []region{
		{"variables", int(t.VarBase), int(t.VarLimit) - int(t.VarBase)},
		{"conversion buffer", int(t.ConvBuffer), int(t.ConvSize)},
		{"concatenation buffer", int(t.ConcatBase), ConcatSize},
	}
	for i, a := range regions {
		if a.lo+a.size > 0x10000 {
			return fmt.Errorf("%w: %s runs past $FFFF", ErrInvalidTarget, a.name)
		}
		if a.lo < 0x100 {
			return fmt.Errorf("%w: %s overlaps zero page", ErrInvalidTarget, a.name)
		}
		for _, b := range regions[i+1:] {
			if a.lo < b.lo+b.size && b.lo < a.lo+a.size {
				return fmt.Errorf("%w: %s overlaps %s", ErrInvalidTarget, a.name, b.name)
			}
		}
	}
	if t.ConvSize < 12 {
		return fmt.Errorf("%w: conversion buffer needs 12 bytes", ErrInvalidTarget)
	}
	return nil
}

// Stub returns the BASIC line `10 SYS <entry>` for an image loaded at
// t.LoadAddress, together with the entry address right after it. Without a
// stub the entry is the load address.
func (t Target) Stub() ([]byte, uint16) {
	if !t.BasicStub {
		return nil, t.LoadAddress
	}
	entry := t.LoadAddress
	for {
		stub := basicLine(t.LoadAddress, 10, entry)
		next := t.LoadAddress + uint16(len(stub))
		if next == entry {
			return stub, entry
		}
		entry = next
	}
}

// basicLine encodes one tokenized BASIC line followed by the end-of-program
// marker.
func basicLine(load, number, sys uint16) []byte {
	const tokenSYS = 0x9E
	digits := strconv.Itoa(int(sys))
	// link(2) number(2) SYS space digits 0, then the 00 00 end marker
	end := load + 2 + 2 + 1 + 1 + uint16(len(digits)) + 1
	out := []byte{byte(end), byte(end >> 8), byte(number), byte(number >> 8), tokenSYS, ' '}
	out = append(out, digits...)
	return append(out, 0, 0, 0)
}
