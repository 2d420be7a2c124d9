package asm

import "halfbyte/internal/isa"

// LabelID names a jump or data target inside a Stream. Zero is never a valid
// label.
type LabelID uint32

// NoLabel is the zero LabelID.
const NoLabel LabelID = 0

// IsValid reports whether id refers to an allocated label.
func (id LabelID) IsValid() bool { return id != NoLabel }

// AddressRef is either a fixed 16-bit address or a label whose address is
// known only after Link.
type AddressRef struct {
	Addr  uint16
	Label LabelID
}

// Fixed builds a resolved AddressRef.
func Fixed(addr uint16) AddressRef { return AddressRef{Addr: addr} }

// At builds an AddressRef that points at a label plus a byte offset.
func At(l LabelID, offset uint16) AddressRef { return AddressRef{Label: l, Addr: offset} }

// IsLabel reports whether the reference still depends on a label.
func (r AddressRef) IsLabel() bool { return r.Label.IsValid() }

// Plus offsets the reference by n bytes.
func (r AddressRef) Plus(n uint16) AddressRef {
	r.Addr += n
	return r
}

// part selects which bytes of a label address an immediate operand carries.
type part uint8

const (
	partWhole part = iota
	partLow
	partHigh
)

// Operand is an instruction operand. The zero value is an implied operand.
type Operand struct {
	Mode  isa.Mode
	Value uint16
	Label LabelID
	part  part
}

// Implied is the operand of single-byte instructions.
func Implied() Operand { return Operand{Mode: isa.Implied} }

// Acc is the accumulator operand (ASL A, ROR A...).
func Acc() Operand { return Operand{Mode: isa.Accumulator} }

// Imm is an 8-bit immediate.
func Imm(v uint8) Operand { return Operand{Mode: isa.Immediate, Value: uint16(v)} }

// ZP addresses a zero-page byte.
func ZP(addr uint8) Operand { return Operand{Mode: isa.ZeroPage, Value: uint16(addr)} }

// ZPX addresses zero page indexed by X.
func ZPX(addr uint8) Operand { return Operand{Mode: isa.ZeroPageX, Value: uint16(addr)} }

// IndY is the (zp),Y indirect indexed operand.
func IndY(addr uint8) Operand { return Operand{Mode: isa.IndirectY, Value: uint16(addr)} }

// Abs addresses memory directly; a label reference becomes a fixup.
func Abs(ref AddressRef) Operand {
	return Operand{Mode: isa.Absolute, Value: ref.Addr, Label: ref.Label}
}

// AbsX is Abs indexed by X.
func AbsX(ref AddressRef) Operand {
	return Operand{Mode: isa.AbsoluteX, Value: ref.Addr, Label: ref.Label}
}

// AbsY is Abs indexed by Y.
func AbsY(ref AddressRef) Operand {
	return Operand{Mode: isa.AbsoluteY, Value: ref.Addr, Label: ref.Label}
}

// Ind is the JMP (addr) operand.
func Ind(ref AddressRef) Operand {
	return Operand{Mode: isa.Indirect, Value: ref.Addr, Label: ref.Label}
}

// ImmLow loads the low byte of a reference: LDA #<ref.
func ImmLow(ref AddressRef) Operand {
	if !ref.IsLabel() {
		return Imm(uint8(ref.Addr))
	}
	return Operand{Mode: isa.Immediate, Value: ref.Addr, Label: ref.Label, part: partLow}
}

// ImmHigh loads the high byte of a reference: LDA #>ref.
func ImmHigh(ref AddressRef) Operand {
	if !ref.IsLabel() {
		return Imm(uint8(ref.Addr >> 8))
	}
	return Operand{Mode: isa.Immediate, Value: ref.Addr, Label: ref.Label, part: partHigh}
}

// Rel is the target of a conditional branch.
func Rel(l LabelID) Operand { return Operand{Mode: isa.Relative, Label: l} }

// Instruction pairs a mnemonic with its operand.
type Instruction struct {
	Mnemonic isa.Mnemonic
	Operand  Operand
}
