// Package asm builds 6502 machine code as a byte stream with symbolic labels.
//
// Code is appended instruction by instruction. Every operand that depends on
// a label is written as a placeholder and recorded as a Fixup. Link lays the
// stream out at its origin, rewrites conditional branches whose displacement
// does not fit into a trampoline, and patches every fixup.
package asm

import (
	"errors"
	"fmt"

	"halfbyte/internal/isa"
)

var (
	// ErrUnknownEncoding reports a mnemonic/mode pair absent from the table.
	ErrUnknownEncoding = errors.New("asm: no encoding for instruction")
	// ErrLabelRebound reports a label bound more than once.
	ErrLabelRebound = errors.New("asm: label bound twice")
	// ErrInvalidLabel reports a reference to a label never created.
	ErrInvalidLabel = errors.New("asm: invalid label")
	// ErrUnresolvedLabel reports a fixup whose label was never bound.
	ErrUnresolvedLabel = errors.New("asm: unresolved label")
	// ErrImageTooLarge reports an image that does not fit the address space.
	ErrImageTooLarge = errors.New("asm: image exceeds address space")
	// ErrBadAlignment reports an alignment that is not a power of two or
	// padding that never settles.
	ErrBadAlignment = errors.New("asm: bad alignment")
)

// FixupKind says how a fixup is patched.
type FixupKind uint8

const (
	// FixupRelative is the signed displacement byte of a conditional branch.
	FixupRelative FixupKind = iota
	// FixupAbsolute is the 16-bit operand of JMP or JSR.
	FixupAbsolute
	// FixupAddress is any other 16-bit little-endian address.
	FixupAddress
	// FixupAddressLow is the immediate #<label.
	FixupAddressLow
	// FixupAddressHigh is the immediate #>label.
	FixupAddressHigh
)

func (k FixupKind) String() string {
	switch k {
	case FixupRelative:
		return "relative"
	case FixupAbsolute:
		return "absolute"
	case FixupAddress:
		return "address"
	case FixupAddressLow:
		return "address-low"
	case FixupAddressHigh:
		return "address-high"
	}
	return fmt.Sprintf("FixupKind(%d)", k)
}

// Fixup is a deferred patch at Site, the offset of the operand bytes.
type Fixup struct {
	Site   int
	Label  LabelID
	Kind   FixupKind
	Addend uint16
}

type labelSlot struct {
	name   string
	offset int
	bound  bool
}

// alignMark asks Link to pad with zeros at offset until the next byte sits
// on a multiple of align.
type alignMark struct {
	offset int
	align  int
	pad    int
}

// Stream is an append-only instruction buffer. The first error is sticky:
// later calls become no-ops and Link reports it.
type Stream struct {
	code   []byte
	labels []labelSlot
	fixups []Fixup
	marks  []alignMark
	err    error
}

// NewStream returns an empty stream.
func NewStream() *Stream {
	return &Stream{
		code:   make([]byte, 0, 4096),
		labels: make([]labelSlot, 1, 256),
	}
}

// Err returns the first error recorded while emitting.
func (s *Stream) Err() error { return s.err }

func (s *Stream) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Len is the number of bytes emitted so far.
func (s *Stream) Len() int { return len(s.code) }

// Code returns a copy of the unlinked bytes.
func (s *Stream) Code() []byte {
	out := make([]byte, len(s.code))
	copy(out, s.code)
	return out
}

// Fixups returns a copy of the pending fixups.
func (s *Stream) Fixups() []Fixup {
	out := make([]Fixup, len(s.fixups))
	copy(out, s.fixups)
	return out
}

// NewLabel allocates an unbound label.
func (s *Stream) NewLabel(name string) LabelID {
	s.labels = append(s.labels, labelSlot{name: name})
	return LabelID(len(s.labels) - 1)
}

// Bind resolves l to the current position.
func (s *Stream) Bind(l LabelID) {
	if !s.validLabel(l) {
		s.fail(fmt.Errorf("%w: %d", ErrInvalidLabel, l))
		return
	}
	slot := &s.labels[l]
	if slot.bound {
		s.fail(fmt.Errorf("%w: %q", ErrLabelRebound, slot.name))
		return
	}
	slot.bound = true
	slot.offset = len(s.code)
}

// Here allocates a label bound at the current position.
func (s *Stream) Here(name string) LabelID {
	l := s.NewLabel(name)
	s.Bind(l)
	return l
}

// Bound reports whether l has been bound.
func (s *Stream) Bound(l LabelID) bool {
	return s.validLabel(l) && s.labels[l].bound
}

// LabelName returns the name l was created with.
func (s *Stream) LabelName(l LabelID) string {
	if !s.validLabel(l) {
		return ""
	}
	return s.labels[l].name
}

// Offset returns the stream offset of a bound label.
func (s *Stream) Offset(l LabelID) (int, bool) {
	if !s.Bound(l) {
		return 0, false
	}
	return s.labels[l].offset, true
}

func (s *Stream) validLabel(l LabelID) bool {
	return l.IsValid() && int(l) < len(s.labels)
}

// Emit appends one instruction.
func (s *Stream) Emit(mn isa.Mnemonic, op Operand) {
	if s.err != nil {
		return
	}
	code, ok := isa.Encode(mn, op.Mode)
	if !ok {
		s.fail(fmt.Errorf("%w: %v %v", ErrUnknownEncoding, mn, op.Mode))
		return
	}
	if op.Label.IsValid() && !s.validLabel(op.Label) {
		s.fail(fmt.Errorf("%w: %d", ErrInvalidLabel, op.Label))
		return
	}
	s.code = append(s.code, code)
	site := len(s.code)
	switch op.Mode.OperandSize() {
	case 0:
	case 1:
		s.code = append(s.code, byte(op.Value))
		if op.Label.IsValid() {
			kind := FixupRelative
			switch op.part {
			case partLow:
				kind = FixupAddressLow
			case partHigh:
				kind = FixupAddressHigh
			}
			s.fixups = append(s.fixups, Fixup{Site: site, Label: op.Label, Kind: kind, Addend: op.Value})
			s.code[site] = 0
		}
	case 2:
		s.code = append(s.code, byte(op.Value), byte(op.Value>>8))
		if op.Label.IsValid() {
			kind := FixupAddress
			if mn == isa.JMP || mn == isa.JSR {
				kind = FixupAbsolute
			}
			s.fixups = append(s.fixups, Fixup{Site: site, Label: op.Label, Kind: kind, Addend: op.Value})
			s.code[site], s.code[site+1] = 0, 0
		}
	}
}

// Op emits an instruction without operand.
func (s *Stream) Op(mn isa.Mnemonic) {
	if mn == isa.ASL || mn == isa.LSR || mn == isa.ROL || mn == isa.ROR {
		s.Emit(mn, Acc())
		return
	}
	s.Emit(mn, Implied())
}

// Branch emits a conditional branch to l.
func (s *Stream) Branch(mn isa.Mnemonic, l LabelID) {
	s.Emit(mn, Rel(l))
}

// Jump emits JMP l.
func (s *Stream) Jump(l LabelID) {
	s.Emit(isa.JMP, Abs(At(l, 0)))
}

// Call emits JSR l.
func (s *Stream) Call(l LabelID) {
	s.Emit(isa.JSR, Abs(At(l, 0)))
}

// Data appends raw bytes.
func (s *Stream) Data(b ...byte) {
	if s.err != nil {
		return
	}
	s.code = append(s.code, b...)
}

// Align makes the next byte land on a multiple of n in the linked image.
// Labels bound at the current position move with the aligned bytes.
func (s *Stream) Align(n uint16) {
	if s.err != nil || n <= 1 {
		return
	}
	if n&(n-1) != 0 {
		s.fail(fmt.Errorf("%w: %d is not a power of two", ErrBadAlignment, n))
		return
	}
	s.marks = append(s.marks, alignMark{offset: len(s.code), align: int(n)})
}

// Word appends a little-endian address, recording a fixup for labels.
func (s *Stream) Word(ref AddressRef) {
	if s.err != nil {
		return
	}
	site := len(s.code)
	if ref.IsLabel() {
		if !s.validLabel(ref.Label) {
			s.fail(fmt.Errorf("%w: %d", ErrInvalidLabel, ref.Label))
			return
		}
		s.code = append(s.code, 0, 0)
		s.fixups = append(s.fixups, Fixup{Site: site, Label: ref.Label, Kind: FixupAddress, Addend: ref.Addr})
		return
	}
	s.code = append(s.code, byte(ref.Addr), byte(ref.Addr>>8))
}
