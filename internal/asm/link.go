package asm

import (
	"fmt"
	"sort"

	"fortio.org/safecast"

	"halfbyte/internal/isa"
)

// trampolineGrowth is what rewriting `Bcc target` into `B!cc +3; JMP target`
// adds at the site.
const trampolineGrowth = 3

// maxLayoutPasses bounds the alternation of trampolines and padding.
const maxLayoutPasses = 32

// Symbol is a named label with its final address.
type Symbol struct {
	Name string
	Addr uint16
}

// Image is a linked, position-fixed program.
type Image struct {
	Origin      uint16
	Entry       uint16
	Bytes       []byte
	Symbols     []Symbol
	Trampolines int
}

// End is the first address past the image.
func (img *Image) End() int {
	return int(img.Origin) + len(img.Bytes)
}

// Lookup finds the address of the first symbol named name.
func (img *Image) Lookup(name string) (uint16, bool) {
	for _, sym := range img.Symbols {
		if sym.Name == name {
			return sym.Addr, true
		}
	}
	return 0, false
}

// SymbolMap indexes symbols by address, keeping the first name per address.
func (img *Image) SymbolMap() map[uint16]string {
	out := make(map[uint16]string, len(img.Symbols))
	for _, sym := range img.Symbols {
		if _, ok := out[sym.Addr]; !ok {
			out[sym.Addr] = sym.Name
		}
	}
	return out
}

type linker struct {
	origin  int
	code    []byte
	offsets []int
	fixups  []Fixup
	marks   []alignMark
	grown   int
}

// Link lays the stream out at origin and resolves every fixup. The stream is
// not modified, so linking twice yields identical images.
func (s *Stream) Link(origin uint16) (*Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	l := &linker{
		origin:  int(origin),
		code:    append([]byte(nil), s.code...),
		offsets: make([]int, len(s.labels)),
		fixups:  append([]Fixup(nil), s.fixups...),
		marks:   append([]alignMark(nil), s.marks...),
	}
	for id := 1; id < len(s.labels); id++ {
		l.offsets[id] = s.labels[id].offset
	}
	for _, f := range l.fixups {
		if !s.Bound(f.Label) {
			return nil, fmt.Errorf("%w: %q referenced at offset %d", ErrUnresolvedLabel, s.LabelName(f.Label), f.Site)
		}
	}
	if err := l.layout(); err != nil {
		return nil, err
	}
	if err := l.patch(); err != nil {
		return nil, err
	}

	img := &Image{
		Origin:      origin,
		Entry:       origin,
		Bytes:       l.code,
		Trampolines: l.grown,
	}
	for id := 1; id < len(s.labels); id++ {
		if s.labels[id].name == "" || !s.labels[id].bound {
			continue
		}
		addr, err := safecast.Conv[uint16](l.origin + l.offsets[id])
		if err != nil {
			return nil, fmt.Errorf("%w: label %q", ErrImageTooLarge, s.labels[id].name)
		}
		img.Symbols = append(img.Symbols, Symbol{Name: s.labels[id].name, Addr: addr})
	}
	sort.SliceStable(img.Symbols, func(i, j int) bool { return img.Symbols[i].Addr < img.Symbols[j].Addr })
	return img, nil
}

// layout alternates trampolines and alignment padding until neither
// changes the code. Padding can push a branch out of range and a trampoline
// can break an alignment, so one pass of each is not enough.
func (l *linker) layout() error {
	for range maxLayoutPasses {
		if err := l.trampoline(); err != nil {
			return err
		}
		if !l.align() {
			return nil
		}
	}
	return fmt.Errorf("%w: layout did not settle after %d passes", ErrBadAlignment, maxLayoutPasses)
}

// align recomputes the padding of every mark and reports whether any
// changed.
func (l *linker) align() bool {
	changed := false
	for i := range l.marks {
		m := &l.marks[i]
		want := -(l.origin + m.offset) & (m.align - 1)
		delta := want - m.pad
		if delta == 0 {
			continue
		}
		at := m.offset
		grown := make([]byte, 0, len(l.code)+max(delta, 0))
		grown = append(grown, l.code[:at]...)
		if delta > 0 {
			grown = append(grown, make([]byte, delta)...)
			grown = append(grown, l.code[at:]...)
		} else {
			grown = append(grown, l.code[at-delta:]...)
		}
		l.code = grown
		l.shift(at, delta)
		m.offset, m.pad = at, want
		changed = true
	}
	return changed
}

// shift moves every label, fixup and mark at or after from by delta.
func (l *linker) shift(from, delta int) {
	for id := range l.offsets {
		if l.offsets[id] >= from {
			l.offsets[id] += delta
		}
	}
	for j := range l.fixups {
		if l.fixups[j].Site >= from {
			l.fixups[j].Site += delta
		}
	}
	for j := range l.marks {
		if l.marks[j].offset >= from {
			l.marks[j].offset += delta
		}
	}
}

// trampoline runs the worklist of relative fixups until a pass makes no
// insertion. Each insertion turns one relative fixup into an absolute one, so
// the number of passes is bounded by the number of branches.
func (l *linker) trampoline() error {
	queue := make([]int, 0, len(l.fixups))
	for i, f := range l.fixups {
		if f.Kind == FixupRelative {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		pending := queue[:0]
		inserted := false
		for _, i := range queue {
			if isa.BranchFits(l.displacement(l.fixups[i])) {
				pending = append(pending, i)
				continue
			}
			if err := l.expand(i); err != nil {
				return err
			}
			inserted = true
		}
		if !inserted {
			return nil
		}
		if l.origin+len(l.code) > 0x10000 {
			return fmt.Errorf("%w: %d bytes at $%04X", ErrImageTooLarge, len(l.code), l.origin)
		}
		queue = pending
	}
	return nil
}

func (l *linker) displacement(f Fixup) int {
	return l.offsets[f.Label] + int(f.Addend) - (f.Site + 1)
}

// expand rewrites the branch owning fixup i:
//
//	Bcc target      ->      B!cc +3
//	                        JMP target
func (l *linker) expand(i int) error {
	f := l.fixups[i]
	opAt := f.Site - 1
	inv, ok := isa.InvertBranchCode(l.code[opAt])
	if !ok {
		return fmt.Errorf("asm: fixup at %d does not belong to a branch ($%02X)", f.Site, l.code[opAt])
	}
	jmp, _ := isa.Encode(isa.JMP, isa.Absolute)

	grown := make([]byte, 0, len(l.code)+trampolineGrowth)
	grown = append(grown, l.code[:f.Site+1]...)
	grown = append(grown, jmp, 0, 0)
	grown = append(grown, l.code[f.Site+1:]...)
	grown[opAt] = inv
	grown[f.Site] = trampolineGrowth
	l.code = grown

	l.shift(f.Site+1, trampolineGrowth)
	l.fixups[i] = Fixup{Site: f.Site + 2, Label: f.Label, Kind: FixupAbsolute, Addend: f.Addend}
	l.grown++
	return nil
}

func (l *linker) patch() error {
	if l.origin+len(l.code) > 0x10000 {
		return fmt.Errorf("%w: %d bytes at $%04X", ErrImageTooLarge, len(l.code), l.origin)
	}
	for _, f := range l.fixups {
		target, err := safecast.Conv[uint16](l.origin + l.offsets[f.Label] + int(f.Addend))
		if err != nil {
			return fmt.Errorf("%w: fixup target at %d", ErrImageTooLarge, f.Site)
		}
		switch f.Kind {
		case FixupRelative:
			disp := l.displacement(f)
			if !isa.BranchFits(disp) {
				return fmt.Errorf("asm: branch at %d still out of range (%d)", f.Site, disp)
			}
			l.code[f.Site] = byte(int8(disp))
		case FixupAbsolute, FixupAddress:
			l.code[f.Site] = byte(target)
			l.code[f.Site+1] = byte(target >> 8)
		case FixupAddressLow:
			l.code[f.Site] = byte(target)
		case FixupAddressHigh:
			l.code[f.Site] = byte(target >> 8)
		}
	}
	return nil
}
