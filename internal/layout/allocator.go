package layout

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"halfbyte/internal/asm"
	"halfbyte/internal/hir"
)

var (
	// ErrOutOfVariableSpace reports a variable region that cannot hold the
	// program's data.
	ErrOutOfVariableSpace = errors.New("layout: out of variable space")
	// ErrAllocationCollision reports a symbol allocated twice.
	ErrAllocationCollision = errors.New("layout: symbol allocated twice")
	// ErrInvalidSize reports a symbol with no storage size.
	ErrInvalidSize = errors.New("layout: invalid storage size")
)

// Slot is one allocated symbol.
type Slot struct {
	Symbol hir.SymbolID
	Name   string
	Addr   uint16
	Size   int
}

// Allocator hands out static addresses from the variable region in the
// order symbols are presented. Nothing is ever freed: every function owns
// its frame for the whole run.
type Allocator struct {
	target Target
	next   int
	hidden hir.SymbolID
	addrs  map[hir.SymbolID]asm.AddressRef
	slots  []Slot
}

// NewAllocator starts allocating at t.VarBase.
func NewAllocator(t Target) *Allocator {
	return &Allocator{
		target: t,
		next:   int(t.VarBase),
		addrs:  make(map[hir.SymbolID]asm.AddressRef),
	}
}

// Allocate reserves size bytes for id.
func (a *Allocator) Allocate(id hir.SymbolID, name string, size int) (asm.AddressRef, error) {
	if _, dup := a.addrs[id]; dup {
		return asm.AddressRef{}, fmt.Errorf("%w: %q", ErrAllocationCollision, name)
	}
	if size <= 0 {
		return asm.AddressRef{}, fmt.Errorf("%w: %q has %d bytes", ErrInvalidSize, name, size)
	}
	end := a.next + size
	if end > int(a.target.VarLimit) {
		return asm.AddressRef{}, fmt.Errorf("%w: %q needs %d bytes, %d left", ErrOutOfVariableSpace, name, size, int(a.target.VarLimit)-a.next)
	}
	addr, err := safecast.Conv[uint16](a.next)
	if err != nil {
		return asm.AddressRef{}, fmt.Errorf("%w: %w", ErrOutOfVariableSpace, err)
	}
	ref := asm.Fixed(addr)
	a.addrs[id] = ref
	a.slots = append(a.slots, Slot{Symbol: id, Name: name, Addr: addr, Size: size})
	a.next = end
	return ref, nil
}

// AllocateSymbol reserves storage for a program symbol.
func (a *Allocator) AllocateSymbol(p *hir.Program, id hir.SymbolID) (asm.AddressRef, error) {
	sym := p.Symbol(id)
	if sym == nil {
		return asm.AddressRef{}, fmt.Errorf("%w: unknown symbol %d", ErrInvalidSize, id)
	}
	return a.Allocate(id, sym.Name, sym.Type.Size())
}

// AllocateHidden reserves size bytes that belong to no symbol, such as the
// saved bound of a counting loop.
func (a *Allocator) AllocateHidden(name string, size int) (asm.AddressRef, error) {
	a.hidden--
	return a.Allocate(a.hidden, name, size)
}

// Lookup returns the address of an allocated symbol.
func (a *Allocator) Lookup(id hir.SymbolID) (asm.AddressRef, bool) {
	ref, ok := a.addrs[id]
	return ref, ok
}

// Slots lists allocations in order.
func (a *Allocator) Slots() []Slot {
	out := make([]Slot, len(a.slots))
	copy(out, a.slots)
	return out
}

// Used is the number of bytes handed out.
func (a *Allocator) Used() int {
	return a.next - int(a.target.VarBase)
}
