// Package rtlib is the runtime library linked into every program: integer
// multiply and divide, 12.4 fixed point, software binary16 floats, strings,
// number formatting, character output and a pseudo-random generator.
//
// Routines communicate through the zero-page slots in zeropage.go. The code
// generator asks for routines with Library.Call; only the routines asked for
// (and their dependencies) are emitted, once each, after the program code.
package rtlib

import (
	"fmt"

	"halfbyte/internal/asm"
	"halfbyte/internal/layout"
)

// ID names a runtime routine.
type ID uint8

const (
	Mul8 ID = iota
	Mul16
	DivU8
	DivS8
	DivU16
	DivS16
	FixMul
	FixDiv
	FltPack
	FltAdd
	FltSub
	FltMul
	FltDiv
	FltCmp
	FltFromInt
	U16ToFlt
	I16ToFlt
	FltTrunc
	FltSatI16
	FltToU16
	FltToI16
	FixToFlt
	FltToFix
	StrConcat
	StrEq
	StrLen
	FmtU16
	U16ToStr
	I16ToStr
	FixToStr
	FltToStr
	BoolToStr
	ParseU16
	StrToU16
	StrToI16
	PrintStr
	PrintNl
	RandSeed
	RandNext
	RandInit
	StrAt
	RandRange
	idCount
)

// Contract documents how a routine is called.
type Contract struct {
	Inputs    string
	Outputs   string
	Clobbers  string
	Preserves string
}

// Routine is one entry of the registry.
type Routine struct {
	ID       ID
	Name     string
	Contract Contract
	Deps     []ID
	Internal bool // helper not called by generated code
	emit     func(g *gen)
}

func (id ID) String() string {
	if id < idCount {
		return registry[id].Name
	}
	return fmt.Sprintf("ID(%d)", id)
}

// Lookup returns the registry entry for id.
func Lookup(id ID) (Routine, bool) {
	if id >= idCount {
		return Routine{}, false
	}
	return registry[id], true
}

// All lists the registry in emission order.
func All() []Routine {
	out := make([]Routine, 0, idCount)
	for id := ID(0); id < idCount; id++ {
		out = append(out, registry[id])
	}
	return out
}

// Closure returns id and everything it depends on, in registry order.
func Closure(id ID) []ID {
	seen := make(map[ID]bool)
	var visit func(ID)
	visit = func(x ID) {
		if seen[x] {
			return
		}
		seen[x] = true
		for _, d := range registry[x].Deps {
			visit(d)
		}
	}
	visit(id)
	out := make([]ID, 0, len(seen))
	for x := ID(0); x < idCount; x++ {
		if seen[x] {
			out = append(out, x)
		}
	}
	return out
}

// Library tracks which routines a program needs and emits them.
type Library struct {
	stream  *asm.Stream
	target  layout.Target
	labels  [idCount]asm.LabelID
	used    [idCount]bool
	emitted [idCount]bool
}

// New creates a library that writes into s.
func New(s *asm.Stream, t layout.Target) *Library {
	return &Library{stream: s, target: t}
}

// Require marks id and its dependencies as needed and returns its label.
func (l *Library) Require(id ID) asm.LabelID {
	if !l.used[id] {
		l.used[id] = true
		for _, d := range registry[id].Deps {
			l.Require(d)
		}
	}
	if !l.labels[id].IsValid() {
		l.labels[id] = l.stream.NewLabel(registry[id].Name)
	}
	return l.labels[id]
}

// Call emits JSR id.
func (l *Library) Call(id ID) {
	l.stream.Call(l.Require(id))
}

// Required lists the needed routines in registry order.
func (l *Library) Required() []ID {
	var out []ID
	for id := ID(0); id < idCount; id++ {
		if l.used[id] {
			out = append(out, id)
		}
	}
	return out
}

// Emit writes every needed routine that has not been written yet. It loops
// until no routine pulls in a new one, so the order is always the registry
// order of each pass.
func (l *Library) Emit() {
	g := &gen{s: l.stream, lib: l}
	for {
		progress := false
		for id := ID(0); id < idCount; id++ {
			if !l.used[id] || l.emitted[id] {
				continue
			}
			l.emitted[id] = true
			progress = true
			l.stream.Bind(l.Require(id))
			registry[id].emit(g)
		}
		if !progress {
			return
		}
	}
}

var registry [idCount]Routine

func register(r Routine) {
	if registry[r.ID].emit != nil {
		panic(fmt.Sprintf("rtlib: routine %d registered twice", r.ID))
	}
	registry[r.ID] = r
}

func init() {
	registerInteger()
	registerFixed()
	registerFloat()
	registerStrings()
	registerIO()
	for id := ID(0); id < idCount; id++ {
		if registry[id].emit == nil {
			panic(fmt.Sprintf("rtlib: routine %d has no body", id))
		}
	}
}
