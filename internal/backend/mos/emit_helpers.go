package mos

import (
	"fmt"

	"halfbyte/internal/asm"
	"halfbyte/internal/isa"
	"halfbyte/internal/rtlib"
	"halfbyte/internal/source"
	"halfbyte/internal/types"
)

const startLabel = "start"

func noSpan() source.Span { return source.Span{} }

func (e *Emitter) op(mn isa.Mnemonic)                      { e.s.Op(mn) }
func (e *Emitter) imm(mn isa.Mnemonic, v uint8)            { e.s.Emit(mn, asm.Imm(v)) }
func (e *Emitter) zp(mn isa.Mnemonic, a uint8)             { e.s.Emit(mn, asm.ZP(a)) }
func (e *Emitter) mem(mn isa.Mnemonic, ref asm.AddressRef) { e.s.Emit(mn, asm.Abs(ref)) }
func (e *Emitter) branch(mn isa.Mnemonic, l asm.LabelID)   { e.s.Branch(mn, l) }
func (e *Emitter) jump(l asm.LabelID)                      { e.s.Jump(l) }
func (e *Emitter) bind(l asm.LabelID)                      { e.s.Bind(l) }
func (e *Emitter) call(id rtlib.ID)                        { e.lib.Call(id) }

// label allocates a named label. Names carry a sequence number so that every
// control-flow target shows up in the symbol table.
func (e *Emitter) label(base string) asm.LabelID {
	e.labelSeq++
	return e.s.NewLabel(fmt.Sprintf("%s_%d", base, e.labelSeq))
}

// load puts the value stored at ref into A or A/X.
func (e *Emitter) load(ref asm.AddressRef, wide bool) {
	e.mem(isa.LDA, ref)
	if wide {
		e.mem(isa.LDX, ref.Plus(1))
	}
}

// store writes A or A/X to ref.
func (e *Emitter) store(ref asm.AddressRef, wide bool) {
	e.mem(isa.STA, ref)
	if wide {
		e.mem(isa.STX, ref.Plus(1))
	}
}

func (e *Emitter) loadZP(slot uint8, wide bool) {
	e.zp(isa.LDA, slot)
	if wide {
		e.zp(isa.LDX, slot+1)
	}
}

func (e *Emitter) storeZP(slot uint8, wide bool) {
	e.zp(isa.STA, slot)
	if wide {
		e.zp(isa.STX, slot+1)
	}
}

// loadImm puts a constant into A or A/X.
func (e *Emitter) loadImm(v uint16, wide bool) {
	e.imm(isa.LDA, uint8(v))
	if wide {
		e.imm(isa.LDX, uint8(v>>8))
	}
}

// push saves the current value on the hardware stack, low byte first.
func (e *Emitter) push(wide bool) {
	e.op(isa.PHA)
	if wide {
		e.op(isa.TXA)
		e.op(isa.PHA)
	}
}

// pop restores a value saved by push.
func (e *Emitter) pop(wide bool) {
	if wide {
		e.op(isa.PLA)
		e.op(isa.TAX)
	}
	e.op(isa.PLA)
}

// setFlags makes Z reflect A after code that may leave flags stale.
func (e *Emitter) setFlags() { e.imm(isa.CMP, 0) }

// materialize turns the flag condition tested by mn into 0 or 1 in A.
func (e *Emitter) materialize(mn isa.Mnemonic) {
	yes := e.label("true")
	done := e.label("bool")
	e.branch(mn, yes)
	e.imm(isa.LDA, 0)
	e.branch(isa.BEQ, done)
	e.bind(yes)
	e.imm(isa.LDA, 1)
	e.bind(done)
}

// extend widens an 8-bit value in A to A/X.
func (e *Emitter) extend(k types.Kind) {
	if k.Wide() {
		return
	}
	e.imm(isa.LDX, 0)
	if k != types.KindI8 {
		return
	}
	pos := e.label("sext")
	e.imm(isa.CMP, 0x80)
	e.branch(isa.BCC, pos)
	e.op(isa.DEX)
	e.bind(pos)
}

// zero loads the zero value of t; used where lowering gave up after an error.
func (e *Emitter) zero(t types.Type) {
	e.loadImm(0, t.Wide())
}
