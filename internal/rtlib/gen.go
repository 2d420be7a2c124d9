package rtlib

import (
	"halfbyte/internal/asm"
	"halfbyte/internal/isa"
)

// gen is a thin instruction writer used by the routine bodies.
type gen struct {
	s   *asm.Stream
	lib *Library
}

func (g *gen) op(mn isa.Mnemonic)                  { g.s.Op(mn) }
func (g *gen) imm(mn isa.Mnemonic, v uint8)        { g.s.Emit(mn, asm.Imm(v)) }
func (g *gen) zp(mn isa.Mnemonic, a uint8)         { g.s.Emit(mn, asm.ZP(a)) }
func (g *gen) indY(mn isa.Mnemonic, a uint8)       { g.s.Emit(mn, asm.IndY(a)) }
func (g *gen) abs(mn isa.Mnemonic, addr uint16)    { g.s.Emit(mn, asm.Abs(asm.Fixed(addr))) }
func (g *gen) absY(mn isa.Mnemonic, addr uint16)   { g.s.Emit(mn, asm.AbsY(asm.Fixed(addr))) }
func (g *gen) tabX(mn isa.Mnemonic, l asm.LabelID) { g.s.Emit(mn, asm.AbsX(asm.At(l, 0))) }
func (g *gen) br(mn isa.Mnemonic, l asm.LabelID)   { g.s.Branch(mn, l) }
func (g *gen) jmp(l asm.LabelID)                   { g.s.Jump(l) }
func (g *gen) label() asm.LabelID                  { return g.s.NewLabel("") }
func (g *gen) bind(l asm.LabelID)                  { g.s.Bind(l) }

func (g *gen) here() asm.LabelID {
	l := g.label()
	g.bind(l)
	return l
}

// call emits JSR to another routine.
func (g *gen) call(id ID) { g.s.Call(g.lib.Require(id)) }

// tail emits JMP to another routine.
func (g *gen) tail(id ID) { g.s.Jump(g.lib.Require(id)) }

// loadPtr puts the address of l into A (low) and X (high).
func (g *gen) loadPtr(l asm.LabelID) {
	g.s.Emit(isa.LDA, asm.ImmLow(asm.At(l, 0)))
	g.s.Emit(isa.LDX, asm.ImmHigh(asm.At(l, 0)))
}

// ret16 returns the word at a in A/X.
func (g *gen) ret16(a uint8) {
	g.zp(isa.LDA, a)
	g.zp(isa.LDX, a+1)
	g.op(isa.RTS)
}

func (g *gen) mov16(dst, src uint8) {
	g.zp(isa.LDA, src)
	g.zp(isa.STA, dst)
	g.zp(isa.LDA, src+1)
	g.zp(isa.STA, dst+1)
}

func (g *gen) set16(dst uint8, v uint16) {
	g.imm(isa.LDA, uint8(v))
	g.zp(isa.STA, dst)
	g.imm(isa.LDA, uint8(v>>8))
	g.zp(isa.STA, dst+1)
}

// add16 is dst = a + b.
func (g *gen) add16(dst, a, b uint8) {
	g.op(isa.CLC)
	g.zp(isa.LDA, a)
	g.zp(isa.ADC, b)
	g.zp(isa.STA, dst)
	g.zp(isa.LDA, a+1)
	g.zp(isa.ADC, b+1)
	g.zp(isa.STA, dst+1)
}

// sub16 is dst = a - b.
func (g *gen) sub16(dst, a, b uint8) {
	g.op(isa.SEC)
	g.zp(isa.LDA, a)
	g.zp(isa.SBC, b)
	g.zp(isa.STA, dst)
	g.zp(isa.LDA, a+1)
	g.zp(isa.SBC, b+1)
	g.zp(isa.STA, dst+1)
}

// neg16 negates the word at a in place. Only A is touched.
func (g *gen) neg16(a uint8) {
	g.op(isa.SEC)
	g.imm(isa.LDA, 0)
	g.zp(isa.SBC, a)
	g.zp(isa.STA, a)
	g.imm(isa.LDA, 0)
	g.zp(isa.SBC, a+1)
	g.zp(isa.STA, a+1)
}

func (g *gen) asl16(a uint8) {
	g.zp(isa.ASL, a)
	g.zp(isa.ROL, a+1)
}

func (g *gen) lsr16(a uint8) {
	g.zp(isa.LSR, a+1)
	g.zp(isa.ROR, a)
}

// lsr16Sticky shifts right and folds the lost bit into bit 0.
func (g *gen) lsr16Sticky(a uint8) {
	g.lsr16(a)
	g.sticky(a)
}

// sticky ORs the carry into bit 0 of the byte at a.
func (g *gen) sticky(a uint8) {
	skip := g.label()
	g.br(isa.BCC, skip)
	g.zp(isa.LDA, a)
	g.imm(isa.ORA, 1)
	g.zp(isa.STA, a)
	g.bind(skip)
}

// ge16 leaves C set when the word at a >= the word at b (unsigned).
func (g *gen) ge16(a, b uint8) {
	g.zp(isa.LDA, a)
	g.zp(isa.CMP, b)
	g.zp(isa.LDA, a+1)
	g.zp(isa.SBC, b+1)
}

// isZero16 sets Z when the word at a is zero.
func (g *gen) isZero16(a uint8) {
	g.zp(isa.LDA, a)
	g.zp(isa.ORA, a+1)
}

// abs16 negates the word at a when it is negative.
func (g *gen) abs16(a uint8) {
	pos := g.label()
	g.zp(isa.LDA, a+1)
	g.br(isa.BPL, pos)
	g.neg16(a)
	g.bind(pos)
}
