package rtlib

import "halfbyte/internal/isa"

func registerInteger() {
	register(Routine{
		ID:   Mul8,
		Name: "mul8",
		Contract: Contract{
			Inputs:   "IntA, IntB (bytes)",
			Outputs:  "A = IntR = low byte of the product",
			Clobbers: "X, Work..Work+1",
		},
		emit: emitMul8,
	})
	register(Routine{
		ID:   Mul16,
		Name: "mul16",
		Contract: Contract{
			Inputs:   "IntA, IntB",
			Outputs:  "A/X = IntR = low word of the product",
			Clobbers: "Y, Work..Work+3",
		},
		emit: emitMul16,
	})
	register(Routine{
		ID:   DivU8,
		Name: "divu8",
		Contract: Contract{
			Inputs:   "IntA dividend, IntB divisor (bytes)",
			Outputs:  "A = IntR = quotient, IntRem = remainder",
			Clobbers: "X, Work",
		},
		emit: emitDivU8,
	})
	register(Routine{
		ID:   DivS8,
		Name: "divs8",
		Contract: Contract{
			Inputs:   "IntA dividend, IntB divisor (signed bytes)",
			Outputs:  "A = IntR = quotient, IntRem = remainder",
			Clobbers: "X, IntA, IntB, Work..Work+3",
		},
		Deps: []ID{DivU8},
		emit: emitDivS8,
	})
	register(Routine{
		ID:   DivU16,
		Name: "divu16",
		Contract: Contract{
			Inputs:   "IntA dividend, IntB divisor",
			Outputs:  "A/X = IntR = quotient, IntRem = remainder",
			Clobbers: "Y",
		},
		emit: emitDivU16,
	})
	register(Routine{
		ID:   DivS16,
		Name: "divs16",
		Contract: Contract{
			Inputs:   "IntA dividend, IntB divisor (signed)",
			Outputs:  "A/X = IntR = quotient, IntRem = remainder",
			Clobbers: "Y, IntA, IntB, Work..Work+1",
		},
		Deps: []ID{DivU16},
		emit: emitDivS16,
	})
}

// Shift-and-add over the eight multiplier bits.
func emitMul8(g *gen) {
	g.zp(isa.LDA, IntA)
	g.zp(isa.STA, Work+1)
	g.zp(isa.LDA, IntB)
	g.zp(isa.STA, Work)
	g.imm(isa.LDA, 0)
	g.imm(isa.LDX, 8)
	loop := g.here()
	skip := g.label()
	g.zp(isa.LSR, Work)
	g.br(isa.BCC, skip)
	g.op(isa.CLC)
	g.zp(isa.ADC, Work+1)
	g.bind(skip)
	g.zp(isa.ASL, Work+1)
	g.op(isa.DEX)
	g.br(isa.BNE, loop)
	g.zp(isa.STA, IntR)
	g.op(isa.RTS)
}

func emitMul16(g *gen) {
	g.mov16(Work, IntA)
	g.mov16(Work+2, IntB)
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, IntR)
	g.zp(isa.STA, IntR+1)
	g.imm(isa.LDY, 16)
	loop := g.here()
	skip := g.label()
	g.lsr16(Work + 2)
	g.br(isa.BCC, skip)
	g.add16(IntR, IntR, Work)
	g.bind(skip)
	g.asl16(Work)
	g.op(isa.DEY)
	g.br(isa.BNE, loop)
	g.ret16(IntR)
}

// Restoring division. The partial remainder lives in A; a carry out of the
// shift means it reached nine bits and is certainly >= the divisor.
func emitDivU8(g *gen) {
	ok := g.label()
	g.zp(isa.LDA, IntB)
	g.br(isa.BNE, ok)
	g.zp(isa.LDA, IntA)
	g.zp(isa.STA, IntRem)
	g.imm(isa.LDA, 0xFF)
	g.zp(isa.STA, IntR)
	g.op(isa.RTS)

	g.bind(ok)
	g.zp(isa.LDA, IntA)
	g.zp(isa.STA, Work)
	g.imm(isa.LDA, 0)
	g.imm(isa.LDX, 8)
	loop := g.here()
	sub, next := g.label(), g.label()
	g.zp(isa.ASL, Work)
	g.op(isa.ROL)
	g.br(isa.BCS, sub)
	g.zp(isa.CMP, IntB)
	g.br(isa.BCC, next)
	g.bind(sub)
	g.zp(isa.SBC, IntB)
	g.zp(isa.INC, Work)
	g.bind(next)
	g.op(isa.DEX)
	g.br(isa.BNE, loop)
	g.zp(isa.STA, IntRem)
	g.zp(isa.LDA, Work)
	g.zp(isa.STA, IntR)
	g.op(isa.RTS)
}

// negA is A = -A.
func (g *gen) negA() {
	g.imm(isa.EOR, 0xFF)
	g.op(isa.CLC)
	g.imm(isa.ADC, 1)
}

// absByte replaces the signed byte at a with its magnitude.
func (g *gen) absByte(a uint8) {
	pos := g.label()
	g.zp(isa.LDA, a)
	g.br(isa.BPL, pos)
	g.negA()
	g.zp(isa.STA, a)
	g.bind(pos)
}

func emitDivS8(g *gen) {
	ok := g.label()
	g.zp(isa.LDA, IntB)
	g.br(isa.BNE, ok)
	g.tail(DivU8)

	g.bind(ok)
	g.zp(isa.LDA, IntA)
	g.zp(isa.STA, Work+3)
	g.zp(isa.EOR, IntB)
	g.zp(isa.STA, Work+2)
	g.absByte(IntA)
	g.absByte(IntB)
	g.call(DivU8)

	qpos, rpos := g.label(), g.label()
	g.zp(isa.LDX, Work+2)
	g.br(isa.BPL, qpos)
	g.negA()
	g.zp(isa.STA, IntR)
	g.bind(qpos)
	g.zp(isa.LDA, Work+3)
	g.br(isa.BPL, rpos)
	g.imm(isa.LDA, 0)
	g.op(isa.SEC)
	g.zp(isa.SBC, IntRem)
	g.zp(isa.STA, IntRem)
	g.bind(rpos)
	g.zp(isa.LDA, IntR)
	g.op(isa.RTS)
}

// Same scheme as divu8 with the quotient shifting in through IntR and a
// 17-bit partial remainder in IntRem plus carry.
func emitDivU16(g *gen) {
	ok := g.label()
	g.isZero16(IntB)
	g.br(isa.BNE, ok)
	g.mov16(IntRem, IntA)
	g.imm(isa.LDA, 0xFF)
	g.zp(isa.STA, IntR)
	g.zp(isa.STA, IntR+1)
	g.op(isa.TAX)
	g.op(isa.RTS)

	g.bind(ok)
	g.mov16(IntR, IntA)
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, IntRem)
	g.zp(isa.STA, IntRem+1)
	g.imm(isa.LDY, 16)
	loop := g.here()
	sub, next := g.label(), g.label()
	g.asl16(IntR)
	g.zp(isa.ROL, IntRem)
	g.zp(isa.ROL, IntRem+1)
	g.br(isa.BCS, sub)
	g.ge16(IntRem, IntB)
	g.br(isa.BCC, next)
	g.bind(sub)
	g.zp(isa.LDA, IntRem)
	g.zp(isa.SBC, IntB)
	g.zp(isa.STA, IntRem)
	g.zp(isa.LDA, IntRem+1)
	g.zp(isa.SBC, IntB+1)
	g.zp(isa.STA, IntRem+1)
	g.zp(isa.INC, IntR)
	g.bind(next)
	g.op(isa.DEY)
	g.br(isa.BNE, loop)
	g.ret16(IntR)
}

func emitDivS16(g *gen) {
	ok := g.label()
	g.isZero16(IntB)
	g.br(isa.BNE, ok)
	g.tail(DivU16)

	g.bind(ok)
	g.zp(isa.LDA, IntA+1)
	g.zp(isa.STA, Work+1)
	g.zp(isa.EOR, IntB+1)
	g.zp(isa.STA, Work)
	g.abs16(IntA)
	g.abs16(IntB)
	g.call(DivU16)

	qpos, rpos := g.label(), g.label()
	g.zp(isa.LDA, Work)
	g.br(isa.BPL, qpos)
	g.neg16(IntR)
	g.bind(qpos)
	g.zp(isa.LDA, Work+1)
	g.br(isa.BPL, rpos)
	g.neg16(IntRem)
	g.bind(rpos)
	g.ret16(IntR)
}
