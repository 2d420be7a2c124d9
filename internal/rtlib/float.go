package rtlib

import (
	"halfbyte/internal/asm"
	"halfbyte/internal/isa"
)

// Floats are IEEE 754 binary16. Inside the routines a finite non-zero value
// is unpacked to a sign byte, a signed exponent e and a word m whose leading
// one sits at bit 13, so that value = m * 2^(e-28). The three bits below the
// 11-bit mantissa are guard, round and sticky.

const (
	halfNaN  = 0x7E00
	hiExpMsk = 0x7C
	mantLead = 0x20 // bit 13 in the high byte
	mantOver = 0x40 // bit 14 in the high byte
)

func registerFloat() {
	register(Routine{
		ID:   FltPack,
		Name: "flt_pack",
		Contract: Contract{
			Inputs:   "Work sign, Work+1 exponent, FltR mantissa",
			Outputs:  "A/X = FltR = rounded half",
			Clobbers: "Work+1..Work+2",
		},
		Internal: true,
		emit:     emitFltPack,
	})
	register(Routine{
		ID:   FltAdd,
		Name: "flt_add",
		Contract: Contract{
			Inputs:   "FltA, FltB",
			Outputs:  "A/X = FltR = FltA + FltB",
			Clobbers: "X, Y, FltA, FltB, Work..Work+3",
		},
		Deps: []ID{FltPack},
		emit: emitFltAdd,
	})
	register(Routine{
		ID:   FltSub,
		Name: "flt_sub",
		Contract: Contract{
			Inputs:   "FltA, FltB",
			Outputs:  "A/X = FltR = FltA - FltB",
			Clobbers: "X, Y, FltA, FltB, Work..Work+3",
		},
		Deps: []ID{FltAdd},
		emit: emitFltSub,
	})
	register(Routine{
		ID:   FltMul,
		Name: "flt_mul",
		Contract: Contract{
			Inputs:   "FltA, FltB",
			Outputs:  "A/X = FltR = FltA * FltB",
			Clobbers: "X, FltA, FltB, Work..Work+3",
		},
		Deps: []ID{FltPack},
		emit: emitFltMul,
	})
	register(Routine{
		ID:   FltDiv,
		Name: "flt_div",
		Contract: Contract{
			Inputs:   "FltA, FltB",
			Outputs:  "A/X = FltR = FltA / FltB",
			Clobbers: "Y, FltA, FltB, Work..Work+3",
		},
		Deps: []ID{FltPack},
		emit: emitFltDiv,
	})
	register(Routine{
		ID:   FltCmp,
		Name: "flt_cmp",
		Contract: Contract{
			Inputs:   "FltA, FltB",
			Outputs:  "A = $FF (less), 0 (equal) or 1 (greater or unordered)",
			Clobbers: "FltA, FltB",
		},
		emit: emitFltCmp,
	})
	register(Routine{
		ID:   FltFromInt,
		Name: "flt_from_int",
		Contract: Contract{
			Inputs:   "Work sign, IntA magnitude",
			Outputs:  "A/X = FltR",
			Clobbers: "Work+1..Work+2",
		},
		Internal: true,
		Deps:     []ID{FltPack},
		emit:     emitFltFromInt,
	})
	register(Routine{
		ID:   U16ToFlt,
		Name: "u16_to_flt",
		Contract: Contract{
			Inputs:   "IntA",
			Outputs:  "A/X = FltR",
			Clobbers: "Work..Work+2",
		},
		Deps: []ID{FltFromInt},
		emit: emitU16ToFlt,
	})
	register(Routine{
		ID:   I16ToFlt,
		Name: "i16_to_flt",
		Contract: Contract{
			Inputs:   "IntA (signed)",
			Outputs:  "A/X = FltR",
			Clobbers: "IntA, Work..Work+2",
		},
		Deps: []ID{FltFromInt},
		emit: emitI16ToFlt,
	})
	register(Routine{
		ID:   FltTrunc,
		Name: "flt_trunc",
		Contract: Contract{
			Inputs:   "FltA, Work+5 bias (28 integer, 24 fixed)",
			Outputs:  "Work sign, FltR magnitude ($FFFF when too large)",
			Clobbers: "X, FltA, Work+1",
		},
		Internal: true,
		emit:     emitFltTrunc,
	})
	register(Routine{
		ID:   FltSatI16,
		Name: "flt_sat_i16",
		Contract: Contract{
			Inputs:   "Work sign, FltR magnitude",
			Outputs:  "A/X = IntR, saturated to the i16 range",
			Clobbers: "FltR",
		},
		Internal: true,
		emit:     emitFltSatI16,
	})
	register(Routine{
		ID:   FltToU16,
		Name: "flt_to_u16",
		Contract: Contract{
			Inputs:   "FltA",
			Outputs:  "A/X = IntR, truncated and saturated, negatives give 0",
			Clobbers: "X, FltA, FltR, Work..Work+1, Work+5",
		},
		Deps: []ID{FltTrunc},
		emit: emitFltToU16,
	})
	register(Routine{
		ID:   FltToI16,
		Name: "flt_to_i16",
		Contract: Contract{
			Inputs:   "FltA",
			Outputs:  "A/X = IntR, truncated and saturated",
			Clobbers: "X, FltA, FltR, Work..Work+1, Work+5",
		},
		Deps: []ID{FltTrunc, FltSatI16},
		emit: emitFltToI16,
	})
	register(Routine{
		ID:   FixToFlt,
		Name: "fix_to_flt",
		Contract: Contract{
			Inputs:   "FixA",
			Outputs:  "A/X = FltR",
			Clobbers: "IntA, Work..Work+2",
		},
		Deps: []ID{I16ToFlt},
		emit: emitFixToFlt,
	})
	register(Routine{
		ID:   FltToFix,
		Name: "flt_to_fix",
		Contract: Contract{
			Inputs:   "FltA",
			Outputs:  "A/X = FixR, truncated and saturated",
			Clobbers: "X, IntR, FltA, FltR, Work..Work+1, Work+5",
		},
		Deps: []ID{FltTrunc, FltSatI16},
		emit: emitFltToFix,
	})
}

// special branches to l when the half at a has an all-ones exponent.
func (g *gen) special(a uint8, l asm.LabelID) {
	g.zp(isa.LDA, a+1)
	g.imm(isa.AND, hiExpMsk)
	g.imm(isa.CMP, hiExpMsk)
	g.br(isa.BEQ, l)
}

// zeroHalf branches to l when the half at a is +0 or -0.
func (g *gen) zeroHalf(a uint8, l asm.LabelID) {
	g.zp(isa.LDA, a+1)
	g.imm(isa.AND, 0x7F)
	g.zp(isa.ORA, a)
	g.br(isa.BEQ, l)
}

// nanHalf branches to l when the half at a is a NaN.
func (g *gen) nanHalf(a uint8, l asm.LabelID) {
	skip := g.label()
	g.zp(isa.LDA, a+1)
	g.imm(isa.AND, hiExpMsk)
	g.imm(isa.CMP, hiExpMsk)
	g.br(isa.BNE, skip)
	g.zp(isa.LDA, a+1)
	g.imm(isa.AND, 0x03)
	g.zp(isa.ORA, a)
	g.br(isa.BNE, l)
	g.bind(skip)
}

// retConst returns the constant v through r.
func (g *gen) retConst(r uint8, v uint16) {
	g.set16(r, v)
	g.ret16(r)
}

// retSigned returns a signed zero or infinity: hi is the exponent part of the
// high byte, the sign comes from bit 7 of Work.
func (g *gen) retSigned(hi uint8) {
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, FltR)
	g.imm(isa.LDA, hi)
	g.zp(isa.ORA, Work)
	g.zp(isa.STA, FltR+1)
	g.ret16(FltR)
}

// unpack turns the finite non-zero half at m into mantissa form in place,
// storing the sign in bit 7 of sign and the exponent in e.
func (g *gen) unpack(m, sign, e uint8) {
	subnormal, shift, norm, done := g.label(), g.label(), g.label(), g.label()
	g.zp(isa.LDA, m+1)
	g.imm(isa.AND, 0x80)
	g.zp(isa.STA, sign)
	g.zp(isa.LDA, m+1)
	g.op(isa.LSR)
	g.op(isa.LSR)
	g.imm(isa.AND, 0x1F)
	g.zp(isa.STA, e)
	g.zp(isa.LDA, m+1)
	g.imm(isa.AND, 0x03)
	g.zp(isa.STA, m+1)
	g.zp(isa.LDA, e)
	g.br(isa.BEQ, subnormal)
	g.zp(isa.LDA, m+1)
	g.imm(isa.ORA, 0x04)
	g.zp(isa.STA, m+1)
	g.jmp(shift)
	g.bind(subnormal)
	g.zp(isa.INC, e)
	g.bind(shift)
	g.asl16(m)
	g.asl16(m)
	g.asl16(m)
	g.bind(norm)
	g.zp(isa.LDA, m+1)
	g.imm(isa.AND, mantLead)
	g.br(isa.BNE, done)
	g.asl16(m)
	g.zp(isa.DEC, e)
	g.jmp(norm)
	g.bind(done)
}

// swap exchanges the bytes at a and b through Y.
func (g *gen) swap(a, b uint8) {
	g.zp(isa.LDA, a)
	g.zp(isa.LDY, b)
	g.zp(isa.STA, b)
	g.zp(isa.STY, a)
}

// emitFltPack rounds the unpacked value to nearest even and encodes it.
// Exponents at or below zero are denormalised first; an exponent of 31 or
// more after rounding gives infinity.
func emitFltPack(g *gen) {
	denorm, shift, round := g.label(), g.label(), g.label()
	g.bind(denorm)
	g.zp(isa.LDA, Work+1)
	g.br(isa.BMI, shift)
	g.br(isa.BNE, round)
	g.bind(shift)
	g.lsr16Sticky(FltR)
	g.zp(isa.INC, Work+1)
	g.jmp(denorm)

	g.bind(round)
	up, carry, rounded := g.label(), g.label(), g.label()
	g.zp(isa.LDA, FltR)
	g.imm(isa.AND, 0x07)
	g.zp(isa.STA, Work+2)
	g.lsr16(FltR)
	g.lsr16(FltR)
	g.lsr16(FltR)
	g.zp(isa.LDA, Work+2)
	g.imm(isa.CMP, 5)
	g.br(isa.BCS, up)
	g.imm(isa.CMP, 4)
	g.br(isa.BNE, rounded)
	g.zp(isa.LDA, FltR)
	g.imm(isa.AND, 0x01)
	g.br(isa.BEQ, rounded)
	g.bind(up)
	g.zp(isa.INC, FltR)
	g.br(isa.BNE, carry)
	g.zp(isa.INC, FltR+1)
	g.bind(carry)
	g.zp(isa.LDA, FltR+1)
	g.imm(isa.AND, 0x08)
	g.br(isa.BEQ, rounded)
	g.lsr16(FltR)
	g.zp(isa.INC, Work+1)

	g.bind(rounded)
	inf, subnormal, sign := g.label(), g.label(), g.label()
	g.zp(isa.LDA, Work+1)
	g.imm(isa.CMP, 31)
	g.br(isa.BCS, inf)
	g.zp(isa.LDA, FltR+1)
	g.imm(isa.AND, 0x04)
	g.br(isa.BEQ, subnormal)
	g.zp(isa.LDA, Work+1)
	g.op(isa.ASL)
	g.op(isa.ASL)
	g.zp(isa.STA, Work+2)
	g.zp(isa.LDA, FltR+1)
	g.imm(isa.AND, 0x03)
	g.zp(isa.ORA, Work+2)
	g.jmp(sign)
	g.bind(subnormal)
	g.zp(isa.LDA, FltR+1)
	g.bind(sign)
	g.zp(isa.ORA, Work)
	g.zp(isa.STA, FltR+1)
	g.ret16(FltR)
	g.bind(inf)
	g.retSigned(hiExpMsk)
}

func emitFltAdd(g *gen) {
	aSpecial, aZero, retA, retB, nan := g.label(), g.label(), g.label(), g.label(), g.label()
	g.special(FltA, aSpecial)
	g.special(FltB, retB)
	g.zeroHalf(FltA, aZero)
	g.zeroHalf(FltB, retA)

	g.unpack(FltA, Work, Work+1)
	g.unpack(FltB, Work+2, Work+3)

	// Order the operands so that |A| >= |B|.
	swap, ordered := g.label(), g.label()
	g.zp(isa.LDA, Work+1)
	g.op(isa.SEC)
	g.zp(isa.SBC, Work+3)
	g.br(isa.BMI, swap)
	g.br(isa.BNE, ordered)
	g.ge16(FltA, FltB)
	g.br(isa.BCS, ordered)
	g.bind(swap)
	g.swap(Work, Work+2)
	g.swap(Work+1, Work+3)
	g.swap(FltA, FltB)
	g.swap(FltA+1, FltB+1)
	g.bind(ordered)

	aligned, far := g.label(), g.label()
	g.zp(isa.LDA, Work+1)
	g.op(isa.SEC)
	g.zp(isa.SBC, Work+3)
	g.br(isa.BEQ, aligned)
	g.imm(isa.CMP, 16)
	g.br(isa.BCS, far)
	g.op(isa.TAX)
	align := g.here()
	g.lsr16Sticky(FltB)
	g.op(isa.DEX)
	g.br(isa.BNE, align)
	g.jmp(aligned)
	g.bind(far)
	g.set16(FltB, 1)
	g.bind(aligned)

	differ, pack := g.label(), g.label()
	g.zp(isa.LDA, Work)
	g.zp(isa.EOR, Work+2)
	g.br(isa.BMI, differ)
	g.add16(FltR, FltA, FltB)
	g.zp(isa.LDA, FltR+1)
	g.imm(isa.AND, mantOver)
	g.br(isa.BEQ, pack)
	g.lsr16Sticky(FltR)
	g.zp(isa.INC, Work+1)
	g.jmp(pack)

	g.bind(differ)
	nonzero := g.label()
	g.sub16(FltR, FltA, FltB)
	g.isZero16(FltR)
	g.br(isa.BNE, nonzero)
	g.op(isa.TAX)
	g.op(isa.RTS)
	g.bind(nonzero)
	norm := g.here()
	g.zp(isa.LDA, FltR+1)
	g.imm(isa.AND, mantLead)
	g.br(isa.BNE, pack)
	g.asl16(FltR)
	g.zp(isa.DEC, Work+1)
	g.jmp(norm)
	g.bind(pack)
	g.tail(FltPack)

	// A is infinite or NaN.
	g.bind(aSpecial)
	both := g.label()
	g.special(FltB, both)
	g.bind(retA)
	g.mov16(FltR, FltA)
	g.ret16(FltR)
	g.bind(both)
	g.zp(isa.LDA, FltA)
	g.zp(isa.CMP, FltB)
	g.br(isa.BNE, nan)
	g.zp(isa.LDA, FltA+1)
	g.zp(isa.CMP, FltB+1)
	g.br(isa.BEQ, retA)
	g.bind(nan)
	g.retConst(FltR, halfNaN)

	g.bind(aZero)
	bothZero := g.label()
	g.zeroHalf(FltB, bothZero)
	g.bind(retB)
	g.mov16(FltR, FltB)
	g.ret16(FltR)
	g.bind(bothZero)
	g.zp(isa.LDA, FltA)
	g.zp(isa.AND, FltB)
	g.zp(isa.STA, FltR)
	g.zp(isa.LDA, FltA+1)
	g.zp(isa.AND, FltB+1)
	g.zp(isa.STA, FltR+1)
	g.ret16(FltR)
}

func emitFltSub(g *gen) {
	g.zp(isa.LDA, FltB+1)
	g.imm(isa.EOR, 0x80)
	g.zp(isa.STA, FltB+1)
	g.tail(FltAdd)
}

func emitFltMul(g *gen) {
	nan, aInf, bInf, inf, zero := g.label(), g.label(), g.label(), g.label(), g.label()
	g.zp(isa.LDA, FltA+1)
	g.zp(isa.EOR, FltB+1)
	g.imm(isa.AND, 0x80)
	g.zp(isa.STA, Work)
	g.nanHalf(FltA, nan)
	g.nanHalf(FltB, nan)
	g.special(FltA, aInf)
	g.special(FltB, bInf)
	g.zeroHalf(FltA, zero)
	g.zeroHalf(FltB, zero)

	g.unpack(FltA, Work+3, Work+1)
	g.unpack(FltB, Work+3, Work+2)
	g.mulWide(FltR, FltB, FltA)

	// The product has its leading one at bit 26 or 27; bring it back to 13.
	g.imm(isa.LDX, 13)
	shift := g.here()
	g.zp(isa.LSR, FltR+1)
	g.zp(isa.ROR, FltR)
	g.zp(isa.ROR, FltB+1)
	g.zp(isa.ROR, FltB)
	g.sticky(FltB)
	g.op(isa.DEX)
	g.br(isa.BNE, shift)
	g.mov16(FltR, FltB)

	pack := g.label()
	g.zp(isa.LDA, Work+1)
	g.op(isa.CLC)
	g.zp(isa.ADC, Work+2)
	g.op(isa.SEC)
	g.imm(isa.SBC, 15)
	g.zp(isa.STA, Work+1)
	g.zp(isa.LDA, FltR+1)
	g.imm(isa.AND, mantOver)
	g.br(isa.BEQ, pack)
	g.lsr16Sticky(FltR)
	g.zp(isa.INC, Work+1)
	g.bind(pack)
	g.tail(FltPack)

	g.bind(aInf)
	g.zeroHalf(FltB, nan)
	g.jmp(inf)
	g.bind(bInf)
	g.zeroHalf(FltA, nan)
	g.bind(inf)
	g.retSigned(hiExpMsk)
	g.bind(zero)
	g.retSigned(0)
	g.bind(nan)
	g.retConst(FltR, halfNaN)
}

func emitFltDiv(g *gen) {
	nan, aInf, bZero, inf, zero := g.label(), g.label(), g.label(), g.label(), g.label()
	g.zp(isa.LDA, FltA+1)
	g.zp(isa.EOR, FltB+1)
	g.imm(isa.AND, 0x80)
	g.zp(isa.STA, Work)
	g.nanHalf(FltA, nan)
	g.nanHalf(FltB, nan)
	g.special(FltA, aInf)
	g.special(FltB, zero)
	g.zeroHalf(FltB, bZero)
	g.zeroHalf(FltA, zero)

	g.unpack(FltA, Work+3, Work+1)
	g.unpack(FltB, Work+3, Work+2)

	// Restoring division: remainder in FltA, quotient in FltR, 15 bits.
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, FltR)
	g.zp(isa.STA, FltR+1)
	g.imm(isa.LDY, 15)
	loop := g.here()
	skip := g.label()
	g.asl16(FltR)
	g.ge16(FltA, FltB)
	g.br(isa.BCC, skip)
	g.sub16(FltA, FltA, FltB)
	g.zp(isa.INC, FltR)
	g.bind(skip)
	g.asl16(FltA)
	g.op(isa.DEY)
	g.br(isa.BNE, loop)

	exact, pack := g.label(), g.label()
	g.isZero16(FltA)
	g.br(isa.BEQ, exact)
	g.zp(isa.LDA, FltR)
	g.imm(isa.ORA, 0x01)
	g.zp(isa.STA, FltR)
	g.bind(exact)
	g.zp(isa.LDA, Work+1)
	g.op(isa.SEC)
	g.zp(isa.SBC, Work+2)
	g.op(isa.CLC)
	g.imm(isa.ADC, 14)
	g.zp(isa.STA, Work+1)
	g.zp(isa.LDA, FltR+1)
	g.imm(isa.AND, mantOver)
	g.br(isa.BEQ, pack)
	g.lsr16Sticky(FltR)
	g.zp(isa.INC, Work+1)
	g.bind(pack)
	g.tail(FltPack)

	g.bind(aInf)
	g.special(FltB, nan)
	g.jmp(inf)
	g.bind(bZero)
	g.zeroHalf(FltA, nan)
	g.bind(inf)
	g.retSigned(hiExpMsk)
	g.bind(zero)
	g.retSigned(0)
	g.bind(nan)
	g.retConst(FltR, halfNaN)
}

// sortKey maps the half at a to a word whose unsigned order is the numeric
// order of the non-NaN values.
func (g *gen) sortKey(a uint8) {
	neg, done := g.label(), g.label()
	g.zp(isa.LDA, a+1)
	g.br(isa.BMI, neg)
	g.imm(isa.ORA, 0x80)
	g.zp(isa.STA, a+1)
	g.jmp(done)
	g.bind(neg)
	g.zp(isa.LDA, a)
	g.imm(isa.EOR, 0xFF)
	g.zp(isa.STA, a)
	g.zp(isa.LDA, a+1)
	g.imm(isa.EOR, 0xFF)
	g.zp(isa.STA, a+1)
	g.bind(done)
}

func emitFltCmp(g *gen) {
	eq, less, greater, decide := g.label(), g.label(), g.label(), g.label()
	g.nanHalf(FltA, greater)
	g.nanHalf(FltB, greater)
	g.zp(isa.LDA, FltA+1)
	g.zp(isa.ORA, FltB+1)
	g.imm(isa.AND, 0x7F)
	g.zp(isa.ORA, FltA)
	g.zp(isa.ORA, FltB)
	g.br(isa.BEQ, eq)
	g.sortKey(FltA)
	g.sortKey(FltB)
	g.zp(isa.LDA, FltA+1)
	g.zp(isa.CMP, FltB+1)
	g.br(isa.BNE, decide)
	g.zp(isa.LDA, FltA)
	g.zp(isa.CMP, FltB)
	g.br(isa.BNE, decide)
	g.bind(eq)
	g.imm(isa.LDA, 0)
	g.op(isa.RTS)
	g.bind(decide)
	g.br(isa.BCC, less)
	g.bind(greater)
	g.imm(isa.LDA, 1)
	g.op(isa.RTS)
	g.bind(less)
	g.imm(isa.LDA, 0xFF)
	g.op(isa.RTS)
}

// The magnitude starts as m with e = 28 and is normalised both ways.
func emitFltFromInt(g *gen) {
	right, left, done := g.label(), g.label(), g.label()
	g.mov16(FltR, IntA)
	g.imm(isa.LDA, 28)
	g.zp(isa.STA, Work+1)
	g.isZero16(FltR)
	g.br(isa.BNE, right)
	g.op(isa.TAX)
	g.op(isa.RTS)
	g.bind(right)
	g.zp(isa.LDA, FltR+1)
	g.imm(isa.AND, 0xC0)
	g.br(isa.BEQ, left)
	g.lsr16Sticky(FltR)
	g.zp(isa.INC, Work+1)
	g.jmp(right)
	g.bind(left)
	g.zp(isa.LDA, FltR+1)
	g.imm(isa.AND, mantLead)
	g.br(isa.BNE, done)
	g.asl16(FltR)
	g.zp(isa.DEC, Work+1)
	g.jmp(left)
	g.bind(done)
	g.tail(FltPack)
}

func emitU16ToFlt(g *gen) {
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, Work)
	g.tail(FltFromInt)
}

func emitI16ToFlt(g *gen) {
	g.zp(isa.LDA, IntA+1)
	g.imm(isa.AND, 0x80)
	g.zp(isa.STA, Work)
	g.abs16(IntA)
	g.tail(FltFromInt)
}

// emitFltTrunc shifts the mantissa by e - bias, truncating toward zero.
// NaN gives +0 and infinity the saturated magnitude.
func emitFltTrunc(g *gen) {
	spec, zero, sat, right, done := g.label(), g.label(), g.label(), g.label(), g.label()
	g.zp(isa.LDA, FltA+1)
	g.imm(isa.AND, 0x80)
	g.zp(isa.STA, Work)
	g.special(FltA, spec)
	g.zeroHalf(FltA, zero)
	g.unpack(FltA, Work, Work+1)
	g.mov16(FltR, FltA)
	g.zp(isa.LDA, Work+1)
	g.op(isa.SEC)
	g.zp(isa.SBC, Work+5)
	g.br(isa.BEQ, done)
	g.br(isa.BMI, right)
	g.op(isa.TAX)
	left := g.here()
	g.asl16(FltR)
	g.br(isa.BCS, sat)
	g.op(isa.DEX)
	g.br(isa.BNE, left)
	g.op(isa.RTS)
	g.bind(right)
	g.imm(isa.EOR, 0xFF)
	g.op(isa.CLC)
	g.imm(isa.ADC, 1)
	g.imm(isa.CMP, 16)
	g.br(isa.BCS, zero)
	g.op(isa.TAX)
	shift := g.here()
	g.lsr16(FltR)
	g.op(isa.DEX)
	g.br(isa.BNE, shift)
	g.bind(done)
	g.op(isa.RTS)

	g.bind(spec)
	g.zp(isa.LDA, FltA+1)
	g.imm(isa.AND, 0x03)
	g.zp(isa.ORA, FltA)
	g.br(isa.BEQ, sat)
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, Work)
	g.bind(zero)
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, FltR)
	g.zp(isa.STA, FltR+1)
	g.op(isa.RTS)
	g.bind(sat)
	g.imm(isa.LDA, 0xFF)
	g.zp(isa.STA, FltR)
	g.zp(isa.STA, FltR+1)
	g.op(isa.RTS)
}

func emitFltSatI16(g *gen) {
	neg, okPos, clamp, okNeg := g.label(), g.label(), g.label(), g.label()
	g.zp(isa.LDA, Work)
	g.br(isa.BMI, neg)
	g.zp(isa.LDA, FltR+1)
	g.br(isa.BPL, okPos)
	g.set16(FltR, 0x7FFF)
	g.bind(okPos)
	g.mov16(IntR, FltR)
	g.ret16(IntR)

	g.bind(neg)
	g.zp(isa.LDA, FltR+1)
	g.br(isa.BPL, okNeg)
	g.imm(isa.CMP, 0x80)
	g.br(isa.BNE, clamp)
	g.zp(isa.LDA, FltR)
	g.br(isa.BEQ, okNeg)
	g.bind(clamp)
	g.set16(FltR, 0x8000)
	g.bind(okNeg)
	g.mov16(IntR, FltR)
	g.neg16(IntR)
	g.ret16(IntR)
}

func emitFltToU16(g *gen) {
	pos := g.label()
	g.imm(isa.LDA, 28)
	g.zp(isa.STA, Work+5)
	g.call(FltTrunc)
	g.zp(isa.LDA, Work)
	g.br(isa.BPL, pos)
	g.retConst(IntR, 0)
	g.bind(pos)
	g.mov16(IntR, FltR)
	g.ret16(IntR)
}

func emitFltToI16(g *gen) {
	g.imm(isa.LDA, 28)
	g.zp(isa.STA, Work+5)
	g.call(FltTrunc)
	g.tail(FltSatI16)
}

// The raw fixed word is an integer sixteen times too large; converting it and
// taking 4 from the exponent field is exact.
func emitFixToFlt(g *gen) {
	zero := g.label()
	g.mov16(IntA, FixA)
	g.call(I16ToFlt)
	g.isZero16(FltR)
	g.br(isa.BEQ, zero)
	g.zp(isa.LDA, FltR+1)
	g.op(isa.SEC)
	g.imm(isa.SBC, 0x10)
	g.zp(isa.STA, FltR+1)
	g.bind(zero)
	g.ret16(FltR)
}

func emitFltToFix(g *gen) {
	g.imm(isa.LDA, 24)
	g.zp(isa.STA, Work+5)
	g.call(FltTrunc)
	g.call(FltSatI16)
	g.zp(isa.STA, FixR)
	g.zp(isa.STX, FixR+1)
	g.op(isa.RTS)
}
