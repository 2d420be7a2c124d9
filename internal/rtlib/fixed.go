package rtlib

import "halfbyte/internal/isa"

func registerFixed() {
	register(Routine{
		ID:   FixMul,
		Name: "fix_mul",
		Contract: Contract{
			Inputs:   "FixA, FixB",
			Outputs:  "A/X = FixR = saturated product",
			Clobbers: "X, FixA, FixB, Work",
		},
		emit: emitFixMul,
	})
	register(Routine{
		ID:   FixDiv,
		Name: "fix_div",
		Contract: Contract{
			Inputs:   "FixA dividend, FixB divisor",
			Outputs:  "A/X = FixR = saturated quotient",
			Clobbers: "X, FixA, FixB, Work..Work+5",
		},
		emit: emitFixDiv,
	})
}

// mulWide multiplies the words at m and n into the 32-bit product hi:m. The
// multiplier at m is consumed and X counts the rounds.
func (g *gen) mulWide(hi, m, n uint8) {
	noadd := g.label()
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, hi)
	g.zp(isa.STA, hi+1)
	g.imm(isa.LDX, 16)
	g.lsr16(m)
	loop := g.here()
	g.br(isa.BCC, noadd)
	g.op(isa.CLC)
	g.zp(isa.LDA, hi)
	g.zp(isa.ADC, n)
	g.zp(isa.STA, hi)
	g.zp(isa.LDA, hi+1)
	g.zp(isa.ADC, n+1)
	g.zp(isa.STA, hi+1)
	g.bind(noadd)
	g.zp(isa.ROR, hi+1)
	g.zp(isa.ROR, hi)
	g.zp(isa.ROR, m+1)
	g.zp(isa.ROR, m)
	g.op(isa.DEX)
	g.br(isa.BNE, loop)
}

// saturate returns FixedMax in A/X, or FixedMin when bit 7 of the byte at
// sign is set.
func (g *gen) saturate(r, sign uint8) {
	neg := g.label()
	g.zp(isa.LDA, sign)
	g.br(isa.BMI, neg)
	g.set16(r, 0x7FFF)
	g.ret16(r)
	g.bind(neg)
	g.set16(r, 0x8000)
	g.ret16(r)
}

// signedResult negates the word at r when bit 7 of the byte at sign is set,
// then returns it in A/X.
func (g *gen) signedResult(r, sign uint8) {
	pos := g.label()
	g.zp(isa.LDA, sign)
	g.br(isa.BPL, pos)
	g.neg16(r)
	g.bind(pos)
	g.ret16(r)
}

func emitFixMul(g *gen) {
	g.zp(isa.LDA, FixA+1)
	g.zp(isa.EOR, FixB+1)
	g.zp(isa.STA, Work)
	g.abs16(FixA)
	g.abs16(FixB)
	g.mulWide(FixR, FixB, FixA)

	g.imm(isa.LDX, 4)
	shift := g.here()
	g.zp(isa.LSR, FixR+1)
	g.zp(isa.ROR, FixR)
	g.zp(isa.ROR, FixB+1)
	g.zp(isa.ROR, FixB)
	g.op(isa.DEX)
	g.br(isa.BNE, shift)

	// a magnitude of $8000 or more only fits as -2048
	sat := g.label()
	g.isZero16(FixR)
	g.br(isa.BNE, sat)
	g.zp(isa.LDA, FixB+1)
	g.br(isa.BMI, sat)
	g.mov16(FixR, FixB)
	g.signedResult(FixR, Work)
	g.bind(sat)
	g.saturate(FixR, Work)
}

// (|a| << 4) / |b| as a 24-bit restoring division: dividend and quotient in
// Work..Work+2, remainder in Work+3..Work+4, sign in Work+5.
func emitFixDiv(g *gen) {
	ok := g.label()
	g.zp(isa.LDA, FixA+1)
	g.zp(isa.EOR, FixB+1)
	g.zp(isa.STA, Work+5)
	g.isZero16(FixB)
	g.br(isa.BNE, ok)
	g.saturate(FixR, FixA+1)

	g.bind(ok)
	g.abs16(FixA)
	g.abs16(FixB)
	g.mov16(Work, FixA)
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, Work+2)
	g.zp(isa.STA, Work+3)
	g.zp(isa.STA, Work+4)
	g.imm(isa.LDX, 4)
	pre := g.here()
	g.asl16(Work)
	g.zp(isa.ROL, Work+2)
	g.op(isa.DEX)
	g.br(isa.BNE, pre)

	g.imm(isa.LDX, 24)
	loop := g.here()
	sub, next := g.label(), g.label()
	g.asl16(Work)
	g.zp(isa.ROL, Work+2)
	g.zp(isa.ROL, Work+3)
	g.zp(isa.ROL, Work+4)
	g.br(isa.BCS, sub)
	g.ge16(Work+3, FixB)
	g.br(isa.BCC, next)
	g.bind(sub)
	g.zp(isa.LDA, Work+3)
	g.zp(isa.SBC, FixB)
	g.zp(isa.STA, Work+3)
	g.zp(isa.LDA, Work+4)
	g.zp(isa.SBC, FixB+1)
	g.zp(isa.STA, Work+4)
	g.zp(isa.INC, Work)
	g.bind(next)
	g.op(isa.DEX)
	g.br(isa.BNE, loop)

	sat := g.label()
	g.zp(isa.LDA, Work+2)
	g.br(isa.BNE, sat)
	g.zp(isa.LDA, Work+1)
	g.br(isa.BMI, sat)
	g.mov16(FixR, Work)
	g.signedResult(FixR, Work+5)
	g.bind(sat)
	g.saturate(FixR, Work+5)
}
