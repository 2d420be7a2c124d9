package rtlib

import "halfbyte/internal/isa"

// DefaultSeed replaces a zero PRNG state, which the LFSR could never leave.
const DefaultSeed = 0xACE1

// lfsrTaps is the feedback mask of the 16-bit Galois LFSR.
const lfsrTaps = 0xB400

// Entropy sources read by rand_init.
const (
	sidV3Freq = 0xD40E
	sidV3Ctrl = 0xD412
	sidV3Osc  = 0xD41B
	ciaTimerA = 0xDC04
	vicRaster = 0xD012
	sidNoise  = 0x80
)

func registerIO() {
	register(Routine{
		ID:   PrintStr,
		Name: "print_str",
		Contract: Contract{
			Inputs:    "A/X = string",
			Clobbers:  "A, Y, StrP1",
			Preserves: "X",
		},
		emit: emitPrintStr,
	})
	register(Routine{
		ID:   PrintNl,
		Name: "print_nl",
		Contract: Contract{
			Clobbers: "A",
		},
		emit: emitPrintNl,
	})
	register(Routine{
		ID:   RandSeed,
		Name: "rand_seed",
		Contract: Contract{
			Inputs:    "A/X = seed",
			Outputs:   "Seed",
			Preserves: "X, Y",
		},
		emit: emitRandSeed,
	})
	register(Routine{
		ID:   RandNext,
		Name: "rand_next",
		Contract: Contract{
			Inputs:    "Seed",
			Outputs:   "A/X = Seed = next state",
			Preserves: "Y",
		},
		emit: emitRandNext,
	})
	register(Routine{
		ID:   RandInit,
		Name: "rand_init",
		Contract: Contract{
			Outputs:  "Seed",
			Clobbers: "A, X",
		},
		Deps: []ID{RandSeed},
		emit: emitRandInit,
	})
	register(Routine{
		ID:   RandRange,
		Name: "rand_range",
		Contract: Contract{
			Inputs:   "IntA = from, IntB = to",
			Outputs:  "A/X = IntR = from + next state mod (to - from + 1)",
			Clobbers: "Y, IntA, IntB, IntRem, Work, Work+1",
		},
		Deps: []ID{RandNext, DivU16},
		emit: emitRandRange,
	})
}

func emitPrintStr(g *gen) {
	done := g.label()
	g.zp(isa.STA, StrP1)
	g.zp(isa.STX, StrP1+1)
	g.imm(isa.LDY, 0)
	loop := g.here()
	g.indY(isa.LDA, StrP1)
	g.br(isa.BEQ, done)
	g.abs(isa.JSR, g.lib.target.Chrout)
	g.op(isa.INY)
	g.br(isa.BNE, loop)
	g.bind(done)
	g.op(isa.RTS)
}

func emitPrintNl(g *gen) {
	g.imm(isa.LDA, 0x0D)
	g.abs(isa.JMP, g.lib.target.Chrout)
}

func emitRandSeed(g *gen) {
	ok := g.label()
	g.zp(isa.STA, Seed)
	g.zp(isa.STX, Seed+1)
	g.zp(isa.ORA, Seed+1)
	g.br(isa.BNE, ok)
	g.set16(Seed, DefaultSeed)
	g.bind(ok)
	g.op(isa.RTS)
}

func emitRandNext(g *gen) {
	skip := g.label()
	g.lsr16(Seed)
	g.br(isa.BCC, skip)
	g.zp(isa.LDA, Seed+1)
	g.imm(isa.EOR, lfsrTaps>>8)
	g.zp(isa.STA, Seed+1)
	g.bind(skip)
	g.ret16(Seed)
}

// emitRandInit starts SID voice 3 on noise and seeds from its oscillator,
// the CIA 1 timer and the raster line. A zero mix falls back to DefaultSeed
// inside rand_seed.
func emitRandInit(g *gen) {
	g.imm(isa.LDA, 0xFF)
	g.abs(isa.STA, sidV3Freq)
	g.abs(isa.STA, sidV3Freq+1)
	g.imm(isa.LDA, sidNoise)
	g.abs(isa.STA, sidV3Ctrl)
	g.abs(isa.LDA, sidV3Osc)
	g.abs(isa.EOR, ciaTimerA)
	g.abs(isa.EOR, vicRaster)
	g.op(isa.PHA)
	g.abs(isa.LDA, sidV3Osc)
	g.abs(isa.EOR, ciaTimerA+1)
	g.op(isa.TAX)
	g.op(isa.PLA)
	g.tail(RandSeed)
}

// emitRandRange reduces the next state modulo the span. A span of zero
// covers all 65536 values; divu16 then hands back the dividend as the
// remainder, so no special case is needed.
func emitRandRange(g *gen) {
	g.op(isa.SEC)
	g.zp(isa.LDA, IntB)
	g.zp(isa.SBC, IntA)
	g.zp(isa.STA, IntB)
	g.zp(isa.LDA, IntB+1)
	g.zp(isa.SBC, IntA+1)
	g.zp(isa.STA, IntB+1)
	g.zp(isa.INC, IntB)
	skip := g.label()
	g.br(isa.BNE, skip)
	g.zp(isa.INC, IntB+1)
	g.bind(skip)
	g.mov16(Work, IntA)
	g.call(RandNext)
	g.zp(isa.STA, IntA)
	g.zp(isa.STX, IntA+1)
	g.call(DivU16)
	g.add16(IntR, IntRem, Work)
	g.ret16(IntR)
}

// RangeValue is the host-side model of rand_range applied to state s.
func RangeValue(s, from, to uint16) uint16 {
	span := to - from + 1
	if span == 0 {
		return from + s
	}
	return from + s%span
}

// NextSeed is the host-side model of rand_next.
func NextSeed(s uint16) uint16 {
	lsb := s & 1
	s >>= 1
	if lsb != 0 {
		s ^= lfsrTaps
	}
	return s
}
