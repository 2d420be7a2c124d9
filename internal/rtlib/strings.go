package rtlib

import "halfbyte/internal/isa"

// Strings are zero-terminated PETSCII of at most 255 characters.

func registerStrings() {
	register(Routine{
		ID:   StrConcat,
		Name: "str_concat",
		Contract: Contract{
			Inputs:   "StrP1 left, StrP2 right",
			Outputs:  "A/X = concatenation buffer",
			Clobbers: "Y, Work..Work+3",
		},
		emit: emitStrConcat,
	})
	register(Routine{
		ID:   StrEq,
		Name: "str_eq",
		Contract: Contract{
			Inputs:   "StrP1, StrP2",
			Outputs:  "A = 1 when equal, else 0",
			Clobbers: "Y",
		},
		emit: emitStrEq,
	})
	register(Routine{
		ID:   StrLen,
		Name: "str_len",
		Contract: Contract{
			Inputs:   "StrP1",
			Outputs:  "A = length",
			Clobbers: "Y",
		},
		emit: emitStrLen,
	})
	register(Routine{
		ID:   StrAt,
		Name: "str_at",
		Contract: Contract{
			Inputs:    "StrP1, A = index",
			Outputs:   "A = character, 0 at or past the end",
			Clobbers:  "Y, Work",
			Preserves: "X",
		},
		emit: emitStrAt,
	})
	register(Routine{
		ID:   FmtU16,
		Name: "fmt_u16",
		Contract: Contract{
			Inputs:   "IntA, Y = offset into the conversion buffer",
			Outputs:  "Y = offset of the terminator",
			Clobbers: "X, IntA, Work..Work+2",
		},
		Internal: true,
		emit:     emitFmtU16,
	})
	register(Routine{
		ID:   U16ToStr,
		Name: "u16_to_str",
		Contract: Contract{
			Inputs:   "IntA",
			Outputs:  "A/X = conversion buffer",
			Clobbers: "X, Y, IntA, Work..Work+2",
		},
		Deps: []ID{FmtU16},
		emit: emitU16ToStr,
	})
	register(Routine{
		ID:   I16ToStr,
		Name: "i16_to_str",
		Contract: Contract{
			Inputs:   "IntA (signed)",
			Outputs:  "A/X = conversion buffer",
			Clobbers: "X, Y, IntA, Work..Work+2",
		},
		Deps: []ID{FmtU16},
		emit: emitI16ToStr,
	})
	register(Routine{
		ID:   FixToStr,
		Name: "fix_to_str",
		Contract: Contract{
			Inputs:   "FixA",
			Outputs:  "A/X = conversion buffer",
			Clobbers: "X, Y, IntA, FixA, Work..Work+3",
		},
		Deps: []ID{FmtU16},
		emit: emitFixToStr,
	})
	register(Routine{
		ID:   FltToStr,
		Name: "flt_to_str",
		Contract: Contract{
			Inputs:   "FltA",
			Outputs:  "A/X = conversion buffer",
			Clobbers: "X, Y, IntA, IntR, FixA, FixR, FltA, FltR, Work..Work+5",
		},
		Deps: []ID{FltToFix, FixToStr},
		emit: emitFltToStr,
	})
	register(Routine{
		ID:   BoolToStr,
		Name: "bool_to_str",
		Contract: Contract{
			Inputs:  "IntA (byte)",
			Outputs: "A/X = constant \"TRUE\" or \"FALSE\"",
		},
		emit: emitBoolToStr,
	})
	register(Routine{
		ID:   ParseU16,
		Name: "parse_u16",
		Contract: Contract{
			Inputs:   "StrP1, Y = first character",
			Outputs:  "IntR = value of the leading decimal digits, modulo 65536",
			Clobbers: "Y, Work..Work+2",
		},
		Internal: true,
		emit:     emitParseU16,
	})
	register(Routine{
		ID:   StrToU16,
		Name: "str_to_u16",
		Contract: Contract{
			Inputs:   "StrP1",
			Outputs:  "A/X = IntR",
			Clobbers: "Y, Work..Work+2",
		},
		Deps: []ID{ParseU16},
		emit: emitStrToU16,
	})
	register(Routine{
		ID:   StrToI16,
		Name: "str_to_i16",
		Contract: Contract{
			Inputs:   "StrP1",
			Outputs:  "A/X = IntR",
			Clobbers: "X, Y, Work..Work+3",
		},
		Deps: []ID{ParseU16},
		emit: emitStrToI16,
	})
}

// strLen leaves the length of the string at p, capped at 255, in Y.
func (g *gen) strLen(p uint8) {
	done := g.label()
	g.imm(isa.LDY, 0)
	loop := g.here()
	g.indY(isa.LDA, p)
	g.br(isa.BEQ, done)
	g.op(isa.INY)
	g.imm(isa.CPY, 0xFF)
	g.br(isa.BNE, loop)
	g.bind(done)
}

// retAddr returns a fixed address in A/X.
func (g *gen) retAddr(addr uint16) {
	g.imm(isa.LDA, uint8(addr))
	g.imm(isa.LDX, uint8(addr>>8))
	g.op(isa.RTS)
}

// The right operand is copied first and backwards, then the left one
// forwards. Either operand may be the buffer itself.
func emitStrConcat(g *gen) {
	buf := g.lib.target.ConcatBase
	g.strLen(StrP1)
	g.zp(isa.STY, Work)
	g.strLen(StrP2)
	g.zp(isa.STY, Work+1)

	fits := g.label()
	g.imm(isa.LDA, 0xFF)
	g.op(isa.SEC)
	g.zp(isa.SBC, Work)
	g.zp(isa.CMP, Work+1)
	g.br(isa.BCS, fits)
	g.zp(isa.STA, Work+1)
	g.bind(fits)

	g.imm(isa.LDA, uint8(buf))
	g.op(isa.CLC)
	g.zp(isa.ADC, Work)
	g.zp(isa.STA, Work+2)
	g.imm(isa.LDA, uint8(buf>>8))
	g.imm(isa.ADC, 0)
	g.zp(isa.STA, Work+3)
	g.zp(isa.LDY, Work+1)
	g.imm(isa.LDA, 0)
	g.indY(isa.STA, Work+2)

	left, done := g.label(), g.label()
	g.op(isa.TYA)
	g.br(isa.BEQ, left)
	right := g.here()
	g.op(isa.DEY)
	g.indY(isa.LDA, StrP2)
	g.indY(isa.STA, Work+2)
	g.op(isa.TYA)
	g.br(isa.BNE, right)

	g.bind(left)
	g.imm(isa.LDY, 0)
	loop := g.here()
	g.zp(isa.CPY, Work)
	g.br(isa.BEQ, done)
	g.indY(isa.LDA, StrP1)
	g.absY(isa.STA, buf)
	g.op(isa.INY)
	g.br(isa.BNE, loop)
	g.bind(done)
	g.retAddr(buf)
}

func emitStrEq(g *gen) {
	eq, ne := g.label(), g.label()
	g.imm(isa.LDY, 0)
	loop := g.here()
	g.indY(isa.LDA, StrP1)
	g.indY(isa.CMP, StrP2)
	g.br(isa.BNE, ne)
	g.imm(isa.CMP, 0)
	g.br(isa.BEQ, eq)
	g.op(isa.INY)
	g.br(isa.BNE, loop)
	g.bind(eq)
	g.imm(isa.LDA, 1)
	g.op(isa.RTS)
	g.bind(ne)
	g.imm(isa.LDA, 0)
	g.op(isa.RTS)
}

func emitStrLen(g *gen) {
	g.strLen(StrP1)
	g.op(isa.TYA)
	g.op(isa.RTS)
}

// emitStrAt walks to the index so that it never reads past the terminator.
func emitStrAt(g *gen) {
	done := g.label()
	g.zp(isa.STA, Work)
	g.imm(isa.LDY, 0)
	loop := g.here()
	g.indY(isa.LDA, StrP1)
	g.br(isa.BEQ, done)
	g.zp(isa.CPY, Work)
	g.br(isa.BEQ, done)
	g.op(isa.INY)
	g.br(isa.BNE, loop)
	g.imm(isa.LDA, 0)
	g.bind(done)
	g.op(isa.RTS)
}

// Repeated subtraction of 10000, 1000, 100 and 10. Leading zeros are
// skipped; the units digit is always written.
func emitFmtU16(g *gen) {
	conv := g.lib.target.ConvBuffer
	powLo, powHi := g.label(), g.label()
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, Work)
	g.imm(isa.LDX, 0)
	pow := g.here()
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, Work+1)
	sub := g.here()
	digit, next := g.label(), g.label()
	g.zp(isa.LDA, IntA)
	g.op(isa.SEC)
	g.tabX(isa.SBC, powLo)
	g.zp(isa.STA, Work+2)
	g.zp(isa.LDA, IntA+1)
	g.tabX(isa.SBC, powHi)
	g.br(isa.BCC, digit)
	g.zp(isa.STA, IntA+1)
	g.zp(isa.LDA, Work+2)
	g.zp(isa.STA, IntA)
	g.zp(isa.INC, Work+1)
	g.jmp(sub)
	g.bind(digit)
	g.zp(isa.LDA, Work+1)
	g.zp(isa.ORA, Work)
	g.br(isa.BEQ, next)
	g.zp(isa.LDA, Work+1)
	g.imm(isa.ORA, '0')
	g.absY(isa.STA, conv)
	g.zp(isa.STA, Work)
	g.op(isa.INY)
	g.bind(next)
	g.op(isa.INX)
	g.imm(isa.CPX, 4)
	g.br(isa.BNE, pow)
	g.zp(isa.LDA, IntA)
	g.imm(isa.ORA, '0')
	g.absY(isa.STA, conv)
	g.op(isa.INY)
	g.imm(isa.LDA, 0)
	g.absY(isa.STA, conv)
	g.op(isa.RTS)

	g.bind(powLo)
	g.s.Data(uint8(10000&0xFF), uint8(1000&0xFF), 100, 10)
	g.bind(powHi)
	g.s.Data(uint8(10000>>8), uint8(1000>>8), 0, 0)
}

func emitU16ToStr(g *gen) {
	g.imm(isa.LDY, 0)
	g.call(FmtU16)
	g.retAddr(g.lib.target.ConvBuffer)
}

// minusSign writes '-' to the conversion buffer, negates the word at a and
// leaves Y = 1 when the word is negative; otherwise Y = 0.
func (g *gen) minusSign(a uint8) {
	pos := g.label()
	g.imm(isa.LDY, 0)
	g.zp(isa.LDA, a+1)
	g.br(isa.BPL, pos)
	g.neg16(a)
	g.imm(isa.LDA, '-')
	g.abs(isa.STA, g.lib.target.ConvBuffer)
	g.op(isa.INY)
	g.bind(pos)
}

func emitI16ToStr(g *gen) {
	g.minusSign(IntA)
	g.call(FmtU16)
	g.retAddr(g.lib.target.ConvBuffer)
}

// The fraction digits come from multiplying the low nibble by ten until it
// becomes zero, so every 1/16 step prints exactly.
func emitFixToStr(g *gen) {
	conv := g.lib.target.ConvBuffer
	g.minusSign(FixA)
	g.zp(isa.LDA, FixA)
	g.imm(isa.AND, 0x0F)
	g.zp(isa.STA, Work+3)
	g.mov16(IntA, FixA)
	for range 4 {
		g.lsr16(IntA)
	}
	g.call(FmtU16)
	g.imm(isa.LDA, '.')
	g.absY(isa.STA, conv)
	g.op(isa.INY)
	frac := g.here()
	g.zp(isa.LDA, Work+3)
	g.op(isa.ASL)
	g.op(isa.ASL)
	g.op(isa.CLC)
	g.zp(isa.ADC, Work+3)
	g.op(isa.ASL)
	g.zp(isa.STA, Work+3)
	g.op(isa.LSR)
	g.op(isa.LSR)
	g.op(isa.LSR)
	g.op(isa.LSR)
	g.imm(isa.ORA, '0')
	g.absY(isa.STA, conv)
	g.op(isa.INY)
	g.zp(isa.LDA, Work+3)
	g.imm(isa.AND, 0x0F)
	g.zp(isa.STA, Work+3)
	g.br(isa.BNE, frac)
	g.absY(isa.STA, conv)
	g.retAddr(conv)
}

func emitFltToStr(g *gen) {
	g.call(FltToFix)
	g.mov16(FixA, FixR)
	g.tail(FixToStr)
}

func emitBoolToStr(g *gen) {
	yes, no, f := g.label(), g.label(), g.label()
	g.zp(isa.LDA, IntA)
	g.br(isa.BEQ, f)
	g.loadPtr(yes)
	g.op(isa.RTS)
	g.bind(f)
	g.loadPtr(no)
	g.op(isa.RTS)
	g.bind(yes)
	g.s.Data('T', 'R', 'U', 'E', 0)
	g.bind(no)
	g.s.Data('F', 'A', 'L', 'S', 'E', 0)
}

// r = r*10 + digit, as ((r*4 + r) * 2) + digit.
func emitParseU16(g *gen) {
	done := g.label()
	g.imm(isa.LDA, 0)
	g.zp(isa.STA, IntR)
	g.zp(isa.STA, IntR+1)
	loop := g.here()
	g.indY(isa.LDA, StrP1)
	g.op(isa.SEC)
	g.imm(isa.SBC, '0')
	g.imm(isa.CMP, 10)
	g.br(isa.BCS, done)
	g.zp(isa.STA, Work+2)
	g.mov16(Work, IntR)
	g.asl16(IntR)
	g.asl16(IntR)
	g.add16(IntR, IntR, Work)
	g.asl16(IntR)
	nc := g.label()
	g.op(isa.CLC)
	g.zp(isa.LDA, IntR)
	g.zp(isa.ADC, Work+2)
	g.zp(isa.STA, IntR)
	g.br(isa.BCC, nc)
	g.zp(isa.INC, IntR+1)
	g.bind(nc)
	g.op(isa.INY)
	g.br(isa.BNE, loop)
	g.bind(done)
	g.op(isa.RTS)
}

// skipSpaces advances Y past leading blanks of the string at StrP1.
func (g *gen) skipSpaces() {
	done := g.label()
	g.imm(isa.LDY, 0)
	loop := g.here()
	g.indY(isa.LDA, StrP1)
	g.imm(isa.CMP, ' ')
	g.br(isa.BNE, done)
	g.op(isa.INY)
	g.br(isa.BNE, loop)
	g.bind(done)
}

func emitStrToU16(g *gen) {
	g.skipSpaces()
	g.call(ParseU16)
	g.ret16(IntR)
}

func emitStrToI16(g *gen) {
	parse, pos := g.label(), g.label()
	g.skipSpaces()
	g.imm(isa.LDX, 0)
	g.zp(isa.STX, Work+3)
	g.imm(isa.CMP, '-')
	g.br(isa.BNE, parse)
	g.zp(isa.STA, Work+3)
	g.op(isa.INY)
	g.bind(parse)
	g.call(ParseU16)
	g.zp(isa.LDA, Work+3)
	g.br(isa.BEQ, pos)
	g.neg16(IntR)
	g.bind(pos)
	g.ret16(IntR)
}
