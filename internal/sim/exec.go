package sim

import (
	"fmt"

	"halfbyte/internal/isa"
)

// address resolves the effective address of a memory operand. at is the
// address of the opcode.
func (c *CPU) address(mode isa.Mode, at uint16) uint16 {
	lo := c.Mem[at+1]
	word := uint16(lo) | uint16(c.Mem[at+2])<<8
	switch mode {
	case isa.ZeroPage:
		return uint16(lo)
	case isa.ZeroPageX:
		return uint16(lo + c.X)
	case isa.ZeroPageY:
		return uint16(lo + c.Y)
	case isa.Absolute:
		return word
	case isa.AbsoluteX:
		return word + uint16(c.X)
	case isa.AbsoluteY:
		return word + uint16(c.Y)
	case isa.IndirectX:
		zp := lo + c.X
		return uint16(c.Mem[zp]) | uint16(c.Mem[zp+1])<<8
	case isa.IndirectY:
		base := uint16(c.Mem[lo]) | uint16(c.Mem[lo+1])<<8
		return base + uint16(c.Y)
	case isa.Indirect:
		// The page does not carry when the pointer sits at $xxFF.
		hi := word&0xFF00 | (word+1)&0x00FF
		return uint16(c.Mem[word]) | uint16(c.Mem[hi])<<8
	}
	return 0
}

// operand fetches the value an instruction reads.
func (c *CPU) operand(op isa.Op, at uint16) uint8 {
	switch op.Mode {
	case isa.Immediate:
		return c.Mem[at+1]
	case isa.Accumulator:
		return c.A
	}
	return c.Mem[c.address(op.Mode, at)]
}

// modify applies a read-modify-write to A or memory.
func (c *CPU) modify(op isa.Op, at uint16, f func(uint8) uint8) {
	if op.Mode == isa.Accumulator {
		c.A = f(c.A)
		c.setNZ(c.A)
		return
	}
	addr := c.address(op.Mode, at)
	v := f(c.Mem[addr])
	c.Mem[addr] = v
	c.setNZ(v)
}

func (c *CPU) adc(v uint8) {
	carry := uint16(c.P & FlagC)
	sum := uint16(c.A) + uint16(v) + carry
	res := uint8(sum)
	c.setFlag(FlagV, (c.A^res)&(v^res)&0x80 != 0)
	c.setFlag(FlagC, sum > 0xFF)
	c.A = res
	c.setNZ(res)
}

func (c *CPU) compare(reg, v uint8) {
	c.setFlag(FlagC, reg >= v)
	c.setNZ(reg - v)
}

func (c *CPU) branch(taken bool, at uint16) {
	if taken {
		c.PC = isa.BranchTarget(at, c.Mem[at+1])
		c.Cycles++
	}
}

func (c *CPU) exec(op isa.Op, at uint16) error {
	switch op.Mnemonic {
	case isa.LDA:
		c.A = c.operand(op, at)
		c.setNZ(c.A)
	case isa.LDX:
		c.X = c.operand(op, at)
		c.setNZ(c.X)
	case isa.LDY:
		c.Y = c.operand(op, at)
		c.setNZ(c.Y)
	case isa.STA:
		c.Mem[c.address(op.Mode, at)] = c.A
	case isa.STX:
		c.Mem[c.address(op.Mode, at)] = c.X
	case isa.STY:
		c.Mem[c.address(op.Mode, at)] = c.Y

	case isa.TAX:
		c.X = c.A
		c.setNZ(c.X)
	case isa.TAY:
		c.Y = c.A
		c.setNZ(c.Y)
	case isa.TXA:
		c.A = c.X
		c.setNZ(c.A)
	case isa.TYA:
		c.A = c.Y
		c.setNZ(c.A)
	case isa.TSX:
		c.X = c.SP
		c.setNZ(c.X)
	case isa.TXS:
		c.SP = c.X

	case isa.PHA:
		c.push(c.A)
	case isa.PHP:
		c.push(c.P | FlagB | FlagU)
	case isa.PLA:
		c.A = c.pull()
		c.setNZ(c.A)
	case isa.PLP:
		c.P = c.pull()&^FlagB | FlagU

	case isa.ADC:
		c.adc(c.operand(op, at))
	case isa.SBC:
		c.adc(^c.operand(op, at))
	case isa.AND:
		c.A &= c.operand(op, at)
		c.setNZ(c.A)
	case isa.ORA:
		c.A |= c.operand(op, at)
		c.setNZ(c.A)
	case isa.EOR:
		c.A ^= c.operand(op, at)
		c.setNZ(c.A)
	case isa.BIT:
		v := c.operand(op, at)
		c.setFlag(FlagZ, c.A&v == 0)
		c.setFlag(FlagN, v&0x80 != 0)
		c.setFlag(FlagV, v&0x40 != 0)
	case isa.CMP:
		c.compare(c.A, c.operand(op, at))
	case isa.CPX:
		c.compare(c.X, c.operand(op, at))
	case isa.CPY:
		c.compare(c.Y, c.operand(op, at))

	case isa.INC:
		c.modify(op, at, func(v uint8) uint8 { return v + 1 })
	case isa.DEC:
		c.modify(op, at, func(v uint8) uint8 { return v - 1 })
	case isa.INX:
		c.X++
		c.setNZ(c.X)
	case isa.INY:
		c.Y++
		c.setNZ(c.Y)
	case isa.DEX:
		c.X--
		c.setNZ(c.X)
	case isa.DEY:
		c.Y--
		c.setNZ(c.Y)

	case isa.ASL:
		c.modify(op, at, func(v uint8) uint8 {
			c.setFlag(FlagC, v&0x80 != 0)
			return v << 1
		})
	case isa.LSR:
		c.modify(op, at, func(v uint8) uint8 {
			c.setFlag(FlagC, v&1 != 0)
			return v >> 1
		})
	case isa.ROL:
		c.modify(op, at, func(v uint8) uint8 {
			in := c.P & FlagC
			c.setFlag(FlagC, v&0x80 != 0)
			return v<<1 | in
		})
	case isa.ROR:
		c.modify(op, at, func(v uint8) uint8 {
			in := (c.P & FlagC) << 7
			c.setFlag(FlagC, v&1 != 0)
			return v>>1 | in
		})

	case isa.JMP:
		c.PC = c.address(op.Mode, at)
	case isa.JSR:
		ret := at + 2
		c.push(uint8(ret >> 8))
		c.push(uint8(ret))
		c.PC = c.address(op.Mode, at)
	case isa.RTS:
		c.rts()
	case isa.RTI:
		c.P = c.pull()&^FlagB | FlagU
		lo := c.pull()
		hi := c.pull()
		c.PC = uint16(hi)<<8 | uint16(lo)
	case isa.BRK:
		return fmt.Errorf("%w at $%04X", ErrBreak, at)

	case isa.BCC:
		c.branch(!c.flag(FlagC), at)
	case isa.BCS:
		c.branch(c.flag(FlagC), at)
	case isa.BEQ:
		c.branch(c.flag(FlagZ), at)
	case isa.BNE:
		c.branch(!c.flag(FlagZ), at)
	case isa.BMI:
		c.branch(c.flag(FlagN), at)
	case isa.BPL:
		c.branch(!c.flag(FlagN), at)
	case isa.BVC:
		c.branch(!c.flag(FlagV), at)
	case isa.BVS:
		c.branch(c.flag(FlagV), at)

	case isa.CLC:
		c.setFlag(FlagC, false)
	case isa.SEC:
		c.setFlag(FlagC, true)
	case isa.CLD:
		c.setFlag(FlagD, false)
	case isa.SED:
		c.setFlag(FlagD, true)
	case isa.CLI:
		c.setFlag(FlagI, false)
	case isa.SEI:
		c.setFlag(FlagI, true)
	case isa.CLV:
		c.setFlag(FlagV, false)
	case isa.NOP:
	default:
		return fmt.Errorf("%w: %v", ErrIllegalOpcode, op.Mnemonic)
	}
	return nil
}
