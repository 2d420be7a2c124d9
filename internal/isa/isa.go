// Package isa holds the read-only encoding table of the 6502/6510 CPU.
//
// Every component that emits or reads machine code goes through this table:
// the assembler stream (internal/asm), the runtime library, the disassembler
// and the simulator. The table covers the documented instruction set only.
package isa

import "fmt"

// Mnemonic names an instruction independent of its addressing mode.
type Mnemonic uint8

const (
	InvalidMnemonic Mnemonic = iota
	ADC
	AND
	ASL
	BCC
	BCS
	BEQ
	BIT
	BMI
	BNE
	BPL
	BRK
	BVC
	BVS
	CLC
	CLD
	CLI
	CLV
	CMP
	CPX
	CPY
	DEC
	DEX
	DEY
	EOR
	INC
	INX
	INY
	JMP
	JSR
	LDA
	LDX
	LDY
	LSR
	NOP
	ORA
	PHA
	PHP
	PLA
	PLP
	ROL
	ROR
	RTI
	RTS
	SBC
	SEC
	SED
	SEI
	STA
	STX
	STY
	TAX
	TAY
	TSX
	TXA
	TXS
	TYA
	mnemonicCount
)

var mnemonicNames = [...]string{
	InvalidMnemonic: "???",
	ADC:             "ADC", AND: "AND", ASL: "ASL", BCC: "BCC", BCS: "BCS", BEQ: "BEQ",
	BIT: "BIT", BMI: "BMI", BNE: "BNE", BPL: "BPL", BRK: "BRK", BVC: "BVC",
	BVS: "BVS", CLC: "CLC", CLD: "CLD", CLI: "CLI", CLV: "CLV", CMP: "CMP",
	CPX: "CPX", CPY: "CPY", DEC: "DEC", DEX: "DEX", DEY: "DEY", EOR: "EOR",
	INC: "INC", INX: "INX", INY: "INY", JMP: "JMP", JSR: "JSR", LDA: "LDA",
	LDX: "LDX", LDY: "LDY", LSR: "LSR", NOP: "NOP", ORA: "ORA", PHA: "PHA",
	PHP: "PHP", PLA: "PLA", PLP: "PLP", ROL: "ROL", ROR: "ROR", RTI: "RTI",
	RTS: "RTS", SBC: "SBC", SEC: "SEC", SED: "SED", SEI: "SEI", STA: "STA",
	STX: "STX", STY: "STY", TAX: "TAX", TAY: "TAY", TSX: "TSX", TXA: "TXA",
	TXS: "TXS", TYA: "TYA",
}

func (m Mnemonic) String() string {
	if int(m) < len(mnemonicNames) && mnemonicNames[m] != "" {
		return mnemonicNames[m]
	}
	return fmt.Sprintf("Mnemonic(%d)", m)
}

// Mode is an addressing mode.
type Mode uint8

const (
	Implied Mode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndirectX
	IndirectY
	Relative
)

func (m Mode) String() string {
	switch m {
	case Implied:
		return "implied"
	case Accumulator:
		return "accumulator"
	case Immediate:
		return "immediate"
	case ZeroPage:
		return "zeropage"
	case ZeroPageX:
		return "zeropage,x"
	case ZeroPageY:
		return "zeropage,y"
	case Absolute:
		return "absolute"
	case AbsoluteX:
		return "absolute,x"
	case AbsoluteY:
		return "absolute,y"
	case Indirect:
		return "indirect"
	case IndirectX:
		return "(indirect,x)"
	case IndirectY:
		return "(indirect),y"
	case Relative:
		return "relative"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// OperandSize is the number of operand bytes following the opcode.
func (m Mode) OperandSize() int {
	switch m {
	case Implied, Accumulator:
		return 0
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 2
	default:
		return 1
	}
}

// Size is the full instruction length including the opcode byte.
func (m Mode) Size() int {
	return 1 + m.OperandSize()
}

// MaxBranchForward and MaxBranchBackward bound the signed displacement of a
// relative branch, measured from the address following the branch.
const (
	MaxBranchForward  = 127
	MaxBranchBackward = -128
)

// BranchFits reports whether disp can be encoded in a relative branch.
func BranchFits(disp int) bool {
	return disp >= MaxBranchBackward && disp <= MaxBranchForward
}
