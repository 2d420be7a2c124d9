package isa

import (
	"fmt"
	"strings"
)

// Line is one disassembled instruction or data row.
type Line struct {
	Addr  uint16
	Bytes []byte
	Label string
	Text  string
}

// DisasmOptions tune Disassemble.
type DisasmOptions struct {
	// Symbols names addresses; they are printed as labels and used for
	// branch and jump targets.
	Symbols map[uint16]string
	// DataStart, when non-zero, switches to .byte rows from that address on.
	DataStart uint16
}

// Disassemble decodes code loaded at origin.
func Disassemble(code []byte, origin uint16, opts DisasmOptions) []Line {
	lines := make([]Line, 0, len(code)/2)
	pc := 0
	for pc < len(code) {
		addr := origin + uint16(pc)
		label := opts.Symbols[addr]
		if opts.DataStart != 0 && addr >= opts.DataStart {
			end := pc + 8
			if end > len(code) {
				end = len(code)
			}
			lines = append(lines, dataLine(addr, label, code[pc:end]))
			pc = end
			continue
		}
		op, ok := Decode(code[pc])
		size := op.Mode.Size()
		if !ok || pc+size > len(code) {
			lines = append(lines, dataLine(addr, label, code[pc:pc+1]))
			pc++
			continue
		}
		raw := code[pc : pc+size]
		lines = append(lines, Line{
			Addr:  addr,
			Bytes: raw,
			Label: label,
			Text:  formatInstruction(op, raw, addr, opts.Symbols),
		})
		pc += size
	}
	return lines
}

func dataLine(addr uint16, label string, raw []byte) Line {
	parts := make([]string, len(raw))
	for i, b := range raw {
		parts[i] = fmt.Sprintf("$%02X", b)
	}
	return Line{Addr: addr, Bytes: raw, Label: label, Text: ".byte " + strings.Join(parts, ",")}
}

func formatInstruction(op Op, raw []byte, addr uint16, symbols map[uint16]string) string {
	mn := op.Mnemonic.String()
	var word uint16
	if len(raw) == 3 {
		word = uint16(raw[1]) | uint16(raw[2])<<8
	}
	name := func(a uint16) string {
		if s, ok := symbols[a]; ok {
			return s
		}
		return fmt.Sprintf("$%04X", a)
	}
	switch op.Mode {
	case Implied:
		return mn
	case Accumulator:
		return mn + " A"
	case Immediate:
		return fmt.Sprintf("%s #$%02X", mn, raw[1])
	case ZeroPage:
		return fmt.Sprintf("%s $%02X", mn, raw[1])
	case ZeroPageX:
		return fmt.Sprintf("%s $%02X,X", mn, raw[1])
	case ZeroPageY:
		return fmt.Sprintf("%s $%02X,Y", mn, raw[1])
	case Absolute:
		return fmt.Sprintf("%s %s", mn, name(word))
	case AbsoluteX:
		return fmt.Sprintf("%s %s,X", mn, name(word))
	case AbsoluteY:
		return fmt.Sprintf("%s %s,Y", mn, name(word))
	case Indirect:
		return fmt.Sprintf("%s (%s)", mn, name(word))
	case IndirectX:
		return fmt.Sprintf("%s ($%02X,X)", mn, raw[1])
	case IndirectY:
		return fmt.Sprintf("%s ($%02X),Y", mn, raw[1])
	case Relative:
		return fmt.Sprintf("%s %s", mn, name(BranchTarget(addr, raw[1])))
	}
	return mn
}

// BranchTarget computes the destination of a relative branch at addr.
func BranchTarget(addr uint16, disp byte) uint16 {
	return addr + 2 + uint16(int16(int8(disp)))
}

// String renders l the way the disasm command prints it.
func (l Line) String() string {
	hex := make([]string, len(l.Bytes))
	for i, b := range l.Bytes {
		hex[i] = fmt.Sprintf("%02X", b)
	}
	prefix := ""
	if l.Label != "" {
		prefix = l.Label + ":\n"
	}
	return fmt.Sprintf("%s%04X  %-9s %s", prefix, l.Addr, strings.Join(hex, " "), l.Text)
}
