// Package sim is a 6502 simulator used to run compiled images in tests and by
// the run command. It executes the documented instruction set through the
// isa table, traps the KERNAL character output routine and stops when the
// called code returns. Decimal mode is not emulated.
package sim

import (
	"errors"
	"fmt"

	"halfbyte/internal/isa"
)

var (
	// ErrIllegalOpcode reports a byte outside the documented instruction set.
	ErrIllegalOpcode = errors.New("sim: illegal opcode")
	// ErrBreak reports a BRK instruction.
	ErrBreak = errors.New("sim: BRK executed")
	// ErrStepLimit reports a run that did not return in time.
	ErrStepLimit = errors.New("sim: step limit reached")
	// ErrBadImage reports a PRG that cannot be loaded.
	ErrBadImage = errors.New("sim: bad image")
)

// Status flags.
const (
	FlagC uint8 = 1 << iota
	FlagZ
	FlagI
	FlagD
	FlagB
	FlagU
	FlagV
	FlagN
)

// KERNAL entry points trapped by default.
const (
	DefaultChrout = 0xFFD2
	DefaultPlot   = 0xFFF0
)

// returnTrap is where a Call ends: the pushed return address points at it.
const returnTrap = 0xFFFF

const stackBase = 0x0100

// CPU is the processor state plus a flat 64 KB memory.
type CPU struct {
	A, X, Y uint8
	SP      uint8
	P       uint8
	PC      uint16
	Mem     [65536]byte
	Cycles  uint64
	Steps   uint64

	// Chrout is the trapped character output address; zero disables it.
	Chrout uint16
	// Out collects every byte written through Chrout.
	Out []byte
	// Plot is the trapped cursor call: with C clear it moves the cursor to
	// row X and column Y, with C set it reports them. Zero disables it.
	Plot     uint16
	Row, Col uint8
}

// New returns a reset CPU with the CHROUT and PLOT traps installed.
func New() *CPU {
	c := &CPU{Chrout: DefaultChrout, Plot: DefaultPlot}
	c.Reset()
	return c
}

// Reset clears registers and output but keeps memory.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFF
	c.P = FlagU | FlagI
	c.PC = 0
	c.Cycles, c.Steps = 0, 0
	c.Out = c.Out[:0]
	c.Row, c.Col = 0, 0
}

// Read returns the byte at addr.
func (c *CPU) Read(addr uint16) uint8 { return c.Mem[addr] }

// Write stores v at addr.
func (c *CPU) Write(addr uint16, v uint8) { c.Mem[addr] = v }

// Read16 returns the little-endian word at addr.
func (c *CPU) Read16(addr uint16) uint16 {
	return uint16(c.Mem[addr]) | uint16(c.Mem[addr+1])<<8
}

// Write16 stores a little-endian word at addr.
func (c *CPU) Write16(addr uint16, v uint16) {
	c.Mem[addr] = uint8(v)
	c.Mem[addr+1] = uint8(v >> 8)
}

// ReadString reads the zero-terminated string at addr, at most 255 bytes.
func (c *CPU) ReadString(addr uint16) string {
	var b []byte
	for i := uint16(0); i < 255; i++ {
		ch := c.Mem[addr+i]
		if ch == 0 {
			break
		}
		b = append(b, ch)
	}
	return string(b)
}

// Load copies data into memory at addr.
func (c *CPU) Load(addr uint16, data []byte) error {
	if int(addr)+len(data) > len(c.Mem) {
		return fmt.Errorf("%w: %d bytes at $%04X", ErrBadImage, len(data), addr)
	}
	copy(c.Mem[addr:], data)
	return nil
}

// LoadPRG loads a PRG file (two-byte load address, then data) and returns
// its load address.
func (c *CPU) LoadPRG(prg []byte) (uint16, error) {
	if len(prg) < 2 {
		return 0, fmt.Errorf("%w: %d bytes", ErrBadImage, len(prg))
	}
	addr := uint16(prg[0]) | uint16(prg[1])<<8
	return addr, c.Load(addr, prg[2:])
}

// Call runs the subroutine at addr until it returns, executing at most
// maxSteps instructions (zero means no limit).
func (c *CPU) Call(addr uint16, maxSteps uint64) error {
	ret := uint16(returnTrap - 1)
	c.push(uint8(ret >> 8))
	c.push(uint8(ret))
	c.PC = addr
	start := c.Steps
	for c.PC != returnTrap {
		if maxSteps != 0 && c.Steps-start >= maxSteps {
			return fmt.Errorf("%w: %d steps, PC=$%04X", ErrStepLimit, maxSteps, c.PC)
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Output returns what was printed so far.
func (c *CPU) Output() string { return string(c.Out) }

func (c *CPU) flag(f uint8) bool { return c.P&f != 0 }

func (c *CPU) setFlag(f uint8, on bool) {
	if on {
		c.P |= f
	} else {
		c.P &^= f
	}
}

func (c *CPU) setNZ(v uint8) {
	c.setFlag(FlagZ, v == 0)
	c.setFlag(FlagN, v&0x80 != 0)
}

func (c *CPU) push(v uint8) {
	c.Mem[stackBase+uint16(c.SP)] = v
	c.SP--
}

func (c *CPU) pull() uint8 {
	c.SP++
	return c.Mem[stackBase+uint16(c.SP)]
}

func (c *CPU) rts() {
	lo := c.pull()
	hi := c.pull()
	c.PC = (uint16(hi)<<8 | uint16(lo)) + 1
}

// Step executes one instruction, or a KERNAL trap when PC sits on one.
func (c *CPU) Step() error {
	switch {
	case c.Chrout != 0 && c.PC == c.Chrout:
		c.Out = append(c.Out, c.A)
		c.rts()
		c.Steps++
		return nil
	case c.Plot != 0 && c.PC == c.Plot:
		if c.flag(FlagC) {
			c.X, c.Y = c.Row, c.Col
		} else {
			c.Row, c.Col = c.X, c.Y
		}
		c.rts()
		c.Steps++
		return nil
	}
	at := c.PC
	op, ok := isa.Decode(c.Mem[at])
	if !ok {
		return fmt.Errorf("%w: $%02X at $%04X", ErrIllegalOpcode, c.Mem[at], at)
	}
	c.PC += uint16(op.Mode.Size())
	c.Steps++
	c.Cycles += uint64(op.Cycles)
	return c.exec(op, at)
}
