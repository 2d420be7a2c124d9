package rtlib

import (
	"testing"

	"halfbyte/internal/asm"
	"halfbyte/internal/layout"
	"halfbyte/internal/sim"
)

const libOrigin = 0x1000

// harness links the closure of a few routines at libOrigin and calls them on
// the simulator.
type harness struct {
	t   *testing.T
	cpu *sim.CPU
	img *asm.Image
}

func newHarness(t *testing.T, ids ...ID) *harness {
	t.Helper()
	s := asm.NewStream()
	lib := New(s, layout.C64())
	for _, id := range ids {
		lib.Require(id)
	}
	lib.Emit()
	img, err := s.Link(libOrigin)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	cpu := sim.New()
	if err := cpu.Load(img.Origin, img.Bytes); err != nil {
		t.Fatalf("load: %v", err)
	}
	return &harness{t: t, cpu: cpu, img: img}
}

func (h *harness) call(id ID) {
	h.t.Helper()
	addr, ok := h.img.Lookup(registry[id].Name)
	if !ok {
		h.t.Fatalf("%s not linked", id)
	}
	if err := h.cpu.Call(addr, 1_000_000); err != nil {
		h.t.Fatalf("%s: %v", id, err)
	}
}

func (h *harness) set8(zp uint8, v uint8)   { h.cpu.Mem[zp] = v }
func (h *harness) set16(zp uint8, v uint16) { h.cpu.Write16(uint16(zp), v) }
func (h *harness) get16(zp uint8) uint16    { return h.cpu.Read16(uint16(zp)) }
func (h *harness) ax() uint16               { return uint16(h.cpu.A) | uint16(h.cpu.X)<<8 }

// setString stores a zero-terminated string at addr.
func (h *harness) setString(addr uint16, s string) {
	copy(h.cpu.Mem[addr:], s)
	h.cpu.Mem[addr+uint16(len(s))] = 0
}

// grid16 samples the 16-bit range with every edge case included.
func grid16(step int) []uint16 {
	out := []uint16{0, 1, 2, 3, 9, 10, 15, 16, 100, 255, 256, 1000, 9999, 10000,
		0x7FFE, 0x7FFF, 0x8000, 0x8001, 0xFFFE, 0xFFFF}
	for v := 0; v < 0x10000; v += step {
		out = append(out, uint16(v))
	}
	return out
}
