package rtlib

import "testing"

func TestMul8(t *testing.T) {
	h := newHarness(t, Mul8)
	for a := 0; a < 256; a += 3 {
		for _, b := range []int{0, 1, 2, 7, 10, 16, 100, 127, 128, 200, 255} {
			h.set8(IntA, uint8(a))
			h.set8(IntB, uint8(b))
			h.call(Mul8)
			if want := uint8(a * b); h.cpu.A != want || h.cpu.Mem[IntR] != want {
				t.Fatalf("%d*%d = %d, want %d", a, b, h.cpu.A, want)
			}
		}
	}
}

func TestMul16(t *testing.T) {
	h := newHarness(t, Mul16)
	bs := []uint16{0, 1, 3, 10, 255, 256, 1000, 0x7FFF, 0x8000, 0xFFFF}
	for _, a := range grid16(977) {
		for _, b := range bs {
			h.set16(IntA, a)
			h.set16(IntB, b)
			h.call(Mul16)
			if want := a * b; h.ax() != want || h.get16(IntR) != want {
				t.Fatalf("%d*%d = %d, want %d", a, b, h.ax(), want)
			}
		}
	}
}

// Signed i16 -2 * 3 uses the same low word.
func TestMul16Signed(t *testing.T) {
	h := newHarness(t, Mul16)
	for _, c := range [][2]int16{{-2, 3}, {-128, -1}, {-300, 100}, {32767, -1}} {
		h.set16(IntA, uint16(c[0]))
		h.set16(IntB, uint16(c[1]))
		h.call(Mul16)
		if want := uint16(c[0] * c[1]); h.ax() != want {
			t.Fatalf("%d*%d = %d, want %d", c[0], c[1], int16(h.ax()), int16(want))
		}
	}
}

func TestDivU8(t *testing.T) {
	h := newHarness(t, DivU8)
	for a := 0; a < 256; a += 5 {
		for b := 0; b < 256; b += 3 {
			h.set8(IntA, uint8(a))
			h.set8(IntB, uint8(b))
			h.call(DivU8)
			q, r := uint8(0xFF), uint8(a)
			if b != 0 {
				q, r = uint8(a/b), uint8(a%b)
			}
			if h.cpu.A != q || h.cpu.Mem[IntRem] != r {
				t.Fatalf("%d/%d = %d r %d, want %d r %d", a, b, h.cpu.A, h.cpu.Mem[IntRem], q, r)
			}
		}
	}
}

func TestDivS8(t *testing.T) {
	h := newHarness(t, DivS8)
	for a := -128; a < 128; a += 3 {
		for _, b := range []int{-128, -100, -7, -2, -1, 0, 1, 2, 3, 10, 127} {
			h.set8(IntA, uint8(int8(a)))
			h.set8(IntB, uint8(int8(b)))
			h.call(DivS8)
			q, r := uint8(0xFF), uint8(int8(a))
			if b != 0 {
				q, r = uint8(int8(a/b)), uint8(int8(a%b))
			}
			if h.cpu.A != q || h.cpu.Mem[IntRem] != r {
				t.Fatalf("%d/%d = %d r %d, want %d r %d", a, b,
					int8(h.cpu.A), int8(h.cpu.Mem[IntRem]), int8(q), int8(r))
			}
		}
	}
}

func TestDivU16(t *testing.T) {
	h := newHarness(t, DivU16)
	bs := []uint16{0, 1, 2, 3, 7, 10, 255, 256, 1000, 0x7FFF, 0x8000, 0xFFFF}
	for _, a := range grid16(1013) {
		for _, b := range bs {
			h.set16(IntA, a)
			h.set16(IntB, b)
			h.call(DivU16)
			q, r := uint16(0xFFFF), a
			if b != 0 {
				q, r = a/b, a%b
			}
			if h.ax() != q || h.get16(IntR) != q || h.get16(IntRem) != r {
				t.Fatalf("%d/%d = %d r %d, want %d r %d", a, b, h.ax(), h.get16(IntRem), q, r)
			}
		}
	}
}

func TestDivS16(t *testing.T) {
	h := newHarness(t, DivS16)
	bs := []int16{-32768, -1000, -7, -1, 0, 1, 2, 3, 10, 300, 32767}
	for _, u := range grid16(1013) {
		a := int16(u)
		for _, b := range bs {
			h.set16(IntA, uint16(a))
			h.set16(IntB, uint16(b))
			h.call(DivS16)
			q, r := int16(-1), a
			if b != 0 {
				q, r = a/b, a%b
			}
			if int16(h.ax()) != q || int16(h.get16(IntRem)) != r {
				t.Fatalf("%d/%d = %d r %d, want %d r %d", a, b, int16(h.ax()), int16(h.get16(IntRem)), q, r)
			}
		}
	}
}
