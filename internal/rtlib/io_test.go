package rtlib

import "testing"

func TestPrint(t *testing.T) {
	h := newHarness(t, PrintStr, PrintNl)
	h.setString(0x4000, "READY.")
	h.cpu.A, h.cpu.X = 0x00, 0x40
	h.call(PrintStr)
	if h.cpu.X != 0x40 {
		t.Fatalf("print_str must preserve X")
	}
	h.call(PrintNl)
	if got := h.cpu.Output(); got != "READY.\r" {
		t.Fatalf("output %q", got)
	}
}

func TestRandom(t *testing.T) {
	h := newHarness(t, RandSeed, RandNext)
	h.cpu.A, h.cpu.X = 0, 0
	h.call(RandSeed)
	if h.get16(Seed) != DefaultSeed {
		t.Fatalf("zero seed must become $%04X, got $%04X", DefaultSeed, h.get16(Seed))
	}
	want := uint16(DefaultSeed)
	seen := make(map[uint16]bool)
	for range 1000 {
		want = NextSeed(want)
		h.call(RandNext)
		if h.ax() != want || h.get16(Seed) != want {
			t.Fatalf("rand_next = $%04X, want $%04X", h.ax(), want)
		}
		if want == 0 {
			t.Fatalf("LFSR reached zero")
		}
		seen[want] = true
	}
	if len(seen) != 1000 {
		t.Fatalf("sequence repeats after %d steps", len(seen))
	}

	h.cpu.A, h.cpu.X = 0x34, 0x12
	h.call(RandSeed)
	if h.get16(Seed) != 0x1234 {
		t.Fatalf("seed = $%04X", h.get16(Seed))
	}
}

func TestRandRange(t *testing.T) {
	h := newHarness(t, RandSeed, RandRange)
	for _, c := range []struct{ from, to uint16 }{
		{1, 6}, {0, 255}, {10, 10}, {1000, 60000}, {0, 0xFFFF},
		{0xFFF6, 10}, // -10..10 as i16
		{0xFF80, 0x007F},
	} {
		h.cpu.A, h.cpu.X = 0x21, 0x43
		h.call(RandSeed)
		state := uint16(0x4321)
		for range 200 {
			state = NextSeed(state)
			h.set16(IntA, c.from)
			h.set16(IntB, c.to)
			h.call(RandRange)
			want := RangeValue(state, c.from, c.to)
			if h.ax() != want || h.get16(IntR) != want {
				t.Fatalf("rand_range(%d, %d) = %d, want %d", c.from, c.to, h.ax(), want)
			}
			if h.get16(Seed) != state {
				t.Fatalf("rand_range must advance the state once")
			}
			if span := c.to - c.from; span != 0xFFFF && want-c.from > span {
				t.Fatalf("rand_range(%d, %d) = %d is out of range", c.from, c.to, want)
			}
		}
	}
}

func TestRandInit(t *testing.T) {
	h := newHarness(t, RandInit)
	h.call(RandInit)
	if h.get16(Seed) != DefaultSeed {
		t.Fatalf("quiet hardware must give $%04X, got $%04X", DefaultSeed, h.get16(Seed))
	}
	if h.cpu.Mem[sidV3Ctrl] != sidNoise {
		t.Fatalf("voice 3 is not on noise")
	}
	h.cpu.Mem[vicRaster] = 0x5A
	h.cpu.Mem[ciaTimerA+1] = 0x12
	h.call(RandInit)
	if h.get16(Seed) != 0x125A {
		t.Fatalf("seed = $%04X, want $125A", h.get16(Seed))
	}
}

// The taps give the maximal period.
func TestNextSeedPeriod(t *testing.T) {
	s := uint16(DefaultSeed)
	for i := 1; i <= 0xFFFF; i++ {
		s = NextSeed(s)
		if s == DefaultSeed {
			if i != 0xFFFF {
				t.Fatalf("period %d", i)
			}
			return
		}
	}
	t.Fatalf("no return to the start state")
}
