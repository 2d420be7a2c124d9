package rtlib

// Zero-page slots shared by the code generator and the routines. Word slots
// are little-endian.
const (
	IntA    uint8 = 0x02
	IntB    uint8 = 0x04
	IntR    uint8 = 0x06
	FixA    uint8 = 0x08
	FixB    uint8 = 0x0A
	FixR    uint8 = 0x0C
	FltA    uint8 = 0x0E
	FltB    uint8 = 0x10
	FltR    uint8 = 0x12
	IntRem  uint8 = 0x14
	Work    uint8 = 0x16 // six bytes, private to routines
	StrP1   uint8 = 0x1C
	StrP2   uint8 = 0x1E
	Ptr     uint8 = 0x20 // code generator array pointer
	Scratch uint8 = 0x22 // code generator scratch word
	Seed    uint8 = 0x24
)

// WorkSize is the number of private scratch bytes at Work.
const WorkSize = 6

// ZeroPageSymbols names every slot for disassembly listings.
func ZeroPageSymbols() map[uint16]string {
	return map[uint16]string{
		uint16(IntA):    "int_a",
		uint16(IntB):    "int_b",
		uint16(IntR):    "int_r",
		uint16(FixA):    "fix_a",
		uint16(FixB):    "fix_b",
		uint16(FixR):    "fix_r",
		uint16(FltA):    "flt_a",
		uint16(FltB):    "flt_b",
		uint16(FltR):    "flt_r",
		uint16(IntRem):  "int_rem",
		uint16(Work):    "work",
		uint16(StrP1):   "str_p1",
		uint16(StrP2):   "str_p2",
		uint16(Ptr):     "ptr",
		uint16(Scratch): "scratch",
		uint16(Seed):    "seed",
	}
}
