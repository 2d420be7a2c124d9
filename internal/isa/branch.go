package isa

var inverted = map[Mnemonic]Mnemonic{
	BCC: BCS, BCS: BCC,
	BEQ: BNE, BNE: BEQ,
	BMI: BPL, BPL: BMI,
	BVC: BVS, BVS: BVC,
}

// IsBranch reports whether mn is a conditional relative branch.
func IsBranch(mn Mnemonic) bool {
	_, ok := inverted[mn]
	return ok
}

// InvertBranch returns the branch taken exactly when mn is not taken.
func InvertBranch(mn Mnemonic) (Mnemonic, bool) {
	inv, ok := inverted[mn]
	return inv, ok
}

// InvertBranchCode is InvertBranch on raw opcode bytes.
func InvertBranchCode(code byte) (byte, bool) {
	op, ok := Decode(code)
	if !ok || op.Mode != Relative {
		return 0, false
	}
	inv, ok := InvertBranch(op.Mnemonic)
	if !ok {
		return 0, false
	}
	return Encode(inv, Relative)
}
