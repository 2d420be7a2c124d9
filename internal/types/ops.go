package types

import "fmt"

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	binaryOpCount
)

var binaryOpNames = [binaryOpCount]string{
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpBitAnd: "&",
	OpBitOr:  "|",
	OpBitXor: "^",
	OpShl:    "<<",
	OpShr:    ">>",
	OpEq:     "==",
	OpNe:     "!=",
	OpLt:     "<",
	OpLe:     "<=",
	OpGt:     ">",
	OpGe:     ">=",
	OpAnd:    "and",
	OpOr:     "or",
}

// BinaryOps lists every binary operator.
func BinaryOps() []BinaryOp {
	out := make([]BinaryOp, 0, binaryOpCount)
	for op := OpAdd; op < binaryOpCount; op++ {
		out = append(out, op)
	}
	return out
}

func (op BinaryOp) String() string {
	if op < binaryOpCount {
		return binaryOpNames[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", op)
}

// ParseBinaryOp maps an operator spelling to its BinaryOp.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for op, name := range binaryOpNames {
		if name == s {
			return BinaryOp(op), true
		}
	}
	return 0, false
}

// IsComparison covers the six relational operators.
func (op BinaryOp) IsComparison() bool { return op >= OpEq && op <= OpGe }

// IsLogical covers the short-circuit operators.
func (op BinaryOp) IsLogical() bool { return op == OpAnd || op == OpOr }

// IsShift covers << and >>.
func (op BinaryOp) IsShift() bool { return op == OpShl || op == OpShr }

// UnaryOp enumerates prefix operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
	UnaryBitNot
	unaryOpCount
)

// UnaryOps lists every unary operator.
func UnaryOps() []UnaryOp {
	return []UnaryOp{UnaryNeg, UnaryNot, UnaryBitNot}
}

func (op UnaryOp) String() string {
	switch op {
	case UnaryNeg:
		return "-"
	case UnaryNot:
		return "not"
	case UnaryBitNot:
		return "~"
	}
	return fmt.Sprintf("UnaryOp(%d)", op)
}
