package types

// FamilyMask describes broad categories of kinds an operator accepts.
type FamilyMask uint16

const (
	FamilyNone     FamilyMask = 0
	FamilyUnsigned FamilyMask = 1 << iota
	FamilySigned
	FamilyFixed
	FamilyFloat
	FamilyBool
	FamilyString
)

const (
	FamilyInteger = FamilyUnsigned | FamilySigned
	FamilyNumeric = FamilyInteger | FamilyFixed | FamilyFloat
	FamilyAny     = FamilyNumeric | FamilyBool | FamilyString
)

// Family returns the single family bit of k.
func (k Kind) Family() FamilyMask {
	switch k {
	case KindU8, KindU16:
		return FamilyUnsigned
	case KindI8, KindI16:
		return FamilySigned
	case KindFixed:
		return FamilyFixed
	case KindFloat:
		return FamilyFloat
	case KindBool:
		return FamilyBool
	case KindString:
		return FamilyString
	}
	return FamilyNone
}

// BinaryResult describes how to derive the result type for an operator.
type BinaryResult uint8

const (
	BinaryResultUnknown BinaryResult = iota
	BinaryResultCommon               // promoted operand type
	BinaryResultLeft                 // type of the left operand
	BinaryResultBool
)

// BinarySpec lists operand families and the result for an operator. Common
// restricts the promoted operand type; zero means no restriction.
type BinarySpec struct {
	Left   FamilyMask
	Right  FamilyMask
	Common FamilyMask
	Result BinaryResult
}

var binarySpecTable = [binaryOpCount]BinarySpec{
	OpAdd:    {Left: FamilyNumeric | FamilyBool | FamilyString, Right: FamilyNumeric | FamilyBool | FamilyString, Common: FamilyNumeric | FamilyString, Result: BinaryResultCommon},
	OpSub:    {Left: FamilyNumeric | FamilyBool, Right: FamilyNumeric | FamilyBool, Common: FamilyNumeric, Result: BinaryResultCommon},
	OpMul:    {Left: FamilyNumeric | FamilyBool, Right: FamilyNumeric | FamilyBool, Common: FamilyNumeric, Result: BinaryResultCommon},
	OpDiv:    {Left: FamilyNumeric | FamilyBool, Right: FamilyNumeric | FamilyBool, Common: FamilyNumeric, Result: BinaryResultCommon},
	OpMod:    {Left: FamilyInteger | FamilyFixed | FamilyBool, Right: FamilyInteger | FamilyFixed | FamilyBool, Common: FamilyInteger | FamilyFixed, Result: BinaryResultCommon},
	OpBitAnd: {Left: FamilyInteger, Right: FamilyInteger, Common: FamilyInteger, Result: BinaryResultCommon},
	OpBitOr:  {Left: FamilyInteger, Right: FamilyInteger, Common: FamilyInteger, Result: BinaryResultCommon},
	OpBitXor: {Left: FamilyInteger, Right: FamilyInteger, Common: FamilyInteger, Result: BinaryResultCommon},
	OpShl:    {Left: FamilyInteger, Right: FamilyInteger, Result: BinaryResultLeft},
	OpShr:    {Left: FamilyInteger, Right: FamilyInteger, Result: BinaryResultLeft},
	OpEq:     {Left: FamilyAny, Right: FamilyAny, Result: BinaryResultBool},
	OpNe:     {Left: FamilyAny, Right: FamilyAny, Result: BinaryResultBool},
	OpLt:     {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	OpLe:     {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	OpGt:     {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	OpGe:     {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	OpAnd:    {Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool},
	OpOr:     {Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool},
}

// BinarySpecFor returns the operand contract of op.
func BinarySpecFor(op BinaryOp) (BinarySpec, bool) {
	if op >= binaryOpCount {
		return BinarySpec{}, false
	}
	return binarySpecTable[op], true
}

// UnarySpec describes operand expectations for unary operators. The result
// always has the operand's type.
type UnarySpec struct {
	Operand FamilyMask
}

var unarySpecTable = [unaryOpCount]UnarySpec{
	UnaryNeg:    {Operand: FamilyNumeric},
	UnaryNot:    {Operand: FamilyBool},
	UnaryBitNot: {Operand: FamilyInteger},
}

// UnarySpecFor returns the operand contract of op.
func UnarySpecFor(op UnaryOp) (UnarySpec, bool) {
	if op >= unaryOpCount {
		return UnarySpec{}, false
	}
	return unarySpecTable[op], true
}
