package hir

import (
	"halfbyte/internal/source"
	"halfbyte/internal/types"
)

// ExprKind enumerates HIR expression kinds.
type ExprKind uint8

const (
	// ExprLiteral represents int, fixed, float, bool and string literals.
	ExprLiteral ExprKind = iota
	// ExprVarRef reads a scalar symbol.
	ExprVarRef
	// ExprUnary represents -, not and ~.
	ExprUnary
	// ExprBinary represents arithmetic, bitwise, comparison and logical operators.
	ExprBinary
	// ExprCall calls a user function.
	ExprCall
	// ExprIndex reads one element of an array symbol.
	ExprIndex
	// ExprCast is an explicit conversion (x as T).
	ExprCast
	// ExprBuiltin calls a compiler-provided function.
	ExprBuiltin
	// ExprDataAddr is the u16 address of a data block.
	ExprDataAddr
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVarRef:
		return "VarRef"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprCall:
		return "Call"
	case ExprIndex:
		return "Index"
	case ExprCast:
		return "Cast"
	case ExprBuiltin:
		return "Builtin"
	case ExprDataAddr:
		return "DataAddr"
	default:
		return "Unknown"
	}
}

// Expr represents an HIR expression with type information.
type Expr struct {
	Kind ExprKind
	Type types.Type
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal value kinds.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralBool
	LiteralString
)

// LiteralData holds data for ExprLiteral. Float literals are used for both
// fixed and float typed expressions.
type LiteralData struct {
	Kind   LiteralKind
	Int    int64
	Float  float64
	Bool   bool
	String string
}

func (LiteralData) exprData() {}

// VarRefData holds data for ExprVarRef.
type VarRefData struct {
	Symbol SymbolID
}

func (VarRefData) exprData() {}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      types.UnaryOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    types.BinaryOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Func FuncID
	Args []*Expr
}

func (CallData) exprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Array SymbolID
	Index *Expr
}

func (IndexData) exprData() {}

// CastData holds data for ExprCast. The target type is Expr.Type.
type CastData struct {
	Value *Expr
}

func (CastData) exprData() {}

// BuiltinData holds data for ExprBuiltin.
type BuiltinData struct {
	Builtin Builtin
	Args    []*Expr
}

func (BuiltinData) exprData() {}

// DataAddrData holds data for ExprDataAddr.
type DataAddrData struct {
	Block DataID
}

func (DataAddrData) exprData() {}

// IsLiteral reports whether e is a literal.
func (e *Expr) IsLiteral() bool {
	return e != nil && e.Kind == ExprLiteral
}

// Literal returns the literal payload of e.
func (e *Expr) Literal() (LiteralData, bool) {
	if e == nil || e.Kind != ExprLiteral {
		return LiteralData{}, false
	}
	d, ok := e.Data.(LiteralData)
	return d, ok
}
