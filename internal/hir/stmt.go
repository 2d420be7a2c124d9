package hir

import (
	"halfbyte/internal/source"
	"halfbyte/internal/types"
)

// StmtKind enumerates HIR statement kinds.
type StmtKind uint8

const (
	// StmtLet initialises a local.
	StmtLet StmtKind = iota
	// StmtAssign stores into a scalar or an array element, possibly with an operator.
	StmtAssign
	// StmtExpr evaluates an expression for its effect.
	StmtExpr
	// StmtReturn leaves the function.
	StmtReturn
	// StmtBreak leaves the innermost loop.
	StmtBreak
	// StmtContinue jumps to the innermost loop's next iteration.
	StmtContinue
	// StmtIf represents if/elif/else.
	StmtIf
	// StmtWhile represents a while loop.
	StmtWhile
	// StmtFor represents an inclusive counting loop.
	StmtFor
)

var stmtKindNames = [...]string{
	StmtLet:      "Let",
	StmtAssign:   "Assign",
	StmtExpr:     "Expr",
	StmtReturn:   "Return",
	StmtBreak:    "Break",
	StmtContinue: "Continue",
	StmtIf:       "If",
	StmtWhile:    "While",
	StmtFor:      "For",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "Unknown"
}

// Block represents a sequence of statements in HIR.
type Block struct {
	Stmts []Stmt
	Span  source.Span
}

func (b *Block) IsEmpty() bool { return b == nil || len(b.Stmts) == 0 }

// Stmt represents an HIR statement.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// LetData holds data for StmtLet.
type LetData struct {
	Symbol SymbolID
	Value  *Expr
}

func (LetData) stmtData() {}

// AssignData holds data for StmtAssign. Target is an ExprVarRef or ExprIndex.
// When Compound is set the statement means Target = Target Op Value.
type AssignData struct {
	Target   *Expr
	Value    *Expr
	Op       types.BinaryOp
	Compound bool
}

func (AssignData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// ReturnData holds data for StmtReturn.
type ReturnData struct {
	Value *Expr // nil for bare return
}

func (ReturnData) stmtData() {}

// BreakData holds data for StmtBreak.
type BreakData struct{}

func (BreakData) stmtData() {}

// ContinueData holds data for StmtContinue.
type ContinueData struct{}

func (ContinueData) stmtData() {}

// CondBranch is one `if` or `elif` arm.
type CondBranch struct {
	Cond *Expr
	Body *Block
}

// IfData holds data for StmtIf: the if arm, any elif arms, then Else.
type IfData struct {
	Branches []CondBranch
	Else     *Block // nil if no else branch
}

func (IfData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond *Expr
	Body *Block
}

func (WhileData) stmtData() {}

// ForData holds data for StmtFor: for Var in From to|downto To. Both bounds
// are inclusive.
type ForData struct {
	Var  SymbolID
	From *Expr
	To   *Expr
	Down bool
	Body *Block
}

func (ForData) stmtData() {}
