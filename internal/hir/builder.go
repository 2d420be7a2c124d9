package hir

import (
	"halfbyte/internal/source"
	"halfbyte/internal/types"
)

// Builder assembles a Program in Go. Expression types are derived the way a
// type checker would: binary results come from types.Resolve, casts take
// their target, references take the symbol's type.
type Builder struct {
	prog *Program
	span source.Span
}

// NewBuilder starts an empty program.
func NewBuilder(name string) *Builder {
	return &Builder{prog: &Program{Name: name}}
}

// Program returns the program built so far.
func (b *Builder) Program() *Program { return b.prog }

// AddFile registers a source file and makes later nodes point into it.
func (b *Builder) AddFile(path string, content []byte) source.FileID {
	b.prog.Files = append(b.prog.Files, SourceFile{Path: path, Content: content})
	id := source.FileID(len(b.prog.Files) - 1)
	b.span = source.Span{File: id}
	return id
}

// At sets the span stamped on nodes created afterwards.
func (b *Builder) At(start, end uint32) *Builder {
	b.span.Start, b.span.End = start, end
	return b
}

func (b *Builder) symbol(name string, t types.Type, class SymbolClass, owner FuncID) SymbolID {
	b.prog.Symbols = append(b.prog.Symbols, Symbol{Name: name, Type: t, Class: class, Owner: owner, Span: b.span})
	return SymbolID(len(b.prog.Symbols))
}

// Global declares a global; init may be nil.
func (b *Builder) Global(name string, t types.Type, init *Expr) SymbolID {
	id := b.symbol(name, t, SymGlobal, NoFuncID)
	b.prog.Globals = append(b.prog.Globals, VarDecl{Symbol: id, Value: init, Span: b.span})
	return id
}

// Const declares a named constant.
func (b *Builder) Const(name string, t types.Type, value *Expr) SymbolID {
	id := b.symbol(name, t, SymConst, NoFuncID)
	b.prog.Globals = append(b.prog.Globals, VarDecl{Symbol: id, Value: value, Span: b.span})
	return id
}

// Data adds a data block. Data blocks are laid out after the code in
// declaration order.
func (b *Builder) Data(name string, align uint16, bytes ...byte) DataID {
	b.prog.Data = append(b.prog.Data, DataBlock{Name: name, Bytes: bytes, Align: align, Span: b.span})
	return DataID(len(b.prog.Data))
}

// FuncBuilder adds params, locals and a body to one function.
type FuncBuilder struct {
	b  *Builder
	fn *Func
}

// Func declares a function. Functions named "main" become the entry point
// unless Entry was set explicitly.
func (b *Builder) Func(name string, result types.Type) *FuncBuilder {
	fn := &Func{ID: FuncID(len(b.prog.Funcs) + 1), Name: name, Result: result, Body: &Block{}, Span: b.span}
	b.prog.Funcs = append(b.prog.Funcs, fn)
	if name == "main" && !b.prog.Entry.IsValid() {
		b.prog.Entry = fn.ID
	}
	return &FuncBuilder{b: b, fn: fn}
}

// Entry marks fn as the program entry point.
func (b *Builder) Entry(fn FuncID) { b.prog.Entry = fn }

// ID returns the function's ID.
func (f *FuncBuilder) ID() FuncID { return f.fn.ID }

// Func returns the function being built.
func (f *FuncBuilder) Func() *Func { return f.fn }

// Param appends a parameter.
func (f *FuncBuilder) Param(name string, t types.Type) SymbolID {
	id := f.b.symbol(name, t, SymParam, f.fn.ID)
	f.fn.Params = append(f.fn.Params, id)
	return id
}

// Local declares a local variable.
func (f *FuncBuilder) Local(name string, t types.Type) SymbolID {
	id := f.b.symbol(name, t, SymLocal, f.fn.ID)
	f.fn.Locals = append(f.fn.Locals, id)
	return id
}

// Body appends statements to the function body.
func (f *FuncBuilder) Body(stmts ...Stmt) *FuncBuilder {
	f.fn.Body.Stmts = append(f.fn.Body.Stmts, stmts...)
	return f
}

func (b *Builder) expr(kind ExprKind, t types.Type, data ExprData) *Expr {
	return &Expr{Kind: kind, Type: t, Span: b.span, Data: data}
}

// Int is an integer literal of type t.
func (b *Builder) Int(t types.Type, v int64) *Expr {
	return b.expr(ExprLiteral, t, LiteralData{Kind: LiteralInt, Int: v})
}

// Fixed is a fixed-point literal.
func (b *Builder) Fixed(v float64) *Expr {
	return b.expr(ExprLiteral, types.Fixed, LiteralData{Kind: LiteralFloat, Float: v})
}

// Float is a binary16 literal.
func (b *Builder) Float(v float64) *Expr {
	return b.expr(ExprLiteral, types.Float, LiteralData{Kind: LiteralFloat, Float: v})
}

// Bool is a boolean literal.
func (b *Builder) Bool(v bool) *Expr {
	return b.expr(ExprLiteral, types.Bool, LiteralData{Kind: LiteralBool, Bool: v})
}

// Str is a string literal.
func (b *Builder) Str(s string) *Expr {
	return b.expr(ExprLiteral, types.String, LiteralData{Kind: LiteralString, String: s})
}

// Var reads a symbol.
func (b *Builder) Var(id SymbolID) *Expr {
	var t types.Type
	if sym := b.prog.Symbol(id); sym != nil {
		t = sym.Type
	}
	return b.expr(ExprVarRef, t, VarRefData{Symbol: id})
}

// Index reads arr[idx].
func (b *Builder) Index(arr SymbolID, idx *Expr) *Expr {
	var t types.Type
	if sym := b.prog.Symbol(arr); sym != nil {
		t = sym.Type.Elem()
	}
	return b.expr(ExprIndex, t, IndexData{Array: arr, Index: idx})
}

// Binary applies op; the type is whatever types.Resolve decides.
func (b *Builder) Binary(op types.BinaryOp, l, r *Expr) *Expr {
	res, _ := types.Resolve(op, l.Type, r.Type)
	return b.expr(ExprBinary, res.Result, BinaryData{Op: op, Left: l, Right: r})
}

// Unary applies a prefix operator.
func (b *Builder) Unary(op types.UnaryOp, x *Expr) *Expr {
	return b.expr(ExprUnary, x.Type, UnaryData{Op: op, Operand: x})
}

// Cast converts x to t explicitly.
func (b *Builder) Cast(x *Expr, t types.Type) *Expr {
	return b.expr(ExprCast, t, CastData{Value: x})
}

// Call calls fn.
func (b *Builder) Call(fn FuncID, args ...*Expr) *Expr {
	var t types.Type
	if f := b.prog.Func(fn); f != nil {
		t = f.Result
	}
	return b.expr(ExprCall, t, CallData{Func: fn, Args: args})
}

// Builtin calls a compiler-provided function.
func (b *Builder) Builtin(kind Builtin, args ...*Expr) *Expr {
	return b.expr(ExprBuiltin, kind.Result(), BuiltinData{Builtin: kind, Args: args})
}

// DataAddr is the address of a data block.
func (b *Builder) DataAddr(id DataID) *Expr {
	return b.expr(ExprDataAddr, types.U16, DataAddrData{Block: id})
}

func (b *Builder) stmt(kind StmtKind, data StmtData) Stmt {
	return Stmt{Kind: kind, Span: b.span, Data: data}
}

// Let initialises a local.
func (b *Builder) Let(id SymbolID, value *Expr) Stmt {
	return b.stmt(StmtLet, LetData{Symbol: id, Value: value})
}

// Assign stores value into target.
func (b *Builder) Assign(target, value *Expr) Stmt {
	return b.stmt(StmtAssign, AssignData{Target: target, Value: value})
}

// AssignOp is target op= value.
func (b *Builder) AssignOp(op types.BinaryOp, target, value *Expr) Stmt {
	return b.stmt(StmtAssign, AssignData{Target: target, Value: value, Op: op, Compound: true})
}

// Do evaluates e as a statement.
func (b *Builder) Do(e *Expr) Stmt {
	return b.stmt(StmtExpr, ExprStmtData{Expr: e})
}

// Print is print(args...) as a statement.
func (b *Builder) Print(args ...*Expr) Stmt {
	return b.Do(b.Builtin(BuiltinPrint, args...))
}

// Println is println(args...) as a statement.
func (b *Builder) Println(args ...*Expr) Stmt {
	return b.Do(b.Builtin(BuiltinPrintln, args...))
}

// Return leaves the function; value may be nil.
func (b *Builder) Return(value *Expr) Stmt {
	return b.stmt(StmtReturn, ReturnData{Value: value})
}

// Break leaves the innermost loop.
func (b *Builder) Break() Stmt { return b.stmt(StmtBreak, BreakData{}) }

// Continue starts the next iteration of the innermost loop.
func (b *Builder) Continue() Stmt { return b.stmt(StmtContinue, ContinueData{}) }

// While is while cond: body.
func (b *Builder) While(cond *Expr, body ...Stmt) Stmt {
	return b.stmt(StmtWhile, WhileData{Cond: cond, Body: b.block(body)})
}

// For is for v in from to|downto to: body.
func (b *Builder) For(v SymbolID, from, to *Expr, down bool, body ...Stmt) Stmt {
	return b.stmt(StmtFor, ForData{Var: v, From: from, To: to, Down: down, Body: b.block(body)})
}

func (b *Builder) block(stmts []Stmt) *Block {
	return &Block{Stmts: stmts, Span: b.span}
}

// IfChain collects the arms of an if/elif/else statement.
type IfChain struct {
	b    *Builder
	data IfData
	span source.Span
}

// If starts a conditional.
func (b *Builder) If(cond *Expr, then ...Stmt) *IfChain {
	return &IfChain{b: b, span: b.span, data: IfData{Branches: []CondBranch{{Cond: cond, Body: b.block(then)}}}}
}

// Elif adds another arm.
func (c *IfChain) Elif(cond *Expr, body ...Stmt) *IfChain {
	c.data.Branches = append(c.data.Branches, CondBranch{Cond: cond, Body: c.b.block(body)})
	return c
}

// Else closes the chain with a fallback arm.
func (c *IfChain) Else(body ...Stmt) Stmt {
	c.data.Else = c.b.block(body)
	return c.Stmt()
}

// Stmt closes the chain without an else arm.
func (c *IfChain) Stmt() Stmt {
	return Stmt{Kind: StmtIf, Span: c.span, Data: c.data}
}
