package hir

// Inspect calls fn for every expression of the program: global initialisers
// first, then each function body in order. Children are visited after their
// parent unless fn returns false.
func Inspect(p *Program, fn func(*Expr) bool) {
	for _, g := range p.Globals {
		inspectExpr(g.Value, fn)
	}
	for _, f := range p.Funcs {
		InspectBlock(f.Body, fn)
	}
}

// InspectBlock is Inspect for one block.
func InspectBlock(b *Block, fn func(*Expr) bool) {
	if b == nil {
		return
	}
	for i := range b.Stmts {
		inspectStmt(&b.Stmts[i], fn)
	}
}

func inspectStmt(s *Stmt, fn func(*Expr) bool) {
	switch d := s.Data.(type) {
	case LetData:
		inspectExpr(d.Value, fn)
	case AssignData:
		inspectExpr(d.Target, fn)
		inspectExpr(d.Value, fn)
	case ExprStmtData:
		inspectExpr(d.Expr, fn)
	case ReturnData:
		inspectExpr(d.Value, fn)
	case IfData:
		for _, br := range d.Branches {
			inspectExpr(br.Cond, fn)
			InspectBlock(br.Body, fn)
		}
		InspectBlock(d.Else, fn)
	case WhileData:
		inspectExpr(d.Cond, fn)
		InspectBlock(d.Body, fn)
	case ForData:
		inspectExpr(d.From, fn)
		inspectExpr(d.To, fn)
		InspectBlock(d.Body, fn)
	}
}

func inspectExpr(e *Expr, fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch d := e.Data.(type) {
	case UnaryData:
		inspectExpr(d.Operand, fn)
	case BinaryData:
		inspectExpr(d.Left, fn)
		inspectExpr(d.Right, fn)
	case CallData:
		for _, a := range d.Args {
			inspectExpr(a, fn)
		}
	case IndexData:
		inspectExpr(d.Index, fn)
	case CastData:
		inspectExpr(d.Value, fn)
	case BuiltinData:
		for _, a := range d.Args {
			inspectExpr(a, fn)
		}
	}
}

// UsesBuiltin reports whether any expression of p calls one of bs.
func (p *Program) UsesBuiltin(bs ...Builtin) bool {
	found := false
	Inspect(p, func(e *Expr) bool {
		if d, ok := e.Data.(BuiltinData); ok {
			for _, b := range bs {
				if d.Builtin == b {
					found = true
				}
			}
		}
		return !found
	})
	return found
}
