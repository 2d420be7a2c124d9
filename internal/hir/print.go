package hir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printer is used to dump HIR to text format.
type Printer struct {
	w      io.Writer
	prog   *Program
	indent int
	err    error
}

// NewPrinter creates a new HIR printer.
func NewPrinter(w io.Writer, prog *Program) *Printer {
	return &Printer{w: w, prog: prog}
}

// Dump writes the program to the writer.
func Dump(w io.Writer, p *Program) error {
	return NewPrinter(w, p).PrintProgram()
}

// PrintProgram prints globals, constants, data blocks and functions in
// declaration order.
func (p *Printer) PrintProgram() error {
	p.printf("program %s\n", p.prog.Name)
	for _, g := range p.prog.Globals {
		sym := p.prog.Symbol(g.Symbol)
		if sym == nil {
			p.printf("<bad symbol %d>\n", g.Symbol)
			continue
		}
		kw := "var"
		if sym.Class == SymConst {
			kw = "const"
		}
		p.printf("%s %s: %s", kw, sym.Name, sym.Type)
		if g.Value != nil {
			p.printf(" = %s", p.exprString(g.Value))
		}
		p.printf("\n")
	}
	for _, d := range p.prog.Data {
		p.printf("data %s", d.Name)
		if d.Align > 1 {
			p.printf(" align %d", d.Align)
		}
		p.printf(": % x\n", d.Bytes)
	}
	for _, f := range p.prog.Funcs {
		p.printf("\n")
		p.PrintFunc(f)
	}
	return p.err
}

// PrintFunc prints one function.
func (p *Printer) PrintFunc(f *Func) {
	params := make([]string, 0, len(f.Params))
	for _, id := range f.Params {
		params = append(params, p.symDecl(id))
	}
	entry := ""
	if f == p.prog.EntryFunc() {
		entry = " @entry"
	}
	p.printf("func %s(%s) -> %s%s:\n", f.Name, strings.Join(params, ", "), f.Result, entry)
	p.indent++
	if len(f.Locals) > 0 {
		locals := make([]string, 0, len(f.Locals))
		for _, id := range f.Locals {
			locals = append(locals, p.symDecl(id))
		}
		p.line("locals %s", strings.Join(locals, ", "))
	}
	p.printBlock(f.Body)
	p.indent--
}

func (p *Printer) printBlock(b *Block) {
	if b.IsEmpty() {
		p.line("pass")
		return
	}
	for i := range b.Stmts {
		p.printStmt(&b.Stmts[i])
	}
}

func (p *Printer) nested(b *Block) {
	p.indent++
	p.printBlock(b)
	p.indent--
}

func (p *Printer) printStmt(s *Stmt) {
	switch d := s.Data.(type) {
	case LetData:
		p.line("let %s = %s", p.symName(d.Symbol), p.exprString(d.Value))
	case AssignData:
		op := "="
		if d.Compound {
			op = d.Op.String() + "="
		}
		p.line("%s %s %s", p.exprString(d.Target), op, p.exprString(d.Value))
	case ExprStmtData:
		p.line("%s", p.exprString(d.Expr))
	case ReturnData:
		if d.Value == nil {
			p.line("return")
		} else {
			p.line("return %s", p.exprString(d.Value))
		}
	case BreakData:
		p.line("break")
	case ContinueData:
		p.line("continue")
	case IfData:
		for i, br := range d.Branches {
			kw := "elif"
			if i == 0 {
				kw = "if"
			}
			p.line("%s %s:", kw, p.exprString(br.Cond))
			p.nested(br.Body)
		}
		if d.Else != nil {
			p.line("else:")
			p.nested(d.Else)
		}
	case WhileData:
		p.line("while %s:", p.exprString(d.Cond))
		p.nested(d.Body)
	case ForData:
		dir := "to"
		if d.Down {
			dir = "downto"
		}
		p.line("for %s in %s %s %s:", p.symName(d.Var), p.exprString(d.From), dir, p.exprString(d.To))
		p.nested(d.Body)
	default:
		p.line("<%s>", s.Kind)
	}
}

func (p *Printer) exprString(e *Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch d := e.Data.(type) {
	case LiteralData:
		switch d.Kind {
		case LiteralInt:
			return strconv.FormatInt(d.Int, 10) + ":" + e.Type.String()
		case LiteralFloat:
			return strconv.FormatFloat(d.Float, 'g', -1, 64) + ":" + e.Type.String()
		case LiteralBool:
			return strconv.FormatBool(d.Bool)
		case LiteralString:
			return strconv.Quote(d.String)
		}
	case VarRefData:
		return p.symName(d.Symbol)
	case UnaryData:
		op := d.Op.String()
		if len(op) > 1 {
			op += " "
		}
		return op + p.exprString(d.Operand)
	case BinaryData:
		return fmt.Sprintf("(%s %s %s)", p.exprString(d.Left), d.Op, p.exprString(d.Right))
	case CallData:
		name := fmt.Sprintf("fn%d", d.Func)
		if f := p.prog.Func(d.Func); f != nil {
			name = f.Name
		}
		return name + "(" + p.exprList(d.Args) + ")"
	case IndexData:
		return fmt.Sprintf("%s[%s]", p.symName(d.Array), p.exprString(d.Index))
	case CastData:
		return fmt.Sprintf("(%s as %s)", p.exprString(d.Value), e.Type)
	case BuiltinData:
		return d.Builtin.String() + "(" + p.exprList(d.Args) + ")"
	case DataAddrData:
		if b := p.prog.DataBlock(d.Block); b != nil {
			return "&" + b.Name
		}
		return fmt.Sprintf("&data%d", d.Block)
	}
	return "<" + e.Kind.String() + ">"
}

func (p *Printer) exprList(args []*Expr) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, p.exprString(a))
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) symName(id SymbolID) string {
	if sym := p.prog.Symbol(id); sym != nil {
		return sym.Name
	}
	return fmt.Sprintf("sym%d", id)
}

func (p *Printer) symDecl(id SymbolID) string {
	if sym := p.prog.Symbol(id); sym != nil {
		return sym.Name + ": " + sym.Type.String()
	}
	return fmt.Sprintf("sym%d", id)
}

func (p *Printer) line(format string, args ...any) {
	p.printf("%s", strings.Repeat("    ", p.indent))
	p.printf(format, args...)
	p.printf("\n")
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
