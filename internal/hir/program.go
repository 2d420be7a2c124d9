package hir

import (
	"fmt"

	"halfbyte/internal/source"
	"halfbyte/internal/types"
)

// SymbolClass says where a symbol lives.
type SymbolClass uint8

const (
	SymGlobal SymbolClass = iota
	SymConst
	SymParam
	SymLocal
)

func (c SymbolClass) String() string {
	switch c {
	case SymGlobal:
		return "global"
	case SymConst:
		return "const"
	case SymParam:
		return "param"
	case SymLocal:
		return "local"
	}
	return fmt.Sprintf("SymbolClass(%d)", c)
}

// Symbol is one named storage slot. Params and locals belong to Owner.
type Symbol struct {
	Name  string
	Type  types.Type
	Class SymbolClass
	Owner FuncID
	Span  source.Span
}

// VarDecl initialises a global or constant. Value may be nil for globals,
// which then start zeroed.
type VarDecl struct {
	Symbol SymbolID
	Value  *Expr
	Span   source.Span
}

// Func is a function with a static frame: Params in call order, then Locals.
type Func struct {
	ID     FuncID
	Name   string
	Params []SymbolID
	Locals []SymbolID
	Result types.Type
	Body   *Block
	Span   source.Span
}

// HasResult reports a non-void function.
func (f *Func) HasResult() bool {
	return f.Result.Valid() && f.Result.Kind != types.KindVoid
}

// DataBlock is raw bytes placed in the image after the code. Align is a
// power of two; 0 and 1 mean no alignment.
type DataBlock struct {
	Name  string
	Bytes []byte
	Align uint16
	Span  source.Span
}

// SourceFile is a source text carried for diagnostics. Spans refer to files
// by their index in Program.Files.
type SourceFile struct {
	Path    string
	Content []byte
}

// Program is a complete compilation unit.
type Program struct {
	Name    string
	Files   []SourceFile
	Symbols []Symbol    // SymbolID n is Symbols[n-1]
	Globals []VarDecl   // globals and constants in declaration order
	Funcs   []*Func     // FuncID n is Funcs[n-1]
	Data    []DataBlock // DataID n is Data[n-1]
	Entry   FuncID
}

// Symbol returns the symbol for id, or nil.
func (p *Program) Symbol(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) > len(p.Symbols) {
		return nil
	}
	return &p.Symbols[id-1]
}

// Func returns the function for id, or nil.
func (p *Program) Func(id FuncID) *Func {
	if !id.IsValid() || int(id) > len(p.Funcs) {
		return nil
	}
	return p.Funcs[id-1]
}

// DataBlock returns the data block for id, or nil.
func (p *Program) DataBlock(id DataID) *DataBlock {
	if !id.IsValid() || int(id) > len(p.Data) {
		return nil
	}
	return &p.Data[id-1]
}

// FindFunc finds a function by name, returns nil if not found.
func (p *Program) FindFunc(name string) *Func {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// EntryFunc returns the entry function: Entry when set, otherwise "main".
func (p *Program) EntryFunc() *Func {
	if p.Entry.IsValid() {
		return p.Func(p.Entry)
	}
	return p.FindFunc("main")
}

// FileSet loads the carried sources so that file i gets FileID i.
func (p *Program) FileSet() *source.FileSet {
	fs := source.NewFileSet()
	for _, f := range p.Files {
		fs.AddVirtual(f.Path, f.Content)
	}
	return fs
}
