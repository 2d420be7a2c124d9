// Package hir is the typed program representation the backend consumes.
//
// A Program is the output of a front end that has already resolved names and
// checked types: every expression carries its type, every name is a SymbolID,
// every call names a FuncID. Programs are built in Go with Builder or read
// from .hbir files with Decode.
package hir

// SymbolID identifies a global, constant, parameter or local.
type SymbolID uint32

// FuncID identifies a function of the program.
type FuncID uint32

// DataID identifies a data block of the program.
type DataID uint32

// Invalid ID constants (zero is sentinel).
const (
	NoSymbolID SymbolID = 0
	NoFuncID   FuncID   = 0
	NoDataID   DataID   = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id SymbolID) IsValid() bool { return id != NoSymbolID }
func (id FuncID) IsValid() bool   { return id != NoFuncID }
func (id DataID) IsValid() bool   { return id != NoDataID }
