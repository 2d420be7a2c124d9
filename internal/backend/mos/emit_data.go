package mos

import (
	"fmt"

	"halfbyte/internal/asm"
	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/isa"
)

// declareData gives every data block a label. Blocks are placed after the
// constant pool, so their addresses are only known once the image links.
func (e *Emitter) declareData() {
	seen := make(map[string]bool, len(e.prog.Data))
	for i := range e.prog.Data {
		d := &e.prog.Data[i]
		if seen[d.Name] {
			diag.ReportError(e.reporter, diag.SemaDuplicateData, d.Span,
				fmt.Sprintf("data block %q is declared twice", d.Name)).Emit()
			continue
		}
		seen[d.Name] = true
		if d.Align > 1 && d.Align&(d.Align-1) != 0 {
			diag.ReportError(e.reporter, diag.SemaBadAlignment, d.Span,
				fmt.Sprintf("data block %q: alignment %d is not a power of two", d.Name, d.Align)).Emit()
			continue
		}
		e.data[hir.DataID(i+1)] = e.s.NewLabel("data_" + d.Name)
	}
}

func (e *Emitter) emitData() {
	for i := range e.prog.Data {
		label, ok := e.data[hir.DataID(i+1)]
		if !ok {
			continue
		}
		d := &e.prog.Data[i]
		e.s.Align(d.Align)
		e.s.Bind(label)
		e.s.Data(d.Bytes...)
	}
}

func (e *Emitter) lowerDataAddr(d hir.DataAddrData) error {
	label, ok := e.data[d.Block]
	if !ok {
		if e.prog.DataBlock(d.Block) == nil {
			return fmt.Errorf("%w: data block %d", ErrMalformedNode, d.Block)
		}
		// the declaration was rejected and already reported
		e.loadImm(0, true)
		return nil
	}
	e.s.Emit(isa.LDA, asm.ImmLow(asm.At(label, 0)))
	e.s.Emit(isa.LDX, asm.ImmHigh(asm.At(label, 0)))
	return nil
}
