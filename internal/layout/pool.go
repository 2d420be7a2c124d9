package layout

import (
	"strconv"

	"halfbyte/internal/asm"
)

type poolEntry struct {
	label asm.LabelID
	data  []byte
}

// Pool is the constant pool. Identical byte sequences share one label; the
// data is laid out by Emit, after the code.
type Pool struct {
	stream  *asm.Stream
	index   map[string]int
	entries []poolEntry
}

// NewPool creates a pool whose labels live in s.
func NewPool(s *asm.Stream) *Pool {
	return &Pool{stream: s, index: make(map[string]int)}
}

// Intern returns the label of data, adding it on first use.
func (p *Pool) Intern(data []byte) asm.LabelID {
	key := string(data)
	if i, ok := p.index[key]; ok {
		return p.entries[i].label
	}
	l := p.stream.NewLabel("const_" + strconv.Itoa(len(p.entries)))
	p.index[key] = len(p.entries)
	p.entries = append(p.entries, poolEntry{label: l, data: append([]byte(nil), data...)})
	return l
}

// Len is the number of distinct entries.
func (p *Pool) Len() int { return len(p.entries) }

// Size is the number of bytes Emit writes.
func (p *Pool) Size() int {
	n := 0
	for _, e := range p.entries {
		n += len(e.data)
	}
	return n
}

// Emit binds every label and writes its bytes, in interning order.
func (p *Pool) Emit() {
	for _, e := range p.entries {
		p.stream.Bind(e.label)
		p.stream.Data(e.data...)
	}
}
