package diag

import (
	"sort"
)

// Bag collects diagnostics up to a limit. Reports past the limit are
// counted but not kept.
type Bag struct {
	items   []Diagnostic
	limit   int
	dropped int
}

// NewBag returns a bag holding at most limit diagnostics; limit <= 0
// means no limit.
func NewBag(limit int) *Bag {
	if limit <= 0 {
		limit = int(^uint(0) >> 1)
	}
	return &Bag{items: make([]Diagnostic, 0, min(limit, 16)), limit: limit}
}

// Add keeps d unless the bag is full and reports whether it was kept.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.limit {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) HasErrors() bool   { return b.worst() >= SevError }
func (b *Bag) HasWarnings() bool { return b.worst() >= SevWarning }

func (b *Bag) worst() Severity {
	var w Severity
	for i := range b.items {
		w = max(w, b.items[i].Severity)
	}
	return w
}

func (b *Bag) Len() int { return len(b.items) }

// Dropped is the number of reports refused because the bag was full.
func (b *Bag) Dropped() int { return b.dropped }

// Items returns the kept diagnostics; callers must not modify the slice.
func (b *Bag) Items() []Diagnostic { return b.items }

// Count returns how many diagnostics carry code.
func (b *Bag) Count(code Code) int {
	n := 0
	for i := range b.items {
		if b.items[i].Code == code {
			n++
		}
	}
	return n
}

// Sort orders diagnostics by file and position, errors before warnings at
// the same span.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		x, y := b.items[i].Primary, b.items[j].Primary
		switch {
		case x.File != y.File:
			return x.File < y.File
		case x.Start != y.Start:
			return x.Start < y.Start
		case x.End != y.End:
			return x.End < y.End
		}
		if si, sj := b.items[i].Severity, b.items[j].Severity; si != sj {
			return si > sj
		}
		return b.items[i].Code < b.items[j].Code
	})
}
