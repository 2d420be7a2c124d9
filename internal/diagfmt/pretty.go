// Package diagfmt renders diagnostic bags for people (Pretty) and tools
// (JSON).
package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"halfbyte/internal/diag"
	"halfbyte/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue),
		gutter: color.New(color.FgBlue, color.Bold),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty writes every diagnostic of bag in order:
//
//	error[SEM3002]: literal 300 does not fit u8
//	  --> hello.hb:3:13
//	   |
//	 3 | let x: u8 = 300
//	   |             ^~~
//
// Diagnostics without a location print the first line only.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		var sb strings.Builder
		sev := p.severity(d.Severity)
		fmt.Fprintf(&sb, "%s: %s\n", sev.Sprintf("%s[%s]", strings.ToLower(d.Severity.String()), d.Code.ID()), d.Message)
		excerpt(&sb, p, fs, d.Primary, sev, opts)
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(&sb, "%s %s\n", p.note.Sprint("note:"), n.Msg)
				excerpt(&sb, p, fs, n.Span, p.note, opts)
			}
		}
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func excerpt(sb *strings.Builder, p palette, fs *source.FileSet, sp source.Span, mark *color.Color, opts PrettyOpts) {
	if fs == nil || sp == (source.Span{}) {
		return
	}
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(sp)
	fmt.Fprintf(sb, "  %s %s:%d:%d\n", p.gutter.Sprint("-->"), displayPath(f.Path, opts.PathMode), start.Line, start.Col)

	first := uint32(1)
	if ctx := uint32(max(opts.Context, 0)); ctx < start.Line {
		first = start.Line - ctx
	}
	width := len(fmt.Sprint(start.Line))
	bar := p.gutter.Sprint("|")
	fmt.Fprintf(sb, "%*s %s\n", width, "", bar)
	for line := first; line <= start.Line; line++ {
		fmt.Fprintf(sb, "%s %s %s\n", p.gutter.Sprintf("%*d", width, line), bar, lineText(f, line))
	}
	n := 1
	if end.Line == start.Line && end.Col > start.Col {
		n = int(end.Col - start.Col)
	}
	marker := "^" + strings.Repeat("~", n-1)
	fmt.Fprintf(sb, "%*s %s %s%s\n", width, "", bar, strings.Repeat(" ", int(start.Col)-1), mark.Sprint(marker))
}

// lineText returns line (1-based) without its newline.
func lineText(f *source.File, line uint32) string {
	lo := 0
	if line > 1 && int(line-2) < len(f.LineIdx) {
		lo = int(f.LineIdx[line-2]) + 1
	}
	hi := len(f.Content)
	if int(line-1) < len(f.LineIdx) {
		hi = int(f.LineIdx[line-1])
	}
	if lo > hi {
		return ""
	}
	return strings.ReplaceAll(string(f.Content[lo:hi]), "\t", " ")
}

func displayPath(path string, mode PathMode) string {
	if mode == PathModeBasename {
		return filepath.Base(path)
	}
	return path
}
