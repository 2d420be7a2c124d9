package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"halfbyte/internal/diag"
	"halfbyte/internal/source"
)

func sample() (*diag.Bag, *source.FileSet) {
	fs := source.NewFileSet()
	fs.AddVirtual("demo/hello.hb", []byte("fn main() {\n  let x: u8 = 300\n}\n"))
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.SemaLiteralOutOfRange, source.Span{File: 0, Start: 26, End: 29}, "literal 300 does not fit u8").
		WithNote(source.Span{File: 0, Start: 3, End: 7}, "in main"))
	bag.Add(diag.NewError(diag.SemaMissingEntry, source.Span{}, "program has no entry function"))
	return bag, fs
}

func TestPrettyExcerpt(t *testing.T) {
	bag, fs := sample()
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true, PathMode: PathModeBasename}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	want := strings.Join([]string{
		"error[SEM3002]: literal 300 does not fit u8",
		"  --> hello.hb:2:15",
		"  |",
		"2 |   let x: u8 = 300",
		"  |               ^~~",
		"note: in main",
		"  --> hello.hb:1:4",
		"  |",
		"1 | fn main() {",
		"  |    ^~~~",
		"",
		"error[SEM3006]: program has no entry function",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyContextLines(t *testing.T) {
	bag, fs := sample()
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Context: 5}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	if !strings.Contains(buf.String(), "1 | fn main() {\n2 |   let x") {
		t.Fatalf("context missing:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "note:") {
		t.Fatalf("notes printed without ShowNotes")
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := sample()
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[31;1merror[SEM3002]") {
		t.Fatalf("no red error label in %q", buf.String())
	}
}
