package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()
	id1 := fs.Add("main.hb", []byte("hello world"), 0)
	id2 := fs.Add("main.hb", []byte("hello universe"), 0)
	if id1 != 0 || id2 != 1 {
		t.Fatalf("unexpected ids %d %d", id1, id2)
	}
	latest, ok := fs.GetLatest("main.hb")
	if !ok || latest != id2 {
		t.Fatalf("latest should be %d, got %d (%v)", id2, latest, ok)
	}
	if string(fs.Get(id1).Content) != "hello world" {
		t.Fatalf("old version must stay readable")
	}
	if fs.Get(42) != nil {
		t.Fatalf("unknown id must return nil")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	// позиции \n: 1, 3
	id := fs.AddVirtual("a.hb", []byte("a\nb\ncde"))
	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{1, LineCol{1, 2}},
		{2, LineCol{2, 1}},
		{4, LineCol{3, 1}},
		{6, LineCol{3, 3}},
	}
	for _, tt := range tests {
		got, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if got != tt.want {
			t.Fatalf("offset %d: got %+v, want %+v", tt.off, got, tt.want)
		}
	}
	if fs.Get(id).Flags&FileVirtual == 0 {
		t.Fatalf("expected FileVirtual flag")
	}
	pos, ok := fs.Position(Span{File: id, Start: 4, End: 5})
	if !ok || pos.String() != "a.hb:3:1" {
		t.Fatalf("unexpected position %v", pos)
	}
}

func TestLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.hb")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFx = 1\r\ny = 2\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "x = 1\ny = 2\n" {
		t.Fatalf("content not normalized: %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags not recorded: %b", f.Flags)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 12}
	if got := a.Cover(b); got != (Span{File: 1, Start: 5, End: 20}) {
		t.Fatalf("cover: %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Fatalf("different files must not merge: %v", got)
	}
}
