package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"halfbyte/internal/container"
	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/layout"
	"halfbyte/internal/observ"
	"halfbyte/internal/types"
)

func writeProgram(t *testing.T, dir, name string, b *hir.Builder) string {
	t.Helper()
	path := filepath.Join(dir, name+".hbir")
	data, err := hir.Marshal(b.Program())
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func hello(name, text string) *hir.Builder {
	b := hir.NewBuilder(name)
	b.Func("main", types.Void).Body(b.Println(b.Str(text)))
	return b
}

func broken() *hir.Builder {
	b := hir.NewBuilder("broken")
	b.Func("main", types.Void).Body(b.Println(b.Int(types.U8, 300)))
	return b
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) last(file string) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out Event
	for _, ev := range r.events {
		if ev.File == file {
			out = ev
		}
	}
	return out
}

func TestBuildAll(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeProgram(t, dir, "one", hello("one", "first")),
		writeProgram(t, dir, "bad", broken()),
		writeProgram(t, dir, "two", hello("two", "second")),
		filepath.Join(dir, "missing.hbir"),
	}
	rec := &recorder{}
	timer := observ.NewTimer()
	out, err := BuildAll(context.Background(), paths, Options{Target: layout.C64(), Jobs: 2, Sink: rec, Timer: timer})
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("%d outcomes", len(out))
	}
	if out[0].Failed() || out[2].Failed() || out[0].Name() != "one" {
		t.Fatalf("good programs failed: %v %v", out[0].Err, out[2].Err)
	}
	if !errors.Is(out[1].Err, ErrHasErrors) || out[1].Result.Diagnostics.Len() == 0 {
		t.Fatalf("broken program: %v", out[1].Err)
	}
	if !errors.Is(out[3].Err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", out[3].Err)
	}
	if ev := rec.last(paths[0]); ev.Status != StatusDone || ev.Stage != StageCompile {
		t.Fatalf("last event for one: %+v", ev)
	}
	if ev := rec.last(paths[3]); ev.Status != StatusError || ev.Stage != StageLoad {
		t.Fatalf("last event for missing: %+v", ev)
	}
	if n := len(timer.Report().Phases); n < 4 {
		t.Fatalf("timer recorded %d phases", n)
	}
}

func TestCacheHit(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenImageCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	prog := hello("cached", "again").Program()
	opts := Options{Target: layout.C64(), Cache: cache}

	first, hit, err := Compile(context.Background(), prog, opts)
	if err != nil || hit || first.Image == nil {
		t.Fatalf("first compile: hit=%v err=%v", hit, err)
	}
	second, hit, err := Compile(context.Background(), prog, opts)
	if err != nil || !hit {
		t.Fatalf("second compile: hit=%v err=%v", hit, err)
	}
	if !bytes.Equal(first.Image.Bytes, second.Image.Bytes) || first.Image.Entry != second.Image.Entry {
		t.Fatalf("cached image differs")
	}

	other := layout.C64()
	other.VarBase = 0xC100
	if _, hit, _ := Compile(context.Background(), prog, Options{Target: other, Cache: cache}); hit {
		t.Fatalf("a different target must miss")
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, hit, _ := Compile(context.Background(), prog, opts); hit {
		t.Fatalf("hit after DropAll")
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeProgram(t, dir, "alpha", hello("alpha", "a")),
		writeProgram(t, dir, "beta", hello("beta", "b")),
		writeProgram(t, dir, "bad", broken()),
	}
	out, err := BuildAll(context.Background(), paths, Options{Target: layout.C64()})
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}

	prgs, err := WriteOutputs(out, OutputOptions{Format: FormatPRG, Dir: filepath.Join(dir, "out")})
	if err != nil || len(prgs) != 2 {
		t.Fatalf("prg outputs %v, %v", prgs, err)
	}
	raw, err := os.ReadFile(prgs[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if p, err := container.ParsePRG(raw); err != nil || p.Load != 0x0801 || !bytes.Equal(p.Data, out[0].Result.Image.Bytes) {
		t.Fatalf("alpha.prg does not hold the image: %v", err)
	}

	disks, err := WriteOutputs(out, OutputOptions{Format: FormatD64, Dir: dir, DiskName: "Demo", DiskID: "01"})
	if err != nil || len(disks) != 1 || filepath.Base(disks[0]) != "demo.d64" {
		t.Fatalf("d64 outputs %v, %v", disks, err)
	}
	raw, err = os.ReadFile(disks[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	disk, err := container.OpenDisk(raw)
	if err != nil {
		t.Fatalf("OpenDisk: %v", err)
	}
	files, err := disk.Files()
	if err != nil || len(files) != 2 || files[0].Name != "ALPHA" || files[1].Name != "BETA" {
		t.Fatalf("directory %v, %v", files, err)
	}

	if _, err := WriteOutputs(out, OutputOptions{Format: "tap", Dir: dir}); err == nil {
		t.Fatalf("unknown format accepted")
	}
}

func TestOutcomeDiagnostics(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.hbir")
	if err := os.WriteFile(junk, []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}
	paths := []string{
		writeProgram(t, dir, "broken", broken()),
		junk,
		filepath.Join(dir, "missing.hbir"),
	}
	outcomes, err := BuildAll(context.Background(), paths, Options{Target: layout.C64()})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i, code := range []diag.Code{diag.SemaLiteralOutOfRange, diag.IODecodeError, diag.IOLoadFileError} {
		if bag := outcomes[i].Diagnostics(); bag.Count(code) != 1 || !bag.HasErrors() {
			t.Fatalf("%s: want one %s", paths[i], code.ID())
		}
	}
}
