// Package driver turns .hbir files into linked images: it loads programs,
// compiles them with the 6502 backend (in parallel, through the image
// cache) and writes PRG or D64 output.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"halfbyte/internal/backend/mos"
	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/layout"
	"halfbyte/internal/observ"
	"halfbyte/internal/source"
	"halfbyte/internal/trace"
)

// Options configures Compile and BuildAll.
type Options struct {
	Target         layout.Target
	MaxDiagnostics int
	Jobs           int // 0 means GOMAXPROCS
	Cache          *ImageCache
	Timer          *observ.Timer
	Sink           ProgressSink
}

// Outcome is the result of building one file. Err is ErrHasErrors when the
// diagnostics hold errors, and the underlying error when the file could not
// be read or the backend failed internally.
type Outcome struct {
	Path    string
	Program *hir.Program
	Result  *mos.Result
	Cached  bool
	Err     error
}

// Name is the output base name: the program name, or the file name without
// extension.
func (o *Outcome) Name() string {
	if o.Program != nil && o.Program.Name != "" {
		return o.Program.Name
	}
	return strings.TrimSuffix(filepath.Base(o.Path), filepath.Ext(o.Path))
}

// Failed reports whether the outcome has no image.
func (o *Outcome) Failed() bool {
	return o.Err != nil || o.Result == nil || o.Result.Image == nil
}

// FileSet returns the sources carried by the program, for rendering
// diagnostics.
func (o *Outcome) FileSet() *source.FileSet {
	if o.Program == nil {
		return source.NewFileSet()
	}
	return o.Program.FileSet()
}

// Diagnostics returns what the outcome has to report: the compiler's
// diagnostics, or a single error when the file could not be read or compiled.
func (o *Outcome) Diagnostics() *diag.Bag {
	if o.Result != nil && o.Result.Diagnostics != nil {
		return o.Result.Diagnostics
	}
	bag := diag.NewBag(1)
	if o.Err == nil {
		return bag
	}
	code := diag.IOLoadFileError
	switch {
	case errors.Is(o.Err, hir.ErrBadFile):
		code = diag.IODecodeError
	case o.Program != nil:
		code = diag.BackendInternal
	}
	bag.Add(diag.NewError(code, source.Span{}, o.Err.Error()))
	return bag
}

// LoadProgram reads and decodes an .hbir file.
func LoadProgram(path string) (*hir.Program, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	prog, err := hir.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// Compile builds prog, using the cache when one is configured.
func Compile(ctx context.Context, prog *hir.Program, opts Options) (*mos.Result, bool, error) {
	var key Digest
	if opts.Cache != nil {
		k, err := Key(prog, opts.Target)
		if err == nil {
			key = k
			if p, ok, err := opts.Cache.Get(key); err == nil && ok {
				bag := diag.NewBag(opts.MaxDiagnostics)
				for _, d := range p.Warnings {
					bag.Add(d)
				}
				return &mos.Result{Image: p.image(), Diagnostics: bag}, true, nil
			}
		}
	}
	res, err := mos.Compile(ctx, prog, mos.Options{Target: opts.Target, MaxDiagnostics: opts.MaxDiagnostics})
	if err != nil {
		return res, false, err
	}
	if opts.Cache != nil && key != (Digest{}) && res.Image != nil {
		// a failed write only costs a rebuild next time
		_ = opts.Cache.Put(key, payloadFromImage(prog.Name, res.Image, res.Diagnostics))
	}
	return res, false, nil
}

// BuildAll loads and compiles every path concurrently. Outcomes are in the
// order of paths. The returned error is only set when ctx is cancelled;
// per-file failures are reported in the outcomes.
func BuildAll(ctx context.Context, paths []string, opts Options) ([]*Outcome, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "build", trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpan(ctx, span)

	for _, p := range paths {
		emit(opts.Sink, Event{File: p, Stage: StageLoad, Status: StatusQueued})
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	out := make([]*Outcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = buildOne(gctx, path, opts)
			return nil
		})
	}
	err := g.Wait()
	failed := 0
	for _, o := range out {
		if o == nil || o.Failed() {
			failed++
		}
	}
	span.WithExtra("files", fmt.Sprint(len(paths))).End(fmt.Sprintf("%d failed", failed))
	return out, err
}

func buildOne(ctx context.Context, path string, opts Options) *Outcome {
	o := &Outcome{Path: path}
	started := time.Now()
	fail := func(stage Stage, err error) *Outcome {
		o.Err = err
		emit(opts.Sink, Event{File: path, Stage: stage, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return o
	}

	emit(opts.Sink, Event{File: path, Stage: StageLoad, Status: StatusWorking})
	err := opts.Timer.Track("load "+filepath.Base(path), func() error {
		var err error
		o.Program, err = LoadProgram(path)
		return err
	})
	if err != nil {
		return fail(StageLoad, err)
	}

	emit(opts.Sink, Event{File: path, Stage: StageCompile, Status: StatusWorking})
	idx := opts.Timer.Begin("compile " + o.Name())
	o.Result, o.Cached, err = Compile(ctx, o.Program, opts)
	note := ""
	if o.Cached {
		note = "cached"
	}
	opts.Timer.End(idx, note)
	switch {
	case err != nil:
		return fail(StageCompile, err)
	case o.Result.Image == nil:
		return fail(StageCompile, ErrHasErrors)
	}
	status := StatusDone
	if o.Cached {
		status = StatusCached
	}
	emit(opts.Sink, Event{File: path, Stage: StageCompile, Status: status, Elapsed: time.Since(started)})
	return o
}

// ErrHasErrors marks a program whose diagnostics contain errors.
var ErrHasErrors = errors.New("program has errors")
