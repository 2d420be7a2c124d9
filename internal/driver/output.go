package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"halfbyte/internal/container"
)

// Output formats.
const (
	FormatPRG = "prg"
	FormatD64 = "d64"
)

// OutputOptions says where built images go.
type OutputOptions struct {
	Format   string
	Dir      string
	DiskName string // also the .d64 file name
	DiskID   string
	Sink     ProgressSink
}

// WriteOutputs writes every successful outcome: one .prg each, or a single
// .d64 holding them all. It returns the written paths.
func WriteOutputs(outcomes []*Outcome, opts OutputOptions) ([]string, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	switch strings.ToLower(opts.Format) {
	case "", FormatPRG:
		return writePRGs(outcomes, opts)
	case FormatD64:
		return writeDisk(outcomes, opts)
	}
	return nil, fmt.Errorf("unknown output format %q (expected prg|d64)", opts.Format)
}

func writePRGs(outcomes []*Outcome, opts OutputOptions) ([]string, error) {
	var written []string
	var errs []error
	for _, o := range outcomes {
		if o == nil || o.Failed() {
			continue
		}
		emit(opts.Sink, Event{File: o.Path, Stage: StageWrite, Status: StatusWorking})
		b, err := container.FromImage(o.Result.Image).Bytes()
		if err == nil {
			path := filepath.Join(opts.Dir, o.Name()+".prg")
			if err = os.WriteFile(path, b, 0o644); err == nil {
				written = append(written, path)
			}
		}
		if err != nil {
			emit(opts.Sink, Event{File: o.Path, Stage: StageWrite, Status: StatusError, Err: err})
			errs = append(errs, fmt.Errorf("%s: %w", o.Path, err))
			continue
		}
		emit(opts.Sink, Event{File: o.Path, Stage: StageWrite, Status: StatusDone})
	}
	return written, errors.Join(errs...)
}

func writeDisk(outcomes []*Outcome, opts OutputOptions) ([]string, error) {
	name := opts.DiskName
	if name == "" {
		name = "halfbyte"
	}
	id := opts.DiskID
	if id == "" {
		id = "hb"
	}
	disk := container.NewDisk(name, id)
	added := 0
	for _, o := range outcomes {
		if o == nil || o.Failed() {
			continue
		}
		if err := disk.AddPRG(o.Name(), container.FromImage(o.Result.Image)); err != nil {
			emit(opts.Sink, Event{File: o.Path, Stage: StageWrite, Status: StatusError, Err: err})
			return nil, fmt.Errorf("%s: %w", o.Path, err)
		}
		added++
		emit(opts.Sink, Event{File: o.Path, Stage: StageWrite, Status: StatusDone})
	}
	if added == 0 {
		return nil, nil
	}
	path := filepath.Join(opts.Dir, strings.ToLower(name)+".d64")
	if err := os.WriteFile(path, disk.Bytes(), 0o644); err != nil {
		return nil, err
	}
	return []string{path}, nil
}
