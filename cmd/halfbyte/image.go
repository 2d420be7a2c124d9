package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"halfbyte/internal/container"
	"halfbyte/internal/driver"
	"halfbyte/internal/layout"
)

// program is a linked image ready to disassemble or run.
type program struct {
	Name      string
	PRG       container.PRG
	Entry     uint16
	Stub      int // bytes of BASIC stub before Entry
	Symbols   map[uint16]string
	DataStart uint16
}

// openProgram reads a .prg, a file from a .d64 (member names it; empty
// takes the first PRG) or compiles a .hbir in memory.
func openProgram(ctx context.Context, path, member string, target layout.Target) (*program, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hbir":
		return compileProgram(ctx, path, target)
	case ".d64":
		// #nosec G304 -- path is provided by the user
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		disk, err := container.OpenDisk(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if member == "" {
			files, err := disk.Files()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			if len(files) == 0 {
				return nil, fmt.Errorf("%s: disk is empty", path)
			}
			member = files[0].Name
		}
		prg, err := disk.ReadPRG(member)
		if err != nil {
			return nil, fmt.Errorf("%s: %q: %w", path, member, err)
		}
		return fromPRG(member, prg), nil
	}
	// #nosec G304 -- path is provided by the user
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prg, err := container.ParsePRG(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fromPRG(name, prg), nil
}

// fromPRG finds the entry point: right after a BASIC stub of the form the
// compiler writes, or the load address.
func fromPRG(name string, prg container.PRG) *program {
	p := &program{Name: name, PRG: prg, Entry: prg.Load}
	t := layout.C64()
	t.LoadAddress = prg.Load
	if stub, entry := t.Stub(); bytes.HasPrefix(prg.Data, stub) {
		p.Entry, p.Stub = entry, len(stub)
	}
	return p
}

func compileProgram(ctx context.Context, path string, target layout.Target) (*program, error) {
	prog, err := driver.LoadProgram(path)
	if err != nil {
		return nil, err
	}
	res, _, err := driver.Compile(ctx, prog, driver.Options{Target: target})
	if err != nil {
		return nil, err
	}
	if res.Image == nil {
		o := &driver.Outcome{Path: path, Program: prog, Result: res, Err: driver.ErrHasErrors}
		if err := printDiagnostics(os.Stderr, o, false, "pretty"); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", path, driver.ErrHasErrors)
	}
	img := res.Image
	p := &program{
		Name:    prog.Name,
		PRG:     container.FromImage(img),
		Entry:   img.Entry,
		Stub:    int(img.Entry - img.Origin),
		Symbols: img.SymbolMap(),
	}
	if addr, ok := img.Lookup("const_0"); ok {
		p.DataStart = addr
	}
	return p, nil
}
