// Package container wraps linked images in the two formats a C64 loads:
// PRG files and 1541 D64 disk images.
package container

import (
	"errors"
	"fmt"
	"io"

	"halfbyte/internal/asm"
)

var (
	ErrShortPRG     = errors.New("container: PRG shorter than its load address")
	ErrPRGOverflow  = errors.New("container: PRG runs past $FFFF")
	ErrDiskFull     = errors.New("container: disk full")
	ErrDirFull      = errors.New("container: directory full")
	ErrBadDisk      = errors.New("container: not a 35-track D64 image")
	ErrFileNotFound = errors.New("container: file not on disk")
)

// PRG is a load address followed by the bytes placed there.
type PRG struct {
	Load uint16
	Data []byte
}

// FromImage turns a linked image into a PRG.
func FromImage(img *asm.Image) PRG {
	return PRG{Load: img.Origin, Data: img.Bytes}
}

// End is the first address past the loaded data.
func (p PRG) End() int { return int(p.Load) + len(p.Data) }

// Bytes encodes the file: two little-endian address bytes, then the data.
func (p PRG) Bytes() ([]byte, error) {
	if p.End() > 0x10000 {
		return nil, fmt.Errorf("%w: %d bytes at $%04X", ErrPRGOverflow, len(p.Data), p.Load)
	}
	out := make([]byte, 0, 2+len(p.Data))
	out = append(out, byte(p.Load), byte(p.Load>>8))
	return append(out, p.Data...), nil
}

func (p PRG) WriteTo(w io.Writer) (int64, error) {
	b, err := p.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// ParsePRG splits a PRG file into address and data.
func ParsePRG(b []byte) (PRG, error) {
	if len(b) < 2 {
		return PRG{}, ErrShortPRG
	}
	p := PRG{Load: uint16(b[0]) | uint16(b[1])<<8, Data: b[2:]}
	if p.End() > 0x10000 {
		return PRG{}, fmt.Errorf("%w: %d bytes at $%04X", ErrPRGOverflow, len(p.Data), p.Load)
	}
	return p, nil
}
