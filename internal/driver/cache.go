package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"halfbyte/internal/asm"
	"halfbyte/internal/diag"
	"halfbyte/internal/hir"
	"halfbyte/internal/layout"
)

// Current schema version - increment when ImagePayload changes
const imageCacheSchema uint16 = 1

// Digest keys a cached image.
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// ImageCache keeps linked images on disk, keyed by program and target, so
// an unchanged program is not compiled again. Safe for concurrent use.
type ImageCache struct {
	mu  sync.RWMutex
	dir string
}

// ImagePayload is what one cache file holds. Warnings are kept so a cache
// hit reports the same diagnostics as a fresh build.
type ImagePayload struct {
	Schema      uint16
	Name        string
	Origin      uint16
	Entry       uint16
	Bytes       []byte
	Symbols     []asm.Symbol
	Trampolines int
	Warnings    []diag.Diagnostic
}

// CacheDir is $XDG_CACHE_HOME/app, or ~/.cache/app.
func CacheDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenImageCache creates dir if needed.
func OpenImageCache(dir string) (*ImageCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("image cache: %w", err)
	}
	return &ImageCache{dir: dir}, nil
}

// Key hashes the encoded program together with the target memory map.
func Key(prog *hir.Program, t layout.Target) (Digest, error) {
	body, err := hir.Marshal(prog)
	if err != nil {
		return Digest{}, err
	}
	h := sha256.New()
	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], imageCacheSchema)
	h.Write(hdr[:])
	fmt.Fprintf(h, "%s|%04x|%t|%04x|%04x|%04x|%04x|%04x|%04x|%04x|",
		t.Name, t.LoadAddress, t.BasicStub, t.VarBase, t.VarLimit, t.ConvBuffer, t.ConvSize, t.ConcatBase, t.Chrout, t.Plot)
	h.Write(body)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

func (c *ImageCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "images", key.String()+".mp")
}

// Put writes payload atomically.
func (c *ImageCache) Put(key Digest, payload *ImagePayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	payload.Schema = imageCacheSchema
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload for key. A missing entry or one from another schema
// is a miss, not an error.
func (c *ImageCache) Get(key Digest) (*ImagePayload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()
	var out ImagePayload
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, err
	}
	if out.Schema != imageCacheSchema {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll removes every cached image.
func (c *ImageCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "images"))
}

func payloadFromImage(name string, img *asm.Image, bag *diag.Bag) *ImagePayload {
	p := &ImagePayload{
		Name:        name,
		Origin:      img.Origin,
		Entry:       img.Entry,
		Bytes:       img.Bytes,
		Symbols:     img.Symbols,
		Trampolines: img.Trampolines,
	}
	for _, d := range bag.Items() {
		if d.Severity < diag.SevError {
			p.Warnings = append(p.Warnings, d)
		}
	}
	return p
}

func (p *ImagePayload) image() *asm.Image {
	return &asm.Image{
		Origin:      p.Origin,
		Entry:       p.Entry,
		Bytes:       p.Bytes,
		Symbols:     p.Symbols,
		Trampolines: p.Trampolines,
	}
}
