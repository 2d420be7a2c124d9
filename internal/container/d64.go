package container

import (
	"bytes"
	"errors"
	"fmt"

	"fortio.org/safecast"

	"halfbyte/internal/petscii"
)

// Geometry of a 35-track 1541 disk.
const (
	Tracks     = 35
	SectorSize = 256
	DiskSize   = 174848
	// DiskSizeWithErrors carries one error byte per sector after the data.
	DiskSizeWithErrors = DiskSize + 683

	dirTrack      = 18
	blockPayload  = SectorSize - 2
	nameLen       = 16
	entrySize     = 32
	entriesPerDir = SectorSize / entrySize
	pad           = 0xA0

	dataInterleave = 10
	dirInterleave  = 3
)

// FileTypePRG is a closed PRG directory entry.
const FileTypePRG = 0x82

var ErrFileExists = errors.New("container: file exists")

// SectorsPerTrack is 21 on the outer tracks and 17 on the innermost zone.
func SectorsPerTrack(track int) int {
	switch {
	case track < 1 || track > Tracks:
		return 0
	case track <= 17:
		return 21
	case track <= 24:
		return 19
	case track <= 30:
		return 18
	}
	return 17
}

func sectorOffset(track, sector int) int {
	n := 0
	for t := 1; t < track; t++ {
		n += SectorsPerTrack(t)
	}
	return (n + sector) * SectorSize
}

// dataTracks is the order files fill the disk: outward from the
// directory track, lower half first.
var dataTracks = func() []int {
	order := make([]int, 0, Tracks-1)
	for t := dirTrack - 1; t >= 1; t-- {
		order = append(order, t)
	}
	for t := dirTrack + 1; t <= Tracks; t++ {
		order = append(order, t)
	}
	return order
}()

// Disk is an in-memory D64 image.
type Disk struct {
	data []byte
}

// Entry is one directory slot.
type Entry struct {
	Name   string
	Type   byte
	Track  uint8
	Sector uint8
	Blocks uint16
}

// NewDisk formats an empty disk. name is cut to 16 characters, id to 2.
func NewDisk(name, id string) *Disk {
	d := &Disk{data: make([]byte, DiskSize)}
	bam := d.sector(dirTrack, 0)
	bam[0], bam[1] = dirTrack, 1
	bam[2] = 'A'
	for t := 1; t <= Tracks; t++ {
		n := SectorsPerTrack(t)
		e := bam[4*t : 4*t+4]
		e[0] = byte(n)
		for s := range n {
			e[1+s/8] |= 1 << (s % 8)
		}
	}
	copy(bam[0x90:0x90+nameLen], padded(name, nameLen))
	bam[0xA0], bam[0xA1] = pad, pad
	copy(bam[0xA2:0xA4], padded(id, 2))
	bam[0xA4] = pad
	bam[0xA5], bam[0xA6] = '2', 'A'
	for i := 0xA7; i <= 0xAA; i++ {
		bam[i] = pad
	}
	d.markUsed(dirTrack, 0)
	d.markUsed(dirTrack, 1)
	dir := d.sector(dirTrack, 1)
	dir[0], dir[1] = 0, 0xFF
	return d
}

// OpenDisk wraps an existing image. A trailing error table is dropped.
func OpenDisk(b []byte) (*Disk, error) {
	switch len(b) {
	case DiskSize, DiskSizeWithErrors:
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrBadDisk, len(b))
	}
	return &Disk{data: append([]byte(nil), b[:DiskSize]...)}, nil
}

// Bytes returns the image.
func (d *Disk) Bytes() []byte { return d.data }

// Name is the disk name from the BAM header.
func (d *Disk) Name() string {
	return unpad(d.sector(dirTrack, 0)[0x90 : 0x90+nameLen])
}

// ID is the two-character disk id.
func (d *Disk) ID() string {
	return unpad(d.sector(dirTrack, 0)[0xA2:0xA4])
}

func (d *Disk) sector(track, sector int) []byte {
	off := sectorOffset(track, sector)
	return d.data[off : off+SectorSize]
}

func (d *Disk) bamEntry(track int) []byte {
	return d.sector(dirTrack, 0)[4*track : 4*track+4]
}

func (d *Disk) isFree(track, sector int) bool {
	return d.bamEntry(track)[1+sector/8]&(1<<(sector%8)) != 0
}

func (d *Disk) markUsed(track, sector int) {
	if !d.isFree(track, sector) {
		return
	}
	e := d.bamEntry(track)
	e[1+sector/8] &^= 1 << (sector % 8)
	e[0]--
}

// FreeBlocks counts free sectors outside the directory track, as the 1541
// reports them.
func (d *Disk) FreeBlocks() int {
	n := 0
	for _, t := range dataTracks {
		n += int(d.bamEntry(t)[0])
	}
	return n
}

// nextFree claims the next data sector after track/sector, stepping by the
// interleave within a track. track 0 starts a new file.
func (d *Disk) nextFree(track, sector int) (int, int, error) {
	first := 0
	for i, t := range dataTracks {
		if t == track {
			first = i
		}
	}
	for _, t := range dataTracks[first:] {
		n := SectorsPerTrack(t)
		start := 0
		if t == track {
			start = (sector + dataInterleave) % n
		}
		for k := range n {
			if s := (start + k) % n; d.isFree(t, s) {
				d.markUsed(t, s)
				return t, s, nil
			}
		}
	}
	return 0, 0, ErrDiskFull
}

// blocksFor is the sector count of a file; an empty file still takes one.
func blocksFor(size int) int {
	return max(1, (size+blockPayload-1)/blockPayload)
}

// AddPRG stores p as a PRG file called name. The disk is unchanged when the
// file does not fit.
func (d *Disk) AddPRG(name string, p PRG) error {
	body, err := p.Bytes()
	if err != nil {
		return err
	}
	return d.addFile(name, FileTypePRG, body)
}

func (d *Disk) addFile(name string, kind byte, body []byte) error {
	encoded := padded(name, nameLen)
	entries, err := d.Files()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if bytes.Equal(padded(e.Name, nameLen), encoded) {
			return fmt.Errorf("%w: %q", ErrFileExists, e.Name)
		}
	}
	blocks := blocksFor(len(body))
	if blocks > d.FreeBlocks() {
		return fmt.Errorf("%w: %q needs %d blocks, %d free", ErrDiskFull, name, blocks, d.FreeBlocks())
	}
	count, err := safecast.Conv[uint16](blocks)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrDiskFull, name)
	}
	slot, err := d.freeEntry()
	if err != nil {
		return err
	}

	track, sector, err := d.nextFree(0, 0)
	if err != nil {
		return err
	}
	slot[2] = kind
	slot[3], slot[4] = byte(track), byte(sector)
	copy(slot[5:5+nameLen], encoded)
	slot[30], slot[31] = byte(count), byte(count>>8)

	for i := 0; i < blocks; i++ {
		chunk := body[min(i*blockPayload, len(body)):min((i+1)*blockPayload, len(body))]
		blk := d.sector(track, sector)
		copy(blk[2:], chunk)
		if i == blocks-1 {
			last, err := safecast.Conv[uint8](len(chunk) + 1)
			if err != nil {
				return err
			}
			blk[0], blk[1] = 0, last
			break
		}
		nt, ns, err := d.nextFree(track, sector)
		if err != nil {
			return err
		}
		blk[0], blk[1] = byte(nt), byte(ns)
		track, sector = nt, ns
	}
	return nil
}

// freeEntry returns the first unused directory slot, extending the
// directory chain on track 18 when every sector is full.
func (d *Disk) freeEntry() ([]byte, error) {
	track, sector := dirTrack, 1
	for range SectorsPerTrack(dirTrack) {
		sec := d.sector(track, sector)
		for i := range entriesPerDir {
			if e := sec[i*entrySize : (i+1)*entrySize]; e[2] == 0 {
				return e, nil
			}
		}
		if sec[0] == 0 {
			next, ok := d.nextDirSector(sector)
			if !ok {
				return nil, ErrDirFull
			}
			sec[0], sec[1] = dirTrack, byte(next)
			fresh := d.sector(dirTrack, next)
			clear(fresh)
			fresh[0], fresh[1] = 0, 0xFF
			return fresh[:entrySize], nil
		}
		track, sector = int(sec[0]), int(sec[1])
		if track != dirTrack || sector >= SectorsPerTrack(dirTrack) {
			return nil, fmt.Errorf("%w: directory link %d/%d", ErrBadDisk, track, sector)
		}
	}
	return nil, ErrDirFull
}

func (d *Disk) nextDirSector(from int) (int, bool) {
	n := SectorsPerTrack(dirTrack)
	for k := range n {
		s := (from + dirInterleave + k) % n
		if d.isFree(dirTrack, s) {
			d.markUsed(dirTrack, s)
			return s, true
		}
	}
	return 0, false
}

// Files lists the directory in order.
func (d *Disk) Files() ([]Entry, error) {
	var out []Entry
	track, sector := dirTrack, 1
	for range SectorsPerTrack(dirTrack) {
		if track != dirTrack || sector >= SectorsPerTrack(dirTrack) {
			return nil, fmt.Errorf("%w: directory link %d/%d", ErrBadDisk, track, sector)
		}
		sec := d.sector(track, sector)
		for i := range entriesPerDir {
			e := sec[i*entrySize : (i+1)*entrySize]
			if e[2] == 0 {
				continue
			}
			out = append(out, Entry{
				Name:   unpad(e[5 : 5+nameLen]),
				Type:   e[2],
				Track:  e[3],
				Sector: e[4],
				Blocks: uint16(e[30]) | uint16(e[31])<<8,
			})
		}
		if sec[0] == 0 {
			return out, nil
		}
		track, sector = int(sec[0]), int(sec[1])
	}
	return nil, fmt.Errorf("%w: directory chain loops", ErrBadDisk)
}

// ReadFile follows the block chain of the named file and returns its raw
// contents; for a PRG that includes the load address.
func (d *Disk) ReadFile(name string) ([]byte, error) {
	entries, err := d.Files()
	if err != nil {
		return nil, err
	}
	want := padded(name, nameLen)
	for _, e := range entries {
		if bytes.Equal(padded(e.Name, nameLen), want) {
			return d.readChain(int(e.Track), int(e.Sector))
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrFileNotFound, name)
}

// ReadPRG reads the named file as a PRG.
func (d *Disk) ReadPRG(name string) (PRG, error) {
	b, err := d.ReadFile(name)
	if err != nil {
		return PRG{}, err
	}
	return ParsePRG(b)
}

func (d *Disk) readChain(track, sector int) ([]byte, error) {
	var out []byte
	for range DiskSize / SectorSize {
		if sector >= SectorsPerTrack(track) {
			return nil, fmt.Errorf("%w: block link %d/%d", ErrBadDisk, track, sector)
		}
		blk := d.sector(track, sector)
		if blk[0] == 0 {
			if blk[1] < 1 {
				return nil, fmt.Errorf("%w: last block at %d/%d is empty", ErrBadDisk, track, sector)
			}
			return append(out, blk[2:int(blk[1])+1]...), nil
		}
		out = append(out, blk[2:]...)
		track, sector = int(blk[0]), int(blk[1])
	}
	return nil, fmt.Errorf("%w: block chain loops", ErrBadDisk)
}

// padded encodes s as PETSCII cut or padded with $A0 to n bytes.
func padded(s string, n int) []byte {
	out := bytes.Repeat([]byte{pad}, n)
	copy(out, petscii.Encode(s))
	return out
}

func unpad(b []byte) string {
	for len(b) > 0 && b[len(b)-1] == pad {
		b = b[:len(b)-1]
	}
	return petscii.Decode(b)
}
