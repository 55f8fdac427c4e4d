// Package vfs is the in-memory filesystem: a fixed table of small flat
// files, one frame of payload at most.
package vfs

import (
	"encoding/binary"
	"errors"
)

const (
	// MaxFiles is the number of file slots.
	MaxFiles = 16
	// MaxNameLen bounds a file name in bytes.
	MaxNameLen = 32
	// MaxFileSize bounds a file payload in bytes.
	MaxFileSize = 4096
)

var (
	ErrNotFound     = errors.New("vfs: file not found")
	ErrNoSpace      = errors.New("vfs: no free file slot")
	ErrBadName      = errors.New("vfs: bad file name")
	ErrNameTooLong  = errors.New("vfs: file name too long")
	ErrFileTooLarge = errors.New("vfs: file too large")
	ErrBadImage     = errors.New("vfs: bad filesystem image")
)

// FileInfo describes one stored file.
type FileInfo struct {
	Name string
	Size uint32
}

type file struct {
	used bool
	name string
	data []byte
}

// FS is a fixed-capacity file store. Not safe for concurrent use; the
// kernel serializes access.
type FS struct {
	files [MaxFiles]file
}

func New() *FS { return &FS{} }

func checkName(name string) error {
	if name == "" {
		return ErrBadName
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}

func (fs *FS) lookup(name string) *file {
	for i := range fs.files {
		if fs.files[i].used && fs.files[i].name == name {
			return &fs.files[i]
		}
	}
	return nil
}

// List returns the stored files in slot order.
func (fs *FS) List() []FileInfo {
	var out []FileInfo
	for i := range fs.files {
		if fs.files[i].used {
			out = append(out, FileInfo{Name: fs.files[i].name, Size: uint32(len(fs.files[i].data))})
		}
	}
	return out
}

// Len reports how many slots are occupied.
func (fs *FS) Len() int {
	n := 0
	for i := range fs.files {
		if fs.files[i].used {
			n++
		}
	}
	return n
}

// Read returns a copy of the file payload.
func (fs *FS) Read(name string) ([]byte, error) {
	f := fs.lookup(name)
	if f == nil {
		return nil, ErrNotFound
	}
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}

// Size returns the payload size of a file.
func (fs *FS) Size(name string) (uint32, error) {
	f := fs.lookup(name)
	if f == nil {
		return 0, ErrNotFound
	}
	return uint32(len(f.data)), nil
}

// Write stores data under name, replacing an existing file of the same
// name.
func (fs *FS) Write(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if len(data) > MaxFileSize {
		return ErrFileTooLarge
	}
	f := fs.lookup(name)
	if f == nil {
		for i := range fs.files {
			if !fs.files[i].used {
				f = &fs.files[i]
				break
			}
		}
		if f == nil {
			return ErrNoSpace
		}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	*f = file{used: true, name: name, data: buf}
	return nil
}

// Remove deletes a file.
func (fs *FS) Remove(name string) error {
	f := fs.lookup(name)
	if f == nil {
		return ErrNotFound
	}
	*f = file{}
	return nil
}

// imageMagic marks a packed filesystem image.
var imageMagic = [4]byte{'N', 'V', 'F', 'S'}

// PackImage serializes the filesystem for mkinitfs and boot seeding.
func (fs *FS) PackImage() []byte {
	out := append([]byte{}, imageMagic[:]...)
	out = binary.LittleEndian.AppendUint16(out, uint16(fs.Len()))
	for i := range fs.files {
		f := &fs.files[i]
		if !f.used {
			continue
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(len(f.name)))
		out = append(out, f.name...)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(f.data)))
		out = append(out, f.data...)
	}
	return out
}

// LoadImage upserts every file of a packed image into the filesystem.
func (fs *FS) LoadImage(b []byte) error {
	if len(b) < 6 || [4]byte(b[:4]) != imageMagic {
		return ErrBadImage
	}
	count := binary.LittleEndian.Uint16(b[4:6])
	rest := b[6:]
	for i := 0; i < int(count); i++ {
		if len(rest) < 2 {
			return ErrBadImage
		}
		nameLen := int(binary.LittleEndian.Uint16(rest))
		rest = rest[2:]
		if nameLen > MaxNameLen || len(rest) < nameLen {
			return ErrBadImage
		}
		name := string(rest[:nameLen])
		rest = rest[nameLen:]
		if len(rest) < 4 {
			return ErrBadImage
		}
		size := int(binary.LittleEndian.Uint32(rest))
		rest = rest[4:]
		if size > MaxFileSize || len(rest) < size {
			return ErrBadImage
		}
		if err := fs.Write(name, rest[:size]); err != nil {
			return err
		}
		rest = rest[size:]
	}
	if len(rest) != 0 {
		return ErrBadImage
	}
	return nil
}
