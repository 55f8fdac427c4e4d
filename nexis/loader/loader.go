// Package loader parses and installs NVEX program images.
//
// An NVEX image carries the ABI version it was built against, the entry
// point, how much stack to reserve past the code, and the code bytes
// themselves. Loading checks the ABI before any frame is allocated, so a
// rejected image costs nothing.
package loader

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"ironveil/nexis/machine"
	"ironveil/nexis/mem/pmm"
)

var (
	ErrBadImage        = errors.New("loader: malformed image")
	ErrABIIncompatible = errors.New("loader: incompatible ABI version")
	ErrTooLarge        = errors.New("loader: image does not fit address space")
)

var imageMagic = [4]byte{'N', 'V', 'E', 'X'}

const (
	maxABILen = 64

	// DefaultStack is the stack reserve Pack applies when none is given.
	DefaultStack = 4096

	// maxWindow caps a single program window at 1 MiB.
	maxWindow = 1 << 20
)

// Program is a parsed NVEX image.
type Program struct {
	ABI   *semver.Version
	Entry uint32
	Stack uint32
	Code  []byte
}

// WindowSize returns the program's address window in bytes, code plus
// stack rounded up to whole frames.
func (p *Program) WindowSize() uint32 {
	need := uint32(len(p.Code)) + p.Stack
	frames := (need + pmm.FrameSize - 1) / pmm.FrameSize
	if frames == 0 {
		frames = 1
	}
	return frames * pmm.FrameSize
}

// Frames returns the number of frames the program window occupies.
func (p *Program) Frames() uint32 { return p.WindowSize() / pmm.FrameSize }

// Pack builds an NVEX image. A zero stack reserve gets DefaultStack.
func Pack(abi string, entry, stack uint32, code []byte) []byte {
	if stack == 0 {
		stack = DefaultStack
	}
	img := make([]byte, 0, 4+2+len(abi)+12+len(code))
	img = append(img, imageMagic[:]...)
	img = binary.LittleEndian.AppendUint16(img, uint16(len(abi)))
	img = append(img, abi...)
	img = binary.LittleEndian.AppendUint32(img, entry)
	img = binary.LittleEndian.AppendUint32(img, stack)
	img = binary.LittleEndian.AppendUint32(img, uint32(len(code)))
	img = append(img, code...)
	return img
}

// Parse validates an NVEX image and returns its program description.
func Parse(img []byte) (*Program, error) {
	if len(img) < 6 || [4]byte(img[:4]) != imageMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadImage)
	}
	off := 4
	abiLen := int(binary.LittleEndian.Uint16(img[off:]))
	off += 2
	if abiLen == 0 || abiLen > maxABILen || off+abiLen > len(img) {
		return nil, fmt.Errorf("%w: bad ABI field", ErrBadImage)
	}
	abi, err := semver.NewVersion(string(img[off : off+abiLen]))
	if err != nil {
		return nil, fmt.Errorf("%w: ABI version: %v", ErrBadImage, err)
	}
	off += abiLen
	if off+12 > len(img) {
		return nil, fmt.Errorf("%w: truncated header", ErrBadImage)
	}
	entry := binary.LittleEndian.Uint32(img[off:])
	stack := binary.LittleEndian.Uint32(img[off+4:])
	codeSize := binary.LittleEndian.Uint32(img[off+8:])
	off += 12
	if codeSize == 0 || int(codeSize) != len(img)-off {
		return nil, fmt.Errorf("%w: code size %d does not match payload", ErrBadImage, codeSize)
	}
	if entry%machine.InstrBytes != 0 || entry >= codeSize {
		return nil, fmt.Errorf("%w: entry %#x outside code", ErrBadImage, entry)
	}
	p := &Program{
		ABI:   abi,
		Entry: entry,
		Stack: stack,
		Code:  img[off:],
	}
	if uint64(len(p.Code))+uint64(stack) > maxWindow {
		return nil, fmt.Errorf("%w: window %d bytes", ErrTooLarge, uint64(len(p.Code))+uint64(stack))
	}
	return p, nil
}

// Compatible reports whether a program built against progABI can run on
// a kernel exposing kernelABI: same major version, and the program must
// not require a newer ABI than the kernel provides.
func Compatible(kernelABI, progABI *semver.Version) bool {
	c, err := semver.NewConstraint(fmt.Sprintf(">= %d.0.0, <= %s", kernelABI.Major(), kernelABI.String()))
	if err != nil {
		return false
	}
	return c.Check(progABI)
}

// Loaded describes an installed program: its frame range and the initial
// execution context.
type Loaded struct {
	First   pmm.Frame
	NFrames uint32
	Ctx     machine.Context
}

// Load parses img, checks it against kernelABI, allocates a contiguous
// frame range, copies the code in, and returns the initial context. The
// ABI gate runs before allocation. On any error no frames stay held.
func Load(img []byte, kernelABI *semver.Version, alloc *pmm.Allocator, mem *machine.Memory) (*Loaded, error) {
	p, err := Parse(img)
	if err != nil {
		return nil, err
	}
	if !Compatible(kernelABI, p.ABI) {
		return nil, fmt.Errorf("%w: program %s, kernel %s", ErrABIIncompatible, p.ABI, kernelABI)
	}

	nframes := p.Frames()
	first, err := alloc.AllocRange(nframes)
	if err != nil {
		return nil, err
	}
	base := first.Addr()
	size := p.WindowSize()
	if !mem.Write(base, p.Code) {
		// The range fit the allocator but not physical memory; this
		// means the allocator was built over a bad region map.
		if ferr := alloc.FreeRange(first, nframes); ferr != nil {
			return nil, fmt.Errorf("loader: rollback failed: %v", ferr)
		}
		return nil, fmt.Errorf("%w: code does not fit at %#x", ErrTooLarge, base)
	}
	zeroTail(mem, base+uint32(len(p.Code)), size-uint32(len(p.Code)))

	ctx := machine.Context{
		PC:    p.Entry,
		SP:    size,
		Base:  base,
		Limit: size,
	}
	return &Loaded{First: first, NFrames: nframes, Ctx: ctx}, nil
}

// zeroTail clears the bss and stack area past the code so a recycled
// frame never leaks a previous program's bytes.
func zeroTail(mem *machine.Memory, off, n uint32) {
	if n == 0 {
		return
	}
	var zeros [pmm.FrameSize]byte
	for n > 0 {
		chunk := n
		if chunk > pmm.FrameSize {
			chunk = pmm.FrameSize
		}
		if !mem.Write(off, zeros[:chunk]) {
			return
		}
		off += chunk
		n -= chunk
	}
}
