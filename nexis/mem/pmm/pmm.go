// Package pmm manages physical memory in fixed 4096-byte frames.
package pmm

import (
	"errors"
	"math/bits"

	"ironveil/nexis/machine"
)

const (
	// FrameSize is the allocation granularity in bytes.
	FrameSize  = 4096
	frameShift = 12
)

var (
	ErrOutOfMemory       = errors.New("pmm: out of memory")
	ErrFrameOutOfRange   = errors.New("pmm: frame out of range")
	ErrFrameNotAllocated = errors.New("pmm: frame not allocated")
)

// Frame is a physical frame number.
type Frame uint32

// InvalidFrame is returned when an allocation fails.
const InvalidFrame = Frame(^uint32(0))

func (f Frame) Valid() bool { return f != InvalidFrame }

// Addr returns the physical byte address of the frame.
func (f Frame) Addr() uint32 { return uint32(f) << frameShift }

// FrameContaining returns the frame covering a physical address.
func FrameContaining(addr uint32) Frame { return Frame(addr >> frameShift) }

// Allocator hands out frames from the usable regions of a boot memory map.
// One bit per frame: set means free. Frames outside usable regions are never
// handed out and never accepted back.
type Allocator struct {
	words   []uint64
	usable  []uint64
	nframes uint32
	total   uint32
	free    uint32
}

// New seeds an allocator from a boot memory map. Only whole frames fully
// inside usable regions are managed; partial frames at region edges are
// discarded.
func New(regions []machine.Region) *Allocator {
	var span uint32
	for _, r := range regions {
		end := r.Base + r.Size
		if end > span {
			span = end
		}
	}
	nframes := span >> frameShift
	nwords := (nframes + 63) / 64

	a := &Allocator{
		words:   make([]uint64, nwords),
		usable:  make([]uint64, nwords),
		nframes: nframes,
	}
	for _, r := range regions {
		if r.Kind != machine.RegionUsable {
			continue
		}
		first := (r.Base + FrameSize - 1) >> frameShift
		end := (r.Base + r.Size) >> frameShift
		for f := first; f < end; f++ {
			if a.testUsable(Frame(f)) {
				continue
			}
			a.setUsable(Frame(f))
			a.setFree(Frame(f))
			a.total++
			a.free++
		}
	}
	return a
}

func (a *Allocator) testUsable(f Frame) bool { return a.usable[f/64]&(1<<(f%64)) != 0 }
func (a *Allocator) setUsable(f Frame)       { a.usable[f/64] |= 1 << (f % 64) }
func (a *Allocator) testFree(f Frame) bool   { return a.words[f/64]&(1<<(f%64)) != 0 }
func (a *Allocator) setFree(f Frame)         { a.words[f/64] |= 1 << (f % 64) }
func (a *Allocator) clearFree(f Frame)       { a.words[f/64] &^= 1 << (f % 64) }

// TotalFrames reports how many frames the allocator manages.
func (a *Allocator) TotalFrames() uint32 { return a.total }

// FreeFrames reports how many managed frames are currently free.
func (a *Allocator) FreeFrames() uint32 { return a.free }

// UsedFrames reports how many managed frames are currently allocated.
func (a *Allocator) UsedFrames() uint32 { return a.total - a.free }

// Allocated reports whether f is a managed frame currently handed out.
func (a *Allocator) Allocated(f Frame) bool {
	return uint32(f) < a.nframes && a.testUsable(f) && !a.testFree(f)
}

// AllocFrame reserves the lowest free frame.
func (a *Allocator) AllocFrame() (Frame, error) {
	for wi, w := range a.words {
		if w == 0 {
			continue
		}
		f := Frame(wi*64 + bits.TrailingZeros64(w))
		a.clearFree(f)
		a.free--
		return f, nil
	}
	return InvalidFrame, ErrOutOfMemory
}

// AllocRange reserves n contiguous frames and returns the first.
func (a *Allocator) AllocRange(n uint32) (Frame, error) {
	if n == 0 || n > a.free {
		return InvalidFrame, ErrOutOfMemory
	}
	var run uint32
	for f := Frame(0); uint32(f) < a.nframes; f++ {
		if !a.testFree(f) {
			run = 0
			continue
		}
		run++
		if run == n {
			first := f - Frame(n-1)
			for g := first; g <= f; g++ {
				a.clearFree(g)
			}
			a.free -= n
			return first, nil
		}
	}
	return InvalidFrame, ErrOutOfMemory
}

// FreeFrame returns a frame to the pool. Freeing a frame that is not
// currently allocated is an invariant violation and reported as an error so
// the caller can escalate.
func (a *Allocator) FreeFrame(f Frame) error {
	if uint32(f) >= a.nframes || !a.testUsable(f) {
		return ErrFrameOutOfRange
	}
	if a.testFree(f) {
		return ErrFrameNotAllocated
	}
	a.setFree(f)
	a.free++
	return nil
}

// FreeRange returns n contiguous frames starting at first. It stops at the
// first failure.
func (a *Allocator) FreeRange(first Frame, n uint32) error {
	for i := uint32(0); i < n; i++ {
		if err := a.FreeFrame(first + Frame(i)); err != nil {
			return err
		}
	}
	return nil
}
