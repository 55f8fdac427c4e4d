package pmm

import (
	"errors"
	"testing"

	"ironveil/nexis/machine"
)

func testAllocator(t *testing.T, usableBytes uint32) *Allocator {
	t.Helper()
	regions := []machine.Region{
		{Base: 0, Size: 64 * 1024, Kind: machine.RegionReserved},
		{Base: 64 * 1024, Size: usableBytes, Kind: machine.RegionUsable},
	}
	return New(regions)
}

func TestNewCountsUsableFrames(t *testing.T) {
	a := testAllocator(t, 32*FrameSize)
	if a.TotalFrames() != 32 {
		t.Fatalf("expected 32 frames, got %d", a.TotalFrames())
	}
	if a.FreeFrames() != 32 || a.UsedFrames() != 0 {
		t.Fatalf("expected all frames free, got free=%d used=%d", a.FreeFrames(), a.UsedFrames())
	}
}

func TestNewDiscardsPartialFrames(t *testing.T) {
	regions := []machine.Region{
		{Base: 100, Size: 3*FrameSize + 200, Kind: machine.RegionUsable},
	}
	a := New(regions)
	// [100, 12588) holds whole frames 1 and 2 only.
	if a.TotalFrames() != 2 {
		t.Fatalf("expected partial edges discarded, got %d frames", a.TotalFrames())
	}
}

func TestAllocFrameInsideUsableRegion(t *testing.T) {
	a := testAllocator(t, 8*FrameSize)
	f, err := a.AllocFrame()
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if !f.Valid() {
		t.Fatal("expected a valid frame")
	}
	if f.Addr() < 64*1024 {
		t.Fatalf("expected frame outside the reserved region, got addr %#x", f.Addr())
	}
	if !a.Allocated(f) {
		t.Fatal("expected frame to be tracked as allocated")
	}
}

func TestConservation(t *testing.T) {
	a := testAllocator(t, 16*FrameSize)
	total := a.TotalFrames()

	var frames []Frame
	for i := 0; i < 10; i++ {
		f, err := a.AllocFrame()
		if err != nil {
			t.Fatalf("alloc %d: %v", i, err)
		}
		frames = append(frames, f)
		if a.FreeFrames()+a.UsedFrames() != total {
			t.Fatalf("free+used drifted: %d+%d != %d", a.FreeFrames(), a.UsedFrames(), total)
		}
	}
	for _, f := range frames[:5] {
		if err := a.FreeFrame(f); err != nil {
			t.Fatalf("free %d: %v", f, err)
		}
		if a.FreeFrames()+a.UsedFrames() != total {
			t.Fatalf("free+used drifted after free: %d+%d != %d", a.FreeFrames(), a.UsedFrames(), total)
		}
	}
	if a.UsedFrames() != 5 {
		t.Fatalf("expected 5 frames still out, got %d", a.UsedFrames())
	}
}

func TestNoDoubleAllocation(t *testing.T) {
	a := testAllocator(t, 16*FrameSize)
	seen := make(map[Frame]bool)
	for {
		f, err := a.AllocFrame()
		if err != nil {
			if !errors.Is(err, ErrOutOfMemory) {
				t.Fatalf("expected out of memory at exhaustion, got %v", err)
			}
			break
		}
		if seen[f] {
			t.Fatalf("frame %d handed out twice", f)
		}
		seen[f] = true
	}
	if len(seen) != 16 {
		t.Fatalf("expected 16 distinct frames, got %d", len(seen))
	}
}

func TestAllocRangeContiguous(t *testing.T) {
	a := testAllocator(t, 16*FrameSize)
	first, err := a.AllocRange(4)
	if err != nil {
		t.Fatalf("alloc range: %v", err)
	}
	for i := Frame(0); i < 4; i++ {
		if !a.Allocated(first + i) {
			t.Fatalf("expected frame %d allocated", first+i)
		}
	}
	if a.UsedFrames() != 4 {
		t.Fatalf("expected 4 used, got %d", a.UsedFrames())
	}
	if err := a.FreeRange(first, 4); err != nil {
		t.Fatalf("free range: %v", err)
	}
	if a.UsedFrames() != 0 {
		t.Fatalf("expected all returned, got %d used", a.UsedFrames())
	}
}

func TestAllocRangeSkipsFragmentedRuns(t *testing.T) {
	a := testAllocator(t, 8*FrameSize)
	var frames []Frame
	for i := 0; i < 8; i++ {
		f, err := a.AllocFrame()
		if err != nil {
			t.Fatalf("alloc: %v", err)
		}
		frames = append(frames, f)
	}
	// Free alternating frames: longest run is 1.
	for i := 0; i < len(frames); i += 2 {
		if err := a.FreeFrame(frames[i]); err != nil {
			t.Fatalf("free: %v", err)
		}
	}
	if _, err := a.AllocRange(2); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected no contiguous run of 2, got %v", err)
	}
	// Free one neighbor to create a run of 2.
	if err := a.FreeFrame(frames[1]); err != nil {
		t.Fatalf("free: %v", err)
	}
	first, err := a.AllocRange(2)
	if err != nil {
		t.Fatalf("expected run of 2 after free, got %v", err)
	}
	if first != frames[0] {
		t.Fatalf("expected run to start at %d, got %d", frames[0], first)
	}
}

func TestOutOfMemoryIsRecoverable(t *testing.T) {
	a := testAllocator(t, 4*FrameSize)
	var frames []Frame
	for i := 0; i < 4; i++ {
		f, err := a.AllocFrame()
		if err != nil {
			t.Fatalf("alloc: %v", err)
		}
		frames = append(frames, f)
	}
	if _, err := a.AllocFrame(); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected out of memory, got %v", err)
	}
	if err := a.FreeFrame(frames[2]); err != nil {
		t.Fatalf("free: %v", err)
	}
	f, err := a.AllocFrame()
	if err != nil {
		t.Fatalf("expected allocation to succeed after free, got %v", err)
	}
	if f != frames[2] {
		t.Fatalf("expected the freed frame back, got %d", f)
	}
}

func TestFreeUnallocatedFrame(t *testing.T) {
	a := testAllocator(t, 8*FrameSize)
	f, err := a.AllocFrame()
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if err := a.FreeFrame(f); err != nil {
		t.Fatalf("free: %v", err)
	}
	if err := a.FreeFrame(f); !errors.Is(err, ErrFrameNotAllocated) {
		t.Fatalf("expected double free to be reported, got %v", err)
	}
}

func TestFreeOutOfRangeFrame(t *testing.T) {
	a := testAllocator(t, 8*FrameSize)
	if err := a.FreeFrame(Frame(0)); !errors.Is(err, ErrFrameOutOfRange) {
		t.Fatalf("expected reserved frame to be rejected, got %v", err)
	}
	if err := a.FreeFrame(Frame(1 << 20)); !errors.Is(err, ErrFrameOutOfRange) {
		t.Fatalf("expected out-of-range frame to be rejected, got %v", err)
	}
}

func TestFrameAddrRoundTrip(t *testing.T) {
	f := Frame(17)
	if f.Addr() != 17*FrameSize {
		t.Fatalf("expected addr %d, got %d", 17*FrameSize, f.Addr())
	}
	if FrameContaining(f.Addr()+FrameSize-1) != f {
		t.Fatalf("expected FrameContaining to invert Addr")
	}
	if InvalidFrame.Valid() {
		t.Fatal("expected InvalidFrame to be invalid")
	}
}
