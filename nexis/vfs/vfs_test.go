package vfs

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	fs := New()
	if err := fs.Write("readme.txt", []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := fs.Read("readme.txt")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	size, err := fs.Size("readme.txt")
	if err != nil || size != 5 {
		t.Fatalf("expected size 5, got %d err=%v", size, err)
	}
}

func TestWriteUpserts(t *testing.T) {
	fs := New()
	fs.Write("a.txt", []byte("one"))
	if err := fs.Write("a.txt", []byte("two")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if fs.Len() != 1 {
		t.Fatalf("expected one slot used, got %d", fs.Len())
	}
	got, _ := fs.Read("a.txt")
	if string(got) != "two" {
		t.Fatalf("expected replacement, got %q", got)
	}
}

func TestReadCopiesPayload(t *testing.T) {
	fs := New()
	fs.Write("a.txt", []byte("abc"))
	got, _ := fs.Read("a.txt")
	got[0] = 'X'
	again, _ := fs.Read("a.txt")
	if string(again) != "abc" {
		t.Fatalf("expected stored payload untouched, got %q", again)
	}
}

func TestNotFound(t *testing.T) {
	fs := New()
	if _, err := fs.Read("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := fs.Size("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := fs.Remove("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWriteLimits(t *testing.T) {
	fs := New()
	if err := fs.Write("", []byte("x")); !errors.Is(err, ErrBadName) {
		t.Fatalf("expected bad name, got %v", err)
	}
	long := strings.Repeat("n", MaxNameLen+1)
	if err := fs.Write(long, []byte("x")); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("expected name too long, got %v", err)
	}
	big := make([]byte, MaxFileSize+1)
	if err := fs.Write("big", big); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected file too large, got %v", err)
	}
	if err := fs.Write("exact", make([]byte, MaxFileSize)); err != nil {
		t.Fatalf("expected frame-sized file to fit, got %v", err)
	}
}

func TestSlotExhaustion(t *testing.T) {
	fs := New()
	for i := 0; i < MaxFiles; i++ {
		if err := fs.Write(fmt.Sprintf("f%d", i), []byte("x")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := fs.Write("extra", []byte("x")); !errors.Is(err, ErrNoSpace) {
		t.Fatalf("expected no space, got %v", err)
	}
	// Upsert of an existing name still works when full.
	if err := fs.Write("f3", []byte("longer payload")); err != nil {
		t.Fatalf("expected upsert while full, got %v", err)
	}
	if err := fs.Remove("f0"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := fs.Write("extra", []byte("x")); err != nil {
		t.Fatalf("expected slot reuse after remove, got %v", err)
	}
}

func TestListSlotOrder(t *testing.T) {
	fs := New()
	fs.Write("a", []byte("1"))
	fs.Write("b", []byte("22"))
	fs.Write("c", []byte("333"))
	fs.Remove("b")
	fs.Write("d", []byte("4444"))

	list := fs.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 files, got %d", len(list))
	}
	// d reuses b's slot.
	want := []string{"a", "d", "c"}
	for i, fi := range list {
		if fi.Name != want[i] {
			t.Fatalf("expected %v, got %+v", want, list)
		}
	}
	if list[1].Size != 4 {
		t.Fatalf("expected size 4 for d, got %d", list[1].Size)
	}
}

func TestImageRoundTrip(t *testing.T) {
	fs := New()
	fs.Write("readme.txt", []byte("welcome"))
	fs.Write("data.bin", bytes.Repeat([]byte{0xAA}, 512))
	img := fs.PackImage()

	loaded := New()
	loaded.Write("keep.txt", []byte("stays"))
	if err := loaded.LoadImage(img); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("expected 3 files after load, got %d", loaded.Len())
	}
	got, err := loaded.Read("data.bin")
	if err != nil || len(got) != 512 || got[0] != 0xAA {
		t.Fatalf("expected payload preserved, got %d bytes err=%v", len(got), err)
	}
	if _, err := loaded.Read("keep.txt"); err != nil {
		t.Fatalf("expected existing file kept, got %v", err)
	}
}

func TestLoadImageRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("NV"),
		[]byte("XXXX\x00\x00"),
		append([]byte("NVFS"), 0x01, 0x00, 0xFF), // count 1, truncated entry
	}
	for i, b := range cases {
		if err := New().LoadImage(b); !errors.Is(err, ErrBadImage) {
			t.Fatalf("case %d: expected bad image, got %v", i, err)
		}
	}
	// Trailing junk after the last entry is rejected too.
	img := append(New().PackImage(), 0xFF)
	if err := New().LoadImage(img); !errors.Is(err, ErrBadImage) {
		t.Fatalf("expected trailing junk rejected, got %v", err)
	}
}
