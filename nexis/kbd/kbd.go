// Package kbd turns HAL key events into the keystroke stream the kernel
// hands to read_key and the shell line editor.
package kbd

import (
	"sync/atomic"

	"ironveil/hal"
)

// Key is one decoded keystroke. Printable input carries the rune value,
// control keys the ASCII control code, and navigation keys values past
// the Unicode range so they can never collide with text.
type Key uint32

const (
	KeyNone      Key = 0
	KeyCtrlC     Key = 0x03
	KeyBackspace Key = 0x08
	KeyTab       Key = 0x09
	KeyEnter     Key = 0x0a
	KeyCtrlU     Key = 0x15
	KeyCtrlW     Key = 0x17
	KeyEscape    Key = 0x1b
	KeyDelete    Key = 0x7f
)

const (
	KeyUp Key = 0x110000 + iota
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
)

// Printable reports whether the key is a regular text rune.
func (k Key) Printable() bool {
	return k >= 0x20 && k < 0x110000 && k != KeyDelete
}

// Rune returns the key as a rune, or 0 for non-text keys.
func (k Key) Rune() rune {
	if !k.Printable() {
		return 0
	}
	return rune(k)
}

// Decode maps a HAL key event to a keystroke. Releases and events that
// carry neither a known code nor a rune decode to false.
func Decode(ev hal.KeyEvent) (Key, bool) {
	if !ev.Press {
		return KeyNone, false
	}
	switch ev.Code {
	case hal.KeyEnter:
		return KeyEnter, true
	case hal.KeyBackspace:
		return KeyBackspace, true
	case hal.KeyTab:
		return KeyTab, true
	case hal.KeyEscape:
		return KeyEscape, true
	case hal.KeyDelete:
		return KeyDelete, true
	case hal.KeyUp:
		return KeyUp, true
	case hal.KeyDown:
		return KeyDown, true
	case hal.KeyLeft:
		return KeyLeft, true
	case hal.KeyRight:
		return KeyRight, true
	case hal.KeyHome:
		return KeyHome, true
	case hal.KeyEnd:
		return KeyEnd, true
	}
	if ev.Rune != 0 {
		return Key(ev.Rune), true
	}
	return KeyNone, false
}

const queueSlots = 64

// Queue is a fixed-size single-consumer keystroke buffer. Producers that
// hit a full queue drop the new keystroke rather than the buffered ones.
type Queue struct {
	_     [0]func() // prevent accidental copying.
	head  atomic.Uint32
	tail  atomic.Uint32
	slots [queueSlots]Key
}

// TryPush enqueues one keystroke, returning false if the queue is full.
func (q *Queue) TryPush(k Key) bool {
	head := q.head.Load()
	tail := q.tail.Load()
	if head-tail >= queueSlots {
		return false
	}

	if !q.head.CompareAndSwap(head, head+1) {
		return false
	}

	q.slots[head%queueSlots] = k
	return true
}

// TryPop dequeues the oldest keystroke, returning false if the queue is
// empty.
func (q *Queue) TryPop() (Key, bool) {
	tail := q.tail.Load()
	head := q.head.Load()
	if tail == head {
		return KeyNone, false
	}

	k := q.slots[tail%queueSlots]
	q.tail.Store(tail + 1)
	return k, true
}

// Len returns the number of buffered keystrokes.
func (q *Queue) Len() int {
	return int(q.head.Load() - q.tail.Load())
}
