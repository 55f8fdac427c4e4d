// Package irq routes interrupt vectors to installed handlers.
//
// Vectors split into two categories. Faults (divide error, invalid opcode,
// page fault) are raised synchronously by the running instruction. Device
// and software vectors (timer, keyboard, syscall) are asynchronous or
// requested; they are latched in a Pending set and taken one at a time at
// instruction boundaries.
package irq

import (
	"errors"
	"math/bits"

	"ironveil/nexis/machine"
)

// Vector is an interrupt vector number.
type Vector uint8

const (
	VecDivide        Vector = 0
	VecInvalidOpcode Vector = 6
	VecPageFault     Vector = 14
	VecTimer         Vector = 32
	VecKeyboard      Vector = 33
	VecSyscall       Vector = 128

	// NumVectors is the size of the vector space.
	NumVectors = 256
)

// IsFault reports whether v is raised synchronously by a faulting
// instruction. A fault with no handler is unrecoverable; everything else
// can be dropped at worst.
func (v Vector) IsFault() bool {
	return v == VecDivide || v == VecInvalidOpcode || v == VecPageFault
}

func (v Vector) String() string {
	switch v {
	case VecDivide:
		return "divide_error"
	case VecInvalidOpcode:
		return "invalid_opcode"
	case VecPageFault:
		return "page_fault"
	case VecTimer:
		return "timer"
	case VecKeyboard:
		return "keyboard"
	case VecSyscall:
		return "syscall"
	default:
		return "vector"
	}
}

var (
	ErrVectorInUse = errors.New("irq: vector in use")
	ErrNilHandler  = errors.New("irq: nil handler")
	ErrNoHandler   = errors.New("irq: no handler installed")
	ErrReentrant   = errors.New("irq: dispatch while handler active")
)

// Frame carries everything a handler may inspect: the vector, the pid of
// the interrupted task (0 when none), the fault address for memory faults,
// and a snapshot of the interrupted register file.
type Frame struct {
	Vector Vector
	Pid    uint32
	Addr   uint32
	Ctx    machine.Context
}

// Handler services one interrupt frame.
type Handler func(*Frame)

// Table maps vectors to handlers. Handlers are installed once during boot
// and never replaced, and dispatch refuses to nest.
type Table struct {
	handlers [NumVectors]Handler
	active   bool
}

// Install binds a handler to a vector. A vector accepts exactly one
// handler for the lifetime of the table.
func (t *Table) Install(v Vector, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	if t.handlers[v] != nil {
		return ErrVectorInUse
	}
	t.handlers[v] = h
	return nil
}

// Installed reports whether a handler is bound to v.
func (t *Table) Installed(v Vector) bool { return t.handlers[v] != nil }

// Dispatch runs the handler for f.Vector. While the handler runs further
// dispatch is refused; callers latch follow-up interrupts in a Pending set
// and deliver them at the next instruction boundary.
func (t *Table) Dispatch(f *Frame) error {
	if t.active {
		return ErrReentrant
	}
	h := t.handlers[f.Vector]
	if h == nil {
		return ErrNoHandler
	}
	t.active = true
	h(f)
	t.active = false
	return nil
}

// Pending latches raised vectors until they are taken. Raising an already
// pending vector coalesces; lower vectors are taken first.
type Pending struct {
	bitsets [NumVectors / 64]uint64
}

// Raise marks v pending.
func (p *Pending) Raise(v Vector) {
	p.bitsets[v/64] |= 1 << (v % 64)
}

// Has reports whether v is pending.
func (p *Pending) Has(v Vector) bool {
	return p.bitsets[v/64]&(1<<(v%64)) != 0
}

// Empty reports whether nothing is pending.
func (p *Pending) Empty() bool {
	for _, w := range p.bitsets {
		if w != 0 {
			return false
		}
	}
	return true
}

// Take clears and returns the lowest pending vector.
func (p *Pending) Take() (Vector, bool) {
	for wi, w := range p.bitsets {
		if w == 0 {
			continue
		}
		bit := bits.TrailingZeros64(w)
		p.bitsets[wi] &^= 1 << bit
		return Vector(wi*64 + bit), true
	}
	return 0, false
}
