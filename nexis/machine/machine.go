// Package machine emulates the processor the kernel runs tasks on: a small
// 32-bit register machine over a flat physical memory.
//
// Tasks execute inside a base/limit window. PC, SP, and every load/store
// address are window-relative, so a program image is position independent
// and any access outside the window raises a trap instead of touching
// another owner's memory.
package machine

import (
	"encoding/binary"
	"fmt"
)

// Context is the complete resumption state of a task. Saving and restoring
// it through Machine.Context/SetContext is the context-switch boundary.
type Context struct {
	R     [NumRegs]uint32
	PC    uint32
	SP    uint32
	Base  uint32
	Limit uint32
}

// TrapKind classifies why Step stopped.
type TrapKind uint8

const (
	TrapNone TrapKind = iota
	TrapSyscall
	TrapDivideZero
	TrapBadOpcode
	TrapMemFault
)

func (k TrapKind) String() string {
	switch k {
	case TrapNone:
		return "none"
	case TrapSyscall:
		return "syscall"
	case TrapDivideZero:
		return "divide_zero"
	case TrapBadOpcode:
		return "bad_opcode"
	case TrapMemFault:
		return "mem_fault"
	default:
		return "unknown"
	}
}

// Trap reports the outcome of one Step. Addr carries the window-relative
// faulting address for memory faults and the PC of the offending
// instruction otherwise.
type Trap struct {
	Kind TrapKind
	Addr uint32
}

// RegionKind classifies a boot memory-map region.
type RegionKind uint8

const (
	RegionReserved RegionKind = iota
	RegionUsable
)

func (k RegionKind) String() string {
	switch k {
	case RegionReserved:
		return "reserved"
	case RegionUsable:
		return "usable"
	default:
		return "unknown"
	}
}

// Region is one boot memory-map entry.
type Region struct {
	Base uint32
	Size uint32
	Kind RegionKind
}

// Memory is the flat physical memory of the machine.
type Memory struct {
	buf []byte
}

// NewMemory allocates size bytes of physical memory.
func NewMemory(size uint32) *Memory {
	return &Memory{buf: make([]byte, size)}
}

func (m *Memory) Size() uint32 { return uint32(len(m.buf)) }

// Bytes exposes the raw backing store. The kernel uses it for window copies;
// guest code never sees it directly.
func (m *Memory) Bytes() []byte { return m.buf }

// Write copies p into physical memory at off. Reports whether the write
// fits; nothing is written on a short fit.
func (m *Memory) Write(off uint32, p []byte) bool {
	if uint64(off)+uint64(len(p)) > uint64(len(m.buf)) {
		return false
	}
	copy(m.buf[off:], p)
	return true
}

// Read copies size bytes of physical memory at off into a fresh slice.
func (m *Memory) Read(off, size uint32) ([]byte, bool) {
	if uint64(off)+uint64(size) > uint64(len(m.buf)) {
		return nil, false
	}
	out := make([]byte, size)
	copy(out, m.buf[off:off+size])
	return out, true
}

// Map describes physical memory as a boot memory map: a reserved low region
// of kernelReserve bytes followed by one usable region.
func (m *Memory) Map(kernelReserve uint32) []Region {
	size := m.Size()
	if kernelReserve >= size {
		return []Region{{Base: 0, Size: size, Kind: RegionReserved}}
	}
	return []Region{
		{Base: 0, Size: kernelReserve, Kind: RegionReserved},
		{Base: kernelReserve, Size: size - kernelReserve, Kind: RegionUsable},
	}
}

// Machine couples a register file to physical memory and executes one
// instruction at a time.
type Machine struct {
	mem *Memory
	ctx Context
}

func New(mem *Memory) *Machine {
	return &Machine{mem: mem}
}

func (m *Machine) Memory() *Memory { return m.mem }

// Context returns a copy of the current register file.
func (m *Machine) Context() Context { return m.ctx }

// SetContext replaces the current register file.
func (m *Machine) SetContext(ctx Context) { m.ctx = ctx }

// memFault reports an out-of-window access.
func memFault(addr uint32) Trap { return Trap{Kind: TrapMemFault, Addr: addr} }

// translate checks [addr, addr+size) against the window and returns the
// physical offset.
func (m *Machine) translate(addr, size uint32) (uint32, bool) {
	ctx := &m.ctx
	if size == 0 {
		return 0, false
	}
	if addr > ctx.Limit || ctx.Limit-addr < size {
		return 0, false
	}
	phys := ctx.Base + addr
	if uint64(ctx.Base)+uint64(addr)+uint64(size) > uint64(m.mem.Size()) {
		return 0, false
	}
	return phys, true
}

// ReadWindow copies size bytes at the window-relative address into a fresh
// slice. Used by syscall handlers to pull buffers out of a task.
func (m *Machine) ReadWindow(addr, size uint32) ([]byte, bool) {
	if size == 0 {
		return nil, true
	}
	phys, ok := m.translate(addr, size)
	if !ok {
		return nil, false
	}
	out := make([]byte, size)
	copy(out, m.mem.buf[phys:phys+size])
	return out, true
}

// WriteWindow copies p into the window at the window-relative address.
func (m *Machine) WriteWindow(addr uint32, p []byte) bool {
	if len(p) == 0 {
		return true
	}
	phys, ok := m.translate(addr, uint32(len(p)))
	if !ok {
		return false
	}
	copy(m.mem.buf[phys:], p)
	return true
}

// Step executes one instruction of the current context.
//
// On TrapSyscall the PC has already advanced past the trap instruction, so
// writing R0 and resuming continues after the call. On faults the PC still
// addresses the offending instruction.
func (m *Machine) Step() Trap {
	ctx := &m.ctx
	pc := ctx.PC

	if pc%InstrBytes != 0 {
		return memFault(pc)
	}
	phys, ok := m.translate(pc, InstrBytes)
	if !ok {
		return memFault(pc)
	}
	ins, ok := DecodeInstr(m.mem.buf[phys : phys+InstrBytes])
	if !ok {
		return Trap{Kind: TrapBadOpcode, Addr: pc}
	}

	next := pc + InstrBytes

	switch ins.Op {
	case OpNop:
	case OpMovi:
		ctx.R[ins.A] = ins.Imm
	case OpMov:
		ctx.R[ins.A] = ctx.R[ins.B]
	case OpAdd:
		ctx.R[ins.A] = ctx.R[ins.B] + ctx.R[ins.C]
	case OpAddi:
		ctx.R[ins.A] = ctx.R[ins.B] + ins.Imm
	case OpSub:
		ctx.R[ins.A] = ctx.R[ins.B] - ctx.R[ins.C]
	case OpDiv:
		if ctx.R[ins.C] == 0 {
			return Trap{Kind: TrapDivideZero, Addr: pc}
		}
		ctx.R[ins.A] = ctx.R[ins.B] / ctx.R[ins.C]
	case OpLoad:
		addr := ctx.R[ins.B] + ins.Imm
		p, ok := m.translate(addr, 4)
		if !ok {
			return memFault(addr)
		}
		ctx.R[ins.A] = binary.LittleEndian.Uint32(m.mem.buf[p : p+4])
	case OpStore:
		addr := ctx.R[ins.B] + ins.Imm
		p, ok := m.translate(addr, 4)
		if !ok {
			return memFault(addr)
		}
		binary.LittleEndian.PutUint32(m.mem.buf[p:p+4], ctx.R[ins.A])
	case OpLoadB:
		addr := ctx.R[ins.B] + ins.Imm
		p, ok := m.translate(addr, 1)
		if !ok {
			return memFault(addr)
		}
		ctx.R[ins.A] = uint32(m.mem.buf[p])
	case OpStoreB:
		addr := ctx.R[ins.B] + ins.Imm
		p, ok := m.translate(addr, 1)
		if !ok {
			return memFault(addr)
		}
		m.mem.buf[p] = byte(ctx.R[ins.A])
	case OpJmp:
		next = ins.Imm
	case OpJnz:
		if ctx.R[ins.A] != 0 {
			next = ins.Imm
		}
	case OpJz:
		if ctx.R[ins.A] == 0 {
			next = ins.Imm
		}
	case OpTrap:
		ctx.PC = next
		return Trap{Kind: TrapSyscall, Addr: pc}
	default:
		return Trap{Kind: TrapBadOpcode, Addr: pc}
	}

	ctx.PC = next
	return Trap{Kind: TrapNone}
}

func (ctx Context) String() string {
	return fmt.Sprintf("pc=%#x sp=%#x base=%#x limit=%#x r=%v",
		ctx.PC, ctx.SP, ctx.Base, ctx.Limit, ctx.R)
}
