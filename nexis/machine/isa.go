package machine

import (
	"encoding/binary"
	"fmt"
)

// Op is an instruction opcode.
type Op uint8

const (
	OpNop Op = iota
	OpMovi
	OpMov
	OpAdd
	OpAddi
	OpSub
	OpDiv
	OpLoad
	OpStore
	OpLoadB
	OpStoreB
	OpJmp
	OpJnz
	OpJz
	OpTrap

	opCount
)

func (o Op) Valid() bool { return o < opCount }

func (o Op) String() string {
	switch o {
	case OpNop:
		return "nop"
	case OpMovi:
		return "movi"
	case OpMov:
		return "mov"
	case OpAdd:
		return "add"
	case OpAddi:
		return "addi"
	case OpSub:
		return "sub"
	case OpDiv:
		return "div"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpLoadB:
		return "loadb"
	case OpStoreB:
		return "storeb"
	case OpJmp:
		return "jmp"
	case OpJnz:
		return "jnz"
	case OpJz:
		return "jz"
	case OpTrap:
		return "trap"
	default:
		return "unknown"
	}
}

// ParseOp maps a mnemonic back to its opcode.
func ParseOp(s string) (Op, bool) {
	for o := Op(0); o < opCount; o++ {
		if o.String() == s {
			return o, true
		}
	}
	return 0, false
}

// Reg identifies a general-purpose register.
type Reg uint8

const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7

	// NumRegs is the size of the general register file.
	NumRegs = 8
)

func (r Reg) Valid() bool { return r < NumRegs }

func (r Reg) String() string {
	if !r.Valid() {
		return fmt.Sprintf("r?%d", uint8(r))
	}
	return fmt.Sprintf("r%d", uint8(r))
}

// InstrBytes is the fixed encoded instruction size.
const InstrBytes = 8

// Instr is one decoded instruction.
//
// Encoding (little-endian): op u8, a u8, b u8, c u8, imm u32. Unused operand
// slots encode as zero.
type Instr struct {
	Op      Op
	A, B, C Reg
	Imm     uint32
}

// Encode returns the wire form of an instruction.
func (ins Instr) Encode() [InstrBytes]byte {
	var buf [InstrBytes]byte
	buf[0] = uint8(ins.Op)
	buf[1] = uint8(ins.A)
	buf[2] = uint8(ins.B)
	buf[3] = uint8(ins.C)
	binary.LittleEndian.PutUint32(buf[4:8], ins.Imm)
	return buf
}

// DecodeInstr decodes one instruction from b.
func DecodeInstr(b []byte) (Instr, bool) {
	if len(b) < InstrBytes {
		return Instr{}, false
	}
	ins := Instr{
		Op:  Op(b[0]),
		A:   Reg(b[1]),
		B:   Reg(b[2]),
		C:   Reg(b[3]),
		Imm: binary.LittleEndian.Uint32(b[4:8]),
	}
	if !ins.Op.Valid() || !ins.A.Valid() || !ins.B.Valid() || !ins.C.Valid() {
		return Instr{}, false
	}
	return ins, true
}

func (ins Instr) String() string {
	switch ins.Op {
	case OpNop, OpTrap:
		return ins.Op.String()
	case OpMovi:
		return fmt.Sprintf("%s %s, %d", ins.Op, ins.A, ins.Imm)
	case OpMov:
		return fmt.Sprintf("%s %s, %s", ins.Op, ins.A, ins.B)
	case OpAdd, OpSub, OpDiv:
		return fmt.Sprintf("%s %s, %s, %s", ins.Op, ins.A, ins.B, ins.C)
	case OpAddi:
		return fmt.Sprintf("%s %s, %s, %d", ins.Op, ins.A, ins.B, ins.Imm)
	case OpLoad, OpLoadB:
		return fmt.Sprintf("%s %s, [%s+%d]", ins.Op, ins.A, ins.B, ins.Imm)
	case OpStore, OpStoreB:
		return fmt.Sprintf("%s [%s+%d], %s", ins.Op, ins.B, ins.Imm, ins.A)
	case OpJmp:
		return fmt.Sprintf("%s %d", ins.Op, ins.Imm)
	case OpJnz, OpJz:
		return fmt.Sprintf("%s %s, %d", ins.Op, ins.A, ins.Imm)
	default:
		return fmt.Sprintf("op?%d", uint8(ins.Op))
	}
}
