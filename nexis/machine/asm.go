package machine

import "fmt"

// Builder assembles a program image: instructions, labels, and inline data.
// Label references are patched at Assemble time. The first error sticks and
// is reported by Assemble, which keeps call sites free of error plumbing.
type Builder struct {
	code   []byte
	labels map[string]uint32
	fixups []fixup
	err    error
}

type fixup struct {
	off   uint32
	label string
}

func NewBuilder() *Builder {
	return &Builder{labels: make(map[string]uint32)}
}

// Pos returns the current offset in the image.
func (b *Builder) Pos() uint32 { return uint32(len(b.code)) }

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("asm: "+format, args...)
	}
}

func (b *Builder) emit(ins Instr) {
	enc := ins.Encode()
	b.code = append(b.code, enc[:]...)
}

// emitRef emits an instruction whose Imm is the address of label.
func (b *Builder) emitRef(ins Instr, label string) {
	b.fixups = append(b.fixups, fixup{off: b.Pos(), label: label})
	b.emit(ins)
}

// Label defines name at the current offset.
func (b *Builder) Label(name string) {
	if name == "" {
		b.fail("empty label")
		return
	}
	if _, ok := b.labels[name]; ok {
		b.fail("duplicate label %q", name)
		return
	}
	b.labels[name] = b.Pos()
}

// Align8 pads with zero bytes to the next instruction boundary. Required
// before code that follows an odd-sized data blob.
func (b *Builder) Align8() {
	for b.Pos()%InstrBytes != 0 {
		b.code = append(b.code, 0)
	}
}

// Data emits raw bytes at the current offset.
func (b *Builder) Data(p []byte) {
	b.code = append(b.code, p...)
}

func (b *Builder) Nop()                  { b.emit(Instr{Op: OpNop}) }
func (b *Builder) Movi(a Reg, v uint32)  { b.emit(Instr{Op: OpMovi, A: a, Imm: v}) }
func (b *Builder) Mov(a, src Reg)        { b.emit(Instr{Op: OpMov, A: a, B: src}) }
func (b *Builder) Add(a, x, y Reg)       { b.emit(Instr{Op: OpAdd, A: a, B: x, C: y}) }
func (b *Builder) Addi(a, x Reg, v uint32) {
	b.emit(Instr{Op: OpAddi, A: a, B: x, Imm: v})
}
func (b *Builder) Sub(a, x, y Reg) { b.emit(Instr{Op: OpSub, A: a, B: x, C: y}) }
func (b *Builder) Div(a, x, y Reg) { b.emit(Instr{Op: OpDiv, A: a, B: x, C: y}) }
func (b *Builder) Load(a, base Reg, off uint32) {
	b.emit(Instr{Op: OpLoad, A: a, B: base, Imm: off})
}
func (b *Builder) Store(src, base Reg, off uint32) {
	b.emit(Instr{Op: OpStore, A: src, B: base, Imm: off})
}
func (b *Builder) LoadB(a, base Reg, off uint32) {
	b.emit(Instr{Op: OpLoadB, A: a, B: base, Imm: off})
}
func (b *Builder) StoreB(src, base Reg, off uint32) {
	b.emit(Instr{Op: OpStoreB, A: src, B: base, Imm: off})
}
func (b *Builder) Trap() { b.emit(Instr{Op: OpTrap}) }

// MoviLabel loads the address of label into a register.
func (b *Builder) MoviLabel(a Reg, label string) {
	b.emitRef(Instr{Op: OpMovi, A: a}, label)
}

func (b *Builder) Jmp(label string)        { b.emitRef(Instr{Op: OpJmp}, label) }
func (b *Builder) Jnz(a Reg, label string) { b.emitRef(Instr{Op: OpJnz, A: a}, label) }
func (b *Builder) Jz(a Reg, label string)  { b.emitRef(Instr{Op: OpJz, A: a}, label) }

// Assemble resolves all label references and returns the image bytes.
func (b *Builder) Assemble() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, fx := range b.fixups {
		addr, ok := b.labels[fx.label]
		if !ok {
			return nil, fmt.Errorf("asm: undefined label %q", fx.label)
		}
		ins, ok := DecodeInstr(b.code[fx.off : fx.off+InstrBytes])
		if !ok {
			return nil, fmt.Errorf("asm: fixup at %#x over a non-instruction", fx.off)
		}
		ins.Imm = addr
		enc := ins.Encode()
		copy(b.code[fx.off:], enc[:])
	}
	out := make([]byte, len(b.code))
	copy(out, b.code)
	return out, nil
}
