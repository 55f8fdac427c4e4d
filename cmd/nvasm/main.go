// Command nvasm assembles a line-oriented assembly source into an NVEX
// program image, and disassembles images back into a listing.
//
// Source syntax, one statement per line, ';' starts a comment:
//
//	start:                  ; label, may share a line with a statement
//	        movi r1, msg    ; label operand loads its address
//	        movi r0, 0
//	        trap
//	        jmp start
//	msg:    .ascii "hi\n"
//	        .align
//
// Registers are r0..r7. Immediates accept the prefixes strconv does
// (0x, 0o, 0b) and may be negative. Jump targets must be labels.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ironveil/internal/buildinfo"
	"ironveil/nexis/loader"
	"ironveil/nexis/machine"
)

func main() {
	var (
		inPath  = flag.String("in", "", "Input file (.asm for asm, .bin for dis).")
		outPath = flag.String("out", "", "Output file (asm mode; dis prints to stdout).")
		mode    = flag.String("mode", "asm", "asm|dis.")
		entry   = flag.String("entry", "", "Entry label (default: offset 0).")
		stack   = flag.Uint("stack", 0, "Stack reserve in bytes (0 = default).")
		abi     = flag.String("abi", buildinfo.ABIVersion, "ABI version to stamp.")
	)
	flag.Parse()

	if *inPath == "" {
		fatalf("usage: nvasm -in prog.asm -out prog.bin [-entry start] [-stack 4096]\n       nvasm -mode dis -in prog.bin")
	}

	switch strings.ToLower(*mode) {
	case "asm":
		if *outPath == "" {
			fatalf("asm mode needs -out")
		}
		if err := assemble(*inPath, *outPath, *entry, uint32(*stack), *abi); err != nil {
			fatalf("asm: %v", err)
		}
	case "dis":
		if err := disassemble(*inPath, os.Stdout); err != nil {
			fatalf("dis: %v", err)
		}
	default:
		fatalf("unknown mode: %s", *mode)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

func assemble(inPath, outPath, entryLabel string, stack uint32, abi string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	b := machine.NewBuilder()
	labels := make(map[string]uint32)

	sc := bufio.NewScanner(in)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := statement(b, labels, sc.Text()); err != nil {
			return fmt.Errorf("%s:%d: %v", inPath, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	code, err := b.Assemble()
	if err != nil {
		return err
	}
	if len(code) == 0 {
		return fmt.Errorf("empty program")
	}

	var entryOff uint32
	if entryLabel != "" {
		off, ok := labels[entryLabel]
		if !ok {
			return fmt.Errorf("entry label %q not defined", entryLabel)
		}
		entryOff = off
	}

	img := loader.Pack(abi, entryOff, stack, code)
	if err := os.WriteFile(outPath, img, 0o644); err != nil {
		return err
	}
	fmt.Printf("%s: %d instructions, %d bytes code, %d bytes image\n",
		outPath, len(code)/machine.InstrBytes, len(code), len(img))
	return nil
}

// statement assembles one source line: optional label, then an optional
// directive or instruction.
func statement(b *machine.Builder, labels map[string]uint32, line string) error {
	line = stripComment(line)
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if i := strings.IndexByte(line, ':'); i >= 0 && isIdent(line[:i]) {
		name := line[:i]
		if _, dup := labels[name]; dup {
			return fmt.Errorf("duplicate label %q", name)
		}
		labels[name] = b.Pos()
		b.Label(name)
		line = strings.TrimSpace(line[i+1:])
		if line == "" {
			return nil
		}
	}

	if strings.HasPrefix(line, ".") {
		return directive(b, line)
	}
	return instruction(b, line)
}

func stripComment(line string) string {
	inStr := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inStr = !inStr
		case '\\':
			if inStr {
				i++
			}
		case ';':
			if !inStr {
				return line[:i]
			}
		}
	}
	return line
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func directive(b *machine.Builder, line string) error {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case ".align":
		if rest != "" {
			return fmt.Errorf(".align takes no operand")
		}
		b.Align8()
		return nil
	case ".ascii":
		s, err := unquote(rest)
		if err != nil {
			return err
		}
		b.Data([]byte(s))
		return nil
	case ".byte":
		for _, f := range splitOperands(rest) {
			v, err := parseImm(f)
			if err != nil {
				return err
			}
			if v > 0xFF {
				return fmt.Errorf(".byte value %s out of range", f)
			}
			b.Data([]byte{byte(v)})
		}
		return nil
	case ".word":
		for _, f := range splitOperands(rest) {
			v, err := parseImm(f)
			if err != nil {
				return err
			}
			b.Data([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
		}
		return nil
	default:
		return fmt.Errorf("unknown directive %s", name)
	}
}

func instruction(b *machine.Builder, line string) error {
	mn, rest, _ := strings.Cut(line, " ")
	mn = strings.ToLower(mn)
	op, ok := machine.ParseOp(mn)
	if !ok {
		return fmt.Errorf("unknown mnemonic %q", mn)
	}
	ops := splitOperands(strings.TrimSpace(rest))

	switch op {
	case machine.OpNop, machine.OpTrap:
		if len(ops) != 0 {
			return fmt.Errorf("%s takes no operands", mn)
		}
		if op == machine.OpNop {
			b.Nop()
		} else {
			b.Trap()
		}
		return nil

	case machine.OpMovi:
		if len(ops) != 2 {
			return operandCount(mn, 2, len(ops))
		}
		a, err := parseReg(ops[0])
		if err != nil {
			return err
		}
		if isIdent(ops[1]) && !isRegName(ops[1]) {
			b.MoviLabel(a, ops[1])
			return nil
		}
		v, err := parseImm(ops[1])
		if err != nil {
			return err
		}
		b.Movi(a, v)
		return nil

	case machine.OpMov:
		if len(ops) != 2 {
			return operandCount(mn, 2, len(ops))
		}
		a, err := parseReg(ops[0])
		if err != nil {
			return err
		}
		src, err := parseReg(ops[1])
		if err != nil {
			return err
		}
		b.Mov(a, src)
		return nil

	case machine.OpAdd, machine.OpSub, machine.OpDiv:
		if len(ops) != 3 {
			return operandCount(mn, 3, len(ops))
		}
		var r [3]machine.Reg
		for i, o := range ops {
			reg, err := parseReg(o)
			if err != nil {
				return err
			}
			r[i] = reg
		}
		switch op {
		case machine.OpAdd:
			b.Add(r[0], r[1], r[2])
		case machine.OpSub:
			b.Sub(r[0], r[1], r[2])
		default:
			b.Div(r[0], r[1], r[2])
		}
		return nil

	case machine.OpAddi:
		if len(ops) != 3 {
			return operandCount(mn, 3, len(ops))
		}
		a, err := parseReg(ops[0])
		if err != nil {
			return err
		}
		x, err := parseReg(ops[1])
		if err != nil {
			return err
		}
		v, err := parseImm(ops[2])
		if err != nil {
			return err
		}
		b.Addi(a, x, v)
		return nil

	case machine.OpLoad, machine.OpLoadB:
		if len(ops) != 2 {
			return operandCount(mn, 2, len(ops))
		}
		a, err := parseReg(ops[0])
		if err != nil {
			return err
		}
		base, off, err := parseMem(ops[1])
		if err != nil {
			return err
		}
		if op == machine.OpLoad {
			b.Load(a, base, off)
		} else {
			b.LoadB(a, base, off)
		}
		return nil

	case machine.OpStore, machine.OpStoreB:
		if len(ops) != 2 {
			return operandCount(mn, 2, len(ops))
		}
		base, off, err := parseMem(ops[0])
		if err != nil {
			return err
		}
		src, err := parseReg(ops[1])
		if err != nil {
			return err
		}
		if op == machine.OpStore {
			b.Store(src, base, off)
		} else {
			b.StoreB(src, base, off)
		}
		return nil

	case machine.OpJmp:
		if len(ops) != 1 {
			return operandCount(mn, 1, len(ops))
		}
		if !isIdent(ops[0]) {
			return fmt.Errorf("jump target must be a label, got %q", ops[0])
		}
		b.Jmp(ops[0])
		return nil

	case machine.OpJnz, machine.OpJz:
		if len(ops) != 2 {
			return operandCount(mn, 2, len(ops))
		}
		a, err := parseReg(ops[0])
		if err != nil {
			return err
		}
		if !isIdent(ops[1]) {
			return fmt.Errorf("jump target must be a label, got %q", ops[1])
		}
		if op == machine.OpJnz {
			b.Jnz(a, ops[1])
		} else {
			b.Jz(a, ops[1])
		}
		return nil
	}
	return fmt.Errorf("unknown mnemonic %q", mn)
}

func operandCount(mn string, want, got int) error {
	return fmt.Errorf("%s wants %d operands, got %d", mn, want, got)
}

func splitOperands(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func isRegName(s string) bool {
	_, err := parseReg(s)
	return err == nil
}

func parseReg(s string) (machine.Reg, error) {
	t := strings.ToLower(s)
	if len(t) != 2 || t[0] != 'r' || t[1] < '0' || t[1] > '7' {
		return 0, fmt.Errorf("bad register %q", s)
	}
	return machine.Reg(t[1] - '0'), nil
}

func parseImm(s string) (uint32, error) {
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		if v < -(1<<31) || v > (1<<32)-1 {
			return 0, fmt.Errorf("immediate %s out of range", s)
		}
		return uint32(v), nil
	}
	return 0, fmt.Errorf("bad immediate %q", s)
}

// parseMem parses a [reg] or [reg+off] operand.
func parseMem(s string) (machine.Reg, uint32, error) {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return 0, 0, fmt.Errorf("bad memory operand %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	regPart, offPart, hasOff := strings.Cut(inner, "+")
	base, err := parseReg(strings.TrimSpace(regPart))
	if err != nil {
		return 0, 0, err
	}
	if !hasOff {
		return base, 0, nil
	}
	off, err := parseImm(strings.TrimSpace(offPart))
	if err != nil {
		return 0, 0, err
	}
	return base, off, nil
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("bad string %s", s)
	}
	body := s[1 : len(s)-1]
	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("trailing escape in %s", s)
		}
		switch body[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case '0':
			out.WriteByte(0)
		case '\\', '"':
			out.WriteByte(body[i])
		default:
			return "", fmt.Errorf("unknown escape \\%c", body[i])
		}
	}
	return out.String(), nil
}

func disassemble(inPath string, w io.Writer) error {
	img, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	p, err := loader.Parse(img)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "abi %s  entry %#x  stack %d  code %d bytes\n",
		p.ABI, p.Entry, p.Stack, len(p.Code))
	for off := 0; off < len(p.Code); off += machine.InstrBytes {
		end := off + machine.InstrBytes
		if end > len(p.Code) {
			end = len(p.Code)
		}
		chunk := p.Code[off:end]
		if ins, ok := machine.DecodeInstr(chunk); ok && end-off == machine.InstrBytes {
			fmt.Fprintf(w, "%#06x  %s\n", off, ins)
		} else {
			fmt.Fprintf(w, "%#06x  .byte % x\n", off, chunk)
		}
	}
	return nil
}
