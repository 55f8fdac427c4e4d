// Package userprog ships the canned userland programs that seed the
// filesystem at boot. Each is assembled with the machine builder and
// packed as an NVEX image against the current ABI version.
package userprog

import (
	"fmt"

	"ironveil/internal/buildinfo"
	"ironveil/nexis/loader"
	"ironveil/nexis/machine"
	"ironveil/nexis/sys"
)

// Program pairs a filesystem name with its NVEX image.
type Program struct {
	Name  string
	Image []byte
}

// All returns every canned program in seed order.
func All() []Program {
	return []Program{
		{Name: "init.bin", Image: Init()},
		{Name: "count.bin", Image: Count()},
		{Name: "keys.bin", Image: Keys()},
	}
}

// Image returns the canned program stored under name.
func Image(name string) ([]byte, bool) {
	for _, p := range All() {
		if p.Name == name {
			return p.Image, true
		}
	}
	return nil, false
}

const (
	bannerText = "ironveil init\nfiles:\n"
	readmeName = "readme.txt"

	iobufCap = 1024
)

// Init prints the banner, lists the filesystem, prints readme.txt when
// present, and exits.
func Init() []byte {
	b := machine.NewBuilder()

	b.Movi(machine.R0, uint32(sys.NumWrite))
	b.MoviLabel(machine.R1, "banner")
	b.Movi(machine.R2, uint32(len(bannerText)))
	b.Trap()

	b.Movi(machine.R0, uint32(sys.NumListFiles))
	b.MoviLabel(machine.R1, "iobuf")
	b.Movi(machine.R2, iobufCap)
	b.Trap()
	skipIfError(b, "nolist")
	b.Mov(machine.R2, machine.R0)
	b.Movi(machine.R0, uint32(sys.NumWrite))
	b.MoviLabel(machine.R1, "iobuf")
	b.Trap()
	b.Label("nolist")

	b.Movi(machine.R0, uint32(sys.NumReadFile))
	b.MoviLabel(machine.R1, "readme")
	b.Movi(machine.R2, uint32(len(readmeName)))
	b.MoviLabel(machine.R3, "iobuf")
	b.Trap()
	skipIfError(b, "noreadme")
	b.Mov(machine.R2, machine.R0)
	b.Movi(machine.R0, uint32(sys.NumWrite))
	b.MoviLabel(machine.R1, "iobuf")
	b.Trap()
	b.Label("noreadme")

	exitZero(b)

	b.Label("banner")
	b.Data([]byte(bannerText))
	b.Label("readme")
	b.Data([]byte(readmeName))
	b.Align8()
	b.Label("iobuf")
	b.Data(make([]byte, iobufCap))

	return pack(b)
}

// CountLimit is where the counter stops.
const CountLimit = 10

// Count prints 1..CountLimit, one per line, yielding and sleeping two
// ticks between prints, then exits.
func Count() []byte {
	b := machine.NewBuilder()

	b.Movi(machine.R7, 0)
	b.Label("loop")
	b.Addi(machine.R7, machine.R7, 1)

	// Render R7 as decimal right to left in front of the newline. The
	// machine has no multiply, so ten times the quotient is built from
	// adds to recover the remainder.
	b.Mov(machine.R4, machine.R7)
	b.MoviLabel(machine.R5, "numend")
	b.Label("digit")
	b.Movi(machine.R6, 10)
	b.Div(machine.R6, machine.R4, machine.R6)
	b.Add(machine.R3, machine.R6, machine.R6)
	b.Add(machine.R2, machine.R3, machine.R3)
	b.Add(machine.R2, machine.R2, machine.R2)
	b.Add(machine.R2, machine.R2, machine.R3)
	b.Sub(machine.R2, machine.R4, machine.R2)
	b.Addi(machine.R2, machine.R2, '0')
	b.Movi(machine.R1, 1)
	b.Sub(machine.R5, machine.R5, machine.R1)
	b.StoreB(machine.R2, machine.R5, 0)
	b.Mov(machine.R4, machine.R6)
	b.Jnz(machine.R4, "digit")

	b.Movi(machine.R0, uint32(sys.NumWrite))
	b.Mov(machine.R1, machine.R5)
	b.MoviLabel(machine.R2, "numterm")
	b.Sub(machine.R2, machine.R2, machine.R5)
	b.Trap()

	b.Movi(machine.R0, uint32(sys.NumYield))
	b.Trap()
	b.Movi(machine.R0, uint32(sys.NumSleep))
	b.Movi(machine.R1, 2)
	b.Trap()

	b.Movi(machine.R4, CountLimit)
	b.Sub(machine.R4, machine.R7, machine.R4)
	b.Jnz(machine.R4, "loop")

	exitZero(b)

	b.Data(make([]byte, 12))
	b.Label("numend")
	b.Data([]byte{'\n'})
	b.Label("numterm")

	return pack(b)
}

// Keys echoes keystrokes until Enter, then exits.
func Keys() []byte {
	b := machine.NewBuilder()

	b.Label("loop")
	b.Movi(machine.R0, uint32(sys.NumReadKey))
	b.Trap()

	b.Movi(machine.R4, '\n')
	b.Sub(machine.R4, machine.R0, machine.R4)
	b.Jz(machine.R4, "done")

	// Navigation keys live past the Unicode range; skip them.
	b.Movi(machine.R5, 0x110000)
	b.Div(machine.R5, machine.R0, machine.R5)
	b.Jnz(machine.R5, "loop")

	b.MoviLabel(machine.R1, "chbuf")
	b.StoreB(machine.R0, machine.R1, 0)
	b.Movi(machine.R0, uint32(sys.NumWrite))
	b.Movi(machine.R2, 1)
	b.Trap()
	b.Jmp("loop")

	b.Label("done")
	b.Movi(machine.R0, uint32(sys.NumWrite))
	b.MoviLabel(machine.R1, "nl")
	b.Movi(machine.R2, 1)
	b.Trap()
	exitZero(b)

	b.Label("chbuf")
	b.Data([]byte{0})
	b.Label("nl")
	b.Data([]byte{'\n'})

	return pack(b)
}

// skipIfError branches when R0 holds a syscall error result. Valid byte
// counts stay under 64 KiB while the error values sit at the top of the
// range, so the quotient is zero exactly for success.
func skipIfError(b *machine.Builder, label string) {
	b.Movi(machine.R4, 1<<16)
	b.Div(machine.R4, machine.R0, machine.R4)
	b.Jnz(machine.R4, label)
}

func exitZero(b *machine.Builder) {
	b.Movi(machine.R0, uint32(sys.NumExit))
	b.Movi(machine.R1, 0)
	b.Trap()
}

func pack(b *machine.Builder) []byte {
	code, err := b.Assemble()
	if err != nil {
		panic(fmt.Sprintf("userprog: %v", err))
	}
	return loader.Pack(buildinfo.ABIVersion, 0, 0, code)
}
