// Package sys defines the syscall ABI and the dispatch table.
//
// A task requests a syscall by loading the number into R0 and up to three
// arguments into R1..R3 before the trap instruction. The result lands in
// R0. Numbers are a frozen ABI; userland images are assembled against them.
package sys

import "errors"

// Num is a syscall number.
type Num uint32

const (
	NumWrite     Num = 0
	NumExit      Num = 1
	NumListFiles Num = 2
	NumReadFile  Num = 3
	NumFileSize  Num = 4
	NumYield     Num = 5
	NumReadKey   Num = 6
	NumSleep     Num = 7
	NumGetpid    Num = 8
	NumSpawn     Num = 9
	NumRandom    Num = 10

	// NumSyscalls bounds the dispatch table.
	NumSyscalls = 11
)

func (n Num) Valid() bool { return n < NumSyscalls }

func (n Num) String() string {
	switch n {
	case NumWrite:
		return "write"
	case NumExit:
		return "exit"
	case NumListFiles:
		return "list_files"
	case NumReadFile:
		return "read_file"
	case NumFileSize:
		return "file_size"
	case NumYield:
		return "yield"
	case NumReadKey:
		return "read_key"
	case NumSleep:
		return "sleep"
	case NumGetpid:
		return "getpid"
	case NumSpawn:
		return "spawn"
	case NumRandom:
		return "random"
	default:
		return "invalid"
	}
}

// ParseNum maps a syscall name back to its number.
func ParseNum(s string) (Num, bool) {
	for n := Num(0); n < NumSyscalls; n++ {
		if n.String() == s {
			return n, true
		}
	}
	return 0, false
}

// Error results occupy the top of the value range so they cannot collide
// with byte counts, sizes, or pids.
const (
	RetInvalidSyscall = ^uint32(0)
	RetNotFound       = ^uint32(0) - 1
	RetBadAddress     = ^uint32(0) - 2
	RetNoMemory       = ^uint32(0) - 3
)

// IsError reports whether a result value is one of the error returns.
func IsError(v uint32) bool { return v >= RetNoMemory }

var (
	ErrSyscallBound   = errors.New("sys: syscall already bound")
	ErrInvalidBinding = errors.New("sys: invalid syscall binding")
)

// Args is the decoded request of one trap.
type Args struct {
	Num        Num
	A1, A2, A3 uint32
}

// Action tells the kernel how to continue the calling task.
type Action uint8

const (
	// ActionResume writes Value to R0 and keeps the task running.
	ActionResume Action = iota
	// ActionYield writes Value to R0 and parks the task at the back of
	// the ready queue.
	ActionYield
	// ActionBlock parks the task; its R0 is written at wake time.
	ActionBlock
	// ActionExit terminates the task with Value as exit code.
	ActionExit
)

func (a Action) String() string {
	switch a {
	case ActionResume:
		return "resume"
	case ActionYield:
		return "yield"
	case ActionBlock:
		return "block"
	case ActionExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Result is a handler's verdict.
type Result struct {
	Action Action
	Value  uint32
}

func Resume(v uint32) Result  { return Result{Action: ActionResume, Value: v} }
func Yield() Result           { return Result{Action: ActionYield} }
func Block() Result           { return Result{Action: ActionBlock} }
func Exit(code uint32) Result { return Result{Action: ActionExit, Value: code} }

// Handler services one syscall.
type Handler func(Args) Result

// Table binds numbers to handlers. It is populated once at boot and frozen;
// dispatching an unknown or unbound number resumes the caller with
// RetInvalidSyscall instead of faulting.
type Table struct {
	handlers [NumSyscalls]Handler
}

// Register binds h to n. Each number accepts exactly one handler.
func (t *Table) Register(n Num, h Handler) error {
	if !n.Valid() || h == nil {
		return ErrInvalidBinding
	}
	if t.handlers[n] != nil {
		return ErrSyscallBound
	}
	t.handlers[n] = h
	return nil
}

// Dispatch routes args to the bound handler.
func (t *Table) Dispatch(args Args) Result {
	if !args.Num.Valid() {
		return Resume(RetInvalidSyscall)
	}
	h := t.handlers[args.Num]
	if h == nil {
		return Resume(RetInvalidSyscall)
	}
	return h(args)
}
