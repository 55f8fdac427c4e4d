package sys

import (
	"errors"
	"testing"
)

func TestRegisterOnce(t *testing.T) {
	var tbl Table
	if err := tbl.Register(NumYield, func(Args) Result { return Resume(0) }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := tbl.Register(NumYield, func(Args) Result { return Resume(0) }); !errors.Is(err, ErrSyscallBound) {
		t.Fatalf("expected rebind rejected, got %v", err)
	}
	if err := tbl.Register(NumWrite, nil); !errors.Is(err, ErrInvalidBinding) {
		t.Fatalf("expected nil handler rejected, got %v", err)
	}
	if err := tbl.Register(Num(99), func(Args) Result { return Resume(0) }); !errors.Is(err, ErrInvalidBinding) {
		t.Fatalf("expected out-of-range number rejected, got %v", err)
	}
}

func TestDispatchRoutesArgs(t *testing.T) {
	var tbl Table
	var got Args
	tbl.Register(NumWrite, func(a Args) Result {
		got = a
		return Resume(a.A2)
	})
	res := tbl.Dispatch(Args{Num: NumWrite, A1: 0x100, A2: 13})
	if got.A1 != 0x100 || got.A2 != 13 {
		t.Fatalf("handler saw wrong args: %+v", got)
	}
	if res.Action != ActionResume || res.Value != 13 {
		t.Fatalf("expected resume with 13, got %s %d", res.Action, res.Value)
	}
}

func TestUnknownSyscallResumesWithError(t *testing.T) {
	var tbl Table
	tbl.Register(NumYield, func(Args) Result { return Resume(0) })

	res := tbl.Dispatch(Args{Num: Num(200)})
	if res.Action != ActionResume {
		t.Fatalf("expected caller to resume, got %s", res.Action)
	}
	if res.Value != RetInvalidSyscall {
		t.Fatalf("expected invalid syscall result, got %#x", res.Value)
	}

	// Valid number with nothing bound behaves the same.
	res = tbl.Dispatch(Args{Num: NumSpawn})
	if res.Action != ActionResume || res.Value != RetInvalidSyscall {
		t.Fatalf("expected invalid syscall result, got %s %#x", res.Action, res.Value)
	}
}

func TestResultConstructors(t *testing.T) {
	if r := Yield(); r.Action != ActionYield || r.Value != 0 {
		t.Fatalf("expected yield action, got %s %d", r.Action, r.Value)
	}
	if r := Block(); r.Action != ActionBlock {
		t.Fatalf("expected block action, got %s", r.Action)
	}
	if r := Exit(3); r.Action != ActionExit || r.Value != 3 {
		t.Fatalf("expected exit(3), got %s %d", r.Action, r.Value)
	}
}

func TestErrorRange(t *testing.T) {
	for _, v := range []uint32{RetInvalidSyscall, RetNotFound, RetBadAddress, RetNoMemory} {
		if !IsError(v) {
			t.Fatalf("expected %#x in error range", v)
		}
	}
	if IsError(0) || IsError(4096) {
		t.Fatal("expected ordinary results outside error range")
	}
}

func TestNumStringsParse(t *testing.T) {
	for n := Num(0); n < NumSyscalls; n++ {
		back, ok := ParseNum(n.String())
		if !ok || back != n {
			t.Fatalf("expected %s to parse back, got %d ok=%v", n, back, ok)
		}
	}
	if _, ok := ParseNum("reboot"); ok {
		t.Fatal("expected unknown name to fail")
	}
}
