package kernel

import (
	"fmt"

	"ironveil/nexis/irq"
	"ironveil/nexis/machine"
	"ironveil/nexis/sched"
)

// FaultInfo describes why the kernel stopped. It is produced at most
// once; everything after the first fatal condition is frozen.
type FaultInfo struct {
	Reason string
	Pid    sched.Pid
	Ctx    machine.Context
	Tick   uint64
}

func (f *FaultInfo) String() string {
	return fmt.Sprintf("tick %d, task %d: %s\n%s", f.Tick, f.Pid, f.Reason, f.Ctx)
}

// Fault returns the fatal fault, nil while the kernel is healthy.
func (k *Kernel) Fault() *FaultInfo { return k.fault }

// fatalf records the first fatal condition and stops the kernel.
func (k *Kernel) fatalf(format string, args ...any) {
	if k.fault != nil {
		return
	}
	k.fault = &FaultInfo{
		Reason: fmt.Sprintf(format, args...),
		Pid:    k.sched.CurrentPid(),
		Ctx:    k.mach.Context(),
		Tick:   k.ticks,
	}
	k.log.Errorf("fatal: %s", k.fault.Reason)
}

// onFault services the divide, invalid opcode, and page fault vectors.
// A fault inside a task terminates that task and reclaims its frames;
// the rest of the system keeps running. A fault with no task to blame
// is a kernel bug and stops everything.
func (k *Kernel) onFault(f *irq.Frame) {
	t := k.sched.Current()
	if t == nil {
		k.fatalf("%s with no current task (pc %#x addr %#x)", f.Vector, f.Ctx.PC, f.Addr)
		return
	}
	switch f.Vector {
	case irq.VecPageFault:
		k.log.Warnf("task %d (%s): %s at pc %#x, addr %#x", t.Pid, t.Name, f.Vector, f.Ctx.PC, f.Addr)
	default:
		k.log.Warnf("task %d (%s): %s at pc %#x", t.Pid, t.Name, f.Vector, f.Ctx.PC)
	}
	k.reclaim(t)
	k.sched.Terminate(t.Pid, faultCode)
}

const faultCode = ^uint32(0)
