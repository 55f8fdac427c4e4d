package kernel

import (
	"ironveil/hal"
	"ironveil/nexis/irq"
	"ironveil/nexis/kbd"
	"ironveil/nexis/machine"
	"ironveil/nexis/sched"
)

// RaiseTimer latches a timer interrupt for the next dispatch point.
func (k *Kernel) RaiseTimer() {
	k.pending.Raise(irq.VecTimer)
}

// RaiseKey decodes a key event into the keystroke queue and latches a
// keyboard interrupt. A full queue drops the new keystroke.
func (k *Kernel) RaiseKey(ev hal.KeyEvent) {
	key, ok := kbd.Decode(ev)
	if !ok {
		return
	}
	if !k.keyq.TryPush(key) {
		k.log.Debugf("kbd: queue full, dropped %#x", uint32(key))
		return
	}
	k.pending.Raise(irq.VecKeyboard)
}

// Step dispatches pending interrupts and runs up to budget instructions
// of the current task, switching tasks as traps and the quantum demand.
// It reports whether the kernel wants to keep running; on false the host
// checks Fault and RebootRequested to see why.
func (k *Kernel) Step(budget int) bool {
	for i := 0; i < budget; i++ {
		if !k.Running() {
			return false
		}
		if !k.pending.Empty() {
			k.drainPending()
			continue
		}
		if k.sched.CurrentPid() == 0 {
			if !k.dispatchNext() {
				return true
			}
		}

		tr := k.mach.Step()
		switch tr.Kind {
		case machine.TrapNone:
		case machine.TrapSyscall:
			k.dispatchVector(irq.VecSyscall, 0)
		default:
			k.dispatchVector(faultVector(tr.Kind), tr.Addr)
		}
	}
	return k.Running()
}

func (k *Kernel) drainPending() {
	for k.fault == nil {
		v, ok := k.pending.Take()
		if !ok {
			return
		}
		k.dispatchVector(v, 0)
	}
}

// dispatchVector routes one interrupt through the vector table. Faults
// that cannot be dispatched stop the kernel; device and software vectors
// only log.
func (k *Kernel) dispatchVector(v irq.Vector, addr uint32) {
	f := &irq.Frame{
		Vector: v,
		Pid:    uint32(k.sched.CurrentPid()),
		Addr:   addr,
		Ctx:    k.mach.Context(),
	}
	if err := k.vectors.Dispatch(f); err != nil {
		if v.IsFault() {
			k.fatalf("%s dispatch failed: %v (pc %#x addr %#x)", v, err, f.Ctx.PC, addr)
			return
		}
		k.log.Warnf("irq %s dropped: %v", v, err)
	}
}

// saveCurrent writes the machine context back into the running task.
func (k *Kernel) saveCurrent() {
	if t := k.sched.Current(); t != nil {
		t.Ctx = k.mach.Context()
	}
}

// dispatchNext loads the next ready task into the machine.
func (k *Kernel) dispatchNext() bool {
	pid, ok := k.sched.Next()
	if !ok {
		return false
	}
	k.mach.SetContext(k.sched.Get(pid).Ctx)
	return true
}

func (k *Kernel) onTimer(f *irq.Frame) {
	k.ticks++
	k.sched.WakeSleepers(k.ticks)
	if k.sched.TimerTick() {
		k.saveCurrent()
		k.sched.YieldCurrent()
	}
	if k.svc != nil {
		k.svc.OnTick(k, k.ticks)
	}
}

func (k *Kernel) onKeyboard(f *irq.Frame) {
	for k.keyq.Len() > 0 {
		if pid, ok := k.sched.FirstKeyWaiter(); ok {
			key, _ := k.keyq.TryPop()
			k.deliverKey(pid, key)
			continue
		}
		if k.svc != nil && k.svc.WantsKeys(k) {
			key, _ := k.keyq.TryPop()
			k.svc.OnKey(k, key)
			continue
		}
		// Keys stay queued for the next read_key caller.
		return
	}
}

// deliverKey completes a read_key wait: the keystroke becomes the saved
// R0, then the task rejoins the ready queue.
func (k *Kernel) deliverKey(pid sched.Pid, key kbd.Key) {
	t := k.sched.Get(pid)
	if t == nil {
		return
	}
	t.Ctx.R[0] = uint32(key)
	k.sched.Unblock(pid)
}

func faultVector(kind machine.TrapKind) irq.Vector {
	switch kind {
	case machine.TrapDivideZero:
		return irq.VecDivide
	case machine.TrapBadOpcode:
		return irq.VecInvalidOpcode
	default:
		return irq.VecPageFault
	}
}
