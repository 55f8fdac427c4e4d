package kernel

import (
	"errors"
	"strings"

	"ironveil/nexis/irq"
	"ironveil/nexis/mem/pmm"
	"ironveil/nexis/sched"
	"ironveil/nexis/sys"
	"ironveil/nexis/vfs"
)

func (k *Kernel) registerSyscalls() error {
	entries := []struct {
		n sys.Num
		h sys.Handler
	}{
		{sys.NumWrite, k.sysWrite},
		{sys.NumExit, k.sysExit},
		{sys.NumListFiles, k.sysListFiles},
		{sys.NumReadFile, k.sysReadFile},
		{sys.NumFileSize, k.sysFileSize},
		{sys.NumYield, k.sysYield},
		{sys.NumReadKey, k.sysReadKey},
		{sys.NumSleep, k.sysSleep},
		{sys.NumGetpid, k.sysGetpid},
		{sys.NumSpawn, k.sysSpawn},
		{sys.NumRandom, k.sysRandom},
	}
	for _, e := range entries {
		if err := k.syscalls.Register(e.n, e.h); err != nil {
			return err
		}
	}
	return nil
}

// onSyscall services the syscall vector. The machine has already moved
// PC past the trap, so a resumed task continues at the next instruction.
func (k *Kernel) onSyscall(f *irq.Frame) {
	ctx := k.mach.Context()
	args := sys.Args{
		Num: sys.Num(ctx.R[0]),
		A1:  ctx.R[1],
		A2:  ctx.R[2],
		A3:  ctx.R[3],
	}
	res := k.syscalls.Dispatch(args)
	switch res.Action {
	case sys.ActionResume:
		ctx.R[0] = res.Value
		k.mach.SetContext(ctx)
	case sys.ActionYield:
		ctx.R[0] = res.Value
		k.mach.SetContext(ctx)
		k.saveCurrent()
		k.sched.YieldCurrent()
	case sys.ActionBlock:
		ctx.R[0] = res.Value
		k.mach.SetContext(ctx)
		k.saveCurrent()
		switch args.Num {
		case sys.NumReadKey:
			k.sched.BlockCurrent(sched.BlockKey, 0)
		case sys.NumSleep:
			k.sched.BlockCurrent(sched.BlockSleep, k.ticks+uint64(args.A1))
		}
	case sys.ActionExit:
		k.exitCurrent(res.Value)
	}
}

func (k *Kernel) exitCurrent(code uint32) {
	t := k.sched.Current()
	if t == nil {
		return
	}
	k.log.Infof("task %d (%s) exited with code %d", t.Pid, t.Name, code)
	k.reclaim(t)
	k.sched.ExitCurrent(code)
}

// window reports whether [ptr, ptr+n) fits the calling task's window.
func (k *Kernel) window(ptr, n uint32) bool {
	limit := k.mach.Context().Limit
	return n <= limit && ptr <= limit-n
}

// readName fetches a file name argument out of the caller's window.
func (k *Kernel) readName(ptr, n uint32) (string, bool) {
	if n == 0 || n > vfs.MaxNameLen {
		return "", false
	}
	b, ok := k.mach.ReadWindow(ptr, n)
	if !ok {
		return "", false
	}
	return string(b), true
}

func (k *Kernel) sysWrite(a sys.Args) sys.Result {
	if a.A2 == 0 {
		return sys.Resume(0)
	}
	buf, ok := k.mach.ReadWindow(a.A1, a.A2)
	if !ok {
		return sys.Resume(sys.RetBadAddress)
	}
	k.cons.Write(buf)
	return sys.Resume(a.A2)
}

func (k *Kernel) sysExit(a sys.Args) sys.Result {
	return sys.Exit(a.A1)
}

func (k *Kernel) sysListFiles(a sys.Args) sys.Result {
	var sb strings.Builder
	for _, fi := range k.fs.List() {
		sb.WriteString(fi.Name)
		sb.WriteByte('\n')
	}
	listing := sb.String()
	if listing == "" {
		return sys.Resume(0)
	}
	if uint32(len(listing)) > a.A2 || !k.mach.WriteWindow(a.A1, []byte(listing)) {
		return sys.Resume(sys.RetBadAddress)
	}
	return sys.Resume(uint32(len(listing)))
}

func (k *Kernel) sysReadFile(a sys.Args) sys.Result {
	name, ok := k.readName(a.A1, a.A2)
	if !ok {
		return sys.Resume(sys.RetBadAddress)
	}
	data, err := k.fs.Read(name)
	if err != nil {
		return sys.Resume(sys.RetNotFound)
	}
	limit := k.mach.Context().Limit
	if a.A3 >= limit {
		return sys.Resume(sys.RetBadAddress)
	}
	if room := limit - a.A3; uint32(len(data)) > room {
		data = data[:room]
	}
	if len(data) == 0 {
		return sys.Resume(0)
	}
	if !k.mach.WriteWindow(a.A3, data) {
		return sys.Resume(sys.RetBadAddress)
	}
	return sys.Resume(uint32(len(data)))
}

func (k *Kernel) sysFileSize(a sys.Args) sys.Result {
	name, ok := k.readName(a.A1, a.A2)
	if !ok {
		return sys.Resume(sys.RetBadAddress)
	}
	size, err := k.fs.Size(name)
	if err != nil {
		return sys.Resume(sys.RetNotFound)
	}
	return sys.Resume(size)
}

func (k *Kernel) sysYield(a sys.Args) sys.Result {
	return sys.Yield()
}

func (k *Kernel) sysReadKey(a sys.Args) sys.Result {
	// A keystroke that arrived while nobody was waiting is consumed here;
	// otherwise the task parks until the keyboard interrupt delivers one.
	if key, ok := k.keyq.TryPop(); ok {
		return sys.Resume(uint32(key))
	}
	return sys.Block()
}

func (k *Kernel) sysSleep(a sys.Args) sys.Result {
	return sys.Block()
}

func (k *Kernel) sysGetpid(a sys.Args) sys.Result {
	return sys.Resume(uint32(k.sched.CurrentPid()))
}

func (k *Kernel) sysSpawn(a sys.Args) sys.Result {
	name, ok := k.readName(a.A1, a.A2)
	if !ok {
		return sys.Resume(sys.RetBadAddress)
	}
	pid, err := k.SpawnFile(name, k.sched.CurrentPid())
	if err != nil {
		switch {
		case errors.Is(err, vfs.ErrNotFound):
			return sys.Resume(sys.RetNotFound)
		case errors.Is(err, pmm.ErrOutOfMemory), errors.Is(err, sched.ErrTooManyTasks):
			return sys.Resume(sys.RetNoMemory)
		default:
			return sys.Resume(sys.RetInvalidSyscall)
		}
	}
	return sys.Resume(uint32(pid))
}

func (k *Kernel) sysRandom(a sys.Args) sys.Result {
	if a.A2 == 0 {
		return sys.Resume(0)
	}
	if !k.window(a.A1, a.A2) {
		return sys.Resume(sys.RetBadAddress)
	}
	buf := make([]byte, a.A2)
	k.rng.Fill(buf)
	if !k.mach.WriteWindow(a.A1, buf) {
		return sys.Resume(sys.RetBadAddress)
	}
	return sys.Resume(a.A2)
}
