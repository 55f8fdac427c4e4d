package shell

import (
	"errors"
	"fmt"
	"strconv"

	"ironveil/nexis/kernel"
	"ironveil/nexis/mem/pmm"
	"ironveil/nexis/sched"
)

func registerSysCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "ps", Usage: "ps", Desc: "List tasks.", Run: cmdPs},
		{Name: "kill", Usage: "kill <pid>", Desc: "Terminate a task and reclaim its frames.", Run: cmdKill},
		{Name: "free", Usage: "free", Desc: "Show frame allocator usage.", Run: cmdFree},
		{Name: "dmesg", Usage: "dmesg [n]", Desc: "Show recent kernel log entries.", Run: cmdDmesg},
		{Name: "reboot", Usage: "reboot", Desc: "Reboot the system.", Run: cmdReboot},
		{Name: "halt", Aliases: []string{"shutdown"}, Usage: "halt", Desc: "Halt the system.", Run: cmdHalt},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdPs(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 0 {
		return errors.New("usage: ps")
	}
	out.printf("%4s  %-12s  %6s  %s\n", "PID", "STATE", "FRAMES", "NAME")
	for _, t := range k.Tasks() {
		state := t.State.String()
		if t.State == sched.StateBlocked {
			state = fmt.Sprintf("%s/%s", state, t.Block)
		}
		out.printf("%4d  %-12s  %6d  %s\n", t.Pid, state, t.NFrames, t.Name)
	}
	return nil
}

func cmdKill(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 1 {
		return errors.New("usage: kill <pid>")
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || n == 0 {
		return errors.New("invalid pid")
	}
	if !k.Kill(sched.Pid(n)) {
		return fmt.Errorf("no such task %d", n)
	}
	out.printf("killed %d\n", n)
	return nil
}

func cmdFree(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 0 {
		return errors.New("usage: free")
	}
	fr := k.Frames()
	total, free := fr.TotalFrames(), fr.FreeFrames()
	used := total - free
	const frameKiB = pmm.FrameSize / 1024
	out.printf("%-6s  %8s  %8s  %8s\n", "", "total", "used", "free")
	out.printf("%-6s  %8d  %8d  %8d\n", "frames", total, used, free)
	out.printf("%-6s  %8d  %8d  %8d\n", "KiB", total*frameKiB, used*frameKiB, free*frameKiB)
	return nil
}

func cmdDmesg(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	n := 16
	switch len(args) {
	case 0:
	case 1:
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return errors.New("invalid count")
		}
		n = v
	default:
		return errors.New("usage: dmesg [n]")
	}
	for _, e := range k.Log().Last(n) {
		out.print(e.String() + "\n")
	}
	return nil
}

func cmdReboot(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 0 {
		return errors.New("usage: reboot")
	}
	out.print("rebooting...\n")
	k.RequestReboot()
	return nil
}

func cmdHalt(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 0 {
		return errors.New("usage: halt")
	}
	out.print("system halted\n")
	k.Halt()
	return nil
}
