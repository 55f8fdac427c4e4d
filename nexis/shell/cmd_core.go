package shell

import (
	"errors"
	"fmt"
	"strings"

	"ironveil/internal/buildinfo"
	"ironveil/nexis/kernel"
)

func registerCoreCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "help", Usage: "help [command]", Desc: "List commands or show one command's usage.", Run: cmdHelp},
		{Name: "clear", Aliases: []string{"cls"}, Usage: "clear", Desc: "Clear the screen.", Run: cmdClear},
		{Name: "echo", Usage: "echo [text...]", Desc: "Print text.", Run: cmdEcho},
		{Name: "ver", Usage: "ver", Desc: "Show the build version.", Run: cmdVer},
		{Name: "uname", Usage: "uname [-a]", Desc: "Show system information.", Run: cmdUname},
		{Name: "ticks", Usage: "ticks", Desc: "Show the kernel tick counter.", Run: cmdTicks},
		{Name: "uptime", Usage: "uptime", Desc: "Show time since boot.", Run: cmdUptime},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdHelp(s *Shell, _ *kernel.Kernel, args []string, out *output) error {
	switch {
	case len(args) == 0:
		for _, name := range s.reg.names() {
			out.printf("%-10s %s\n", name, s.reg.primary[name].Desc)
		}
	case len(args) == 1:
		cmd, ok := s.reg.resolve(args[0])
		if !ok {
			return fmt.Errorf("no such command %q", args[0])
		}
		out.printf("%s - %s\n", cmd.Name, cmd.Desc)
		out.printf("usage: %s\n", cmd.Usage)
		if len(cmd.Aliases) > 0 {
			out.printf("aliases: %s\n", strings.Join(cmd.Aliases, ", "))
		}
	default:
		return errors.New("usage: help [command]")
	}
	return nil
}

func cmdClear(_ *Shell, k *kernel.Kernel, _ []string, _ *output) error {
	k.Console().Clear()
	return nil
}

func cmdEcho(_ *Shell, _ *kernel.Kernel, args []string, out *output) error {
	out.print(strings.Join(args, " ") + "\n")
	return nil
}

func cmdVer(_ *Shell, _ *kernel.Kernel, _ []string, out *output) error {
	out.printf("%s %s %s\n", buildinfo.OSName, buildinfo.OSRelease, buildinfo.Short())
	return nil
}

func cmdUname(_ *Shell, _ *kernel.Kernel, args []string, out *output) error {
	switch {
	case len(args) == 0:
		out.print(buildinfo.OSName + "\n")
	case len(args) == 1 && args[0] == "-a":
		out.printf("%s %s %s abi %s ironveil-vm\n",
			buildinfo.OSName, buildinfo.OSRelease, buildinfo.Version, buildinfo.ABIVersion)
	default:
		return errors.New("usage: uname [-a]")
	}
	return nil
}

func cmdTicks(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 0 {
		return errors.New("usage: ticks")
	}
	out.printf("%d\n", k.Ticks())
	return nil
}

func cmdUptime(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 0 {
		return errors.New("usage: uptime")
	}
	ticks := k.Ticks()
	secs := ticks / uint64(k.Hz())
	out.printf("up %dh %dm %ds (%d ticks at %d Hz)\n",
		secs/3600, secs%3600/60, secs%60, ticks, k.Hz())
	return nil
}
