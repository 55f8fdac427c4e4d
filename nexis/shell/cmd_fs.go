package shell

import (
	"errors"
	"strings"

	"ironveil/nexis/kernel"
)

func registerFSCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "ls", Aliases: []string{"dir"}, Usage: "ls", Desc: "List files.", Run: cmdLs},
		{Name: "cat", Usage: "cat <file>", Desc: "Print a file.", Run: cmdCat},
		{Name: "write", Usage: "write <file> [text...]", Desc: "Write text to a file.", Run: cmdWrite},
		{Name: "rm", Aliases: []string{"del"}, Usage: "rm <file>", Desc: "Remove a file.", Run: cmdRm},
		{Name: "run", Usage: "run <file>", Desc: "Run a program in the foreground.", Run: cmdRun},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdLs(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 0 {
		return errors.New("usage: ls")
	}
	var total uint32
	files := k.FS().List()
	for _, fi := range files {
		out.printf("%6d  %s\n", fi.Size, fi.Name)
		total += fi.Size
	}
	out.printf("%d file(s), %d bytes\n", len(files), total)
	return nil
}

func cmdCat(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 1 {
		return errors.New("usage: cat <file>")
	}
	data, err := k.FS().Read(args[0])
	if err != nil {
		return err
	}
	out.write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		out.print("\n")
	}
	return nil
}

func cmdWrite(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) < 1 {
		return errors.New("usage: write <file> [text...]")
	}
	text := strings.Join(args[1:], " ") + "\n"
	if err := k.FS().Write(args[0], []byte(text)); err != nil {
		return err
	}
	out.printf("wrote %d bytes to %s\n", len(text), args[0])
	return nil
}

func cmdRm(_ *Shell, k *kernel.Kernel, args []string, _ *output) error {
	if len(args) != 1 {
		return errors.New("usage: rm <file>")
	}
	return k.FS().Remove(args[0])
}

func cmdRun(s *Shell, k *kernel.Kernel, args []string, _ *output) error {
	if len(args) != 1 {
		return errors.New("usage: run <file>")
	}
	pid, err := k.SpawnFile(args[0], 0)
	if err != nil {
		return err
	}
	s.fg = pid
	return nil
}
