// Package shell is the interactive command interpreter that ships with
// the kernel. It runs as a kernel service, not as a task: keystrokes
// arrive through OnKey from the keyboard interrupt, output goes straight
// to the console, and every builtin runs to completion before the next
// key is delivered. Launching a program with "run" puts it in the
// foreground; the shell then leaves the keyboard alone until the child
// exits, so the child's read_key calls see the user's typing.
package shell

import (
	"fmt"
	"strings"

	"ironveil/nexis/kbd"
	"ironveil/nexis/kernel"
	"ironveil/nexis/sched"
)

const (
	prompt     = "ironveil@nexis:~$ "
	maxLineLen = 240
	historyMax = 32
)

// Shell implements kernel.Service.
type Shell struct {
	reg *registry

	line    []rune
	hist    []string
	histPos int    // len(hist) while editing a fresh line
	stash   []rune // fresh line saved while browsing history

	fg sched.Pid // foreground task, 0 when the shell owns the keyboard

	vpnUp   bool
	vpnExit string
}

// New builds a shell with the full builtin command set.
func New() (*Shell, error) {
	r := newRegistry()
	for _, reg := range []func(*registry) error{
		registerCoreCommands,
		registerFSCommands,
		registerSysCommands,
		registerVeilCommands,
	} {
		if err := reg(r); err != nil {
			return nil, err
		}
	}
	return &Shell{reg: r}, nil
}

func (s *Shell) Name() string { return "shell" }

// OnBoot prints the greeting and the first prompt.
func (s *Shell) OnBoot(k *kernel.Kernel) {
	k.Console().WriteString("type 'help' for commands\n")
	s.prompt(k)
}

// OnTick reaps the foreground task so the prompt comes back when it
// exits or gets killed.
func (s *Shell) OnTick(k *kernel.Kernel, _ uint64) {
	if s.fg == 0 {
		return
	}
	t, ok := taskByPid(k, s.fg)
	if ok && t.State != sched.StateTerminated {
		return
	}
	if ok {
		k.Console().WriteString(fmt.Sprintf("[%d] exited (%d)\n", t.Pid, int32(t.ExitCode)))
	}
	s.fg = 0
	s.prompt(k)
}

// WantsKeys claims the keyboard whenever no foreground task holds it.
func (s *Shell) WantsKeys(*kernel.Kernel) bool { return s.fg == 0 }

// OnKey feeds one decoded key into the line editor.
func (s *Shell) OnKey(k *kernel.Kernel, key kbd.Key) {
	switch key {
	case kbd.KeyEnter:
		k.Console().WriteString("\n")
		s.submit(k)
	case kbd.KeyBackspace, kbd.KeyDelete:
		s.erase(k, 1)
	case kbd.KeyCtrlC:
		k.Console().WriteString("^C\n")
		s.line = s.line[:0]
		s.histPos = len(s.hist)
		s.prompt(k)
	case kbd.KeyCtrlU:
		s.erase(k, len(s.line))
	case kbd.KeyCtrlW:
		s.erase(k, s.wordSpan())
	case kbd.KeyUp:
		s.histPrev(k)
	case kbd.KeyDown:
		s.histNext(k)
	default:
		if !key.Printable() || len(s.line) >= maxLineLen {
			return
		}
		r := key.Rune()
		s.line = append(s.line, r)
		k.Console().WriteString(string(r))
	}
}

// erase removes up to n runes from the end of the line, rubbing each
// one off the screen.
func (s *Shell) erase(k *kernel.Kernel, n int) {
	if n > len(s.line) {
		n = len(s.line)
	}
	for i := 0; i < n; i++ {
		k.Console().WriteString("\b \b")
	}
	s.line = s.line[:len(s.line)-n]
}

// wordSpan measures the run Ctrl-W removes: trailing blanks plus the
// word before them.
func (s *Shell) wordSpan() int {
	i := len(s.line)
	for i > 0 && s.line[i-1] == ' ' {
		i--
	}
	for i > 0 && s.line[i-1] != ' ' {
		i--
	}
	return len(s.line) - i
}

func (s *Shell) histPrev(k *kernel.Kernel) {
	if s.histPos == 0 {
		return
	}
	if s.histPos == len(s.hist) {
		s.stash = append(s.stash[:0], s.line...)
	}
	s.histPos--
	s.replaceLine(k, []rune(s.hist[s.histPos]))
}

func (s *Shell) histNext(k *kernel.Kernel) {
	if s.histPos >= len(s.hist) {
		return
	}
	s.histPos++
	if s.histPos == len(s.hist) {
		s.replaceLine(k, s.stash)
		return
	}
	s.replaceLine(k, []rune(s.hist[s.histPos]))
}

func (s *Shell) replaceLine(k *kernel.Kernel, text []rune) {
	s.erase(k, len(s.line))
	s.line = append(s.line[:0], text...)
	if len(s.line) > 0 {
		k.Console().WriteString(string(s.line))
	}
}

func (s *Shell) remember(line string) {
	if n := len(s.hist); n > 0 && s.hist[n-1] == line {
		s.histPos = len(s.hist)
		return
	}
	s.hist = append(s.hist, line)
	if len(s.hist) > historyMax {
		s.hist = s.hist[1:]
	}
	s.histPos = len(s.hist)
}

func (s *Shell) submit(k *kernel.Kernel) {
	line := strings.TrimSpace(string(s.line))
	s.line = s.line[:0]
	s.histPos = len(s.hist)
	if line == "" {
		s.prompt(k)
		return
	}
	s.remember(line)
	s.runLine(k, line)
	// A foreground child owns the console until it exits.
	if s.fg == 0 {
		s.prompt(k)
	}
}

func (s *Shell) runLine(k *kernel.Kernel, line string) {
	args, redir, ok := parseLine(line)
	if !ok {
		k.Console().WriteString("syntax error\n")
		return
	}
	if len(args) == 0 {
		return
	}
	cmd, ok := s.reg.resolve(args[0])
	if !ok {
		k.Console().WriteString(fmt.Sprintf("unknown command %q (try 'help')\n", args[0]))
		return
	}
	out := &output{redir: redir}
	if err := cmd.Run(s, k, args[1:], out); err != nil {
		k.Console().WriteString(fmt.Sprintf("%s: %v\n", cmd.Name, err))
		return
	}
	if err := out.land(k); err != nil {
		k.Console().WriteString(fmt.Sprintf("%s: %v\n", cmd.Name, err))
	}
}

func (s *Shell) prompt(k *kernel.Kernel) {
	k.Console().WriteString(prompt)
	if len(s.line) > 0 {
		k.Console().WriteString(string(s.line))
	}
}

func taskByPid(k *kernel.Kernel, pid sched.Pid) (sched.Task, bool) {
	for _, t := range k.Tasks() {
		if t.Pid == pid {
			return t, true
		}
	}
	return sched.Task{}, false
}
