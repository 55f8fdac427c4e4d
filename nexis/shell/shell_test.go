package shell

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"ironveil/hal"
	"ironveil/internal/buildinfo"
	"ironveil/nexis/console"
	"ironveil/nexis/kernel"
	"ironveil/nexis/klog"
	"ironveil/nexis/vfs"
)

type testSink struct{ lines []string }

func (s *testSink) WriteLineString(line string) { s.lines = append(s.lines, line) }
func (s *testSink) WriteLineBytes(b []byte)     { s.lines = append(s.lines, string(b)) }

func newShellKernel(t *testing.T) (*kernel.Kernel, *Shell) {
	t.Helper()
	sh, err := New()
	if err != nil {
		t.Fatalf("shell.New: %v", err)
	}
	k := kernel.New(kernel.Config{
		Memory:        1 << 20,
		KernelReserve: 64 << 10,
		Quantum:       4,
		Seed:          0x5eed,
		LogLevel:      klog.LevelDebug,
		NoInit:        true,
	}, nil, &testSink{})
	k.Attach(sh)
	if err := k.Boot(); err != nil {
		t.Fatalf("boot: %v", err)
	}
	return k, sh
}

// press raises one key event and lets the kernel process it.
func press(k *kernel.Kernel, ev hal.KeyEvent) {
	ev.Press = true
	k.RaiseKey(ev)
	k.Step(500)
}

// typeKeys types text on the emulated keyboard, sending '\n' as Enter.
func typeKeys(k *kernel.Kernel, text string) {
	for _, r := range text {
		if r == '\n' {
			press(k, hal.KeyEvent{Code: hal.KeyEnter})
			continue
		}
		press(k, hal.KeyEvent{Rune: r})
	}
}

func consoleRows(k *kernel.Kernel) []string {
	rows := make([]string, console.Rows)
	for y := 0; y < console.Rows; y++ {
		var b strings.Builder
		for x := 0; x < console.Cols; x++ {
			r, _ := k.Console().Cell(x, y)
			b.WriteRune(r)
		}
		rows[y] = strings.TrimRight(b.String(), " ")
	}
	return rows
}

func wantRow(t *testing.T, k *kernel.Kernel, substr string) {
	t.Helper()
	for _, row := range consoleRows(k) {
		if strings.Contains(row, substr) {
			return
		}
	}
	t.Fatalf("console does not show %q:\n%s", substr, strings.Join(consoleRows(k), "\n"))
}

func cursorRow(k *kernel.Kernel) string {
	_, y := k.Console().CursorPos()
	return consoleRows(k)[y]
}

// rowAbove returns the finished line just above the cursor, usually the
// last command's output.
func rowAbove(k *kernel.Kernel) string {
	_, y := k.Console().CursorPos()
	if y == 0 {
		return ""
	}
	return consoleRows(k)[y-1]
}

func TestBootShowsPrompt(t *testing.T) {
	k, _ := newShellKernel(t)
	wantRow(t, k, "type 'help' for commands")
	if !strings.HasSuffix(cursorRow(k), "ironveil@nexis:~$") {
		t.Fatalf("cursor row = %q; want prompt", cursorRow(k))
	}
}

func TestEchoCommand(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "echo 'a b'   c\n")
	if got := rowAbove(k); got != "a b c" {
		t.Fatalf("echo output = %q; want %q", got, "a b c")
	}
}

func TestUnknownCommandReported(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "frobnicate now\n")
	wantRow(t, k, `unknown command "frobnicate"`)
}

func TestSyntaxErrorReported(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "echo \"oops\n")
	wantRow(t, k, "syntax error")
}

func TestBackspaceEditsLine(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "echq")
	press(k, hal.KeyEvent{Code: hal.KeyBackspace})
	typeKeys(k, "o hi\n")
	if got := rowAbove(k); got != "hi" {
		t.Fatalf("output = %q; want %q", got, "hi")
	}
}

func TestCtrlUKillsLine(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "garbage")
	press(k, hal.KeyEvent{Rune: 0x15})
	typeKeys(k, "echo ok\n")
	if got := rowAbove(k); got != "ok" {
		t.Fatalf("output = %q; want %q", got, "ok")
	}
	wantRow(t, k, "$ echo ok")
}

func TestCtrlWKillsWord(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "echo one two")
	press(k, hal.KeyEvent{Rune: 0x17})
	typeKeys(k, "three\n")
	if got := rowAbove(k); got != "one three" {
		t.Fatalf("output = %q; want %q", got, "one three")
	}
}

func TestCtrlCCancelsLine(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "rm readme.txt")
	press(k, hal.KeyEvent{Rune: 0x03})
	wantRow(t, k, "^C")
	typeKeys(k, "echo still here\n")
	if got := rowAbove(k); got != "still here" {
		t.Fatalf("output = %q; want %q", got, "still here")
	}
	if _, err := k.FS().Read("readme.txt"); err != nil {
		t.Fatalf("readme.txt gone after canceled rm: %v", err)
	}
}

func TestHistoryRecall(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "echo one\n")
	typeKeys(k, "echo two\n")

	press(k, hal.KeyEvent{Code: hal.KeyUp})
	if !strings.HasSuffix(cursorRow(k), "$ echo two") {
		t.Fatalf("after up: cursor row = %q", cursorRow(k))
	}
	press(k, hal.KeyEvent{Code: hal.KeyUp})
	if !strings.HasSuffix(cursorRow(k), "$ echo one") {
		t.Fatalf("after up, up: cursor row = %q", cursorRow(k))
	}
	press(k, hal.KeyEvent{Code: hal.KeyDown})
	if !strings.HasSuffix(cursorRow(k), "$ echo two") {
		t.Fatalf("after down: cursor row = %q", cursorRow(k))
	}
	press(k, hal.KeyEvent{Code: hal.KeyDown})
	if !strings.HasSuffix(cursorRow(k), "$") {
		t.Fatalf("after down, down: cursor row = %q", cursorRow(k))
	}

	press(k, hal.KeyEvent{Code: hal.KeyUp})
	press(k, hal.KeyEvent{Code: hal.KeyUp})
	press(k, hal.KeyEvent{Code: hal.KeyEnter})
	k.Step(100)
	if got := rowAbove(k); got != "one" {
		t.Fatalf("recalled command output = %q; want %q", got, "one")
	}
}

func TestRedirectionWritesFile(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "echo hello > f.txt\n")
	data, err := k.FS().Read("f.txt")
	if err != nil {
		t.Fatalf("read f.txt: %v", err)
	}
	if string(data) != "hello\n" {
		t.Fatalf("f.txt = %q; want %q", data, "hello\n")
	}

	typeKeys(k, "echo again >> f.txt\n")
	data, err = k.FS().Read("f.txt")
	if err != nil {
		t.Fatalf("read f.txt: %v", err)
	}
	if string(data) != "hello\nagain\n" {
		t.Fatalf("f.txt = %q; want %q", data, "hello\nagain\n")
	}
}

func TestWriteCatRmRoundTrip(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "write note.txt some text\n")
	wantRow(t, k, "wrote 10 bytes to note.txt")

	typeKeys(k, "cat note.txt\n")
	if got := rowAbove(k); got != "some text" {
		t.Fatalf("cat output = %q; want %q", got, "some text")
	}

	typeKeys(k, "rm note.txt\n")
	if _, err := k.FS().Read("note.txt"); !errors.Is(err, vfs.ErrNotFound) {
		t.Fatalf("read after rm: %v; want ErrNotFound", err)
	}
}

func TestLsListsSeededFiles(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "ls\n")
	wantRow(t, k, "readme.txt")
	wantRow(t, k, "init.bin")
	wantRow(t, k, "file(s),")
}

func TestClearCommand(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "clear\n")
	rows := consoleRows(k)
	if rows[0] != "ironveil@nexis:~$" {
		t.Fatalf("row 0 after clear = %q; want bare prompt", rows[0])
	}
	for _, row := range rows[1:] {
		if row != "" {
			t.Fatalf("residue after clear: %q", row)
		}
	}
}

func TestPsViaRedirect(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "ps > ps.txt\n")
	data, err := k.FS().Read("ps.txt")
	if err != nil {
		t.Fatalf("read ps.txt: %v", err)
	}
	if !strings.Contains(string(data), "PID") {
		t.Fatalf("ps output missing header: %q", data)
	}
}

func TestFreeViaRedirect(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "free > free.txt\n")
	data, err := k.FS().Read("free.txt")
	if err != nil {
		t.Fatalf("read free.txt: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "frames") || !strings.Contains(out, "KiB") {
		t.Fatalf("free output = %q", out)
	}
}

func TestDmesgViaRedirect(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "dmesg > d.txt\n")
	data, err := k.FS().Read("d.txt")
	if err != nil {
		t.Fatalf("read d.txt: %v", err)
	}
	if !strings.Contains(string(data), "booting") {
		t.Fatalf("dmesg output missing boot line: %q", data)
	}
}

func TestUnameAll(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "uname -a\n")
	wantRow(t, k, buildinfo.OSName)
	wantRow(t, k, "abi "+buildinfo.ABIVersion)
}

func TestVPNToggle(t *testing.T) {
	k, sh := newShellKernel(t)
	typeKeys(k, "vpn\n")
	wantRow(t, k, "tunnel up, exit node")
	if !sh.vpnUp {
		t.Fatalf("vpnUp = false after first toggle")
	}
	typeKeys(k, "vpn\n")
	wantRow(t, k, "tunnel down")
	if sh.vpnUp {
		t.Fatalf("vpnUp = true after second toggle")
	}
}

func TestGenpassCount(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "genpass 3 > p.txt\n")
	data, err := k.FS().Read("p.txt")
	if err != nil {
		t.Fatalf("read p.txt: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d passwords, want 3: %q", len(lines), data)
	}
	for _, l := range lines {
		if len(l) != 16 {
			t.Fatalf("password %q has length %d, want 16", l, len(l))
		}
	}
}

func TestSdelShredsFile(t *testing.T) {
	k, _ := newShellKernel(t)
	if err := k.FS().Write("secret.txt", []byte("top secret")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	typeKeys(k, "sdel secret.txt\n")
	wantRow(t, k, "secret.txt: 10 byte(s) shredded")
	if _, err := k.FS().Read("secret.txt"); !errors.Is(err, vfs.ErrNotFound) {
		t.Fatalf("read after sdel: %v; want ErrNotFound", err)
	}
}

func TestRunForegroundProgram(t *testing.T) {
	k, sh := newShellKernel(t)
	typeKeys(k, "run count.bin\n")
	if sh.fg == 0 {
		t.Fatalf("no foreground task after run")
	}
	if sh.WantsKeys(k) {
		t.Fatalf("shell still claims keys while child runs")
	}

	for i := 0; i < 300 && sh.fg != 0; i++ {
		k.RaiseTimer()
		k.Step(5000)
	}
	if sh.fg != 0 {
		t.Fatalf("foreground task never exited")
	}
	wantRow(t, k, "10")
	wantRow(t, k, "exited (0)")
	if !strings.HasSuffix(cursorRow(k), "ironveil@nexis:~$") {
		t.Fatalf("prompt did not return: %q", cursorRow(k))
	}
}

func TestForegroundChildGetsKeys(t *testing.T) {
	k, sh := newShellKernel(t)
	typeKeys(k, "run keys.bin\n")
	if sh.fg == 0 {
		t.Fatalf("no foreground task after run")
	}

	// The child blocks in read_key, so typing echoes through it.
	typeKeys(k, "hi!")
	wantRow(t, k, "hi!")
	press(k, hal.KeyEvent{Code: hal.KeyEnter})

	k.RaiseTimer()
	k.Step(500)
	if sh.fg != 0 {
		t.Fatalf("foreground task not reaped after exit")
	}
	wantRow(t, k, "exited (0)")
}

func TestRunMissingProgram(t *testing.T) {
	k, sh := newShellKernel(t)
	typeKeys(k, "run nope.bin\n")
	wantRow(t, k, "not found")
	if sh.fg != 0 {
		t.Fatalf("foreground set after failed run")
	}
}

func TestKillCommand(t *testing.T) {
	k, _ := newShellKernel(t)
	free0 := k.Frames().FreeFrames()

	pid, err := k.SpawnFile("count.bin", 0)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	// No timer ticks here, so the counter parks in its first sleep and
	// stays killable.
	typeKeys(k, fmt.Sprintf("kill %d\n", pid))
	wantRow(t, k, fmt.Sprintf("killed %d", pid))
	if got := k.Frames().FreeFrames(); got != free0 {
		t.Fatalf("FreeFrames = %d after kill; want %d", got, free0)
	}

	typeKeys(k, fmt.Sprintf("kill %d\n", pid))
	wantRow(t, k, fmt.Sprintf("no such task %d", pid))
}

func TestHaltCommand(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "halt\n")
	wantRow(t, k, "system halted")
	if k.Running() {
		t.Fatalf("kernel still running after halt")
	}
}

func TestRebootCommand(t *testing.T) {
	k, _ := newShellKernel(t)
	typeKeys(k, "reboot\n")
	wantRow(t, k, "rebooting...")
	if !k.RebootRequested() {
		t.Fatalf("reboot not requested")
	}
	if k.Running() {
		t.Fatalf("kernel still running after reboot request")
	}
}
