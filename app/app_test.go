package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"ironveil/hal"
	"ironveil/internal/buildinfo"
	"ironveil/nexis/console"
	"ironveil/nexis/klog"
	"ironveil/nexis/loader"
	"ironveil/nexis/machine"
	"ironveil/nexis/sched"
)

type fakeFB struct {
	buf      []byte
	presents int
}

func newFakeFB() *fakeFB {
	return &fakeFB{buf: make([]byte, console.PixelWidth*2*console.PixelHeight)}
}

func (f *fakeFB) Width() int              { return console.PixelWidth }
func (f *fakeFB) Height() int             { return console.PixelHeight }
func (f *fakeFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *fakeFB) StrideBytes() int        { return console.PixelWidth * 2 }
func (f *fakeFB) Buffer() []byte          { return f.buf }
func (f *fakeFB) ClearRGB(r, g, b uint8)  {}
func (f *fakeFB) Present() error          { f.presents++; return nil }

type fakeHAL struct {
	fb    *fakeFB
	keys  chan hal.KeyEvent
	ticks chan uint64
}

func newFakeHAL() *fakeHAL {
	return &fakeHAL{
		fb:    newFakeFB(),
		keys:  make(chan hal.KeyEvent, 64),
		ticks: make(chan uint64, 64),
	}
}

type nullLogger struct{}

func (nullLogger) WriteLineString(string) {}
func (nullLogger) WriteLineBytes([]byte)  {}

func (h *fakeHAL) Logger() hal.Logger           { return nullLogger{} }
func (h *fakeHAL) Display() hal.Display         { return h }
func (h *fakeHAL) Framebuffer() hal.Framebuffer { return h.fb }
func (h *fakeHAL) Input() hal.Input             { return h }
func (h *fakeHAL) Keyboard() hal.Keyboard       { return h }
func (h *fakeHAL) Events() <-chan hal.KeyEvent  { return h.keys }
func (h *fakeHAL) Time() hal.Time               { return h }
func (h *fakeHAL) Ticks() <-chan uint64         { return h.ticks }

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestApp(t *testing.T, cfg Config) (*App, *fakeHAL) {
	t.Helper()
	cfg.Memory = 1 << 20
	cfg.KernelReserve = 64 << 10
	cfg.LogLevel = klog.LevelDebug
	cfg.NoInit = true
	h := newFakeHAL()
	a, err := New(h, quietLog(), cfg)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	return a, h
}

func cursorRowText(a *App) string {
	cons := a.Kernel().Console()
	_, y := cons.CursorPos()
	var b strings.Builder
	for x := 0; x < console.Cols; x++ {
		r, _ := cons.Cell(x, y)
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func TestStepPresentsFrame(t *testing.T) {
	a, h := newTestApp(t, Config{})
	if err := a.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if h.fb.presents == 0 {
		t.Fatalf("no frame presented")
	}
	if !strings.HasSuffix(cursorRowText(a), "$") {
		t.Fatalf("no prompt after boot: %q", cursorRowText(a))
	}
}

func TestTicksFeedKernel(t *testing.T) {
	a, h := newTestApp(t, Config{})
	h.ticks <- 1
	h.ticks <- 2
	h.ticks <- 3
	if err := a.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := a.Kernel().Ticks(); got != 3 {
		t.Fatalf("kernel ticks = %d; want 3", got)
	}
}

func TestKeysReachShell(t *testing.T) {
	a, h := newTestApp(t, Config{})
	h.keys <- hal.KeyEvent{Press: true, Rune: 'l'}
	h.keys <- hal.KeyEvent{Press: true, Rune: 's'}
	if err := a.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !strings.HasSuffix(cursorRowText(a), "$ ls") {
		t.Fatalf("typed text not echoed: %q", cursorRowText(a))
	}
}

func TestHaltEndsHeadlessRun(t *testing.T) {
	a, _ := newTestApp(t, Config{ExitOnHalt: true})
	a.Kernel().Halt()
	if err := a.Step(); !errors.Is(err, ErrHalted) {
		t.Fatalf("step after halt: %v; want ErrHalted", err)
	}
}

func TestHaltKeepsWindowAlive(t *testing.T) {
	a, h := newTestApp(t, Config{})
	a.Kernel().Halt()
	if err := a.Step(); err != nil {
		t.Fatalf("step after halt: %v", err)
	}
	if h.fb.presents == 0 {
		t.Fatalf("halted window never presented")
	}
}

func TestFaultScreenPainted(t *testing.T) {
	a, _ := newTestApp(t, Config{ExitOnHalt: true})
	k := a.Kernel()

	// Freeing a live task's frames behind the kernel's back makes the
	// reclaim on Kill fail, which is a fatal fault.
	b := machine.NewBuilder()
	b.Label("spin")
	b.Addi(machine.R7, machine.R7, 1)
	b.Jmp("spin")
	code, err := b.Assemble()
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	img := loader.Pack(buildinfo.ABIVersion, 0, 0, code)
	pid, err := k.SpawnImage("spin.bin", img, 0)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	var task sched.Task
	found := false
	for _, tk := range k.Tasks() {
		if tk.Pid == pid {
			task = tk
			found = true
		}
	}
	if !found {
		t.Fatalf("spawned task missing")
	}
	if err := k.Frames().FreeRange(task.First, task.NFrames); err != nil {
		t.Fatalf("free range: %v", err)
	}
	k.Kill(pid)
	if k.Fault() == nil {
		t.Fatalf("no fault recorded")
	}

	if err := a.Step(); !errors.Is(err, ErrHalted) {
		t.Fatalf("step after fault: %v; want ErrHalted", err)
	}
	cons := k.Console()
	foundBanner := false
	for y := 0; y < console.Rows && !foundBanner; y++ {
		var sb strings.Builder
		for x := 0; x < console.Cols; x++ {
			r, _ := cons.Cell(x, y)
			sb.WriteRune(r)
		}
		foundBanner = strings.Contains(sb.String(), "KERNEL FAULT")
	}
	if !foundBanner {
		t.Fatalf("fault screen not painted")
	}
}

func TestRebootRecreatesKernel(t *testing.T) {
	a, _ := newTestApp(t, Config{})
	old := a.Kernel()
	old.RequestReboot()
	if err := a.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if a.Kernel() == old {
		t.Fatalf("kernel not replaced after reboot")
	}
	if !a.Kernel().Running() {
		t.Fatalf("rebooted kernel not running")
	}
	if !strings.HasSuffix(cursorRowText(a), "$") {
		t.Fatalf("no prompt after reboot: %q", cursorRowText(a))
	}
}
