// Package app assembles the system: HAL below, kernel above, and the
// host frame loop between them. The kernel never runs on its own
// goroutine; the window or headless runner calls Step once per frame,
// and Step feeds queued hardware events into the kernel before letting
// it execute.
package app

import (
	"errors"

	"github.com/sirupsen/logrus"

	"ironveil/hal"
	"ironveil/internal/seeddir"
	"ironveil/nexis/kernel"
	"ironveil/nexis/klog"
	"ironveil/nexis/shell"
)

// ErrHalted reports that the kernel stopped for good and the run should
// end.
var ErrHalted = errors.New("app: kernel halted")

// Config selects boot parameters for one kernel instance.
type Config struct {
	Memory        uint32
	KernelReserve uint32
	Quantum       uint32
	Hz            int
	Seed          uint64
	LogLevel      klog.Level
	InitFS        []byte
	SeedDir       string
	NoInit        bool

	// StepBudget caps interpreted instructions per timer tick.
	StepBudget int
	// ExitOnHalt makes Step return ErrHalted once the kernel stops.
	// Headless runs want that; the window keeps showing the fault
	// screen instead.
	ExitOnHalt bool
}

const defaultStepBudget = 20000

// App owns one kernel and its host-side plumbing.
type App struct {
	h   hal.HAL
	log *logrus.Logger
	cfg Config

	k    *kernel.Kernel
	seed *seeddir.Watcher

	faultPainted bool
}

// New boots a kernel over h. A nil log selects logrus.StandardLogger.
func New(h hal.HAL, log *logrus.Logger, cfg Config) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.StepBudget <= 0 {
		cfg.StepBudget = defaultStepBudget
	}
	a := &App{h: h, log: log, cfg: cfg}
	if err := a.boot(); err != nil {
		return nil, err
	}
	if cfg.SeedDir != "" {
		w, err := seeddir.Open(cfg.SeedDir, log)
		if err != nil {
			return nil, err
		}
		if err := w.Import(a.k.FS()); err != nil {
			w.Close()
			return nil, err
		}
		a.seed = w
	}
	return a, nil
}

func (a *App) boot() error {
	sh, err := shell.New()
	if err != nil {
		return err
	}
	k := kernel.New(kernel.Config{
		Memory:        a.cfg.Memory,
		KernelReserve: a.cfg.KernelReserve,
		Quantum:       a.cfg.Quantum,
		Hz:            a.cfg.Hz,
		Seed:          a.cfg.Seed,
		LogLevel:      a.cfg.LogLevel,
		InitFS:        a.cfg.InitFS,
		NoInit:        a.cfg.NoInit,
	}, a.h.Display().Framebuffer(), a.h.Logger())
	k.Attach(sh)
	if err := k.Boot(); err != nil {
		return err
	}
	a.k = k
	a.faultPainted = false
	return nil
}

// Kernel returns the current kernel instance. A reboot replaces it.
func (a *App) Kernel() *kernel.Kernel { return a.k }

// Close releases host resources. The kernel itself has none.
func (a *App) Close() error {
	if a.seed != nil {
		return a.seed.Close()
	}
	return nil
}

// Step advances the system by one host frame: restart after a reboot
// request, apply host file changes, feed queued ticks and keystrokes,
// run the machine, and present the console.
func (a *App) Step() error {
	if a.k.RebootRequested() {
		a.log.Info("reboot requested, restarting kernel")
		if err := a.boot(); err != nil {
			return err
		}
		if a.seed != nil {
			if err := a.seed.Import(a.k.FS()); err != nil {
				a.log.Warnf("seeddir import after reboot: %v", err)
			}
		}
	}

	if !a.k.Running() {
		return a.stopped()
	}

	a.applySeedUpdates()

	if kb := a.h.Input().Keyboard(); kb != nil {
		for drained := false; !drained; {
			select {
			case ev := <-kb.Events():
				a.k.RaiseKey(ev)
			default:
				drained = true
			}
		}
	}

	ran := false
	if t := a.h.Time(); t != nil {
		for drained := false; !drained; {
			select {
			case <-t.Ticks():
				a.k.RaiseTimer()
				a.k.Step(a.cfg.StepBudget)
				ran = true
			default:
				drained = true
			}
		}
	}
	if !ran {
		// No tick this frame; still let pending keys and the running
		// task make progress.
		a.k.Step(a.cfg.StepBudget)
	}

	return a.k.Console().Flush()
}

// applySeedUpdates lands queued host directory changes in the
// filesystem.
func (a *App) applySeedUpdates() {
	if a.seed == nil {
		return
	}
	for {
		select {
		case u := <-a.seed.Updates():
			if u.Data == nil {
				if err := a.k.FS().Remove(u.Name); err == nil {
					a.k.Log().Infof("seeddir: removed %s", u.Name)
				}
				continue
			}
			if err := a.k.FS().Write(u.Name, u.Data); err != nil {
				a.k.Log().Warnf("seeddir: %s: %v", u.Name, err)
				continue
			}
			a.k.Log().Infof("seeddir: updated %s (%d bytes)", u.Name, len(u.Data))
		default:
			return
		}
	}
}

func (a *App) stopped() error {
	if f := a.k.Fault(); f != nil && !a.faultPainted {
		a.paintFault(f)
		a.faultPainted = true
	}
	if a.cfg.ExitOnHalt {
		return ErrHalted
	}
	return a.k.Console().Flush()
}
