// Package kernel ties the machine, frame allocator, interrupt table,
// scheduler, and syscall dispatcher into one steppable system.
//
// The kernel never runs on its own goroutine. The host loop feeds it
// interrupts through RaiseTimer and RaiseKey and burns instruction
// budget through Step; everything else happens inside those calls.
package kernel

import (
	"errors"

	"github.com/Masterminds/semver/v3"

	"ironveil/hal"
	"ironveil/internal/buildinfo"
	"ironveil/nexis/console"
	"ironveil/nexis/irq"
	"ironveil/nexis/kbd"
	"ironveil/nexis/klog"
	"ironveil/nexis/loader"
	"ironveil/nexis/machine"
	"ironveil/nexis/mem/pmm"
	"ironveil/nexis/sched"
	"ironveil/nexis/sys"
	"ironveil/nexis/userprog"
	"ironveil/nexis/vfs"
	"ironveil/nexis/veil"
)

// Config carries the boot parameters.
type Config struct {
	// Memory is the physical memory size in bytes.
	Memory uint32
	// KernelReserve is the low region kept away from the frame allocator.
	KernelReserve uint32
	// Quantum is the scheduler time slice in ticks.
	Quantum uint32
	// Hz is the tick rate, used only for uptime display.
	Hz int
	// Seed feeds the xorshift generator. Zero picks a fixed default.
	Seed uint64
	// LogLevel filters the kernel log.
	LogLevel klog.Level
	// InitFS is an optional packed filesystem image loaded over the
	// built-in seed files.
	InitFS []byte
	// NoInit skips spawning init at boot.
	NoInit bool
}

func (c Config) withDefaults() Config {
	if c.Memory == 0 {
		c.Memory = 4 << 20
	}
	if c.KernelReserve == 0 {
		c.KernelReserve = 256 << 10
	}
	if c.Quantum == 0 {
		c.Quantum = sched.DefaultQuantum
	}
	if c.Hz == 0 {
		c.Hz = 100
	}
	return c
}

// Service is a kernel-resident consumer of keys and ticks, stepped from
// interrupt dispatch. The shell is one.
type Service interface {
	Name() string
	OnBoot(*Kernel)
	OnTick(*Kernel, uint64)
	// WantsKeys reports whether the service consumes keystrokes right
	// now. While false, keys stay queued for read_key callers.
	WantsKeys(*Kernel) bool
	OnKey(*Kernel, kbd.Key)
}

// Kernel owns every OS structure and steps the machine.
type Kernel struct {
	cfg Config

	mem      *machine.Memory
	mach     *machine.Machine
	frames   *pmm.Allocator
	vectors  *irq.Table
	pending  *irq.Pending
	sched    *sched.Scheduler
	syscalls *sys.Table
	fs       *vfs.FS
	rng      *veil.XorShift64
	log      *klog.Logger
	cons     *console.Console
	keyq     *kbd.Queue
	abi      *semver.Version
	svc      Service

	ticks  uint64
	booted bool
	halted bool
	reboot bool
	fault  *FaultInfo
}

// New assembles a kernel over the given framebuffer and log sink. Boot
// must run before stepping.
func New(cfg Config, fb hal.Framebuffer, sink hal.Logger) *Kernel {
	cfg = cfg.withDefaults()
	k := &Kernel{
		cfg:      cfg,
		mem:      machine.NewMemory(cfg.Memory),
		vectors:  &irq.Table{},
		pending:  &irq.Pending{},
		sched:    sched.New(cfg.Quantum),
		syscalls: &sys.Table{},
		fs:       vfs.New(),
		rng:      veil.NewXorShift64(cfg.Seed),
		cons:     console.New(fb),
		keyq:     &kbd.Queue{},
		abi:      semver.MustParse(buildinfo.ABIVersion),
	}
	k.mach = machine.New(k.mem)
	k.frames = pmm.New(k.mem.Map(cfg.KernelReserve))
	k.log = klog.New(sink, cfg.LogLevel, func() uint64 { return k.ticks })
	return k
}

// Attach registers the kernel-resident service. Call before Boot.
func (k *Kernel) Attach(svc Service) { k.svc = svc }

// Boot installs the interrupt handlers, registers the syscall table,
// seeds the filesystem, and spawns init.
func (k *Kernel) Boot() error {
	if k.booted {
		return errors.New("kernel: already booted")
	}

	handlers := []struct {
		v irq.Vector
		h irq.Handler
	}{
		{irq.VecDivide, k.onFault},
		{irq.VecInvalidOpcode, k.onFault},
		{irq.VecPageFault, k.onFault},
		{irq.VecTimer, k.onTimer},
		{irq.VecKeyboard, k.onKeyboard},
		{irq.VecSyscall, k.onSyscall},
	}
	for _, e := range handlers {
		if err := k.vectors.Install(e.v, e.h); err != nil {
			return err
		}
	}
	if err := k.registerSyscalls(); err != nil {
		return err
	}

	k.log.Infof("%s %s (%s) booting", buildinfo.OSName, buildinfo.OSRelease, buildinfo.Short())
	k.log.Infof("memory: %d KiB, %d frames free of %d",
		k.cfg.Memory>>10, k.frames.FreeFrames(), k.frames.TotalFrames())

	k.seedFS()
	k.booted = true

	if !k.cfg.NoInit {
		if _, err := k.SpawnFile("init.bin", 0); err != nil {
			k.log.Warnf("boot: init did not start: %v", err)
		}
	}
	if k.svc != nil {
		k.svc.OnBoot(k)
	}
	return nil
}

const seedReadme = "IronVeil keeps your machine's business to itself.\n" +
	"Type 'help' for the command list, or 'run count.bin'\n" +
	"to watch a program get scheduled.\n"

func (k *Kernel) seedFS() {
	if err := k.fs.Write("readme.txt", []byte(seedReadme)); err != nil {
		k.log.Warnf("seed: readme.txt: %v", err)
	}
	for _, p := range userprog.All() {
		if err := k.fs.Write(p.Name, p.Image); err != nil {
			k.log.Warnf("seed: %s: %v", p.Name, err)
		}
	}
	if len(k.cfg.InitFS) > 0 {
		if err := k.fs.LoadImage(k.cfg.InitFS); err != nil {
			k.log.Warnf("seed: initfs image: %v", err)
		} else {
			k.log.Infof("seed: initfs image loaded, %d file(s) total", k.fs.Len())
		}
	}
}

// SpawnImage loads an NVEX image and enters the new task into the
// scheduler. The ABI gate runs before any frame allocation.
func (k *Kernel) SpawnImage(name string, img []byte, parent sched.Pid) (sched.Pid, error) {
	ld, err := loader.Load(img, k.abi, k.frames, k.mem)
	if err != nil {
		return 0, err
	}
	pid, err := k.sched.Spawn(name, parent, ld.Ctx, ld.First, ld.NFrames)
	if err != nil {
		if ferr := k.frames.FreeRange(ld.First, ld.NFrames); ferr != nil {
			k.fatalf("spawn rollback: %v", ferr)
		}
		return 0, err
	}
	k.log.Infof("task %d (%s): %d frame(s) at %#x", pid, name, ld.NFrames, ld.Ctx.Base)
	return pid, nil
}

// SpawnFile loads a program image from the filesystem.
func (k *Kernel) SpawnFile(name string, parent sched.Pid) (sched.Pid, error) {
	img, err := k.fs.Read(name)
	if err != nil {
		return 0, err
	}
	return k.SpawnImage(name, img, parent)
}

// Kill terminates a task and reclaims its frames. It reports false for
// pids that are free or already terminated.
func (k *Kernel) Kill(pid sched.Pid) bool {
	t := k.sched.Get(pid)
	if t == nil || t.State == sched.StateTerminated {
		return false
	}
	k.reclaim(t)
	if !k.sched.Terminate(pid, killedCode) {
		return false
	}
	k.log.Infof("task %d (%s) killed", pid, t.Name)
	return true
}

// reclaim returns a task's frames to the allocator. A failure here means
// the frame bookkeeping is corrupt, which stops the kernel.
func (k *Kernel) reclaim(t *sched.Task) {
	if t.NFrames == 0 {
		return
	}
	if err := k.frames.FreeRange(t.First, t.NFrames); err != nil {
		k.fatalf("frame reclaim for task %d: %v", t.Pid, err)
		return
	}
	t.NFrames = 0
}

const killedCode = ^uint32(0)

// Halt stops the kernel at the next step boundary.
func (k *Kernel) Halt() {
	k.halted = true
	k.log.Infof("halt requested")
}

// RequestReboot asks the host to tear the kernel down and boot a new one.
func (k *Kernel) RequestReboot() {
	k.reboot = true
	k.log.Infof("reboot requested")
}

// RebootRequested reports whether a reboot is pending.
func (k *Kernel) RebootRequested() bool { return k.reboot }

// Running reports whether the kernel can execute more work.
func (k *Kernel) Running() bool {
	return k.booted && !k.halted && !k.reboot && k.fault == nil
}

// Ticks returns the tick counter.
func (k *Kernel) Ticks() uint64 { return k.ticks }

// Hz returns the configured tick rate.
func (k *Kernel) Hz() int { return k.cfg.Hz }

// Console returns the text console.
func (k *Kernel) Console() *console.Console { return k.cons }

// Log returns the kernel logger.
func (k *Kernel) Log() *klog.Logger { return k.log }

// FS returns the filesystem.
func (k *Kernel) FS() *vfs.FS { return k.fs }

// Rand returns the system generator.
func (k *Kernel) Rand() *veil.XorShift64 { return k.rng }

// Frames returns the frame allocator.
func (k *Kernel) Frames() *pmm.Allocator { return k.frames }

// Tasks returns a snapshot of the live task table.
func (k *Kernel) Tasks() []sched.Task { return k.sched.Tasks() }

// CurrentPid returns the running task's pid, 0 when idle.
func (k *Kernel) CurrentPid() sched.Pid { return k.sched.CurrentPid() }
