package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"ironveil/app"
	"ironveil/hal"
	"ironveil/internal/buildinfo"
	"ironveil/nexis/console"
	"ironveil/nexis/klog"
)

func main() {
	var (
		headless = flag.Bool("headless", false, "Run without a window.")
		hz       = flag.Int("hz", 100, "Timer tick rate.")
		ticks    = flag.Uint64("ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
		memKiB   = flag.Int("mem", 4096, "Emulated memory in KiB.")
		quantum  = flag.Uint("quantum", 0, "Scheduler quantum in ticks (0 = default).")
		seed     = flag.Uint64("seed", 0, "Entropy seed (0 = seed from the host).")
		seedDir  = flag.String("seeddir", "", "Host directory mirrored into the filesystem.")
		initFS   = flag.String("initfs", "", "Filesystem image loaded at boot.")
		logLevel = flag.String("loglevel", "info", "Kernel log level (debug, info, warn, error).")
		noInit   = flag.Bool("noinit", false, "Do not spawn init.bin at boot.")
	)
	flag.Parse()

	log := logrus.New()

	level, ok := klog.ParseLevel(*logLevel)
	if !ok {
		log.Fatalf("unknown log level %q", *logLevel)
	}

	cfg := app.Config{
		Memory:     uint32(*memKiB) << 10,
		Quantum:    uint32(*quantum),
		Hz:         *hz,
		Seed:       *seed,
		LogLevel:   level,
		SeedDir:    *seedDir,
		NoInit:     *noInit,
		ExitOnHalt: *headless,
	}
	if *initFS != "" {
		img, err := os.ReadFile(*initFS)
		if err != nil {
			log.Fatalf("read initfs: %v", err)
		}
		cfg.InitFS = img
	}
	if cfg.Seed == 0 {
		cfg.Seed = randomSeed()
	}

	opts := hal.Options{
		Log:    log,
		Width:  console.PixelWidth,
		Height: console.PixelHeight,
		Hz:     *hz,
	}

	newApp := func(h hal.HAL) func() error {
		a, err := app.New(h, log, cfg)
		if err != nil {
			log.Fatalf("boot: %v", err)
		}
		return a.Step
	}

	if *headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err := hal.RunHeadless(ctx, hal.HeadlessConfig{Opts: opts, Ticks: *ticks}, newApp)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, app.ErrHalted) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	title := fmt.Sprintf("%s %s (%s)", buildinfo.OSName, buildinfo.OSRelease, buildinfo.Short())
	if err := hal.RunWindow(title, opts, newApp); err != nil && !errors.Is(err, app.ErrHalted) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func randomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}
