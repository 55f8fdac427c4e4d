package hal

import (
	"context"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Opts Options
	// Ticks stops the run after that many timer ticks; zero runs until
	// the context ends.
	Ticks uint64
}

// RunHeadless runs the OS without opening a window. Each ticker firing
// emits exactly one timer tick, so a run with a Ticks limit is
// reproducible.
func RunHeadless(ctx context.Context, cfg HeadlessConfig, newApp func(HAL) func() error) error {
	h := New(cfg.Opts).(*hostHAL)
	step := newApp(h)

	ticker := time.NewTicker(h.t.dur)
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			h.t.emit(1)
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
