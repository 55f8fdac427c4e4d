package hal

import "time"

// hostTime turns wall time into a tick stream at a fixed rate. Ticks are
// dropped rather than queued without bound when the consumer falls
// behind; the kernel only counts ticks it actually sees.
type hostTime struct {
	ch  chan uint64
	seq uint64
	dur time.Duration

	last time.Time
	acc  time.Duration
}

func newHostTime(hz int) *hostTime {
	if hz <= 0 {
		hz = 100
	}
	return &hostTime{
		ch:  make(chan uint64, 1024),
		dur: time.Second / time.Duration(hz),
	}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// advance emits the ticks that elapsed since the previous call.
func (t *hostTime) advance() {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.emit(1)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	n := uint64(t.acc / t.dur)
	if n == 0 {
		return
	}
	t.acc -= time.Duration(n) * t.dur
	t.emit(n)
}

func (t *hostTime) emit(n uint64) {
	for i := uint64(0); i < n; i++ {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}
