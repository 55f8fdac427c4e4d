package hal

import (
	"github.com/sirupsen/logrus"
)

// Options configure the host HAL.
type Options struct {
	// Log receives kernel log lines. Nil selects logrus.StandardLogger.
	Log *logrus.Logger
	// Width and Height size the emulated panel in pixels.
	Width  int
	Height int
	// Hz is the timer tick rate.
	Hz int
}

func (o *Options) withDefaults() {
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.Width <= 0 {
		o.Width = 480
	}
	if o.Height <= 0 {
		o.Height = 200
	}
	if o.Hz <= 0 {
		o.Hz = 100
	}
}

type hostHAL struct {
	logger *hostLogger
	fb     *hostFramebuffer
	kbd    *hostKeyboard
	t      *hostTime
}

// New returns a host HAL implementation.
func New(opts Options) HAL {
	opts.withDefaults()
	return &hostHAL{
		logger: &hostLogger{log: opts.Log},
		fb:     newHostFramebuffer(opts.Width, opts.Height),
		kbd:    newHostKeyboard(),
		t:      newHostTime(opts.Hz),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input     { return hostInput{kbd: h.kbd} }
func (h *hostHAL) Time() Time       { return h.t }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostInput struct {
	kbd *hostKeyboard
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }

// hostLogger lands kernel log lines in the host's logrus logger. The
// lines carry their own tick stamp and level text, so they pass through
// at Info with a source field rather than being re-leveled.
type hostLogger struct {
	log *logrus.Logger
}

func (l *hostLogger) WriteLineString(s string) {
	l.log.WithField("src", "kernel").Info(s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.log.WithField("src", "kernel").Info(string(b))
}
