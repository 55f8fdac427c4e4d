// Package klog is the kernel log: every line is stamped with the kernel
// tick, kept in a fixed ring for dmesg, and forwarded to the HAL logger.
package klog

import (
	"fmt"

	"ironveil/hal"
)

// Level orders log severities.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps a level name back to its value.
func ParseLevel(s string) (Level, bool) {
	for l := LevelDebug; l <= LevelError; l++ {
		if l.String() == s {
			return l, true
		}
	}
	return 0, false
}

// RingSize is how many recent lines dmesg can replay.
const RingSize = 128

// Entry is one retained log line.
type Entry struct {
	Seq   uint64
	Tick  uint64
	Level Level
	Text  string
}

func (e Entry) String() string {
	return fmt.Sprintf("[%6d] %-5s %s", e.Tick, e.Level, e.Text)
}

// Logger stamps, retains, and forwards kernel log lines. Called only from
// the kernel step loop.
type Logger struct {
	sink hal.Logger
	min  Level
	now  func() uint64
	ring [RingSize]Entry
	seq  uint64
}

// New builds a logger writing to sink. Lines below min are dropped. now
// supplies the kernel tick; nil stamps zero.
func New(sink hal.Logger, min Level, now func() uint64) *Logger {
	return &Logger{sink: sink, min: min, now: now}
}

// MinLevel returns the drop threshold.
func (l *Logger) MinLevel() Level { return l.min }

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(lv Level, format string, args ...any) {
	if lv < l.min {
		return
	}
	var tick uint64
	if l.now != nil {
		tick = l.now()
	}
	l.seq++
	e := Entry{Seq: l.seq, Tick: tick, Level: lv, Text: fmt.Sprintf(format, args...)}
	l.ring[(l.seq-1)%RingSize] = e
	if l.sink != nil {
		l.sink.WriteLineString(e.String())
	}
}

// Last returns up to n retained entries, oldest first.
func (l *Logger) Last(n int) []Entry {
	if n <= 0 || l.seq == 0 {
		return nil
	}
	avail := l.seq
	if avail > RingSize {
		avail = RingSize
	}
	if uint64(n) > avail {
		n = int(avail)
	}
	out := make([]Entry, 0, n)
	for s := l.seq - uint64(n) + 1; s <= l.seq; s++ {
		out = append(out, l.ring[(s-1)%RingSize])
	}
	return out
}
