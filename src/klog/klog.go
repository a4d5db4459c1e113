// Package klog is the kernel's only logging sink: a level-gated
// writer over the serial port, formatting every line as
// "[secs.micros] message\n", grounded on
// original_source/kernel/src/logging.rs's Off/Fatal/Error/Warn/Info/Debug
// level ladder.
package klog

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Level orders the kernel's log levels from least to most verbose,
// matching original_source/kernel/src/logging.rs exactly.
type Level int

const (
	Off Level = iota
	Fatal
	Error
	Warn
	Info
	Debug
)

// Clock supplies the (seconds, microseconds) pair stamped on every
// line; boot glue supplies it (cmd/kernel passes a counter that
// advances once per call), tests supply a fixed fake.
type Clock func() (secs uint64, micros uint64)

// Logger serializes writes to a single io.Writer (ordinarily a
// *serial.Port) behind a level filter.
type Logger struct {
	mu sync.Mutex
	out io.Writer
	level Level
	clock Clock
	p *message.Printer
}

// New builds a Logger writing to out, gated at level, timestamped by
// clock. p uses message.NewPrinter purely for its number-formatting
// helpers (thousands separators on byte counts in boot diagnostics);
// this kernel has no locale concept, so message.NewPrinter(language.Und)
// is the one sensible choice.
func New(out io.Writer, level Level, clock Clock) *Logger {
	return &Logger{out: out, level: level, clock: clock, p: message.NewPrinter(language.Und)}
}

func (l *Logger) logf(level Level, format string, args...any) {
	if level > l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	secs, micros := uint64(0), uint64(0)
	if l.clock != nil {
		secs, micros = l.clock()
	}
	fmt.Fprintf(l.out, "[%d.%06d] %s\n", secs, micros, fmt.Sprintf(format, args...))
}

func (l *Logger) Fatalf(format string, args...any) { l.logf(Fatal, format, args...) }
func (l *Logger) Errorf(format string, args...any) { l.logf(Error, format, args...) }
func (l *Logger) Warnf(format string, args...any) { l.logf(Warn, format, args...) }
func (l *Logger) Infof(format string, args...any) { l.logf(Info, format, args...) }
func (l *Logger) Debugf(format string, args...any) { l.logf(Debug, format, args...) }

// Write logs p as a single Info-level line and always reports success,
// the sink sys_write lands fd 1 and fd 2 writes in.
func (l *Logger) Write(p []byte) (int, error) {
	l.logf(Info, "%s", p)
	return len(p), nil
}

// FormatBytes renders n bytes with thousands separators (e.g.
// "1,048,576 bytes"), used when boot diagnostics log region and heap
// sizes — a production kernel log pretty-printing sizes the way
// original_source's own diagnostics call out region sizes in full.
func (l *Logger) FormatBytes(n uint64) string {
	return l.p.Sprintf("%d bytes", n)
}
