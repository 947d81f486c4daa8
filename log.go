package evdev

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Priority mirrors syslog-style severity for the package's diagnostic
// output (§5, §10): mid-resync degradation and other non-fatal surprises
// are reported through this sink rather than returned as errors, since
// the caller already gets the best-effort result.
type Priority int32

const (
	PriorityDebug Priority = iota
	PriorityInfo
	PriorityWarn
	PriorityError
)

func (p Priority) String() string {
	switch p {
	case PriorityDebug:
		return "debug"
	case PriorityInfo:
		return "info"
	case PriorityWarn:
		return "warn"
	case PriorityError:
		return "error"
	default:
		return "unknown"
	}
}

// LogFunc receives one diagnostic line. format/args follow fmt.Sprintf
// conventions.
type LogFunc func(p Priority, format string, args ...any)

var (
	logSink  atomic.Pointer[LogFunc]
	logLevel atomic.Int32
)

func init() {
	var f LogFunc = logrusSink
	logSink.Store(&f)
	logLevel.Store(int32(PriorityInfo))
}

// SetLogSink replaces the package-wide diagnostic sink. Passing nil
// silences all output. Safe to call concurrently with any other
// package operation (§5).
func SetLogSink(f LogFunc) {
	if f == nil {
		logSink.Store(nil)
		return
	}
	logSink.Store(&f)
}

// SetLogLevel sets the minimum priority that reaches the sink.
func SetLogLevel(p Priority) {
	logLevel.Store(int32(p))
}

func logf(p Priority, format string, args ...any) {
	if int32(p) < logLevel.Load() {
		return
	}
	fp := logSink.Load()
	if fp == nil {
		return
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		format = fmt.Sprintf("%s:%d: ", filepath.Base(file), line) + format
	}
	(*fp)(p, format, args...)
}

func logrusSink(p Priority, format string, args ...any) {
	entry := logrus.WithField("component", "evdev")
	switch p {
	case PriorityDebug:
		entry.Debugf(format, args...)
	case PriorityInfo:
		entry.Infof(format, args...)
	case PriorityWarn:
		entry.Warnf(format, args...)
	default:
		entry.Errorf(format, args...)
	}
}
