package logging

import (
	"log/slog"
	"sync/atomic"
)

// traceEnabled gates per-tick logging. Observation loops run at intervals
// down to 50ms; their logs stay silent unless tracing is switched on.
var traceEnabled atomic.Bool

// SetTrace switches trace logging on or off.
func SetTrace(on bool) {
	traceEnabled.Store(on)
}

// TraceEnabled reports whether trace logging is on. Hot paths can check
// it before building expensive attributes.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// Trace logs to the default logger at DEBUG level when tracing is on.
func Trace(msg string, args ...any) {
	if traceEnabled.Load() {
		slog.Debug(msg, args...)
	}
}
