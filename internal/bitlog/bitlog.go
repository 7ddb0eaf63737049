// Package bitlog is a thin wrapper over log/slog used by the flash drivers
// to route the diagnostic lines spec.md calls for (vendor, size,
// buffer/block sizes, status registers) to a structured log sink instead of
// stdout. Grounded on NixM0nk3y-openenterprise-bindicator/telemetry/slog.go,
// which wraps log/slog the same way for this corpus.
package bitlog

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// SetLogger installs l as the destination for driver diagnostics. Passing
// nil restores slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func current() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Debug logs driver-internal detail (bit-banged line discipline is too
// noisy for Info).
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Info logs once-per-operation detail: vendor identification, negotiated
// geometry, register dumps.
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Warn logs a recoverable anomaly that does not itself fail the call.
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}
