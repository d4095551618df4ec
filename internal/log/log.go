// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package log defines the logging helpers for the task-graph generator. The
// program logs through [log/slog], and this package adds context-aware level
// helpers and a trace level below debug.
package log

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// LevelTrace is the custom logging level below [slog.LevelDebug] used for the
// most verbose output.
const LevelTrace = slog.LevelDebug - 4

// logCallerDepth is the depth of the stack trace to skip when logging.
// The skipped stack is [runtime.Callers, the function, the function's caller].
const logCallerDepth = 3

// ignorePC controls whether to invoke runtime.Callers to get the pc in
// the logging functions. This is solely for making the logging function
// analogous with the logging functions in the standard library.
var ignorePC = false //nolint:gochecknoglobals // can be set at compile time

// Trace calls [log] with level set to trace on the default logger.
func Trace(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.Default(), LevelTrace, msg, args...)
}

// Debug calls [log] with level set to debug on the default logger.
func Debug(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.Default(), slog.LevelDebug, msg, args...)
}

// Info calls [log] with level set to info on the default logger.
func Info(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.Default(), slog.LevelInfo, msg, args...)
}

// Warn calls [log] with level set to warn on the default logger.
func Warn(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.Default(), slog.LevelWarn, msg, args...)
}

// Error calls [log] with level set to error on the default logger.
func Error(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.Default(), slog.LevelError, msg, args...)
}

// log is the low-level logging method for methods that take ...any. It must
// always be called directly by an exported logging method or function, because
// it uses a fixed call depth to obtain the pc.
func log(ctx context.Context, l *slog.Logger, level slog.Level, msg string, args ...any) {
	if !l.Enabled(ctx, level) {
		return
	}

	var pc uintptr

	if !ignorePC {
		var pcs [1]uintptr

		runtime.Callers(logCallerDepth, pcs[:])

		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)

	r.Add(args...)

	if ctx == nil {
		panic("logging context is nil")
	}

	if err := l.Handler().Handle(ctx, r); err != nil {
		panic(err)
	}
}
