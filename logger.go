package dot

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler drops every record and reports every level as disabled.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var silent = slog.New(nopHandler{})

var current atomic.Pointer[slog.Logger]

func init() { current.Store(silent) }

// SetLogger routes the log output of dot, its backends and the recording
// package to l. A nil l silences them again, which is also the initial
// state.
//
// Device calls and buffer uploads are logged at Debug, the chosen backend
// and GPU adapter at Info, a backend that fails and is skipped by
// BackendAuto at Warn, and messages passed to LogAlerter at Error.
// SetLogger may be called while other goroutines are logging.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger installed by SetLogger.
func Logger() *slog.Logger { return current.Load() }
