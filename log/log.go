// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is a thin layer over go-ethereum's slog based logger.
// Package level loggers created with WithContext resolve the root logger on
// every call, so they follow handlers installed later by the command line.
package log

import (
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Levels, mirrored from go-ethereum.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// Logger writes key/value pairs at a level.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
}

type lazyLogger struct {
	ctx []any
}

// WithContext returns a logger that prepends ctx to every record.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx: ctx}
}

// Root returns the logger without context.
func Root() Logger {
	return &lazyLogger{}
}

func (l *lazyLogger) join(ctx []any) []any {
	if len(l.ctx) == 0 {
		return ctx
	}
	return append(append(make([]any, 0, len(l.ctx)+len(ctx)), l.ctx...), ctx...)
}

func (l *lazyLogger) With(ctx ...any) Logger {
	return &lazyLogger{ctx: l.join(ctx)}
}

func (l *lazyLogger) Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, l.join(ctx)...) }
func (l *lazyLogger) Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, l.join(ctx)...) }
func (l *lazyLogger) Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, l.join(ctx)...) }
func (l *lazyLogger) Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, l.join(ctx)...) }
func (l *lazyLogger) Error(msg string, ctx ...any) { ethlog.Root().Error(msg, l.join(ctx)...) }

// Crit logs at the critical level without exiting the process.
func (l *lazyLogger) Crit(msg string, ctx ...any) {
	ethlog.Root().Log(LevelCrit, msg, l.join(ctx)...)
}

// SetDefault installs handler as the root handler.
func SetDefault(handler slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(handler))
}

// NewTerminalHandlerWithLevel returns a human friendly handler filtered at lvl.
func NewTerminalHandlerWithLevel(w io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	return ethlog.NewTerminalHandlerWithLevel(w, lvl, useColor)
}

// JSONHandlerWithLevel returns a handler writing one JSON object per record.
func JSONHandlerWithLevel(w io.Writer, lvl slog.Level) slog.Handler {
	return ethlog.JSONHandlerWithLevel(w, lvl)
}

// FromLegacyLevel converts the 0 (crit) .. 5 (trace) verbosity scale.
func FromLegacyLevel(verbosity int) slog.Level {
	return ethlog.FromLegacyLevel(verbosity)
}

// DiscardHandler drops every record.
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}
