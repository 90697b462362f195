// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides package scoped loggers on top of the go-ethereum slog logger.
package log

import (
	"context"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger writes key/value pairs to a handler.
type Logger interface {
	New(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

// Levels, aligned with the legacy verbosity flag (0 crit .. 5 trace).
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// contextLogger resolves the root logger on every call, so loggers declared as package
// variables follow handlers installed later by SetDefault.
type contextLogger struct {
	ctx []any
}

// WithContext returns a logger carrying the given key/value pairs.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

// Root returns the root logger.
func Root() Logger {
	return &contextLogger{}
}

func (l *contextLogger) root() ethlog.Logger {
	if len(l.ctx) == 0 {
		return ethlog.Root()
	}
	return ethlog.Root().With(l.ctx...)
}

func (l *contextLogger) New(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(append(merged, l.ctx...), ctx...)
	return &contextLogger{ctx: merged}
}

func (l *contextLogger) Trace(msg string, ctx ...any) { l.root().Trace(msg, ctx...) }
func (l *contextLogger) Debug(msg string, ctx ...any) { l.root().Debug(msg, ctx...) }
func (l *contextLogger) Info(msg string, ctx ...any)  { l.root().Info(msg, ctx...) }
func (l *contextLogger) Warn(msg string, ctx ...any)  { l.root().Warn(msg, ctx...) }
func (l *contextLogger) Error(msg string, ctx ...any) { l.root().Error(msg, ctx...) }

// SetDefault installs h, filtered to the given level, as the root handler.
func SetDefault(h slog.Handler, level slog.Level) {
	glog := ethlog.NewGlogHandler(h)
	glog.Verbosity(level)
	ethlog.SetDefault(ethlog.NewLogger(glog))
}

// NewTerminalHandler returns a human readable handler.
func NewTerminalHandler(w io.Writer, useColor bool) slog.Handler {
	return ethlog.NewTerminalHandler(w, useColor)
}

// NewJSONHandler returns a handler writing one json object per record.
func NewJSONHandler(w io.Writer) slog.Handler {
	return ethlog.JSONHandler(w)
}

// NewLevelHandler returns a handler filtered by lvl, which may be changed while running.
// It writes json when asJSON is set, human readable lines otherwise.
func NewLevelHandler(w io.Writer, lvl slog.Leveler, asJSON, useColor bool) slog.Handler {
	var h slog.Handler
	if asJSON {
		h = ethlog.JSONHandlerWithLevel(w, LevelTrace)
	} else {
		h = ethlog.NewTerminalHandlerWithLevel(w, LevelTrace, useColor)
	}
	return &levelHandler{lvl: lvl, inner: h}
}

// levelHandler reads its level on every record.
type levelHandler struct {
	lvl   slog.Leveler
	inner slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.lvl.Level() && h.inner.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{lvl: h.lvl, inner: h.inner.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{lvl: h.lvl, inner: h.inner.WithGroup(name)}
}

// SetHandler installs h as the root handler as is.
func SetHandler(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// FromVerbosity converts the legacy 0-5 verbosity into a level.
func FromVerbosity(v int) slog.Level {
	return ethlog.FromLegacyLevel(v)
}

// Discard silences all logging, used by tests.
func Discard() {
	ethlog.SetDefault(ethlog.NewLogger(ethlog.DiscardHandler()))
}

// Package level helpers writing to the root logger.

func Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { ethlog.Root().Error(msg, ctx...) }
