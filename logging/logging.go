// Package logging provides the narrow logging seam used throughout
// jdbcx-core. The interface is adapted from the teacher's
// database/logger.go as leveled Debug/Info/Warn/Error plus With for
// structured fields, so extensions and
// the bridge server can be unit tested against a NullLogger, while the
// real backend is github.com/rs/zerolog for structured, leveled output.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the seam every package in jdbcx-core depends on.
type Logger interface {
	Debug(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, err error, kv ...any)
	Info(msg string, kv ...any)
	With(kv ...any) Logger
}

// zlog adapts zerolog.Logger to the Logger seam.
type zlog struct {
	l zerolog.Logger
}

// New builds a zerolog-backed Logger writing to w at the given level
// ("debug", "info", "warn", "error"; anything else defaults to "info").
func New(w io.Writer, level string) Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return &zlog{l: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}
}

func fields(ev *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	return ev
}

func (z *zlog) Debug(msg string, kv ...any) { fields(z.l.Debug(), kv).Msg(msg) }
func (z *zlog) Info(msg string, kv ...any)   { fields(z.l.Info(), kv).Msg(msg) }
func (z *zlog) Warn(msg string, kv ...any)   { fields(z.l.Warn(), kv).Msg(msg) }
func (z *zlog) Error(msg string, err error, kv ...any) {
	fields(z.l.Error().Err(err), kv).Msg(msg)
}

func (z *zlog) With(kv ...any) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, kv[i+1])
	}
	return &zlog{l: ctx.Logger()}
}

// NullLogger discards everything; used in tests and by extensions run
// with logging disabled.
type NullLogger struct{}

func (NullLogger) Debug(string, ...any)        {}
func (NullLogger) Info(string, ...any)         {}
func (NullLogger) Warn(string, ...any)         {}
func (NullLogger) Error(string, error, ...any) {}
func (NullLogger) With(...any) Logger          { return NullLogger{} }
