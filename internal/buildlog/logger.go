// Package buildlog is the line-oriented build console the host gives a step,
// plus adapters that send the same lines to structured loggers.
package buildlog

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// Attr creates a Field with the given key and value.
func Attr(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Err creates a Field for an error with the standard "error" key.
func Err(err error) Field {
	var errMsg string
	if err != nil {
		errMsg = err.Error()
	}
	return Field{Key: "err_msg", Value: errMsg}
}

// Logger is the build console.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
}

// NewFromZerolog wraps a zerolog.Logger to satisfy the Logger interface.
func NewFromZerolog(zl *zerolog.Logger) Logger {
	return &zerologAdapter{zl: zl}
}

type zerologAdapter struct {
	zl *zerolog.Logger
}

func (z *zerologAdapter) Info(ctx context.Context, msg string, fields ...Field) {
	z.emit(z.zl.Info().Ctx(ctx), msg, fields)
}

func (z *zerologAdapter) Warn(ctx context.Context, msg string, fields ...Field) {
	z.emit(z.zl.Warn().Ctx(ctx), msg, fields)
}

func (z *zerologAdapter) Debug(ctx context.Context, msg string, fields ...Field) {
	z.emit(z.zl.Debug().Ctx(ctx), msg, fields)
}

func (z *zerologAdapter) Error(ctx context.Context, msg string, fields ...Field) {
	z.emit(z.zl.Error().Ctx(ctx), msg, fields)
}

func (z *zerologAdapter) emit(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		e = e.Any(f.Key, f.Value)
	}
	e.Msg(msg)
}

// NewConsole returns a Logger writing one plain line per message to w, the
// way a build console shows it. Info lines carry no prefix.
func NewConsole(w io.Writer) Logger {
	return &console{w: w}
}

type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) Info(_ context.Context, msg string, fields ...Field) {
	c.println("", msg, fields)
}

func (c *console) Warn(_ context.Context, msg string, fields ...Field) {
	c.println("[WARN] ", msg, fields)
}

func (c *console) Debug(_ context.Context, msg string, fields ...Field) {
	c.println("[DEBUG] ", msg, fields)
}

func (c *console) Error(_ context.Context, msg string, fields ...Field) {
	c.println("[ERROR] ", msg, fields)
}

func (c *console) println(prefix, msg string, fields []Field) {
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(msg)
	for _, f := range fields {
		fmt.Fprintf(&sb, " %s=%v", f.Key, f.Value)
	}
	sb.WriteByte('\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	//nolint:errcheck // nothing sensible to do when the console is gone
	io.WriteString(c.w, sb.String())
}

// Tee sends every message to all the given loggers.
func Tee(loggers ...Logger) Logger {
	return tee(loggers)
}

type tee []Logger

func (t tee) Info(ctx context.Context, msg string, fields ...Field) {
	for _, l := range t {
		l.Info(ctx, msg, fields...)
	}
}

func (t tee) Warn(ctx context.Context, msg string, fields ...Field) {
	for _, l := range t {
		l.Warn(ctx, msg, fields...)
	}
}

func (t tee) Debug(ctx context.Context, msg string, fields ...Field) {
	for _, l := range t {
		l.Debug(ctx, msg, fields...)
	}
}

func (t tee) Error(ctx context.Context, msg string, fields ...Field) {
	for _, l := range t {
		l.Error(ctx, msg, fields...)
	}
}

// Nop returns a no-op logger that discards all output.
func Nop() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Info(_ context.Context, _ string, _ ...Field)  {}
func (n *nopLogger) Warn(_ context.Context, _ string, _ ...Field)  {}
func (n *nopLogger) Debug(_ context.Context, _ string, _ ...Field) {}
func (n *nopLogger) Error(_ context.Context, _ string, _ ...Field) {}
