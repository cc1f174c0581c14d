// Package logger provides the project-wide structured logging interface on
// top of zap.
package logger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the logging interface.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field                 { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field        { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field        { return Field{Key: key, Value: val} }
func Error(err error) Field                        { return Field{Key: "error", Value: err} }

type ctxKey struct{}

// WithRequestID returns a context whose log lines carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// zapLogger implements Logger using zap.
type zapLogger struct {
	l *zap.Logger
}

// New wraps an existing zap logger, e.g. one from zaptest.
func New(l *zap.Logger) Logger {
	return &zapLogger{l: l}
}

func (z *zapLogger) Named(name string) Logger {
	return &zapLogger{l: z.l.Named(name)}
}

func (z *zapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	z.l.Info(msg, convertFields(ctx, fields)...)
}

func (z *zapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	z.l.Error(msg, convertFields(ctx, fields)...)
}

func (z *zapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	z.l.Debug(msg, convertFields(ctx, fields)...)
}

func (z *zapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	z.l.Warn(msg, convertFields(ctx, fields)...)
}

func (z *zapLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	z.l.Fatal(msg, convertFields(ctx, fields)...)
}

func convertFields(ctx context.Context, fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	if id, ok := RequestID(ctx); ok {
		out = append(out, zap.String("request_id", id))
	}
	for _, f := range fields {
		if err, ok := f.Value.(error); ok && f.Key == "error" {
			out = append(out, zap.Error(err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// Option configures Init.
type Option func(*options)

type options struct {
	json   bool
	level  string
	output []string
}

// WithJSON switches the encoder from console to JSON.
func WithJSON(json bool) Option {
	return func(o *options) { o.json = json }
}

// WithLevel sets the initial level; see SetLevelString.
func WithLevel(level string) Option {
	return func(o *options) { o.level = level }
}

// WithOutputPaths sets zap output sinks. Defaults to stdout.
func WithOutputPaths(paths ...string) Option {
	return func(o *options) {
		if len(paths) > 0 {
			o.output = paths
		}
	}
}

var (
	mu     sync.RWMutex
	global Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base   *zap.Logger
)

// Init initializes the global logger.
func Init(opts ...Option) error {
	o := options{level: "info", output: []string{"stdout"}}
	for _, opt := range opts {
		opt(&o)
	}
	lvl, err := parseLevel(o.level)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)

	encoding := "console"
	if o.json {
		encoding = "json"
	}
	cfg := zap.Config{
		Encoding:         encoding,
		Level:            level,
		OutputPaths:      o.output,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:    "msg",
			LevelKey:      "level",
			EncodeLevel:   zapcore.LowercaseLevelEncoder,
			TimeKey:       "time",
			EncodeTime:    zapcore.RFC3339TimeEncoder,
			NameKey:       "logger",
			CallerKey:     "caller",
			EncodeCaller:  zapcore.ShortCallerEncoder,
			StacktraceKey: "stacktrace",
		},
	}
	// skip the zapLogger method frame so callers are reported
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	mu.Lock()
	base = l
	global = &zapLogger{l: l}
	mu.Unlock()
	return nil
}

// Set replaces the global logger.
func Set(l Logger) {
	mu.Lock()
	global = l
	mu.Unlock()
}

// Get returns the global logger, or a no-op logger before Init.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return &zapLogger{l: zap.NewNop()}
	}
	return global
}

// Named creates a named logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		return nil
	}
	if err := base.Sync(); err != nil && !isStdSyncErr(err) {
		return err
	}
	return nil
}

// syncing stdout on a terminal or pipe returns EINVAL/ENOTTY on linux.
func isStdSyncErr(err error) bool {
	s := err.Error()
	return strings.Contains(s, "invalid argument") || strings.Contains(s, "inappropriate ioctl")
}

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(s string) error {
	lvl, err := parseLevel(s)
	if err != nil {
		return err
	}
	level.SetLevel(lvl)
	return nil
}

// Level returns the current level name.
func Level() string {
	return level.Level().String()
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", s)
}
