// Package logger exposes a process-wide sugared Zap logger. It writes JSON
// to stdout, accepts the minimum level via a functional option, and bridges
// into OpenTelemetry when a log provider has been registered through the
// telemetry package.
package logger

import (
	"context"
	"os"
	"sync"

	"github.com/satwatch/satwatch/internal/pkg/telemetry"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// log is the shared SugaredLogger. It starts as a no-op so packages can
	// log safely before Init runs (mainly in tests).
	log = zap.NewNop().Sugar()

	// initOnce guards one-time configuration.
	initOnce sync.Once
)

type config struct {
	level string
}

// Option adjusts logger configuration prior to initialization.
type Option func(*config)

// WithLevel sets the minimum level ("debug", "info", "warn", "error", ...).
func WithLevel(l string) Option {
	return func(c *config) {
		c.level = l
	}
}

// Init configures the shared logger. The default is JSON to stdout at info
// level. When telemetry.LoggerProvider() reports a provider, an OTEL bridge
// core is attached so records also reach the collector. Subsequent calls are
// no-ops.
func Init(opts ...Option) error {
	cfg := config{level: "info"}
	for _, opt := range opts {
		opt(&cfg)
	}

	level, err := zapcore.ParseLevel(cfg.level)
	if err != nil {
		return err
	}

	initOnce.Do(func() {
		cores := []zapcore.Core{
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				level,
			),
		}

		if lp := telemetry.LoggerProvider(); lp != nil {
			cores = append(cores, otelzap.NewCore("satwatch", otelzap.WithLoggerProvider(lp)))
		}

		log = zap.New(zapcore.NewTee(cores...)).Sugar()
	})

	return nil
}

// Sync flushes buffered entries. Call it on shutdown.
func Sync() error {
	return log.Sync()
}

// Debug logs a debug-level message with key/value context.
func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	log.Debugw(msg, keysAndValues...)
}

// Info logs an info-level message with key/value context.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	log.Infow(msg, keysAndValues...)
}

// Warn logs a warn-level message with key/value context.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	log.Warnw(msg, keysAndValues...)
}

// Error logs an error-level message with key/value context.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	log.Errorw(msg, keysAndValues...)
}

// Fatal logs a fatal-level message and exits.
func Fatal(ctx context.Context, msg string, keysAndValues ...any) {
	log.Fatalw(msg, keysAndValues...)
}
