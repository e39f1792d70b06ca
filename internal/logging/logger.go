// Package logging builds the zap loggers used across splashwatch.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category tags log lines with the part of the pipeline that produced them.
type Category string

const (
	CategoryApp      Category = "APP"
	CategoryTail     Category = "TAIL"
	CategoryClassify Category = "CLASSIFY"
	CategoryRegistry Category = "REGISTRY"
	CategoryJournal  Category = "JOURNAL"
	CategoryUI       Category = "UI"
)

// Options configure a logger.
type Options struct {
	Level      string // debug, info, warn, error
	OutputFile string // empty writes to Output
	Output     io.Writer
}

// ParseLevel converts a textual level. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a console logger. The returned close function flushes and
// releases the output file, if any.
func New(opts Options) (*zap.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() error { return nil }
	var sink zapcore.WriteSyncer
	switch {
	case strings.TrimSpace(opts.OutputFile) != "":
		if err := os.MkdirAll(filepath.Dir(opts.OutputFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(opts.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", opts.OutputFile, err)
		}
		sink = zapcore.AddSync(file)
		closeFn = file.Close
	case opts.Output != nil:
		sink = zapcore.AddSync(opts.Output)
	default:
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(consoleEncoder(), sink, level)
	logger := zap.New(core)
	return logger, func() error {
		_ = logger.Sync()
		return closeFn()
	}, nil
}

// For returns a child logger tagged with cat.
func For(logger *zap.Logger, cat Category) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(string(cat))
}

// NewNop returns a logger that discards everything.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

func consoleEncoder() zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("15:04:05"))
	}

	// Single letter level: D, I, W, E
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		switch level {
		case zapcore.DebugLevel:
			enc.AppendString("D")
		case zapcore.InfoLevel:
			enc.AppendString("I")
		case zapcore.WarnLevel:
			enc.AppendString("W")
		case zapcore.ErrorLevel:
			enc.AppendString("E")
		default:
			enc.AppendString("?")
		}
	}

	config.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + name + "]")
	}

	return zapcore.NewConsoleEncoder(config)
}
