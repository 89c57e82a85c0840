package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"tweetcloud/pkg/config"
)

// Logger is the structured logger handed to every component
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
	WithContext(ctx context.Context) Logger

	DebugWithFields(msg string, fields map[string]interface{})
	InfoWithFields(msg string, fields map[string]interface{})
	WarnWithFields(msg string, fields map[string]interface{})
	ErrorWithFields(msg string, fields map[string]interface{})
}

// zlog wraps a zerolog.Logger. Child loggers carry their fields in the
// zerolog context, so the parent is never modified.
type zlog struct {
	zl zerolog.Logger
}

var levels = map[string]zerolog.Level{
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"disabled": zerolog.Disabled,
}

// parseLogLevel maps a config level name to a zerolog level
func parseLogLevel(level string) (zerolog.Level, error) {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l, nil
	}
	return zerolog.InfoLevel, fmt.Errorf("unknown log level: %q", level)
}

// New creates a Logger writing to stderr (and to cfg.File when set)
func New(cfg *config.LoggingConfig) (Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates a Logger whose console output goes to w. The log
// file, when configured, always receives JSON lines.
func NewWithWriter(cfg *config.LoggingConfig, w io.Writer) (Logger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339

	writers := []io.Writer{consoleWriter(cfg.Format, w)}
	if cfg.File != "" {
		f, err := openLogFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to setup file output: %w", err)
		}
		writers = append(writers, f)
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("app", "tweetcloud").
		Logger()

	return &zlog{zl: zl}, nil
}

func consoleWriter(format string, w io.Writer) io.Writer {
	if strings.EqualFold(format, "json") {
		return w
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		FormatLevel: func(i interface{}) string {
			s, _ := i.(string)
			return strings.ToUpper(fmt.Sprintf("%-5s", s))
		},
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &zlog{zl: zerolog.Nop()}
}

// normalize renders durations readably; everything else is left to
// zerolog's own field encoding
func normalize(fields map[string]interface{}) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if d, ok := v.(time.Duration); ok {
			v = d.Round(time.Millisecond).String()
		}
		out[k] = v
	}
	return out
}

func (l *zlog) emit(e *zerolog.Event, msg string, fields map[string]interface{}) {
	if f := normalize(fields); f != nil {
		e = e.Fields(f)
	}
	e.Msg(msg)
}

func (l *zlog) Debug(msg string) { l.emit(l.zl.Debug(), msg, nil) }
func (l *zlog) Info(msg string)  { l.emit(l.zl.Info(), msg, nil) }
func (l *zlog) Warn(msg string)  { l.emit(l.zl.Warn(), msg, nil) }
func (l *zlog) Error(msg string) { l.emit(l.zl.Error(), msg, nil) }

func (l *zlog) DebugWithFields(msg string, fields map[string]interface{}) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *zlog) InfoWithFields(msg string, fields map[string]interface{}) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *zlog) WarnWithFields(msg string, fields map[string]interface{}) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *zlog) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.emit(l.zl.Error(), msg, fields)
}

func (l *zlog) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *zlog) WithFields(fields map[string]interface{}) Logger {
	return &zlog{zl: l.zl.With().Fields(normalize(fields)).Logger()}
}

func (l *zlog) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return &zlog{zl: l.zl.With().Err(err).Logger()}
}

func (l *zlog) WithContext(ctx context.Context) Logger {
	return &zlog{zl: l.zl.With().Ctx(ctx).Logger()}
}
