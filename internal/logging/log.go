// Package logging provides the structured logging used across gitnetics: a
// console handler honoring debug mode and quiet mode, fanned out to an
// optional rotating log file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// consoleHandler writes bare messages (no timestamp, no level prefix) to the
// console, respecting debug mode and quiet mode.
type consoleHandler struct {
	writer    io.Writer
	debugMode bool
	quiet     *bool
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level == slog.LevelDebug {
		return h.debugMode
	}
	return true
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if *h.quiet {
		return nil
	}
	_, err := fmt.Fprintln(h.writer, record.Message)
	return err
}

func (h *consoleHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *consoleHandler) WithGroup(_ string) slog.Handler      { return h }

// multiHandler fans a record out to every handler that wants it.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}

func newLumberjackLogger(logFilePath string) *lumberjack.Logger {
	cfg := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    1,
		MaxBackups: 2,
		MaxAge:     30,
		Compress:   false,
	}
	if v := os.Getenv("GITNETICS_LOG_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSize = n
		}
	}
	if v := os.Getenv("GITNETICS_LOG_MAX_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxBackups = n
		}
	}
	if v := os.Getenv("GITNETICS_LOG_MAX_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAge = n
		}
	}
	return cfg
}

// Logger is the application-wide logging handle. It wraps one slog logger
// (console + optional file); Summary returns a prefixing view of it used
// for the one-line-per-project narration the orchestrator emits.
type Logger struct {
	logger    *slog.Logger
	logWriter io.WriteCloser
	quiet     bool
}

// New creates a Logger with console-only output. Debug messages are enabled
// when the DEBUG environment variable is set.
func New() *Logger {
	l, _ := NewWithLogFile("")
	return l
}

// NewWithLogFile creates a Logger that additionally writes to a rotating log
// file at logFilePath. An empty path disables file logging.
func NewWithLogFile(logFilePath string) (*Logger, error) {
	debugMode := os.Getenv("DEBUG") != ""
	l := &Logger{}

	handlers := []slog.Handler{&consoleHandler{
		writer:    os.Stdout,
		debugMode: debugMode,
		quiet:     &l.quiet,
	}}

	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o750); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		lj := newLumberjackLogger(logFilePath)
		l.logWriter = lj
		fileHandler := slog.NewTextHandler(lj, &slog.HandlerOptions{
			Level: slog.LevelDebug,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{Key: a.Key, Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000"))}
				}
				return a
			},
		})
		handlers = append(handlers, fileHandler)
	}

	l.logger = slog.New(&multiHandler{handlers: handlers})
	return l, nil
}

// SetQuiet suppresses console output when true; file output is unaffected.
func (l *Logger) SetQuiet(quiet bool) { l.quiet = quiet }

func (l *Logger) log(level slog.Level, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.logger.Log(context.Background(), level, msg)
}

func (l *Logger) Info(format string, args ...any)  { l.log(slog.LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(slog.LevelWarn, "warning: "+format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(slog.LevelError, "error: "+format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.log(slog.LevelDebug, format, args...) }

// Close closes the underlying log file, if one was opened.
func (l *Logger) Close() error {
	if l.logWriter != nil {
		return l.logWriter.Close()
	}
	return nil
}

// Summary is a thin wrapper giving the orchestrator's one-line-per-project
// narration (mirroring the source tool's logsummary calls) a distinct,
// greppable prefix without introducing a second logging dependency.
type Summary struct{ l *Logger }

// Summary returns the summary sub-logger bound to this Logger.
func (l *Logger) Summary() *Summary { return &Summary{l: l} }

func (s *Summary) Info(format string, args ...any) {
	s.l.log(slog.LevelInfo, "[summary] "+format, args...)
}

func (s *Summary) Error(format string, args ...any) {
	s.l.log(slog.LevelError, "[summary] error: "+format, args...)
}
