package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(cfg *Config) *Logger {
	return newLogger(os.Stdout, cfg.Level)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return newLogger(io.Discard, "error")
}

func newLogger(w io.Writer, level string) *Logger {
	opts := &slog.HandlerOptions{
		Level: getLoggerLevel(level),
	}
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(w, opts)),
	}
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func getLoggerLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
