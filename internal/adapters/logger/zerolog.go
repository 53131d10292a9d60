package logger

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ZerologLogger implements the ports.Logger interface using zerolog.
type ZerologLogger struct {
	zl zerolog.Logger
}

// Config holds options for the zerolog adapter.
type Config struct {
	Level   string // debug, info, warn, error
	Console bool   // Human-readable console output instead of JSON
}

// New creates a new zerolog-backed logger. Unknown level strings fall back to
// info rather than failing; logging must never block startup.
func New(cfg Config) *ZerologLogger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	if cfg.Console {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zl = zerolog.New(os.Stderr)
	}
	zl = zl.Level(level).With().Timestamp().Logger()

	return &ZerologLogger{zl: zl}
}

func addFields(event *zerolog.Event, fields []map[string]interface{}) *zerolog.Event {
	if len(fields) > 0 && fields[0] != nil {
		for k, v := range fields[0] {
			event = event.Interface(k, v)
		}
	}
	return event
}

// Debug logs a message at Debug level.
func (l *ZerologLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	addFields(l.zl.Debug(), fields).Msg(msg)
}

// Info logs a message at Info level.
func (l *ZerologLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	addFields(l.zl.Info(), fields).Msg(msg)
}

// Warn logs a message at Warning level.
func (l *ZerologLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	addFields(l.zl.Warn(), fields).Msg(msg)
}

// Error logs an error message at Error level.
func (l *ZerologLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	addFields(l.zl.Error().Err(err), fields).Msg(msg)
}
