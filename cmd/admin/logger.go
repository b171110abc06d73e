package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/evaltrack/backend/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitializeLogger sets up the zerolog console logger of the admin tool.
func InitializeLogger(logLevel string, logToFile bool, logFilePath string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	if logToFile {
		file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		log.Logger = zerolog.New(file).With().Timestamp().Logger()
		return nil
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly, NoColor: true})
	return nil
}

// zerologHandler lets the service packages, which log with slog, write
// through the admin tool's zerolog logger.
type zerologHandler struct {
	attrs []slog.Attr
	group string
}

func (h zerologHandler) Enabled(_ context.Context, level slog.Level) bool {
	return toZerologLevel(level) >= zerolog.GlobalLevel()
}

func (h zerologHandler) Handle(_ context.Context, r slog.Record) error {
	ev := log.WithLevel(toZerologLevel(r.Level))
	for _, a := range h.attrs {
		ev = ev.Interface(a.Key, a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		ev = ev.Interface(h.key(a.Key), a.Value.Any())
		return true
	})
	ev.Msg(r.Message)
	return nil
}

func (h zerologHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

// WithAttrs qualifies attrs with the group open at the time of the call.
func (h zerologHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		next = append(next, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	h.attrs = next
	return h
}

func (h zerologHandler) WithGroup(name string) slog.Handler {
	h.group = h.key(name)
	return h
}

func toZerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l >= slog.LevelError:
		return zerolog.ErrorLevel
	case l >= slog.LevelWarn:
		return zerolog.WarnLevel
	case l >= slog.LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// withSlog returns ctx carrying a slog logger backed by zerolog.
func withSlog(ctx context.Context) context.Context {
	return logger.WithLogger(ctx, slog.New(zerologHandler{}))
}
