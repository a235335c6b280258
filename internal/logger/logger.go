// Package logger owns the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oggyb/campus-match/internal/config"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// New builds a logger writing to w. Text output uses a short UTC timestamp.
func New(c config.LogConfig, w io.Writer) *slog.Logger {
	format := Format(strings.ToLower(strings.TrimSpace(c.Format)))
	opts := &slog.HandlerOptions{
		Level:     parseLevel(c.Level),
		AddSource: c.Source,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// only the record's own timestamp, callers may log their own "time" attrs
			if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime && format != FormatJSON {
				return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.DateTime))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	if c.Component != "" {
		l = l.With("component", c.Component)
	}
	return l
}

// InitFromConfig replaces the global logger with one built from c, writing to stdout.
// It also becomes slog's default so library code logging through slog lands in the same place.
func InitFromConfig(c *config.Config) *slog.Logger {
	lc := config.Default().Log
	if c != nil {
		lc = c.Log
	}
	return Init(New(lc, os.Stdout))
}

// Init installs l as the global logger and returns it.
func Init(l *slog.Logger) *slog.Logger {
	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
	return l
}

// L returns the global logger, building a default one on first use.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	return InitFromConfig(nil)
}

// With creates a child logger with additional attributes.
func With(args ...any) *slog.Logger { return L().With(args...) }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
