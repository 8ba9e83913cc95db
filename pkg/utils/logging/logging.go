package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/masq"
)

// Format selects the log output encoding
type Format int

const (
	FormatConsole Format = iota
	FormatJSON
)

var (
	mu            sync.RWMutex
	defaultLogger = New(os.Stdout, slog.LevelInfo, FormatConsole)
)

// Default returns the process-wide logger
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(logger *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// New builds a logger writing to w. Console format uses clog for readable
// colored output; JSON format is for collector ingestion. Both redact fields
// that look like credentials.
func New(w io.Writer, level slog.Level, format Format) *slog.Logger {
	filter := masq.New(
		masq.WithFieldName("Authorization"),
		masq.WithFieldName("Token"),
		masq.WithFieldName("Secret"),
		masq.WithFieldPrefix("secret_"),
	)

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})

	default:
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
			clog.WithColorMap(&clog.ColorMap{
				Level: map[slog.Level]*color.Color{
					slog.LevelDebug: color.New(color.FgHiBlack),
					slog.LevelInfo:  color.New(color.FgCyan),
					slog.LevelWarn:  color.New(color.FgYellow),
					slog.LevelError: color.New(color.FgRed, color.Bold),
				},
				LevelDefault: color.New(color.FgWhite),
				Time:         color.New(color.FgHiBlack),
				Message:      color.New(color.FgWhite),
				AttrKey:      color.New(color.FgHiCyan),
				AttrValue:    color.New(color.FgHiWhite),
			}),
		)
	}

	return slog.New(handler)
}
