package config

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/caseops/workbasket/pkg/utils/logging"
	"github.com/caseops/workbasket/pkg/utils/safe"
)

// Logger holds CLI flags for logger configuration
type Logger struct {
	level  string
	format string
	output string
}

// Flags returns CLI flags for logger configuration
func (l *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("WORKBASKET_LOG_LEVEL"),
			Destination: &l.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console or json)",
			Value:       "console",
			Sources:     cli.EnvVars("WORKBASKET_LOG_FORMAT"),
			Destination: &l.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output destination (stdout, stderr or file path)",
			Value:       "stdout",
			Sources:     cli.EnvVars("WORKBASKET_LOG_OUTPUT"),
			Destination: &l.output,
		},
	}
}

// LogValue implements slog.LogValuer so startup logging never leaks more
// than the chosen settings
func (l Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", l.level),
		slog.String("format", l.format),
		slog.String("output", l.output),
	)
}

// Configure builds the process-wide logger from the flags. The returned
// closer releases the output file when one was opened.
func (l *Logger) Configure() (func(), error) {
	var level slog.Level
	switch l.level {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, goerr.New("invalid log level", goerr.V("level", l.level))
	}

	var format logging.Format
	switch l.format {
	case "console", "":
		format = logging.FormatConsole
	case "json":
		format = logging.FormatJSON
	default:
		return nil, goerr.New("invalid log format", goerr.V("format", l.format))
	}

	var w io.Writer
	closer := func() {}
	switch l.output {
	case "stdout", "":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(l.output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open log output file", goerr.V("path", l.output))
		}
		w = f
		closer = func() {
			safe.Close(context.Background(), f)
		}
	}

	logging.SetDefault(logging.New(w, level, format))
	return closer, nil
}
