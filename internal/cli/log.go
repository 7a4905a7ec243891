// Package cli implements the storyboard command-line interface.
//
// The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - run: the interactive canvas in the terminal
//   - serve: the HTTP proxy that holds API keys for canvas clients
//   - export: write the canvas as PNG, DOT, SVG or PDF
//   - bench: drive frames over a large generated canvas
//   - reports: list reports saved by export nodes
//   - cache: manage the enrichment response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context. The run command owns the terminal, so it
// logs to a rotating file instead of stderr.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/matzehuels/storyboard/pkg/config"
)

// newLogger returns a terminal logger with short timestamps
// ("14:32:01.45") filtered at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// newFileLogger returns a logger writing to the rotating file described by
// cfg. Closing the returned closer closes the file.
func newFileLogger(cfg *config.Config, level log.Level) (*log.Logger, io.Closer, error) {
	path := cfg.LogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	}
	return newLogger(w, level), w, nil
}

// parseLevel maps a config level name to a log level, defaulting to info.
func parseLevel(name string) log.Level {
	l, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// progress logs how long a step took, e.g. "Ran node operations (12ms)".
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

// withLogger attaches l to ctx for loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() for contexts that never went through the root command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
