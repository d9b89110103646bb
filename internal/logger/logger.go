// Package logger builds the process logger from configuration.
package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/faylit/appshell/internal/config"
)

// Builder assembles a zerolog.Logger writing to the console and,
// optionally, a rotated file.
type Builder struct {
	cfg     config.LogConfig
	console io.Writer
	noColor bool
}

// NewBuilder starts from cfg, logging to stderr.
func NewBuilder(cfg config.LogConfig) *Builder {
	return &Builder{cfg: cfg, console: os.Stderr}
}

// WithConsole redirects console output to w without colors.
func (b *Builder) WithConsole(w io.Writer) *Builder {
	b.console = w
	b.noColor = true
	return b
}

// WithVerbose forces debug level.
func (b *Builder) WithVerbose(verbose bool) *Builder {
	if verbose {
		b.cfg.Level = "debug"
	}
	return b
}

// Build creates the logger. The returned closer releases the log file, if
// any, and must be called on shutdown.
func (b *Builder) Build() (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(b.cfg.Level))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", b.cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	writers := []io.Writer{b.consoleWriter()}
	var closer io.Closer = nopCloser{}

	if b.cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(b.cfg.File), 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("creating log directory: %w", err)
		}
		maxSize := b.cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		lj := &lumberjack.Logger{
			Filename:   b.cfg.File,
			MaxSize:    maxSize,
			MaxBackups: b.cfg.MaxBackups,
			LocalTime:  true,
		}
		writers = append(writers, lj)
		closer = lj
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	stdlog.SetOutput(log)
	stdlog.SetFlags(0)

	return log, closer, nil
}

func (b *Builder) consoleWriter() io.Writer {
	if b.cfg.Format == "json" {
		return b.console
	}
	return zerolog.ConsoleWriter{
		Out:        b.console,
		NoColor:    b.noColor,
		TimeFormat: time.TimeOnly,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
