package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures the global logger.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", ...).
	Level string
	// File receives JSON lines. Empty disables file logging.
	File string
	// Console enables human-readable output on Stderr.
	Console bool
	Stderr  io.Writer
}

// Setup installs the global zerolog logger. The returned closer releases the
// log file and should be closed when logging is no longer needed.
func Setup(opts Options) (io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if opts.Console {
		out := opts.Stderr
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
		closer = file
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return closer, nil
}

// ParseLevel maps a level name to a zerolog level; empty means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// Get returns a logger tagged with the given component name.
func Get(component string) *zerolog.Logger {
	logger := log.With().Str("component", component).Logger()
	return &logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
