package debug

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	file    *os.File
	mu      sync.Mutex
	logger  = discard()
	enabled bool
)

func discard() *charmlog.Logger {
	l := charmlog.New(io.Discard)
	l.SetLevel(charmlog.FatalLevel + 1)
	return l
}

// DefaultPath returns ~/.config/go-arrange/debug.log
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "go-arrange", "debug.log")
}

// Enable starts logging to path, truncating it. The TUI owns the terminal,
// so logs only ever go to a file. level is a charmbracelet/log level name;
// empty means debug.
func Enable(path, level string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}
	lvl := charmlog.DebugLevel
	if level != "" {
		parsed, err := charmlog.ParseLevel(level)
		if err != nil {
			return err
		}
		lvl = parsed
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	logger = charmlog.NewWithOptions(f, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           lvl,
	})
	enabled = true
	logger.Info("debug logging started", "level", lvl)
	return nil
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	logger = discard()
	enabled = false
}

// Logger returns the structured logger; it discards everything while
// logging is disabled.
func Logger() *charmlog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Log writes a debug message under a category
func Log(category, format string, args ...any) {
	Logger().WithPrefix(category).Debug(fmt.Sprintf(format, args...))
}

// Warn logs a swallowed error under a category
func Warn(category string, err error, keyvals ...any) {
	Logger().WithPrefix(category).Warn(err.Error(), keyvals...)
}

var counters = make(map[string]int)

// LogEvery logs only every N calls (use for high-frequency events)
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

// WithContext attaches the logger to ctx for goroutines that only get a
// context.
func WithContext(ctx context.Context) context.Context {
	return charmlog.WithContext(ctx, Logger())
}

// FromContext returns the logger carried by ctx, or the package logger
func FromContext(ctx context.Context) *charmlog.Logger {
	if l, ok := ctx.Value(charmlog.ContextKey).(*charmlog.Logger); ok && l != nil {
		return l
	}
	return Logger()
}
