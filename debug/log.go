// Package debug is a file logger for diagnosing sessions. The terminal
// belongs to the TUI while a session runs, so nothing is printed.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu       sync.Mutex
	out      io.Writer
	closer   io.Closer
	started  time.Time
	counters = make(map[string]int)
)

// Enable starts logging to path, truncating any previous log
func Enable(path string) error {
	if Enabled() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if !start(f, f) {
		f.Close()
	}
	return nil
}

// EnableWriter logs to w until Disable
func EnableWriter(w io.Writer) {
	start(w, nil)
}

func start(w io.Writer, c io.Closer) bool {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		return false
	}
	out, closer = w, c
	started = time.Now()
	counters = make(map[string]int)
	write("debug", "=== debug log started %s ===", started.Format(time.RFC3339))
	return true
}

// Enabled reports whether logging is active
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return out != nil
}

// Disable stops logging and closes the log file
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
	}
	out, closer = nil, nil
}

// Log writes one line: clock time, seconds since Enable, category, message
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	write(category, format, args...)
}

// LogEvery logs only every nth call for a category and format, for
// per-keypress events
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		return
	}
	key := category + format
	counters[key]++
	if count := counters[key]; count%n == 0 {
		write(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

// write expects mu held
func write(category, format string, args ...any) {
	if out == nil {
		return
	}
	now := time.Now()
	fmt.Fprintf(out, "[%s +%8.3fs] %-10s %s\n",
		now.Format("15:04:05.000"), now.Sub(started).Seconds(), category, fmt.Sprintf(format, args...))
	if f, ok := out.(*os.File); ok {
		f.Sync() // so the log survives a crash
	}
}
