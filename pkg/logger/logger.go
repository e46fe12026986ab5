package logger

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// Init installs a tint handler on w as the default slog logger.
func Init(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

var dedup = &deduplicator{
	flushDelay: 2 * time.Second,
}

// deduplicator collapses identical consecutive messages into one line
// carrying a repeat count.
type deduplicator struct {
	mu         sync.Mutex
	lastMsg    string
	count      int
	flushDelay time.Duration
	timer      *time.Timer
	emit       func(msg string, count int)
}

func (d *deduplicator) flush() {
	if d.count == 0 {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	emit := d.emit
	if emit == nil {
		emit = defaultEmit
	}
	emit(d.lastMsg, d.count)
	d.count = 0
	d.lastMsg = ""
}

func defaultEmit(msg string, count int) {
	if count == 1 {
		slog.Debug(msg)
		return
	}
	slog.Debug(msg, "repeated", count)
}

func (d *deduplicator) add(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if msg != d.lastMsg {
		d.flush()
		d.lastMsg = msg
	}
	d.count++

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.flushDelay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.flush()
	})
}

// Dedup logs at debug level, folding runs of the same message together.
func Dedup(format string, args ...any) {
	dedup.add(fmt.Sprintf(format, args...))
}

// Flush writes out any pending collapsed message.
func Flush() {
	dedup.mu.Lock()
	defer dedup.mu.Unlock()
	dedup.flush()
}
