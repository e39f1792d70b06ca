package logtail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultPollInterval = time.Second

var (
	// ErrUnreadable marks a tailer whose log file could not be opened.
	ErrUnreadable = errors.New("log file unreadable")
	// ErrUndecodable marks a chunk that was not valid UTF-8 and was dropped.
	ErrUndecodable = errors.New("chunk is not valid UTF-8")
)

// Tailer delivers the lines appended to one log file since the last read.
// The file handle is opened once by Open and kept until Close.
type Tailer struct {
	path      string
	file      *os.File
	openErr   error
	pollEvery time.Duration
	logger    *zap.Logger

	mu        sync.Mutex
	offset    int64
	closeOnce sync.Once
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithPollInterval sets how often the file is checked when no filesystem
// notification arrives.
func WithPollInterval(d time.Duration) Option {
	return func(t *Tailer) {
		if d > 0 {
			t.pollEvery = d
		}
	}
}

// WithLogger sets the tailer logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tailer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Open opens path for tailing from its first byte. If the file cannot be
// opened the returned Tailer is inert and the error wraps ErrUnreadable.
func Open(path string, opts ...Option) (*Tailer, error) {
	t := &Tailer{
		path:      path,
		pollEvery: defaultPollInterval,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	file, err := os.Open(path)
	if err != nil {
		t.openErr = fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
		return t, t.openErr
	}
	t.file = file
	return t, nil
}

// Path returns the tailed file path.
func (t *Tailer) Path() string {
	return t.path
}

// Inert reports whether the file could not be opened. An inert tailer never
// produces lines.
func (t *Tailer) Inert() bool {
	return t.file == nil
}

// Offset returns the number of bytes consumed so far.
func (t *Tailer) Offset() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offset
}

// Poll reads the bytes appended since the previous call and splits them into
// lines. Bytes are never read twice. A trailing fragment without a newline is
// returned as a line of its own; it is not held back for the next read.
//
// When the chunk is not valid UTF-8 it is dropped and the returned error
// wraps ErrUndecodable. If the file shrank, reading restarts at the top.
func (t *Tailer) Poll() ([]string, error) {
	if t.Inert() {
		return nil, t.openErr
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	info, err := t.file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}
	size := info.Size()
	if size < t.offset {
		t.logger.Info("log file shrank, rereading from start",
			zap.String("path", t.path),
			zap.Int64("offset", t.offset),
			zap.Int64("size", size))
		t.offset = 0
	}
	if size == t.offset {
		return nil, nil
	}

	buf := make([]byte, size-t.offset)
	n, err := t.file.ReadAt(buf, t.offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read log: %w", err)
	}
	start := t.offset
	t.offset += int64(n)
	chunk := buf[:n]

	if !utf8.Valid(chunk) {
		return nil, fmt.Errorf("%w: %s bytes %d-%d", ErrUndecodable, t.path, start, t.offset)
	}
	return splitLines(string(chunk)), nil
}

func splitLines(chunk string) []string {
	parts := strings.Split(chunk, "\n")
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSuffix(part, "\r")
		if part == "" {
			continue
		}
		lines = append(lines, part)
	}
	return lines
}

// Run feeds every new line to handle until ctx is cancelled, then closes the
// file. Growth is detected through filesystem notifications with a periodic
// check as backstop. Reads happen on the calling goroutine, one after the
// other, so handle is never called concurrently.
func (t *Tailer) Run(ctx context.Context, handle func(line string)) error {
	if t.Inert() {
		return t.openErr
	}
	defer t.Close()

	t.process(handle)

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		t.logger.Warn("file notifications unavailable, polling only", zap.String("path", t.path), zap.Error(err))
	} else {
		defer fsw.Close()
		if err := fsw.Add(t.path); err != nil {
			t.logger.Warn("cannot watch log, polling only", zap.String("path", t.path), zap.Error(err))
		} else {
			events = fsw.Events
			watchErrs = fsw.Errors
		}
	}

	ticker := time.NewTicker(t.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch {
			case ev.Op&fsnotify.Write != 0, ev.Op&fsnotify.Create != 0:
				t.process(handle)
			case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
				// The open handle keeps pointing at the old file.
				t.logger.Info("log file moved or removed", zap.String("path", t.path), zap.Stringer("op", ev.Op))
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			t.logger.Warn("watcher error", zap.String("path", t.path), zap.Error(err))
		case <-ticker.C:
			t.process(handle)
		}
	}
}

func (t *Tailer) process(handle func(line string)) {
	lines, err := t.Poll()
	if err != nil {
		if errors.Is(err, ErrUndecodable) {
			t.logger.Warn("dropped undecodable chunk", zap.Error(err))
		} else {
			t.logger.Error("read failed", zap.String("path", t.path), zap.Error(err))
		}
		return
	}
	for _, line := range lines {
		handle(line)
	}
}

// Close releases the file handle. It is safe to call more than once.
func (t *Tailer) Close() error {
	var err error
	t.closeOnce.Do(func() {
		if t.file != nil {
			err = t.file.Close()
		}
	})
	return err
}
