// Package errorlog records rejected URLs in an append-only text file, one URL
// per line.
package errorlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File is an ErrorSink appending to a newline-delimited file. Every line is
// written with a single write call under a mutex, so concurrent appends never
// interleave.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Open opens (creating if needed) the log at path in append mode.
func Open(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("error_log.path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create error log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}
	return &File{path: path, f: f}, nil
}

// Path returns the file location.
func (l *File) Path() string { return l.path }

// Append writes url followed by a newline.
func (l *File) Append(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("empty url")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return errors.New("error log is closed")
	}
	if _, err := l.f.WriteString(url + "\n"); err != nil {
		return fmt.Errorf("append to error log: %w", err)
	}
	return nil
}

// Close syncs and closes the file. Closing twice is a no-op.
func (l *File) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	syncErr := f.Sync()
	if err := f.Close(); err != nil {
		return fmt.Errorf("close error log: %w", err)
	}
	if syncErr != nil {
		return fmt.Errorf("sync error log: %w", syncErr)
	}
	return nil
}

// Discard is an ErrorSink that drops every URL.
type Discard struct{}

// Append implements crawler.ErrorSink.
func (Discard) Append(string) error { return nil }

// Close implements crawler.ErrorSink.
func (Discard) Close() error { return nil }
