// Package logging configures slog for the two front ends.
package logging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// FileOptions describes the terminal view's log file.
type FileOptions struct {
	Path string
	// MaxSize is the size in bytes past which the file is rotated on open.
	MaxSize int64
	// Backups is how many rotated files are kept next to Path.
	Backups int
	Debug   bool
}

// NewConsoleLogger logs text to w, used by the web server.
func NewConsoleLogger(w io.Writer, debug bool) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(debug)}))
}

// OpenFileLogger writes JSON logs to opts.Path, since the terminal UI owns
// stdout. The returned closer closes the file.
func OpenFileLogger(opts FileOptions) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := rotate(opts.Path, opts.MaxSize, opts.Backups); err != nil {
		return nil, nil, fmt.Errorf("rotate %s: %w", opts.Path, err)
	}

	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level:     level(opts.Debug),
		AddSource: opts.Debug,
	})
	return slog.New(handler), f, nil
}

func level(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// rotate moves path to path.1 once it reaches maxSize, shifting older
// backups up and dropping the one past the limit. A non-positive maxSize
// disables rotation.
func rotate(path string, maxSize int64, backups int) error {
	if maxSize <= 0 {
		return nil
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	case info.Size() < maxSize:
		return nil
	}

	if backups < 1 {
		return os.Remove(path)
	}

	backup := func(n int) string { return path + "." + strconv.Itoa(n) }
	if err := os.Remove(backup(backups)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for n := backups - 1; n >= 1; n-- {
		if err := os.Rename(backup(n), backup(n+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return os.Rename(path, backup(1))
}
