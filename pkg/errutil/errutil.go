// Package errutil runs platform and config operations and logs their failures.
package errutil

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var errNilFunc = errors.New("nil function provided")

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// SetLogger replaces the logger used by the helpers. Nil restores slog.Default.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func current() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		return slog.Default()
	}
	return l
}

// HandleDiscordError runs fn and logs its error. The error is returned unchanged.
func HandleDiscordError(operation string, fn func() error) error {
	if fn == nil {
		return errNilFunc
	}
	err := fn()
	if err == nil {
		return nil
	}
	current().Error("Discord operation failed", "operation", operation, "error", err)
	return err
}

// HandleConfigError runs fn and logs its error, wrapping it with the
// operation and path.
func HandleConfigError(operation, path string, fn func() error) error {
	if fn == nil {
		return errNilFunc
	}
	err := fn()
	if err == nil {
		return nil
	}
	current().Error("Config operation failed", "operation", operation, "path", path, "error", err)
	return fmt.Errorf("config %s %s: %w", operation, path, err)
}
