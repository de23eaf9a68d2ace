// Package perf logs gateway handlers that run longer than a threshold.
package perf

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/small-frappuccino/discordmenu/pkg/util"
)

const (
	// EnvThresholdMs overrides the slow handler threshold. 0 disables timing.
	EnvThresholdMs     = "DISCORDMENU_GATEWAY_PERF_THRESHOLD_MS"
	defaultThresholdMs = int64(200)
)

var (
	thresholdOnce sync.Once
	threshold     time.Duration
)

// Threshold returns the configured slow handler threshold, read once from the environment.
func Threshold() time.Duration {
	thresholdOnce.Do(func() {
		threshold = thresholdFromEnv()
	})
	return threshold
}

func thresholdFromEnv() time.Duration {
	ms := util.EnvInt64(EnvThresholdMs, defaultThresholdMs)
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// Timer reports slow gateway handlers to a logger.
type Timer struct {
	Threshold time.Duration
	Logger    *slog.Logger
	now       func() time.Time
}

// NewTimer returns a Timer using the environment threshold and logger.
// A nil logger means slog.Default().
func NewTimer(logger *slog.Logger) *Timer {
	return &Timer{Threshold: Threshold(), Logger: logger}
}

// Start begins timing event. Calling the returned func logs a warning when
// the handler took at least Threshold.
func (t *Timer) Start(event string, attrs ...slog.Attr) func() {
	if t == nil || t.Threshold <= 0 {
		return func() {}
	}
	now := t.now
	if now == nil {
		now = time.Now
	}
	start := now()
	return func() {
		duration := now().Sub(start)
		if duration < t.Threshold {
			return
		}
		name := strings.TrimSpace(event)
		if name == "" {
			name = "unknown"
		}
		args := make([]any, 0, len(attrs)+3)
		args = append(args,
			slog.String("event", name),
			slog.Duration("duration", duration),
			slog.Int64("duration_ms", duration.Milliseconds()),
		)
		for _, attr := range attrs {
			args = append(args, attr)
		}
		logger := t.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("Slow gateway event handler", args...)
	}
}
