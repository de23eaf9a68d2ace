// Package metrics exposes menu engine counters to prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
}

var _ menu.Recorder = (*Metrics)(nil)

// New registers the menu collectors plus the Go runtime collectors. emojis,
// when set, reports the size of the custom emoji cache.
func New(emojis func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discordmenu",
			Name:      "transitions_total",
			Help:      "Menu engine outcomes by menu type, button and outcome.",
		}, []string{"menu_type", "emoji", "outcome"}),
	}
	m.registry.MustRegister(
		m.transitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if emojis != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "discordmenu",
			Name:      "custom_emojis",
			Help:      "Custom emoji currently resolvable by name.",
		}, func() float64 { return float64(emojis()) }))
	}
	return m
}

func (m *Metrics) RecordTransition(menuType, emojiName string, outcome menu.Outcome) {
	if menuType == "" {
		menuType = "unknown"
	}
	m.transitions.WithLabelValues(menuType, emojiName, outcome.String()).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx ends.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	slog.Info("Metrics endpoint listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
