// Package daemon runs continuous documentation builds: it watches snippet
// roots for changes, debounces bursts of edits into single rebuilds and
// refreshes the archive on a fixed schedule as a safety net.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/doccbuild/internal/build"
	"git.home.luguber.info/inful/doccbuild/internal/config"
	"git.home.luguber.info/inful/doccbuild/internal/logfields"
)

// Daemon wires the watcher, debouncer and scheduler around the build pipeline.
type Daemon struct {
	cfg       *config.Config
	pipeline  *build.Pipeline
	watcher   *Watcher
	debouncer *Debouncer
	scheduler gocron.Scheduler
	metrics   http.Handler
}

// New assembles a daemon. metricsHandler may be nil; the metrics endpoint is
// then disabled regardless of the configured listen address.
func New(cfg *config.Config, pipeline *build.Pipeline, metricsHandler http.Handler) (*Daemon, error) {
	watcher, err := NewWatcher(cfg.Snippets.Roots, cfg.Snippets.Extensions)
	if err != nil {
		return nil, err
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Daemon{
		cfg:       cfg,
		pipeline:  pipeline,
		watcher:   watcher,
		debouncer: NewDebouncer(cfg.Daemon.DebounceDuration(), 0),
		scheduler: scheduler,
		metrics:   metricsHandler,
	}, nil
}

// Run blocks until the context is canceled, rebuilding documentation on
// snippet changes and on the periodic schedule.
func (d *Daemon) Run(ctx context.Context) error {
	defer func() {
		if err := d.watcher.Close(); err != nil {
			slog.Error("Error closing snippet watcher", logfields.Error(err))
		}
	}()

	go d.watcher.Run(ctx)
	go d.debouncer.Run(ctx)
	go d.forwardChanges(ctx)

	if err := d.schedulePeriodicRebuild(); err != nil {
		return err
	}
	d.scheduler.Start()
	defer func() {
		if err := d.scheduler.Shutdown(); err != nil {
			slog.Error("Error stopping scheduler", logfields.Error(err))
		}
	}()

	metricsSrv, err := d.startMetricsServer()
	if err != nil {
		return err
	}
	if metricsSrv != nil {
		defer d.stopMetricsServer(metricsSrv)
	}

	slog.Info("Daemon started",
		slog.String("debounce", d.cfg.Daemon.DebounceDuration().String()),
		slog.String("rebuild_interval", d.cfg.Daemon.RebuildIntervalDuration().String()))

	// Initial build so the archive exists before the first change arrives.
	d.rebuild(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Daemon stopping")
			return nil
		case <-d.debouncer.Triggers():
			d.rebuild(ctx)
		}
	}
}

func (d *Daemon) forwardChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-d.watcher.Changes():
			if !ok {
				return
			}
			slog.Debug("Snippet source changed", logfields.Path(path))
			d.debouncer.Request()
		}
	}
}

func (d *Daemon) schedulePeriodicRebuild() error {
	interval := d.cfg.Daemon.RebuildIntervalDuration()
	_, err := d.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(d.debouncer.Request),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return fmt.Errorf("schedule periodic rebuild: %w", err)
	}
	return nil
}

func (d *Daemon) rebuild(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result, err := d.pipeline.Convert(ctx, "", nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("Rebuild failed", logfields.BuildID(result.BuildID), logfields.Error(err))
	}
}

func (d *Daemon) startMetricsServer() (*http.Server, error) {
	listen := d.cfg.Daemon.MetricsListen
	if listen == "" || d.metrics == nil {
		return nil, nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", d.metrics)
	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Metrics endpoint listening", slog.String("addr", listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	return srv, nil
}

func (d *Daemon) stopMetricsServer(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error stopping metrics server", logfields.Error(err))
	}
}
