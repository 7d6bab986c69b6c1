// Package app implements the application layer for ward.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
	"go.trai.ch/ward/internal/engine/dashboard"
	"go.trai.ch/ward/internal/engine/orchestrator"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App wires the watchers, the orchestrator and the dashboard into the
// operations the CLI exposes.
type App struct {
	cfg      *domain.Config
	store    ports.DocumentStore
	watchers []ports.Watcher
	orch     *orchestrator.Orchestrator
	dash     *dashboard.Dashboard
	nudger   ports.Nudger
	logger   ports.Logger
	clock    clockwork.Clock
}

// New creates a new App instance.
func New(
	cfg *domain.Config,
	store ports.DocumentStore,
	watchers []ports.Watcher,
	orch *orchestrator.Orchestrator,
	dash *dashboard.Dashboard,
	nudger ports.Nudger,
	logger ports.Logger,
	clock clockwork.Clock,
) *App {
	return &App{
		cfg:      cfg,
		store:    store,
		watchers: watchers,
		orch:     orch,
		dash:     dash,
		nudger:   nudger,
		logger:   logger,
		clock:    clock,
	}
}

// TickOnce runs a single processing cycle: poll every watcher, run one
// orchestrator tick, refresh the dashboard.
func (a *App) TickOnce(ctx context.Context) (*orchestrator.TickReport, error) {
	a.pollWatchers(ctx)

	report, err := a.orch.Tick(ctx)
	if err != nil {
		return report, err
	}
	a.logger.Info("tick complete: " + report.Summary())

	if err := a.dash.Refresh(); err != nil {
		a.logger.Warn("dashboard refresh failed: " + err.Error())
	}
	return report, nil
}

// Serve runs until ctx is cancelled: each watcher polls on its own timer and
// the orchestrator ticks on its own, coordinating only through the vault.
// Filesystem nudges (a human decision, a new drop) wake the orchestrator loop
// early but never change its semantics.
func (a *App) Serve(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = a.cfg.Interval
	}

	wake := make(chan struct{}, 1)
	g, ctx := errgroup.WithContext(ctx)

	if a.nudger != nil {
		err := a.nudger.Start(ctx, func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		})
		if err != nil {
			a.logger.Warn("filesystem nudges unavailable, relying on polling: " + err.Error())
		} else {
			defer func() {
				if err := a.nudger.Stop(); err != nil {
					a.logger.Warn("failed to stop nudger: " + err.Error())
				}
			}()
		}
	}

	for _, w := range a.watchers {
		g.Go(func() error {
			return a.watchLoop(ctx, w, interval)
		})
	}

	g.Go(func() error {
		for {
			if err := a.tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error(err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.clock.After(interval):
			case <-wake:
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// watchLoop polls one watcher on its own timer. A hung source is cut off by
// the per-poll timeout and never blocks the orchestrator or other watchers.
func (a *App) watchLoop(ctx context.Context, w ports.Watcher, interval time.Duration) error {
	for {
		a.pollWatcher(ctx, w, interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.clock.After(interval):
		}
	}
}

// tick runs one orchestrator cycle and refreshes the dashboard.
func (a *App) tick(ctx context.Context) error {
	report, err := a.orch.Tick(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("tick complete: " + report.Summary())

	if err := a.dash.Refresh(); err != nil {
		a.logger.Warn("dashboard refresh failed: " + err.Error())
	}
	return nil
}

// Dashboard rewrites Dashboard.md and returns the rendered content, both from
// the same snapshot.
func (a *App) Dashboard(_ context.Context) (string, error) {
	snap, err := a.dash.Collect()
	if err != nil {
		return "", err
	}
	rendered := dashboard.Render(snap)
	if err := a.dash.Publish(snap); err != nil {
		return rendered, zerr.Wrap(err, "failed to write dashboard")
	}
	return rendered, nil
}

// pollWatchers discovers and materializes new source items across all
// watchers, for the one-shot cycle.
func (a *App) pollWatchers(ctx context.Context) {
	for _, w := range a.watchers {
		if ctx.Err() != nil {
			return
		}
		a.pollWatcher(ctx, w, a.cfg.Interval)
	}
}

// pollWatcher runs one bounded poll and materializes what it found. Watcher
// errors are logged and skipped; one broken source must not stall the
// pipeline.
func (a *App) pollWatcher(ctx context.Context, w ports.Watcher, timeout time.Duration) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	items, err := w.Poll(pollCtx)
	if err != nil {
		a.logger.Error(zerr.With(zerr.Wrap(err, "watcher poll failed"), "watcher", w.Name()))
		return
	}
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.Materialize(ctx, item); err != nil {
			a.logger.Error(zerr.With(zerr.Wrap(err, "materialize failed"), "watcher", w.Name()))
		}
	}
}
