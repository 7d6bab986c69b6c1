package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Nudger = (*Nudge)(nil)

const defaultDebounceWindow = 250 * time.Millisecond

// Nudge wakes the serve loop early when a human moves a document into
// Approved or Rejected or drops a new item. It is an optimization only:
// polling remains the source of truth, and a vault on a filesystem without
// notification support simply runs on the timer.
type Nudge struct {
	fsWatcher *fsnotify.Watcher
	dirs      []string
	logger    ports.Logger
	window    time.Duration
}

// NewNudge creates a nudger for the vault's human-actionable directories.
func NewNudge(cfg *domain.Config, logger ports.Logger) (*Nudge, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create fs watcher")
	}
	dirs := []string{
		domain.StageDir(cfg.Root, domain.StageApproved),
		domain.StageDir(cfg.Root, domain.StageRejected),
	}
	for _, w := range cfg.Watchers {
		dirs = append(dirs, w.DropFolder)
	}
	return &Nudge{
		fsWatcher: fsWatcher,
		dirs:      dirs,
		logger:    logger,
		window:    defaultDebounceWindow,
	}, nil
}

// Start begins watching. Events are coalesced through a debounce window
// before wake is called, since a human move produces several raw events.
func (n *Nudge) Start(ctx context.Context, wake ports.WakeFunc) error {
	for _, dir := range n.dirs {
		if err := n.fsWatcher.Add(dir); err != nil {
			return zerr.Wrap(err, "failed to watch directory")
		}
	}

	debouncer := NewDebouncer(n.window, func([]string) { wake() })
	go n.processEvents(ctx, debouncer)
	return nil
}

// Stop releases watcher resources.
func (n *Nudge) Stop() error {
	return n.fsWatcher.Close()
}

func (n *Nudge) processEvents(ctx context.Context, debouncer *Debouncer) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-n.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename) {
				debouncer.Add(event.Name)
			}
		case err, ok := <-n.fsWatcher.Errors:
			if !ok {
				return
			}
			n.logger.Warn(fmt.Sprintf("nudge watcher error: %v", err))
		}
	}
}
