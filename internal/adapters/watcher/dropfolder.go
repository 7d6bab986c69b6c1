// Package watcher implements source watchers that discover new items and
// materialize them as documents in the intake stage.
package watcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*DropFolder)(nil)

// DropFolder watches a directory for dropped files and materializes each one
// as a task document in Needs_Action. Discovery is a snapshot diff against a
// persisted seen-set, so re-running on an unchanged folder discovers nothing.
type DropFolder struct {
	name   string
	folder string
	root   string
	policy domain.DuplicatePolicy

	store  ports.DocumentStore
	audit  ports.AuditLog
	logger ports.Logger
	clock  clockwork.Clock

	mu     sync.Mutex
	seen   map[string]struct{}
	loaded bool
}

// NewDropFolder creates a drop-folder watcher for the given vault.
func NewDropFolder(
	cfg domain.WatcherConfig,
	root string,
	store ports.DocumentStore,
	audit ports.AuditLog,
	logger ports.Logger,
	clock clockwork.Clock,
) *DropFolder {
	return &DropFolder{
		name:   cfg.Name,
		folder: cfg.DropFolder,
		root:   root,
		policy: cfg.DuplicatePolicy,
		store:  store,
		audit:  audit,
		logger: logger,
		clock:  clock,
		seen:   make(map[string]struct{}),
	}
}

// Name identifies the watcher in logs and state files.
func (w *DropFolder) Name() string {
	return w.name
}

// Poll diffs the drop folder against the persisted seen-set and returns the
// items discovered since the last call. Unreadable entries are logged and
// skipped; one bad item never halts the watcher.
func (w *DropFolder) Poll(ctx context.Context) ([]ports.Item, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.loadSeenLocked(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(w.folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrNotFound, "drop_folder", w.folder)
		}
		return nil, zerr.Wrap(err, "failed to list drop folder")
	}

	var items []ports.Item
	for _, entry := range entries {
		if ctx.Err() != nil {
			// A slow source truncates this tick's batch, not the loop.
			break
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(w.folder, entry.Name())) //nolint:gosec // listed drop folder entry
		if err != nil {
			w.logger.Warn(fmt.Sprintf("watcher %s: skipping unreadable item %s: %v", w.name, entry.Name(), err))
			continue
		}
		item := ports.Item{
			ID:      itemID(entry.Name(), content),
			Name:    entry.Name(),
			Content: content,
		}
		if _, ok := w.seen[item.ID]; ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Materialize creates exactly one document in Needs_Action for the item. The
// document name is deterministic in the item's identity, so re-delivery lands
// on an existing path and is handled per the configured duplicate policy.
func (w *DropFolder) Materialize(ctx context.Context, item ports.Item) (string, error) {
	docName := DocumentName(item)
	path := filepath.Join(domain.StageDir(w.root, domain.StageNeedsAction), docName)

	if _, err := w.store.Read(path); err == nil || errors.Is(err, domain.ErrCorruptHeader) {
		return "", w.handleDuplicate(item, docName)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	doc := &domain.Document{
		Header: domain.Header{
			Type:    domain.DocTypeTask,
			Created: w.clock.Now().UTC(),
			Source:  w.name,
			Action:  "triage",
		},
		Body: string(item.Content),
	}
	if err := w.store.Write(path, doc); err != nil {
		return "", err
	}

	if err := w.audit.Append(domain.Event{
		Task:    docName,
		To:      domain.StageNeedsAction,
		Actor:   domain.ActorWatcher,
		Kind:    domain.KindMaterialize,
		Outcome: domain.OutcomeOK,
		Detail:  "source=" + w.name,
	}); err != nil {
		w.logger.Error(err)
	}

	if err := w.markSeen(item.ID); err != nil {
		return "", err
	}
	return path, nil
}

func (w *DropFolder) handleDuplicate(item ports.Item, docName string) error {
	if w.policy == domain.DuplicateFlag {
		if err := w.audit.Append(domain.Event{
			Task:    docName,
			Actor:   domain.ActorWatcher,
			Kind:    domain.KindDuplicate,
			Outcome: domain.OutcomeOK,
			Detail:  "source=" + w.name,
		}); err != nil {
			return err
		}
	}
	w.logger.Debug(fmt.Sprintf("watcher %s: duplicate item %s", w.name, docName))
	// The policy fires once per re-delivery, not once per poll: after a
	// lost seen-set the item is re-discovered exactly once.
	return w.markSeen(item.ID)
}

func (w *DropFolder) statePath() string {
	return filepath.Join(domain.WatcherStateDir(w.root), w.name+".txt")
}

// loadSeenLocked reads the persisted seen-set once per process.
func (w *DropFolder) loadSeenLocked() error {
	if w.loaded {
		return nil
	}
	f, err := os.Open(w.statePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.loaded = true
			return nil
		}
		return zerr.Wrap(err, "failed to open watcher state")
	}
	defer f.Close() //nolint:errcheck // read-only file

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			w.seen[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return zerr.Wrap(err, "failed to read watcher state")
	}
	w.loaded = true
	return nil
}

func (w *DropFolder) markSeen(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.statePath()), domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create watcher state directory")
	}
	f, err := os.OpenFile(w.statePath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.FilePerm) //nolint:gosec // path under vault Logs
	if err != nil {
		return zerr.Wrap(err, "failed to open watcher state")
	}
	defer f.Close() //nolint:errcheck // append-only state file

	if _, err := f.WriteString(id + "\n"); err != nil {
		return zerr.Wrap(err, "failed to persist watcher state")
	}
	w.seen[id] = struct{}{}
	return nil
}

// itemID derives a stable identity from the item's name and content, so the
// same dropped file is recognized across polls and across process restarts.
func itemID(name string, content []byte) string {
	h := xxhash.New()
	_, _ = h.WriteString(name)
	_, _ = h.Write(content)
	return fmt.Sprintf("%016x", h.Sum64())
}

// DocumentName derives the deterministic intake document name for an item.
func DocumentName(item ports.Item) string {
	base := strings.TrimSuffix(item.Name, filepath.Ext(item.Name))
	return fmt.Sprintf("%s-%s%s", sanitize(base), itemID(item.Name, item.Content)[:8], domain.DocumentExt)
}

// sanitize replaces characters that are unsafe in file names.
func sanitize(name string) string {
	replacer := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", "\"", "_",
		"/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_",
	)
	return strings.Trim(replacer.Replace(name), "_ ")
}
