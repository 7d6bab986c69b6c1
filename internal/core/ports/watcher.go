package ports

import "context"

// Item is one discovered unit of source work, not yet a document.
type Item struct {
	// ID is a stable identity for duplicate detection, derived from the
	// source (content hash or source-provided id).
	ID string
	// Name is a human-readable name for the item, used to derive the
	// document file name.
	Name string
	// Content is the raw payload the document body is built from.
	Content []byte
}

// Watcher discovers new source items and materializes them as documents in
// the intake stage. Implementations poll on a fixed interval; a slow source
// truncates one tick's batch, never the loop.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Name identifies the watcher in logs and state files.
	Name() string

	// Poll checks the source for items not seen before. A fresh call on an
	// unchanged source discovers nothing.
	Poll(ctx context.Context) ([]Item, error)

	// Materialize creates exactly one document in the intake stage for the
	// item, using a deterministic name. Re-delivery of the same item either
	// no-ops or is flagged as a duplicate, per configuration.
	// It returns the created document path, or "" if nothing was created.
	Materialize(ctx context.Context, item Item) (string, error)
}

// WakeFunc is called by nudge sources to wake the serve loop before its next
// scheduled tick.
type WakeFunc func()

// Nudger watches for out-of-band vault activity (human moves, new drops) and
// wakes the orchestrator early. Purely an optimization over polling.
type Nudger interface {
	// Start begins watching. The nudger stops when ctx is cancelled.
	Start(ctx context.Context, wake WakeFunc) error
	// Stop releases watcher resources.
	Stop() error
}
