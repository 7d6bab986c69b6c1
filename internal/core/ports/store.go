// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/ward/internal/core/domain"

// DocumentStore owns every mutation of the vault's directory tree. All
// coordination between watchers, orchestrator runs and humans happens through
// these primitives; there is no other shared state.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type DocumentStore interface {
	// Read loads the document at path. It returns domain.ErrNotFound if the
	// path is absent and domain.ErrCorruptHeader if the metadata block is
	// malformed; in the corrupt case the document is still returned with its
	// best-effort body and callers must treat header fields as absent.
	Read(path string) (*domain.Document, error)

	// Write stores the document atomically: content is staged under a
	// temporary name in the destination directory, then renamed into place.
	// A reader never observes a half-written document.
	Write(path string, doc *domain.Document) error

	// Move relocates a document atomically. It returns
	// domain.ErrAlreadyExists if dst is occupied (never overwrites) and
	// domain.ErrNotFound if src vanished, which on a claim means another
	// actor won the race and must not be treated as an error.
	Move(src, dst string) error

	// List returns the document names in dir, lexicographically sorted. The
	// listing is always fresh: humans and other runs mutate directories
	// concurrently, so cached listings are never trusted.
	List(dir string) ([]string, error)

	// ListDirs returns the subdirectory names in dir, lexicographically
	// sorted. Used to enumerate per-run claim directories.
	ListDirs(dir string) ([]string, error)

	// EnsureDir creates dir and any missing parents.
	EnsureDir(dir string) error

	// EnsureLayout creates the full vault directory layout under root.
	EnsureLayout(root string) error

	// SameVolume verifies that all given directories live on one filesystem
	// volume, returning domain.ErrCrossVolume otherwise. Atomic rename is the
	// design's only concurrency primitive, so this is a startup requirement.
	SameVolume(dirs ...string) error
}
