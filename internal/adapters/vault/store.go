// Package vault implements the filesystem document store. The directory tree
// is the only shared mutable resource in the system, so every mutation goes
// through the atomic primitives here.
package vault

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DocumentStore = (*Store)(nil)

// Store implements ports.DocumentStore on a local filesystem.
type Store struct{}

// NewStore creates a new filesystem document store.
func NewStore() *Store {
	return &Store{}
}

// Read loads and parses the document at path.
func (s *Store) Read(path string) (*domain.Document, error) {
	content, err := os.ReadFile(path) //nolint:gosec // vault paths are composed by trusted callers
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrNotFound, "path", path)
		}
		return nil, zerr.Wrap(err, "failed to read document")
	}
	doc, err := domain.ParseDocument(content)
	if err != nil {
		// Body is still usable; callers must treat header fields as absent.
		return doc, zerr.With(err, "path", path)
	}
	return doc, nil
}

// Write stores the document atomically: staged under a temporary name in the
// destination directory, then renamed into place, so a concurrent reader
// never observes a half-written document.
func (s *Store) Write(path string, doc *domain.Document) error {
	content, err := doc.Encode()
	if err != nil {
		return zerr.Wrap(err, "failed to encode document")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return zerr.Wrap(err, "failed to stage document")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return zerr.Wrap(err, "failed to write staged document")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return zerr.Wrap(err, "failed to sync staged document")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return zerr.Wrap(err, "failed to close staged document")
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return zerr.Wrap(err, "failed to set document permissions")
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return zerr.Wrap(err, "failed to publish staged document")
	}
	return nil
}

// Move relocates a document without ever overwriting the destination. It is
// built on link+unlink rather than rename because rename replaces an existing
// destination, which would turn a claim race into silent document loss.
// Exactly one concurrent caller can win the link for a given source.
func (s *Store) Move(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return zerr.With(domain.ErrAlreadyExists, "dst", dst)
		case errors.Is(err, fs.ErrNotExist):
			return zerr.With(domain.ErrNotFound, "src", src)
		default:
			return zerr.Wrap(err, "failed to move document")
		}
	}
	if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		// The document must never exist in two stages at once. Undo the link
		// so src stays the single authoritative copy.
		_ = os.Remove(dst)
		return zerr.Wrap(err, "failed to release moved document")
	}
	return nil
}

// List returns the document file names in dir, lexicographically sorted.
// Names embed creation order by construction, so the sort gives the stable
// per-stage processing order. The listing is never cached.
func (s *Store) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrNotFound, "dir", dir)
		}
		return nil, zerr.Wrap(err, "failed to list stage directory")
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, domain.DocumentExt) {
			continue
		}
		if strings.HasPrefix(name, ".") {
			continue // staged temp files
		}
		names = append(names, name)
	}
	return names, nil
}

// ListDirs returns the subdirectory names in dir, lexicographically sorted.
func (s *Store) ListDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrNotFound, "dir", dir)
		}
		return nil, zerr.Wrap(err, "failed to list directory")
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// EnsureDir creates dir and any missing parents.
func (s *Store) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create directory")
	}
	return nil
}

// EnsureLayout creates the full vault directory layout under root.
func (s *Store) EnsureLayout(root string) error {
	dirs := make([]string, 0, 12)
	for _, stage := range domain.Stages() {
		dirs = append(dirs, domain.StageDir(root, stage))
	}
	dirs = append(dirs,
		domain.AwaitingDir(root),
		domain.DefaultDropDir(root),
		domain.LogsDir(root),
		domain.PlansDir(root),
		domain.WatcherStateDir(root),
	)
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.Wrap(err, "failed to create vault directory")
		}
	}
	return nil
}

// SameVolume verifies the atomic-rename guarantee holds across dirs by
// probe-renaming a file from the first directory into every other one. A
// rename that fails with a link error means the directories span volumes,
// which is a configuration error the orchestrator must refuse to run with.
func (s *Store) SameVolume(dirs ...string) error {
	if len(dirs) < 2 {
		return nil
	}
	probe, err := os.CreateTemp(dirs[0], ".ward-volume-probe-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create volume probe")
	}
	name := probe.Name()
	if err := probe.Close(); err != nil {
		_ = os.Remove(name)
		return zerr.Wrap(err, "failed to close volume probe")
	}
	defer os.Remove(name) //nolint:errcheck // best effort cleanup

	current := name
	for _, dir := range dirs[1:] {
		next := filepath.Join(dir, filepath.Base(name))
		if err := os.Rename(current, next); err != nil {
			_ = os.Remove(current)
			return zerr.With(domain.ErrCrossVolume, "dir", dir)
		}
		current = next
	}
	if current != name {
		if err := os.Rename(current, name); err != nil {
			_ = os.Remove(current)
			return zerr.Wrap(err, "failed to return volume probe")
		}
	}
	return nil
}
