// Package audit implements the append-only transition log as date-rotated
// JSONL files under the vault's Logs directory.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.AuditLog = (*Log)(nil)

const (
	filePrefix = "audit-"
	fileSuffix = ".jsonl"
	dateLayout = "2006-01-02"
)

// Log implements ports.AuditLog. One JSON record per line, one file per day,
// append-only; records are never rewritten.
type Log struct {
	dir   string
	clock clockwork.Clock
	mu    sync.Mutex
}

// NewLog creates an audit log writing into dir.
func NewLog(dir string, clock clockwork.Clock) (*Log, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create audit log directory")
	}
	return &Log{dir: dir, clock: clock}, nil
}

// Append durably writes one event. Any failure maps to
// domain.ErrAuditWriteFailed so callers abort the transition the event
// describes.
func (l *Log) Append(event domain.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.clock.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return zerr.Wrap(domain.ErrAuditWriteFailed, err.Error())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.dir, filePrefix+event.Timestamp.Format(dateLayout)+fileSuffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.FilePerm) //nolint:gosec // path under vault Logs
	if err != nil {
		return zerr.Wrap(domain.ErrAuditWriteFailed, err.Error())
	}
	defer f.Close() //nolint:errcheck // close error surfaced via Sync

	if _, err := f.Write(append(data, '\n')); err != nil {
		return zerr.Wrap(domain.ErrAuditWriteFailed, err.Error())
	}
	if err := f.Sync(); err != nil {
		return zerr.Wrap(domain.ErrAuditWriteFailed, err.Error())
	}
	return nil
}

// Tail returns up to n of the most recent events, oldest first. It walks the
// rotated files newest-first and stops as soon as n events are collected.
// Malformed lines are skipped, never fatal: the tail is a derived view.
func (l *Log) Tail(n int) ([]domain.Event, error) {
	if n <= 0 {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := l.logFiles()
	if err != nil {
		return nil, err
	}

	var events []domain.Event
	for i := len(files) - 1; i >= 0 && len(events) < n; i-- {
		fileEvents, err := readEvents(files[i])
		if err != nil {
			return nil, err
		}
		// Prepend, keeping chronological order across files.
		if missing := n - len(events); len(fileEvents) > missing {
			fileEvents = fileEvents[len(fileEvents)-missing:]
		}
		events = append(fileEvents, events...)
	}
	return events, nil
}

func (l *Log) logFiles() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, "failed to list audit log directory")
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		files = append(files, filepath.Join(l.dir, name))
	}
	sort.Strings(files) // date-stamped names sort chronologically
	return files, nil
}

func readEvents(path string) ([]domain.Event, error) {
	f, err := os.Open(path) //nolint:gosec // path under vault Logs
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open audit log file")
	}
	defer f.Close() //nolint:errcheck // read-only file

	var events []domain.Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event domain.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.Wrap(err, "failed to scan audit log file")
	}
	return events, nil
}
