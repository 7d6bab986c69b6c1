package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ward/internal/adapters/vault"
	"go.trai.ch/ward/internal/adapters/watcher"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(string) {}
func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(error)  {}

// memAudit records events in memory for assertions.
type memAudit struct {
	events []domain.Event
}

func (m *memAudit) Append(event domain.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memAudit) Tail(n int) ([]domain.Event, error) {
	if n > len(m.events) {
		n = len(m.events)
	}
	return m.events[len(m.events)-n:], nil
}

func newWatcher(t *testing.T, policy domain.DuplicatePolicy) (*watcher.DropFolder, string, *memAudit) {
	t.Helper()
	root := t.TempDir()
	store := vault.NewStore()
	require.NoError(t, store.EnsureLayout(root))

	auditLog := &memAudit{}
	w := watcher.NewDropFolder(domain.WatcherConfig{
		Name:            "drop",
		DropFolder:      domain.DefaultDropDir(root),
		DuplicatePolicy: policy,
	}, root, store, auditLog, nopLogger{}, clockwork.NewFakeClock())
	return w, root, auditLog
}

func drop(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(domain.DefaultDropDir(root), name), []byte(content), 0o644))
}

func TestPollDiscoversNewItems(t *testing.T) {
	w, root, _ := newWatcher(t, domain.DuplicateSkip)
	drop(t, root, "invoice.txt", "pay this")
	drop(t, root, ".hidden", "ignored")
	require.NoError(t, os.MkdirAll(filepath.Join(domain.DefaultDropDir(root), "subdir"), 0o750))

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "invoice.txt", items[0].Name)
	assert.Equal(t, "pay this", string(items[0].Content))
}

func TestPollIsIdempotentAfterMaterialize(t *testing.T) {
	w, root, _ := newWatcher(t, domain.DuplicateSkip)
	drop(t, root, "invoice.txt", "pay this")

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	path, err := w.Materialize(context.Background(), items[0])
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	// Unchanged folder discovers nothing.
	items, err = w.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	// Changed content is a new item.
	drop(t, root, "invoice.txt", "pay this revised")
	items, err = w.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSeenSetSurvivesRestart(t *testing.T) {
	w, root, _ := newWatcher(t, domain.DuplicateSkip)
	drop(t, root, "invoice.txt", "pay this")

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	_, err = w.Materialize(context.Background(), items[0])
	require.NoError(t, err)

	// A fresh watcher instance reloads the persisted seen-set.
	store := vault.NewStore()
	restarted := watcher.NewDropFolder(domain.WatcherConfig{
		Name:            "drop",
		DropFolder:      domain.DefaultDropDir(root),
		DuplicatePolicy: domain.DuplicateSkip,
	}, root, store, &memAudit{}, nopLogger{}, clockwork.NewFakeClock())

	items, err = restarted.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMaterializeCreatesTaskDocument(t *testing.T) {
	w, root, auditLog := newWatcher(t, domain.DuplicateSkip)
	drop(t, root, "Fix Printer?.txt", "the printer is broken")

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	path, err := w.Materialize(context.Background(), items[0])
	require.NoError(t, err)
	assert.Equal(t, domain.StageDir(root, domain.StageNeedsAction), filepath.Dir(path))
	assert.NotContains(t, filepath.Base(path), "?")
	assert.NotContains(t, filepath.Base(path), " ")

	store := vault.NewStore()
	doc, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, domain.DocTypeTask, doc.Header.Type)
	assert.Equal(t, "drop", doc.Header.Source)
	assert.Equal(t, "triage", doc.Header.Action)
	assert.Equal(t, "the printer is broken", doc.Body)

	require.Len(t, auditLog.events, 1)
	assert.Equal(t, domain.KindMaterialize, auditLog.events[0].Kind)
	assert.Equal(t, domain.ActorWatcher, auditLog.events[0].Actor)
}

func TestMaterializeDuplicateSkip(t *testing.T) {
	w, root, auditLog := newWatcher(t, domain.DuplicateSkip)
	drop(t, root, "invoice.txt", "pay this")

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = w.Materialize(context.Background(), items[0])
	require.NoError(t, err)

	path, err := w.Materialize(context.Background(), items[0])
	require.NoError(t, err)
	assert.Empty(t, path)

	// Only the original materialize event, no duplicate record.
	require.Len(t, auditLog.events, 1)
}

func TestMaterializeDuplicateFlag(t *testing.T) {
	w, root, auditLog := newWatcher(t, domain.DuplicateFlag)
	drop(t, root, "invoice.txt", "pay this")

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = w.Materialize(context.Background(), items[0])
	require.NoError(t, err)
	path, err := w.Materialize(context.Background(), items[0])
	require.NoError(t, err)
	assert.Empty(t, path)

	require.Len(t, auditLog.events, 2)
	assert.Equal(t, domain.KindDuplicate, auditLog.events[1].Kind)
}

func TestDuplicateHandledOncePerRedelivery(t *testing.T) {
	w, root, _ := newWatcher(t, domain.DuplicateFlag)
	drop(t, root, "invoice.txt", "pay this")

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	_, err = w.Materialize(context.Background(), items[0])
	require.NoError(t, err)

	// The seen-set is lost; a fresh instance re-discovers the unchanged
	// item even though its document already exists.
	require.NoError(t, os.Remove(filepath.Join(domain.WatcherStateDir(root), "drop.txt")))
	auditLog := &memAudit{}
	restarted := watcher.NewDropFolder(domain.WatcherConfig{
		Name:            "drop",
		DropFolder:      domain.DefaultDropDir(root),
		DuplicatePolicy: domain.DuplicateFlag,
	}, root, vault.NewStore(), auditLog, nopLogger{}, clockwork.NewFakeClock())

	items, err = restarted.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	path, err := restarted.Materialize(context.Background(), items[0])
	require.NoError(t, err)
	assert.Empty(t, path)
	require.Len(t, auditLog.events, 1)
	assert.Equal(t, domain.KindDuplicate, auditLog.events[0].Kind)

	// Handled duplicates are marked seen: the policy fired once for the
	// re-delivery, not once per poll.
	items, err = restarted.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	require.Len(t, auditLog.events, 1)
}

func TestDocumentNameDeterministic(t *testing.T) {
	item := ports.Item{Name: "My Report.txt", Content: []byte("body")}
	a := watcher.DocumentName(item)
	b := watcher.DocumentName(item)
	assert.Equal(t, a, b)
	assert.Equal(t, ".md", filepath.Ext(a))

	other := watcher.DocumentName(ports.Item{Name: "My Report.txt", Content: []byte("different")})
	assert.NotEqual(t, a, other)
}

func TestPollMissingFolder(t *testing.T) {
	root := t.TempDir()
	store := vault.NewStore()
	w := watcher.NewDropFolder(domain.WatcherConfig{
		Name:       "drop",
		DropFolder: filepath.Join(root, "nope"),
	}, root, store, &memAudit{}, nopLogger{}, clockwork.NewFakeClock())

	_, err := w.Poll(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
