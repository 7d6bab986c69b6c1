package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/ward/internal/adapters/vault"
	"go.trai.ch/ward/internal/adapters/watcher"
	"go.trai.ch/ward/internal/core/domain"
)

func TestNudgeWakesOnApprovalMove(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, vault.NewStore().EnsureLayout(root))

	cfg := &domain.Config{
		Root: root,
		Watchers: []domain.WatcherConfig{{
			Name:       "drop",
			DropFolder: domain.DefaultDropDir(root),
		}},
	}

	n, err := watcher.NewNudge(cfg, nopLogger{})
	require.NoError(t, err)
	defer n.Stop() //nolint:errcheck // test teardown

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	woke := make(chan struct{}, 1)
	require.NoError(t, n.Start(ctx, func() {
		select {
		case woke <- struct{}{}:
		default:
		}
	}))

	// Simulate a human approving a request.
	path := filepath.Join(domain.StageDir(root, domain.StageApproved), "APPROVAL_task.md")
	require.NoError(t, os.WriteFile(path, []byte("approved"), 0o644))

	select {
	case <-woke:
	case <-time.After(5 * time.Second):
		t.Fatal("nudge never woke on approval move")
	}
}
