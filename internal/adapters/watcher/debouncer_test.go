package watcher_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ward/internal/adapters/watcher"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	var mu sync.Mutex
	var batches [][]string
	fired := make(chan struct{}, 1)

	d := watcher.NewDebouncer(20*time.Millisecond, func(paths []string) {
		mu.Lock()
		batches = append(batches, paths)
		mu.Unlock()
		fired <- struct{}{}
	})

	d.Add("a")
	d.Add("b")
	d.Add("a")

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, batches[0])
}

func TestDebouncerFlush(t *testing.T) {
	var mu sync.Mutex
	var got []string

	d := watcher.NewDebouncer(time.Hour, func(paths []string) {
		mu.Lock()
		got = append(got, paths...)
		mu.Unlock()
	})

	d.Add("pending")
	d.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"pending"}, got)
}

func TestDebouncerFlushEmpty(t *testing.T) {
	d := watcher.NewDebouncer(time.Hour, func([]string) {
		t.Fatal("callback must not fire with nothing pending")
	})
	d.Flush()
}
