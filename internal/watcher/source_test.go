package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresPaths(t *testing.T) {
	_, err := New(nil, DefaultOptions(), nil)
	assert.Error(t, err)
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "RENAME", OpRename.String())
}

func runSourceWatcher(t *testing.T, opts Options, paths ...string) *SourceWatcher {
	t.Helper()
	w, err := New(paths, opts, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		w.Stop()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return w
}

func waitChanges(t *testing.T, w *SourceWatcher) []FileEvent {
	t.Helper()
	select {
	case batch, ok := <-w.Changes():
		require.True(t, ok, "changes closed")
		return batch
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for change batch")
		return nil
	}
}

func TestSourceWatcher_ReportsEditedSource(t *testing.T) {
	for _, polling := range []bool{false, true} {
		name := "fsnotify"
		if polling {
			name = "polling"
		}
		t.Run(name, func(t *testing.T) {
			// Given: a watched source file
			dir := t.TempDir()
			path := filepath.Join(dir, "synthetic.csv")
			require.NoError(t, os.WriteFile(path, []byte("topic\n"), 0o644))
			opts := Options{Debounce: 50 * time.Millisecond, PollInterval: 20 * time.Millisecond, ForcePolling: polling}
			w := runSourceWatcher(t, opts, path)

			// When: the file is rewritten
			require.NoError(t, os.WriteFile(path, []byte("topic\ndispute_charge\n"), 0o644))

			// Then: a batch names the source
			batch := waitChanges(t, w)
			require.NotEmpty(t, batch)
			abs, _ := filepath.Abs(path)
			assert.Equal(t, abs, batch[0].Path)
		})
	}
}

func TestSourceWatcher_ForcePolling(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "a.csv")}, Options{ForcePolling: true}, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.Polling())
}

func TestSourceWatcher_StopClosesChanges(t *testing.T) {
	// Given: a watcher that never started
	w, err := New([]string{filepath.Join(t.TempDir(), "a.csv")}, DefaultOptions(), nil)
	require.NoError(t, err)

	// When: it is stopped twice
	w.Stop()
	w.Stop()

	// Then: Changes is closed
	_, ok := <-w.Changes()
	assert.False(t, ok)
}
