package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceLock_SharedReadersCoexist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv")

	a := NewSourceLock(path)
	b := NewSourceLock(path)

	ok, err := a.RLock(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = b.RLock(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = os.Stat(a.Path())
	assert.NoError(t, err)
	assert.NoError(t, a.Unlock())
	assert.NoError(t, b.Unlock())
}

func TestSourceLock_ReaderWaitsForWriter(t *testing.T) {
	// Given: a writer holding the exclusive lock
	path := filepath.Join(t.TempDir(), "dataset.csv")
	w := NewSourceLock(path)
	require.NoError(t, w.Lock())
	defer func() { _ = w.Unlock() }()

	// When: a reader tries with a short deadline
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	ok, err := NewSourceLock(path).RLock(ctx)

	// Then: it gives up when the context expires
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestSourceLock_DoubleUnlock(t *testing.T) {
	l := NewSourceLock(filepath.Join(t.TempDir(), "x.csv"))
	require.NoError(t, l.Lock())
	assert.NoError(t, l.Unlock())
	assert.NoError(t, l.Unlock())
}
