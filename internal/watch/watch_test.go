package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	w, err := New(nil, []string{".scrape", ".HV"}, 0, func(string) {})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.matches("a/b/shop.scrape"))
	assert.True(t, w.matches("shop.hv"))
	assert.True(t, w.matches("SHOP.SCRAPE"))
	assert.False(t, w.matches("shop.go"))
	assert.False(t, w.matches("scrape"))

	all, err := New(nil, nil, 0, func(string) {})
	require.NoError(t, err)
	defer all.Close()
	assert.True(t, all.matches("anything.txt"))
}

func TestSettle(t *testing.T) {
	w, err := New(nil, nil, 100*time.Millisecond, func(string) {})
	require.NoError(t, err)
	defer w.Close()

	start := time.Now()
	assert.True(t, w.settle("a.scrape", start))
	assert.False(t, w.settle("a.scrape", start.Add(50*time.Millisecond)))
	// other files are debounced independently
	assert.True(t, w.settle("b.scrape", start.Add(50*time.Millisecond)))
	assert.True(t, w.settle("a.scrape", start.Add(150*time.Millisecond)))
}

func TestStartMissingPath(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "missing")}, nil, 0, func(string) {})
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Start(context.Background()))
}

func TestWatchDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	changed := make(chan string, 16)
	w, err := New([]string{dir}, []string{".scrape"}, 10*time.Millisecond, func(path string) {
		changed <- path
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	ignored := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(ignored, []byte("x"), 0o644))
	target := filepath.Join(dir, "nested", "shop.scrape")
	require.NoError(t, os.WriteFile(target, []byte("print(1);"), 0o644))

	select {
	case got := <-changed:
		assert.Equal(t, target, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}
}
