package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRun_DebouncesChanges(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, "", 100*time.Millisecond, discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) { calls <- struct{}{} })
	}()

	for _, name := range []string{"a.md", "b.md", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after change")
	}
	// The burst is coalesced into a single callback.
	select {
	case <-calls:
		t.Fatal("unexpected second rebuild")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRelevant(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "doc")
	require.NoError(t, os.Mkdir(out, 0o755))
	w, err := New(root, out, time.Millisecond, discard)
	require.NoError(t, err)
	t.Cleanup(func() { w.fsw.Close() })

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"markdown write", fsnotify.Event{Name: filepath.Join(root, "a.md"), Op: fsnotify.Write}, true},
		{"removed html", fsnotify.Event{Name: filepath.Join(root, "a.html"), Op: fsnotify.Remove}, true},
		{"unsupported", fsnotify.Event{Name: filepath.Join(root, "a.rst"), Op: fsnotify.Write}, false},
		{"hidden", fsnotify.Event{Name: filepath.Join(root, ".a.md.swp"), Op: fsnotify.Write}, false},
		{"chmod", fsnotify.Event{Name: filepath.Join(root, "a.md"), Op: fsnotify.Chmod}, false},
		{"new dir", fsnotify.Event{Name: sub, Op: fsnotify.Create}, true},
		{"output dir", fsnotify.Event{Name: out, Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.ev))
		})
	}
	assert.Contains(t, w.fsw.WatchList(), sub)
	assert.NotContains(t, w.fsw.WatchList(), out)
}
