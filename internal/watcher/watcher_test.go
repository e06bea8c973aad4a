package watcher

import (
	"os"
	"path/filepath"
	"rewatch/internal/model"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipTarget(rel string) bool {
	return strings.HasPrefix(filepath.ToSlash(rel), "target")
}

func startSource(t *testing.T, opts Options) Source {
	t.Helper()

	src, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, src.Start())
	t.Cleanup(src.Stop)

	return src
}

func waitFor(t *testing.T, events <-chan model.FileEvent, path string) model.FileEvent {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "event channel closed")
			if e.Path == path {
				return e
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
			return model.FileEvent{}
		}
	}
}

func assertNoEventFor(t *testing.T, events <-chan model.FileEvent, prefix string, d time.Duration) {
	t.Helper()

	deadline := time.After(d)
	for {
		select {
		case e := <-events:
			assert.False(t, strings.HasPrefix(e.Path, prefix), "unexpected event %s", e.Path)
		case <-deadline:
			return
		}
	}
}

func TestNotifyReportsWrites(t *testing.T) {
	root := t.TempDir()
	src := startSource(t, Options{Root: root})

	path := filepath.Join(root, "a.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	e := waitFor(t, src.Events(), path)
	assert.Contains(t, []model.EventType{model.EventCreate, model.EventWrite}, e.Type)
}

func TestNotifyWatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	src := startSource(t, Options{Root: root})

	dir := filepath.Join(root, "src", "nested")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	waitFor(t, src.Events(), filepath.Join(root, "src"))

	require.NoError(t, os.Mkdir(dir, 0755))
	waitFor(t, src.Events(), dir)

	path := filepath.Join(dir, "lib.rs")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	waitFor(t, src.Events(), path)
}

func TestNotifyReportsRemoval(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "gone.rs")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	src := startSource(t, Options{Root: root})
	require.NoError(t, os.Remove(path))

	e := waitFor(t, src.Events(), path)
	assert.Equal(t, model.EventRemove, e.Type)
}

func TestNotifySkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "target", "debug"), 0755))

	src := startSource(t, Options{Root: root, Skip: skipTarget})

	require.NoError(t, os.WriteFile(filepath.Join(root, "target", "debug", "out.rs"), nil, 0644))
	assertNoEventFor(t, src.Events(), filepath.Join(root, "target", "debug"), 200*time.Millisecond)
}

func TestNotifyMissingRoot(t *testing.T) {
	src, err := New(Options{Root: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)
	require.Error(t, src.Start())
}

func TestNotifyStopClosesEvents(t *testing.T) {
	src, err := New(Options{Root: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, src.Start())

	src.Stop()
	src.Stop()

	_, ok := <-src.Events()
	assert.False(t, ok)
}

func TestPollReportsWrites(t *testing.T) {
	root := t.TempDir()
	src := startSource(t, Options{Root: root, Poll: true, PollInterval: 20 * time.Millisecond})

	path := filepath.Join(root, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))

	e := waitFor(t, src.Events(), path)
	assert.Equal(t, model.EventCreate, e.Type)
}

func TestPollSkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "target"), 0755))

	src := startSource(t, Options{Root: root, Poll: true, PollInterval: 20 * time.Millisecond, Skip: skipTarget})

	require.NoError(t, os.WriteFile(filepath.Join(root, "target", "out.rs"), nil, 0644))
	assertNoEventFor(t, src.Events(), filepath.Join(root, "target"), 200*time.Millisecond)
}

func TestPollRejectsTinyInterval(t *testing.T) {
	_, err := New(Options{Root: t.TempDir(), Poll: true, PollInterval: time.Microsecond})
	require.Error(t, err)
}

func TestPollStopClosesEvents(t *testing.T) {
	src, err := New(Options{Root: t.TempDir(), Poll: true, PollInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, src.Start())

	src.Stop()

	_, ok := <-src.Events()
	assert.False(t, ok)
}
