package daemon

import (
	"bytes"
	"context"
	"rewatch/internal/model"
	"rewatch/internal/watcher"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	ch       chan model.FileEvent
	stopOnce sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan model.FileEvent, 16)}
}

func (f *fakeSource) Events() <-chan model.FileEvent { return f.ch }
func (f *fakeSource) Start() error                   { return nil }
func (f *fakeSource) Stop()                          { f.stopOnce.Do(func() { close(f.ch) }) }

func (f *fakeSource) touch(path string) time.Time {
	now := time.Now()
	f.ch <- model.FileEvent{Type: model.EventWrite, Path: path, Timestamp: now}
	return now
}

func (f *fakeSource) factory(watcher.Options) (watcher.Source, error) {
	return f, nil
}

type spawn struct {
	seq uint64
	pid int
	at  time.Time
}

// observer records hook calls and the number of children alive at once.
type observer struct {
	mu        sync.Mutex
	spawns    []spawn
	results   []model.RunResult
	active    int
	maxActive int
}

func (o *observer) onSpawn(seq uint64, pid int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.active++
	o.maxActive = max(o.maxActive, o.active)
	o.spawns = append(o.spawns, spawn{seq: seq, pid: pid, at: time.Now()})
}

func (o *observer) onResult(result model.RunResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if result.Status != model.RunSpawnError {
		o.active--
	}
	o.results = append(o.results, result)
}

func (o *observer) spawnCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.spawns)
}

func (o *observer) resultCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.results)
}

func (o *observer) snapshot() ([]spawn, []model.RunResult, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]spawn(nil), o.spawns...), append([]model.RunResult(nil), o.results...), o.maxActive
}

func (o *observer) hook(opts *Options) {
	opts.OnSpawn = o.onSpawn
	opts.OnResult = o.onResult
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startLoop runs l in the background; the returned func cancels it and
// waits for Run to return.
func startLoop(t *testing.T, l *Loop) func() error {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Run(ctx)
	}()

	var once sync.Once
	var err error
	stop := func() error {
		once.Do(func() {
			cancel()
			select {
			case err = <-errCh:
			case <-time.After(10 * time.Second):
				t.Fatal("loop did not stop")
			}
		})
		return err
	}
	t.Cleanup(func() { _ = stop() })

	return stop
}

func newTestLoop(t *testing.T, opts Options) *Loop {
	t.Helper()

	if opts.Root == "" {
		opts.Root = t.TempDir()
	}
	if opts.Patterns == nil {
		opts.Patterns = []string{"*.rs"}
	}

	l, err := NewLoop(opts)
	require.NoError(t, err)
	return l
}
