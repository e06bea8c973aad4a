package watcher

import (
	"fmt"
	"path/filepath"
	"rewatch/internal/model"
	"time"
)

const (
	DefaultBufferSize   = 256
	DefaultPollInterval = 500 * time.Millisecond
)

// Source is a subscription to filesystem changes below a root directory.
// Events is closed once the source stops.
type Source interface {
	Events() <-chan model.FileEvent
	Start() error
	Stop()
}

type Options struct {
	Root         string
	BufferSize   int
	Poll         bool
	PollInterval time.Duration
	// Skip reports whether a path relative to Root should not be watched.
	Skip func(rel string) bool
}

func New(opts Options) (Source, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	opts.Root = root

	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}

	if opts.Skip == nil {
		opts.Skip = func(string) bool { return false }
	}

	if opts.Poll {
		if opts.PollInterval <= 0 {
			opts.PollInterval = DefaultPollInterval
		}
		if opts.PollInterval < time.Millisecond {
			return nil, fmt.Errorf("poll interval %s is too short", opts.PollInterval)
		}
		return NewPoll(opts), nil
	}

	return NewNotify(opts)
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
