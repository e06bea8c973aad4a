package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"rewatch/internal/logger"
	"rewatch/internal/model"
	"sync"
	"time"

	filewatcher "github.com/radovskyb/watcher"
	"go.uber.org/zap"
)

// Poll detects changes by periodically listing the tree. It is slower than
// Notify but works on filesystems without change notifications, such as
// network mounts and some container volumes.
type Poll struct {
	fw       *filewatcher.Watcher
	opts     Options
	eventCh  chan model.FileEvent
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewPoll(opts Options) *Poll {
	fw := filewatcher.New()
	fw.FilterOps(
		filewatcher.Create,
		filewatcher.Write,
		filewatcher.Remove,
		filewatcher.Rename,
		filewatcher.Move,
	)

	return &Poll{
		fw:      fw,
		opts:    opts,
		eventCh: make(chan model.FileEvent, opts.BufferSize),
	}
}

func (p *Poll) Start() error {
	info, err := os.Stat(p.opts.Root)
	if err != nil {
		return fmt.Errorf("watch root not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", p.opts.Root)
	}

	skipped, err := p.skippedDirs()
	if err != nil {
		return err
	}
	if err := p.fw.Ignore(skipped...); err != nil {
		return fmt.Errorf("failed to ignore paths: %w", err)
	}

	if err := p.fw.AddRecursive(p.opts.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", p.opts.Root, err)
	}

	p.wg.Add(2)
	go p.run()
	go func() {
		defer p.wg.Done()
		if err := p.fw.Start(p.opts.PollInterval); err != nil {
			logger.Log.Error("poller stopped",
				zap.Error(err))
		}
	}()
	p.fw.Wait()

	logger.Log.Info("watcher started",
		zap.String("root", p.opts.Root),
		zap.String("backend", "poll"),
		zap.Duration("interval", p.opts.PollInterval))
	return nil
}

func (p *Poll) skippedDirs() ([]string, error) {
	var skipped []string

	err := filepath.WalkDir(p.opts.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == p.opts.Root {
			return nil
		}
		if p.opts.Skip(relPath(p.opts.Root, path)) {
			skipped = append(skipped, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", p.opts.Root, err)
	}

	return skipped, nil
}

// run drains the poller until it closes; the poller blocks on unread events.
func (p *Poll) run() {
	defer p.wg.Done()
	defer close(p.eventCh)

	for {
		select {
		case <-p.fw.Closed:
			return

		case fwEvent := <-p.fw.Event:
			if fwEvent.FileInfo != nil && fwEvent.IsDir() {
				continue
			}
			if p.opts.Skip(relPath(p.opts.Root, fwEvent.Path)) {
				continue
			}

			for _, event := range toFileEvents(fwEvent) {
				select {
				case p.eventCh <- event:
				default:
					logger.Log.Warn("event channel is full, dropping event",
						zap.String("path", event.Path))
				}
			}

		case err := <-p.fw.Error:
			logger.Log.Error("watcher error",
				zap.Error(err))
		}
	}
}

func (p *Poll) Events() <-chan model.FileEvent {
	return p.eventCh
}

func (p *Poll) Stop() {
	p.stopOnce.Do(func() {
		p.fw.Close()
		p.wg.Wait()
	})
}

func toFileEvents(e filewatcher.Event) []model.FileEvent {
	now := time.Now()

	switch e.Op {
	case filewatcher.Create:
		return []model.FileEvent{{Type: model.EventCreate, Path: e.Path, Timestamp: now}}
	case filewatcher.Write:
		return []model.FileEvent{{Type: model.EventWrite, Path: e.Path, Timestamp: now}}
	case filewatcher.Remove:
		return []model.FileEvent{{Type: model.EventRemove, Path: e.Path, Timestamp: now}}
	case filewatcher.Rename, filewatcher.Move:
		return []model.FileEvent{
			{Type: model.EventRemove, Path: e.OldPath, Timestamp: now},
			{Type: model.EventCreate, Path: e.Path, Timestamp: now},
		}
	default:
		return nil
	}
}
