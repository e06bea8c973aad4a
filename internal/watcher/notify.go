package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"rewatch/internal/logger"
	"rewatch/internal/model"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Notify struct {
	fw       *fsnotify.Watcher
	opts     Options
	eventCh  chan model.FileEvent
	doneCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewNotify(opts Options) (*Notify, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Notify{
		fw:      fw,
		opts:    opts,
		eventCh: make(chan model.FileEvent, opts.BufferSize),
		doneCh:  make(chan struct{}),
	}, nil
}

func (w *Notify) Start() error {
	info, err := os.Stat(w.opts.Root)
	if err != nil {
		_ = w.fw.Close()
		return fmt.Errorf("watch root not found: %w", err)
	}
	if !info.IsDir() {
		_ = w.fw.Close()
		return fmt.Errorf("watch root %s is not a directory", w.opts.Root)
	}

	if err := w.addRecursive(w.opts.Root); err != nil {
		_ = w.fw.Close()
		return err
	}

	w.wg.Add(1)
	go w.run()

	logger.Log.Info("watcher started",
		zap.String("root", w.opts.Root),
		zap.String("backend", "fsnotify"))
	return nil
}

func (w *Notify) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != w.opts.Root && w.opts.Skip(relPath(w.opts.Root, path)) {
			return filepath.SkipDir
		}

		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		logger.Log.Debug("watching directory",
			zap.String("path", path))

		return nil
	})
}

func (w *Notify) run() {
	defer w.wg.Done()
	defer close(w.eventCh)

	for {
		select {
		case <-w.doneCh:
			logger.Log.Debug("watcher stopping")
			return

		case fsEvent, ok := <-w.fw.Events:
			if !ok {
				return
			}

			eventType := toEventType(fsEvent.Op)
			if eventType == "" {
				continue
			}

			if fsEvent.Op.Has(fsnotify.Create) {
				w.watchNewDir(fsEvent.Name)
			}

			event := model.FileEvent{
				Type:      eventType,
				Path:      fsEvent.Name,
				Timestamp: time.Now(),
			}

			select {
			case w.eventCh <- event:
			default:
				logger.Log.Warn("event channel is full, dropping event",
					zap.String("path", fsEvent.Name))
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}

			logger.Log.Error("watcher error",
				zap.Error(err))
		}
	}
}

func (w *Notify) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	if w.opts.Skip(relPath(w.opts.Root, path)) {
		return
	}

	if err := w.addRecursive(path); err != nil {
		logger.Log.Warn("failed to watch new directory",
			zap.String("path", path),
			zap.Error(err))
		return
	}

	logger.Log.Debug("added new directory to watch",
		zap.String("path", path))
}

func (w *Notify) Events() <-chan model.FileEvent {
	return w.eventCh
}

func (w *Notify) Stop() {
	w.stopOnce.Do(func() {
		close(w.doneCh)
		_ = w.fw.Close()
		w.wg.Wait()
	})
}

func toEventType(op fsnotify.Op) model.EventType {
	switch {
	case op.Has(fsnotify.Create):
		return model.EventCreate
	case op.Has(fsnotify.Write):
		return model.EventWrite
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return model.EventRemove
	default:
		return ""
	}
}
