package daemon

import (
	"context"
	"errors"
	"fmt"
	"rewatch/internal/logger"
	"rewatch/internal/model"
	"rewatch/internal/pipeline"
	"rewatch/internal/runner"
	"rewatch/internal/watcher"
	"time"

	"go.uber.org/zap"
)

const DefaultGracePeriod = 3 * time.Second

var errWatchClosed = errors.New("event stream closed unexpectedly")

type Recorder interface {
	Save(result model.RunResult) error
}

type Options struct {
	Root     string
	Patterns []string
	Ignore   []string
	Command  runner.Command
	Debounce time.Duration
	// Grace is how long a cancelled run gets between SIGTERM and SIGKILL.
	Grace        time.Duration
	BufferSize   int
	Poll         bool
	PollInterval time.Duration
	InitialRun   bool

	Recorder Recorder
	OnSpawn  func(seq uint64, pid int)
	OnResult func(result model.RunResult)

	NewSource func(opts watcher.Options) (watcher.Source, error)
}

type Loop struct {
	opts     Options
	spec     *pipeline.Spec
	state    *RunState
	manualCh chan struct{}
}

// Start watches patterns below the working directory and runs command on
// every debounced change until ctx is cancelled.
func Start(ctx context.Context, patterns []string, command runner.Command, debounce time.Duration) error {
	loop, err := NewLoop(Options{
		Patterns: patterns,
		Command:  command,
		Debounce: debounce,
	})
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}

func NewLoop(opts Options) (*Loop, error) {
	if opts.Debounce < 0 {
		return nil, &ConfigError{Field: "debounce", Err: fmt.Errorf("must not be negative, got %s", opts.Debounce)}
	}
	if opts.Grace < 0 {
		return nil, &ConfigError{Field: "grace_period", Err: fmt.Errorf("must not be negative, got %s", opts.Grace)}
	}
	if opts.Grace == 0 {
		opts.Grace = DefaultGracePeriod
	}
	if len(opts.Command.Argv) == 0 || opts.Command.Argv[0] == "" {
		return nil, &ConfigError{Field: "command", Err: runner.ErrEmptyCommand}
	}

	spec, err := pipeline.NewSpec(opts.Root, opts.Patterns, opts.Ignore)
	if err != nil {
		return nil, &ConfigError{Field: "patterns", Err: err}
	}

	if opts.NewSource == nil {
		opts.NewSource = watcher.New
	}

	return &Loop{
		opts:     opts,
		spec:     spec,
		state:    NewRunState(opts.Command.Argv, spec.Patterns()),
		manualCh: make(chan struct{}, 1),
	}, nil
}

func (l *Loop) Snapshot() model.RunSnapshot {
	return l.state.Snapshot()
}

// Trigger asks for a run without waiting for a filesystem change.
func (l *Loop) Trigger() {
	select {
	case l.manualCh <- struct{}{}:
	default:
	}
}

func (l *Loop) Run(ctx context.Context) error {
	src, err := l.opts.NewSource(watcher.Options{
		Root:         l.spec.Root(),
		BufferSize:   l.opts.BufferSize,
		Poll:         l.opts.Poll,
		PollInterval: l.opts.PollInterval,
		Skip:         l.spec.Ignored,
	})
	if err != nil {
		return &WatchSetupError{Root: l.spec.Root(), Err: err}
	}

	if err := src.Start(); err != nil {
		return &WatchSetupError{Root: l.spec.Root(), Err: err}
	}

	ctx, cancel := context.WithCancel(ctx)

	filteredCh := pipeline.Filter(ctx, src.Events(), l.spec)
	triggerCh := pipeline.Debounce(ctx, filteredCh, l.opts.Debounce)

	defer func() {
		l.shutdown()
		src.Stop()
		cancel()
		for range triggerCh {
		}
		logger.Log.Info("watch loop stopped")
	}()

	logger.Log.Info("watch loop started",
		zap.String("root", l.spec.Root()),
		zap.Strings("patterns", l.spec.Patterns()),
		zap.String("command", l.opts.Command.String()),
		zap.Duration("debounce", l.opts.Debounce))

	if l.opts.InitialRun {
		l.run(ctx, model.Trigger{Manual: true, FiredAt: time.Now()})
	}

	for {
		var exitCh <-chan struct{}
		current := l.state.Current()
		if current != nil {
			exitCh = current.Done()
		}

		select {
		case <-ctx.Done():
			logger.Log.Info("shutting down")
			return nil

		case trigger, ok := <-triggerCh:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return &WatchSetupError{Root: l.spec.Root(), Err: errWatchClosed}
			}

			logger.Log.Debug("change detected",
				zap.Strings("paths", trigger.Paths),
				zap.Int("events", trigger.Events))
			l.run(ctx, trigger)

		case <-l.manualCh:
			l.run(ctx, model.Trigger{Manual: true, FiredAt: time.Now()})

		case <-exitCh:
			if result, ok := l.state.Complete(current); ok {
				l.publish(result)
			}
		}
	}
}

// run cancels the in-flight run, if any, and starts a new one. Nothing is
// started once ctx is done.
func (l *Loop) run(ctx context.Context, trigger model.Trigger) {
	if ctx.Err() != nil {
		return
	}

	prev := l.state.Current()
	if prev != nil {
		logger.Log.Info("change during run, restarting",
			zap.Int("pid", prev.Pid()))

		if err := prev.Stop(ctx, l.opts.Grace); err != nil {
			logger.Log.Warn("failed to terminate previous run",
				zap.Int("pid", prev.Pid()),
				zap.Error(err))
		}
	}

	if ctx.Err() != nil {
		if result, ok := l.state.Complete(prev); ok {
			l.publish(result)
		}
		return
	}

	proc, err := runner.Start(l.opts.Command)
	if err != nil {
		if result, ok := l.state.Complete(prev); ok {
			l.publish(result)
		}

		spawnErr := &SpawnError{Argv: l.opts.Command.Argv, Err: err}
		logger.Log.Error("failed to run command",
			zap.Error(spawnErr))
		l.publish(l.state.SpawnFailed(trigger, spawnErr))
		return
	}

	result, ok, seq := l.state.Restart(prev, proc, trigger)
	if ok {
		l.publish(result)
	}

	logger.Log.Info("running",
		zap.Uint64("seq", seq),
		zap.Int("pid", proc.Pid()),
		zap.String("command", l.opts.Command.String()))

	if l.opts.OnSpawn != nil {
		l.opts.OnSpawn(seq, proc.Pid())
	}
}

func (l *Loop) shutdown() {
	current := l.state.Current()
	if current == nil {
		return
	}

	if err := current.Stop(context.Background(), l.opts.Grace); err != nil {
		logger.Log.Warn("failed to terminate run",
			zap.Int("pid", current.Pid()),
			zap.Error(err))
	}

	if result, ok := l.state.Complete(current); ok {
		l.publish(result)
	}
}

func (l *Loop) publish(result model.RunResult) {
	fields := []zap.Field{
		zap.Uint64("seq", result.Seq),
		zap.String("status", string(result.Status)),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("took", result.Duration().Round(time.Millisecond)),
	}

	switch result.Status {
	case model.RunSuccess:
		logger.Log.Info("run finished", fields...)
	case model.RunCanceled:
		logger.Log.Info("run canceled", fields...)
	case model.RunFailed:
		logger.Log.Warn("run failed", append(fields, zap.Error(result.Err))...)
	case model.RunSpawnError:
		logger.Log.Warn("run not started", append(fields, zap.Error(result.Err))...)
	}

	if l.opts.Recorder != nil {
		if err := l.opts.Recorder.Save(result); err != nil {
			logger.Log.Warn("failed to save history",
				zap.Error(err))
		}
	}

	if l.opts.OnResult != nil {
		l.opts.OnResult(result)
	}
}
