package daemon

import (
	"rewatch/internal/model"
	"rewatch/internal/runner"
	"sync"
	"time"

	"github.com/mitchellh/go-ps"
)

// RunState tracks the in-flight child. Only the loop goroutine mutates it;
// every mutation and every snapshot holds the lock.
type RunState struct {
	mu        sync.RWMutex
	argv      []string
	patterns  []string
	startedAt time.Time

	proc    *runner.Process
	seq     uint64
	trigger model.Trigger

	runs        int
	failed      int
	canceled    int
	spawnErrors int
	lastStatus  model.RunStatus
	lastExit    int
	lastChanged *time.Time
}

func NewRunState(argv, patterns []string) *RunState {
	return &RunState{
		argv:      argv,
		patterns:  patterns,
		startedAt: time.Now(),
	}
}

func (s *RunState) Current() *runner.Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proc
}

// Complete records the exit of p. It returns false when p is not the
// in-flight process, so an exit is never recorded twice.
func (s *RunState) Complete(p *runner.Process) (model.RunResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeLocked(p)
}

// Restart records the exit of prev and installs next in one step, so a
// snapshot never sees the gap between a kill and the respawn.
func (s *RunState) Restart(prev, next *runner.Process, trigger model.Trigger) (model.RunResult, bool, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.completeLocked(prev)
	seq := s.beginLocked(next, trigger)
	return result, ok, seq
}

func (s *RunState) SpawnFailed(trigger model.Trigger, err error) model.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := time.Now()
	result := model.RunResult{
		Seq:        s.seq,
		Argv:       s.argv,
		Trigger:    trigger,
		StartedAt:  now,
		FinishedAt: now,
		ExitCode:   -1,
		Status:     model.RunSpawnError,
		Err:        err,
	}

	s.spawnErrors++
	s.record(result)
	return result
}

func (s *RunState) Snapshot() model.RunSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.RunSnapshot{
		Seq:         s.seq,
		Command:     s.argv,
		Patterns:    s.patterns,
		StartedAt:   s.startedAt,
		Runs:        s.runs,
		Failed:      s.failed,
		Canceled:    s.canceled,
		SpawnErrors: s.spawnErrors,
		LastStatus:  s.lastStatus,
		LastExit:    s.lastExit,
		LastChanged: s.lastChanged,
	}

	if s.proc != nil {
		snap.Running = true
		snap.Pid = s.proc.Pid()
		if proc, err := ps.FindProcess(snap.Pid); err == nil && proc != nil {
			snap.Executable = proc.Executable()
		}
	}

	return snap
}

func (s *RunState) beginLocked(p *runner.Process, trigger model.Trigger) uint64 {
	s.seq++
	s.proc = p
	s.trigger = trigger
	s.runs++
	return s.seq
}

func (s *RunState) completeLocked(p *runner.Process) (model.RunResult, bool) {
	if p == nil || s.proc != p {
		return model.RunResult{}, false
	}

	result := model.RunResult{
		Seq:        s.seq,
		Pid:        p.Pid(),
		Argv:       s.argv,
		Trigger:    s.trigger,
		StartedAt:  p.StartedAt(),
		FinishedAt: p.FinishedAt(),
		ExitCode:   p.ExitCode(),
		Err:        p.Err(),
	}

	switch {
	case p.Stopped():
		result.Status = model.RunCanceled
		s.canceled++
	case result.ExitCode == 0 && result.Err == nil:
		result.Status = model.RunSuccess
	default:
		result.Status = model.RunFailed
		s.failed++
	}

	s.proc = nil
	s.trigger = model.Trigger{}
	s.record(result)
	return result, true
}

func (s *RunState) record(result model.RunResult) {
	s.lastStatus = result.Status
	s.lastExit = result.ExitCode
	finishedAt := result.FinishedAt
	s.lastChanged = &finishedAt
}
