package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync/atomic"
	"time"
)

var ErrEmptyCommand = errors.New("command is empty")

// outputFlushDelay bounds how long Wait keeps copying output after the
// child exited. It only applies to writers that are not *os.File, since
// exec hands files to the child directly and creates no pipe for them.
const outputFlushDelay = 2 * time.Second

type Process struct {
	cmd       *exec.Cmd
	pid       int
	pgid      int
	startedAt time.Time
	done      chan struct{}
	stopped   atomic.Bool

	// set before done is closed
	finishedAt time.Time
	exitCode   int
	waitErr    error
}

func Start(c Command) (*Process, error) {
	if len(c.Argv) == 0 || c.Argv[0] == "" {
		return nil, ErrEmptyCommand
	}

	cmd := exec.Command(c.Argv[0], c.Argv[1:]...)
	cmd.Env = c.Environ()
	cmd.Dir = c.Dir
	cmd.Stdout = c.stdout()
	cmd.Stderr = c.stderr()
	cmd.WaitDelay = outputFlushDelay
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", c.Argv[0], err)
	}

	p := &Process{
		cmd:       cmd,
		pid:       cmd.Process.Pid,
		pgid:      groupID(cmd.Process.Pid),
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}

	go p.wait()

	return p, nil
}

func (p *Process) wait() {
	err := p.cmd.Wait()

	p.finishedAt = time.Now()
	p.exitCode = -1
	if p.cmd.ProcessState != nil {
		p.exitCode = p.cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		p.waitErr = err
	}

	close(p.done)
}

func (p *Process) Pid() int {
	return p.pid
}

func (p *Process) StartedAt() time.Time {
	return p.startedAt
}

func (p *Process) Done() <-chan struct{} {
	return p.done
}

func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitCode is -1 when the process was killed by a signal. Only valid after Done.
func (p *Process) ExitCode() int {
	<-p.done
	return p.exitCode
}

func (p *Process) FinishedAt() time.Time {
	<-p.done
	return p.finishedAt
}

// Err reports failures of the wait itself, not a non-zero exit.
func (p *Process) Err() error {
	<-p.done
	return p.waitErr
}

// Stopped reports whether Stop was called before the process exited on its own.
func (p *Process) Stopped() bool {
	return p.stopped.Load()
}

// Stop terminates the process group: a polite signal first, a kill once
// grace has passed or ctx is done. It returns after the process has exited.
func (p *Process) Stop(ctx context.Context, grace time.Duration) error {
	if p.Exited() {
		return nil
	}
	p.stopped.Store(true)

	termErr := terminate(p)

	if grace > 0 {
		timer := time.NewTimer(grace)
		defer timer.Stop()

		select {
		case <-p.done:
			// stragglers in the group that ignored the signal
			_ = kill(p)
			return termErr
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	killErr := kill(p)
	<-p.done

	return errors.Join(termErr, killErr)
}
