//go:build windows

package runner

import (
	"errors"
	"os"
	"os/exec"
)

func setProcessGroup(_ *exec.Cmd) {}

func groupID(_ int) int {
	return 0
}

func signalGroup(p *Process, sig os.Signal) error {
	if sig == os.Kill {
		return kill(p)
	}
	return p.cmd.Process.Signal(sig)
}

// Windows has no SIGTERM; terminate is a kill.
func terminate(p *Process) error {
	return kill(p)
}

func kill(p *Process) error {
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
