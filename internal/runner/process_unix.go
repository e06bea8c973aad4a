//go:build !windows

package runner

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func groupID(pid int) int {
	if pid <= 0 {
		return 0
	}
	pgid, err := unix.Getpgid(pid)
	if err != nil {
		return 0
	}
	return pgid
}

func signalGroup(p *Process, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return p.cmd.Process.Signal(sig)
	}

	target := p.pid
	if p.pgid > 0 {
		target = -p.pgid
	}

	err := unix.Kill(target, unix.Signal(s))
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func terminate(p *Process) error {
	return signalGroup(p, unix.SIGTERM)
}

func kill(p *Process) error {
	return signalGroup(p, unix.SIGKILL)
}
