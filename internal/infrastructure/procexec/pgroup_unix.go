//go:build unix

package procexec

import (
	"errors"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const exitPollInterval = 25 * time.Millisecond

// processGroup tracks the process group led by the step's child.
type processGroup struct{}

func newProcessGroup() *processGroup {
	return &processGroup{}
}

func (g *processGroup) configure(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func (g *processGroup) attach(*exec.Cmd) {}

// terminate asks every member of the group to exit.
func (g *processGroup) terminate(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGTERM)
}

// awaitExit returns once the group has no members left or deadline passes.
func (g *processGroup) awaitExit(cmd *exec.Cmd, deadline time.Time) {
	if cmd.Process == nil {
		return
	}
	for time.Now().Before(deadline) {
		if err := unix.Kill(-cmd.Process.Pid, 0); errors.Is(err, unix.ESRCH) {
			return
		}
		time.Sleep(exitPollInterval)
	}
}

// kill removes whatever is left of the group.
func (g *processGroup) kill(cmd *exec.Cmd) {
	_ = signalGroup(cmd, unix.SIGKILL)
}

func (g *processGroup) close() {}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	err := unix.Kill(-cmd.Process.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
