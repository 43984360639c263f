//go:build windows

package procexec

import (
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

// processGroup confines the step's child and its descendants to a job object.
type processGroup struct {
	mu  sync.Mutex
	job windows.Handle
}

func newProcessGroup() *processGroup {
	return &processGroup{}
}

func (g *processGroup) configure(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

func (g *processGroup) attach(cmd *exec.Cmd) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return
	}
	proc, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(cmd.Process.Pid))
	if err != nil {
		_ = windows.CloseHandle(job)
		return
	}
	defer windows.CloseHandle(proc)
	if err := windows.AssignProcessToJobObject(job, proc); err != nil {
		_ = windows.CloseHandle(job)
		return
	}

	g.mu.Lock()
	g.job = job
	g.mu.Unlock()
}

// terminate ends the whole job; Windows has no graceful group signal.
func (g *processGroup) terminate(cmd *exec.Cmd) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.job != 0 {
		return windows.TerminateJobObject(g.job, 1)
	}
	if cmd.Process != nil {
		return cmd.Process.Kill()
	}
	return nil
}

// awaitExit has nothing to wait for: terminate already ended the job.
func (g *processGroup) awaitExit(*exec.Cmd, time.Time) {}

func (g *processGroup) kill(cmd *exec.Cmd) {
	_ = g.terminate(cmd)
}

func (g *processGroup) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.job != 0 {
		_ = windows.CloseHandle(g.job)
		g.job = 0
	}
}
