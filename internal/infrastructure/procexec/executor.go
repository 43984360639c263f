// Package procexec runs recipe steps as child process trees.
//
// Every step is started in its own process group (a job object on Windows).
// Cancellation and timeouts terminate the whole group and give its members
// the grace period to exit before the survivors are killed. Once a step
// finishes normally its leftover descendants are killed at once.
package procexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// DefaultGracePeriod is the time between the termination request and the
// forced kill of a cancelled process group.
const DefaultGracePeriod = 5 * time.Second

// Executor runs steps as child processes.
type Executor struct {
	// Timeout bounds every step. Zero means no limit.
	Timeout time.Duration
	// GracePeriod defaults to DefaultGracePeriod.
	GracePeriod time.Duration
	// TailBytes caps the captured output per stream.
	TailBytes int
	// Stdout and Stderr receive the output as it arrives when set.
	Stdout io.Writer
	Stderr io.Writer
	// Resolver overrides executable lookup (for testing).
	Resolver application.ToolProber
}

// Run executes a step in dir and reports every failure in the result.
func (e *Executor) Run(ctx context.Context, step domain.Step, dir string, env map[string]string) domain.ExecutionResult {
	start := time.Now()
	res := domain.ExecutionResult{
		Step:    step.Name,
		Command: step.CommandLine(),
		Dir:     dir,
	}

	path, err := e.resolver().LookPath(dir, step.Program, overlay(env, step.Env))
	if err != nil {
		res.ExitCode = -1
		res.Err = err
		return res
	}

	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	stdout := newTailBuffer(e.TailBytes)
	stderr := newTailBuffer(e.TailBytes)

	// #nosec G204 -- programs come from recipes, not from untrusted input
	cmd := exec.CommandContext(runCtx, path, step.Args...)
	cmd.Dir = dir
	cmd.Env = mergeEnv(os.Environ(), env, step.Env)
	cmd.Stdout = tee(stdout, e.Stdout)
	cmd.Stderr = tee(stderr, e.Stderr)

	group := newProcessGroup()
	group.configure(cmd)
	// unix nanos of the termination request, zero while none was made
	var terminatedAt atomic.Int64
	cmd.Cancel = func() error {
		terminatedAt.CompareAndSwap(0, time.Now().UnixNano())
		return group.terminate(cmd)
	}
	cmd.WaitDelay = e.gracePeriod()

	if err := cmd.Start(); err != nil {
		group.close()
		res.ExitCode = -1
		res.Duration = time.Since(start)
		switch {
		case runCtx.Err() != nil:
			_, res.Err = classify(runCtx, step, cmd, err)
		case errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist):
			res.Err = fmt.Errorf("%s: %w", step.Program, domain.ErrExecutableNotFound)
		default:
			res.Err = fmt.Errorf("start %s: %w", step.Program, err)
		}
		return res
	}
	group.attach(cmd)

	waitErr := cmd.Wait()
	if at := terminatedAt.Load(); at != 0 {
		group.awaitExit(cmd, time.Unix(0, at).Add(e.gracePeriod()))
	}
	group.kill(cmd)
	group.close()

	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.ExitCode, res.Err = classify(runCtx, step, cmd, waitErr)
	return res
}

func classify(ctx context.Context, step domain.Step, cmd *exec.Cmd, waitErr error) (int, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return -1, fmt.Errorf("%s: %w", step.Name, domain.ErrTimeout)
		}
		return -1, fmt.Errorf("%s: %w", step.Name, domain.ErrCancelled)
	}

	code := 0
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil, errors.Is(waitErr, exec.ErrWaitDelay):
		// Output pipes held open by a descendant; the group is gone now.
	case errors.As(waitErr, &exitErr):
		code = exitErr.ExitCode()
	default:
		return -1, fmt.Errorf("wait %s: %w", step.Name, waitErr)
	}
	if code != 0 {
		return code, &domain.StepError{Step: step.Name, ExitCode: code}
	}
	return 0, nil
}

func (e *Executor) resolver() application.ToolProber {
	if e.Resolver != nil {
		return e.Resolver
	}
	return Resolver{}
}

func (e *Executor) gracePeriod() time.Duration {
	if e.GracePeriod > 0 {
		return e.GracePeriod
	}
	return DefaultGracePeriod
}

func tee(buf *tailBuffer, sink io.Writer) io.Writer {
	if sink == nil {
		return buf
	}
	return io.MultiWriter(buf, sink)
}

// overlay merges the maps in order into a new map. Later maps win.
func overlay(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// mergeEnv overlays the given maps onto base in order. Later maps win.
func mergeEnv(base []string, overlays ...map[string]string) []string {
	index := make(map[string]int, len(base))
	out := make([]string, 0, len(base))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if i, ok := index[key]; ok {
			out[i] = kv
			continue
		}
		index[key] = len(out)
		out = append(out, kv)
	}
	for _, overlay := range overlays {
		keys := make([]string, 0, len(overlay))
		for k := range overlay {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			kv := k + "=" + overlay[k]
			if i, ok := index[k]; ok {
				out[i] = kv
				continue
			}
			index[k] = len(out)
			out = append(out, kv)
		}
	}
	return out
}
