package procexec

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func shell(name, script string) domain.Step {
	return domain.Step{Name: name, Program: "sh", Args: []string{"-c", script}}
}

func TestExecutor_Success(t *testing.T) {
	requireShell(t)
	e := &Executor{}

	res := e.Run(context.Background(), shell("test", "echo hello; echo oops >&2"), t.TempDir(), nil)

	require.NoError(t, res.Err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)
	assert.Equal(t, "test", res.Step)
	assert.Positive(t, res.Duration)
}

func TestExecutor_NonZeroExit(t *testing.T) {
	requireShell(t)
	e := &Executor{}

	res := e.Run(context.Background(), shell("test", "exit 3"), t.TempDir(), nil)

	assert.Equal(t, 3, res.ExitCode)
	assert.ErrorIs(t, res.Err, domain.ErrStepFailed)
	var stepErr *domain.StepError
	require.ErrorAs(t, res.Err, &stepErr)
	assert.Equal(t, 3, stepErr.ExitCode)
}

func TestExecutor_ExecutableNotFound(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "spawned")
	e := &Executor{}

	res := e.Run(context.Background(), domain.Step{
		Name:    "test",
		Program: "ngr-definitely-not-installed",
		Args:    []string{marker},
	}, dir, nil)

	assert.ErrorIs(t, res.Err, domain.ErrExecutableNotFound)
	assert.ErrorIs(t, res.Err, domain.ErrToolMissing)
	assert.Equal(t, -1, res.ExitCode)
	assert.NoFileExists(t, marker)
}

func TestExecutor_RelativeProgram(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	script := filepath.Join(dir, "gradlew")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho wrapper \"$@\"\n"), 0o755))

	res := (&Executor{}).Run(context.Background(), domain.Step{Name: "test", Program: "./gradlew", Args: []string{"check"}}, dir, nil)

	require.NoError(t, res.Err)
	assert.Equal(t, "wrapper check\n", res.Stdout)

	res = (&Executor{}).Run(context.Background(), domain.Step{Name: "test", Program: "./mvnw"}, dir, nil)
	assert.ErrorIs(t, res.Err, domain.ErrExecutableNotFound)
}

func TestExecutor_Environment(t *testing.T) {
	requireShell(t)
	t.Setenv("NGR_TEST_BASE", "base")
	step := shell("env", `echo "$NGR_TEST_BASE $NGR_TEST_PROVIDED $NGR_TEST_STEP"`)
	step.Env = map[string]string{"NGR_TEST_STEP": "step", "NGR_TEST_PROVIDED": "overridden"}

	res := (&Executor{}).Run(context.Background(), step, t.TempDir(), map[string]string{"NGR_TEST_PROVIDED": "provided"})

	require.NoError(t, res.Err)
	assert.Equal(t, "base overridden step\n", res.Stdout)
}

func TestExecutor_WorkingDirectory(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0o644))

	res := (&Executor{}).Run(context.Background(), shell("ls", "ls"), dir, nil)

	require.NoError(t, res.Err)
	assert.Equal(t, dir, res.Dir)
	assert.Contains(t, res.Stdout, "marker")
}

func TestExecutor_Timeout(t *testing.T) {
	requireShell(t)
	e := &Executor{Timeout: 100 * time.Millisecond, GracePeriod: 200 * time.Millisecond}

	start := time.Now()
	res := e.Run(context.Background(), shell("test", "sleep 30"), t.TempDir(), nil)

	assert.ErrorIs(t, res.Err, domain.ErrTimeout)
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExecutor_GracePeriodEscalates(t *testing.T) {
	requireShell(t)
	e := &Executor{Timeout: 100 * time.Millisecond, GracePeriod: 200 * time.Millisecond}

	start := time.Now()
	res := e.Run(context.Background(), shell("test", `trap "" TERM; sleep 30`), t.TempDir(), nil)

	assert.ErrorIs(t, res.Err, domain.ErrTimeout)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExecutor_Cancelled(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	res := (&Executor{GracePeriod: time.Second}).Run(ctx, shell("test", "sleep 30"), t.TempDir(), nil)

	assert.ErrorIs(t, res.Err, domain.ErrCancelled)
	assert.NotErrorIs(t, res.Err, domain.ErrTimeout)
}

func TestExecutor_CancelledBeforeStart(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	marker := filepath.Join(dir, "spawned")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := (&Executor{}).Run(ctx, shell("test", "touch "+marker), dir, nil)

	assert.ErrorIs(t, res.Err, domain.ErrCancelled)
	assert.Equal(t, -1, res.ExitCode)
	assert.NoFileExists(t, marker)
}

func TestExecutor_ExpiredBeforeStart(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	res := (&Executor{}).Run(ctx, shell("test", "true"), t.TempDir(), nil)

	assert.ErrorIs(t, res.Err, domain.ErrTimeout)
}

func TestExecutor_ResolvesAgainstProvidedPath(t *testing.T) {
	requireShell(t)
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "ngr-fake-tool"), []byte("#!/bin/sh\necho from-env-path\n"), 0o755))

	res := (&Executor{}).Run(context.Background(), domain.Step{Name: "test", Program: "ngr-fake-tool"}, t.TempDir(), map[string]string{"PATH": bin})

	require.NoError(t, res.Err)
	assert.Equal(t, "from-env-path\n", res.Stdout)
}

func TestExecutor_StreamsOutput(t *testing.T) {
	requireShell(t)
	var stdout, stderr bytes.Buffer
	e := &Executor{Stdout: &stdout, Stderr: &stderr}

	res := e.Run(context.Background(), shell("test", "echo out; echo err >&2"), t.TempDir(), nil)

	require.NoError(t, res.Err)
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
	assert.Equal(t, "out\n", res.Stdout)
}

func TestExecutor_TailCapsOutput(t *testing.T) {
	requireShell(t)
	e := &Executor{TailBytes: 8}

	res := e.Run(context.Background(), shell("test", "printf 'aaaaaaaaaaaaaaaa12345678'"), t.TempDir(), nil)

	require.NoError(t, res.Err)
	assert.Equal(t, "12345678", res.Stdout)
}

func TestTailBuffer(t *testing.T) {
	b := newTailBuffer(4)
	_, _ = b.Write([]byte("ab"))
	assert.False(t, b.Truncated())
	_, _ = b.Write([]byte("cdef"))
	assert.Equal(t, "cdef", b.String())
	assert.True(t, b.Truncated())
}

func TestMergeEnv(t *testing.T) {
	got := mergeEnv(
		[]string{"A=1", "B=2", "A=3"},
		map[string]string{"B": "provider", "C": "provider"},
		map[string]string{"C": "step"},
	)

	assert.Equal(t, []string{"A=3", "B=provider", "C=step"}, got)
}

func TestResolver_LookPath(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notexec"), []byte("x"), 0o644))

	path, err := Resolver{}.LookPath(dir, "sh", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "sh"))

	_, err = Resolver{}.LookPath(dir, "./notexec", nil)
	assert.ErrorIs(t, err, domain.ErrExecutableNotFound)

	_, err = Resolver{}.LookPath(dir, "", nil)
	assert.ErrorIs(t, err, domain.ErrExecutableNotFound)
}

func TestResolver_ProvidedPath(t *testing.T) {
	requireShell(t)
	bin := t.TempDir()
	tool := filepath.Join(bin, "ngr-fake-tool")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "notexec"), []byte("x"), 0o644))

	path, err := Resolver{}.LookPath(t.TempDir(), "ngr-fake-tool", map[string]string{"PATH": bin})
	require.NoError(t, err)
	assert.Equal(t, tool, path)

	_, err = Resolver{}.LookPath(t.TempDir(), "ngr-fake-tool", nil)
	assert.ErrorIs(t, err, domain.ErrExecutableNotFound)

	_, err = Resolver{}.LookPath(t.TempDir(), "notexec", map[string]string{"PATH": bin})
	assert.ErrorIs(t, err, domain.ErrExecutableNotFound)

	_, err = Resolver{}.LookPath(t.TempDir(), "sh", map[string]string{"PATH": bin})
	assert.ErrorIs(t, err, domain.ErrExecutableNotFound)
}
