package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	executeFunc func(ctx context.Context, command string, stdout, stderr io.Writer) (int, error)
	commands    []string
}

func (m *mockExecutor) Execute(ctx context.Context, command string, stdout, stderr io.Writer) (int, error) {
	m.commands = append(m.commands, command)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, command, stdout, stderr)
	}
	return 0, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestRun_Elevated(t *testing.T) {
	executor := &mockExecutor{}
	shell := NewWithExecutor(testLogger(), executor, "deploy")

	result, err := shell.Run(context.Background(), "systemctl start docker", true)

	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, []string{"sudo systemctl start docker"}, executor.commands)
}

func TestRun_CapturesOutput(t *testing.T) {
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, command string, stdout, stderr io.Writer) (int, error) {
			_, _ = io.WriteString(stdout, "out")
			_, _ = io.WriteString(stderr, "err")
			return 2, nil
		},
	}
	shell := NewWithExecutor(testLogger(), executor, "deploy")

	result, err := shell.Run(context.Background(), "false", false)

	require.NoError(t, err)
	assert.Equal(t, 2, result.ExitCode)
	assert.Equal(t, "out", result.Stdout)
	assert.Equal(t, "err", result.Stderr)
	assert.False(t, result.Success())
}

func TestRun_ExecutorError(t *testing.T) {
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, command string, stdout, stderr io.Writer) (int, error) {
			return -1, errors.New("sh: not found")
		},
	}
	shell := NewWithExecutor(testLogger(), executor, "deploy")

	result, err := shell.Run(context.Background(), "uptime", false)

	require.Error(t, err)
	assert.Equal(t, -1, result.ExitCode)
}

func TestDefaultExecutor_ExitStatus(t *testing.T) {
	shell := NewWithExecutor(testLogger(), &DefaultExecutor{}, "deploy")

	result, err := shell.Run(context.Background(), "echo hello; echo oops >&2; exit 3", false)

	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestDefaultExecutor_Success(t *testing.T) {
	shell := NewWithExecutor(testLogger(), &DefaultExecutor{}, "deploy")

	result, err := shell.Run(context.Background(), "true", false)

	require.NoError(t, err)
	assert.True(t, result.Success())
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("server {}\n"), 0o600))

	shell := NewWithExecutor(testLogger(), &mockExecutor{}, "deploy")
	require.NoError(t, shell.Upload(context.Background(), src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "server {}\n", string(content))
}

func TestUpload_UnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	shell := NewWithExecutor(testLogger(), &mockExecutor{}, "deploy")
	err := shell.Upload(context.Background(), src, filepath.Join(dir, "missing", "dst"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create")
}

func TestIdentity(t *testing.T) {
	shell := NewWithExecutor(testLogger(), &mockExecutor{}, "deploy")
	assert.Equal(t, "deploy", shell.User())
	assert.Equal(t, "local", shell.String())
	assert.NoError(t, shell.Close())

	assert.NotEmpty(t, New(testLogger()).User())
}
