package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fatih/color"
	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/host/hosttest"
	"github.com/fgeck/hostprep/internal/services/progress"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testScript() []models.Step {
	return []models.Step{
		required("Updating package list...", "apt-get update"),
		optional("Checking status...", "systemctl status nginx"),
		required("Installing Nginx...", "apt-get install -y nginx"),
	}
}

func TestRun_AllSucceed(t *testing.T) {
	h := hosttest.New("ubuntu")
	var out bytes.Buffer
	svc := New(testLogger(), progress.New(&out, io.Discard))

	result, err := svc.Run(context.Background(), h, testScript())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"sudo apt-get update",
		"sudo systemctl status nginx",
		"sudo apt-get install -y nginx",
	}, h.Commands)
	assert.Len(t, result.Executed, 3)
	assert.Contains(t, out.String(), "Updating package list...")
	assert.Contains(t, out.String(), "Installing Nginx...")
}

func TestRun_RequiredFailureStopsScript(t *testing.T) {
	h := hosttest.New("ubuntu").On("sudo apt-get update", hosttest.Response{ExitCode: 100, Stderr: "E: Could not get lock"})
	var errOut bytes.Buffer
	svc := New(testLogger(), progress.New(io.Discard, &errOut))

	result, err := svc.Run(context.Background(), h, testScript())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequiredStepFailed)
	assert.Equal(t, []string{"sudo apt-get update"}, h.Commands, "no step after the failing required step runs")
	assert.Len(t, result.Executed, 1)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "apt-get update", stepErr.Step.Command)
	assert.Equal(t, 100, stepErr.Result.ExitCode)
	assert.Contains(t, err.Error(), "exit status 100")
	assert.Contains(t, errOut.String(), "E: Could not get lock")
}

func TestRun_OptionalFailureContinues(t *testing.T) {
	h := hosttest.New("ubuntu").On("sudo systemctl status nginx", hosttest.Response{ExitCode: 3})
	var errOut bytes.Buffer
	svc := New(testLogger(), progress.New(io.Discard, &errOut))

	result, err := svc.Run(context.Background(), h, testScript())

	require.NoError(t, err)
	assert.Len(t, h.Commands, 3)
	assert.False(t, result.Executed[1].Succeeded())
	assert.True(t, result.Executed[2].Succeeded())
	assert.Contains(t, errOut.String(), "Checking status... failed, continuing")
}

func TestRun_TransportErrorOnRequiredStep(t *testing.T) {
	lost := errors.New("connection lost")
	h := hosttest.New("ubuntu").On("sudo apt-get update", hosttest.Response{Err: lost})
	svc := New(testLogger(), progress.Discard())

	_, err := svc.Run(context.Background(), h, testScript())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequiredStepFailed)
	assert.ErrorIs(t, err, lost)
	assert.Len(t, h.Commands, 1)
}

func TestRun_TransportErrorOnOptionalStep(t *testing.T) {
	h := hosttest.New("ubuntu").On("sudo systemctl status nginx", hosttest.Response{Err: errors.New("eof")})
	svc := New(testLogger(), progress.Discard())

	_, err := svc.Run(context.Background(), h, testScript())

	require.NoError(t, err)
	assert.Len(t, h.Commands, 3)
}

func TestRun_UnelevatedStep(t *testing.T) {
	h := hosttest.New("ubuntu")
	svc := New(testLogger(), progress.Discard())

	_, err := svc.Run(context.Background(), h, []models.Step{{Description: "Uptime", Command: "uptime"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"uptime"}, h.Commands)
}

func TestRun_ContextCancelled(t *testing.T) {
	h := hosttest.New("ubuntu")
	svc := New(testLogger(), progress.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, h, testScript())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.Commands)
}

func TestRun_EmptyScript(t *testing.T) {
	result, err := New(testLogger(), progress.Discard()).Run(context.Background(), hosttest.New("u"), nil)

	require.NoError(t, err)
	assert.Empty(t, result.Executed)
}

func TestStepError_Error(t *testing.T) {
	step := required("Installing Docker...", "apt-get install -y docker-ce")

	tests := []struct {
		name string
		err  *StepError
		want string
	}{
		{"exit status", &StepError{Step: step, Result: &models.CommandResult{ExitCode: 100}}, "Installing Docker...: exit status 100"},
		{"transport error", &StepError{Step: step, Err: errors.New("connection lost")}, "Installing Docker...: connection lost"},
		{"no result", &StepError{Step: step}, "Installing Docker...: no result"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, ErrRequiredStepFailed)
		})
	}
}
