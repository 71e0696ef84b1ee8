// Package local runs provisioning commands on the machine hostprep itself runs on.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/host"
	"github.com/rs/zerolog"
)

// CommandExecutor allows mocking exec.Command in tests.
type CommandExecutor interface {
	// Execute runs a shell command line and returns its exit status.
	Execute(ctx context.Context, command string, stdout, stderr io.Writer) (int, error)
}

// DefaultExecutor is the default command executor using os/exec.
type DefaultExecutor struct{}

// Execute runs command through sh -c.
func (e *DefaultExecutor) Execute(ctx context.Context, command string, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// Shell implements host.Host for the local machine.
type Shell struct {
	executor CommandExecutor
	user     string
	logger   zerolog.Logger
}

var _ host.Host = (*Shell)(nil)

// New creates a local shell running as the current user.
func New(logger zerolog.Logger) *Shell {
	return NewWithExecutor(logger, &DefaultExecutor{}, currentUser())
}

// NewWithExecutor creates a local shell with a custom executor (for testing).
func NewWithExecutor(logger zerolog.Logger, executor CommandExecutor, username string) *Shell {
	return &Shell{
		executor: executor,
		user:     username,
		logger:   logger,
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "root"
}

// Run executes a command locally and waits for it to exit.
func (s *Shell) Run(ctx context.Context, command string, elevate bool) (*models.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line := host.PrepareCommand(command, elevate)
	s.logger.Debug().Str("command", line).Msg("running local command")

	var stdout, stderr bytes.Buffer
	code, err := s.executor.Execute(ctx, line, &stdout, &stderr)
	result := &models.CommandResult{
		Command:  line,
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil {
		return result, fmt.Errorf("command %q: %w", line, err)
	}

	s.logger.Debug().Int("exit_code", code).Str("command", line).Msg("local command finished")
	return result, nil
}

// Upload copies localPath to remotePath on the local filesystem.
func (s *Shell) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(localPath) //nolint:gosec // path is created by the caller
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(filepath.Clean(remotePath), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // destination is chosen by the deployer
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", remotePath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to write %s: %w", remotePath, err)
	}
	return dst.Close()
}

// User returns the account commands run as.
func (s *Shell) User() string {
	return s.user
}

func (s *Shell) String() string {
	return "local"
}

// Close is a no-op; there is no transport to release.
func (s *Shell) Close() error {
	return nil
}
