// Package deploy writes file content to a path on a host.
package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/host"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
)

// FileMode is applied to every elevated deployment.
const FileMode = "644"

// Service defines the interface for file deployment.
type Service interface {
	Deploy(ctx context.Context, h host.Host, remotePath, content string, elevate bool) (*models.DeployResult, error)
}

// Impl implements the deploy Service interface.
type Impl struct {
	tempDir string
	logger  zerolog.Logger
}

// New creates a new deploy service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{logger: logger}
}

// NewWithTempDir creates a deploy service that stages local files in dir (for testing).
func NewWithTempDir(logger zerolog.Logger, dir string) *Impl {
	return &Impl{tempDir: dir, logger: logger}
}

// Deploy places content at remotePath. Without elevation the file is uploaded
// directly as the session user. With elevation it is uploaded to the staging
// directory, then moved into place and made world-readable as the superuser.
// Failures are reported in the result; the returned error is always nil.
func (s *Impl) Deploy(ctx context.Context, h host.Host, remotePath, content string, elevate bool) (*models.DeployResult, error) {
	result := &models.DeployResult{
		Path:     remotePath,
		Elevated: elevate,
		Bytes:    len(content),
	}

	localPath, err := s.writeTemp(content)
	if err != nil {
		result.Error = err
		return result, nil
	}
	defer func() { _ = os.Remove(localPath) }()

	if !elevate {
		if err := h.Upload(ctx, localPath, remotePath); err != nil {
			result.Error = fmt.Errorf("failed to upload %s: %w", remotePath, err)
			return result, nil
		}
		s.logger.Info().Str("path", remotePath).Int("bytes", result.Bytes).Msg("file deployed")
		return result, nil
	}

	staging := host.StagingPath(remotePath)
	result.StagingPath = staging

	if err := h.Upload(ctx, localPath, staging); err != nil {
		result.Error = fmt.Errorf("failed to upload %s: %w", staging, err)
		return result, nil
	}

	if err := runElevated(ctx, h, "mv "+shellquote.Join(staging, remotePath)); err != nil {
		result.Error = fmt.Errorf("failed to move %s into place: %w", remotePath, err)
		return result, nil
	}

	if err := runElevated(ctx, h, "chmod "+shellquote.Join(FileMode, remotePath)); err != nil {
		result.Error = fmt.Errorf("failed to set permissions on %s: %w", remotePath, err)
		return result, nil
	}

	s.logger.Info().
		Str("path", remotePath).
		Str("staging", staging).
		Int("bytes", result.Bytes).
		Msg("file deployed")

	return result, nil
}

func (s *Impl) writeTemp(content string) (string, error) {
	f, err := os.CreateTemp(s.tempDir, "hostprep-*")
	if err != nil {
		return "", fmt.Errorf("failed to create local temp file: %w", err)
	}

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write local temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to close local temp file: %w", err)
	}
	return f.Name(), nil
}

func runElevated(ctx context.Context, h host.Host, command string) error {
	res, err := h.Run(ctx, command, true)
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("exit status %d: %s", res.ExitCode, res.Stderr)
	}
	return nil
}
