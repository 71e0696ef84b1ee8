// Package detect identifies the OS family of a host.
package detect

import (
	"context"
	"strings"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/host"
	"github.com/rs/zerolog"
)

// Probe commands. Both read /etc/os-release and run unprivileged.
const (
	OSIDCommand     = `cat /etc/os-release | grep -E '^ID=' | cut -d'=' -f2 | tr -d '"'`
	CodenameCommand = `. /etc/os-release && echo "${UBUNTU_CODENAME:-$VERSION_CODENAME}"`
)

// Service defines the interface for OS detection.
type Service interface {
	Detect(ctx context.Context, h host.Host) string
	Probe(ctx context.Context, h host.Host) models.HostInfo
}

// Impl implements the detect Service interface.
type Impl struct {
	logger zerolog.Logger
}

// New creates a new detect service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{logger: logger}
}

// Detect returns the lowercase os-release ID of the host.
// Any failure yields an empty string, which classifies as unrecognized.
func (s *Impl) Detect(ctx context.Context, h host.Host) string {
	return s.read(ctx, h, OSIDCommand, true)
}

// Probe detects the OS once and classifies it.
func (s *Impl) Probe(ctx context.Context, h host.Host) models.HostInfo {
	id := s.Detect(ctx, h)
	info := models.HostInfo{
		OSID:   id,
		Family: models.ClassifyOS(id),
	}
	if info.Family == models.FamilyDebian {
		info.Codename = s.read(ctx, h, CodenameCommand, false)
	}

	s.logger.Info().
		Str("os", info.OSID).
		Str("family", string(info.Family)).
		Str("codename", info.Codename).
		Msg("detected OS")

	return info
}

func (s *Impl) read(ctx context.Context, h host.Host, command string, lower bool) string {
	result, err := h.Run(ctx, command, false)
	if err != nil {
		s.logger.Warn().Err(err).Str("host", h.String()).Msg("OS probe failed")
		return ""
	}
	if !result.Success() {
		s.logger.Warn().Int("exit_code", result.ExitCode).Str("stderr", result.Stderr).Msg("OS probe failed")
		return ""
	}

	out := strings.TrimSpace(result.Stdout)
	if lower {
		out = strings.ToLower(out)
	}
	return out
}
