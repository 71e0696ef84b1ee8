package provision

import (
	"context"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/host"
	"github.com/fgeck/hostprep/internal/services/local"
	"github.com/fgeck/hostprep/internal/services/ssh"
	"github.com/rs/zerolog"
)

// Connector opens the host an orchestration runs against.
type Connector interface {
	Open(ctx context.Context, target models.TargetConfig) (host.Host, error)
}

// DefaultConnector opens an SSH session in remote mode and a local shell otherwise.
type DefaultConnector struct {
	sshSvc   ssh.Service
	newLocal func() host.Host
	logger   zerolog.Logger
}

// NewConnector creates the default connector.
func NewConnector(logger zerolog.Logger) *DefaultConnector {
	return &DefaultConnector{
		sshSvc:   ssh.New(logger),
		newLocal: func() host.Host { return local.New(logger) },
		logger:   logger,
	}
}

// NewConnectorWith creates a connector with custom transports (for testing).
func NewConnectorWith(logger zerolog.Logger, sshSvc ssh.Service, newLocal func() host.Host) *DefaultConnector {
	return &DefaultConnector{
		sshSvc:   sshSvc,
		newLocal: newLocal,
		logger:   logger,
	}
}

// Open returns a host for target. Remote mode needs host, username and key
// file; with any of them missing the local machine is used.
func (c *DefaultConnector) Open(ctx context.Context, target models.TargetConfig) (host.Host, error) {
	if !target.IsRemote() {
		c.logger.Info().Msg("No remote connection parameters provided, running locally")
		return c.newLocal(), nil
	}

	session, err := c.sshSvc.Connect(ctx, target)
	if err != nil {
		return nil, err
	}
	return session, nil
}
