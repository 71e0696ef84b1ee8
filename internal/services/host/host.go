// Package host defines the command-execution contract shared by local and remote targets.
package host

import (
	"context"
	"path"

	"github.com/fgeck/hostprep/internal/models"
)

// StagingDir is a world-writable directory used for files that need an elevated move.
const StagingDir = "/tmp"

// Host runs commands and receives files on a provisioning target.
type Host interface {
	// Run executes command and blocks until it exits. A non-zero exit status is
	// reported in the result; the error is reserved for transport failures.
	Run(ctx context.Context, command string, elevate bool) (*models.CommandResult, error)
	// Upload copies the local file at localPath to remotePath as the session user.
	Upload(ctx context.Context, localPath, remotePath string) error
	// User is the unprivileged account commands run as.
	User() string
	String() string
	Close() error
}

// ElevatedCommand prefixes command with the privilege-escalation invocation.
func ElevatedCommand(command string) string {
	return "sudo " + command
}

// PrepareCommand returns the command line actually sent to the host.
func PrepareCommand(command string, elevate bool) string {
	if elevate {
		return ElevatedCommand(command)
	}
	return command
}

// StagingPath is where a file bound for remotePath lands before the elevated move.
func StagingPath(remotePath string) string {
	return path.Join(StagingDir, path.Base(remotePath)+".tmp")
}
