// Package hosttest provides a scriptable host.Host for tests.
package hosttest

import (
	"context"
	"os"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/host"
)

// Response is the canned outcome of a command line.
type Response struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Upload records a file transfer.
type Upload struct {
	LocalPath  string
	RemotePath string
	Content    string
}

// Fake records every command and upload. Unscripted commands succeed with no output.
type Fake struct {
	Name      string
	Username  string
	Responses map[string]Response // keyed by the full line, sudo prefix included
	// Handler, when set, answers every command not found in Responses.
	Handler   func(line string) Response
	UploadErr error

	Commands []string
	Uploads  []Upload
	Closed   bool
}

var _ host.Host = (*Fake)(nil)

// New creates a fake host for the given user.
func New(username string) *Fake {
	return &Fake{
		Name:      "fake",
		Username:  username,
		Responses: map[string]Response{},
	}
}

// On scripts the response for a command line.
func (f *Fake) On(line string, resp Response) *Fake {
	f.Responses[line] = resp
	return f
}

// WithOS scripts the os-release probes.
func (f *Fake) WithOS(id, codename string) *Fake {
	f.On(`cat /etc/os-release | grep -E '^ID=' | cut -d'=' -f2 | tr -d '"'`, Response{Stdout: id + "\n"})
	f.On(`. /etc/os-release && echo "${UBUNTU_CODENAME:-$VERSION_CODENAME}"`, Response{Stdout: codename + "\n"})
	return f
}

// Run implements host.Host.
func (f *Fake) Run(ctx context.Context, command string, elevate bool) (*models.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line := host.PrepareCommand(command, elevate)
	f.Commands = append(f.Commands, line)

	resp, ok := f.Responses[line]
	if !ok && f.Handler != nil {
		resp = f.Handler(line)
	}

	result := &models.CommandResult{
		Command:  line,
		ExitCode: resp.ExitCode,
		Stdout:   resp.Stdout,
		Stderr:   resp.Stderr,
	}
	if resp.Err != nil {
		result.ExitCode = -1
		return result, resp.Err
	}
	return result, nil
}

// Upload implements host.Host. The local file is read at call time.
func (f *Fake) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := os.ReadFile(localPath) //nolint:gosec // test helper
	if err != nil {
		return err
	}
	f.Uploads = append(f.Uploads, Upload{LocalPath: localPath, RemotePath: remotePath, Content: string(content)})
	return f.UploadErr
}

// User implements host.Host.
func (f *Fake) User() string {
	return f.Username
}

func (f *Fake) String() string {
	return f.Name
}

// Close implements host.Host.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
