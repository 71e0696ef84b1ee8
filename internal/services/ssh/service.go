// Package ssh provides remote sessions for provisioning targets.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/host"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// DefaultTimeout bounds the initial connection attempt.
const DefaultTimeout = 30 * time.Second

// Service defines the interface for opening SSH sessions.
type Service interface {
	Connect(ctx context.Context, cfg models.TargetConfig) (*Session, error)
}

// SSHClient wraps ssh.Client for mocking.
type SSHClient interface {
	NewSession() (SSHSession, error)
	NewSFTP() (SFTPClient, error)
	Close() error
}

// SSHSession wraps ssh.Session for mocking.
type SSHSession interface {
	// Run executes cmd and returns its exit status.
	Run(cmd string, stdout, stderr io.Writer) (int, error)
	Close() error
}

// SFTPClient wraps sftp.Client for mocking.
type SFTPClient interface {
	Create(path string) (io.WriteCloser, error)
	Close() error
}

// ClientFactory creates SSH clients.
type ClientFactory interface {
	NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error)
}

// ConnectionError is returned when a session cannot be established.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// DefaultClientFactory is the default SSH client factory.
type DefaultClientFactory struct{}

// NewClient creates a new SSH client.
func (f *DefaultClientFactory) NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
	client, err := ssh.Dial(network, addr, config)
	if err != nil {
		return nil, err
	}
	return &defaultSSHClient{client: client}, nil
}

type defaultSSHClient struct {
	client *ssh.Client
}

func (c *defaultSSHClient) NewSession() (SSHSession, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, err
	}
	return &defaultSSHSession{session: session}, nil
}

func (c *defaultSSHClient) NewSFTP() (SFTPClient, error) {
	client, err := sftp.NewClient(c.client)
	if err != nil {
		return nil, err
	}
	return &defaultSFTPClient{client: client}, nil
}

func (c *defaultSSHClient) Close() error {
	return c.client.Close()
}

type defaultSSHSession struct {
	session *ssh.Session
}

func (s *defaultSSHSession) Run(cmd string, stdout, stderr io.Writer) (int, error) {
	s.session.Stdout = stdout
	s.session.Stderr = stderr

	err := s.session.Run(cmd)
	if err == nil {
		return 0, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}
	return -1, err
}

func (s *defaultSSHSession) Close() error {
	return s.session.Close()
}

type defaultSFTPClient struct {
	client *sftp.Client
}

func (c *defaultSFTPClient) Create(path string) (io.WriteCloser, error) {
	return c.client.Create(path)
}

func (c *defaultSFTPClient) Close() error {
	return c.client.Close()
}

// Impl implements the SSH Service interface.
type Impl struct {
	clientFactory ClientFactory
	logger        zerolog.Logger
}

// New creates a new SSH service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		clientFactory: &DefaultClientFactory{},
		logger:        logger,
	}
}

// NewWithClientFactory creates a new SSH service with a custom client factory (for testing).
func NewWithClientFactory(logger zerolog.Logger, factory ClientFactory) *Impl {
	return &Impl{
		clientFactory: factory,
		logger:        logger,
	}
}

func (s *Impl) buildConfig(cfg models.TargetConfig) (*ssh.ClientConfig, error) {
	if cfg.KeyPath == "" {
		return nil, fmt.Errorf("no private key provided")
	}

	keyPath, err := homedir.Expand(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand key path %s: %w", cfg.KeyPath, err)
	}

	key, err := os.ReadFile(keyPath) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", keyPath, err)
	}

	signer, err := parseKey(key, cfg.Passphrase)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &ssh.ClientConfig{
		User: cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // ephemeral provisioning targets
		Timeout:         timeout,
	}, nil
}

func parseKey(key []byte, passphrase string) (ssh.Signer, error) {
	if passphrase != "" {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return signer, nil
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("private key is encrypted; set target.passphrase")
		}
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return signer, nil
}

type dialResult struct {
	client SSHClient
	err    error
}

// Connect authenticates to the target and returns an open session.
func (s *Impl) Connect(ctx context.Context, cfg models.TargetConfig) (*Session, error) {
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))

	s.logger.Info().
		Str("host", cfg.Host).
		Int("port", port).
		Str("user", cfg.Username).
		Msg("connecting")

	sshConfig, err := s.buildConfig(cfg)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	clientChan := make(chan dialResult, 1)
	go func() {
		client, err := s.clientFactory.NewClient("tcp", addr, sshConfig)
		clientChan <- dialResult{client, err}
	}()

	var client SSHClient
	select {
	case <-ctx.Done():
		// Release a client that arrives after we gave up on it.
		go func() {
			if res := <-clientChan; res.client != nil {
				_ = res.client.Close()
			}
		}()
		return nil, &ConnectionError{Addr: addr, Err: ctx.Err()}
	case res := <-clientChan:
		if res.err != nil {
			return nil, &ConnectionError{Addr: addr, Err: res.err}
		}
		client = res.client
	}

	s.logger.Info().Str("addr", addr).Msg("connected")

	return &Session{
		client: client,
		user:   cfg.Username,
		addr:   addr,
		logger: s.logger,
	}, nil
}

// Session is an authenticated connection to a remote target.
// It is the only owner of the transport and is not safe for concurrent use.
type Session struct {
	client SSHClient
	user   string
	addr   string
	logger zerolog.Logger
}

var _ host.Host = (*Session)(nil)

// Run executes a command on the remote host and waits for it to exit.
func (s *Session) Run(ctx context.Context, command string, elevate bool) (*models.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	line := host.PrepareCommand(command, elevate)
	s.logger.Debug().Str("addr", s.addr).Str("command", line).Msg("running remote command")

	session, err := s.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	code, err := session.Run(line, &stdout, &stderr)
	result := &models.CommandResult{
		Command:  line,
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil {
		return result, fmt.Errorf("command %q: %w", line, err)
	}

	s.logger.Debug().Int("exit_code", code).Str("command", line).Msg("remote command finished")
	return result, nil
}

// Upload copies a local file to remotePath over SFTP. The write is not atomic.
func (s *Session) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(localPath) //nolint:gosec // path is created by the caller
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() { _ = src.Close() }()

	client, err := s.client.NewSFTP()
	if err != nil {
		return fmt.Errorf("failed to open SFTP channel: %w", err)
	}
	defer func() { _ = client.Close() }()

	dst, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", remotePath, err)
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to write remote file %s: %w", remotePath, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close remote file %s: %w", remotePath, err)
	}

	s.logger.Debug().Str("path", remotePath).Int64("bytes", n).Msg("uploaded file")
	return nil
}

// User returns the login name of the session.
func (s *Session) User() string {
	return s.user
}

func (s *Session) String() string {
	return s.user + "@" + s.addr
}

// Close releases the transport.
func (s *Session) Close() error {
	return s.client.Close()
}
