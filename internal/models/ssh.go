package models

import "time"

// TargetConfig holds the connection parameters for a provisioning target.
type TargetConfig struct {
	Host       string
	Port       int
	Username   string
	KeyPath    string        // path to private key file
	Passphrase string        // optional, for encrypted keys
	Timeout    time.Duration // connect timeout
}

// IsRemote reports whether the target selects remote mode.
// Host, username and key path must all be set; anything less means local mode.
func (t TargetConfig) IsRemote() bool {
	return t.Host != "" && t.Username != "" && t.KeyPath != ""
}

// CommandResult holds the outcome of a single command on a host.
type CommandResult struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the command exited with status zero.
func (r *CommandResult) Success() bool {
	return r != nil && r.ExitCode == 0
}
