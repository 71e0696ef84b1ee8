// Package models contains the data structures used throughout hostprep.
package models

// Config holds the complete configuration for a provisioning run.
type Config struct {
	Target   TargetConfig
	Site     SiteConfig
	WOL      *WOLConfig      // nil if not configured
	Telegram *TelegramConfig // nil if not configured
}

// SiteConfig describes a reverse-proxy virtual host.
// The domain is its only identity and also names the config file.
type SiteConfig struct {
	Domain  string
	AppPort int
}

// DeployResult holds the result of placing a file on a host.
type DeployResult struct {
	Path        string
	StagingPath string // empty unless the file was staged for an elevated move
	Elevated    bool
	Bytes       int
	Error       error
}
