// Package config provides configuration loading from files, environment and flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/fgeck/hostprep/internal/services/nginx"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. HOSTPREP_TARGET_HOST.
const EnvPrefix = "HOSTPREP"

// Defaults.
const (
	DefaultPort    = 22
	DefaultTimeout = 30 * time.Second
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"host":     "target.host",
	"username": "target.username",
	"key-file": "target.key_file",
	"port":     "target.port",
	"timeout":  "target.timeout",
	"app-port": "site.app_port",
}

// Parser handles configuration parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("target.port", DefaultPort)
	v.SetDefault("target.timeout", DefaultTimeout)
	v.SetDefault("site.app_port", nginx.DefaultAppPort)

	return &Parser{v: v}
}

// LoadDotEnv loads variables from a dotenv file into the process environment.
// A missing file is not an error. Variables already set are kept.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// BindFlags binds the known flags present in flags to their configuration keys.
// Flags take precedence over environment and file values when set.
func (p *Parser) BindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := p.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// Set overrides a configuration key.
func (p *Parser) Set(key string, value any) {
	p.v.Set(key, value)
}

// Load reads the file at path if given and returns the merged configuration.
func (p *Parser) Load(path string) (*models.Config, error) {
	if path == "" {
		return p.parse()
	}
	return p.LoadFile(path)
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.Config, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.Config, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

func (p *Parser) parse() (*models.Config, error) {
	cfg := &models.Config{}

	keyFile := p.expandEnv(p.v.GetString("target.key_file"))
	if keyFile != "" {
		expanded, err := homedir.Expand(keyFile)
		if err != nil {
			return nil, fmt.Errorf("expanding target.key_file: %w", err)
		}
		keyFile = expanded
	}

	cfg.Target = models.TargetConfig{
		Host:       p.v.GetString("target.host"),
		Port:       p.v.GetInt("target.port"),
		Username:   p.v.GetString("target.username"),
		KeyPath:    keyFile,
		Passphrase: p.expandEnv(p.v.GetString("target.passphrase")),
		Timeout:    p.v.GetDuration("target.timeout"),
	}

	cfg.Site = models.SiteConfig{
		Domain:  p.v.GetString("site.domain"),
		AppPort: p.v.GetInt("site.app_port"),
	}

	// Parse optional WOL config.
	if p.v.IsSet("wol") { //nolint:nestif // config parsing with defaults
		cfg.WOL = &models.WOLConfig{
			MACAddress:    p.v.GetString("wol.mac_address"),
			BroadcastIP:   p.v.GetString("wol.broadcast_ip"),
			PollAddr:      p.v.GetString("wol.poll_addr"),
			Timeout:       p.v.GetDuration("wol.timeout"),
			PollInterval:  p.v.GetDuration("wol.poll_interval"),
			StabilizeWait: p.v.GetDuration("wol.stabilize_wait"),
		}

		if cfg.WOL.MACAddress == "" {
			return nil, fmt.Errorf("wol.mac_address is required when wol is configured")
		}

		// Set defaults.
		if cfg.WOL.BroadcastIP == "" {
			cfg.WOL.BroadcastIP = "255.255.255.255"
		}
		if cfg.WOL.PollAddr == "" && cfg.Target.Host != "" {
			cfg.WOL.PollAddr = net.JoinHostPort(cfg.Target.Host, strconv.Itoa(cfg.Target.Port))
		}
		if cfg.WOL.Timeout == 0 {
			cfg.WOL.Timeout = 5 * time.Minute
		}
		if cfg.WOL.PollInterval == 0 {
			cfg.WOL.PollInterval = 10 * time.Second
		}
		if cfg.WOL.StabilizeWait == 0 {
			cfg.WOL.StabilizeWait = 10 * time.Second
		}
	}

	// Parse optional Telegram config.
	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:   p.expandEnv(p.v.GetString("telegram.chat_id")),
		}

		if cfg.Telegram.BotToken == "" {
			return nil, fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Target.Port < 1 || cfg.Target.Port > 65535 {
		return fmt.Errorf("target.port must be between 1 and 65535, got %d", cfg.Target.Port)
	}

	if cfg.Target.Timeout < 0 {
		return fmt.Errorf("target.timeout must not be negative")
	}

	if cfg.Target.IsRemote() {
		if _, err := os.Stat(cfg.Target.KeyPath); err != nil {
			return fmt.Errorf("target.key_file: %w", err)
		}
	}

	return nil
}

// ValidateSite checks the site settings used by site setup.
func ValidateSite(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	return nginx.Validate(cfg.Site)
}

// MissingTarget lists the remote connection keys that are unset. An empty
// result means remote mode; all three missing means plain local mode.
func MissingTarget(t models.TargetConfig) []string {
	var missing []string
	if t.Host == "" {
		missing = append(missing, "target.host")
	}
	if t.Username == "" {
		missing = append(missing, "target.username")
	}
	if t.KeyPath == "" {
		missing = append(missing, "target.key_file")
	}
	return missing
}
