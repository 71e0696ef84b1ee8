package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fgeck/hostprep/internal/models"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_LoadReader_EmptyConfig(t *testing.T) {
	parser := NewParser()
	cfg, err := parser.LoadReader("")

	require.NoError(t, err)
	assert.False(t, cfg.Target.IsRemote())
	// Check defaults
	assert.Equal(t, 22, cfg.Target.Port)
	assert.Equal(t, 30*time.Second, cfg.Target.Timeout)
	assert.Equal(t, 3000, cfg.Site.AppPort)
	assert.Nil(t, cfg.WOL)
	assert.Nil(t, cfg.Telegram)
}

func TestParser_LoadReader_FullConfig(t *testing.T) {
	yaml := `
target:
  host: "10.0.0.5"
  port: 2222
  username: "ubuntu"
  key_file: "/keys/id_ed25519"
  passphrase: "hunter2"
  timeout: 10s

site:
  domain: "example.com"
  app_port: 8080

wol:
  mac_address: "AA:BB:CC:DD:EE:FF"
  broadcast_ip: "192.168.1.255"
  poll_addr: "10.0.0.5:22"
  timeout: 10m
  poll_interval: 5s
  stabilize_wait: 15s

telegram:
  bot_token: "123456:ABC"
  chat_id: "-100123456789"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)

	// Target
	assert.Equal(t, models.TargetConfig{
		Host:       "10.0.0.5",
		Port:       2222,
		Username:   "ubuntu",
		KeyPath:    "/keys/id_ed25519",
		Passphrase: "hunter2",
		Timeout:    10 * time.Second,
	}, cfg.Target)
	assert.True(t, cfg.Target.IsRemote())

	// Site
	assert.Equal(t, "example.com", cfg.Site.Domain)
	assert.Equal(t, 8080, cfg.Site.AppPort)

	// WOL
	require.NotNil(t, cfg.WOL)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", cfg.WOL.MACAddress)
	assert.Equal(t, "192.168.1.255", cfg.WOL.BroadcastIP)
	assert.Equal(t, "10.0.0.5:22", cfg.WOL.PollAddr)
	assert.Equal(t, 10*time.Minute, cfg.WOL.Timeout)
	assert.Equal(t, 5*time.Second, cfg.WOL.PollInterval)
	assert.Equal(t, 15*time.Second, cfg.WOL.StabilizeWait)

	// Telegram
	require.NotNil(t, cfg.Telegram)
	assert.Equal(t, "123456:ABC", cfg.Telegram.BotToken)
	assert.Equal(t, "-100123456789", cfg.Telegram.ChatID)
}

func TestParser_LoadReader_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_KEY_PASSPHRASE", "from-env")
	t.Setenv("TEST_BOT_TOKEN", "bot-from-env")

	yaml := `
target:
  passphrase: "${TEST_KEY_PASSPHRASE}"
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
  chat_id: "42"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Target.Passphrase)
	assert.Equal(t, "bot-from-env", cfg.Telegram.BotToken)
}

func TestParser_LoadReader_PrefixedEnvOverridesFile(t *testing.T) {
	t.Setenv("HOSTPREP_TARGET_HOST", "10.9.9.9")
	t.Setenv("HOSTPREP_SITE_APP_PORT", "9000")

	yaml := `
target:
  host: "10.0.0.5"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)
	assert.Equal(t, "10.9.9.9", cfg.Target.Host)
	assert.Equal(t, 9000, cfg.Site.AppPort)
}

func TestParser_LoadReader_KeyFileHomeExpansion(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)

	parser := NewParser()
	cfg, err := parser.LoadReader(`
target:
  key_file: "~/.ssh/id_ed25519"
`)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssh", "id_ed25519"), cfg.Target.KeyPath)
}

func TestParser_BindFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("host", "", "")
	flags.String("username", "", "")
	flags.String("key-file", "", "")
	flags.Int("port", DefaultPort, "")
	flags.Duration("timeout", DefaultTimeout, "")
	flags.Int("app-port", 3000, "")
	require.NoError(t, flags.Parse([]string{
		"--host", "10.0.0.7",
		"--username", "admin",
		"--key-file", "/k",
		"--app-port", "5000",
	}))

	parser := NewParser()
	require.NoError(t, parser.BindFlags(flags))

	cfg, err := parser.LoadReader(`
target:
  host: "10.0.0.5"
  port: 2200
`)

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", cfg.Target.Host, "set flag wins over file")
	assert.Equal(t, 2200, cfg.Target.Port, "file wins over unset flag")
	assert.Equal(t, "admin", cfg.Target.Username)
	assert.Equal(t, "/k", cfg.Target.KeyPath)
	assert.Equal(t, 5000, cfg.Site.AppPort)
}

func TestParser_BindFlags_IgnoresUnknown(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("verbose", false, "")

	assert.NoError(t, NewParser().BindFlags(flags))
}

func TestParser_Set(t *testing.T) {
	parser := NewParser()
	parser.Set("site.domain", "app.example.com")

	cfg, err := parser.Load("")

	require.NoError(t, err)
	assert.Equal(t, "app.example.com", cfg.Site.Domain)
}

func TestParser_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostprep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site:\n  domain: example.org\n"), 0o600))

	cfg, err := NewParser().Load(path)

	require.NoError(t, err)
	assert.Equal(t, "example.org", cfg.Site.Domain)
}

func TestParser_LoadFile_Missing(t *testing.T) {
	_, err := NewParser().LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestParser_LoadReader_WOL_MissingMACAddress(t *testing.T) {
	yaml := `
wol:
  broadcast_ip: "192.168.1.255"
`
	_, err := NewParser().LoadReader(yaml)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "wol.mac_address is required")
}

func TestParser_LoadReader_WOL_Defaults(t *testing.T) {
	yaml := `
target:
  host: "10.0.0.5"
  port: 2222
wol:
  mac_address: "AA:BB:CC:DD:EE:FF"
`
	cfg, err := NewParser().LoadReader(yaml)

	require.NoError(t, err)
	require.NotNil(t, cfg.WOL)
	assert.Equal(t, "255.255.255.255", cfg.WOL.BroadcastIP)
	assert.Equal(t, "10.0.0.5:2222", cfg.WOL.PollAddr, "poll the target's SSH port by default")
	assert.Equal(t, 5*time.Minute, cfg.WOL.Timeout)
	assert.Equal(t, 10*time.Second, cfg.WOL.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.WOL.StabilizeWait)
}

func TestParser_LoadReader_Telegram_MissingBotToken(t *testing.T) {
	yaml := `
telegram:
  chat_id: "123"
`
	_, err := NewParser().LoadReader(yaml)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.bot_token is required")
}

func TestParser_LoadReader_Telegram_MissingChatID(t *testing.T) {
	yaml := `
telegram:
  bot_token: "123:abc"
`
	_, err := NewParser().LoadReader(yaml)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.chat_id is required")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HOSTPREP_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("HOSTPREP_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("HOSTPREP_TEST_DOTENV"))
}

func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestValidate(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, []byte("key"), 0o600))

	tests := []struct {
		name    string
		cfg     *models.Config
		wantErr string
	}{
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: "configuration is nil",
		},
		{
			name: "local mode",
			cfg:  &models.Config{Target: models.TargetConfig{Port: 22}},
		},
		{
			name: "remote mode with key",
			cfg: &models.Config{Target: models.TargetConfig{
				Host: "10.0.0.5", Username: "ubuntu", KeyPath: keyPath, Port: 22,
			}},
		},
		{
			name: "remote mode with missing key file",
			cfg: &models.Config{Target: models.TargetConfig{
				Host: "10.0.0.5", Username: "ubuntu", KeyPath: keyPath + ".missing", Port: 22,
			}},
			wantErr: "target.key_file",
		},
		{
			name:    "port zero",
			cfg:     &models.Config{Target: models.TargetConfig{Port: 0}},
			wantErr: "target.port must be between 1 and 65535",
		},
		{
			name:    "port too large",
			cfg:     &models.Config{Target: models.TargetConfig{Port: 70000}},
			wantErr: "target.port must be between 1 and 65535",
		},
		{
			name:    "negative timeout",
			cfg:     &models.Config{Target: models.TargetConfig{Port: 22, Timeout: -time.Second}},
			wantErr: "target.timeout must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSite(t *testing.T) {
	assert.NoError(t, ValidateSite(&models.Config{Site: models.SiteConfig{Domain: "example.com", AppPort: 3000}}))
	assert.Error(t, ValidateSite(&models.Config{Site: models.SiteConfig{AppPort: 3000}}))
	assert.Error(t, ValidateSite(&models.Config{Site: models.SiteConfig{Domain: "example.com", AppPort: 0}}))
	assert.Error(t, ValidateSite(nil))
}

func TestMissingTarget(t *testing.T) {
	assert.Empty(t, MissingTarget(models.TargetConfig{Host: "h", Username: "u", KeyPath: "k"}))
	assert.Equal(t, []string{"target.host", "target.username", "target.key_file"}, MissingTarget(models.TargetConfig{}))
	assert.Equal(t, []string{"target.key_file"}, MissingTarget(models.TargetConfig{Host: "h", Username: "u"}))
}
