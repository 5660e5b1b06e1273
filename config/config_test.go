package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/config"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(config.NewViper())
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
}

func TestFromViper_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("E2E_BASE_URL", "http://127.0.0.1:8080/")
	t.Setenv("E2E_BROWSER", "Firefox")
	t.Setenv("E2E_WORKERS", "4")
	t.Setenv("E2E_MARKERS", "smoke, regression")
	t.Setenv("E2E_RECREATE_AUTH", "true")
	t.Setenv("E2E_SESSION_MAX_AGE", "12h")

	cfg, err := config.FromViper(config.NewViper())
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080", cfg.BaseURL)
	assert.Equal(t, "firefox", cfg.Browser)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, []string{"smoke", "regression"}, cfg.Markers)
	assert.True(t, cfg.RecreateAuth)
	assert.Equal(t, 12*time.Hour, cfg.SessionMaxAge)
}

func TestFromViper_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("E2E_WORKERS", "4")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--workers", "2", "--headed", "-m", "smoke"}))

	v := config.NewViper()
	require.NoError(t, v.BindPFlags(fs))

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Headed)
	assert.Equal(t, []string{"smoke"}, cfg.Markers)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "e2ekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base-url: https://staging.example.com\ntimeout: 30s\ntrace: true\n"), 0o644))

	v := config.NewViper()
	require.NoError(t, config.ReadFile(v, path))

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.Trace)
}

func TestReadFile_ExplicitMissing(t *testing.T) {
	v := config.NewViper()
	err := config.ReadFile(v, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		errMsg string
	}{
		{name: "valid"},
		{
			name:   "unknown browser",
			modify: func(c *config.Config) { c.Browser = "netscape" },
			errMsg: "browser must be one of",
		},
		{
			name:   "no workers",
			modify: func(c *config.Config) { c.Workers = 0 },
			errMsg: "workers must be at least 1",
		},
		{
			name:   "empty base URL",
			modify: func(c *config.Config) { c.BaseURL = "" },
			errMsg: "base URL must not be empty",
		},
		{
			name:   "negative max age",
			modify: func(c *config.Config) { c.SessionMaxAge = -time.Minute },
			errMsg: "session max age",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.modify != nil {
				tt.modify(&cfg)
			}

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEnviron_RoundTrip(t *testing.T) {
	want := config.Default()
	want.BaseURL = "http://localhost:9000"
	want.Workers = 3
	want.Markers = []string{"smoke", "nav"}
	want.RecordVideo = true
	want.SessionMaxAge = 90 * time.Minute
	want.LoginEmail = "qa@example.com"
	want.Demo = true

	for _, kv := range want.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		t.Setenv(k, v)
	}

	got, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "E2E_RECREATE_AUTH", config.EnvVar(config.KeyRecreateAuth))
}
