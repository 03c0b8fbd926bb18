package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultProxyPort, cfg.ProxyPort)
	assert.Equal(t, DefaultAdminPort, cfg.AdminPort)
	assert.Equal(t, DefaultLogCapacity, cfg.LogCapacity)
	assert.Equal(t, DefaultTimeout, cfg.UpstreamTimeout.Std())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RulesFile)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fakegate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
proxyPort: 8080
adminPort: 8081
rulesFile: /var/lib/fakegate/rules.json
logCapacity: 250
excludePatterns:
  - /health
  - telemetry
upstreamTimeout: 5s
logLevel: debug
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ProxyPort)
	assert.Equal(t, 8081, cfg.AdminPort)
	assert.Equal(t, "/var/lib/fakegate/rules.json", cfg.RulesFile)
	assert.Equal(t, 250, cfg.LogCapacity)
	assert.Equal(t, []string{"/health", "telemetry"}, cfg.ExcludePatterns)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout.Std())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fakegate.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"proxyPort": 9000, "logFormat": "json"}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.ProxyPort)
	assert.Equal(t, "json", cfg.LogFormat)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultAdminPort, cfg.AdminPort)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fakegate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("proxyPort: 8080\n"), 0600))

	t.Setenv("FAKEGATE_PROXY_PORT", "7000")
	t.Setenv("FAKEGATE_EXCLUDE_PATTERNS", "/health,/ready")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.ProxyPort)
	assert.Equal(t, []string{"/health", "/ready"}, cfg.ExcludePatterns)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("proxyPort: [not a port"), 0600))
	_, err = Load(bad)
	assert.Error(t, err)

	unsupported := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(unsupported, []byte(""), 0600))
	_, err = Load(unsupported)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero proxy port", func(c *Config) { c.ProxyPort = 0 }},
		{"admin port too large", func(c *Config) { c.AdminPort = 70000 }},
		{"port collision", func(c *Config) { c.AdminPort = c.ProxyPort }},
		{"zero capacity", func(c *Config) { c.LogCapacity = 0 }},
		{"negative timeout", func(c *Config) { c.UpstreamTimeout = Duration(-time.Second) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
