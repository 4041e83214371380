package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":1234", cfg.Addr)
	assert.Equal(t, 100, cfg.Capacity)
	assert.Equal(t, 500, cfg.MaxLineLength)
	assert.Empty(t, cfg.AdminAddr)
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Capacity: 3, AdminAddr: ":8081", SnapshotTimeout: time.Second})

	assert.Equal(t, 3, cfg.Capacity)
	assert.Equal(t, ":8081", cfg.AdminAddr)
	assert.Equal(t, time.Second, cfg.SnapshotTimeout)
	assert.Equal(t, ":1234", cfg.Addr)
	assert.Equal(t, 500, cfg.MaxLineLength)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"empty addr":       func(c *Config) { c.Addr = "" },
		"zero capacity":    func(c *Config) { c.Capacity = 0 },
		"negative line":    func(c *Config) { c.MaxLineLength = -1 },
		"empty namespace":  func(c *Config) { c.Namespace = "" },
		"negative timeout": func(c *Config) { c.WriteTimeout = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPortAddr(t *testing.T) {
	addr, err := PortAddr("4000")
	require.NoError(t, err)
	assert.Equal(t, ":4000", addr)

	for _, bad := range []string{"", "abc", "0", "70000", "-1"} {
		_, err := PortAddr(bad)
		assert.Error(t, err, "port %q", bad)
	}
}

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("addr: \":9000\"\ncapacity: 7\nsnapshot_timeout: 2s\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("CHATRELAY_CAPACITY", "9")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 9, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.SnapshotTimeout)
	assert.Equal(t, 500, cfg.MaxLineLength)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: 0\n"), 0o600))

	_, _, err := Load(nil, path)
	assert.Error(t, err)
}

func TestResolveConfigPathFromEnv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	t.Setenv(envConfigDefaultPath, dir)

	assert.Equal(t, filepath.Join(dir, defaultConfigName), resolveConfigPath(""))
	assert.Equal(t, "/explicit.yaml", resolveConfigPath("/explicit.yaml"))
}
