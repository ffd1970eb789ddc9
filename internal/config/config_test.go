package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultServerConfig(t *testing.T) {
	req := require.New(t)
	cfg := DefaultServerConfig()

	req.NoError(cfg.Validate())
	req.Equal(15*time.Second, cfg.SweepInterval)
	req.Equal(10*time.Second, cfg.StaleAfter)
	req.Equal(StoreMongo, cfg.Store)
	req.Equal("chat_uol", cfg.MongoDatabase)
	req.Zero(cfg.DefaultMessageLimit)
}

func TestServerConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"unknown store", func(c *ServerConfig) { c.Store = "redis" }},
		{"empty mongo uri", func(c *ServerConfig) { c.MongoURI = "" }},
		{"zero sweep interval", func(c *ServerConfig) { c.SweepInterval = 0 }},
		{"negative stale after", func(c *ServerConfig) { c.StaleAfter = -time.Second }},
		{"zero store timeout", func(c *ServerConfig) { c.StoreTimeout = 0 }},
		{"negative message limit", func(c *ServerConfig) { c.DefaultMessageLimit = -1 }},
		{"zero name length", func(c *ServerConfig) { c.MaxNameLength = 0 }},
		{"zero write timeout", func(c *ServerConfig) { c.WriteTimeout = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	t.Run("memory store ignores mongo uri", func(t *testing.T) {
		cfg := DefaultServerConfig()
		cfg.Store = StoreMemory
		cfg.MongoURI = ""
		require.NoError(t, cfg.Validate())
	})
}

func TestConfigLoader_LoadConfig(t *testing.T) {
	t.Run("should keep defaults when no sources exist", func(t *testing.T) {
		req := require.New(t)
		dir := t.TempDir()

		cfg, err := NewConfigLoader(filepath.Join(dir, "missing.json"), filepath.Join(dir, ".env")).LoadConfig()

		req.NoError(err)
		req.Equal(DefaultServerConfig().Port, cfg.Port)
	})

	t.Run("should layer file then environment", func(t *testing.T) {
		req := require.New(t)
		dir := t.TempDir()
		path := filepath.Join(dir, "config.json")
		req.NoError(os.WriteFile(path, []byte(`{"port":":6000","store":"memory","max_name_length":20}`), 0o600))

		t.Setenv("CHAT_PORT", ":7000")
		t.Setenv("CHAT_STALE_AFTER", "30s")

		cfg, err := NewConfigLoader(path, "").LoadConfig()

		req.NoError(err)
		req.Equal(":7000", cfg.Port)
		req.Equal(StoreMemory, cfg.Store)
		req.Equal(20, cfg.MaxNameLength)
		req.Equal(30*time.Second, cfg.StaleAfter)
	})

	t.Run("should read the dotenv file", func(t *testing.T) {
		req := require.New(t)
		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		req.NoError(os.WriteFile(envFile, []byte("CHAT_SWEEP_INTERVAL=2s\n"), 0o600))
		t.Setenv("CHAT_SWEEP_INTERVAL", "")
		os.Unsetenv("CHAT_SWEEP_INTERVAL")

		cfg, err := NewConfigLoader("", envFile).LoadConfig()

		req.NoError(err)
		req.Equal(2*time.Second, cfg.SweepInterval)
	})

	t.Run("should reject an invalid result", func(t *testing.T) {
		t.Setenv("CHAT_STORE", "redis")

		_, err := NewConfigLoader("", "").LoadConfig()

		require.Error(t, err)
	})

	t.Run("should reject malformed json", func(t *testing.T) {
		req := require.New(t)
		path := filepath.Join(t.TempDir(), "config.json")
		req.NoError(os.WriteFile(path, []byte(`{`), 0o600))

		_, err := NewConfigLoader(path, "").LoadConfig()

		req.Error(err)
	})
}
