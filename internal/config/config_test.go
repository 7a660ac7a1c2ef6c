package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "jwt_secret": "s", "database": {"host": "localhost"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, "local", cfg.FileStore.Type)
	require.Equal(t, "memory", cfg.RateLimit.Backend)
	require.Equal(t, 10, cfg.RateLimit.Requests)
	require.Equal(t, 3, cfg.Quota.SummarizeLimit)
	require.Equal(t, 20, cfg.Quota.ChatLimit)
	require.Equal(t, 4, cfg.Upload.MaxSizeMB)
	require.Equal(t, "@every 15s", cfg.Jobs.IngestSpec)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, 600, cfg.Jobs.IngestLeaseSeconds)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing secret", body: `{"port": 1, "database": {"host": "h"}}`},
		{name: "missing port", body: `{"jwt_secret": "s", "database": {"host": "h"}}`},
		{name: "missing database", body: `{"port": 1, "jwt_secret": "s"}`},
		{name: "bad store", body: `{"port": 1, "jwt_secret": "s", "database": {"dsn": "x"}, "file_store": {"type": "ftp"}}`},
		{name: "redis without addr", body: `{"port": 1, "jwt_secret": "s", "database": {"dsn": "x"}, "rate_limit": {"backend": "redis"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}
