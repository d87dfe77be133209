package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Point at an empty directory so no config file is picked up.
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sierravault", cfg.Database.DBName)
	assert.Equal(t, "documents", cfg.Storage.Bucket)
	assert.Equal(t, 3, cfg.Ledger.SubmitRetries)
	assert.Equal(t, 30*time.Second, cfg.Ledger.ConfirmTimeout)
	assert.Equal(t, 168*time.Hour, cfg.JWT.Expiry)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
ledger:
  base_url: "https://notary.example.com"
  submit_retries: 5
master:
  key: "aabbccdd"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://notary.example.com", cfg.Ledger.BaseURL)
	assert.Equal(t, 5, cfg.Ledger.SubmitRetries)
	assert.Equal(t, "aabbccdd", cfg.Master.Key)
	// Untouched values fall back to defaults.
	assert.Equal(t, "localhost", cfg.Database.Host)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SVLT_DATABASE_HOST", "db.internal")
	t.Setenv("SVLT_MASTER_KEY", "deadbeef")

	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "deadbeef", cfg.Master.Key)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p",
		DBName: "vault", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@localhost:5432/vault?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}
