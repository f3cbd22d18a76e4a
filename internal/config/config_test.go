package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
debug: false
db:
  dsn: "postgres://localhost/yamdb"
auth:
  secret_key: "secret"
  confirmation_code_ttl: 1h
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/yamdb", cfg.DB.Dsn)
	assert.Equal(t, "secret", cfg.Auth.SecretKey)
	assert.Equal(t, time.Hour, cfg.Auth.ConfirmationCodeTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 1, cfg.SMTP.RetriesCount, "delivery is attempted once unless configured")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
