package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssolovev/fishmonger/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fishmonger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: tg-token
commerce:
  client_id: cid
  client_secret: secret
redis:
  addr: redis:6380
  db: 2
session:
  ttl: 12h
log:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tg-token", cfg.Telegram.Token)
	assert.Equal(t, "cid", cfg.Commerce.ClientID)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: tg-token
commerce:
  client_id: cid
  client_secret: secret
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultCommerceURL, cfg.Commerce.BaseURL)
	assert.Equal(t, config.DefaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, config.DefaultSessionTTL, cfg.Session.TTL)
	assert.Equal(t, config.DefaultMetricsAddr, cfg.Metrics.Addr)
	assert.Equal(t, config.DefaultLogLevel, cfg.Log.Level)
	assert.False(t, cfg.Session.DistributedLock)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("TG_TOKEN", "env-token")
	t.Setenv("CLIENT_ID", "env-cid")
	t.Setenv("CLIENT_SECRET", "env-secret")
	t.Setenv("DB_HOST", "envhost")
	t.Setenv("DB_PORT", "6390")
	t.Setenv("DB_PASSWORD", "hunter2")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, "env-cid", cfg.Commerce.ClientID)
	assert.Equal(t, "envhost:6390", cfg.Redis.Addr)
	assert.Equal(t, "hunter2", cfg.Redis.Password)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("TG_TOKEN", "env-token")

	path := writeConfig(t, `
telegram:
  token: file-token
commerce:
  client_id: cid
  client_secret: secret
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
}

func TestLoad_MissingToken(t *testing.T) {
	path := writeConfig(t, `
commerce:
  client_id: cid
  client_secret: secret
`)

	_, err := config.Load(path)
	assert.ErrorContains(t, err, "telegram token")
}

func TestLoad_MissingCredentials(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: tg-token
`)

	_, err := config.Load(path)
	assert.ErrorContains(t, err, "commerce credentials")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "telegram: [broken")

	_, err := config.Load(path)
	assert.Error(t, err)
}
