package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 9090
database:
  driver: memory
jwt:
  secret: test-secret
outbox:
  poll_interval: 2s
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, 24, cfg.JWT.ExpiryHours)
	assert.Equal(t, "hospital.events", cfg.Redis.Channel)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DoctorTTL)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: postgres
  host: db.internal
  password: from-file
jwt:
  secret: file-secret
`)
	t.Setenv("HOSPITAL_DB_PASSWORD", "from-env")
	t.Setenv("HOSPITAL_JWT_SECRET", "env-secret")
	t.Setenv("HOSPITAL_PORT", "7070")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestValidateRejectsBadConfig(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
jwt:
  secret: s
`)
	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "unsupported database driver")

	dir = writeConfig(t, `
database:
  driver: memory
`)
	_, err = LoadConfig(dir)
	assert.ErrorContains(t, err, "jwt.secret")

	dir = writeConfig(t, `
database:
  driver: memory
jwt:
  secret: s
outbox:
  enabled: true
`)
	_, err = LoadConfig(dir)
	assert.ErrorContains(t, err, "redis.url")
}
