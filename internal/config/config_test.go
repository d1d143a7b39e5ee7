package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("PORT", "")

	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "g-key", cfg.AI.APIKey)
	assert.Equal(t, 2, cfg.Report.ImageConcurrency)
	assert.Equal(t, int64(32<<20), cfg.Report.MaxUploadBytes)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParse_FileAndEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("MINIO_SECRET_KEY", "minio-env")
	t.Setenv("PORT", "9090")

	yml := `
server:
  port: 8000
  apiKeys:
    alice: k1
ai:
  provider: openai
  model: gpt-4o
  requestsPerSecond: 0.5
report:
  imageConcurrency: 4
  extractDelay: 1s
  timeout: 2m
database:
  driver: postgres
  host: db
  port: 5432
  user: health
  password: from-file
  name: dashboard
minio:
  enabled: true
  endpoint: minio:9000
  bucketName: reports
  urlExpiry: 30m
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, map[string]string{"alice": "k1"}, cfg.Server.APIKeys)
	assert.Equal(t, "o-key", cfg.AI.APIKey)
	assert.Equal(t, 0.5, cfg.AI.RequestsPerSecond)
	assert.Equal(t, 4, cfg.Report.ImageConcurrency)
	assert.Equal(t, time.Second, cfg.Report.ExtractDelay)
	assert.Equal(t, 2*time.Minute, cfg.Report.Timeout)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "minio-env", cfg.Minio.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.Minio.URLExpiry)
	assert.Equal(t, "host=db port=5432 user=health password=from-env dbname=dashboard sslmode=disable", cfg.PostgresDSN())
}

func TestParse_APIKeyIgnoredInFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := Parse([]byte("ai:\n  apiKey: leaked\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("ai:\n  provider: claude\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("database:\n  driver: oracle\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("minio:\n  enabled: true\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("server: [oops"))
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	var c Config
	c.Database.User, c.Database.Password = "u", "p"
	c.Database.Host, c.Database.Port, c.Database.Name = "localhost", 3306, "health"
	assert.Equal(t, "u:p@tcp(localhost:3306)/health?parseTime=true&charset=utf8mb4&loc=UTC", c.MySQLDSN())
}
