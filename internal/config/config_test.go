package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DB_PATH", "JWT_SECRET", "TOKEN_TTL", "LOG_LEVEL", "RECOMPUTE_WORKERS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWithSecretFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "./data/dividafacil.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.RecomputeWorkers)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	yamlPath := writeFile(t, "config.yaml", `
port: 9000
db_path: /tmp/from-yaml.db
jwt_secret: yaml-secret
token_ttl: 2h
log_level: warn
recompute_workers: 2
`)
	envPath := writeFile(t, "test.env", "DB_PATH=/tmp/from-dotenv.db\nRECOMPUTE_WORKERS=8\n")
	t.Setenv("PORT", "7000")

	cfg, err := Load(yamlPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port, "environment beats YAML")
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.DBPath, ".env beats YAML")
	assert.Equal(t, 8, cfg.RecomputeWorkers)
	assert.Equal(t, "yaml-secret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadMissingDefaultDotenvIsSkipped(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load("", ".env")
	require.NoError(t, err)

	_, err = Load("", "missing.env")
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"bad port", map[string]string{"JWT_SECRET": "x", "PORT": "eighty"}},
		{"port out of range", map[string]string{"JWT_SECRET": "x", "PORT": "70000"}},
		{"bad ttl", map[string]string{"JWT_SECRET": "x", "TOKEN_TTL": "forever"}},
		{"zero workers", map[string]string{"JWT_SECRET": "x", "RECOMPUTE_WORKERS": "0"}},
		{"bad log level", map[string]string{"JWT_SECRET": "x", "LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", "")
			assert.Error(t, err)
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "port: [not a number")
	_, err := Load(path, "")
	assert.Error(t, err)
}
