package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Backend.Driver)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.Expiry.DangerDays)
	assert.Equal(t, 7, cfg.Expiry.WarningDays)
	assert.Equal(t, int64(1761), cfg.ImageHost.PicUI.AlbumID)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadFileMissingRequired(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestLoadFileOverlayThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
api:
  base_url: https://cps.example.com/api/
  timeout: 5s
expiry:
  danger_days: 2
  warning_days: 10
image_host:
  provider: picui
  picui:
    token: from-file
`), 0o600))

	t.Setenv(envPort, "7070")
	t.Setenv(envPicUIToken, "from-env")
	t.Setenv(envEnableProfiling, "yes")
	t.Setenv(envOperators, "ops:$2a$04$hash")
	t.Setenv(envJWTSecret, "Zq8#mP2vL9xR4tW7yB1nK6cF3hJ5sD0gQ")

	cfg, err := LoadFile(path, true)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.True(t, cfg.Server.Profiling)
	assert.Equal(t, map[string]string{"ops": "$2a$04$hash"}, cfg.Auth.Operators)
	assert.Equal(t, "https://cps.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2, cfg.Expiry.DangerDays)
	assert.Equal(t, 10, cfg.Expiry.WarningDays)
	assert.Equal(t, "from-env", cfg.ImageHost.PicUI.Token)
	assert.Equal(t, "https://picui.cn/api/v1", cfg.ImageHost.PicUI.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.Backend.Driver = "mongo" }, true},
		{"postgres without password", func(c *Config) { c.Backend.Driver = DriverPostgres }, true},
		{"postgres with password", func(c *Config) {
			c.Backend.Driver = DriverPostgres
			c.Database.Password = "pw"
		}, false},
		{"picui without token", func(c *Config) { c.ImageHost.Provider = ProviderPicUI }, true},
		{"s3 without bucket", func(c *Config) {
			c.ImageHost.Provider = ProviderS3
			c.ImageHost.S3.Region = "ap-east-1"
		}, true},
		{"s3 complete", func(c *Config) {
			c.ImageHost.Provider = ProviderS3
			c.ImageHost.S3.Region = "ap-east-1"
			c.ImageHost.S3.Bucket = "cps-images"
		}, false},
		{"short jwt secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"low entropy jwt secret", func(c *Config) { c.Auth.JWTSecret = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" }, true},
		{"good jwt secret", func(c *Config) { c.Auth.JWTSecret = "Zq8#mP2vL9xR4tW7yB1nK6cF3hJ5sD0gQ" }, false},
		{"operators without jwt secret", func(c *Config) { c.Auth.Operators = map[string]string{"ops": "$2a$12$x"} }, true},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseOperators(t *testing.T) {
	got := parseOperators(" ops:$2a$12$abc , bad, :nohash, lead:$2a$04$x:y ")
	assert.Equal(t, map[string]string{"ops": "$2a$12$abc", "lead": "$2a$04$x:y"}, got)
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Database: "d", SSLMode: "disable", MaxConns: 4, MinConns: 1}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable pool_max_conns=4 pool_min_conns=1", db.DSN())
}
