package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg := defaults()
	err := Parse([]byte(`
http_addr = ":9000"
store = "memory"
draft_flush_delay = "250ms"
cors_origins = ["https://a.example", "https://b.example"]
login_max_attempts = 3
`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 250*time.Millisecond, cfg.DraftFlushDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.LoginMaxAttempts)
	// untouched keys keep their defaults
	assert.Equal(t, 15*time.Minute, cfg.LoginWindow)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestParseRejectsBadDuration(t *testing.T) {
	cfg := defaults()
	err := Parse([]byte(`login_window = "soon"`), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login_window")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"EVALTRACK_JWT_KEY":            "secret",
		"EVALTRACK_CORS_ORIGINS":       " https://x.example , ,https://y.example",
		"EVALTRACK_DRAFT_FLUSH_DELAY":  "2s",
		"EVALTRACK_LOGIN_MAX_ATTEMPTS": "7",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	cfg := defaults()
	require.NoError(t, applyEnv(&cfg, lookup))
	assert.Equal(t, "secret", cfg.JWTKey)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2*time.Second, cfg.DraftFlushDelay)
	assert.Equal(t, 7, cfg.LoginMaxAttempts)

	env["EVALTRACK_LOGIN_MAX_ATTEMPTS"] = "many"
	assert.Error(t, applyEnv(&cfg, lookup))
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evaltrack.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
store = "memory"
jwt_key = "from-file"
http_addr = ":7000"
`), 0o600))

	t.Setenv("EVALTRACK_CONFIG", path)
	t.Setenv("EVALTRACK_HTTP_ADDR", ":7001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "from-file", cfg.JWTKey)
	assert.Equal(t, ":7001", cfg.HTTPAddr)
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	assert.Error(t, cfg.Validate(), "jwt key is required")

	cfg.JWTKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Store = "redis"
	assert.Error(t, cfg.Validate())

	cfg.Store = StoreMemory
	cfg.ExportBucket = "bucket"
	cfg.ExportRegion = ""
	assert.Error(t, cfg.Validate())
}

func TestPgEnv(t *testing.T) {
	e := PgEnv{Host: "db", Port: "5432", User: "u", Password: "p", DB: "evaltrack", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=evaltrack sslmode=disable", e.ConnString())
	assert.Equal(t, "postgres://u:p@db:5432/evaltrack?sslmode=disable", e.URL())

	assert.False(t, PgEnv{Host: "localhost", PasswordSecret: "s"}.needsSecret())
	assert.True(t, PgEnv{Host: "db", PasswordSecret: "s"}.needsSecret())

	pw, err := parsePasswordSecret(`{"password":"hunter2"}`)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)
	_, err = parsePasswordSecret("nope")
	assert.Error(t, err)
}
