// Package conf loads server configuration from an optional TOML file and
// the environment.
package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr    string
	Environment string
	JWTKey      string
	// Store is postgres or memory
	Store string

	// DraftDBPath is the sqlite file of local drafts, empty for in-memory
	DraftDBPath     string
	DraftFlushDelay time.Duration

	CORSOrigins []string

	ExportBucket string
	ExportRegion string

	OtelEndpoint string

	TokenTTL         time.Duration
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

func defaults() Config {
	return Config{
		HTTPAddr:         ":8080",
		Environment:      "development",
		Store:            StorePostgres,
		DraftFlushDelay:  time.Second,
		CORSOrigins:      []string{"http://localhost:3000"},
		ExportRegion:     "eu-central-1",
		TokenTTL:         24 * time.Hour,
		LoginMaxAttempts: 5,
		LoginWindow:      15 * time.Minute,
	}
}

// Load reads .env when present, then the TOML file named by
// EVALTRACK_CONFIG when set, then EVALTRACK_* variables, each layer
// overriding the previous one.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("EVALTRACK_CONFIG"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := Parse(content, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fileConfig is the TOML form of Config. Absent keys stay nil and leave the
// current value alone. Durations are strings such as "1s" or "15m".
type fileConfig struct {
	HTTPAddr         *string   `toml:"http_addr"`
	Environment      *string   `toml:"environment"`
	JWTKey           *string   `toml:"jwt_key"`
	Store            *string   `toml:"store"`
	DraftDBPath      *string   `toml:"draft_db_path"`
	DraftFlushDelay  *string   `toml:"draft_flush_delay"`
	CORSOrigins      *[]string `toml:"cors_origins"`
	ExportBucket     *string   `toml:"export_bucket"`
	ExportRegion     *string   `toml:"export_region"`
	OtelEndpoint     *string   `toml:"otel_endpoint"`
	TokenTTL         *string   `toml:"token_ttl"`
	LoginMaxAttempts *int      `toml:"login_max_attempts"`
	LoginWindow      *string   `toml:"login_window"`
}

// Parse decodes a TOML document over cfg.
func Parse(content []byte, cfg *Config) error {
	var f fileConfig
	if err := toml.Unmarshal(content, &f); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	next := *cfg
	strs := []struct {
		src *string
		dst *string
	}{
		{f.HTTPAddr, &next.HTTPAddr},
		{f.Environment, &next.Environment},
		{f.JWTKey, &next.JWTKey},
		{f.Store, &next.Store},
		{f.DraftDBPath, &next.DraftDBPath},
		{f.ExportBucket, &next.ExportBucket},
		{f.ExportRegion, &next.ExportRegion},
		{f.OtelEndpoint, &next.OtelEndpoint},
	}
	for _, s := range strs {
		if s.src != nil {
			*s.dst = *s.src
		}
	}
	if f.CORSOrigins != nil {
		next.CORSOrigins = *f.CORSOrigins
	}
	if f.LoginMaxAttempts != nil {
		next.LoginMaxAttempts = *f.LoginMaxAttempts
	}

	durations := []struct {
		name string
		src  *string
		dst  *time.Duration
	}{
		{"draft_flush_delay", f.DraftFlushDelay, &next.DraftFlushDelay},
		{"token_ttl", f.TokenTTL, &next.TokenTTL},
		{"login_window", f.LoginWindow, &next.LoginWindow},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("config %s: %w", d.name, err)
		}
		*d.dst = v
	}
	*cfg = next
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"EVALTRACK_HTTP_ADDR":     &cfg.HTTPAddr,
		"EVALTRACK_ENVIRONMENT":   &cfg.Environment,
		"EVALTRACK_JWT_KEY":       &cfg.JWTKey,
		"EVALTRACK_STORE":         &cfg.Store,
		"EVALTRACK_DRAFT_DB_PATH": &cfg.DraftDBPath,
		"EVALTRACK_EXPORT_BUCKET": &cfg.ExportBucket,
		"EVALTRACK_EXPORT_REGION": &cfg.ExportRegion,
		"EVALTRACK_OTEL_ENDPOINT": &cfg.OtelEndpoint,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"EVALTRACK_DRAFT_FLUSH_DELAY": &cfg.DraftFlushDelay,
		"EVALTRACK_TOKEN_TTL":         &cfg.TokenTTL,
		"EVALTRACK_LOGIN_WINDOW":      &cfg.LoginWindow,
	}
	for name, dst := range durations {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = d
	}

	if v, ok := lookup("EVALTRACK_LOGIN_MAX_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EVALTRACK_LOGIN_MAX_ATTEMPTS: %w", err)
		}
		cfg.LoginMaxAttempts = n
	}
	if v, ok := lookup("EVALTRACK_CORS_ORIGINS"); ok {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	return nil
}

func (c Config) Validate() error {
	if c.JWTKey == "" {
		return errors.New("jwt key is not set (EVALTRACK_JWT_KEY)")
	}
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("store must be %s or %s, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if c.ExportBucket != "" && c.ExportRegion == "" {
		return errors.New("export bucket needs an export region")
	}
	return nil
}
