package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is read when Load is given no path.
const DefaultFile = "settings.toml"

type Config struct {
	Port string

	// Notes storage
	DataDir       string
	EnableSignups bool
	MaxNoteBytes  int64

	// Rendering
	IDPrefix string
	CacheTTL time.Duration

	// Redis (users, sessions, render cache, login quota)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Auth
	SessionTTL    time.Duration
	LoginQPS      int
	SecureCookies bool
}

// fileConfig is the layout of the settings file.
type fileConfig struct {
	Settings struct {
		DataDir       string `toml:"data_dir"`
		EnableSignups bool   `toml:"enable_signups"`
		MaxNoteBytes  int64  `toml:"max_note_bytes"`
		IDPrefix      string `toml:"id_prefix"`
	} `toml:"settings"`
	Server struct {
		Port          string `toml:"port"`
		SessionTTL    string `toml:"session_ttl"`
		CacheTTL      string `toml:"cache_ttl"`
		LoginQPS      int    `toml:"login_qps"`
		SecureCookies bool   `toml:"secure_cookies"`
	} `toml:"server"`
	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`
}

// Load reads the settings file at path (DefaultFile if empty) and then
// applies LN_* environment overrides. A missing default file is not an
// error; a missing explicit file is.
func Load(path string) (Config, error) {
	var fc fileConfig
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	sessionTTL, err := parseDuration(fc.Server.SessionTTL)
	if err != nil {
		return Config{}, fmt.Errorf("server.session_ttl: %w", err)
	}
	cacheTTL, err := parseDuration(fc.Server.CacheTTL)
	if err != nil {
		return Config{}, fmt.Errorf("server.cache_ttl: %w", err)
	}

	cfg := Config{
		Port: envOr("LN_PORT", fc.Server.Port),

		DataDir:       envOr("LN_DATA_DIR", fc.Settings.DataDir),
		EnableSignups: envBool("LN_ENABLE_SIGNUPS", fc.Settings.EnableSignups),
		MaxNoteBytes:  envInt64("LN_MAX_NOTE_BYTES", fc.Settings.MaxNoteBytes),

		IDPrefix: envOr("LN_ID_PREFIX", fc.Settings.IDPrefix),
		CacheTTL: envDuration("LN_CACHE_TTL", cacheTTL),

		RedisAddr:     envOr("LN_REDIS_ADDR", fc.Redis.Addr),
		RedisPassword: envOr("LN_REDIS_PASSWORD", fc.Redis.Password),
		RedisDB:       envInt("LN_REDIS_DB", fc.Redis.DB),

		SessionTTL:    envDuration("LN_SESSION_TTL", sessionTTL),
		LoginQPS:      envInt("LN_LOGIN_QPS", fc.Server.LoginQPS),
		SecureCookies: envBool("LN_SECURE_COOKIES", fc.Server.SecureCookies),
	}

	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if cfg.MaxNoteBytes <= 0 {
		cfg.MaxNoteBytes = 10 << 20 // 10MB
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 1 * time.Hour
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 14 * 24 * time.Hour
	}
	if cfg.LoginQPS <= 0 {
		cfg.LoginQPS = 5
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("settings.data_dir (LN_DATA_DIR) is required")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis.db must not be negative")
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
