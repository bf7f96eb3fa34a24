package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values. Sensitive data
// has no in-code defaults and must come from the environment or config file.
type AppConfig struct {
	AppPort     string
	GinMode     string
	JWTSecret   string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for response caching
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// External identity service for author profiles
	AuthorAPIBase  string
	AuthorAPIToken string
	// View tracking
	ViewCooldownMinutes        int
	ViewRetentionDays          int
	ViewCleanupIntervalMinutes int
	// Transport
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load reads configuration once during boot. Precedence:
// config/config.json -> defaults -> environment variable overrides.
// A local .env file, when present, is merged into the environment first.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = godotenv.Load()

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func loadJSONConfig(path string, out *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	setStr := func(key string, dst *string) {
		if v, ok := raw[key].(string); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := raw[key].(float64); ok {
			*dst = int(v)
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := raw[key].(bool); ok {
			*dst = v
		}
	}

	setStr("app_port", &out.AppPort)
	setStr("gin_mode", &out.GinMode)
	setStr("jwt_secret", &out.JWTSecret)
	setStr("database_uri", &out.DatabaseURI)
	setStr("db_host", &out.DBHost)
	setStr("db_port", &out.DBPort)
	setStr("db_user", &out.DBUser)
	setStr("db_password", &out.DBPassword)
	setStr("db_name", &out.DBName)
	setStr("redis_host", &out.RedisHost)
	setInt("redis_port", &out.RedisPort)
	setInt("redis_db", &out.RedisDB)
	setStr("redis_password", &out.RedisPassword)
	setStr("author_api_base", &out.AuthorAPIBase)
	setStr("author_api_token", &out.AuthorAPIToken)
	setInt("view_cooldown_minutes", &out.ViewCooldownMinutes)
	setInt("view_retention_days", &out.ViewRetentionDays)
	setInt("view_cleanup_interval_minutes", &out.ViewCleanupIntervalMinutes)
	setInt("rate_limit_per_minute", &out.RateLimitPerMinute)
	setStr("log_level", &out.LogLevel)
	setStr("log_path", &out.LogPath)
	setInt("log_max_size_mb", &out.LogMaxSizeMB)
	setInt("log_max_backups", &out.LogMaxBackups)
	setInt("log_max_age_days", &out.LogMaxAgeDays)
	setBool("log_compress", &out.LogCompress)

	if v, ok := raw["allowed_origins"].(string); ok && v != "" {
		out.AllowedOrigins = splitAndTrim(v)
	}
	return nil
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "blog"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.ViewCooldownMinutes == 0 {
		c.ViewCooldownMinutes = 30
	}
	if c.ViewRetentionDays == 0 {
		c.ViewRetentionDays = 90
	}
	if c.ViewCleanupIntervalMinutes == 0 {
		c.ViewCleanupIntervalMinutes = 24 * 60
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func applyEnvOverrides(c *AppConfig) {
	overrideStr("APP_PORT", &c.AppPort)
	overrideStr("GIN_MODE", &c.GinMode)
	overrideStr("JWT_SECRET", &c.JWTSecret)
	overrideStr("DATABASE_URI", &c.DatabaseURI)
	overrideStr("DB_HOST", &c.DBHost)
	overrideStr("DB_PORT", &c.DBPort)
	overrideStr("DB_USER", &c.DBUser)
	overrideStr("DB_PASSWORD", &c.DBPassword)
	overrideStr("DB_NAME", &c.DBName)
	overrideStr("REDIS_HOST", &c.RedisHost)
	overrideInt("REDIS_PORT", &c.RedisPort)
	overrideInt("REDIS_DB", &c.RedisDB)
	overrideStr("REDIS_PASSWORD", &c.RedisPassword)
	overrideStr("AUTHOR_API_BASE", &c.AuthorAPIBase)
	overrideStr("AUTHOR_API_TOKEN", &c.AuthorAPIToken)
	overrideInt("VIEW_COOLDOWN_MINUTES", &c.ViewCooldownMinutes)
	overrideInt("VIEW_RETENTION_DAYS", &c.ViewRetentionDays)
	overrideInt("VIEW_CLEANUP_INTERVAL_MINUTES", &c.ViewCleanupIntervalMinutes)
	overrideInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	overrideStr("LOG_LEVEL", &c.LogLevel)
	overrideStr("LOG_PATH", &c.LogPath)
	overrideInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	overrideInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	overrideInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)

	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
}

func overrideStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
