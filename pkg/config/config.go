package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Grading  GradingConfig
	Display  DisplayConfig
	Roster   RosterConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GradingConfig selects the aggregation policies for edge cases.
type GradingConfig struct {
	EmptyCategoryPolicy string
	UngradedPolicy      string
}

// DisplayConfig controls how numeric results are rendered.
type DisplayConfig struct {
	Locale          string
	Decimals        int
	Placeholder     string
	UnassignedLabel string
}

// RosterConfig governs roster caching and the background refresh queue.
type RosterConfig struct {
	CacheEnabled      bool
	CacheTTL          time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	WorkerBufferSize  int
	RetryDelay        time.Duration
	DefaultPageSize   int
	MaxPageSize       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Grading = GradingConfig{
		EmptyCategoryPolicy: strings.ToLower(v.GetString("GRADING_EMPTY_CATEGORY_POLICY")),
		UngradedPolicy:      strings.ToLower(v.GetString("GRADING_UNGRADED_POLICY")),
	}

	cfg.Display = DisplayConfig{
		Locale:          v.GetString("DISPLAY_LOCALE"),
		Decimals:        v.GetInt("DISPLAY_DECIMALS"),
		Placeholder:     v.GetString("DISPLAY_PLACEHOLDER"),
		UnassignedLabel: v.GetString("DISPLAY_UNASSIGNED_LABEL"),
	}

	cfg.Roster = RosterConfig{
		CacheEnabled:      v.GetBool("ENABLE_ROSTER_CACHE"),
		CacheTTL:          parseDuration(v.GetString("ROSTER_CACHE_TTL"), 5*time.Minute),
		WorkerConcurrency: v.GetInt("ROSTER_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("ROSTER_WORKER_RETRIES"),
		WorkerBufferSize:  v.GetInt("ROSTER_WORKER_BUFFER"),
		RetryDelay:        parseDuration(v.GetString("ROSTER_WORKER_RETRY_DELAY"), 2*time.Second),
		DefaultPageSize:   v.GetInt("ROSTER_DEFAULT_PAGE_SIZE"),
		MaxPageSize:       v.GetInt("ROSTER_MAX_PAGE_SIZE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "gradebook")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GRADING_EMPTY_CATEGORY_POLICY", "exclude")
	v.SetDefault("GRADING_UNGRADED_POLICY", "ignore")

	v.SetDefault("DISPLAY_LOCALE", "en")
	v.SetDefault("DISPLAY_DECIMALS", 0)
	v.SetDefault("DISPLAY_PLACEHOLDER", "-")
	v.SetDefault("DISPLAY_UNASSIGNED_LABEL", "N/A")

	v.SetDefault("ENABLE_ROSTER_CACHE", true)
	v.SetDefault("ROSTER_CACHE_TTL", "5m")
	v.SetDefault("ROSTER_WORKER_CONCURRENCY", 2)
	v.SetDefault("ROSTER_WORKER_RETRIES", 3)
	v.SetDefault("ROSTER_WORKER_BUFFER", 64)
	v.SetDefault("ROSTER_WORKER_RETRY_DELAY", "2s")
	v.SetDefault("ROSTER_DEFAULT_PAGE_SIZE", 25)
	v.SetDefault("ROSTER_MAX_PAGE_SIZE", 200)
}

// viper reports a missing explicit config file as a path error, not ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
