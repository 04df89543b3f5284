package config

import (
	"errors"
	"fmt"
	"io/fs"
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

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Statistics StatisticsConfig
	Scheduling SchedulingConfig
}

type DatabaseConfig struct {
	Enabled      bool
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
	MaxAge         int
}

type LogConfig struct {
	Level  string
	Format string
}

// StatisticsConfig governs caching and background refresh of the statistics aggregate.
type StatisticsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	Workers      int
	MaxRetries   int
}

// SchedulingConfig describes the term grid and the missing resource id policy.
type SchedulingConfig struct {
	TermWeeks         int
	SlotsPerClassroom int
	StrictResources   bool
	LoadOnStart       bool
	LoadTimeout       time.Duration
	ShutdownTimeout   time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("DB_ENABLED"),
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

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		MaxAge:         v.GetInt("CORS_MAX_AGE"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Statistics = StatisticsConfig{
		CacheEnabled: v.GetBool("ENABLE_STATS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("STATS_CACHE_TTL"), 10*time.Minute),
		Workers:      v.GetInt("STATS_WORKERS"),
		MaxRetries:   v.GetInt("STATS_MAX_RETRIES"),
	}

	cfg.Scheduling = SchedulingConfig{
		TermWeeks:         v.GetInt("SCHEDULING_TERM_WEEKS"),
		SlotsPerClassroom: v.GetInt("SCHEDULING_SLOTS_PER_CLASSROOM"),
		StrictResources:   v.GetBool("SCHEDULING_STRICT_RESOURCES"),
		LoadOnStart:       v.GetBool("SCHEDULING_LOAD_ON_START"),
		LoadTimeout:       parseDuration(v.GetString("SCHEDULING_LOAD_TIMEOUT"), 30*time.Second),
		ShutdownTimeout:   parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second),
	}

	return cfg
}

const maxTermWeeks = 52

// Validate rejects settings the scheduling core cannot work with.
func (c *Config) Validate() error {
	if c.Scheduling.TermWeeks <= 0 || c.Scheduling.TermWeeks > maxTermWeeks {
		return fmt.Errorf("SCHEDULING_TERM_WEEKS must be within 1-%d, got %d", maxTermWeeks, c.Scheduling.TermWeeks)
	}
	if c.Scheduling.SlotsPerClassroom <= 0 {
		return fmt.Errorf("SCHEDULING_SLOTS_PER_CLASSROOM must be positive, got %d", c.Scheduling.SlotsPerClassroom)
	}
	if c.Scheduling.LoadOnStart && !c.Database.Enabled {
		return errors.New("SCHEDULING_LOAD_ON_START requires DB_ENABLED")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("CORS_MAX_AGE", 600)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_STATS_CACHE", false)
	v.SetDefault("STATS_CACHE_TTL", "10m")
	v.SetDefault("STATS_WORKERS", 1)
	v.SetDefault("STATS_MAX_RETRIES", 2)

	v.SetDefault("SCHEDULING_TERM_WEEKS", 20)
	v.SetDefault("SCHEDULING_SLOTS_PER_CLASSROOM", 25)
	v.SetDefault("SCHEDULING_STRICT_RESOURCES", false)
	v.SetDefault("SCHEDULING_LOAD_ON_START", false)
	v.SetDefault("SCHEDULING_LOAD_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
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
