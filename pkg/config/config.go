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
	Env string

	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Scheduling SchedulingConfig
	Warmer     WarmerConfig
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

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig tunes the availability engine.
type SchedulingConfig struct {
	DefaultMemberTimezone string
	CacheEnabled          bool
	CacheTTL              time.Duration
}

// WarmerConfig governs the background availability cache warmer.
type WarmerConfig struct {
	Enabled      bool
	Interval     time.Duration
	HorizonDays  int
	Workers      int
	MetricsAddr  string
	VerticalName string
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

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

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduling = SchedulingConfig{
		DefaultMemberTimezone: v.GetString("SCHEDULING_DEFAULT_MEMBER_TIMEZONE"),
		CacheEnabled:          v.GetBool("SCHEDULING_CACHE_ENABLED"),
		CacheTTL:              parseDuration(v.GetString("SCHEDULING_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Warmer = WarmerConfig{
		Enabled:      v.GetBool("WARMER_ENABLED"),
		Interval:     parseDuration(v.GetString("WARMER_INTERVAL"), 15*time.Minute),
		HorizonDays:  v.GetInt("WARMER_HORIZON_DAYS"),
		Workers:      v.GetInt("WARMER_WORKERS"),
		MetricsAddr:  v.GetString("WARMER_METRICS_ADDR"),
		VerticalName: v.GetString("WARMER_VERTICAL_NAME"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "practice")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULING_DEFAULT_MEMBER_TIMEZONE", "US/Eastern")
	v.SetDefault("SCHEDULING_CACHE_ENABLED", true)
	v.SetDefault("SCHEDULING_CACHE_TTL", "10m")

	v.SetDefault("WARMER_ENABLED", false)
	v.SetDefault("WARMER_INTERVAL", "15m")
	v.SetDefault("WARMER_HORIZON_DAYS", 7)
	v.SetDefault("WARMER_WORKERS", 4)
	v.SetDefault("WARMER_METRICS_ADDR", ":9464")
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
