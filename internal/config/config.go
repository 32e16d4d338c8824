// Package config loads and validates settings at startup. A .env file is
// read when present; real environment variables win over it.
// Fail-fast: if a required variable is missing, Load returns an error.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the placement service.
type Config struct {
	HTTPPort string `mapstructure:"http_port"`
	GRPCPort string `mapstructure:"grpc_port"`

	DatabaseURL string `mapstructure:"database_url"`
	DBMaxConns  int32  `mapstructure:"db_max_conns"`
	RedisURL    string `mapstructure:"redis_url"`
	JWTSecret   string `mapstructure:"supabase_jwt_secret"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	EventsBackend string   `mapstructure:"events_backend"`
	EventsPrefix  string   `mapstructure:"events_channel_prefix"`
	KafkaBrokers  []string `mapstructure:"kafka_brokers"`
	KafkaTopic    string   `mapstructure:"kafka_topic"`

	MidtransServerKey  string `mapstructure:"midtrans_server_key"`
	MidtransProduction bool   `mapstructure:"midtrans_production"`

	AdzunaAppID     string        `mapstructure:"adzuna_app_id"`
	AdzunaAppKey    string        `mapstructure:"adzuna_app_key"`
	AdzunaCountry   string        `mapstructure:"adzuna_country"`
	ImportTitles    []string      `mapstructure:"import_titles"`
	ImportLocations []string      `mapstructure:"import_locations"`
	ImportRedFlags  []string      `mapstructure:"import_red_flags"`
	ImportTTL       time.Duration `mapstructure:"import_ttl"`

	SweepSchedule  string `mapstructure:"sweep_schedule"`
	ImportSchedule string `mapstructure:"import_schedule"`

	MatchLockTTL   time.Duration `mapstructure:"match_lock_ttl"`
	MatchMinScore  int           `mapstructure:"match_min_score"`
	DefaultMaxJobs int           `mapstructure:"default_max_jobs"`
}

var defaults = map[string]any{
	"http_port":             "8080",
	"grpc_port":             "9090",
	"database_url":          "",
	"db_max_conns":          10,
	"redis_url":             "",
	"supabase_jwt_secret":   "",
	"log_level":             "info",
	"log_format":            "json",
	"events_backend":        "redis",
	"events_channel_prefix": "placement:",
	"kafka_brokers":         "",
	"kafka_topic":           "placement.events",
	"midtrans_server_key":   "",
	"midtrans_production":   false,
	"adzuna_app_id":         "",
	"adzuna_app_key":        "",
	"adzuna_country":        "gb",
	"import_titles":         "english teacher china,esl teacher china",
	"import_locations":      "",
	"import_red_flags":      "unpaid,volunteer,commission only",
	"import_ttl":            "720h",
	"sweep_schedule":        "@every 1h",
	"import_schedule":       "@every 6h",
	"match_lock_ttl":        "2m",
	"match_min_score":       0,
	"default_max_jobs":      5,
}

// Load reads .env (if any) and the environment and returns a validated
// Config.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	cfg.ImportTitles = compact(cfg.ImportTitles)
	cfg.ImportLocations = compact(cfg.ImportLocations)
	cfg.ImportRedFlags = compact(cfg.ImportRedFlags)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return fmt.Errorf("DATABASE_URL is required")
	case c.RedisURL == "":
		return fmt.Errorf("REDIS_URL is required")
	case c.JWTSecret == "":
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	switch c.EventsBackend {
	case "redis", "none":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_BACKEND=kafka")
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be redis, kafka or none, got %q", c.EventsBackend)
	}
	if c.MatchLockTTL <= 0 {
		return fmt.Errorf("MATCH_LOCK_TTL must be positive")
	}
	if c.DefaultMaxJobs < 0 {
		return fmt.Errorf("DEFAULT_MAX_JOBS cannot be negative")
	}
	return nil
}

// compact trims entries and drops empty ones.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
