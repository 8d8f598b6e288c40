package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every value the process reads at startup. It is loaded once
// and treated as read-only afterwards.
type Config struct {
	ListenAddr  string `mapstructure:"LISTEN_ADDR"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	CookieHashKeyB64  string `mapstructure:"COOKIE_HASH_KEY"`
	CookieBlockKeyB64 string `mapstructure:"COOKIE_BLOCK_KEY"`

	// Operating window and booking rules.
	OpenHour     int    `mapstructure:"OPEN_HOUR"`
	CloseHour    int    `mapstructure:"CLOSE_HOUR"`
	HorizonDays  int    `mapstructure:"HORIZON_DAYS"`
	MaxSpanHours int    `mapstructure:"MAX_SPAN_HOURS"`
	TimeZone     string `mapstructure:"TIME_ZONE"`

	CookieHashKey  []byte         `mapstructure:"-"`
	CookieBlockKey []byte         `mapstructure:"-"`
	MaxSpan        time.Duration  `mapstructure:"-"`
	Location       *time.Location `mapstructure:"-"`
}

// Load reads configuration from the environment and an optional config.yaml
// in the working directory or ./config.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OPEN_HOUR", 8)
	v.SetDefault("CLOSE_HOUR", 22)
	v.SetDefault("HORIZON_DAYS", 7)
	v.SetDefault("MAX_SPAN_HOURS", 3)
	v.SetDefault("TIME_ZONE", "UTC")

	// Defaults alone don't register a key with AutomaticEnv.
	for _, k := range []string{"DATABASE_URL", "COOKIE_HASH_KEY", "COOKIE_BLOCK_KEY"} {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.OpenHour < 0 || cfg.CloseHour > 24 || cfg.OpenHour >= cfg.CloseHour {
		return Config{}, fmt.Errorf("invalid operating hours: OPEN_HOUR=%d CLOSE_HOUR=%d", cfg.OpenHour, cfg.CloseHour)
	}
	if cfg.HorizonDays < 1 {
		return Config{}, fmt.Errorf("HORIZON_DAYS must be at least 1")
	}
	if cfg.MaxSpanHours < 1 {
		return Config{}, fmt.Errorf("MAX_SPAN_HOURS must be at least 1")
	}
	cfg.MaxSpan = time.Duration(cfg.MaxSpanHours) * time.Hour

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return Config{}, fmt.Errorf("TIME_ZONE: %w", err)
	}
	cfg.Location = loc

	cfg.CookieHashKey, err = decodeKey("COOKIE_HASH_KEY", cfg.CookieHashKeyB64)
	if err != nil {
		return Config{}, err
	}
	cfg.CookieBlockKey, err = decodeKey("COOKIE_BLOCK_KEY", cfg.CookieBlockKeyB64)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == "production" }

func decodeKey(name, val string) ([]byte, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, fmt.Errorf("%s is required (base64)", name)
	}
	if b, err := base64.StdEncoding.DecodeString(val); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}
