// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Gacha    GachaConfig    `mapstructure:"gacha"`
	Daily    DailyConfig    `mapstructure:"daily"`
	Referral ReferralConfig `mapstructure:"referral"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// GachaConfig holds pull and starting-resource configuration.
type GachaConfig struct {
	FreePullsPerDay int   `mapstructure:"free_pulls_per_day"`
	StartGold       int64 `mapstructure:"start_gold"`
	StartStars      int64 `mapstructure:"start_stars"`
}

// DailyConfig holds daily bonus configuration. The gold bonus grows by
// StreakGoldStep per consecutive day; an extra star is granted once the
// streak reaches StreakStarDays.
type DailyConfig struct {
	BonusGold      int64 `mapstructure:"bonus_gold"`
	BonusStars     int64 `mapstructure:"bonus_stars"`
	StreakGoldStep int64 `mapstructure:"streak_gold_step"`
	StreakStarDays int   `mapstructure:"streak_star_days"`
}

// ReferralConfig holds the one-time referral bonuses for both parties.
type ReferralConfig struct {
	ReferrerGold  int64 `mapstructure:"referrer_gold"`
	ReferrerStars int64 `mapstructure:"referrer_stars"`
	RefereeGold   int64 `mapstructure:"referee_gold"`
	RefereeStars  int64 `mapstructure:"referee_stars"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DATABASE_HOST, GACHA_FREE_PULLS_PER_DAY.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gachabot")
	v.SetDefault("database.name", "gachabot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Gacha defaults
	v.SetDefault("gacha.free_pulls_per_day", 3)
	v.SetDefault("gacha.start_gold", 1000)
	v.SetDefault("gacha.start_stars", 0)

	// Daily bonus defaults
	v.SetDefault("daily.bonus_gold", 200)
	v.SetDefault("daily.bonus_stars", 1)
	v.SetDefault("daily.streak_gold_step", 50)
	v.SetDefault("daily.streak_star_days", 7)

	// Referral bonus defaults
	v.SetDefault("referral.referrer_gold", 500)
	v.SetDefault("referral.referrer_stars", 10)
	v.SetDefault("referral.referee_gold", 200)
	v.SetDefault("referral.referee_stars", 5)
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
