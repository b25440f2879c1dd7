package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultDatabasePath = "vaahaka_credits.db"
	defaultLogLevel     = "info"
)

// Config captures runtime configuration for the credit bot.
type Config struct {
	Token        string
	GuildID      string
	DevMode      bool
	DatabasePath string
	RedisURL     string
	LogLevel     string
}

// NewViper returns a viper instance with defaults and env bindings applied.
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// ApplyDefaults configures defaults and env bindings on the provided
// viper instance. Env names match the original deployment: DISCORD_TOKEN,
// GUILD_ID, DEV_MODE, DB_PATH, REDIS_URL, LOG_LEVEL.
func ApplyDefaults(v *viper.Viper) {
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("log.level", defaultLogLevel)

	bindEnv(v, "discord.token", "DISCORD_TOKEN")
	bindEnv(v, "discord.guild_id", "GUILD_ID")
	bindEnv(v, "dev_mode", "DEV_MODE")
	bindEnv(v, "database.path", "DB_PATH")
	bindEnv(v, "redis.url", "REDIS_URL")
	bindEnv(v, "log.level", "LOG_LEVEL")
}

func bindEnv(v *viper.Viper, key, env string) {
	if err := v.BindEnv(key, env); err != nil {
		panic(err)
	}
}

// Load parses runtime configuration from viper.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Token:        v.GetString("discord.token"),
		GuildID:      v.GetString("discord.guild_id"),
		DevMode:      parseBool(v.GetString("dev_mode")),
		DatabasePath: v.GetString("database.path"),
		RedisURL:     v.GetString("redis.url"),
		LogLevel:     v.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("config: discord.token (DISCORD_TOKEN) is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("config: database.path is required")
	}
	return nil
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
