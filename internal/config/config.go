package config

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	StaticDir string `mapstructure:"static_dir"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type GameConfig struct {
	TickMS     int `mapstructure:"tick_ms"`
	MaxPlayers int `mapstructure:"max_players"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Log      LogConfig      `mapstructure:"log"`
}

// TickPeriod returns the configured gravity interval.
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.Game.TickMS) * time.Millisecond
}

// Load reads configuration from the optional file at path, with
// MULTITRIS_* environment variables overriding file values and built-in
// defaults filling the rest. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "./static")
	v.SetDefault("database.path", "./multitris.db")
	v.SetDefault("game.tick_ms", 500)
	v.SetDefault("game.max_players", 4)
	v.SetDefault("log.development", false)

	v.SetEnvPrefix("MULTITRIS")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
