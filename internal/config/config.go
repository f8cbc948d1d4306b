// Package config loads skirmish configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SKIRMISH_LOGGING_LEVEL.
const EnvPrefix = "SKIRMISH"

type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
	Accounts AccountsConfig `mapstructure:"accounts"`
	Journal  JournalConfig  `mapstructure:"journal"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GameConfig struct {
	// Seed drives every random pick. Zero means a fresh seed per run.
	Seed             int64    `mapstructure:"seed"`
	StartingHandSize int      `mapstructure:"starting_hand_size"`
	Party            []string `mapstructure:"party"`
	Enemy            string   `mapstructure:"enemy"`
}

type AccountsConfig struct {
	// Driver is "memory" or "postgres".
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"database_url"`
}

type JournalConfig struct {
	// Directory receives one journal file per combat. Empty disables saving.
	Directory string `mapstructure:"directory"`
}

// Load reads path when it exists and applies defaults and environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.starting_hand_size", 5)
	v.SetDefault("game.party", []string{"elf", "jeanne", "medusa"})
	v.SetDefault("game.enemy", "jotun")
	v.SetDefault("accounts.driver", "memory")
	v.SetDefault("accounts.database_url", "")
	v.SetDefault("journal.directory", "")
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Accounts.Driver {
	case "memory":
	case "postgres":
		if c.Accounts.DatabaseURL == "" {
			return errors.New("accounts.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown accounts.driver %q", c.Accounts.Driver)
	}
	if c.Game.StartingHandSize < 0 {
		return fmt.Errorf("game.starting_hand_size must not be negative, got %d", c.Game.StartingHandSize)
	}
	if len(c.Game.Party) == 0 {
		return errors.New("game.party must name at least one character")
	}
	return nil
}
