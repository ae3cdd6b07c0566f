// Package config loads the application configuration shared by the
// commands: logging, the spectator server and the board settings.
package config

import (
	"errors"
	"fmt"
	"strings"

	"blockfall/settings"

	"github.com/spf13/viper"
)

type Config struct {
	Log      LogConf           `mapstructure:"log"`
	Server   ServerConf        `mapstructure:"server"`
	Settings settings.Settings `mapstructure:"settings"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
}

type ServerConf struct {
	Addr string `mapstructure:"addr"`
	// Matches is how many headless matches the server keeps running.
	Matches int `mapstructure:"matches"`
	// FPS is the simulation rate of each match.
	FPS int `mapstructure:"fps"`
}

// Load reads file, if given, on top of the defaults for variant. Every key
// can be overridden from the environment as BLOCKFALL_<SECTION>_<KEY>, e.g.
// BLOCKFALL_SERVER_ADDR.
func Load(file string, variant settings.Variant) (*Config, error) {
	preset, err := settings.Preset(variant)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", ":9000")
	v.SetDefault("server.matches", 2)
	v.SetDefault("server.fps", 30)
	v.SetDefault("settings.variant", string(preset.Variant))
	v.SetDefault("settings.width", preset.Width)
	v.SetDefault("settings.height", preset.Height)
	v.SetDefault("settings.colors", preset.Colors)
	v.SetDefault("settings.pop_requirement", preset.PopRequirement)
	v.SetDefault("settings.fall_speed", preset.FallSpeed)
	v.SetDefault("settings.effect_speed", preset.EffectSpeed)
	v.SetDefault("settings.shapes", preset.Shapes)
	v.SetDefault("settings.seed", preset.Seed)

	v.SetEnvPrefix("blockfall")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if err := c.Settings.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("settings: %w", err))
	}
	if c.Server.Matches < 1 || c.Server.FPS < 1 {
		errs = append(errs, fmt.Errorf("%w: server needs at least one match at one frame per second", settings.ErrInvalidArgument))
	}
	return errors.Join(errs...)
}
