package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/typical/pkg/config"
	"github.com/Sumatoshi-tech/typical/pkg/sample"
)

// configName is the config file name without extension.
const configName = ".typical"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for typical settings.
const envPrefix = "TYPICAL"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Defaults.
const (
	DefaultMaxNumber       = 2 * config.MaxNumberPerDimension
	DefaultRepresentatives = 1
	DefaultShrinkage       = 0.5
	DefaultDistance        = sample.DistanceL2
	DefaultInputFormat     = "auto"
	DefaultOutputFormat    = "table"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("summary.max_number", DefaultMaxNumber)
	viperCfg.SetDefault("summary.representatives", DefaultRepresentatives)
	viperCfg.SetDefault("summary.shrinkage", DefaultShrinkage)
	viperCfg.SetDefault("summary.parallel", false)
	viperCfg.SetDefault("summary.distance", DefaultDistance)

	viperCfg.SetDefault("input.format", DefaultInputFormat)
	viperCfg.SetDefault("input.schema_validation", true)
	viperCfg.SetDefault("input.max_points", "")

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.color", true)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.prometheus_addr", "")
}
