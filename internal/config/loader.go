package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, it searches for certward.yaml/.yml in
// standard locations. The search requires an explicit YAML extension so the
// binary itself (same base name, no extension) is never matched.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file in any standard location. Set name/type without
		// search paths so ReadInConfig returns ConfigFileNotFoundError,
		// which Load handles gracefully.
		viper.SetConfigName("certward")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: CERTWARD_EVALUATION_WORKERS etc.
	viper.SetEnvPrefix("CERTWARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
	setDefaults()
}

// findConfigFile searches standard locations for a certward config file with
// an explicit YAML extension (.yaml or .yml).
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".certward"),
		"/etc/certward",
	}
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "certward"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds nested config keys for environment variable
// overrides.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("log.level")
	_ = viper.BindEnv("evaluation.workers")
	_ = viper.BindEnv("evaluation.cache_size")
	_ = viper.BindEnv("report.flagged_samples")
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("evaluation.workers", 0)
	viper.SetDefault("evaluation.cache_size", 0)
	viper.SetDefault("report.flagged_samples", 20)
}

// Load reads the configuration (file + env + defaults) and validates it.
// A missing config file is not an error; everything defaults.
func Load() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
