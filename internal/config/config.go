// Package config provides configuration loading for certward.
//
// Configuration is optional: every key has a default, and a run is fully
// specified by CLI arguments alone. A certward.yaml file (or CERTWARD_*
// environment variables) tunes logging, worker-pool sizing, the decision
// cache, and report shaping.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config is the top-level certward configuration.
type Config struct {
	// Log configures the structured logger.
	Log LogConfig `yaml:"log" mapstructure:"log"`
	// Evaluation configures the engine and batch runner.
	Evaluation EvalConfig `yaml:"evaluation" mapstructure:"evaluation"`
	// Report configures the report writers.
	Report ReportConfig `yaml:"report" mapstructure:"report"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default info.
	Level string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// EvalConfig configures the evaluation phase.
type EvalConfig struct {
	// Workers is the evaluation worker-pool size. 0 means GOMAXPROCS.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0"`
	// CacheSize bounds the engine's decision cache. 0 disables it.
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size" validate:"gte=0"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	// FlaggedSamples caps the flagged-decisions table in report.md.
	// 0 lists all flagged decisions.
	FlaggedSamples int `yaml:"flagged_samples" mapstructure:"flagged_samples" validate:"gte=0"`
}

// Validate checks the configuration using struct tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: invalid value for %s (%s)", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}
