// Package application wires the verification pipeline together: it owns the
// orchestrator that sequences generation, segmentation, parallel
// verification, and constraint-driven backtracking for one request at a
// time.
package application

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-scrutiny/internal/constraint"
	"github.com/ahrav/go-scrutiny/internal/domain"
	"github.com/ahrav/go-scrutiny/internal/segment"
	"github.com/ahrav/go-scrutiny/internal/verify"
)

// Config holds the tunable parameters of the verification pipeline.
// All fields are validated before use; zero values are replaced by
// defaults rather than rejected.
type Config struct {
	// MaxWorkers bounds the step-verification worker pool. The pool is
	// never unbounded; tune this against backend rate limits.
	MaxWorkers int `yaml:"max_workers" validate:"min=1,max=128"`

	// MaxBacktracks bounds regeneration attempts per request.
	MaxBacktracks int `yaml:"max_backtracks" validate:"min=1,max=10"`

	// MinSteps is the hard structural floor on qualifying steps in a
	// rationale. Rounds with fewer steps abort without verification.
	MinSteps int `yaml:"min_steps" validate:"min=1,max=64"`

	// MinStepSpaces is the minimum number of interior spaces a fragment
	// needs to qualify as a step during segmentation. Zero selects the
	// default; empty fragments are always dropped.
	MinStepSpaces int `yaml:"min_step_spaces" validate:"min=0,max=16"`
}

// DefaultConfig returns the pipeline defaults: a pool of 20 workers, 2
// backtracks, at least 3 qualifying steps of at least 3 words each.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:    verify.DefaultMaxWorkers,
		MaxBacktracks: constraint.DefaultMaxBacktracks,
		MinSteps:      3,
		MinStepSpaces: segment.DefaultMinSpaces,
	}
}

// applyDefaults replaces zero values with defaults so partial YAML files
// and zero-valued structs behave identically.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.MaxWorkers == 0 {
		c.MaxWorkers = defaults.MaxWorkers
	}
	if c.MaxBacktracks == 0 {
		c.MaxBacktracks = defaults.MaxBacktracks
	}
	if c.MinSteps == 0 {
		c.MinSteps = defaults.MinSteps
	}
	if c.MinStepSpaces == 0 {
		c.MinStepSpaces = defaults.MinStepSpaces
	}
}

// Validate checks the configuration against its constraints. Failures wrap
// domain.ErrInvalidConfiguration so callers can match the category.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
	}
	return nil
}

// ParseConfig decodes a YAML document into a Config, applying defaults for
// omitted fields before validating.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode pipeline config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return ParseConfig(data)
}

// Package-level validator instance for configuration validation.
var validate = validator.New()
