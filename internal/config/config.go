// Package config loads prpulse's configuration from a JSON file with
// environment-variable overrides, using viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ducdmdev/prpulse/internal/logging"
)

// GitConfig controls how the repo gateway shells out to git.
type GitConfig struct {
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	DefaultBase    string `mapstructure:"defaultBase"`
}

// AnalysisConfig controls the depth and scope of PR analysis.
type AnalysisConfig struct {
	MaxImpactDepth int  `mapstructure:"maxImpactDepth"`
	SkipBreaking   bool `mapstructure:"skipBreaking"`
	SkipCoverage   bool `mapstructure:"skipCoverage"`
	SkipDocs       bool `mapstructure:"skipDocs"`
}

// LoggingConfig controls the shared logger.
type LoggingConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

// Config is prpulse's full configuration surface.
type Config struct {
	Git      GitConfig      `mapstructure:"git"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// EnvOverride records one environment variable that overrode a config value,
// for introspection by callers that want to explain their effective config.
type EnvOverride struct {
	EnvVar   string
	OldValue interface{}
	NewValue interface{}
}

// LoadResult carries the loaded config plus provenance about where it came
// from.
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	EnvOverrides []EnvOverride
	UsedDefaults bool
}

const configRelPath = ".prpulse/config.json"

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Git: GitConfig{
			TimeoutSeconds: 30,
			DefaultBase:    "main",
		},
		Analysis: AnalysisConfig{
			MaxImpactDepth: 3,
			SkipBreaking:   false,
			SkipCoverage:   false,
			SkipDocs:       false,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration for the given repo root, falling back to
// defaults when no config file is present.
func LoadConfig(repoRoot string) (*Config, error) {
	result, err := LoadConfigWithDetails(repoRoot)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration and reports its provenance: the
// config file path, whether defaults were used because no file exists, and
// which environment variables overrode values.
func LoadConfigWithDetails(repoRoot string) (*LoadResult, error) {
	path := filepath.Join(repoRoot, configRelPath)

	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigFile(path)

	cfg := DefaultConfig()
	usedDefaults := true

	if _, statErr := os.Stat(path); statErr == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config at %s: %w", path, err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("parsing config at %s: %w", path, err)
		}
		usedDefaults = false
	}

	overrides := applyEnvOverrides(cfg)

	return &LoadResult{
		Config:       cfg,
		ConfigPath:   path,
		EnvOverrides: overrides,
		UsedDefaults: usedDefaults,
	}, nil
}

type envVarDef struct {
	name string
	set  func(cfg *Config, value string)
	get  func(cfg *Config) interface{}
}

var envVars = []envVarDef{
	{
		name: "PRPULSE_GIT_DEFAULT_BASE",
		set:  func(cfg *Config, value string) { cfg.Git.DefaultBase = value },
		get:  func(cfg *Config) interface{} { return cfg.Git.DefaultBase },
	},
	{
		name: "PRPULSE_ANALYSIS_SKIP_BREAKING",
		set:  func(cfg *Config, value string) { cfg.Analysis.SkipBreaking = value == "true" || value == "1" },
		get:  func(cfg *Config) interface{} { return cfg.Analysis.SkipBreaking },
	},
	{
		name: "PRPULSE_ANALYSIS_SKIP_COVERAGE",
		set:  func(cfg *Config, value string) { cfg.Analysis.SkipCoverage = value == "true" || value == "1" },
		get:  func(cfg *Config) interface{} { return cfg.Analysis.SkipCoverage },
	},
	{
		name: "PRPULSE_ANALYSIS_SKIP_DOCS",
		set:  func(cfg *Config, value string) { cfg.Analysis.SkipDocs = value == "true" || value == "1" },
		get:  func(cfg *Config) interface{} { return cfg.Analysis.SkipDocs },
	},
	{
		name: "PRPULSE_LOGGING_FORMAT",
		set:  func(cfg *Config, value string) { cfg.Logging.Format = value },
		get:  func(cfg *Config) interface{} { return cfg.Logging.Format },
	},
	{
		name: "PRPULSE_LOGGING_LEVEL",
		set:  func(cfg *Config, value string) { cfg.Logging.Level = value },
		get:  func(cfg *Config) interface{} { return cfg.Logging.Level },
	},
}

func applyEnvOverrides(cfg *Config) []EnvOverride {
	var overrides []EnvOverride
	for _, def := range envVars {
		raw, ok := os.LookupEnv(def.name)
		if !ok {
			continue
		}
		old := def.get(cfg)
		def.set(cfg, raw)
		overrides = append(overrides, EnvOverride{
			EnvVar:   def.name,
			OldValue: old,
			NewValue: def.get(cfg),
		})
	}
	return overrides
}

// GetSupportedEnvVars lists every environment variable prpulse recognizes.
func GetSupportedEnvVars() []string {
	names := make([]string, len(envVars))
	for i, def := range envVars {
		names[i] = def.name
	}
	return names
}

// Logger builds the shared logger described by this config.
func (c *Config) Logger() *logging.Logger {
	format := logging.HumanFormat
	if c.Logging.Format == "json" {
		format = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  logging.LogLevel(c.Logging.Level),
	})
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Git.TimeoutSeconds <= 0 {
		return fmt.Errorf("git.timeoutSeconds must be positive, got %d", c.Git.TimeoutSeconds)
	}
	if c.Analysis.MaxImpactDepth < 0 {
		return fmt.Errorf("analysis.maxImpactDepth must be non-negative, got %d", c.Analysis.MaxImpactDepth)
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return fmt.Errorf("logging.format must be 'human' or 'json', got %q", c.Logging.Format)
	}
	return nil
}
