// Package config loads and validates serpwalk's configuration.
//
// Values are layered: DefaultConfig, then an optional YAML file (Load), then
// environment variables (ApplyEnv), then whatever the caller sets from flags.
// Validate runs last and reports the first problem as a *ConfigError.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/serpwalk/pkg/profile"
	"github.com/entrhq/serpwalk/pkg/session"
	"github.com/entrhq/serpwalk/pkg/task"
)

// Config represents the configuration of a browsing session run
type Config struct {
	// Domain the session tries to reach from search results
	TargetSite string `yaml:"target_site" json:"target_site"`

	// Objective source
	KeywordsFile  string   `yaml:"keywords_file" json:"keywords_file"`
	Keywords      []string `yaml:"keywords" json:"keywords"`
	MaxObjectives int      `yaml:"max_objectives" json:"max_objectives"` // 0 runs every keyword

	SearchEngine string `yaml:"search_engine" json:"search_engine"`

	Engine      EngineConfig   `yaml:"engine" json:"engine"`
	LLM         LLMConfig      `yaml:"llm" json:"llm"`
	Pacing      session.Range  `yaml:"pacing" json:"pacing"`
	Interaction session.Range  `yaml:"interaction" json:"interaction"`
	Profiles    profile.Agents `yaml:"profiles" json:"profiles"`
	Reports     ReportsConfig  `yaml:"reports" json:"reports"`
	Logging     LoggingConfig  `yaml:"logging" json:"logging"`
}

// EngineConfig configures the browser automation engine
type EngineConfig struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	ExecutablePath string        `yaml:"executable_path" json:"executable_path"` // custom Chromium-family binary
	MaxSteps       int           `yaml:"max_steps" json:"max_steps"`
	HistorySize    int           `yaml:"history_size" json:"history_size"` // past steps shown to the planner
	MaxElements    int           `yaml:"max_elements" json:"max_elements"` // elements listed per page
	DefaultTimeout time.Duration `yaml:"default_timeout" json:"default_timeout"`
	SlowMo         time.Duration `yaml:"slow_mo" json:"slow_mo"`
	BlockedURLs    []string      `yaml:"blocked_urls" json:"blocked_urls"`
	Install        bool          `yaml:"install" json:"install"` // install the Playwright driver on first use
}

// LLMConfig configures the planner's chat completion endpoint
type LLMConfig struct {
	Model             string  `yaml:"model" json:"model"`
	BaseURL           string  `yaml:"base_url" json:"base_url"`
	APIKey            string  `yaml:"api_key" json:"-"`
	Temperature       float64 `yaml:"temperature" json:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute" json:"requests_per_minute"` // 0 disables limiting
}

// ReportsConfig defines where session reports go
type ReportsConfig struct {
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	Markdown  bool   `yaml:"markdown" json:"markdown"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// Default values.
const (
	DefaultTargetSite   = "rooms.murudeshwar.co.in"
	DefaultKeywordsFile = "keywords.txt"
	DefaultModel        = "gemini-2.0-flash"
	DefaultBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultReportsDir   = "reports"
)

// DefaultConfig returns a configuration with every default filled in. Only
// the LLM credential is left empty.
func DefaultConfig() *Config {
	return &Config{
		TargetSite:    DefaultTargetSite,
		KeywordsFile:  DefaultKeywordsFile,
		MaxObjectives: 3,
		SearchEngine:  task.DefaultSearchEngine,
		Engine: EngineConfig{
			MaxSteps:       40,
			HistorySize:    15,
			MaxElements:    80,
			DefaultTimeout: 60 * time.Second,
			SlowMo:         100 * time.Millisecond,
			Install:        true,
		},
		LLM: LLMConfig{
			Model:             DefaultModel,
			BaseURL:           DefaultBaseURL,
			Temperature:       0.7,
			RequestsPerMinute: 15,
		},
		Pacing:      session.DefaultPacing,
		Interaction: session.DefaultInteraction,
		Profiles:    profile.DefaultAgents(),
		Reports: ReportsConfig{
			OutputDir: DefaultReportsDir,
			Markdown:  true,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// Load reads a YAML file from fs on top of DefaultConfig. Keys missing from
// the file keep their defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.LoadFile(fs, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile merges the YAML file at path into c.
func (c *Config) LoadFile(fs afero.Fs, path string) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ConfigError reports an invalid or missing configuration value. It is
// returned before any objective runs.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

var validVerbosity = map[string]bool{
	"quiet":   true,
	"normal":  true,
	"verbose": true,
	"debug":   true,
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TargetSite) == "" {
		return &ConfigError{Field: "target_site", Reason: "is required"}
	}
	if c.MaxObjectives < 0 {
		return &ConfigError{Field: "max_objectives", Reason: "cannot be negative"}
	}

	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}

	if err := c.Pacing.Validate(); err != nil {
		return &ConfigError{Field: "pacing", Reason: err.Error()}
	}
	if err := c.Interaction.Validate(); err != nil {
		return &ConfigError{Field: "interaction", Reason: err.Error()}
	}
	if c.Interaction.Min < time.Second {
		return &ConfigError{Field: "interaction.min", Reason: "must be at least 1s"}
	}
	if err := c.Profiles.Validate(); err != nil {
		return &ConfigError{Field: "profiles", Reason: err.Error()}
	}

	if c.Reports.OutputDir == "" {
		return &ConfigError{Field: "reports.output_dir", Reason: "is required"}
	}

	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}
	if !validVerbosity[c.Logging.Verbosity] {
		return &ConfigError{
			Field:  "logging.verbosity",
			Reason: fmt.Sprintf("invalid value %q (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity),
		}
	}

	return nil
}

func (c *Config) validateEngine() error {
	e := c.Engine
	if e.MaxSteps <= 0 {
		return &ConfigError{Field: "engine.max_steps", Reason: "must be positive"}
	}
	if e.HistorySize <= 0 {
		return &ConfigError{Field: "engine.history_size", Reason: "must be positive"}
	}
	if e.MaxElements <= 0 {
		return &ConfigError{Field: "engine.max_elements", Reason: "must be positive"}
	}
	if e.DefaultTimeout < 0 {
		return &ConfigError{Field: "engine.default_timeout", Reason: "cannot be negative"}
	}
	if e.SlowMo < 0 {
		return &ConfigError{Field: "engine.slow_mo", Reason: "cannot be negative"}
	}
	if e.ExecutablePath != "" {
		info, err := os.Stat(e.ExecutablePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return &ConfigError{Field: "engine.executable_path", Reason: fmt.Sprintf("browser not found at %s", e.ExecutablePath)}
		case err != nil:
			return &ConfigError{Field: "engine.executable_path", Reason: err.Error()}
		case info.IsDir():
			return &ConfigError{Field: "engine.executable_path", Reason: fmt.Sprintf("%s is a directory", e.ExecutablePath)}
		}
	}
	for _, pattern := range e.BlockedURLs {
		if _, err := glob.Compile(pattern); err != nil {
			return &ConfigError{Field: "engine.blocked_urls", Reason: fmt.Sprintf("invalid pattern %q: %v", pattern, err)}
		}
	}
	return nil
}

func (c *Config) validateLLM() error {
	l := c.LLM
	if l.APIKey == "" {
		return &ConfigError{Field: "llm.api_key", Reason: "is required (set SERPWALK_API_KEY or GEMINI_API_KEY)"}
	}
	if l.Model == "" {
		return &ConfigError{Field: "llm.model", Reason: "is required"}
	}
	if l.BaseURL == "" {
		return &ConfigError{Field: "llm.base_url", Reason: "is required"}
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return &ConfigError{Field: "llm.temperature", Reason: "must be between 0 and 2"}
	}
	if l.RequestsPerMinute < 0 {
		return &ConfigError{Field: "llm.requests_per_minute", Reason: "cannot be negative"}
	}
	return nil
}
