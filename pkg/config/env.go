package config

import (
	"fmt"
	"os"

	"github.com/mstoykov/envconfig"
)

// envOverrides lists the environment variables that override file values.
type envOverrides struct {
	APIKey      string `envconfig:"SERPWALK_API_KEY"`
	GeminiKey   string `envconfig:"GEMINI_API_KEY"`
	OpenAIKey   string `envconfig:"OPENAI_API_KEY"`
	Model       string `envconfig:"SERPWALK_MODEL"`
	BaseURL     string `envconfig:"SERPWALK_BASE_URL"`
	TargetSite  string `envconfig:"SERPWALK_TARGET_SITE"`
	Headless    *bool  `envconfig:"SERPWALK_HEADLESS"`
	BrowserPath string `envconfig:"SERPWALK_BROWSER_PATH"`
	ReportsDir  string `envconfig:"SERPWALK_REPORTS_DIR"`
	Verbosity   string `envconfig:"SERPWALK_VERBOSITY"`
}

// ApplyEnv overrides c with values from the environment. lookup defaults to
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(key string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var env envOverrides
	if err := envconfig.Process("", &env, lookup); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	switch {
	case env.APIKey != "":
		c.LLM.APIKey = env.APIKey
	case env.GeminiKey != "":
		c.LLM.APIKey = env.GeminiKey
	case env.OpenAIKey != "":
		c.LLM.APIKey = env.OpenAIKey
	}

	setString(&c.LLM.Model, env.Model)
	setString(&c.LLM.BaseURL, env.BaseURL)
	setString(&c.TargetSite, env.TargetSite)
	setString(&c.Engine.ExecutablePath, env.BrowserPath)
	setString(&c.Reports.OutputDir, env.ReportsDir)
	setString(&c.Logging.Verbosity, env.Verbosity)
	if env.Headless != nil {
		c.Engine.Headless = *env.Headless
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
