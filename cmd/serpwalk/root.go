package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/entrhq/serpwalk/pkg/config"
)

const defaultConfigFile = "serpwalk.yaml"

// cliOptions holds the flags shared by every subcommand.
type cliOptions struct {
	configFile  string
	envFile     string
	keywords    []string
	target      string
	max         int
	headless    bool
	browserPath string
	reportsDir  string
	verbosity   string
	model       string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "serpwalk",
		Short: "Run human-paced search sessions that look for a target site",
		Long: `serpwalk drives an LLM-planned browser through search sessions.
For every keyword it opens a fresh browser with a random desktop or mobile
profile, searches, looks for the target site in the results, browses it for
a while and records the outcome in a JSON session report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.envFile, cmd.Flags().Changed("env-file"))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", defaultConfigFile, "path to the YAML configuration file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with credentials")
	pf.StringArrayVarP(&opts.keywords, "keyword", "k", nil, "search query to run (repeatable, overrides the keywords file)")
	pf.StringVarP(&opts.target, "target", "t", "", "target site domain")
	pf.IntVarP(&opts.max, "max", "n", 0, "number of keywords to sample from the keywords file (0 runs all)")
	pf.BoolVar(&opts.headless, "headless", false, "run the browser without a window")
	pf.StringVar(&opts.browserPath, "browser-path", "", "Chromium-family browser executable (e.g. Brave)")
	pf.StringVar(&opts.reportsDir, "reports-dir", "", "directory for session reports")
	pf.StringVarP(&opts.verbosity, "verbosity", "v", "", "console verbosity: quiet, normal, verbose, debug")
	pf.StringVar(&opts.model, "model", "", "planner model name")

	// Subcommands (alphabetical)
	root.AddCommand(newComposeCmd(opts))
	root.AddCommand(newProfileCmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

// loadEnvFile loads a dotenv file. A missing default file is fine; a missing
// file the user asked for is not. Existing environment variables win.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadConfig layers the configuration and validates the result.
func loadConfig(fsys afero.Fs, opts *cliOptions, flags *pflag.FlagSet, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg, err := layerConfig(fsys, opts, flags, lookup)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// layerConfig applies defaults, the config file, the environment and flags,
// in that order.
func layerConfig(fsys afero.Fs, opts *cliOptions, flags *pflag.FlagSet, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if opts.configFile != "" {
		exists, err := afero.Exists(fsys, opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		switch {
		case exists:
			if err := cfg.LoadFile(fsys, opts.configFile); err != nil {
				return nil, err
			}
		case flags.Changed("config"):
			return nil, fmt.Errorf("config file %s not found", opts.configFile)
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	applyFlags(cfg, opts, flags)
	return cfg, nil
}

func applyFlags(cfg *config.Config, opts *cliOptions, flags *pflag.FlagSet) {
	if flags.Changed("keyword") {
		cfg.Keywords = opts.keywords
	}
	if flags.Changed("target") {
		cfg.TargetSite = opts.target
	}
	if flags.Changed("max") {
		cfg.MaxObjectives = opts.max
	}
	if flags.Changed("headless") {
		cfg.Engine.Headless = opts.headless
	}
	if flags.Changed("browser-path") {
		cfg.Engine.ExecutablePath = opts.browserPath
	}
	if flags.Changed("reports-dir") {
		cfg.Reports.OutputDir = opts.reportsDir
	}
	if flags.Changed("verbosity") {
		cfg.Logging.Verbosity = opts.verbosity
	}
	if flags.Changed("model") {
		cfg.LLM.Model = opts.model
	}
}
