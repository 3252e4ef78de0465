package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/entrhq/serpwalk/pkg/browser"
	"github.com/entrhq/serpwalk/pkg/config"
	"github.com/entrhq/serpwalk/pkg/engine/webagent"
	"github.com/entrhq/serpwalk/pkg/llm/openai"
	"github.com/entrhq/serpwalk/pkg/logging"
	"github.com/entrhq/serpwalk/pkg/objectives"
	"github.com/entrhq/serpwalk/pkg/profile"
	"github.com/entrhq/serpwalk/pkg/session"
	"github.com/entrhq/serpwalk/pkg/task"
)

func newRunCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a browsing session",
		Long: `Run works through the keywords one by one. Each keyword gets a fresh
browser with a random client profile. Ctrl+C stops after the current step;
the session report is written either way.`,
		Example: `  serpwalk run
  serpwalk run -k "murudeshwar beach resort" -k "hotels near murudeshwar temple"
  serpwalk run --headless --max 5 --target rooms.murudeshwar.co.in
  serpwalk run --browser-path /usr/bin/brave-browser -v verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := afero.NewOsFs()
			cfg, err := loadConfig(fsys, opts, cmd.Flags(), nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSession(ctx, cmd, fsys, cfg)
		},
	}
}

func runSession(ctx context.Context, cmd *cobra.Command, fsys afero.Fs, cfg *config.Config) error {
	logger, err := logging.NewLogger("serpwalk")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: file logging unavailable: %v\n", err)
	}
	defer logger.Close()

	console := session.NewConsole(cmd.OutOrStdout(), session.ParseLogLevel(cfg.Logging.Verbosity))
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	set, err := objectives.Resolve(fsys, objectives.Options{
		Explicit: cfg.Keywords,
		Path:     cfg.KeywordsFile,
		Max:      cfg.MaxObjectives,
		Rand:     rng,
	})
	if err != nil {
		return err
	}
	if set.Origin == objectives.OriginFallback {
		console.Warningf("keywords file %s not found, using %d built-in queries", cfg.KeywordsFile, len(set.Queries))
	}
	logger.Infof("run %s: %d objectives (%s), target %s", logger.RunID(), len(set.Queries), set.Origin, cfg.TargetSite)
	if path := logger.LogPath(); path != "" {
		console.Debugf("Log file: %s", path)
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Shutdown(); err != nil {
			logger.Warnf("engine shutdown: %v", err)
		}
	}()

	runner, err := session.NewRunner(eng,
		session.WithRunID(logger.RunID()),
		session.WithRand(rng),
		session.WithSelector(profile.NewSelector(cfg.Profiles, rng)),
		session.WithComposer(task.NewComposer(cfg.SearchEngine)),
		session.WithPersister(session.NewReportWriter(fsys, cfg.Reports.OutputDir, cfg.Reports.Markdown)),
		session.WithConsole(console),
		session.WithPacing(cfg.Pacing),
		session.WithInteraction(cfg.Interaction),
	)
	if err != nil {
		return err
	}

	state, err := runner.Run(ctx, set.Queries, cfg.TargetSite)
	logger.Infof("run finished: %d interactions, %d visits, %.2fs", state.TotalInteractions, state.TargetVisits, state.SessionDurationSeconds)
	if err != nil {
		logger.Errorf("run ended with error: %v", err)
	}
	return err
}

func newEngine(cfg *config.Config, logger *logging.Logger) (*webagent.Engine, error) {
	provider, err := openai.NewProvider(cfg.LLM.APIKey,
		openai.WithBaseURL(cfg.LLM.BaseURL),
		openai.WithModel(cfg.LLM.Model),
		openai.WithTemperature(cfg.LLM.Temperature),
		openai.WithJSONResponse(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	launcher := browser.NewLauncher(browser.Options{
		Headless:       cfg.Engine.Headless,
		ExecutablePath: cfg.Engine.ExecutablePath,
		SlowMo:         cfg.Engine.SlowMo,
		DefaultTimeout: cfg.Engine.DefaultTimeout,
		Install:        cfg.Engine.Install,
	}, logger.With("browser"))

	eng, err := webagent.New(provider, webagent.Chromium(launcher),
		webagent.WithLogger(logger.With("engine")),
		webagent.WithMaxSteps(cfg.Engine.MaxSteps),
		webagent.WithHistorySize(cfg.Engine.HistorySize),
		webagent.WithMaxElements(cfg.Engine.MaxElements),
		webagent.WithRequestsPerMinute(cfg.LLM.RequestsPerMinute),
		webagent.WithBlockedURLs(cfg.Engine.BlockedURLs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return eng, nil
}
