package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/entrhq/serpwalk/pkg/profile"
	"github.com/entrhq/serpwalk/pkg/task"
)

func newProfileCmd(opts *cliOptions) *cobra.Command {
	var count int
	var seed int64

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print randomly selected client profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := layerConfig(afero.NewOsFs(), opts, cmd.Flags(), nil)
			if err != nil {
				return err
			}
			if err := cfg.Profiles.Validate(); err != nil {
				return err
			}

			selector := profile.NewSelector(cfg.Profiles, newRand(cmd, seed))
			out := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				p := selector.Select()
				fmt.Fprintf(out, "%s\n  %s\n", p, p.UserAgent)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of profiles to print")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for reproducible output")
	return cmd
}

func newComposeCmd(opts *cliOptions) *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "compose QUERY",
		Short: "Print the task instruction the planner would get for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := layerConfig(afero.NewOsFs(), opts, cmd.Flags(), nil)
			if err != nil {
				return err
			}
			if err := cfg.Profiles.Validate(); err != nil {
				return err
			}
			if err := cfg.Interaction.Validate(); err != nil {
				return err
			}

			rng := newRand(cmd, seed)
			p := profile.NewSelector(cfg.Profiles, rng).Select()
			secs := cfg.Interaction.DrawSeconds(rng)
			spec := task.NewComposer(cfg.SearchEngine).Compose(args[0], p, cfg.TargetSite, secs)

			fmt.Fprintf(cmd.OutOrStdout(), "Profile: %s\nInteraction: %ds\n\n%s\n", p, secs, spec.Text)
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for reproducible output")
	return cmd
}

func newRand(cmd *cobra.Command, seed int64) *rand.Rand {
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
