package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanegraph/lanegraph/pkg/dataset"
	"github.com/lanegraph/lanegraph/pkg/discovery"
	"github.com/lanegraph/lanegraph/pkg/runner"
)

// optimizeCommand creates the "optimize" command.
func (c *CLI) optimizeCommand() *cobra.Command {
	var (
		configPath string
		hashes     []string
		watch      bool
		skipDisc   bool
	)

	cmd := &cobra.Command{
		Use:   "optimize <dataset.toml>",
		Short: "Optimize lane assignments for families in a dataset",
		Long: `Optimize runs discovery over the dataset and then searches for lane
assignments family by family. Families whose cached layout is still fresh
are skipped; use --hash to restrict the run to specific families.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			g, datasetYear, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			year := cfg.effectiveYear(datasetYear)

			st, err := newStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if !skipDisc {
				svc := discovery.NewService(st, c.Logger, cfg.discoveryConfig(year))
				if _, err := svc.Discover(ctx, g); err != nil {
					return err
				}
			}

			rcfg := cfg.runnerConfig(year)
			if watch {
				return optimizeWatch(ctx, st, rcfg, g, hashes)
			}

			r := runner.New(st, c.Logger, rcfg)
			prog := newProgress(c.Logger)

			var summary runner.Summary
			if len(hashes) > 0 {
				summary, err = r.OptimizeHashes(ctx, g, hashes)
			} else {
				summary, err = r.OptimizeAll(ctx, g)
			}
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Optimized %d of %d families", summary.Optimized, summary.Families))

			printSuccess("Optimization complete")
			printDetail("optimized: %d  cache hits: %d", summary.Optimized, summary.CacheHits)
			printNextStep("Inspect results", fmt.Sprintf("%s status %s", appName, args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to lanegraph.toml")
	cmd.Flags().StringSliceVar(&hashes, "hash", nil, "optimize only the families with these hashes")
	cmd.Flags().BoolVar(&watch, "watch", false, "show live per-generation progress")
	cmd.Flags().BoolVar(&skipDisc, "no-discover", false, "skip the discovery pass")
	return cmd
}
