package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanegraph/lanegraph/pkg/dataset"
	"github.com/lanegraph/lanegraph/pkg/discovery"
)

// discoverCommand creates the "discover" command.
func (c *CLI) discoverCommand() *cobra.Command {
	var (
		configPath string
		threshold  int
	)

	cmd := &cobra.Command{
		Use:   "discover <dataset.toml>",
		Short: "Decompose a lineage dataset into families and reconcile the layout cache",
		Long: `Discover finds the connected families of the succession graph, fingerprints
each one, and reconciles the layout cache: new families get pending rows,
structurally edited families are re-keyed and marked stale, and rows for
vanished or absorbed families are pruned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if threshold > 0 {
				cfg.Threshold = threshold
			}

			g, datasetYear, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			c.Logger.Debug("dataset loaded", "entities", g.NodeCount(), "successions", g.LinkCount())

			st, err := newStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			prog := newProgress(c.Logger)
			svc := discovery.NewService(st, c.Logger, cfg.discoveryConfig(cfg.effectiveYear(datasetYear)))
			report, err := svc.Discover(ctx, g)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Discovered %d families in %d components", report.Families, report.Components))

			printSuccess("Cache reconciled")
			printStats(g.NodeCount(), g.LinkCount(), report.Unchanged == report.Families)
			printDetail("created: %d  updated: %d  pruned: %d  unchanged: %d",
				report.Created, report.Updated, report.Pruned, report.Unchanged)
			if len(report.Pending) > 0 {
				printWarning("%d families awaiting optimization", len(report.Pending))
				printNextStep("Optimize them", fmt.Sprintf("%s optimize %s", appName, args[0]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to lanegraph.toml")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "minimum family size (overrides config)")
	return cmd
}
