package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/lanegraph/lanegraph/pkg/dataset"
	"github.com/lanegraph/lanegraph/pkg/discovery"
	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/lineage"
	"github.com/lanegraph/lanegraph/pkg/store"
)

// statusCommand creates the "status" command.
func (c *CLI) statusCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <dataset.toml> [family-hash]",
		Short: "Show the layout cache state for a dataset's families",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			g, _, err := dataset.Load(args[0])
			if err != nil {
				return err
			}

			st, err := newStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if len(args) == 2 {
				return c.printFamilyDetail(cmd, st, args[1])
			}
			return c.printFamilyTable(cmd, st, g, cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to lanegraph.toml")
	return cmd
}

func (c *CLI) printFamilyTable(cmd *cobra.Command, st store.Store, g *lineage.Graph, cfg Config) error {
	ctx := cmd.Context()

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = discovery.DefaultThreshold
	}
	fams := discovery.Families(g, threshold)
	if len(fams) == 0 {
		printInfo("No families at or above the size threshold (%d)", threshold)
		return nil
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("HASH", "ENTITIES", "STATE", "SCORE", "OPTIMIZED")

	for _, fam := range fams {
		hash := lineage.NewFingerprint(fam).Hash()

		state := "pending"
		score := "—"
		optimized := "—"
		row, err := st.Get(ctx, hash)
		switch {
		case errors.Is(err, store.ErrNotFound):
			state = "undiscovered"
		case err != nil:
			return err
		case row.OptimizedAt == nil:
			// discovered, not yet optimized
		case row.IsStale:
			state = "stale"
			score = fmt.Sprintf("%.2f", row.Score)
			optimized = row.OptimizedAt.Format("2006-01-02 15:04")
		default:
			state = "cached"
			score = fmt.Sprintf("%.2f", row.Score)
			optimized = row.OptimizedAt.Format("2006-01-02 15:04")
		}

		tbl.Row(hash[:12], fmt.Sprintf("%d", fam.Size()), stateStyle(state).Render(state), score, optimized)
	}

	fmt.Println(tbl)
	return nil
}

func (c *CLI) printFamilyDetail(cmd *cobra.Command, st store.Store, prefix string) error {
	row, err := resolveRow(cmd, st, prefix)
	if err != nil {
		return err
	}

	printKeyValue("hash", row.FamilyHash)
	printKeyValue("entities", fmt.Sprintf("%d", len(row.DataFingerprint.NodeIDs)))
	printKeyValue("links", fmt.Sprintf("%d", len(row.DataFingerprint.LinkIDs)))

	switch {
	case row.OptimizedAt == nil:
		printKeyValue("state", stylePending.Render("pending"))
		printNextStep("Optimize it", fmt.Sprintf("%s optimize <dataset> --hash %s", appName, row.FamilyHash))
		return nil
	case row.IsStale:
		printKeyValue("state", styleStale.Render("stale"))
	default:
		printKeyValue("state", styleCached.Render("cached"))
	}

	printKeyValue("score", fmt.Sprintf("%.2f", row.Score))
	printKeyValue("optimized", row.OptimizedAt.Format("2006-01-02 15:04:05"))
	printKeyValue("chains", fmt.Sprintf("%d", len(row.Data.Chains)))

	lanes := make(map[int]bool)
	for _, ch := range row.Data.Chains {
		lanes[ch.Y] = true
	}
	printKeyValue("lanes", fmt.Sprintf("%d", len(lanes)))
	return nil
}

// resolveRow resolves a full or abbreviated family hash against the store.
func resolveRow(cmd *cobra.Command, st store.Store, prefix string) (store.Layout, error) {
	rows, err := st.List(cmd.Context())
	if err != nil {
		return store.Layout{}, err
	}

	var matches []store.Layout
	for _, row := range rows {
		if strings.HasPrefix(row.FamilyHash, prefix) {
			matches = append(matches, row)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return store.Layout{}, apperrors.New(apperrors.ErrCodeFamilyNotFound, "no family matches hash %q", prefix)
	default:
		return store.Layout{}, apperrors.New(apperrors.ErrCodeInvalidHash, "hash %q is ambiguous (%d matches)", prefix, len(matches))
	}
}
