package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lanegraph/lanegraph/pkg/dataset"
	"github.com/lanegraph/lanegraph/pkg/discovery"
	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/lineage"
	"github.com/lanegraph/lanegraph/pkg/render"
)

// Export formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPNG = "png"
	formatPDF = "pdf"
)

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		configPath string
		hash       string
		view       string
		format     string
		output     string
		detailed   bool
		scale      float64
	)

	cmd := &cobra.Command{
		Use:   "export <dataset.toml>",
		Short: "Export a family's graph or optimized layout as DOT, SVG, PNG, or PDF",
		Long: `Export renders one family. The "family" view draws the raw succession
graph; the "layout" view draws the optimized lane assignment and requires a
cached layout (run optimize first).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := apperrors.ValidateOutputPath(output); err != nil {
				return err
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			g, _, err := dataset.Load(args[0])
			if err != nil {
				return err
			}

			var dot string
			switch view {
			case "family":
				fam, err := familyByHash(g, cfg, hash)
				if err != nil {
					return err
				}
				dot = render.FamilyDOT(fam, render.Options{Detailed: detailed})

			case "layout":
				st, err := newStore(ctx, cfg)
				if err != nil {
					return err
				}
				defer st.Close()

				row, err := resolveRow(cmd, st, hash)
				if err != nil {
					return err
				}
				if row.OptimizedAt == nil {
					return apperrors.New(apperrors.ErrCodeNotFound,
						"family %s has no optimized layout yet; run optimize first", hash)
				}
				if row.IsStale {
					printWarning("layout for %s is stale; re-run optimize for current structure", hash[:min(12, len(hash))])
				}
				dot = render.LayoutDOT(row.Data)

			default:
				return apperrors.New(apperrors.ErrCodeInvalidFormat, "unknown view %q (family or layout)", view)
			}

			sp := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", format))
			sp.Start()
			data, err := convert(dot, format, scale)
			sp.Stop()
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Exported %s view as %s", view, strings.ToUpper(format))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to lanegraph.toml")
	cmd.Flags().StringVar(&hash, "hash", "", "family hash (full or prefix)")
	cmd.Flags().StringVar(&view, "view", "layout", "view to export: family or layout")
	cmd.Flags().StringVar(&format, "format", formatSVG, "output format: dot, svg, png, or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include year spans and link kinds in labels")
	cmd.Flags().Float64Var(&scale, "scale", 2.0, "PNG scale factor")
	_ = cmd.MarkFlagRequired("hash")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// convert renders DOT text into the requested output format.
func convert(dot, format string, scale float64) ([]byte, error) {
	switch format {
	case formatDOT:
		return []byte(dot), nil
	case formatSVG:
		return render.RenderSVG(dot)
	case formatPNG:
		svg, err := render.RenderSVG(dot)
		if err != nil {
			return nil, err
		}
		return render.ToPNG(svg, scale)
	case formatPDF:
		svg, err := render.RenderSVG(dot)
		if err != nil {
			return nil, err
		}
		return render.ToPDF(svg)
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "unknown format %q", format)
	}
}

// familyByHash finds the dataset family whose fingerprint hash starts with
// the given prefix.
func familyByHash(g *lineage.Graph, cfg Config, prefix string) (lineage.Family, error) {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = discovery.DefaultThreshold
	}

	var matches []lineage.Family
	for _, fam := range discovery.Families(g, threshold) {
		if strings.HasPrefix(lineage.NewFingerprint(fam).Hash(), prefix) {
			matches = append(matches, fam)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return lineage.Family{}, apperrors.New(apperrors.ErrCodeFamilyNotFound, "no family matches hash %q", prefix)
	default:
		return lineage.Family{}, apperrors.New(apperrors.ErrCodeInvalidHash, "hash %q is ambiguous (%d matches)", prefix, len(matches))
	}
}
