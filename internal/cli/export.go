package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"regcorpus/features/dataset"
	"regcorpus/internal/app"
)

var ErrValidation = fmt.Errorf("%w: corpus validation", ErrStageFailed)

func newExportCmd(e *env) *cobra.Command {
	var (
		x    app.ExportOptions
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "export {glossary|rules|synthetic|all}...",
		Short: "export train/val datasets from structured batches",
		Long: `Generate instruction samples from the structured batches, drop duplicates
and low-quality samples, and split each dataset into train/val by family so
no family appears in both.

Datasets:
  • glossary      - tax and accounting glossaries (see --export-type)
  • rules         - rule application examples
  • synthetic     - multi-turn synthetic conversations
  • all           - every dataset`,
		Example: `  $ regcorpus export all
  $ regcorpus export glossary --export-type tax
  $ regcorpus export rules --variations-per-rule 3 --seed 7
  $ regcorpus export validate`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x.Datasets = args
			if cmd.Flags().Changed("seed") {
				x.Seed = &seed
			}
			return e.run(cmd, func(ctx context.Context, a *app.App) error {
				res, stats, err := a.Export(ctx, x)
				out := cmd.OutOrStdout()
				failed := report(out, res, "Export", "datasets")
				if err != nil {
					return err
				}
				printStats(out, stats)
				if failed != nil {
					return failed
				}
				printSuccess(out, "export finished")
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.Float64Var(&x.SplitRatio, "split-ratio", 0, "train share of families in (0,1) (default SPLIT_RATIO)")
	f.Uint64Var(&seed, "seed", 0, "partition seed (default SPLIT_SEED)")
	f.StringVar(&x.InputDir, "input", "", "structured batch directory (default STRUCTURED_DIR)")
	f.StringVar(&x.OutputDir, "output", "", "corpus directory (default CORPUS_DIR)")
	f.StringVar(&x.GlossaryType, "export-type", "both", "glossary to export: tax, accounting or both")
	f.IntVar(&x.VariationsPerRule, "variations-per-rule", 0, "rule application variations per rule (0 uses the default)")
	f.IntVar(&x.ConversationsPerTemplate, "conversations-per-template", 0, "synthetic conversations per template (0 uses the default)")

	cmd.AddCommand(newValidateCmd(e))
	return cmd
}

func newValidateCmd(e *env) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "check an exported corpus for malformed samples and family leaks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app.App) error {
				target := dir
				if target == "" {
					target = a.Config().CorpusDir
				}
				rep, err := dataset.Validate(target)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Checked %d files, %d samples in %s\n", rep.Files, rep.Samples, target)
				if !rep.OK() {
					for _, issue := range rep.Issues {
						printError(out, "%s", issue)
					}
					return fmt.Errorf("%w: %d issues", ErrValidation, len(rep.Issues))
				}
				printSuccess(out, "corpus is valid")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "corpus directory (default CORPUS_DIR)")
	return cmd
}

func printStats(w io.Writer, stats []dataset.Stats) {
	if len(stats) == 0 {
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATASET\tGENERATED\tDUPLICATES\tQUALITY\tTRAIN\tVAL\tTRAIN FAM\tVAL FAM")
	for _, st := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			st.Name, st.TotalGenerated, st.DuplicatesRemoved, st.QualityIssues,
			st.TrainSamples, st.ValSamples, st.TrainFamilies, st.ValFamilies)
	}
	_ = tw.Flush()

	c := dataset.Combine(stats)
	fmt.Fprintf(w, "\nTotal: %d samples (%d train, %d val)\n", c.TotalSamples, c.TotalTrain, c.TotalVal)
}
