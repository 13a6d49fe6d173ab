package cli

import (
	"context"

	"github.com/spf13/cobra"

	"regcorpus/internal/app"
)

func newProcessCmd(e *env) *cobra.Command {
	var opts app.ProcessOptions
	cmd := &cobra.Command{
		Use:   "process [source-id...]",
		Short: "parse staged raw payloads into a structured batch",
		Long: `Parse raw payloads into one structured batch. Explicit source ids take
precedence over the selection flags. --changed-only keeps only sources the
last ingest marked as changed.`,
		Example: `  $ regcorpus process
  $ regcorpus process --domain tax --batch tax_laws
  $ regcorpus process --changed-only
  $ regcorpus process mva-loven`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.IDs = args
			return e.run(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Process(ctx, opts)
				out := cmd.OutOrStdout()
				failed := report(out, res, "Transform", "sources")
				if err != nil {
					return err
				}
				if failed != nil {
					return failed
				}
				printSuccess(out, "process finished")
				return nil
			})
		},
	}
	addFilterFlags(cmd, &opts.Filter)
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "structured batch name (default derived from the selection)")
	cmd.Flags().BoolVar(&opts.ChangedOnly, "changed-only", false, "only sources marked changed by the last ingest")
	return cmd
}
