package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"regcorpus/features/catalog"
	"regcorpus/internal/app"
)

func newIngestCmd(e *env) *cobra.Command {
	var (
		filter     catalog.Filter
		bronzeOnly bool
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "fetch sources into the raw layer",
		Long: `Fetch the selected sources into the raw layer and write the ingestion
manifest. Unless --bronze-only is set, every stored source is then parsed
into a structured batch named after the selection.`,
		Example: `  $ regcorpus ingest
  $ regcorpus ingest --domain tax --type law
  $ regcorpus ingest --freq daily --bronze-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Ingest(ctx, filter, bronzeOnly)
				out := cmd.OutOrStdout()
				failed := errors.Join(
					report(out, res.Ingest, "Ingestion", "sources"),
					report(out, res.Transform, "Transform", "sources"),
				)
				if err != nil {
					return err
				}
				if failed != nil {
					return failed
				}
				printSuccess(out, "ingest finished")
				return nil
			})
		},
	}
	addFilterFlags(cmd, &filter)
	cmd.Flags().BoolVar(&bronzeOnly, "bronze-only", false, "stop after the raw layer")
	return cmd
}
