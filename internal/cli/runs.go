package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"regcorpus/internal/app"
)

func newRunsCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "list recorded stage runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app.App) error {
				if a.Runs == nil {
					return ErrLedgerDisabled
				}
				runs, err := a.Runs.List(ctx, limit)
				if err != nil {
					return err
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tRUN\tSTAGE\tSUCCESS\tTOTAL\tPROCESSED\tFAILED\tSTARTED\tELAPSED")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%d\t%d\t%s\t%s\n",
						r.ID, r.RunID, r.Stage, r.Success, r.TotalItems, r.ProcessedItems, r.FailedItems,
						r.StartedAt.Format(time.RFC3339), r.Elapsed.Round(time.Millisecond))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs (0 lists all)")
	return cmd
}
