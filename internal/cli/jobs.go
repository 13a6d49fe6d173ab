package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"regcorpus/internal/app"
)

func newJobsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "inspect and retry failed items",
	}
	cmd.AddCommand(newJobsListCmd(e), newJobsRetryCmd(e))
	return cmd
}

func newJobsListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list failed items recorded by the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app.App) error {
				if a.Jobs == nil {
					return ErrLedgerDisabled
				}
				jobs, err := a.Jobs.List(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				tw := newTable(out)
				fmt.Fprintln(tw, "ID\tSTAGE\tITEM\tRETRIES\tCREATED\tERROR")
				for _, j := range jobs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
						j.ID, j.Stage, j.SourceID, j.Retries, j.CreatedAt.Format(time.RFC3339), j.Error)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%d failed items\n", len(jobs))
				return nil
			})
		},
	}
}

func newJobsRetryCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "retry <id>",
		Short:   "re-run the stage for one failed item",
		Example: `  $ regcorpus jobs retry 3f0c9a52-5d0e-4c38-9d7e-0b6f1f1d2a11`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app.App) error {
				if a.Jobs == nil {
					return ErrLedgerDisabled
				}
				if err := a.Jobs.Retry(ctx, args[0]); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "retried %s", args[0])
				return nil
			})
		},
	}
}
