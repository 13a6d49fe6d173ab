package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"regcorpus/internal/app"
	"regcorpus/internal/worker"
)

func newWatchCmd(e *env) *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "transform sources as raw-changed events arrive",
		Long: `Subscribe to raw-changed events on nsqd and parse each changed source into
its own structured batch. Runs until interrupted. Requires NSQD_HOST.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app.App) error {
				addr := a.Config().NSQDHost
				if addr == "" {
					return errors.New("watch requires NSQD_HOST")
				}
				h := worker.NewRawChangedConsumer(a, a.Logger())
				return worker.Consume(ctx, addr, channel, h, a.Logger())
			})
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "regcorpus", "nsq channel name")
	return cmd
}
