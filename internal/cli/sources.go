package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"regcorpus/features/catalog"
	"regcorpus/internal/app"
)

func addFilterFlags(cmd *cobra.Command, f *catalog.Filter) {
	cmd.Flags().StringVar(&f.Domain, "domain", "", "only sources in this domain (tax, accounting, ...)")
	cmd.Flags().StringVar(&f.Kind, "type", "", "only sources of this type (law, regulation, rules, ...)")
	cmd.Flags().StringVar(&f.CrawlFrequency, "freq", "", "only sources with this crawl frequency")
	cmd.Flags().StringVar(&f.Publisher, "publisher", "", "only sources from this publisher")
}

func newSourcesCmd(e *env) *cobra.Command {
	var filter catalog.Filter
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "list registered sources",
		Example: `  $ regcorpus sources
  $ regcorpus sources --domain tax --type law`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, a *app.App) error {
				cat, rowErrs, err := a.Catalog()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, re := range rowErrs {
					printWarning(out, "%v", re)
				}

				selected := cat.Select(filter)
				tw := newTable(out)
				fmt.Fprintln(tw, "ID\tDOMAIN\tTYPE\tPUBLISHER\tFREQ\tURL")
				for _, s := range selected {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Domain, s.Kind, s.Publisher, s.CrawlFrequency, s.URL)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%d of %d sources\n", len(selected), cat.Len())
				return nil
			})
		},
	}
	addFilterFlags(cmd, &filter)
	return cmd
}
