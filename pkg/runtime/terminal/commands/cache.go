package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewCacheCmd(p Provider, streams IO) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Show what the trade cache holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := p.CacheStats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(streams.Out, "months\t%d\n", stats.Months)
			fmt.Fprintf(streams.Out, "records\t%d\n", stats.Records)
			if stats.Oldest != nil {
				fmt.Fprintf(streams.Out, "oldest\t%s\n", stats.Oldest.Format(time.RFC3339))
			}
			return nil
		},
	}
}
