package commands

import (
	"fmt"
	"strings"

	"github.com/de-tools/realty-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/realty-atlas/pkg/services/projection"
	"github.com/de-tools/realty-atlas/pkg/services/summary"
	"github.com/spf13/cobra"
)

type SummaryCmd struct {
	provider Provider
	streams  IO
	flags    queryFlags
	by       []string
}

func NewSummaryCmd(p Provider, streams IO) *cobra.Command {
	sc := &SummaryCmd{provider: p, streams: streams}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count trades grouped by one or more columns",
		Long: fmt.Sprintf("Count trades grouped by one or more columns.\n\nBesides the table columns, %s accepts %s.",
			"--by", strings.Join([]string{summary.PeriodColumn, summary.AreaBandColumn, summary.PriceBandColumn}, ", ")),
		RunE: sc.run,
	}

	sc.flags.register(cmd)
	cmd.Flags().StringSliceVar(&sc.by, "by", []string{projection.ColSubRegion}, "Columns to group by")

	return cmd
}

func (sc *SummaryCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	exp, err := sc.provider.Explorer(ctx)
	if err != nil {
		return err
	}

	table, err := exp.GetTransactions(ctx, sc.flags.query(), sc.flags.progress(sc.streams.Err))
	if err != nil {
		return err
	}
	counts, err := exp.Summarize(ctx, table, sc.by)
	if err != nil {
		return err
	}
	return export.WriteCounts(sc.streams.Out, counts)
}
