package commands

import (
	"fmt"

	"github.com/de-tools/realty-atlas/pkg/runtime/terminal/export"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type FetchCmd struct {
	provider Provider
	streams  IO
	flags    queryFlags
	output   string
	format   string
}

func NewFetchCmd(p Provider, streams IO) *cobra.Command {
	fc := &FetchCmd{provider: p, streams: streams}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch apartment trades for a region and write them as a table",
		RunE:  fc.run,
	}

	fc.flags.register(cmd)
	cmd.Flags().StringVarP(&fc.output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&fc.format, "format", "f", "", "Output format: csv or xlsx (default from the file extension, else csv)")

	return cmd
}

func (fc *FetchCmd) run(cmd *cobra.Command, _ []string) error {
	format, err := resolveFormat(fc.format, fc.output, export.FormatCSV)
	if err != nil {
		return err
	}
	if format != export.FormatCSV && format != export.FormatXLSX {
		return fmt.Errorf("fetch writes csv or xlsx, not %s", format)
	}

	ctx := cmd.Context()
	exp, err := fc.provider.Explorer(ctx)
	if err != nil {
		return err
	}

	table, err := exp.GetTransactions(ctx, fc.flags.query(), fc.flags.progress(fc.streams.Err))
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Int("rows", table.Len()).Str("region", fc.flags.region).Msg("trades fetched")

	w, closeFn, err := openOutput(fc.output, fc.streams.Out)
	if err != nil {
		return err
	}
	if err := export.Write(w, format, nil, table); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}
