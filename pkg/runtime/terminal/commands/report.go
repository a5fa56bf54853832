package commands

import (
	"github.com/de-tools/realty-atlas/pkg/runtime/terminal/export"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ReportCmd struct {
	provider Provider
	streams  IO
	flags    queryFlags
	output   string
	format   string
}

func NewReportCmd(p Provider, streams IO) *cobra.Command {
	rc := &ReportCmd{provider: p, streams: streams}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a trade report for a region and period",
		RunE:  rc.run,
	}

	rc.flags.register(cmd)
	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&rc.format, "format", "f", "",
		"Output format: text, csv, xlsx or html (default from the file extension, else text)")

	return cmd
}

func (rc *ReportCmd) run(cmd *cobra.Command, _ []string) error {
	format, err := resolveFormat(rc.format, rc.output, export.FormatText)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	exp, err := rc.provider.Explorer(ctx)
	if err != nil {
		return err
	}

	q := rc.flags.query()
	table, err := exp.GetTransactions(ctx, q, rc.flags.progress(rc.streams.Err))
	if err != nil {
		return err
	}
	report, err := exp.BuildReport(ctx, q, table)
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(rc.output, rc.streams.Out)
	if err != nil {
		return err
	}
	if err := export.Write(w, format, report, table); err != nil {
		_ = closeFn()
		return err
	}
	if rc.output != "" {
		zerolog.Ctx(ctx).Info().Str("path", rc.output).Str("format", string(format)).Msg("report written")
	}
	return closeFn()
}
