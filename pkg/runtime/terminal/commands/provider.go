package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/realty-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/realty-atlas/pkg/services/aggregation"
	"github.com/de-tools/realty-atlas/pkg/services/explorer"
	duckdbtrades "github.com/de-tools/realty-atlas/pkg/store/duckdb/trades"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Provider hands commands the services they run against.
type Provider interface {
	Explorer(ctx context.Context) (explorer.Explorer, error)
	Directory() (explorer.Directory, error)
	CacheStats(ctx context.Context) (*duckdbtrades.Stats, error)
}

// IO carries the streams a command writes to.
type IO struct {
	Out io.Writer
	Err io.Writer
}

type queryFlags struct {
	region string
	from   string
	to     string
	quiet  bool
}

func (qf *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&qf.region, "region", "r", "", "Region name (e.g. 서울특별시, or 전국 for nationwide)")
	cmd.Flags().StringVar(&qf.from, "from", "", "First contract month, YYYYMM")
	cmd.Flags().StringVar(&qf.to, "to", "", "Last contract month, YYYYMM")
	cmd.Flags().BoolVarP(&qf.quiet, "quiet", "q", false, "Do not show the progress bar")

	_ = cmd.MarkFlagRequired("region")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func (qf *queryFlags) query() explorer.Query {
	return explorer.Query{Region: qf.region, From: qf.from, To: qf.to}
}

// progress returns a callback drawing a bar sized on the first event, or nil when quiet.
func (qf *queryFlags) progress(w io.Writer) func(aggregation.Progress) {
	if qf.quiet {
		return nil
	}

	var bar *progressbar.ProgressBar
	return func(p aggregation.Progress) {
		if bar == nil {
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionOnCompletion(func() {
					_, _ = fmt.Fprintln(w)
				}),
			)
		}
		bar.Describe(p.SubRegion)
		_ = bar.Set(p.Completed)
	}
}

// openOutput returns stdout for an empty path; the caller closes the writer.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// resolveFormat prefers an explicit flag, then the output file extension.
func resolveFormat(flag, path string, def export.Format) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	return export.FormatFromPath(path, def), nil
}
