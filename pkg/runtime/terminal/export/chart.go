package export

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 4 * vg.Inch
)

var barColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// BarChartPNG draws one bar per count row and returns the encoded PNG.
func BarChartPNG(title string, counts *domain.CountTable) ([]byte, error) {
	if counts == nil || len(counts.Rows) == 0 {
		return nil, fmt.Errorf("chart %q: no data", title)
	}

	// The section heading around the image carries the title.
	p := plot.New()
	p.Y.Label.Text = "count"

	values := make(plotter.Values, len(counts.Rows))
	for i, r := range counts.Rows {
		values[i] = float64(r.Count)
	}
	labels, _ := chartLabels(counts)

	width := vg.Points(math.Max(4, math.Min(40, 480/float64(len(values)))))
	bars, err := plotter.NewBarChart(values, width)
	if err != nil {
		return nil, fmt.Errorf("chart %q: %w", title, err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	p.NominalX(labels...)
	if len(labels) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	p.Y.Min = 0

	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("chart %q: %w", title, err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

// chartLabels returns the x tick labels. The built-in plot font only covers
// Latin-1, so when any key falls outside it the rows are numbered from 1 and
// numbered reports true.
func chartLabels(counts *domain.CountTable) (labels []string, numbered bool) {
	labels = make([]string, len(counts.Rows))
	for i, r := range counts.Rows {
		labels[i] = strings.Join(r.Keys, " ")
		numbered = numbered || !latin1(labels[i])
	}
	if numbered {
		for i := range labels {
			labels[i] = strconv.Itoa(i + 1)
		}
	}
	return labels, numbered
}

func latin1(s string) bool {
	for _, r := range s {
		if r > unicode.MaxLatin1 {
			return false
		}
	}
	return true
}
