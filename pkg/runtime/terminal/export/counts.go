package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
)

const (
	countHeader = "건수"
	countUnit   = "건"
)

// WriteCounts renders a count table as an aligned text grid with a total line.
func WriteCounts(w io.Writer, counts *domain.CountTable) error {
	header := append(append([]string(nil), counts.Dimensions...), countHeader)
	rows := make([][]string, 0, len(counts.Rows)+1)
	for _, r := range counts.Rows {
		rows = append(rows, append(append([]string(nil), r.Keys...), formatAmount(float64(r.Count))))
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = displayWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}

	var b strings.Builder
	line := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(cells)-1 {
				b.WriteString(cell)
				continue
			}
			b.WriteString(pad(cell, widths[i]))
		}
		b.WriteString("\n")
	}

	line(header)
	seps := make([]string, len(widths))
	for i, wd := range widths {
		seps[i] = strings.Repeat("-", wd)
	}
	line(seps)
	for _, row := range rows {
		line(row)
	}
	fmt.Fprintf(&b, "합계 %s%s\n", formatAmount(float64(counts.Total())), countUnit)

	_, err := io.WriteString(w, b.String())
	return err
}
