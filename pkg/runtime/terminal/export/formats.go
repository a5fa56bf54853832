package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
)

type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatCSV, FormatXLSX, FormatHTML:
		return f, nil
	case "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// FormatFromPath picks a format from the file extension, falling back to def.
func FormatFromPath(path string, def Format) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return def
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write renders the report and its table in format f. CSV carries only the table.
func Write(w io.Writer, f Format, report *domain.Report, table *domain.Table) error {
	switch f {
	case FormatText:
		return NewReporter(w).Handle(report)
	case FormatCSV:
		return WriteCSV(w, table)
	case FormatXLSX:
		return WriteXLSX(w, table, report)
	case FormatHTML:
		return WriteHTML(w, report, table)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}
