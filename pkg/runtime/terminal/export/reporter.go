package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/mattn/go-runewidth"
)

type TableConfig struct {
	NameWidth        int
	ValueWidth       int
	UnitWidth        int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:        30,
		ValueWidth:       16,
		UnitWidth:        6,
		DescriptionWidth: 36,
	}
}

// Reporter renders a report as fixed-width text tables, one per section.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(report *domain.Report) error {
	funcMap := template.FuncMap{
		"formatRow": func(name string, value interface{}, unit string, desc string) string {
			return fmt.Sprintf("| %s | %s | %s | %s |",
				pad(name, c.config.NameWidth),
				pad(formatValue(value), c.config.ValueWidth),
				pad(unit, c.config.UnitWidth),
				pad(desc, c.config.DescriptionWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.UnitWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
		"amount": formatAmount,
	}

	tmpl := `
{{.Title}} ({{.Period.Months}} months)

Period: {{.Period.Start}} to {{.Period.End}}
Transactions: {{.Rows}}
Total Amount: {{amount .TotalAmount}} {{.Currency}}
{{range .Sections}}
=== {{.Title}} ===
{{range $key, $value := .Summary}}{{$key}}: {{$value}}
{{end}}
{{separator}}
{{formatRow "항목" "값" "단위" "설명"}}
{{separator}}
{{range .Details}}{{formatRow .Name .Value .Unit .Description}}
{{end}}{{separator}}
{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}

// cells measures terminal width with a fixed East Asian setting so output does
// not depend on the locale.
var cells = &runewidth.Condition{EastAsianWidth: false, StrictEmojiNeutral: true}

// pad right-pads s to width display cells; Hangul and other wide runes take two.
func pad(s string, width int) string {
	return cells.FillRight(s, width)
}

func displayWidth(s string) int {
	return cells.StringWidth(s)
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return formatAmount(x)
	case int:
		return formatAmount(float64(x))
	default:
		return fmt.Sprint(v)
	}
}

// formatAmount renders whole numbers with thousands separators.
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
