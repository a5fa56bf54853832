package export

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"io"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>{{.Report.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
h2 { color: #333; }
table { border-collapse: collapse; width: 100%; margin: 10px 0; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
img { max-width: 100%; height: auto; }
</style>
</head>
<body>
<h1>{{.Report.Title}}</h1>
<p>{{.Report.Period.Start}} ~ {{.Report.Period.End}} ({{.Report.Period.Months}}개월), 거래 {{.Report.Rows}}건</p>
{{range .Sections}}
<h2>{{.Title}}</h2>
{{if .Chart}}<img src="{{.Chart}}" alt="{{.Title}}">{{end}}
<table>
{{$numbered := .Numbered}}<tr>{{if $numbered}}<th>#</th>{{end}}<th>항목</th><th>값</th><th>단위</th></tr>
{{range $i, $d := .Details}}<tr>{{if $numbered}}<td>{{inc $i}}</td>{{end}}<td>{{$d.Name}}</td><td>{{value $d.Value}}</td><td>{{$d.Unit}}</td></tr>
{{end}}</table>
{{end}}
{{if .Table}}
<h2>거래 내역</h2>
<table>
<tr>{{range .Table.Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Table.Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
{{end}}
</body>
</html>
`

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"value": formatValue,
	"inc":   func(i int) int { return i + 1 },
}).Parse(htmlTemplate))

type htmlSection struct {
	Title    string
	Chart    template.URL
	Numbered bool
	Details  []domain.ReportDetail
}

type htmlPage struct {
	Report   *domain.Report
	Sections []htmlSection
	Table    *domain.Table
}

// WriteHTML renders the report as a standalone page with one bar chart per
// count section. table may be nil to omit the transaction listing.
func WriteHTML(w io.Writer, report *domain.Report, table *domain.Table) error {
	page := htmlPage{Report: report, Table: table}
	for _, s := range report.Sections {
		hs := htmlSection{Title: s.Title, Details: s.Details}
		if s.Counts != nil && len(s.Counts.Rows) > 0 {
			png, err := BarChartPNG(s.Title, s.Counts)
			if err != nil {
				return err
			}
			hs.Chart = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
			_, hs.Numbered = chartLabels(s.Counts)
		}
		page.Sections = append(page.Sections, hs)
	}

	if err := htmlReport.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return nil
}
