package adapters

import (
	"github.com/de-tools/realty-atlas/pkg/models/api"
	"github.com/de-tools/realty-atlas/pkg/models/domain"
)

func MapDomainTableToAPI(t *domain.Table) api.Table {
	rows := t.Rows
	if rows == nil {
		rows = [][]string{}
	}
	return api.Table{Columns: t.Columns, Rows: rows, Count: t.Len()}
}

func MapDomainCountTableToAPI(c *domain.CountTable) api.CountTable {
	out := api.CountTable{
		Dimensions: c.Dimensions,
		Rows:       make([]api.CountRow, len(c.Rows)),
		Total:      c.Total(),
	}
	for i, r := range c.Rows {
		out.Rows[i] = api.CountRow{Keys: r.Keys, Count: r.Count}
	}
	return out
}

func MapDomainReportToAPI(r *domain.Report) api.Report {
	out := api.Report{
		Title:       r.Title,
		Region:      r.Region,
		From:        r.Period.Start.String(),
		To:          r.Period.End.String(),
		Months:      r.Period.Months,
		Rows:        r.Rows,
		TotalAmount: r.TotalAmount,
		Currency:    r.Currency,
		GeneratedAt: r.GeneratedAt,
		Sections:    make([]api.ReportSection, len(r.Sections)),
	}
	for i, s := range r.Sections {
		section := api.ReportSection{
			Title:   s.Title,
			Summary: s.Summary,
			Details: make([]api.ReportDetail, len(s.Details)),
		}
		for j, d := range s.Details {
			section.Details[j] = api.ReportDetail{Name: d.Name, Value: d.Value, Unit: d.Unit, Description: d.Description}
		}
		if s.Counts != nil {
			counts := MapDomainCountTableToAPI(s.Counts)
			section.Counts = &counts
		}
		out.Sections[i] = section
	}
	return out
}
