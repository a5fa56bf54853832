package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/xuri/excelize/v2"
)

const (
	DataSheet     = "거래내역"
	maxSheetName  = 31
	dataColWidth  = 14
	countColWidth = 20
)

// WriteXLSX writes the table to the data sheet and each count section of the
// report, when given, to a sheet of its own.
func WriteXLSX(w io.Writer, t *domain.Table, report *domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSheet(f, DataSheet, t.Columns, t.Rows, dataColWidth); err != nil {
		return err
	}

	if report != nil {
		for _, s := range report.Sections {
			if s.Counts == nil {
				continue
			}
			name := sheetName(s.Title)
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("create sheet %q: %w", name, err)
			}

			header := append(append([]string(nil), s.Counts.Dimensions...), "거래 건수")
			rows := make([][]string, len(s.Counts.Rows))
			for i, r := range s.Counts.Rows {
				rows[i] = append(append([]string(nil), r.Keys...), fmt.Sprint(r.Count))
			}
			if err := writeSheet(f, name, header, rows, countColWidth); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// writeSheet stores numeric-looking cells as numbers so spreadsheets can sum them.
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, width float64) error {
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
	}
	if len(header) > 0 {
		last, _ := excelize.ColumnNumberToName(len(header))
		if err := f.SetColWidth(sheet, "A", last, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			var value interface{} = v
			if n, err := domain.ParseNumber(v); err == nil {
				value = n
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, title)
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}
