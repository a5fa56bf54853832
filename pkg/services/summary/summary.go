// Package summary derives grouped counts and bucket labels from projected tables.
package summary

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
)

// Columns appended by DerivePeriod and Bucketize in the standard analysis.
const (
	PeriodColumn    = "거래년월"
	AreaBandColumn  = "면적대"
	PriceBandColumn = "가격대"
)

// AreaBuckets bands exclusive area in square metres.
func AreaBuckets() domain.BucketSet {
	return domain.BucketSet{
		{Lo: 0, Hi: 60, Label: "60㎡ 이하"},
		{Lo: 60, Hi: 85, Label: "60~85㎡"},
		{Lo: 85, Hi: 102, Label: "85~102㎡"},
		{Lo: 102, Hi: 135, Label: "102~135㎡"},
		{Lo: 135, Hi: math.Inf(1), Label: "135㎡ 초과"},
	}
}

// PriceBuckets bands deal amounts given in 만원.
func PriceBuckets() domain.BucketSet {
	return domain.BucketSet{
		{Lo: 0, Hi: 30000, Label: "3억 미만"},
		{Lo: 30000, Hi: 60000, Label: "3억~6억"},
		{Lo: 60000, Hi: 90000, Label: "6억~9억"},
		{Lo: 90000, Hi: 150000, Label: "9억~15억"},
		{Lo: 150000, Hi: math.Inf(1), Label: "15억 이상"},
	}
}

// SummarizeBy counts rows per distinct tuple of dims.
func SummarizeBy(t *domain.Table, dims ...string) (*domain.CountTable, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("at least one dimension is required")
	}

	idx, err := columns(t, dims)
	if err != nil {
		return nil, err
	}

	out := &domain.CountTable{Dimensions: append([]string(nil), dims...)}
	pos := make(map[string]int)
	for _, row := range t.Rows {
		keys := make([]string, len(idx))
		for i, c := range idx {
			keys[i] = row[c]
		}

		id := strings.Join(keys, "\x00")
		if p, ok := pos[id]; ok {
			out.Rows[p].Count++
			continue
		}
		pos[id] = len(out.Rows)
		out.Rows = append(out.Rows, domain.CountRow{Keys: keys, Count: 1})
	}

	out.Sort()
	return out, nil
}

// Bucketize appends labelColumn holding the bucket of each row's field value.
// Rows whose value is missing or not numeric are dropped and counted.
func Bucketize(t *domain.Table, field string, buckets domain.BucketSet, labelColumn string) (*domain.Table, int, error) {
	if err := buckets.Validate(); err != nil {
		return nil, 0, err
	}
	src := t.ColumnIndex(field)
	if src < 0 {
		return nil, 0, &domain.MissingFieldError{Field: field}
	}
	if t.ColumnIndex(labelColumn) >= 0 {
		return nil, 0, fmt.Errorf("column %q already exists", labelColumn)
	}

	out := &domain.Table{
		Columns: append(append([]string(nil), t.Columns...), labelColumn),
		Rows:    make([][]string, 0, len(t.Rows)),
	}
	dropped := 0
	for _, row := range t.Rows {
		v, err := domain.ParseNumber(row[src])
		if err != nil {
			dropped++
			continue
		}
		out.Rows = append(out.Rows, appendCell(row, buckets.Classify(v)))
	}
	return out, dropped, nil
}

// DerivePeriod appends out holding YYYY-MM built from the year and month
// columns. Rows without a valid year and month are dropped and counted.
func DerivePeriod(t *domain.Table, yearCol, monthCol, out string) (*domain.Table, int, error) {
	idx, err := columns(t, []string{yearCol, monthCol})
	if err != nil {
		return nil, 0, err
	}
	if t.ColumnIndex(out) >= 0 {
		return nil, 0, fmt.Errorf("column %q already exists", out)
	}

	res := &domain.Table{
		Columns: append(append([]string(nil), t.Columns...), out),
		Rows:    make([][]string, 0, len(t.Rows)),
	}
	dropped := 0
	for _, row := range t.Rows {
		year, errY := strconv.Atoi(strings.TrimSpace(row[idx[0]]))
		month, errM := strconv.Atoi(strings.TrimSpace(row[idx[1]]))
		if errY != nil || errM != nil || year < 1 || month < 1 || month > 12 {
			dropped++
			continue
		}
		res.Rows = append(res.Rows, appendCell(row, fmt.Sprintf("%04d-%02d", year, month)))
	}
	return res, dropped, nil
}

// OrderByLabels reorders a single-dimension count table to follow labels;
// keys not in labels keep their relative order at the end.
func OrderByLabels(c *domain.CountTable, labels []string) *domain.CountTable {
	rank := make(map[string]int, len(labels))
	for i, l := range labels {
		rank[l] = i
	}

	out := &domain.CountTable{Dimensions: c.Dimensions, Rows: make([]domain.CountRow, 0, len(c.Rows))}
	var rest []domain.CountRow
	slots := make([]*domain.CountRow, len(labels))
	for i := range c.Rows {
		r := c.Rows[i]
		if p, ok := rank[r.Keys[0]]; ok {
			slots[p] = &r
			continue
		}
		rest = append(rest, r)
	}
	for _, s := range slots {
		if s != nil {
			out.Rows = append(out.Rows, *s)
		}
	}
	out.Rows = append(out.Rows, rest...)
	return out
}

func columns(t *domain.Table, names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = t.ColumnIndex(name)
		if idx[i] < 0 {
			return nil, &domain.MissingFieldError{Field: name}
		}
	}
	return idx, nil
}

func appendCell(row []string, v string) []string {
	out := make([]string, len(row), len(row)+1)
	copy(out, row)
	return append(out, v)
}
