// Package projection narrows a unified table to a fixed, ordered set of
// labelled columns.
package projection

import (
	"github.com/de-tools/realty-atlas/pkg/models/domain"
)

// Output column labels of the default field map.
const (
	ColRegion       = "시도"
	ColSubRegion    = "시군구"
	ColDong         = "법정동"
	ColRoad         = "도로명"
	ColLotNumber    = "지번"
	ColApartment    = "아파트"
	ColBuildYear    = "건축년도"
	ColArea         = "전용면적"
	ColFloor        = "층"
	ColDealYear     = "거래년도"
	ColDealMonth    = "거래월"
	ColDealDay      = "거래일"
	ColDealAmount   = "거래금액"
	ColSerial       = "일련번호"
	ColDealingType  = "거래유형"
	ColAgentRegion  = "중개사소재지"
	ColCancelled    = "해제여부"
	ColCancelledDay = "해제사유발생일"
)

// DefaultFieldMap returns the standard column set for apartment trades.
func DefaultFieldMap() domain.FieldMap {
	return domain.FieldMap{
		{Raw: domain.FieldRegionName, Output: ColRegion},
		{Raw: domain.FieldSubRegionName, Output: ColSubRegion},
		{Raw: domain.RawUmdName, Output: ColDong},
		{Raw: domain.RawRoadName, Output: ColRoad},
		{Raw: domain.RawBonbun, Output: ColLotNumber},
		{Raw: domain.RawAptName, Output: ColApartment},
		{Raw: domain.RawBuildYear, Output: ColBuildYear},
		{Raw: domain.RawExclusiveArea, Output: ColArea},
		{Raw: domain.RawFloor, Output: ColFloor},
		{Raw: domain.RawDealYear, Output: ColDealYear},
		{Raw: domain.RawDealMonth, Output: ColDealMonth},
		{Raw: domain.RawDealDay, Output: ColDealDay},
		{Raw: domain.RawDealAmount, Output: ColDealAmount},
		{Raw: domain.RawAptSeq, Output: ColSerial},
		{Raw: domain.RawDealingGbn, Output: ColDealingType},
		{Raw: domain.RawAgentSggName, Output: ColAgentRegion},
		{Raw: domain.RawCancelType, Output: ColCancelled},
		{Raw: domain.RawCancelDay, Output: ColCancelledDay},
	}
}

// Projector applies a field map validated against a fetcher schema.
type Projector struct {
	fields domain.FieldMap
}

// New validates fm against schema. schema should include the region tag fields
// when fm maps them.
func New(fm domain.FieldMap, schema []string) (*Projector, error) {
	if err := fm.Validate(schema); err != nil {
		return nil, err
	}
	return &Projector{fields: append(domain.FieldMap(nil), fm...)}, nil
}

func (p *Projector) Columns() []string {
	return p.fields.Outputs()
}

// Project builds a new table with one column per mapping, in map order.
func (p *Projector) Project(t *domain.UnifiedTable) (*domain.Table, error) {
	out := &domain.Table{
		Columns: p.fields.Outputs(),
		Rows:    make([][]string, 0, t.Len()),
	}
	for _, row := range t.Rows {
		cells := make([]string, len(p.fields))
		for i, m := range p.fields {
			v, ok := row.Value(m.Raw)
			if !ok {
				return nil, &domain.MissingFieldError{Field: m.Raw}
			}
			cells[i] = v
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// ProjectTable re-projects an already projected table, treating its columns as
// the raw schema.
func ProjectTable(t *domain.Table, fm domain.FieldMap) (*domain.Table, error) {
	if err := fm.Validate(t.Columns); err != nil {
		return nil, err
	}

	idx := make([]int, len(fm))
	for i, m := range fm {
		idx[i] = t.ColumnIndex(m.Raw)
	}

	out := &domain.Table{
		Columns: fm.Outputs(),
		Rows:    make([][]string, len(t.Rows)),
	}
	for r, row := range t.Rows {
		cells := make([]string, len(idx))
		for i, c := range idx {
			if c >= len(row) {
				return nil, &domain.MissingFieldError{Field: fm[i].Raw}
			}
			cells[i] = row[c]
		}
		out.Rows[r] = cells
	}
	return out, nil
}
