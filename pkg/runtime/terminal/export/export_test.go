package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() *domain.Table {
	return &domain.Table{
		Columns: []string{"시군구", "아파트", "거래금액"},
		Rows: [][]string{
			{"강남구", "래미안, 대치", "250,000"},
			{"송파구", "헬리오시티", "180,000"},
		},
	}
}

func sampleReport() *domain.Report {
	counts := &domain.CountTable{
		Dimensions: []string{"시군구"},
		Rows: []domain.CountRow{
			{Keys: []string{"강남구"}, Count: 1},
			{Keys: []string{"송파구"}, Count: 1},
		},
	}
	return &domain.Report{
		Title: "서울특별시 아파트 매매 실거래가 분석",
		Period: domain.ReportPeriod{
			Start:  domain.Period{Year: 2023, Month: 1},
			End:    domain.Period{Year: 2023, Month: 3},
			Months: 3,
		},
		Rows:        2,
		TotalAmount: 430000,
		Currency:    "만원",
		Sections: []domain.ReportSection{
			{
				Title:   "개요",
				Summary: map[string]interface{}{"거래 건수": 2},
				Details: []domain.ReportDetail{{Name: "거래금액 합계", Value: 430000.0, Unit: "만원"}},
			},
			{
				Title:   "시군구별 거래량",
				Summary: map[string]interface{}{"합계": 2},
				Details: []domain.ReportDetail{
					{Name: "강남구", Value: 1, Unit: "건"},
					{Name: "송파구", Value: 1, Unit: "건"},
				},
				Counts: counts,
			},
		},
	}
}

func TestReporter_Handle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).Handle(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "서울특별시 아파트 매매 실거래가 분석 (3 months)")
	assert.Contains(t, out, "Period: 202301 to 202303")
	assert.Contains(t, out, "Total Amount: 430,000 만원")
	assert.Contains(t, out, "=== 시군구별 거래량 ===")
	assert.Contains(t, out, "| 거래금액 합계")
	assert.Contains(t, out, "430,000")
}

func TestPad(t *testing.T) {
	assert.Equal(t, "강남구    ", pad("강남구", 10))
	assert.Equal(t, "ab  ", pad("ab", 4))
	assert.Equal(t, "abcdef", pad("abcdef", 3))
	assert.Equal(t, "60㎡ 이하  ", pad("60㎡ 이하", 11))
	assert.Equal(t, "e\u0301  ", pad("e\u0301", 3), "combining marks take no cell")
	assert.Equal(t, "👍 ", pad("👍", 3))
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		82500:    "82,500",
		1234567:  "1,234,567",
		-45000.4: "-45,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatAmount(in))
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"시군구", "아파트", "거래금액"},
		{"강남구", "래미안, 대치", "250,000"},
		{"송파구", "헬리오시티", "180,000"},
	}, records)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleTable(), sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DataSheet, "시군구별 거래량"}, f.GetSheetList())

	header, err := f.GetCellValue(DataSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "아파트", header)

	amount, err := f.GetCellValue(DataSheet, "C2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "250000", amount)

	count, err := f.GetCellValue("시군구별 거래량", "B3")
	require.NoError(t, err)
	assert.Equal(t, "1", count)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleReport(), sampleTable()))

	out := buf.String()
	assert.Contains(t, out, "<title>서울특별시 아파트 매매 실거래가 분석</title>")
	assert.Equal(t, 1, strings.Count(out, `src="data:image/png;base64,`))
	assert.Contains(t, out, "<td>헬리오시티</td>")
	assert.Contains(t, out, "<td>430,000</td>")
	assert.Contains(t, out, "<th>#</th>")
	assert.Contains(t, out, "<td>1</td><td>강남구</td>")
	assert.Contains(t, out, "<tr><td>거래금액 합계</td>", "sections without a chart stay unnumbered")
}

func TestBarChartPNG(t *testing.T) {
	png, err := BarChartPNG("시군구별 거래량", sampleReport().Sections[1].Counts)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = BarChartPNG("empty", &domain.CountTable{})
	assert.Error(t, err)
}

func TestChartLabels(t *testing.T) {
	labels, numbered := chartLabels(sampleReport().Sections[1].Counts)
	assert.True(t, numbered)
	assert.Equal(t, []string{"1", "2"}, labels)

	labels, numbered = chartLabels(&domain.CountTable{
		Dimensions: []string{"거래년월"},
		Rows: []domain.CountRow{
			{Keys: []string{"2023-01"}, Count: 3},
			{Keys: []string{"2023-02"}, Count: 1},
		},
	})
	assert.False(t, numbered)
	assert.Equal(t, []string{"2023-01", "2023-02"}, labels)
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)

	assert.Equal(t, FormatCSV, FormatFromPath("out/trades.csv", FormatText))
	assert.Equal(t, FormatText, FormatFromPath("out/trades", FormatText))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleReport(), sampleTable()))
	assert.Contains(t, buf.String(), "헬리오시티")
}

func TestWriteCounts(t *testing.T) {
	counts := &domain.CountTable{
		Dimensions: []string{"시군구"},
		Rows: []domain.CountRow{
			{Keys: []string{"강남구"}, Count: 1200},
			{Keys: []string{"송파구"}, Count: 3},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCounts(&buf, counts))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "시군구  건수", lines[0])
	assert.Equal(t, "------  -----", lines[1])
	assert.Equal(t, "강남구  1,200", lines[2])
	assert.Equal(t, "송파구  3", lines[3])
	assert.Equal(t, "합계 1,203건", lines[4])
}
