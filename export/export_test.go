package export

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/gssdash/engine"
	"github.com/spektr-org/gssdash/gss"
)

func agreementResult() *engine.Result {
	return &engine.Result{
		Success: true,
		Type:    "chart",
		Title:   `Level of Agreement with "Male Breadwinner" Statement`,
		Count:   6,
		ChartConfig: &engine.ChartConfig{
			ChartType:   engine.KindHistogram,
			XAxis:       "Level of Agreement",
			LegendTitle: "Sex",
			Categories:  []string{"agree", "disagree"},
			Series: []engine.ChartSeries{
				{Name: "male", Data: []engine.ChartPoint{{Label: "agree", Value: 3}, {Label: "disagree", Value: 1}}},
				{Name: "female", Data: []engine.ChartPoint{{Label: "agree", Value: 0}, {Label: "disagree", Value: 2}}},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, XLSX, f)
	assert.Contains(t, f.ContentType(), "spreadsheetml")

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteCSV_ChartTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, CSV, ChartTables(agreementResult())...))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"Sex,Level of Agreement,Count",
		"male,agree,3",
		"male,disagree,1",
		"female,agree,0",
		"female,disagree,2",
	}, lines)
}

func TestWriteCSV_SeparatesTables(t *testing.T) {
	a := &engine.TableData{Columns: []engine.Column{{Label: "a"}}, Rows: [][]string{{"1"}}}
	b := &engine.TableData{Columns: []engine.Column{{Label: "b"}}, Rows: [][]string{{"2"}}}

	var buf bytes.Buffer
	require.NoError(t, WriteTablesCSV(&buf, a, b))
	assert.Equal(t, "a\n1\n\nb\n2\n", buf.String())
}

func TestWriteXLSX_SheetsAndNumbers(t *testing.T) {
	res := agreementResult()
	dup := agreementResult()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, XLSX, ChartTables(res, dup)...))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 2)
	assert.Equal(t, "Level of Agreement with Male Br", sheets[0])
	assert.Equal(t, "Level of Agreement with Mal (2)", sheets[1])

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Sex", "Level of Agreement", "Count"}, rows[0])
	assert.Equal(t, []string{"male", "agree", "3"}, rows[1])

	typ, err := f.GetCellType(sheets[0], "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "Sheet1", sheetName("  ", 0, used))
	assert.Equal(t, "ab c", sheetName("a/b [c]", 1, used))
	assert.Equal(t, "Sheet1 (2)", sheetName("", 0, used))
}

func respondents() engine.RecordView {
	return gss.View([]gss.Respondent{
		{ID: 1, Sex: gss.Male, Region: "pacific", Income: sql.NullFloat64{Float64: 50000, Valid: true}},
		{ID: 2, Sex: gss.Female, Region: "new england"},
	})
}

func TestWriteCSV_Respondents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, respondents(), []string{gss.FieldID, gss.FieldSex, gss.FieldRegion, gss.FieldIncome}))
	assert.Equal(t, "Id,Sex,Region,Income\n1,male,pacific,50000\n2,female,new england,\n", buf.String())
}

func TestWriteXLSX_Respondents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, respondents(), []string{gss.FieldID, gss.FieldIncome}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{RespondentsSheet}, f.GetSheetList())
	rows, err := f.GetRows(RespondentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Id", "Income"}, rows[0])
	assert.Equal(t, []string{"1", "50000"}, rows[1])
	assert.Equal(t, "2", rows[2][0])
}

func TestWriteChartCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChartCSV(&buf, agreementResult().ChartConfig))
	assert.True(t, strings.HasPrefix(buf.String(), "Sex,Level of Agreement,Count\nmale,agree,3\n"))
}
