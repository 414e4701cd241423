// Package export writes engine tables as CSV or Excel workbooks.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/gssdash/engine"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for a format other than csv or xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat reads a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case CSV, XLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// RespondentsSheet names the sheet of a respondent export.
const RespondentsSheet = "Respondents"

// Write writes tables in the given format. CSV output separates tables with
// a blank line; XLSX puts each table on its own sheet.
func Write(w io.Writer, format Format, tables ...*engine.TableData) error {
	switch format {
	case CSV:
		return WriteTablesCSV(w, tables...)
	case XLSX:
		return WriteTablesXLSX(w, tables...)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteCSV writes the given columns of every row in view.
func WriteCSV(w io.Writer, view engine.RecordView, columns []string) error {
	return WriteTablesCSV(w, engine.BuildRecordTable(RespondentsSheet, view, columns))
}

// WriteXLSX writes the given columns of every row in view to one sheet.
func WriteXLSX(w io.Writer, view engine.RecordView, columns []string) error {
	return WriteTablesXLSX(w, engine.BuildRecordTable(RespondentsSheet, view, columns))
}

// WriteChartCSV writes a chart's series as rows.
func WriteChartCSV(w io.Writer, cfg *engine.ChartConfig) error {
	return WriteTablesCSV(w, engine.BuildTable(cfg))
}

// ChartTables flattens chart results into one table each, titled by chart.
func ChartTables(results ...*engine.Result) []*engine.TableData {
	tables := make([]*engine.TableData, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		t := engine.BuildTable(r.ChartConfig)
		t.Title = r.Title
		tables = append(tables, t)
	}
	return tables
}

// ============================================================================
// CSV
// ============================================================================

// WriteTablesCSV writes, per table, a header row of column labels and the
// table rows.
func WriteTablesCSV(w io.Writer, tables ...*engine.TableData) error {
	cw := csv.NewWriter(w)
	for i, t := range tables {
		if i > 0 {
			if err := cw.Write(nil); err != nil {
				return err
			}
		}
		header := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			header[j] = c.Label
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// XLSX
// ============================================================================

// maxSheetName is Excel's sheet name length limit.
const maxSheetName = 31

// WriteTablesXLSX writes each table to its own sheet. Number columns are
// stored as numbers; null cells are left unset.
func WriteTablesXLSX(w io.Writer, tables ...*engine.TableData) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	used := map[string]bool{}
	for i, t := range tables {
		name := sheetName(t.Title, i, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeSheet(f, name, t, header); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, t *engine.TableData, headerStyle int) error {
	for j, c := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, c.Label); err != nil {
			return err
		}
	}
	if n := len(t.Columns); n > 0 {
		last, _ := excelize.CoordinatesToCellName(n, 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
		lastCol, _ := excelize.ColumnNumberToName(n)
		if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for j, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(t, j, v)); err != nil {
				return err
			}
		}
	}
	return nil
}

// cellValue converts number-column text to float64.
func cellValue(t *engine.TableData, col int, v string) interface{} {
	if col >= len(t.Columns) || t.Columns[col].Type != "number" {
		return v
	}
	if n, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil {
		return n
	}
	return v
}

// sheetName derives a unique, valid sheet name from a title.
func sheetName(title string, index int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']', '"':
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "Sheet" + strconv.Itoa(index+1)
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	base := name
	for n := 2; used[name]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[name] = true
	return name
}
