package dataset

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/spektr-org/gssdash/gss"
	"github.com/spektr-org/gssdash/schema"
)

// ============================================================================
// CSV PARSER — UTF-8 survey CSV → []gss.Respondent
// ============================================================================
// Columns are located by header name through gss.Schema; everything else in
// the file is ignored. Null tokens become invalid sql.Null values or empty
// enums. Every cell that fails to coerce is reported, not just the first.
// ============================================================================

var (
	errRequired  = errors.New("value required")
	errNotWhole  = errors.New("not a whole number")
	errNotFinite = errors.New("not a finite number")
)

// ParseCSV reads UTF-8 CSV text into respondents.
// A header without every schema column yields a *LoadError; cell coercion
// failures are combined (multierr) into one error of *ParseError values.
// No respondents are returned alongside an error.
func ParseCSV(r io.Reader) ([]gss.Respondent, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, &LoadError{Source: "csv", Err: fmt.Errorf("read header: %w", err)}
	}

	positions, err := gss.Schema.ResolveHeader(header)
	if err != nil {
		var missing *schema.MissingColumnsError
		if errors.As(err, &missing) {
			return nil, &LoadError{Source: "csv", Err: err}
		}
		return nil, err
	}

	var (
		respondents []gss.Respondent
		errs        error
	)
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Source: "csv", Err: fmt.Errorf("row %d: %w", row, err)}
		}

		p := rowParser{row: row, record: record, positions: positions}
		r := p.respondent()
		if p.errs != nil {
			errs = multierr.Append(errs, p.errs)
			continue
		}
		respondents = append(respondents, r)
	}

	if errs != nil {
		return nil, errs
	}
	return respondents, nil
}

// ============================================================================
// ROW PARSER
// ============================================================================

type rowParser struct {
	row       int
	record    []string
	positions map[string]int
	errs      error
}

func (p *rowParser) respondent() gss.Respondent {
	r := gss.Respondent{
		ID:     p.requiredInt("id"),
		Weight: p.requiredFloat("wtss"),
		Region: p.text("region"),

		Education:          p.nullInt("educ"),
		Age:                p.age("age"),
		Income:             p.nullFloat("coninc"),
		JobPrestige:        p.nullFloat("prestg10"),
		MotherJobPrestige:  p.nullFloat("mapres10"),
		FatherJobPrestige:  p.nullFloat("papres10"),
		SocioeconomicIndex: p.nullFloat("sei10"),

		Sex:    parseEnum(p, "sex", gss.ParseSex),
		SatJob: parseEnum(p, "satjob", gss.ParseJobSatisfaction),

		Relationship:    parseEnum(p, "fechld", gss.ParseAgreement),
		MaleBreadwinner: parseEnum(p, "fefam", gss.ParseAgreement),
		MenBetterSuited: parseEnum(p, "fepol", gss.ParseAgreement),
		ChildSuffer:     parseEnum(p, "fepresch", gss.ParseAgreement),
		MenOverwork:     parseEnum(p, "meovrwrk", gss.ParseAgreement),
	}
	r.EducationCat = gss.EducationCategory(r.Education)
	return r
}

// cell returns the raw value of a source column and whether it is null.
func (p *rowParser) cell(column string) (string, bool) {
	i := p.positions[column]
	if i >= len(p.record) {
		return "", true
	}
	raw := p.record[i]
	return raw, gss.Schema.IsNull(raw)
}

func (p *rowParser) fail(column, value string, err error) {
	p.errs = multierr.Append(p.errs, &ParseError{Row: p.row, Column: column, Value: value, Err: err})
}

func (p *rowParser) text(column string) string {
	raw, null := p.cell(column)
	if null {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

func (p *rowParser) nullFloat(column string) sql.NullFloat64 {
	raw, null := p.cell(column)
	if null {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		p.fail(column, raw, err)
		return sql.NullFloat64{}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		p.fail(column, raw, errNotFinite)
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func (p *rowParser) nullInt(column string) sql.NullInt64 {
	f := p.nullFloat(column)
	if !f.Valid {
		return sql.NullInt64{}
	}
	if f.Float64 != math.Trunc(f.Float64) {
		raw, _ := p.cell(column)
		p.fail(column, raw, errNotWhole)
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f.Float64), Valid: true}
}

func (p *rowParser) requiredFloat(column string) float64 {
	raw, null := p.cell(column)
	if null {
		p.fail(column, raw, errRequired)
		return 0
	}
	return p.nullFloat(column).Float64
}

func (p *rowParser) requiredInt(column string) int {
	raw, null := p.cell(column)
	if null {
		p.fail(column, raw, errRequired)
		return 0
	}
	return int(p.nullInt(column).Int64)
}

// age maps the top-code token before numeric coercion.
func (p *rowParser) age(column string) sql.NullFloat64 {
	raw, null := p.cell(column)
	if null {
		return sql.NullFloat64{}
	}
	if strings.EqualFold(strings.TrimSpace(raw), gss.AgeTopCode) {
		return sql.NullFloat64{Float64: gss.AgeTopCodeValue, Valid: true}
	}
	return p.nullFloat(column)
}

func parseEnum[T ~string](p *rowParser, column string, parse func(string) (T, error)) T {
	raw, null := p.cell(column)
	if null {
		return ""
	}
	v, err := parse(raw)
	if err != nil {
		p.fail(column, raw, err)
		return ""
	}
	return v
}
