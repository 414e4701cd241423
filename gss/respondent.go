// Package gss holds the domain model of the 2018 General Social Survey
// extract: the respondent record, its closed categorical value sets, and the
// lookup tables used to label them.
package gss

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Field keys of a respondent record.
const (
	FieldID                 = "id"
	FieldWeight             = "weight"
	FieldSex                = "sex"
	FieldEducation          = "education"
	FieldRegion             = "region"
	FieldAge                = "age"
	FieldIncome             = "income"
	FieldJobPrestige        = "job_prestige"
	FieldMotherJobPrestige  = "mother_job_prestige"
	FieldFatherJobPrestige  = "father_job_prestige"
	FieldSocioeconomicIndex = "socioeconomic_index"
	FieldSatJob             = "satjob"
	FieldRelationship       = "relationship"
	FieldMaleBreadwinner    = "male_breadwinner"
	FieldMenBetterSuited    = "men_bettersuited"
	FieldChildSuffer        = "child_suffer"
	FieldMenOverwork        = "men_overwork"

	// Derived fields.
	FieldEducationCat = "education_cat"
	FieldRegionName   = "region_name"
)

// Respondent is one cleaned survey row. Nullable fields use the Valid flag of
// their sql.Null type; enum fields are null when empty.
type Respondent struct {
	ID     int
	Weight float64
	Sex    Sex

	Education sql.NullInt64
	Region    string
	Age       sql.NullFloat64

	Income             sql.NullFloat64
	JobPrestige        sql.NullFloat64
	MotherJobPrestige  sql.NullFloat64
	FatherJobPrestige  sql.NullFloat64
	SocioeconomicIndex sql.NullFloat64

	SatJob JobSatisfaction

	Relationship    Agreement
	MaleBreadwinner Agreement
	MenBetterSuited Agreement
	ChildSuffer     Agreement
	MenOverwork     Agreement

	EducationCat string
}

// ============================================================================
// CLOSED VALUE SETS
// ============================================================================

// ErrUnknownValue is wrapped by the enum parsers for tokens outside the value set.
var ErrUnknownValue = errors.New("value not in closed set")

// Sex of the respondent.
type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// Sexes lists the Sex values in display order.
var Sexes = []Sex{Male, Female}

// ParseSex reads a Sex token case-insensitively.
func ParseSex(s string) (Sex, error) {
	return parseClosed(s, Sexes)
}

// Agreement is the four-point response to an attitude statement.
type Agreement string

const (
	StronglyDisagree Agreement = "strongly disagree"
	Disagree         Agreement = "disagree"
	Agree            Agreement = "agree"
	StronglyAgree    Agreement = "strongly agree"
)

// Agreements lists the Agreement values from strongly disagree to strongly agree.
var Agreements = []Agreement{StronglyDisagree, Disagree, Agree, StronglyAgree}

// ParseAgreement reads an Agreement token case-insensitively.
func ParseAgreement(s string) (Agreement, error) {
	return parseClosed(s, Agreements)
}

// JobSatisfaction is the four-point job satisfaction response.
type JobSatisfaction string

const (
	VerySatisfied    JobSatisfaction = "very satisfied"
	ModSatisfied     JobSatisfaction = "mod. satisfied"
	ALittleDissat    JobSatisfaction = "a little dissat"
	VeryDissatisfied JobSatisfaction = "very dissatisfied"
)

// JobSatisfactions lists the JobSatisfaction values from most to least satisfied.
var JobSatisfactions = []JobSatisfaction{VerySatisfied, ModSatisfied, ALittleDissat, VeryDissatisfied}

// ParseJobSatisfaction reads a JobSatisfaction token case-insensitively.
func ParseJobSatisfaction(s string) (JobSatisfaction, error) {
	return parseClosed(s, JobSatisfactions)
}

func parseClosed[T ~string](s string, values []T) (T, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	for _, v := range values {
		if string(v) == token {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownValue, s)
}

// Strings converts a value set to its string form, keeping order.
func Strings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
