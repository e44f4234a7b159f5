package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/edanalytica/gradelens-backend/internal/model"
)

// Row is one observation as produced by a Source, before normalization.
// Grade is a pointer so sources can represent a missing grade; such rows are
// dropped and counted when the table is built.
type Row struct {
	StudentID        int64
	RegistrationYear int
	BirthYear        int
	Gender           string
	Origin           string
	Department       string
	MajorType        string
	Major            string
	Semester         int
	Credits          float64
	Grade            *float64
}

// LoadStats reports what a table build did with its input.
type LoadStats struct {
	RowsRead    int
	RowsKept    int
	RowsDropped int
}

// SchemaError reports input that violates the dataset schema. Schema errors
// are fatal for the load: a dataset that fails validation is never served.
type SchemaError struct {
	Column string
	Line   int // 1-based file line, 0 when the whole column is the problem
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("schema error in column %s, line %d: %s", e.Column, e.Line, e.Reason)
	}
	return fmt.Sprintf("schema error in column %s: %s", e.Column, e.Reason)
}

// Build normalizes source rows into an immutable Table. The academic year is
// the semester code with the term digit stripped (Semester/10) and the COVID
// period follows from it; both are derived here, exactly once per load,
// upstream of every filter. Rows without a finite grade are dropped and
// counted. Major_Type availability is derived from the full input, dropped
// rows included.
func Build(rows []Row) (*Table, LoadStats) {
	stats := LoadStats{RowsRead: len(rows)}
	hasMajorType := false
	recs := make([]model.Record, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		if row.MajorType != "" {
			hasMajorType = true
		}
		if row.Grade == nil || math.IsNaN(*row.Grade) || math.IsInf(*row.Grade, 0) {
			stats.RowsDropped++
			continue
		}
		year := row.Semester / 10
		recs = append(recs, model.Record{
			StudentID:        row.StudentID,
			RegistrationYear: row.RegistrationYear,
			BirthYear:        row.BirthYear,
			Gender:           row.Gender,
			Origin:           row.Origin,
			Department:       row.Department,
			MajorType:        row.MajorType,
			Major:            row.Major,
			Semester:         row.Semester,
			Credits:          row.Credits,
			Grade:            *row.Grade,
			Year:             year,
			CovidPeriod:      model.CovidPeriodForYear(year),
		})
	}
	stats.RowsKept = len(recs)
	return newTable(recs, hasMajorType), stats
}

// requiredColumns are the headers every source must carry. Major_Type is
// optional; its absence degrades the major-type views with a warning instead
// of failing the load.
var requiredColumns = []Field{
	FieldStudentID,
	FieldRegistrationYear,
	FieldBirthYear,
	FieldGender,
	FieldOrigin,
	FieldDepartment,
	FieldMajor,
	FieldSemester,
	FieldCredits,
	FieldGrade,
}

// decodeCells maps header-addressed string cells into Rows. Every required
// column must be present and every required numeric cell must coerce; the
// one tolerated defect is the grade, which may be missing or non-numeric and
// only costs that row at build time.
func decodeCells(header []string, cells [][]string) ([]Row, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[string(col)]; !ok {
			return nil, &SchemaError{Column: string(col), Reason: "required column missing"}
		}
	}
	_, hasMajorTypeCol := idx[string(FieldMajorType)]

	rows := make([]Row, 0, len(cells))
	for i, cell := range cells {
		line := i + 2 // header occupies line 1
		get := func(col Field) string {
			j := idx[string(col)]
			if j >= len(cell) {
				return ""
			}
			return strings.TrimSpace(cell[j])
		}

		row := Row{
			Gender:     get(FieldGender),
			Origin:     get(FieldOrigin),
			Department: get(FieldDepartment),
			Major:      get(FieldMajor),
		}
		if hasMajorTypeCol {
			row.MajorType = get(FieldMajorType)
		}

		var err error
		if row.StudentID, err = parseIntCell(get(FieldStudentID)); err != nil {
			return nil, &SchemaError{Column: string(FieldStudentID), Line: line, Reason: err.Error()}
		}
		var n int64
		if n, err = parseIntCell(get(FieldRegistrationYear)); err != nil {
			return nil, &SchemaError{Column: string(FieldRegistrationYear), Line: line, Reason: err.Error()}
		}
		row.RegistrationYear = int(n)
		if n, err = parseIntCell(get(FieldBirthYear)); err != nil {
			return nil, &SchemaError{Column: string(FieldBirthYear), Line: line, Reason: err.Error()}
		}
		row.BirthYear = int(n)
		if n, err = parseIntCell(get(FieldSemester)); err != nil {
			return nil, &SchemaError{Column: string(FieldSemester), Line: line, Reason: err.Error()}
		}
		row.Semester = int(n)
		if row.Credits, err = strconv.ParseFloat(get(FieldCredits), 64); err != nil {
			return nil, &SchemaError{Column: string(FieldCredits), Line: line, Reason: "not numeric"}
		}

		if raw := get(FieldGrade); raw != "" {
			if g, gErr := strconv.ParseFloat(raw, 64); gErr == nil {
				row.Grade = &g
			}
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// parseIntCell accepts integer cells that spreadsheets export in float form
// ("1998.0").
func parseIntCell(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty cell")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not numeric: %q", raw)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return int64(f), nil
}
