package dataset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/edanalytica/gradelens-backend/internal/model"
)

// Field names a dataset column by its canonical spreadsheet header.
type Field string

const (
	FieldStudentID        Field = "StudentID"
	FieldRegistrationYear Field = "RegistrationYear"
	FieldBirthYear        Field = "BirthYear"
	FieldGender           Field = "Gender"
	FieldOrigin           Field = "Origin"
	FieldDepartment       Field = "Department"
	FieldMajorType        Field = "Major_Type"
	FieldMajor            Field = "Major"
	FieldSemester         Field = "Semester"
	FieldCredits          Field = "Credits"
	FieldGrade            Field = "Grade"
	FieldYear             Field = "Year"
	FieldCovidPeriod      Field = "COVID_Period"
)

var (
	// ErrUnknownField is returned when a field name does not exist or does not
	// have the kind (categorical vs numeric) the operation expects.
	ErrUnknownField = errors.New("unknown field")

	// ErrFieldUnavailable is returned when an operation touches an optional
	// column the loaded source does not carry.
	ErrFieldUnavailable = errors.New("field unavailable in dataset")
)

// IsCategorical reports whether the field holds string categories.
func (f Field) IsCategorical() bool {
	switch f {
	case FieldGender, FieldOrigin, FieldDepartment, FieldMajorType, FieldMajor, FieldCovidPeriod:
		return true
	}
	return false
}

// IsNumeric reports whether the field holds numbers.
func (f Field) IsNumeric() bool {
	switch f {
	case FieldStudentID, FieldRegistrationYear, FieldBirthYear, FieldSemester,
		FieldCredits, FieldGrade, FieldYear:
		return true
	}
	return false
}

// CategoricalValue reads a categorical field from a record, failing fast for
// unknown or non-categorical fields instead of yielding a silent zero value.
func CategoricalValue(r *model.Record, f Field) (string, error) {
	if !f.IsCategorical() {
		return "", fmt.Errorf("%w: %q is not a categorical field", ErrUnknownField, f)
	}
	return catValue(r, f), nil
}

// NumericValue reads a numeric field from a record, failing fast for unknown
// or non-numeric fields.
func NumericValue(r *model.Record, f Field) (float64, error) {
	if !f.IsNumeric() {
		return 0, fmt.Errorf("%w: %q is not a numeric field", ErrUnknownField, f)
	}
	return numValue(r, f), nil
}

func catValue(r *model.Record, f Field) string {
	switch f {
	case FieldGender:
		return r.Gender
	case FieldOrigin:
		return r.Origin
	case FieldDepartment:
		return r.Department
	case FieldMajorType:
		return r.MajorType
	case FieldMajor:
		return r.Major
	case FieldCovidPeriod:
		return string(r.CovidPeriod)
	}
	return ""
}

func numValue(r *model.Record, f Field) float64 {
	switch f {
	case FieldStudentID:
		return float64(r.StudentID)
	case FieldRegistrationYear:
		return float64(r.RegistrationYear)
	case FieldBirthYear:
		return float64(r.BirthYear)
	case FieldSemester:
		return float64(r.Semester)
	case FieldCredits:
		return r.Credits
	case FieldGrade:
		return r.Grade
	case FieldYear:
		return float64(r.Year)
	}
	return 0
}

// Table is an immutable view over normalized grade records with precomputed
// filter-widget metadata. Filter operations return fresh tables and never
// touch the receiver.
type Table struct {
	rows         []model.Record
	yearMin      int
	yearMax      int
	departments  []string
	majorTypes   []string
	majors       []string
	genders      []string
	hasMajorType bool
}

func newTable(rows []model.Record, hasMajorType bool) *Table {
	t := &Table{rows: rows, hasMajorType: hasMajorType}

	depts := map[string]struct{}{}
	types := map[string]struct{}{}
	majors := map[string]struct{}{}
	genders := map[string]struct{}{}
	for i := range rows {
		r := &rows[i]
		if i == 0 || r.Year < t.yearMin {
			t.yearMin = r.Year
		}
		if i == 0 || r.Year > t.yearMax {
			t.yearMax = r.Year
		}
		depts[r.Department] = struct{}{}
		majors[r.Major] = struct{}{}
		genders[r.Gender] = struct{}{}
		if r.MajorType != "" {
			types[r.MajorType] = struct{}{}
		}
	}
	t.departments = sortedKeys(depts)
	t.majorTypes = sortedKeys(types)
	t.majors = sortedKeys(majors)
	t.genders = sortedKeys(genders)
	return t
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of records in the table.
func (t *Table) Len() int { return len(t.rows) }

// Records exposes the backing rows. Callers must treat them as read-only.
func (t *Table) Records() []model.Record { return t.rows }

// YearMin is the earliest academic year present, 0 for an empty table.
func (t *Table) YearMin() int { return t.yearMin }

// YearMax is the latest academic year present, 0 for an empty table.
func (t *Table) YearMax() int { return t.yearMax }

// Departments lists the distinct departments, sorted.
func (t *Table) Departments() []string { return t.departments }

// MajorTypes lists the distinct non-empty major types, sorted.
func (t *Table) MajorTypes() []string { return t.majorTypes }

// Majors lists the distinct majors, sorted.
func (t *Table) Majors() []string { return t.majors }

// Genders lists the distinct genders, sorted.
func (t *Table) Genders() []string { return t.genders }

// HasMajorType reports whether the loaded source carried the optional
// Major_Type column. The flag is derived once at load time and propagated
// unchanged through filtered views.
func (t *Table) HasMajorType() bool { return t.hasMajorType }
