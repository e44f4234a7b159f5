package model

import "strings"

// YearRange is an inclusive academic-year interval.
type YearRange struct {
	From int `json:"from" binding:"required,min=1900,max=2100"`
	To   int `json:"to" binding:"required,min=1900,max=2100,gtefield=From"`
}

// FilterState is the full dashboard filter selection. Nil slices mean the
// filter is absent; a non-nil empty slice is an empty allowlist and selects
// nothing.
type FilterState struct {
	YearRange             *YearRange `json:"year_range" binding:"omitempty"`
	Departments           []string   `json:"departments" binding:"omitempty,dive,max=255"`
	MajorTypes            []string   `json:"major_types" binding:"omitempty,dive,max=255"`
	SelectedDepartment    string     `json:"selected_department" binding:"omitempty,max=255"`
	SelectedMajor         string     `json:"selected_major" binding:"omitempty,max=255"`
	ComparisonDepartments []string   `json:"comparison_departments" binding:"omitempty,dive,max=255"`
}

// FilterQuery is the query-string form of FilterState used by GET endpoints.
// Pointer fields distinguish an absent parameter from a present-but-empty one.
type FilterQuery struct {
	YearFrom   *int    `form:"year_from" binding:"omitempty,min=1900,max=2100"`
	YearTo     *int    `form:"year_to" binding:"omitempty,min=1900,max=2100"`
	Department *string `form:"departments"`
	MajorType  *string `form:"major_types"`
}

// State converts the query parameters into a FilterState. A present-but-empty
// list parameter becomes an empty allowlist, not an absent filter.
func (q *FilterQuery) State() FilterState {
	st := FilterState{}
	if q.YearFrom != nil || q.YearTo != nil {
		from, to := 0, 9999
		if q.YearFrom != nil {
			from = *q.YearFrom
		}
		if q.YearTo != nil {
			to = *q.YearTo
		}
		st.YearRange = &YearRange{From: from, To: to}
	}
	if q.Department != nil {
		st.Departments = SplitList(*q.Department)
	}
	if q.MajorType != nil {
		st.MajorTypes = SplitList(*q.MajorType)
	}
	return st
}

// SplitList splits a comma-separated parameter into trimmed values. It always
// returns a non-nil slice so an empty input reads as an empty allowlist.
func SplitList(raw string) []string {
	values := []string{}
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			values = append(values, v)
		}
	}
	return values
}
