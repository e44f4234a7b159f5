package model

// ViewWarning flags one dashboard section that could not be computed. The
// code values mirror the response warning codes.
type ViewWarning struct {
	Section string `json:"section"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DashboardMeta bootstraps the filter widgets: the selectable values and the
// span of the year slider, plus provenance of the loaded dataset.
type DashboardMeta struct {
	YearMin         int         `json:"year_min"`
	YearMax         int         `json:"year_max"`
	Departments     []string    `json:"departments"`
	MajorTypes      []string    `json:"major_types"`
	Majors          []string    `json:"majors"`
	Genders         []string    `json:"genders"`
	RollupConflicts int         `json:"rollup_conflicts"`
	Dataset         DatasetInfo `json:"dataset"`
}

// SummaryStats is the wire form of a descriptive summary. Std is nil when the
// sample is too small for a deviation (fewer than two observations).
type SummaryStats struct {
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Std    *float64 `json:"std"`
	Min    float64  `json:"min"`
	P25    float64  `json:"p25"`
	Median float64  `json:"median"`
	P75    float64  `json:"p75"`
	Max    float64  `json:"max"`
}

// YearValue pairs a value with the year it occurred in, pre-rendered for
// display ("8.43 (2021)").
type YearValue struct {
	Year    int     `json:"year"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// OverviewCards are the headline numbers of the dashboard.
type OverviewCards struct {
	Rows                 int        `json:"rows"`
	Students             int        `json:"students"`
	Departments          int        `json:"departments"`
	YearMin              int        `json:"year_min"`
	YearMax              int        `json:"year_max"`
	MeanGrade            float64    `json:"mean_grade"`
	MeanGradeDisplay     string     `json:"mean_grade_display"`
	BestYear             *YearValue `json:"best_year"`
	WorstYear            *YearValue `json:"worst_year"`
	MeanYoYChangePct     *float64   `json:"mean_yoy_change_pct"`
	MeanYoYChangeDisplay string     `json:"mean_yoy_change_display"`
}

// TrendView is the overall grade trend plus its year-over-year drift.
type TrendView struct {
	Points               []TrendPoint `json:"points"`
	MeanYoYChangePct     *float64     `json:"mean_yoy_change_pct"`
	MeanYoYChangeDisplay string       `json:"mean_yoy_change_display"`
}

// GroupSummary is the drill-down view of one selected group (a department or
// a major): its trend, descriptive statistics, and drift.
type GroupSummary struct {
	Name                 string        `json:"name"`
	Rows                 int           `json:"rows"`
	Trend                []TrendPoint  `json:"trend"`
	Stats                *SummaryStats `json:"stats"`
	MeanYoYChangePct     *float64      `json:"mean_yoy_change_pct"`
	MeanYoYChangeDisplay string        `json:"mean_yoy_change_display"`
}

// WelchView is the wire form of a two-sample comparison. TStatistic is nil
// when the statistic is undefined on the wire (infinite by zero spread).
type WelchView struct {
	TStatistic *float64 `json:"t_statistic"`
	PValue     *float64 `json:"p_value"`
	DF         *float64 `json:"df"`
	TDisplay   string   `json:"t_display"`
	PDisplay   string   `json:"p_display"`
}

// PeriodSummary describes one pandemic period: stats plus its own outlier
// fences.
type PeriodSummary struct {
	Period       string        `json:"period"`
	Stats        *SummaryStats `json:"stats"`
	Fences       *FenceStats   `json:"fences"`
	OutlierCount int           `json:"outlier_count"`
}

// CovidView compares grades before and after the pandemic cutoff.
type CovidView struct {
	Pre             *PeriodSummary `json:"pre"`
	Post            *PeriodSummary `json:"post"`
	MeanDiff        *float64       `json:"mean_diff"`
	MeanDiffDisplay string         `json:"mean_diff_display"`
	Welch           *WelchView     `json:"welch_t"`
}

// DashboardView bundles every dashboard section for one filter selection.
// Sections that cannot be computed are nil and explained in Warnings; the
// others are unaffected.
type DashboardView struct {
	Overview             *OverviewCards  `json:"overview"`
	GradeTrend           *TrendView      `json:"grade_trend"`
	Department           *GroupSummary   `json:"department"`
	Major                *GroupSummary   `json:"major"`
	DepartmentComparison []CategoryTrend `json:"department_comparison"`
	MajorTypes           []CategoryTrend `json:"major_types"`
	Covid                *CovidView      `json:"covid"`
	Rankings             []RankEntry     `json:"rankings"`
	Warnings             []ViewWarning   `json:"warnings"`
}

// StudentsPage is one page of student rollups plus the data-quality conflicts
// found in the filtered selection.
type StudentsPage struct {
	Students  []StudentRollup  `json:"students"`
	Conflicts []RollupConflict `json:"conflicts"`
}
