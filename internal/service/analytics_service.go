package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/edanalytica/gradelens-backend/internal/aggregate"
	"github.com/edanalytica/gradelens-backend/internal/dataset"
	"github.com/edanalytica/gradelens-backend/internal/format"
	"github.com/edanalytica/gradelens-backend/internal/model"
	"github.com/edanalytica/gradelens-backend/internal/response"
	"github.com/edanalytica/gradelens-backend/internal/stats"
)

// categoryFields maps the grouping field names accepted on the API to the
// dataset columns they select.
var categoryFields = map[string]dataset.Field{
	"department":   dataset.FieldDepartment,
	"major_type":   dataset.FieldMajorType,
	"major":        dataset.FieldMajor,
	"gender":       dataset.FieldGender,
	"covid_period": dataset.FieldCovidPeriod,
}

// AnalyticsService computes dashboard views over the currently loaded table.
// All computations run in memory on an immutable snapshot, so methods take no
// context and never block.
type AnalyticsService struct {
	data *DatasetService
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(data *DatasetService) *AnalyticsService {
	return &AnalyticsService{data: data}
}

// applyFilters narrows the current table to the filter selection. A
// major-type allowlist against a source without the column is skipped with a
// warning instead of failing the request; the other filters still apply.
func (s *AnalyticsService) applyFilters(st *model.FilterState) (*dataset.Table, response.WarnCode, error) {
	t := s.data.Table()
	var warn response.WarnCode

	if st.YearRange != nil {
		t = t.FilterYears(st.YearRange.From, st.YearRange.To)
	}
	if st.Departments != nil {
		filtered, err := t.FilterIn(dataset.FieldDepartment, st.Departments)
		if err != nil {
			return nil, "", err
		}
		t = filtered
	}
	if st.MajorTypes != nil {
		filtered, err := t.FilterIn(dataset.FieldMajorType, st.MajorTypes)
		switch {
		case err == nil:
			t = filtered
		case errors.Is(err, dataset.ErrFieldUnavailable):
			warn = response.WarnMissingOptionalColumn
		default:
			return nil, "", err
		}
	}
	return t, warn, nil
}

// BuildView computes the full dashboard bundle for one filter selection.
// Sections the selection did not request stay nil; sections that came up
// empty are nil with a warning, and the rest of the bundle is unaffected.
func (s *AnalyticsService) BuildView(st *model.FilterState) (*model.DashboardView, error) {
	view := &model.DashboardView{Warnings: []model.ViewWarning{}}

	t, filterWarn, err := s.applyFilters(st)
	if err != nil {
		return nil, err
	}
	if filterWarn != "" {
		view.Warnings = append(view.Warnings, viewWarning("filters", filterWarn))
	}
	if t.Len() == 0 {
		view.Warnings = append(view.Warnings, viewWarning("view", response.WarnEmptySelection))
		return view, nil
	}

	view.Overview = s.overview(t)
	view.GradeTrend = trendView(t)

	if st.SelectedDepartment != "" {
		if g := groupSummary(t, dataset.FieldDepartment, st.SelectedDepartment); g != nil {
			view.Department = g
		} else {
			view.Warnings = append(view.Warnings, viewWarning("department", response.WarnEmptySelection))
		}
	}
	if st.SelectedMajor != "" {
		if g := groupSummary(t, dataset.FieldMajor, st.SelectedMajor); g != nil {
			view.Major = g
		} else {
			view.Warnings = append(view.Warnings, viewWarning("major", response.WarnEmptySelection))
		}
	}
	if st.ComparisonDepartments != nil {
		if trends := comparisonTrends(t, st.ComparisonDepartments); len(trends) > 0 {
			view.DepartmentComparison = trends
		} else {
			view.Warnings = append(view.Warnings, viewWarning("department_comparison", response.WarnEmptySelection))
		}
	}

	majorTrends, err := aggregate.TrendByCategory(t, dataset.FieldMajorType)
	switch {
	case err == nil:
		view.MajorTypes = majorTrends
	case errors.Is(err, dataset.ErrFieldUnavailable):
		view.Warnings = append(view.Warnings, viewWarning("major_types", response.WarnMissingOptionalColumn))
	default:
		return nil, err
	}

	covid, covidWarn := covidView(t)
	view.Covid = covid
	if covidWarn != "" {
		view.Warnings = append(view.Warnings, viewWarning("covid", covidWarn))
	}

	rankings, err := rankingsFor(t, dataset.FieldDepartment)
	if err != nil {
		return nil, err
	}
	view.Rankings = rankings

	return view, nil
}

// Trend returns the overall grade trend of the filtered selection.
func (s *AnalyticsService) Trend(st *model.FilterState) (*model.TrendView, response.WarnCode, error) {
	t, warn, err := s.applyFilters(st)
	if err != nil {
		return nil, "", err
	}
	if t.Len() == 0 {
		return nil, response.WarnEmptySelection, nil
	}
	return trendView(t), warn, nil
}

// TrendBy returns one trend series per value of a grouping field.
func (s *AnalyticsService) TrendBy(st *model.FilterState, field string) ([]model.CategoryTrend, response.WarnCode, error) {
	f, ok := categoryFields[field]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", dataset.ErrUnknownField, field)
	}
	t, warn, err := s.applyFilters(st)
	if err != nil {
		return nil, "", err
	}
	if t.Len() == 0 {
		return nil, response.WarnEmptySelection, nil
	}
	trends, err := aggregate.TrendByCategory(t, f)
	if err != nil {
		if errors.Is(err, dataset.ErrFieldUnavailable) {
			return nil, response.WarnMissingOptionalColumn, nil
		}
		return nil, "", err
	}
	return trends, warn, nil
}

// DepartmentComparison returns side-by-side trends for the named departments.
// The list is required: an empty or unmatched list yields a warning.
func (s *AnalyticsService) DepartmentComparison(st *model.FilterState, departments []string) ([]model.CategoryTrend, response.WarnCode, error) {
	t, warn, err := s.applyFilters(st)
	if err != nil {
		return nil, "", err
	}
	trends := comparisonTrends(t, departments)
	if len(trends) == 0 {
		return nil, response.WarnEmptySelection, nil
	}
	return trends, warn, nil
}

// Rankings orders the values of a grouping field by mean grade, rank 1
// highest, ties sharing the average of the positions they span.
func (s *AnalyticsService) Rankings(st *model.FilterState, field string) ([]model.RankEntry, response.WarnCode, error) {
	f, ok := categoryFields[field]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", dataset.ErrUnknownField, field)
	}
	t, warn, err := s.applyFilters(st)
	if err != nil {
		return nil, "", err
	}
	if t.Len() == 0 {
		return nil, response.WarnEmptySelection, nil
	}
	entries, err := rankingsFor(t, f)
	if err != nil {
		if errors.Is(err, dataset.ErrFieldUnavailable) {
			return nil, response.WarnMissingOptionalColumn, nil
		}
		return nil, "", err
	}
	return entries, warn, nil
}

// Records returns one page of the filtered rows.
func (s *AnalyticsService) Records(st *model.FilterState, page, perPage int) ([]model.Record, *response.Pagination, response.WarnCode, error) {
	t, warn, err := s.applyFilters(st)
	if err != nil {
		return nil, nil, "", err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	total := t.Len()
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	totalPages := (total + perPage - 1) / perPage
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	if total == 0 {
		return []model.Record{}, pagination, response.WarnEmptySelection, nil
	}
	return t.Records()[start:end], pagination, warn, nil
}

// Students returns one page of per-student rollups plus the data-quality
// conflicts found across the whole filtered selection.
func (s *AnalyticsService) Students(st *model.FilterState, page, perPage int) (*model.StudentsPage, *response.Pagination, response.WarnCode, error) {
	t, warn, err := s.applyFilters(st)
	if err != nil {
		return nil, nil, "", err
	}

	rollups, conflicts := aggregate.StudentRollups(t)

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	total := len(rollups)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	totalPages := (total + perPage - 1) / perPage
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	pageData := &model.StudentsPage{Students: rollups[start:end], Conflicts: conflicts}
	if total == 0 {
		return pageData, pagination, response.WarnEmptySelection, nil
	}
	return pageData, pagination, warn, nil
}

// Covid compares the filtered selection before and after the pandemic cutoff.
func (s *AnalyticsService) Covid(st *model.FilterState) (*model.CovidView, response.WarnCode, error) {
	t, warn, err := s.applyFilters(st)
	if err != nil {
		return nil, "", err
	}
	if t.Len() == 0 {
		return nil, response.WarnEmptySelection, nil
	}
	view, covidWarn := covidView(t)
	if covidWarn != "" {
		warn = covidWarn
	}
	return view, warn, nil
}

// Outliers reports the rows whose grade falls outside the Tukey fences of the
// requested partition ("pre", "post", or "all"). Fences are computed from the
// partition alone.
func (s *AnalyticsService) Outliers(st *model.FilterState, period string) (*model.OutlierReport, response.WarnCode, error) {
	if period == "" {
		period = "all"
	}

	t, warn, err := s.applyFilters(st)
	if err != nil {
		return nil, "", err
	}

	var part *dataset.Table
	switch period {
	case "pre":
		part, err = t.FilterIn(dataset.FieldCovidPeriod, []string{string(model.CovidPre)})
	case "post":
		part, err = t.FilterIn(dataset.FieldCovidPeriod, []string{string(model.CovidPost)})
	case "all":
		part = t
	default:
		return nil, "", fmt.Errorf("%w: unknown period %q", dataset.ErrUnknownField, period)
	}
	if err != nil {
		return nil, "", err
	}

	report := aggregate.IQROutliers(part, period)
	if report == nil {
		return nil, response.WarnEmptySelection, nil
	}
	return report, warn, nil
}

func (s *AnalyticsService) overview(t *dataset.Table) *model.OverviewCards {
	d, _ := aggregate.DescribeField(t, dataset.FieldGrade)
	rollups, _ := aggregate.StudentRollups(t)
	points := aggregate.TrendByYear(t)

	card := &model.OverviewCards{
		Rows:             t.Len(),
		Students:         len(rollups),
		Departments:      len(t.Departments()),
		YearMin:          t.YearMin(),
		YearMax:          t.YearMax(),
		MeanGrade:        d.Mean,
		MeanGradeDisplay: format.Fixed2(d.Mean),
	}

	for i, p := range points {
		if i == 0 || p.MeanGrade > card.BestYear.Value {
			card.BestYear = &model.YearValue{
				Year:    p.Year,
				Value:   p.MeanGrade,
				Display: format.ValueWithYear(p.MeanGrade, p.Year),
			}
		}
		if i == 0 || p.MeanGrade < card.WorstYear.Value {
			card.WorstYear = &model.YearValue{
				Year:    p.Year,
				Value:   p.MeanGrade,
				Display: format.ValueWithYear(p.MeanGrade, p.Year),
			}
		}
	}

	card.MeanYoYChangePct = yoyChange(points)
	card.MeanYoYChangeDisplay = format.MaybePercent(card.MeanYoYChangePct)
	return card
}

func trendView(t *dataset.Table) *model.TrendView {
	points := aggregate.TrendByYear(t)
	v := &model.TrendView{Points: points}
	v.MeanYoYChangePct = yoyChange(points)
	v.MeanYoYChangeDisplay = format.MaybePercent(v.MeanYoYChangePct)
	return v
}

// groupSummary drills into one value of a categorical field. Nil when the
// value matches no rows.
func groupSummary(t *dataset.Table, f dataset.Field, name string) *model.GroupSummary {
	sub, err := t.FilterIn(f, []string{name})
	if err != nil || sub.Len() == 0 {
		return nil
	}
	d, _ := aggregate.DescribeField(sub, dataset.FieldGrade)
	points := aggregate.TrendByYear(sub)

	g := &model.GroupSummary{
		Name:  name,
		Rows:  sub.Len(),
		Trend: points,
		Stats: summaryToWire(d),
	}
	g.MeanYoYChangePct = yoyChange(points)
	g.MeanYoYChangeDisplay = format.MaybePercent(g.MeanYoYChangePct)
	return g
}

func comparisonTrends(t *dataset.Table, departments []string) []model.CategoryTrend {
	sub, err := t.FilterIn(dataset.FieldDepartment, departments)
	if err != nil || sub.Len() == 0 {
		return nil
	}
	trends, err := aggregate.TrendByCategory(sub, dataset.FieldDepartment)
	if err != nil {
		return nil
	}
	return trends
}

// covidView builds the pre/post comparison. MeanDiff and the Welch statistic
// are oriented post minus pre, so positive values mean the post period scored
// higher. The warning flags a comparison with too little data on one side.
func covidView(t *dataset.Table) (*model.CovidView, response.WarnCode) {
	pre, post := aggregate.GradesByPeriod(t)

	view := &model.CovidView{
		Pre:             periodSummary(string(model.CovidPre), pre),
		Post:            periodSummary(string(model.CovidPost), post),
		MeanDiffDisplay: format.Placeholder,
	}

	if view.Pre != nil && view.Post != nil {
		d := view.Post.Stats.Mean - view.Pre.Stats.Mean
		view.MeanDiff = &d
		view.MeanDiffDisplay = format.Fixed2(d)
	}

	res, err := stats.WelchT(post, pre)
	if err != nil {
		return view, response.WarnInsufficientData
	}
	view.Welch = welchToWire(res)
	return view, ""
}

func periodSummary(period string, grades []float64) *model.PeriodSummary {
	if len(grades) == 0 {
		return nil
	}
	f := stats.IQRFences(grades)
	outliers := 0
	for _, g := range grades {
		if g < f.Lower || g > f.Upper {
			outliers++
		}
	}
	return &model.PeriodSummary{
		Period: period,
		Stats:  summaryToWire(stats.Describe(grades)),
		Fences: &model.FenceStats{
			Q1:         f.Q1,
			Q3:         f.Q3,
			IQR:        f.IQR,
			LowerFence: f.Lower,
			UpperFence: f.Upper,
		},
		OutlierCount: outliers,
	}
}

func rankingsFor(t *dataset.Table, f dataset.Field) ([]model.RankEntry, error) {
	entries, err := aggregate.RankByMeanGrade(t, f)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].RankDisplay = format.Rank(entries[i].Rank)
	}
	return entries, nil
}

// summaryToWire keeps NaN off the wire: Std becomes nil below two
// observations, and an empty summary has no wire form at all.
func summaryToWire(d stats.Summary) *model.SummaryStats {
	if d.Count == 0 {
		return nil
	}
	w := &model.SummaryStats{
		Count:  d.Count,
		Mean:   d.Mean,
		Min:    d.Min,
		P25:    d.P25,
		Median: d.Median,
		P75:    d.P75,
		Max:    d.Max,
	}
	if !math.IsNaN(d.Std) {
		std := d.Std
		w.Std = &std
	}
	return w
}

func welchToWire(res stats.TTestResult) *model.WelchView {
	w := &model.WelchView{}
	if t := res.T; finite(t) {
		w.TStatistic = &t
	}
	if p := res.P; finite(p) {
		w.PValue = &p
	}
	if df := res.DF; finite(df) {
		w.DF = &df
	}
	w.TDisplay = format.MaybeFixed2(w.TStatistic)
	w.PDisplay = format.MaybeFixed2(w.PValue)
	return w
}

func yoyChange(points []model.TrendPoint) *float64 {
	series := make([]float64, len(points))
	for i, p := range points {
		series[i] = p.MeanGrade
	}
	pct, err := stats.MeanPercentChange(series)
	if err != nil || !finite(pct) {
		return nil
	}
	return &pct
}

func viewWarning(section string, code response.WarnCode) model.ViewWarning {
	return model.ViewWarning{
		Section: section,
		Code:    string(code),
		Message: response.GetWarningMessage(code),
	}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
