package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edanalytica/gradelens-backend/internal/dataset"
	"github.com/edanalytica/gradelens-backend/internal/model"
	"github.com/edanalytica/gradelens-backend/internal/response"
)

type memSource struct {
	rows []dataset.Row
}

func (s memSource) Describe() string { return "mem:test" }

func (s memSource) Rows(context.Context) ([]dataset.Row, error) { return s.rows, nil }

func gradePtr(g float64) *float64 { return &g }

func obs(student int64, dept, majorType, major string, semester int, grade float64) dataset.Row {
	return dataset.Row{
		StudentID:        student,
		RegistrationYear: 2017,
		BirthYear:        1999,
		Gender:           "F",
		Origin:           "Jakarta",
		Department:       dept,
		MajorType:        majorType,
		Major:            major,
		Semester:         semester,
		Credits:          30,
		Grade:            gradePtr(grade),
	}
}

// fixtureRows spans 2018-2022 across two departments: three pre-cutoff grades
// [6, 7, 5] and three post-cutoff grades [8, 9, 8.5].
func fixtureRows() []dataset.Row {
	return []dataset.Row{
		obs(1, "Engineering", "Science", "Civil Engineering", 20181, 6),
		obs(1, "Engineering", "Science", "Civil Engineering", 20191, 7),
		obs(2, "Engineering", "Science", "Civil Engineering", 20191, 5),
		obs(2, "Engineering", "Science", "Civil Engineering", 20211, 8),
		obs(3, "Economics", "Social", "Accounting", 20211, 9),
		obs(3, "Economics", "Social", "Accounting", 20221, 8.5),
	}
}

func newAnalytics(t *testing.T, rows []dataset.Row) *AnalyticsService {
	t.Helper()
	store := dataset.NewStore(memSource{rows: rows}, zerolog.Nop())
	require.NoError(t, store.Load(context.Background()))
	return NewAnalyticsService(NewDatasetService(store, nil, zerolog.Nop()))
}

func TestAnalyticsServiceBuildViewAllSections(t *testing.T) {
	svc := newAnalytics(t, fixtureRows())

	view, err := svc.BuildView(&model.FilterState{
		SelectedDepartment:    "Engineering",
		SelectedMajor:         "Accounting",
		ComparisonDepartments: []string{"Engineering", "Economics"},
	})
	require.NoError(t, err)
	assert.Empty(t, view.Warnings)

	require.NotNil(t, view.Overview)
	assert.Equal(t, 6, view.Overview.Rows)
	assert.Equal(t, 3, view.Overview.Students)
	assert.Equal(t, 2, view.Overview.Departments)
	assert.Equal(t, 2018, view.Overview.YearMin)
	assert.Equal(t, 2022, view.Overview.YearMax)
	assert.InDelta(t, 7.25, view.Overview.MeanGrade, 1e-9)
	assert.Equal(t, "7.25", view.Overview.MeanGradeDisplay)

	// 2021 and 2022 tie at 8.5; the earliest year wins.
	require.NotNil(t, view.Overview.BestYear)
	assert.Equal(t, 2021, view.Overview.BestYear.Year)
	assert.Equal(t, "8.50 (2021)", view.Overview.BestYear.Display)
	require.NotNil(t, view.Overview.WorstYear)
	assert.Equal(t, 2018, view.Overview.WorstYear.Year)

	require.NotNil(t, view.GradeTrend)
	require.Len(t, view.GradeTrend.Points, 4)
	assert.Equal(t, model.TrendPoint{Year: 2018, MeanGrade: 6, Count: 1}, view.GradeTrend.Points[0])
	require.NotNil(t, view.GradeTrend.MeanYoYChangePct)
	// Steps: 0%, +41.67%, 0%.
	assert.InDelta(t, 250.0/18.0, *view.GradeTrend.MeanYoYChangePct, 1e-9)

	require.NotNil(t, view.Department)
	assert.Equal(t, "Engineering", view.Department.Name)
	assert.Equal(t, 4, view.Department.Rows)
	require.NotNil(t, view.Department.Stats)
	assert.Equal(t, 4, view.Department.Stats.Count)
	assert.InDelta(t, 6.5, view.Department.Stats.Mean, 1e-9)

	require.NotNil(t, view.Major)
	assert.Equal(t, "Accounting", view.Major.Name)
	assert.Equal(t, 2, view.Major.Rows)

	require.Len(t, view.DepartmentComparison, 2)
	assert.Equal(t, "Economics", view.DepartmentComparison[0].Category)
	assert.Equal(t, "Engineering", view.DepartmentComparison[1].Category)

	require.Len(t, view.MajorTypes, 2)
	assert.Equal(t, "Science", view.MajorTypes[0].Category)
	assert.Equal(t, "Social", view.MajorTypes[1].Category)

	require.NotNil(t, view.Covid)
	require.NotNil(t, view.Covid.Pre)
	assert.Equal(t, 3, view.Covid.Pre.Stats.Count)
	assert.InDelta(t, 6, view.Covid.Pre.Stats.Mean, 1e-9)
	require.NotNil(t, view.Covid.Post)
	assert.Equal(t, 3, view.Covid.Post.Stats.Count)
	require.NotNil(t, view.Covid.MeanDiff)
	assert.InDelta(t, 2.5, *view.Covid.MeanDiff, 1e-9)
	require.NotNil(t, view.Covid.Welch)
	require.NotNil(t, view.Covid.Welch.TStatistic)
	assert.InDelta(t, 3.8730, *view.Covid.Welch.TStatistic, 1e-4)
	require.NotNil(t, view.Covid.Welch.DF)
	assert.InDelta(t, 2.9412, *view.Covid.Welch.DF, 1e-3)
	require.NotNil(t, view.Covid.Welch.PValue)
	assert.Greater(t, *view.Covid.Welch.PValue, 0.02)
	assert.Less(t, *view.Covid.Welch.PValue, 0.05)

	require.Len(t, view.Rankings, 2)
	assert.Equal(t, "Economics", view.Rankings[0].Group)
	assert.Equal(t, 1.0, view.Rankings[0].Rank)
	assert.Equal(t, "1", view.Rankings[0].RankDisplay)
	assert.Equal(t, "Engineering", view.Rankings[1].Group)
	assert.Equal(t, 2.0, view.Rankings[1].Rank)
}

func TestAnalyticsServiceBuildViewSectionWarnings(t *testing.T) {
	svc := newAnalytics(t, fixtureRows())

	view, err := svc.BuildView(&model.FilterState{
		SelectedDepartment:    "Astronomy",
		ComparisonDepartments: []string{},
	})
	require.NoError(t, err)

	assert.Nil(t, view.Department)
	assert.Nil(t, view.DepartmentComparison)
	assert.NotNil(t, view.Overview)
	assert.NotNil(t, view.GradeTrend)

	require.Len(t, view.Warnings, 2)
	assert.Equal(t, "department", view.Warnings[0].Section)
	assert.Equal(t, string(response.WarnEmptySelection), view.Warnings[0].Code)
	assert.Equal(t, "department_comparison", view.Warnings[1].Section)
	assert.Equal(t, string(response.WarnEmptySelection), view.Warnings[1].Code)
}

func TestAnalyticsServiceBuildViewEmptySelection(t *testing.T) {
	svc := newAnalytics(t, fixtureRows())

	view, err := svc.BuildView(&model.FilterState{
		YearRange: &model.YearRange{From: 1900, To: 1901},
	})
	require.NoError(t, err)

	assert.Nil(t, view.Overview)
	assert.Nil(t, view.GradeTrend)
	assert.Nil(t, view.Covid)
	assert.Nil(t, view.Rankings)
	require.Len(t, view.Warnings, 1)
	assert.Equal(t, "view", view.Warnings[0].Section)
	assert.Equal(t, string(response.WarnEmptySelection), view.Warnings[0].Code)
}

func TestAnalyticsServiceBuildViewMajorTypeUnavailable(t *testing.T) {
	rows := fixtureRows()
	for i := range rows {
		rows[i].MajorType = ""
	}
	svc := newAnalytics(t, rows)

	view, err := svc.BuildView(&model.FilterState{MajorTypes: []string{"Science"}})
	require.NoError(t, err)

	// The allowlist is skipped, so the view still covers all six rows.
	require.NotNil(t, view.Overview)
	assert.Equal(t, 6, view.Overview.Rows)
	assert.Nil(t, view.MajorTypes)

	require.Len(t, view.Warnings, 2)
	assert.Equal(t, "filters", view.Warnings[0].Section)
	assert.Equal(t, string(response.WarnMissingOptionalColumn), view.Warnings[0].Code)
	assert.Equal(t, "major_types", view.Warnings[1].Section)
	assert.Equal(t, string(response.WarnMissingOptionalColumn), view.Warnings[1].Code)
}

func TestAnalyticsServiceTrendFilterSemantics(t *testing.T) {
	svc := newAnalytics(t, fixtureRows())

	t.Run("absent filters cover everything", func(t *testing.T) {
		trend, warn, err := svc.Trend(&model.FilterState{})
		require.NoError(t, err)
		assert.Empty(t, warn)
		require.NotNil(t, trend)
		assert.Len(t, trend.Points, 4)
	})

	t.Run("empty allowlist selects nothing", func(t *testing.T) {
		trend, warn, err := svc.Trend(&model.FilterState{Departments: []string{}})
		require.NoError(t, err)
		assert.Equal(t, response.WarnEmptySelection, warn)
		assert.Nil(t, trend)
	})

	t.Run("year range is inclusive", func(t *testing.T) {
		trend, warn, err := svc.Trend(&model.FilterState{
			YearRange: &model.YearRange{From: 2019, To: 2021},
		})
		require.NoError(t, err)
		assert.Empty(t, warn)
		require.Len(t, trend.Points, 2)
		assert.Equal(t, 2019, trend.Points[0].Year)
		assert.Equal(t, 2021, trend.Points[1].Year)
	})
}

func TestAnalyticsServiceTrendBy(t *testing.T) {
	svc := newAnalytics(t, fixtureRows())

	trends, warn, err := svc.TrendBy(&model.FilterState{}, "covid_period")
	require.NoError(t, err)
	assert.Empty(t, warn)
	require.Len(t, trends, 2)
	assert.Equal(t, "Post", trends[0].Category)
	require.Len(t, trends[0].Points, 2)
	assert.Equal(t, model.TrendPoint{Year: 2021, MeanGrade: 8.5, Count: 2}, trends[0].Points[0])
	assert.Equal(t, "Pre", trends[1].Category)

	_, _, err = svc.TrendBy(&model.FilterState{}, "registration")
	assert.ErrorIs(t, err, dataset.ErrUnknownField)
}

func TestAnalyticsServiceRecordsPagination(t *testing.T) {
	svc := newAnalytics(t, fixtureRows())

	records, pagination, warn, err := svc.Records(&model.FilterState{}, 2, 2)
	require.NoError(t, err)
	assert.Empty(t, warn)
	require.Len(t, records, 2)
	// Page two of size two starts at the third kept row.
	assert.Equal(t, int64(2), records[0].StudentID)
	assert.Equal(t, 20191, records[0].Semester)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 2, pagination.PerPage)
	assert.Equal(t, 6, pagination.TotalItems)
	assert.Equal(t, 3, pagination.TotalPages)

	t.Run("clamps", func(t *testing.T) {
		_, pagination, _, err := svc.Records(&model.FilterState{}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, pagination.Page)
		assert.Equal(t, 10, pagination.PerPage)

		_, pagination, _, err = svc.Records(&model.FilterState{}, 1, 1000)
		require.NoError(t, err)
		assert.Equal(t, 100, pagination.PerPage)
	})

	t.Run("empty selection", func(t *testing.T) {
		records, pagination, warn, err := svc.Records(&model.FilterState{Departments: []string{"Astronomy"}}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, response.WarnEmptySelection, warn)
		assert.NotNil(t, records)
		assert.Empty(t, records)
		assert.Equal(t, 0, pagination.TotalItems)
		assert.Equal(t, 0, pagination.TotalPages)
	})
}

func TestAnalyticsServiceStudents(t *testing.T) {
	rows := fixtureRows()
	// Student 2 switches department mid-history.
	rows[3].Department = "Economics"
	svc := newAnalytics(t, rows)

	page, pagination, warn, err := svc.Students(&model.FilterState{}, 1, 2)
	require.NoError(t, err)
	assert.Empty(t, warn)
	assert.Equal(t, 3, pagination.TotalItems)
	assert.Equal(t, 2, pagination.TotalPages)

	require.Len(t, page.Students, 2)
	assert.Equal(t, int64(1), page.Students[0].StudentID)
	assert.Equal(t, 2, page.Students[0].Semesters)
	assert.InDelta(t, 6.5, page.Students[0].MeanGrade, 1e-9)
	// First-seen identity wins for the wanderer.
	assert.Equal(t, int64(2), page.Students[1].StudentID)
	assert.Equal(t, "Engineering", page.Students[1].Department)

	require.Len(t, page.Conflicts, 1)
	assert.Equal(t, int64(2), page.Conflicts[0].StudentID)
	assert.Equal(t, "Department", page.Conflicts[0].Field)
}

func TestAnalyticsServiceCovidInsufficientData(t *testing.T) {
	rows := []dataset.Row{
		obs(1, "Engineering", "Science", "Civil Engineering", 20181, 6),
		obs(1, "Engineering", "Science", "Civil Engineering", 20191, 7),
	}
	svc := newAnalytics(t, rows)

	view, warn, err := svc.Covid(&model.FilterState{})
	require.NoError(t, err)
	assert.Equal(t, response.WarnInsufficientData, warn)
	require.NotNil(t, view)
	assert.NotNil(t, view.Pre)
	assert.Nil(t, view.Post)
	assert.Nil(t, view.MeanDiff)
	assert.Equal(t, "—", view.MeanDiffDisplay)
	assert.Nil(t, view.Welch)
}

func TestAnalyticsServiceOutliers(t *testing.T) {
	rows := []dataset.Row{
		obs(1, "Engineering", "Science", "Civil Engineering", 20181, 5),
		obs(2, "Engineering", "Science", "Civil Engineering", 20181, 5),
		obs(3, "Engineering", "Science", "Civil Engineering", 20191, 5),
		obs(4, "Engineering", "Science", "Civil Engineering", 20191, 5),
		obs(5, "Engineering", "Science", "Civil Engineering", 20191, 9),
	}
	svc := newAnalytics(t, rows)

	t.Run("partition-local fences", func(t *testing.T) {
		report, warn, err := svc.Outliers(&model.FilterState{}, "pre")
		require.NoError(t, err)
		assert.Empty(t, warn)
		require.NotNil(t, report)
		assert.Equal(t, "pre", report.Period)
		assert.Equal(t, 1, report.OutlierCount)
		require.Len(t, report.Outliers, 1)
		assert.Equal(t, int64(5), report.Outliers[0].StudentID)
	})

	t.Run("default period is all", func(t *testing.T) {
		report, _, err := svc.Outliers(&model.FilterState{}, "")
		require.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, "all", report.Period)
		assert.Equal(t, 5, report.Rows)
	})

	t.Run("empty partition", func(t *testing.T) {
		report, warn, err := svc.Outliers(&model.FilterState{}, "post")
		require.NoError(t, err)
		assert.Equal(t, response.WarnEmptySelection, warn)
		assert.Nil(t, report)
	})

	t.Run("unknown period", func(t *testing.T) {
		_, _, err := svc.Outliers(&model.FilterState{}, "during")
		assert.ErrorIs(t, err, dataset.ErrUnknownField)
	})
}

func TestAnalyticsServiceRankings(t *testing.T) {
	svc := newAnalytics(t, fixtureRows())

	entries, warn, err := svc.Rankings(&model.FilterState{}, "department")
	require.NoError(t, err)
	assert.Empty(t, warn)
	require.Len(t, entries, 2)
	assert.Equal(t, "Economics", entries[0].Group)
	assert.Equal(t, "1", entries[0].RankDisplay)

	_, _, err = svc.Rankings(&model.FilterState{}, "grade")
	assert.ErrorIs(t, err, dataset.ErrUnknownField)
}
