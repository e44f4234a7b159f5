// Package aggregate computes the dashboard's grouped statistics over an
// immutable dataset table. Every function takes the table it is given as the
// whole population: callers filter or partition first, then aggregate.
package aggregate

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/edanalytica/gradelens-backend/internal/dataset"
	"github.com/edanalytica/gradelens-backend/internal/model"
	"github.com/edanalytica/gradelens-backend/internal/stats"
)

// Grades extracts the grade column in input order.
func Grades(t *dataset.Table) []float64 {
	grades := make([]float64, 0, t.Len())
	for _, r := range t.Records() {
		grades = append(grades, r.Grade)
	}
	return grades
}

// TrendByYear returns the mean grade per academic year, years ascending.
// Years with no rows are omitted, never zero-filled.
func TrendByYear(t *dataset.Table) []model.TrendPoint {
	type acc struct {
		sum   float64
		count int
	}
	byYear := map[int]*acc{}
	for _, r := range t.Records() {
		a := byYear[r.Year]
		if a == nil {
			a = &acc{}
			byYear[r.Year] = a
		}
		a.sum += r.Grade
		a.count++
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	points := make([]model.TrendPoint, 0, len(years))
	for _, y := range years {
		a := byYear[y]
		points = append(points, model.TrendPoint{
			Year:      y,
			MeanGrade: a.sum / float64(a.count),
			Count:     a.count,
		})
	}
	return points
}

func validateCategorical(t *dataset.Table, f dataset.Field) error {
	if !f.IsCategorical() {
		return fmt.Errorf("%w: %q is not a categorical field", dataset.ErrUnknownField, f)
	}
	if f == dataset.FieldMajorType && !t.HasMajorType() {
		return fmt.Errorf("%w: %s", dataset.ErrFieldUnavailable, f)
	}
	return nil
}

// TrendByCategory returns one per-year trend series for every value of a
// categorical field, categories sorted. Grouping on Major_Type requires the
// source to carry the column.
func TrendByCategory(t *dataset.Table, f dataset.Field) ([]model.CategoryTrend, error) {
	if err := validateCategorical(t, f); err != nil {
		return nil, err
	}

	type acc struct {
		sum   float64
		count int
	}
	byCategory := map[string]map[int]*acc{}
	for i := range t.Records() {
		r := &t.Records()[i]
		v, err := dataset.CategoricalValue(r, f)
		if err != nil {
			return nil, err
		}
		years := byCategory[v]
		if years == nil {
			years = map[int]*acc{}
			byCategory[v] = years
		}
		a := years[r.Year]
		if a == nil {
			a = &acc{}
			years[r.Year] = a
		}
		a.sum += r.Grade
		a.count++
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	trends := make([]model.CategoryTrend, 0, len(categories))
	for _, c := range categories {
		byYear := byCategory[c]
		years := make([]int, 0, len(byYear))
		for y := range byYear {
			years = append(years, y)
		}
		sort.Ints(years)

		points := make([]model.TrendPoint, 0, len(years))
		for _, y := range years {
			a := byYear[y]
			points = append(points, model.TrendPoint{
				Year:      y,
				MeanGrade: a.sum / float64(a.count),
				Count:     a.count,
			})
		}
		trends = append(trends, model.CategoryTrend{Category: c, Points: points})
	}
	return trends, nil
}

// StudentRollups condenses the table to one row per student, ordered by
// StudentID. Identity attributes keep the first value seen in input order;
// any later disagreement is reported once per student and field as a
// data-quality conflict.
func StudentRollups(t *dataset.Table) ([]model.StudentRollup, []model.RollupConflict) {
	type acc struct {
		first     model.Record
		semesters map[int]struct{}
		credits   float64
		gradeSum  float64
		rows      int
	}
	byStudent := map[int64]*acc{}
	conflicts := []model.RollupConflict{}
	seenConflict := map[string]struct{}{}

	for _, r := range t.Records() {
		a := byStudent[r.StudentID]
		if a == nil {
			a = &acc{first: r, semesters: map[int]struct{}{}}
			byStudent[r.StudentID] = a
		} else {
			for _, pair := range identityPairs(&a.first, &r) {
				if pair.first == pair.current {
					continue
				}
				key := strconv.FormatInt(r.StudentID, 10) + ":" + pair.field
				if _, dup := seenConflict[key]; dup {
					continue
				}
				seenConflict[key] = struct{}{}
				conflicts = append(conflicts, model.RollupConflict{
					StudentID:   r.StudentID,
					Field:       pair.field,
					FirstSeen:   pair.first,
					Conflicting: pair.current,
				})
			}
		}
		a.semesters[r.Semester] = struct{}{}
		a.credits += r.Credits
		a.gradeSum += r.Grade
		a.rows++
	}

	ids := make([]int64, 0, len(byStudent))
	for id := range byStudent {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rollups := make([]model.StudentRollup, 0, len(ids))
	for _, id := range ids {
		a := byStudent[id]
		rollups = append(rollups, model.StudentRollup{
			StudentID:        id,
			RegistrationYear: a.first.RegistrationYear,
			BirthYear:        a.first.BirthYear,
			Gender:           a.first.Gender,
			Origin:           a.first.Origin,
			Department:       a.first.Department,
			MajorType:        a.first.MajorType,
			Major:            a.first.Major,
			Semesters:        len(a.semesters),
			TotalCredits:     a.credits,
			MeanGrade:        a.gradeSum / float64(a.rows),
		})
	}
	return rollups, conflicts
}

type fieldPair struct {
	field   string
	first   string
	current string
}

func identityPairs(first, current *model.Record) []fieldPair {
	return []fieldPair{
		{string(dataset.FieldRegistrationYear), strconv.Itoa(first.RegistrationYear), strconv.Itoa(current.RegistrationYear)},
		{string(dataset.FieldBirthYear), strconv.Itoa(first.BirthYear), strconv.Itoa(current.BirthYear)},
		{string(dataset.FieldGender), first.Gender, current.Gender},
		{string(dataset.FieldOrigin), first.Origin, current.Origin},
		{string(dataset.FieldDepartment), first.Department, current.Department},
		{string(dataset.FieldMajorType), first.MajorType, current.MajorType},
		{string(dataset.FieldMajor), first.Major, current.Major},
	}
}

// RankByMeanGrade ranks the values of a categorical field by mean grade,
// rank 1 highest. Exactly tied means share the average of the positions they
// span; ties keep a stable alphabetical order.
func RankByMeanGrade(t *dataset.Table, f dataset.Field) ([]model.RankEntry, error) {
	if err := validateCategorical(t, f); err != nil {
		return nil, err
	}

	type acc struct {
		sum   float64
		count int
	}
	byGroup := map[string]*acc{}
	for i := range t.Records() {
		v, err := dataset.CategoricalValue(&t.Records()[i], f)
		if err != nil {
			return nil, err
		}
		a := byGroup[v]
		if a == nil {
			a = &acc{}
			byGroup[v] = a
		}
		a.sum += t.Records()[i].Grade
		a.count++
	}

	entries := make([]model.RankEntry, 0, len(byGroup))
	for g, a := range byGroup {
		entries = append(entries, model.RankEntry{
			Group:     g,
			Count:     a.count,
			MeanGrade: a.sum / float64(a.count),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MeanGrade != entries[j].MeanGrade {
			return entries[i].MeanGrade > entries[j].MeanGrade
		}
		return entries[i].Group < entries[j].Group
	})

	means := make([]float64, len(entries))
	for i := range entries {
		means[i] = entries[i].MeanGrade
	}
	ranks := stats.AverageRanks(means)
	for i := range entries {
		entries[i].Rank = ranks[i]
	}
	return entries, nil
}

// GradesByPeriod splits the grade column at the pandemic cutoff.
func GradesByPeriod(t *dataset.Table) (pre, post []float64) {
	for _, r := range t.Records() {
		if r.CovidPeriod == model.CovidPost {
			post = append(post, r.Grade)
		} else {
			pre = append(pre, r.Grade)
		}
	}
	return pre, post
}

// IQROutliers lists the rows of the given partition whose grade falls outside
// the partition's own Tukey fences. Quartiles are computed from this
// partition alone; partition first, then call. An empty partition has no
// report.
func IQROutliers(t *dataset.Table, period string) *model.OutlierReport {
	grades := Grades(t)
	if len(grades) == 0 {
		return nil
	}
	f := stats.IQRFences(grades)

	outliers := []model.Record{}
	for _, r := range t.Records() {
		if r.Grade < f.Lower || r.Grade > f.Upper {
			outliers = append(outliers, r)
		}
	}
	return &model.OutlierReport{
		Period: period,
		Fences: model.FenceStats{
			Q1:         f.Q1,
			Q3:         f.Q3,
			IQR:        f.IQR,
			LowerFence: f.Lower,
			UpperFence: f.Upper,
		},
		Rows:         t.Len(),
		OutlierCount: len(outliers),
		Outliers:     outliers,
	}
}

// DescribeField computes descriptive statistics over a numeric column.
func DescribeField(t *dataset.Table, f dataset.Field) (stats.Summary, error) {
	if !f.IsNumeric() {
		return stats.Summary{}, fmt.Errorf("%w: %q is not a numeric field", dataset.ErrUnknownField, f)
	}
	xs := make([]float64, 0, t.Len())
	for i := range t.Records() {
		v, err := dataset.NumericValue(&t.Records()[i], f)
		if err != nil {
			return stats.Summary{}, err
		}
		xs = append(xs, v)
	}
	return stats.Describe(xs), nil
}
