package model

// TrendPoint is the mean grade of every record observed in one academic year.
type TrendPoint struct {
	Year      int     `json:"year"`
	MeanGrade float64 `json:"mean_grade"`
	Count     int     `json:"count"`
}

// CategoryTrend is a per-year trend series for one value of a categorical
// field, e.g. one department.
type CategoryTrend struct {
	Category string       `json:"category"`
	Points   []TrendPoint `json:"points"`
}

// RankEntry ranks one group by mean grade. Rank 1 is the highest mean; tied
// means share the average of the positions they span, so a rank may be
// fractional.
type RankEntry struct {
	Group       string  `json:"group"`
	Count       int     `json:"count"`
	MeanGrade   float64 `json:"mean_grade"`
	Rank        float64 `json:"rank"`
	RankDisplay string  `json:"rank_display"`
}

// StudentRollup condenses all observations of one student into a single row.
// Identity attributes keep the first value seen in input order.
type StudentRollup struct {
	StudentID        int64   `json:"StudentID"`
	RegistrationYear int     `json:"RegistrationYear"`
	BirthYear        int     `json:"BirthYear"`
	Gender           string  `json:"Gender"`
	Origin           string  `json:"Origin"`
	Department       string  `json:"Department"`
	MajorType        string  `json:"Major_Type,omitempty"`
	Major            string  `json:"Major"`
	Semesters        int     `json:"semesters_observed"`
	TotalCredits     float64 `json:"total_credits"`
	MeanGrade        float64 `json:"mean_grade"`
}

// RollupConflict reports a student attribute that is not constant across the
// student's rows. The first value seen wins in the rollup; the conflict is
// surfaced as a data-quality signal.
type RollupConflict struct {
	StudentID   int64  `json:"StudentID"`
	Field       string `json:"field"`
	FirstSeen   string `json:"first_seen"`
	Conflicting string `json:"conflicting"`
}

// FenceStats carries the quartiles and Tukey fences of one partition.
type FenceStats struct {
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	LowerFence float64 `json:"lower_fence"`
	UpperFence float64 `json:"upper_fence"`
}

// OutlierReport lists the rows of one partition whose grade falls outside the
// partition's own Tukey fences.
type OutlierReport struct {
	Period       string     `json:"period"`
	Fences       FenceStats `json:"fences"`
	Rows         int        `json:"rows"`
	OutlierCount int        `json:"outlier_count"`
	Outliers     []Record   `json:"outliers"`
}
