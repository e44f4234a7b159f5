package model

import "time"

// CovidPeriod labels a record as before or during/after the pandemic cutoff.
type CovidPeriod string

const (
	CovidPre  CovidPeriod = "Pre"
	CovidPost CovidPeriod = "Post"
)

// CovidThresholdYear is the first academic year counted as CovidPost.
const CovidThresholdYear = 2020

// CovidPeriodForYear derives the pandemic period from an academic year.
func CovidPeriodForYear(year int) CovidPeriod {
	if year >= CovidThresholdYear {
		return CovidPost
	}
	return CovidPre
}

// Record is one student-semester grade observation. JSON keys follow the
// canonical spreadsheet headers; Year and COVID_Period are derived at load
// time and never stored in the warehouse.
type Record struct {
	StudentID        int64       `json:"StudentID"`
	RegistrationYear int         `json:"RegistrationYear"`
	BirthYear        int         `json:"BirthYear"`
	Gender           string      `json:"Gender"`
	Origin           string      `json:"Origin"`
	Department       string      `json:"Department"`
	MajorType        string      `json:"Major_Type,omitempty"`
	Major            string      `json:"Major"`
	Semester         int         `json:"Semester"`
	Credits          float64     `json:"Credits"`
	Grade            float64     `json:"Grade"`
	Year             int         `json:"Year"`
	CovidPeriod      CovidPeriod `json:"COVID_Period"`
}

// DatasetInfo describes the currently loaded dataset.
type DatasetInfo struct {
	Source       string    `json:"source"`
	Rows         int       `json:"rows"`
	RowsDropped  int       `json:"rows_dropped"`
	HasMajorType bool      `json:"has_major_type"`
	Generation   uint64    `json:"generation"`
	LoadedAt     time.Time `json:"loaded_at"`
}
