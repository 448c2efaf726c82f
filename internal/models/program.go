package models

import (
	"time"
)

// Intensity of a rehabilitation program.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// IsValid reports whether i is a known intensity.
func (i Intensity) IsValid() bool {
	switch i {
	case IntensityLow, IntensityModerate, IntensityHigh:
		return true
	}
	return false
}

// RehabProgram is a clinician-authored exercise plan.
type RehabProgram struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	DurationWeeks int       `json:"duration_weeks"`
	Intensity     Intensity `json:"intensity"`
	SessionsPerWk int       `json:"sessions_per_week"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Session is one scheduled exercise session of an assigned program.
type Session struct {
	ID          string     `json:"id"`
	PatientID   string     `json:"patient_id"`
	ProgramID   string     `json:"program_id"`
	Date        string     `json:"date"` // YYYY-MM-DD
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Schedule lays out DurationWeeks x SessionsPerWk sessions starting on the
// day of start, spread evenly inside each week.
func (p *RehabProgram) Schedule(start time.Time) []*Session {
	perWeek := p.SessionsPerWk
	if perWeek <= 0 {
		perWeek = 3
	}
	if perWeek > 7 {
		perWeek = 7
	}
	step := 7 / perWeek
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	sessions := make([]*Session, 0, p.DurationWeeks*perWeek)
	for w := 0; w < p.DurationWeeks; w++ {
		for i := 0; i < perWeek; i++ {
			day := first.AddDate(0, 0, w*7+i*step)
			sessions = append(sessions, &Session{ProgramID: p.ID, Date: day.Format(DayLayout)})
		}
	}
	return sessions
}
