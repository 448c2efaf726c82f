package models

import (
	"time"
)

// DayLayout is the calendar-day key format used by daily metrics.
const DayLayout = "2006-01-02"

// MetricSource identifies what last wrote a daily metric row.
type MetricSource string

const (
	MetricSourceCheckin  MetricSource = "checkin"
	MetricSourceWearable MetricSource = "wearable"
)

// DailyMetric is one row per patient per calendar day. Patient-entered columns
// (energy level, readiness, symptoms) and wearable columns (resting HR, HRV,
// sleep) are written by separate upserts and never overwrite each other.
//
// EnergyLevel is the self-reported 1-10 value scored by the readiness model:
// higher means the patient feels better.
type DailyMetric struct {
	ID             string       `json:"id"`
	PatientID      string       `json:"patient_id"`
	PatientName    string       `json:"patient_name,omitempty"`
	Day            string       `json:"day"`
	RecordedAt     time.Time    `json:"recorded_at"`
	RestingHR      *int         `json:"resting_hr,omitempty"`
	HRVMs          *int         `json:"hrv_ms,omitempty"`
	SleepHours     *float64     `json:"sleep_hours,omitempty"`
	EnergyLevel    *int         `json:"energy_level,omitempty"`
	ReadinessScore *int         `json:"readiness_score,omitempty"`
	Symptoms       []string     `json:"symptoms,omitempty"`
	Source         MetricSource `json:"source"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// DayOf returns the UTC calendar-day key for t.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
