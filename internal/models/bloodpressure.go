package models

import (
	"time"
)

// BPPeriod is the part of day a blood-pressure reading belongs to.
type BPPeriod string

const (
	PeriodMorning BPPeriod = "morning"
	PeriodEvening BPPeriod = "evening"
)

// EveningFromHour is the first hour of the day classified as evening.
const EveningFromHour = 14

// PeriodAt classifies t by its hour in its own location.
func PeriodAt(t time.Time) BPPeriod {
	if t.Hour() >= EveningFromHour {
		return PeriodEvening
	}
	return PeriodMorning
}

// BloodPressureLog is a single reading, entered manually or synced from a wearable.
type BloodPressureLog struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name,omitempty"`
	Systolic    int       `json:"systolic"`
	Diastolic   int       `json:"diastolic"`
	Period      BPPeriod  `json:"period"`
	Notes       string    `json:"notes,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// BPLevel classifies a reading for display.
type BPLevel string

const (
	BPNormal   BPLevel = "normal"
	BPElevated BPLevel = "elevated"
	BPHigh     BPLevel = "high"
)

// Level returns high at systolic >= 140 or diastolic >= 90, elevated at
// systolic >= 130 or diastolic >= 80, else normal.
func (b *BloodPressureLog) Level() BPLevel {
	switch {
	case b.Systolic >= 140 || b.Diastolic >= 90:
		return BPHigh
	case b.Systolic >= 130 || b.Diastolic >= 80:
		return BPElevated
	default:
		return BPNormal
	}
}
