package models

import (
	"time"
)

// Medication is a prescribed drug with an optional daily reminder.
type Medication struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Dose      string    `json:"dose"`
	TimeOfDay string    `json:"time_of_day"` // HH:MM
	Reminder  bool      `json:"reminder"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
