package models

import (
	"time"
)

// SymptomType is a tag from the fixed symptom vocabulary.
type SymptomType string

const (
	SymptomChestPain    SymptomType = "chest_pain"
	SymptomDizziness    SymptomType = "dizziness"
	SymptomDyspnea      SymptomType = "dyspnea"
	SymptomPalpitations SymptomType = "palpitations"
)

// SymptomTypes lists the accepted symptom tags.
var SymptomTypes = []SymptomType{SymptomChestPain, SymptomDizziness, SymptomDyspnea, SymptomPalpitations}

// IsValid reports whether s belongs to the vocabulary.
func (s SymptomType) IsValid() bool {
	for _, t := range SymptomTypes {
		if s == t {
			return true
		}
	}
	return false
}

// SymptomSeverity is the patient-reported intensity.
type SymptomSeverity string

const (
	SeverityMild     SymptomSeverity = "mild"
	SeverityModerate SymptomSeverity = "moderate"
	SeveritySevere   SymptomSeverity = "severe"
)

// IsValid reports whether s is mild, moderate or severe.
func (s SymptomSeverity) IsValid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// SymptomReport is immutable once submitted.
type SymptomReport struct {
	ID          string          `json:"id"`
	PatientID   string          `json:"patient_id"`
	PatientName string          `json:"patient_name,omitempty"`
	Symptoms    []SymptomType   `json:"symptoms"`
	Severity    SymptomSeverity `json:"severity"`
	Notes       string          `json:"notes,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// HasSymptom reports whether the report carries tag t.
func (r *SymptomReport) HasSymptom(t SymptomType) bool {
	for _, s := range r.Symptoms {
		if s == t {
			return true
		}
	}
	return false
}
