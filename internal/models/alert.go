package models

import (
	"time"
)

// AlertType is the source of a derived alert.
type AlertType string

const (
	AlertSymptom      AlertType = "symptom"
	AlertHighHR       AlertType = "high_hr"
	AlertHighBP       AlertType = "high_bp"
	AlertLowReadiness AlertType = "low_readiness"
	AlertCustom       AlertType = "custom"
)

// Severity is an alert severity tier.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity maps a string to a Severity, defaulting to medium.
func ParseSeverity(s string) Severity {
	if s == string(SeverityHigh) {
		return SeverityHigh
	}
	return SeverityMedium
}

// Alert is derived from source rows on every fetch. Only its resolution is stored.
type Alert struct {
	Key         string     `json:"key"`
	Type        AlertType  `json:"type"`
	SourceID    string     `json:"source_id"`
	PatientID   string     `json:"patient_id"`
	PatientName string     `json:"patient_name"`
	Severity    Severity   `json:"severity"`
	Detail      string     `json:"detail"`
	Timestamp   time.Time  `json:"timestamp"`
	Resolved    bool       `json:"resolved"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// AlertKey composes the stable identifier of an alert from its source.
func AlertKey(t AlertType, sourceID string) string {
	return string(t) + "-" + sourceID
}

// AlertResolution is the clinician acknowledgement of an alert.
type AlertResolution struct {
	AlertKey   string    `json:"alert_key"`
	ResolvedBy string    `json:"resolved_by"`
	ResolvedAt time.Time `json:"resolved_at"`
	Note       string    `json:"note,omitempty"`
}
