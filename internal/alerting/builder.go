// Package alerting derives clinician alerts from recent symptom reports,
// daily metrics and blood-pressure logs.
//
// Alerts are never stored. Every fetch rebuilds them from the source rows
// of the last Window; only clinician resolutions are persisted.
package alerting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenk2025/hardpath/internal/models"
)

// Window is how far back source rows are considered.
const Window = 7 * 24 * time.Hour

// Thresholds applied to source rows.
const (
	HighHRThreshold       = 100 // resting HR strictly above
	HighHRSevere          = 110 // high severity at or above
	LowReadinessThreshold = 40  // readiness strictly below
	HighBPThreshold       = 140 // systolic at or above
	HighBPSevere          = 160 // high severity at or above
)

// Sources are the rows an alert list is built from. The storage queries
// already apply the thresholds; rows missing the measured value are skipped.
type Sources struct {
	Symptoms     []*models.SymptomReport
	HighHR       []*models.DailyMetric
	LowReadiness []*models.DailyMetric
	HighBP       []*models.BloodPressureLog
}

// Build maps every source row to one alert and sorts the result newest first.
// Ties are broken by key so repeated builds return the same order.
func Build(src Sources) []*models.Alert {
	alerts := make([]*models.Alert, 0, len(src.Symptoms)+len(src.HighHR)+len(src.LowReadiness)+len(src.HighBP))

	for _, s := range src.Symptoms {
		alerts = append(alerts, symptomAlert(s))
	}
	for _, m := range src.HighHR {
		if m.RestingHR == nil {
			continue
		}
		alerts = append(alerts, highHRAlert(m))
	}
	for _, m := range src.LowReadiness {
		if m.ReadinessScore == nil {
			continue
		}
		alerts = append(alerts, lowReadinessAlert(m))
	}
	for _, b := range src.HighBP {
		alerts = append(alerts, highBPAlert(b))
	}

	SortAlerts(alerts)
	return alerts
}

// SortAlerts orders alerts newest first, then by key.
func SortAlerts(alerts []*models.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if !alerts[i].Timestamp.Equal(alerts[j].Timestamp) {
			return alerts[i].Timestamp.After(alerts[j].Timestamp)
		}
		return alerts[i].Key < alerts[j].Key
	})
}

func newAlert(t models.AlertType, sourceID, patientID, patientName string, sev models.Severity, detail string, at time.Time) *models.Alert {
	return &models.Alert{
		Key:         models.AlertKey(t, sourceID),
		Type:        t,
		SourceID:    sourceID,
		PatientID:   patientID,
		PatientName: patientName,
		Severity:    sev,
		Detail:      detail,
		Timestamp:   at,
	}
}

func symptomAlert(s *models.SymptomReport) *models.Alert {
	sev := models.SeverityMedium
	if s.Severity == models.SeveritySevere {
		sev = models.SeverityHigh
	}

	tags := make([]string, len(s.Symptoms))
	for i, t := range s.Symptoms {
		tags[i] = string(t)
	}
	detail := fmt.Sprintf("%s: %s", strings.ToUpper(string(s.Severity)), strings.Join(tags, ", "))
	if s.Notes != "" {
		detail += " - " + s.Notes
	}
	return newAlert(models.AlertSymptom, s.ID, s.PatientID, s.PatientName, sev, detail, s.Timestamp)
}

func highHRAlert(m *models.DailyMetric) *models.Alert {
	hr := *m.RestingHR
	sev := models.SeverityMedium
	if hr >= HighHRSevere {
		sev = models.SeverityHigh
	}
	detail := fmt.Sprintf("Resting HR %d bpm, above %d bpm.", hr, HighHRThreshold)
	return newAlert(models.AlertHighHR, m.ID, m.PatientID, m.PatientName, sev, detail, m.RecordedAt)
}

func lowReadinessAlert(m *models.DailyMetric) *models.Alert {
	detail := fmt.Sprintf("Readiness score %d/100, below %d.", *m.ReadinessScore, LowReadinessThreshold)
	return newAlert(models.AlertLowReadiness, m.ID, m.PatientID, m.PatientName, models.SeverityHigh, detail, m.RecordedAt)
}

func highBPAlert(b *models.BloodPressureLog) *models.Alert {
	sev := models.SeverityMedium
	if b.Systolic >= HighBPSevere {
		sev = models.SeverityHigh
	}
	detail := fmt.Sprintf("Blood pressure %d/%d mmHg (%s).", b.Systolic, b.Diastolic, b.Period)
	return newAlert(models.AlertHighBP, b.ID, b.PatientID, b.PatientName, sev, detail, b.RecordedAt)
}
