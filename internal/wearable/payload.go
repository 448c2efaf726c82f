// Package wearable ingests data pushed by the wearable integration vendor
// and drives the provider connect flow.
package wearable

// EventType is the vendor webhook event type.
type EventType string

const (
	EventAuth     EventType = "auth"
	EventDeauth   EventType = "deauth"
	EventDaily    EventType = "daily"
	EventActivity EventType = "activity"
	EventBody     EventType = "body"
)

// Payload is a webhook delivery. Only the fields used for ingestion are decoded.
type Payload struct {
	Type EventType    `json:"type"`
	User *PayloadUser `json:"user"`
	Data []DayEntry   `json:"data"`
}

// PayloadUser identifies the vendor account. ReferenceID is the patient id
// supplied when the connect session was created.
type PayloadUser struct {
	UserID      string `json:"user_id"`
	ReferenceID string `json:"reference_id"`
	Provider    string `json:"provider"`
}

// ReferenceID returns the patient reference, or "" when absent.
func (p *Payload) ReferenceID() string {
	if p.User == nil {
		return ""
	}
	return p.User.ReferenceID
}

// Provider returns the provider named in the payload, or "" when absent.
func (p *Payload) Provider() string {
	if p.User == nil {
		return ""
	}
	return p.User.Provider
}

// DayEntry is one element of Payload.Data.
type DayEntry struct {
	Metadata           *EntryMetadata      `json:"metadata"`
	HeartRateData      *HeartRateData      `json:"heart_rate_data"`
	HRVData            *HRVData            `json:"hrv_data"`
	SleepDurationsData *SleepDurationsData `json:"sleep_durations_data"`
	BloodPressureData  *BloodPressureData  `json:"blood_pressure_data"`
}

type EntryMetadata struct {
	StartTime string `json:"start_time"`
}

type HeartRateData struct {
	Summary  *HeartRateSummary  `json:"summary"`
	Detailed *HeartRateDetailed `json:"detailed"`
}

type HeartRateSummary struct {
	AvgHRBPM    *float64 `json:"avg_hr_bpm"`
	AvgHRVRMSSD *float64 `json:"avg_hrv_rmssd"`
}

type HeartRateDetailed struct {
	HRSamples []HRSample `json:"hr_samples"`
}

type HRSample struct {
	BPM *float64 `json:"bpm"`
}

type HRVData struct {
	Summary *HRVSummary `json:"summary"`
}

type HRVSummary struct {
	AvgRMSSD *float64 `json:"avg_rmssd"`
}

type SleepDurationsData struct {
	Asleep *AsleepDurations `json:"asleep"`
}

type AsleepDurations struct {
	DurationAsleepStateSeconds *float64 `json:"duration_asleep_state_seconds"`
}

type BloodPressureData struct {
	Samples []BloodPressureSample `json:"blood_pressure_samples"`
}

type BloodPressureSample struct {
	SystolicBPM  *float64 `json:"systolic_bpm"`
	DiastolicBPM *float64 `json:"diastolic_bpm"`
	Timestamp    string   `json:"timestamp"`
}
