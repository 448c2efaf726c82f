package wearable

import (
	"math"
	"time"

	"github.com/cenk2025/hardpath/internal/models"
)

// Skip reasons reported by Normalize.
const (
	SkipNoMetrics        = "no_metrics"
	SkipInvalidStartTime = "invalid_start_time"
	SkipIncompleteBP     = "incomplete_bp"
	SkipInvalidTimestamp = "invalid_timestamp"
)

// MetricUpdate carries the wearable-origin fields for one patient day.
// Nil fields were absent from the payload and must not overwrite stored values.
type MetricUpdate struct {
	Day        string
	RecordedAt time.Time
	RestingHR  *int
	HRVMs      *int
	SleepHours *float64
}

// BloodPressureEntry is one complete blood-pressure sample.
type BloodPressureEntry struct {
	Systolic   int
	Diastolic  int
	Period     models.BPPeriod
	RecordedAt time.Time
}

// Skip records a dropped entry. Sample is -1 for day-level skips.
type Skip struct {
	Entry  int
	Sample int
	Reason string
}

// Normalized is the result of Normalize.
type Normalized struct {
	Metrics       []MetricUpdate
	BloodPressure []BloodPressureEntry
	Skipped       []Skip
}

// Normalize converts a webhook payload into metric updates and blood-pressure
// entries. Day and activity events produce metrics, body events produce blood
// pressure; other event types produce nothing. now supplies the day key and
// timestamps when the payload omits them.
func Normalize(p *Payload, now time.Time) Normalized {
	var out Normalized
	switch p.Type {
	case EventDaily, EventActivity:
		for i := range p.Data {
			m, reason := normalizeDay(&p.Data[i], now)
			if reason != "" {
				out.Skipped = append(out.Skipped, Skip{Entry: i, Sample: -1, Reason: reason})
				continue
			}
			out.Metrics = append(out.Metrics, m)
		}
	case EventBody:
		for i := range p.Data {
			bp := p.Data[i].BloodPressureData
			if bp == nil {
				continue
			}
			for j := range bp.Samples {
				e, reason := normalizeBloodPressure(&bp.Samples[j], now)
				if reason != "" {
					out.Skipped = append(out.Skipped, Skip{Entry: i, Sample: j, Reason: reason})
					continue
				}
				out.BloodPressure = append(out.BloodPressure, e)
			}
		}
	}
	return out
}

func normalizeDay(d *DayEntry, now time.Time) (MetricUpdate, string) {
	day := models.DayOf(now)
	if d.Metadata != nil && d.Metadata.StartTime != "" {
		if len(d.Metadata.StartTime) < 10 {
			return MetricUpdate{}, SkipInvalidStartTime
		}
		if _, err := time.Parse(models.DayLayout, d.Metadata.StartTime[:10]); err != nil {
			return MetricUpdate{}, SkipInvalidStartTime
		}
		day = d.Metadata.StartTime[:10]
	}

	m := MetricUpdate{
		RestingHR:  restingHR(d.HeartRateData),
		HRVMs:      hrv(d),
		SleepHours: sleepHours(d.SleepDurationsData),
	}
	if m.RestingHR == nil && m.HRVMs == nil && m.SleepHours == nil {
		return MetricUpdate{}, SkipNoMetrics
	}

	// Parsed above or taken from now, so it is always a valid day.
	recorded, _ := time.Parse(time.RFC3339, day+"T08:00:00Z")
	m.Day = day
	m.RecordedAt = recorded
	return m, ""
}

// restingHR prefers the provider's summary average and falls back to the
// mean of the detailed samples.
func restingHR(hr *HeartRateData) *int {
	if hr == nil {
		return nil
	}
	if hr.Summary != nil && positive(hr.Summary.AvgHRBPM) {
		return roundInt(*hr.Summary.AvgHRBPM)
	}
	if hr.Detailed == nil {
		return nil
	}
	var sum float64
	var n int
	for _, s := range hr.Detailed.HRSamples {
		if s.BPM == nil {
			continue
		}
		sum += *s.BPM
		n++
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(sum / float64(n))
	if avg <= 0 {
		return nil
	}
	return models.IntPtr(int(avg))
}

func hrv(d *DayEntry) *int {
	if d.HeartRateData != nil && d.HeartRateData.Summary != nil && positive(d.HeartRateData.Summary.AvgHRVRMSSD) {
		return roundInt(*d.HeartRateData.Summary.AvgHRVRMSSD)
	}
	if d.HRVData != nil && d.HRVData.Summary != nil && positive(d.HRVData.Summary.AvgRMSSD) {
		return roundInt(*d.HRVData.Summary.AvgRMSSD)
	}
	return nil
}

func sleepHours(s *SleepDurationsData) *float64 {
	if s == nil || s.Asleep == nil || !positive(s.Asleep.DurationAsleepStateSeconds) {
		return nil
	}
	hours := math.Round(*s.Asleep.DurationAsleepStateSeconds/3600*10) / 10
	return models.FloatPtr(hours)
}

func normalizeBloodPressure(s *BloodPressureSample, now time.Time) (BloodPressureEntry, string) {
	if !positive(s.SystolicBPM) || !positive(s.DiastolicBPM) {
		return BloodPressureEntry{}, SkipIncompleteBP
	}

	e := BloodPressureEntry{
		Systolic:   int(math.Round(*s.SystolicBPM)),
		Diastolic:  int(math.Round(*s.DiastolicBPM)),
		Period:     models.PeriodMorning,
		RecordedAt: now.UTC(),
	}
	if s.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, s.Timestamp)
		if err != nil {
			return BloodPressureEntry{}, SkipInvalidTimestamp
		}
		// The hour is read in the sample's own offset, the device's local time.
		e.Period = models.PeriodAt(ts)
		e.RecordedAt = ts.UTC()
	}
	return e, ""
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}

func roundInt(v float64) *int {
	return models.IntPtr(int(math.Round(v)))
}
