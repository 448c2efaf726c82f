// Package risk implements the readiness, overexertion, symptom and adherence
// scoring used by patient check-ins and the clinician dashboard.
package risk

import (
	"math"
)

// Readiness input defaults, used when a field is not supplied.
const (
	DefaultEnergyLevel = 5
	DefaultHeartRate   = 70
	DefaultSleepHours  = 7.0
	DefaultHRVMs       = 40
)

// ReadinessCategory is the band a readiness score falls into.
type ReadinessCategory string

const (
	ReadinessExcellent ReadinessCategory = "excellent"
	ReadinessGood      ReadinessCategory = "good"
	ReadinessFair      ReadinessCategory = "fair"
	ReadinessLow       ReadinessCategory = "low"
)

var readinessSuggestions = map[ReadinessCategory]string{
	ReadinessExcellent: "Great readiness! You can follow your full program today.",
	ReadinessGood:      "Good readiness. Moderate exercise recommended.",
	ReadinessFair:      "Moderate readiness. Consider a lighter session today.",
	ReadinessLow:       "Low readiness detected. Rest or very gentle walking only.",
}

// ReadinessInput holds the daily inputs of the readiness model. Nil fields
// take the package defaults.
//
// EnergyLevel is 1-10 where a higher value is a better day. It is scored
// directly, not inverted.
type ReadinessInput struct {
	EnergyLevel *int     `json:"energy_level,omitempty"`
	HeartRate   *int     `json:"heart_rate,omitempty"`
	SleepHours  *float64 `json:"sleep_hours,omitempty"`
	HRVMs       *int     `json:"hrv_ms,omitempty"`
}

// Readiness is the scored result.
type Readiness struct {
	Score      int               `json:"score"`
	Category   ReadinessCategory `json:"category"`
	Suggestion string            `json:"suggestion"`
}

// ScoreReadiness sums four sub-scores of at most 25 points each and rounds
// the total once.
func ScoreReadiness(in ReadinessInput) Readiness {
	energy := DefaultEnergyLevel
	if in.EnergyLevel != nil {
		energy = clamp(*in.EnergyLevel, 1, 10)
	}
	hr := DefaultHeartRate
	if in.HeartRate != nil {
		hr = *in.HeartRate
	}
	sleep := DefaultSleepHours
	if in.SleepHours != nil {
		sleep = *in.SleepHours
	}
	hrv := DefaultHRVMs
	if in.HRVMs != nil {
		hrv = *in.HRVMs
	}

	total := float64(energy)/10*25 + heartRatePoints(hr) + sleepPoints(sleep) + hrvPoints(hrv)
	score := int(math.Round(total))

	category := categorize(score)
	return Readiness{
		Score:      score,
		Category:   category,
		Suggestion: readinessSuggestions[category],
	}
}

func heartRatePoints(hr int) float64 {
	switch {
	case hr < 60:
		return 25
	case hr < 80:
		return 20
	case hr < 100:
		return 10
	default:
		return 5
	}
}

func sleepPoints(hours float64) float64 {
	switch {
	case hours >= 8:
		return 25
	case hours >= 7:
		return 20
	case hours >= 6:
		return 12
	default:
		return 5
	}
}

func hrvPoints(ms int) float64 {
	switch {
	case ms >= 50:
		return 25
	case ms >= 35:
		return 18
	case ms >= 20:
		return 10
	default:
		return 5
	}
}

func categorize(score int) ReadinessCategory {
	switch {
	case score >= 80:
		return ReadinessExcellent
	case score >= 60:
		return ReadinessGood
	case score >= 40:
		return ReadinessFair
	default:
		return ReadinessLow
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
