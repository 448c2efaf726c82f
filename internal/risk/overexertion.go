package risk

import (
	"errors"
)

// DefaultSafeMaxHR is the safe maximum heart rate used when none is configured.
const DefaultSafeMaxHR = 150

// ErrInvalidSafeMax is returned for a safe maximum heart rate of zero or less.
var ErrInvalidSafeMax = errors.New("safe max heart rate must be positive")

// Level is a generic risk tier.
type Level string

const (
	LevelCritical Level = "critical"
	LevelHigh     Level = "high"
	LevelModerate Level = "moderate"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelNone     Level = "none"
)

// Overexertion is the result of comparing an observed heart rate to the safe maximum.
type Overexertion struct {
	Risk    bool    `json:"risk"`
	Level   Level   `json:"level"`
	Message string  `json:"message"`
	Ratio   float64 `json:"ratio"`
}

// DetectOverexertion classifies observedHR/safeMax: above 0.85 is high,
// above 0.75 is medium, otherwise low.
func DetectOverexertion(observedHR, safeMax int) (Overexertion, error) {
	if safeMax <= 0 {
		return Overexertion{}, ErrInvalidSafeMax
	}

	ratio := float64(observedHR) / float64(safeMax)
	switch {
	case ratio > 0.85:
		return Overexertion{Risk: true, Level: LevelHigh, Ratio: ratio,
			Message: "Heart rate significantly above safe zone. Rest is recommended."}, nil
	case ratio > 0.75:
		return Overexertion{Risk: true, Level: LevelMedium, Ratio: ratio,
			Message: "Heart rate approaching upper limit of safe zone."}, nil
	default:
		return Overexertion{Risk: false, Level: LevelLow, Ratio: ratio,
			Message: "Heart rate within safe zone."}, nil
	}
}

// Color returns the display color for a risk level.
func Color(level Level) string {
	switch level {
	case LevelHigh, LevelCritical:
		return "#ef4444"
	case LevelMedium, LevelModerate:
		return "#f59e0b"
	case LevelLow, LevelNone:
		return "#10b981"
	default:
		return "#64748b"
	}
}
