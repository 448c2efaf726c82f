package risk

import (
	"fmt"
	"math"
)

// SessionRecord is the completion state of one scheduled session.
type SessionRecord struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// Adherence summarizes session completion.
type Adherence struct {
	Percent int    `json:"adherence_percent"`
	Warning bool   `json:"warning"`
	Message string `json:"message"`
}

// AnalyzeAdherence returns the rounded completion percentage. Below 50% the
// warning carries a message; 50-74% warns without one.
func AnalyzeAdherence(sessions []SessionRecord) Adherence {
	if len(sessions) == 0 {
		return Adherence{Warning: true, Message: "No activity recorded yet."}
	}

	completed := 0
	for _, s := range sessions {
		if s.Completed {
			completed++
		}
	}
	pct := int(math.Round(100 * float64(completed) / float64(len(sessions))))

	if pct < 50 {
		return Adherence{
			Percent: pct,
			Warning: true,
			Message: fmt.Sprintf("Adherence at %d%%. Patient may need motivational support.", pct),
		}
	}
	return Adherence{Percent: pct, Warning: pct < 75}
}
