package risk

import (
	"time"
)

var dailyTips = []string{
	"Remember to stay hydrated during exercise.",
	"Cool down for 5 minutes after each session.",
	"Log your symptoms promptly so your doctor can support you.",
	"Consistency is more important than intensity in cardiac rehab.",
	"Your progress charts are looking great, keep it up!",
}

// Insight is the daily summary shown on the patient dashboard.
type Insight struct {
	Readiness  int               `json:"readiness"`
	Category   ReadinessCategory `json:"category"`
	Suggestion string            `json:"suggestion"`
	Tip        string            `json:"tip"`
}

// DailyInsight scores in and picks the tip for the UTC day containing now.
func DailyInsight(in ReadinessInput, now time.Time) Insight {
	r := ScoreReadiness(in)
	idx := int((now.Unix() / 86400) % int64(len(dailyTips)))
	if idx < 0 {
		idx += len(dailyTips)
	}
	return Insight{
		Readiness:  r.Score,
		Category:   r.Category,
		Suggestion: r.Suggestion,
		Tip:        dailyTips[idx],
	}
}
