package risk

import (
	"time"

	"github.com/cenk2025/hardpath/internal/models"
)

// SymptomWindow is how far back the symptom flagger looks.
const SymptomWindow = 24 * time.Hour

const (
	reasonChestPain = "Chest pain reported: clinical review required immediately."
	reasonSevere    = "Severe symptoms reported. Immediate medical review recommended."
	reasonMultiple  = "Multiple symptoms reported in 24 hours. Doctor review advised."
)

// SymptomRisk is the triage outcome for a patient's recent reports.
type SymptomRisk struct {
	Flagged bool   `json:"flagged"`
	Level   Level  `json:"level"`
	Reason  string `json:"reason"`
}

// FlagSymptoms triages reports submitted in the 24 hours before now.
// Any chest pain or severe report is critical, two or more reports are
// moderate. Empty input yields level none.
func FlagSymptoms(reports []*models.SymptomReport, now time.Time) SymptomRisk {
	if len(reports) == 0 {
		return SymptomRisk{Level: LevelNone}
	}

	var recent, severe int
	chestPain := false
	for _, r := range reports {
		if now.Sub(r.Timestamp) >= SymptomWindow {
			continue
		}
		recent++
		if r.Severity == models.SeveritySevere {
			severe++
		}
		if r.HasSymptom(models.SymptomChestPain) {
			chestPain = true
		}
	}

	switch {
	case chestPain:
		return SymptomRisk{Flagged: true, Level: LevelCritical, Reason: reasonChestPain}
	case severe > 0:
		return SymptomRisk{Flagged: true, Level: LevelCritical, Reason: reasonSevere}
	case recent >= 2:
		return SymptomRisk{Flagged: true, Level: LevelModerate, Reason: reasonMultiple}
	default:
		return SymptomRisk{Level: LevelLow}
	}
}
