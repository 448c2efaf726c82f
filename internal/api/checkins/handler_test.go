package checkins

import (
	"net/http/httptest"
	"testing"

	"github.com/cenk2025/hardpath/internal/models"
)

func TestCheckinRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  CheckinRequest
		want string
	}{
		{"valid", CheckinRequest{EnergyLevel: models.IntPtr(7), Symptoms: []string{"dizziness"}}, ""},
		{"missing energy", CheckinRequest{}, "energy_level is required"},
		{"energy too high", CheckinRequest{EnergyLevel: models.IntPtr(11)}, "energy_level must be between 1 and 10"},
		{"heart rate", CheckinRequest{EnergyLevel: models.IntPtr(5), HeartRate: models.IntPtr(10)}, "heart_rate must be between 30 and 220"},
		{"sleep", CheckinRequest{EnergyLevel: models.IntPtr(5), SleepHours: models.FloatPtr(25)}, "sleep_hours must be between 0 and 24"},
		{"hrv", CheckinRequest{EnergyLevel: models.IntPtr(5), HRVMs: models.IntPtr(0)}, "hrv_ms must be between 1 and 300"},
		{"symptom", CheckinRequest{EnergyLevel: models.IntPtr(5), Symptoms: []string{"headache"}}, "unknown symptom: headache"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.req.Validate(); got != tc.want {
				t.Errorf("Validate() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHistoryDays(t *testing.T) {
	tests := []struct {
		query  string
		want   int
		wantOK bool
	}{
		{"", 30, true},
		{"?days=7", 7, true},
		{"?days=365", 365, true},
		{"?days=0", 0, false},
		{"?days=366", 0, false},
		{"?days=week", 0, false},
	}
	for _, tc := range tests {
		got, ok := HistoryDays(httptest.NewRequest("GET", "/checkins"+tc.query, nil))
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("HistoryDays(%q) = %d,%v want %d,%v", tc.query, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestReadinessInputOf(t *testing.T) {
	if in := ReadinessInputOf(nil); in.EnergyLevel != nil || in.HeartRate != nil {
		t.Error("nil row should map to defaults")
	}
	m := &models.DailyMetric{EnergyLevel: models.IntPtr(8), RestingHR: models.IntPtr(62), SleepHours: models.FloatPtr(7.5)}
	in := ReadinessInputOf(m)
	if *in.EnergyLevel != 8 || *in.HeartRate != 62 || *in.SleepHours != 7.5 || in.HRVMs != nil {
		t.Errorf("ReadinessInputOf() = %+v", in)
	}
}
