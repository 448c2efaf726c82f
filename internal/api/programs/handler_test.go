package programs

import (
	"testing"

	"github.com/cenk2025/hardpath/internal/models"
)

func TestAdherenceOf_IgnoresFutureSessions(t *testing.T) {
	sessions := []*models.Session{
		{Date: "2026-03-01", Completed: true},
		{Date: "2026-03-03", Completed: true},
		{Date: "2026-03-05", Completed: false},
		{Date: "2026-03-08", Completed: false},
		{Date: "2026-03-10", Completed: false},
	}
	got := AdherenceOf(sessions, "2026-03-05")
	if got.Percent != 67 || !got.Warning || got.Message != "" {
		t.Errorf("AdherenceOf() = %+v, want 67%% warning without message", got)
	}
}

func TestAdherenceOf_NothingDue(t *testing.T) {
	got := AdherenceOf([]*models.Session{{Date: "2026-04-01"}}, "2026-03-01")
	if got.Percent != 0 || got.Message != "No activity recorded yet." {
		t.Errorf("AdherenceOf() = %+v", got)
	}
}

func TestProgramRequest_Validate(t *testing.T) {
	valid := ProgramRequest{Name: "Phase II", DurationWeeks: 12, Intensity: "moderate", SessionsPerWeek: 3}
	tests := []struct {
		name   string
		mutate func(*ProgramRequest)
		want   string
	}{
		{"valid", func(*ProgramRequest) {}, ""},
		{"name", func(p *ProgramRequest) { p.Name = " " }, "name is required"},
		{"weeks", func(p *ProgramRequest) { p.DurationWeeks = 0 }, "duration_weeks must be between 1 and 52"},
		{"per week", func(p *ProgramRequest) { p.SessionsPerWeek = 8 }, "sessions_per_week must be between 1 and 7"},
		{"intensity", func(p *ProgramRequest) { p.Intensity = "extreme" }, "intensity must be one of: low, moderate, high"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			if got := req.Validate(); got != tc.want {
				t.Errorf("Validate() = %q, want %q", got, tc.want)
			}
		})
	}
}
