package models

import (
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"admin":     RoleAdmin,
		"clinician": RoleClinician,
		"doctor":    RoleClinician,
		"patient":   RolePatient,
		"":          RolePatient,
		"root":      RolePatient,
	}
	for in, want := range tests {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestUser_DisplayName(t *testing.T) {
	u := NewUser("ayse@example.com", "", RolePatient)
	if got := u.DisplayName(); got != "ayse@example.com" {
		t.Errorf("DisplayName() = %q", got)
	}
	u.FullName = "Ayse Demir"
	if got := u.DisplayName(); got != "Ayse Demir" {
		t.Errorf("DisplayName() = %q", got)
	}
	if u.Language != "en" {
		t.Errorf("default language = %q, want en", u.Language)
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in     string
		want   Provider
		wantOK bool
	}{
		{"GARMIN", "GARMIN", true},
		{" garmin ", "GARMIN", true},
		{"oura", "OURA", true},
		{"nokia", "NOKIA", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseProvider(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ParseProvider(%q) = %s,%v want %s,%v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestBloodPressureLevel(t *testing.T) {
	tests := []struct {
		sys, dia int
		want     BPLevel
	}{
		{118, 76, BPNormal},
		{132, 70, BPElevated},
		{120, 82, BPElevated},
		{141, 70, BPHigh},
		{125, 95, BPHigh},
	}
	for _, tc := range tests {
		b := &BloodPressureLog{Systolic: tc.sys, Diastolic: tc.dia}
		if got := b.Level(); got != tc.want {
			t.Errorf("Level(%d/%d) = %s, want %s", tc.sys, tc.dia, got, tc.want)
		}
	}
}

func TestSymptomVocabulary(t *testing.T) {
	if !SymptomChestPain.IsValid() || SymptomType("headache").IsValid() {
		t.Error("symptom vocabulary check failed")
	}
	if !SeveritySevere.IsValid() || SymptomSeverity("extreme").IsValid() {
		t.Error("severity check failed")
	}
	r := &SymptomReport{Symptoms: []SymptomType{SymptomDizziness, SymptomChestPain}}
	if !r.HasSymptom(SymptomChestPain) || r.HasSymptom(SymptomDyspnea) {
		t.Error("HasSymptom mismatch")
	}
}

func TestAlertKey(t *testing.T) {
	if got := AlertKey(AlertHighHR, "abc"); got != "high_hr-abc" {
		t.Errorf("AlertKey() = %q", got)
	}
}

func TestRefreshToken(t *testing.T) {
	tok, plain, err := NewRefreshToken("u1", time.Hour)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if tok.TokenHash != HashToken(plain) {
		t.Error("stored hash does not match plaintext")
	}
	if !tok.IsValid() {
		t.Error("fresh token should be valid")
	}
	tok.Revoked = true
	if tok.IsValid() {
		t.Error("revoked token should be invalid")
	}
}

func TestRehabProgram_Schedule(t *testing.T) {
	p := &RehabProgram{ID: "p1", DurationWeeks: 2, SessionsPerWk: 3}
	start := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

	sessions := p.Schedule(start)
	if len(sessions) != 6 {
		t.Fatalf("len = %d, want 6", len(sessions))
	}
	want := []string{"2026-03-02", "2026-03-04", "2026-03-06", "2026-03-09", "2026-03-11", "2026-03-13"}
	for i, s := range sessions {
		if s.Date != want[i] {
			t.Errorf("session %d date = %s, want %s", i, s.Date, want[i])
		}
		if s.ProgramID != "p1" {
			t.Errorf("session %d program = %s", i, s.ProgramID)
		}
	}
}

func TestPeriodAt(t *testing.T) {
	tests := []struct {
		hour int
		want BPPeriod
	}{
		{0, PeriodMorning},
		{13, PeriodMorning},
		{14, PeriodEvening},
		{23, PeriodEvening},
	}
	for _, tc := range tests {
		at := time.Date(2026, 3, 1, tc.hour, 30, 0, 0, time.UTC)
		if got := PeriodAt(at); got != tc.want {
			t.Errorf("PeriodAt(%02d:30) = %s, want %s", tc.hour, got, tc.want)
		}
	}
}
