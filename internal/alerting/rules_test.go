package alerting

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cenk2025/hardpath/internal/models"
)

const rulesYAML = `
rules:
  - name: poor-sleep-high-hr
    expression: resting_hr > 95 && sleep_hours >= 0 && sleep_hours < 5
    severity: high
    detail: Short sleep with elevated resting HR.
  - name: low-energy
    expression: energy_level >= 0 && energy_level <= 2
`

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules(strings.NewReader(rulesYAML))
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("len = %d, want 2", len(rules))
	}
}

func TestLoadRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "rules:\n  - expression: resting_hr > 1\n"},
		{"missing expression", "rules:\n  - name: x\n"},
		{"unknown variable", "rules:\n  - name: x\n    expression: pulse > 1\n"},
		{"not bool", "rules:\n  - name: x\n    expression: resting_hr + 1\n"},
		{"bad severity", "rules:\n  - name: x\n    expression: resting_hr > 1\n    severity: critical\n"},
		{"duplicate", "rules:\n  - name: x\n    expression: resting_hr > 1\n  - name: x\n    expression: hrv_ms > 1\n"},
		{"bad yaml", "rules: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadRules(strings.NewReader(tc.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadRules_EmptyFile(t *testing.T) {
	rules, err := LoadRules(strings.NewReader(""))
	if err != nil || len(rules) != 0 {
		t.Errorf("LoadRules(empty) = %v, %v", rules, err)
	}
}

func TestEvaluateRules(t *testing.T) {
	rules, err := LoadRules(strings.NewReader(rulesYAML))
	if err != nil {
		t.Fatal(err)
	}

	rows := []*models.DailyMetric{
		{ID: "m1", PatientID: "p1", RestingHR: models.IntPtr(99), SleepHours: models.FloatPtr(4.5), RecordedAt: base},
		{ID: "m2", PatientID: "p2", RestingHR: models.IntPtr(99), RecordedAt: base},  // no sleep recorded
		{ID: "m3", PatientID: "p3", EnergyLevel: models.IntPtr(2), RecordedAt: base}, // low energy
		{ID: "m4", PatientID: "p4", EnergyLevel: models.IntPtr(7), RestingHR: models.IntPtr(60)},
	}

	alerts, errs := EvaluateRules(rules, rows)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(alerts) != 2 {
		t.Fatalf("len = %d, want 2", len(alerts))
	}
	if alerts[0].Key != "custom-poor-sleep-high-hr-m1" || alerts[0].Severity != models.SeverityHigh {
		t.Errorf("first = %+v", alerts[0])
	}
	if alerts[1].PatientID != "p3" || alerts[1].Severity != models.SeverityMedium || alerts[1].Detail != "Rule low-energy matched." {
		t.Errorf("second = %+v", alerts[1])
	}
}

func TestRuleWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte(rulesYAML), 0644); err != nil {
		t.Fatal(err)
	}

	set := NewRuleSet(nil)
	w, err := NewRuleWatcher(path, set)
	if err != nil {
		t.Fatalf("NewRuleWatcher: %v", err)
	}
	if len(set.Rules()) != 2 {
		t.Fatalf("initial rules = %d, want 2", len(set.Rules()))
	}

	reloaded := make(chan int, 8)
	w.OnReload = func(n int, err error) {
		if err == nil {
			reloaded <- n
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	one := "rules:\n  - name: only\n    expression: hrv_ms >= 0 && hrv_ms < 15\n"
	if err := os.WriteFile(path, []byte(one), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case n := <-reloaded:
			if n == 1 {
				if got := set.Rules(); len(got) != 1 || got[0].Name != "only" {
					t.Errorf("rules after reload = %v", got)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestRuleSet_NilSafe(t *testing.T) {
	var s *RuleSet
	if s.Rules() != nil {
		t.Error("nil RuleSet should have no rules")
	}
}
