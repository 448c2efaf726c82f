package alerting

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/cenk2025/hardpath/internal/models"
)

// CustomRule is an operator-defined alert evaluated against each recent
// daily metric row, for example `resting_hr > 95 && sleep_hours < 5`.
type CustomRule struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
	Severity   string `yaml:"severity"`
	Detail     string `yaml:"detail"`

	program *vm.Program
}

// RulesConfig is the YAML document holding custom rules.
type RulesConfig struct {
	Rules []*CustomRule `yaml:"rules"`
}

// Compile type-checks the expression against the metric environment.
func (r *CustomRule) Compile() error {
	if r.Name == "" {
		return errors.New("rule name is required")
	}
	if r.Expression == "" {
		return fmt.Errorf("rule %s: expression is required", r.Name)
	}
	if r.Severity != "" && r.Severity != string(models.SeverityMedium) && r.Severity != string(models.SeverityHigh) {
		return fmt.Errorf("rule %s: severity must be medium or high", r.Name)
	}
	program, err := expr.Compile(r.Expression, expr.Env(sampleMetricEnv()), expr.AsBool())
	if err != nil {
		return fmt.Errorf("rule %s: compile expression: %w", r.Name, err)
	}
	r.program = program
	return nil
}

// Match evaluates the rule for one metric row.
func (r *CustomRule) Match(m *models.DailyMetric) (bool, error) {
	if r.program == nil {
		return false, fmt.Errorf("rule %s is not compiled", r.Name)
	}
	out, err := expr.Run(r.program, metricEnv(m))
	if err != nil {
		return false, fmt.Errorf("rule %s: evaluate: %w", r.Name, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule %s: expression did not return bool: got %T", r.Name, out)
	}
	return matched, nil
}

// LoadRulesFromFile loads custom rules from a YAML file.
func LoadRulesFromFile(path string) ([]*CustomRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}

// LoadRules decodes and compiles custom rules.
func LoadRules(r io.Reader) ([]*CustomRule, error) {
	var cfg RulesConfig
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse rules YAML: %w", err)
	}
	seen := make(map[string]bool, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		if err := rule.Compile(); err != nil {
			return nil, fmt.Errorf("invalid rule at index %d: %w", i, err)
		}
		if seen[rule.Name] {
			return nil, fmt.Errorf("duplicate rule name %q", rule.Name)
		}
		seen[rule.Name] = true
	}
	return cfg.Rules, nil
}

// EvaluateRules runs every rule over every metric row. A match yields an
// alert keyed by rule name and row id. Evaluation errors skip the pair.
func EvaluateRules(rules []*CustomRule, metrics []*models.DailyMetric) ([]*models.Alert, []error) {
	var alerts []*models.Alert
	var errs []error
	for _, rule := range rules {
		for _, m := range metrics {
			ok, err := rule.Match(m)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !ok {
				continue
			}
			detail := rule.Detail
			if detail == "" {
				detail = fmt.Sprintf("Rule %s matched.", rule.Name)
			}
			a := newAlert(models.AlertCustom, rule.Name+"-"+m.ID, m.PatientID, m.PatientName,
				models.ParseSeverity(rule.Severity), detail, m.RecordedAt)
			alerts = append(alerts, a)
		}
	}
	return alerts, errs
}

// sampleMetricEnv lists the variables available to rule expressions.
// Missing measurements evaluate as -1.
func sampleMetricEnv() map[string]any {
	return map[string]any{
		"resting_hr":      0,
		"hrv_ms":          0,
		"sleep_hours":     0.0,
		"energy_level":    0,
		"readiness_score": 0,
		"symptom_count":   0,
		"source":          "",
	}
}

func metricEnv(m *models.DailyMetric) map[string]any {
	intOr := func(p *int) int {
		if p == nil {
			return -1
		}
		return *p
	}
	sleep := -1.0
	if m.SleepHours != nil {
		sleep = *m.SleepHours
	}
	return map[string]any{
		"resting_hr":      intOr(m.RestingHR),
		"hrv_ms":          intOr(m.HRVMs),
		"sleep_hours":     sleep,
		"energy_level":    intOr(m.EnergyLevel),
		"readiness_score": intOr(m.ReadinessScore),
		"symptom_count":   len(m.Symptoms),
		"source":          string(m.Source),
	}
}
