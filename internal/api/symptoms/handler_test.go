package symptoms

import (
	"strings"
	"testing"

	"github.com/cenk2025/hardpath/internal/models"
)

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		req      CreateRequest
		wantTags int
		wantMsg  string
	}{
		{"valid", CreateRequest{Symptoms: []string{"dizziness", "palpitations"}, Severity: "mild"}, 2, ""},
		{"duplicates collapse", CreateRequest{Symptoms: []string{"dyspnea", "dyspnea"}, Severity: "moderate"}, 1, ""},
		{"empty", CreateRequest{Severity: "mild"}, 0, "at least one symptom is required"},
		{"unknown tag", CreateRequest{Symptoms: []string{"nausea"}, Severity: "mild"}, 0, "unknown symptom: nausea"},
		{"bad severity", CreateRequest{Symptoms: []string{"chest_pain"}, Severity: "extreme"}, 0, "severity must be one of: mild, moderate, severe"},
		{"long notes", CreateRequest{Symptoms: []string{"chest_pain"}, Severity: "severe", Notes: strings.Repeat("a", MaxNotesLength+1)}, 0, "notes must be at most 2000 characters"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tags, msg := tc.req.Validate()
			if msg != tc.wantMsg {
				t.Fatalf("Validate() msg = %q, want %q", msg, tc.wantMsg)
			}
			if len(tags) != tc.wantTags {
				t.Errorf("tags = %v, want %d", tags, tc.wantTags)
			}
		})
	}
}

func TestCreateRequest_KeepsOrder(t *testing.T) {
	req := CreateRequest{Symptoms: []string{"palpitations", "chest_pain"}, Severity: "severe"}
	tags, _ := req.Validate()
	if tags[0] != models.SymptomPalpitations || tags[1] != models.SymptomChestPain {
		t.Errorf("tags = %v", tags)
	}
}
