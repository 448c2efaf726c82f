package bloodpressure

import (
	"testing"

	"github.com/cenk2025/hardpath/internal/models"
)

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  CreateRequest
		want string
	}{
		{"valid", CreateRequest{Systolic: 128, Diastolic: 82, Period: "morning"}, ""},
		{"derived period", CreateRequest{Systolic: 128, Diastolic: 82}, ""},
		{"systolic low", CreateRequest{Systolic: 50, Diastolic: 45}, "systolic must be between 60 and 250"},
		{"diastolic high", CreateRequest{Systolic: 240, Diastolic: 160}, "diastolic must be between 40 and 150"},
		{"inverted", CreateRequest{Systolic: 90, Diastolic: 95}, "systolic must be greater than diastolic"},
		{"period", CreateRequest{Systolic: 120, Diastolic: 80, Period: "noon"}, "period must be morning or evening"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.req.Validate(); got != tc.want {
				t.Errorf("Validate() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReadingOf(t *testing.T) {
	r := readingOf(&models.BloodPressureLog{Systolic: 150, Diastolic: 85})
	if r.Level != models.BPHigh {
		t.Errorf("Level = %s, want high", r.Level)
	}
}
