package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp struct {
		Error ErrorBody `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Error
}

func TestOK_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"score": 71})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"data":{"score":71}}` {
		t.Errorf("body = %s", got)
	}
}

func TestInternal_HidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Internal(rec, "list checkins", errors.New("disk I/O error"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Code != CodeInternalError || strings.Contains(body.Message, "disk") {
		t.Errorf("error = %+v", body)
	}
}

func TestDecode(t *testing.T) {
	type req struct {
		Energy int `json:"energy_level"`
	}
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
	}{
		{"valid", `{"energy_level":6}`, true, 0},
		{"empty", ``, false, http.StatusBadRequest},
		{"malformed", `{"energy_level":`, false, http.StatusBadRequest},
		{"unknown field", `{"fatigue":3}`, false, http.StatusBadRequest},
		{"too large", `{"energy_level":1,"pad":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, false, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst req
			if got := Decode(rec, r, &dst); got != tc.wantOK {
				t.Fatalf("Decode() = %v, want %v", got, tc.wantOK)
			}
			if !tc.wantOK && rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}
