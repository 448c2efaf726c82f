package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []Checker
		wantStatus int
		wantBody   string
	}{
		{"no checkers", nil, http.StatusOK, "ready"},
		{"all healthy", []Checker{
			NewFuncChecker("sqlite", func(context.Context) error { return nil }),
		}, http.StatusOK, "ready"},
		{"one failing", []Checker{
			NewFuncChecker("sqlite", func(context.Context) error { return nil }),
			NewFuncChecker("vendor", func(context.Context) error { return errors.New("unreachable") }),
		}, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler()
			for _, c := range tc.checkers {
				h.RegisterChecker(c)
			}
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tc.wantBody {
				t.Errorf("status field = %q, want %q", resp.Status, tc.wantBody)
			}
			if len(resp.Checks) != len(tc.checkers) {
				t.Errorf("checks = %v", resp.Checks)
			}
		})
	}
}

func TestSQLiteChecker_NilDB(t *testing.T) {
	if err := NewSQLiteChecker(nil).Check(context.Background()); err == nil {
		t.Error("expected error for nil db")
	}
}
