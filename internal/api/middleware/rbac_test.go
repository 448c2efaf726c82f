package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cenk2025/hardpath/internal/models"
)

func withRole(r *http.Request, role models.Role) *http.Request {
	return r.WithContext(WithUserContext(r.Context(), "user-123", "u@example.com", role))
}

func TestRoleGuards(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name  string
		guard func(http.Handler) http.Handler
		role  models.Role
		want  int
	}{
		{"care team admits clinician", RequireCareTeam, models.RoleClinician, http.StatusOK},
		{"care team admits admin", RequireCareTeam, models.RoleAdmin, http.StatusOK},
		{"care team rejects patient", RequireCareTeam, models.RolePatient, http.StatusForbidden},
		{"admin rejects clinician", RequireAdmin, models.RoleClinician, http.StatusForbidden},
		{"admin admits admin", RequireAdmin, models.RoleAdmin, http.StatusOK},
		{"patient admits patient", RequirePatient, models.RolePatient, http.StatusOK},
		{"patient rejects admin", RequirePatient, models.RoleAdmin, http.StatusForbidden},
		{"patient rejects clinician", RequirePatient, models.RoleClinician, http.StatusForbidden},
		{"no role", RequireRole(models.RolePatient), "", http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tc.role != "" {
				req = withRole(req, tc.role)
			}
			rec := httptest.NewRecorder()
			tc.guard(ok).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
