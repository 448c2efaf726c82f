package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cenk2025/hardpath/internal/api/auth"
	"github.com/cenk2025/hardpath/internal/models"
)

var testSecret = []byte("test-secret-key-32-bytes-long!!")

func issue(t *testing.T, svc *auth.JWTService, role models.Role) string {
	t.Helper()
	token, err := svc.GenerateToken(&models.User{ID: "user-123", Email: "ayse@example.com", Role: role})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := auth.NewJWTService(testSecret, 15*time.Minute)
	token := issue(t, svc, models.RoleClinician)

	var gotID, gotEmail string
	var gotRole models.Role
	wrapped := JWTAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotEmail = GetEmail(r.Context())
		gotRole = GetRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotID != "user-123" || gotEmail != "ayse@example.com" || gotRole != models.RoleClinician {
		t.Errorf("context = %q %q %q", gotID, gotEmail, gotRole)
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	svc := auth.NewJWTService(testSecret, 15*time.Minute)
	expired := issue(t, auth.NewJWTService(testSecret, -time.Minute), models.RolePatient)
	valid := issue(t, svc, models.RolePatient)

	tests := []struct {
		name   string
		header string
		query  string
	}{
		{"missing", "", ""},
		{"wrong scheme", "Basic " + valid, ""},
		{"garbage", "Bearer invalid-token", ""},
		{"empty bearer", "Bearer ", ""},
		{"expired", "Bearer " + expired, ""},
		{"query not accepted", "", valid},
	}
	wrapped := JWTAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target := "/test"
			if tc.query != "" {
				target += "?access_token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestJWTAuthOrQuery(t *testing.T) {
	svc := auth.NewJWTService(testSecret, 15*time.Minute)
	token := issue(t, svc, models.RolePatient)

	called := false
	wrapped := JWTAuthOrQuery(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = GetUserID(r.Context()) == "user-123"
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws?access_token="+token, nil)
	wrapped.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Error("query token was not accepted")
	}
}

func TestContextHelpers_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetUserID(req.Context()) != "" || GetEmail(req.Context()) != "" || GetRole(req.Context()) != "" {
		t.Error("empty context should yield zero values")
	}
}
