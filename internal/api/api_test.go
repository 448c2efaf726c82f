package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/realtime"
	"github.com/cenk2025/hardpath/internal/storage"
	"github.com/cenk2025/hardpath/internal/wearable"
)

const testPassword = "Heart2026pass"

// testServer creates a server backed by a temp-dir SQLite database.
func testServer(tb testing.TB, mutate func(*Config)) (*Server, storage.Storage) {
	tb.Helper()

	store := storage.NewSQLiteStorage(filepath.Join(tb.TempDir(), "heartpath.db"), []byte("test-master-key-32-bytes-long!!"))
	if err := store.Open(); err != nil {
		tb.Fatalf("open storage: %v", err)
	}
	tb.Cleanup(func() { store.Close() })
	if err := store.Migrate(); err != nil {
		tb.Fatalf("migrate storage: %v", err)
	}

	cfg := &Config{
		Address:          ":0",
		JWTSecret:        []byte("test-jwt-secret-32-bytes-long!!"),
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  24 * time.Hour,
		RateLimitPerIP:   10000,
		RateLimitPerUser: 10000,
		LockoutThreshold: 5,
		LockoutDuration:  30 * time.Minute,
	}
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := New(cfg, store, Deps{})
	if err != nil {
		tb.Fatalf("create server: %v", err)
	}
	tb.Cleanup(srv.Close)
	return srv, store
}

// createTestUser stores a user and returns it with a valid access token.
func createTestUser(tb testing.TB, srv *Server, store storage.Storage, name string, role models.Role) (*models.User, string) {
	tb.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	user := models.NewUser(name+"@example.com", strings.ToUpper(name[:1])+name[1:], role)
	user.ID = "test-" + name
	user.PasswordHash = string(hash)
	if err := store.Users().Create(context.Background(), user); err != nil {
		tb.Fatalf("create user: %v", err)
	}

	token, err := srv.jwt.GenerateToken(user)
	if err != nil {
		tb.Fatalf("generate token: %v", err)
	}
	return user, token
}

func do(tb testing.TB, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	tb.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			tb.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(tb testing.TB, rec *httptest.ResponseRecorder, dst any) {
	tb.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		tb.Fatalf("decode response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		tb.Fatalf("decode data: %v", err)
	}
}

func errorCode(tb testing.TB, rec *httptest.ResponseRecorder) string {
	tb.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		tb.Fatalf("decode error response: %v", err)
	}
	return resp.Error.Code
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := testServer(t, nil)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rec := do(t, srv, "GET", path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestRegisterLoginAndProfile(t *testing.T) {
	srv, _ := testServer(t, nil)

	rec := do(t, srv, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":     "Ayse@Example.com",
		"password":  testPassword,
		"full_name": "Ayse Demir",
		"language":  "tr",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var reg struct {
		AccessToken string       `json:"access_token"`
		User        *models.User `json:"user"`
	}
	decodeData(t, rec, &reg)
	if reg.User.Email != "ayse@example.com" || reg.User.Role != models.RolePatient || reg.User.Language != "tr" {
		t.Errorf("registered user = %+v", reg.User)
	}

	rec = do(t, srv, "POST", "/api/v1/auth/register", "", map[string]string{
		"email": "ayse@example.com", "password": testPassword, "full_name": "Again",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	rec = do(t, srv, "POST", "/api/v1/auth/login", "", map[string]string{"email": "ayse@example.com", "password": testPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}
	decodeData(t, rec, &login)
	if login.AccessToken == "" || login.RefreshToken == "" || login.TokenType != "Bearer" {
		t.Errorf("login response = %+v", login)
	}

	rec = do(t, srv, "GET", "/api/v1/me", login.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /me status = %d", rec.Code)
	}
	var profile struct {
		User *models.User `json:"user"`
	}
	decodeData(t, rec, &profile)
	if profile.User.FullName != "Ayse Demir" {
		t.Errorf("profile name = %q", profile.User.FullName)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("profile leaks password hash")
	}
}

func TestRegister_RejectsAdminRole(t *testing.T) {
	srv, _ := testServer(t, nil)

	rec := do(t, srv, "POST", "/api/v1/auth/register", "", map[string]string{
		"email": "root@example.com", "password": testPassword, "full_name": "Root", "role": "admin",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	srv, store := testServer(t, nil)
	createTestUser(t, srv, store, "mehmet", models.RolePatient)

	rec := do(t, srv, "POST", "/api/v1/auth/login", "", map[string]string{"email": "mehmet@example.com", "password": "Wrong2026pass"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	srv, _ := testServer(t, nil)

	rec := do(t, srv, "GET", "/api/v1/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "UNAUTHORIZED" {
		t.Errorf("code = %q", code)
	}
}

func TestRoleGuards(t *testing.T) {
	srv, store := testServer(t, nil)
	_, patientToken := createTestUser(t, srv, store, "patient", models.RolePatient)
	_, clinicianToken := createTestUser(t, srv, store, "clinician", models.RoleClinician)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"patient on clinician roster", "GET", "/api/v1/clinician/patients", patientToken, http.StatusForbidden},
		{"patient on admin", "GET", "/api/v1/admin/users", patientToken, http.StatusForbidden},
		{"clinician on checkins", "GET", "/api/v1/checkins", clinicianToken, http.StatusForbidden},
		{"clinician on admin", "GET", "/api/v1/admin/users", clinicianToken, http.StatusForbidden},
		{"clinician on roster", "GET", "/api/v1/clinician/patients", clinicianToken, http.StatusOK},
		{"patient on checkins", "GET", "/api/v1/checkins", patientToken, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, tc.method, tc.path, tc.token, nil)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d; body: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestCheckinAndInsight(t *testing.T) {
	srv, store := testServer(t, nil)
	_, token := createTestUser(t, srv, store, "patient", models.RolePatient)

	rec := do(t, srv, "POST", "/api/v1/checkins", token, map[string]any{
		"energy_level": 8, "heart_rate": 62, "sleep_hours": 7.5, "hrv_ms": 55,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkin status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Metric    *models.DailyMetric `json:"metric"`
		Readiness struct {
			Score    int    `json:"score"`
			Category string `json:"category"`
		} `json:"readiness"`
	}
	decodeData(t, rec, &created)
	if created.Metric.ReadinessScore == nil || *created.Metric.ReadinessScore != created.Readiness.Score {
		t.Errorf("stored readiness = %v, scored %d", created.Metric.ReadinessScore, created.Readiness.Score)
	}

	rec = do(t, srv, "POST", "/api/v1/checkins", token, map[string]any{"energy_level": 12})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid checkin status = %d, want 400", rec.Code)
	}

	rec = do(t, srv, "GET", "/api/v1/checkins?days=7", token, nil)
	var rows []*models.DailyMetric
	decodeData(t, rec, &rows)
	if len(rows) != 1 {
		t.Fatalf("checkins = %d, want 1", len(rows))
	}

	rec = do(t, srv, "GET", "/api/v1/insight", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("insight status = %d", rec.Code)
	}
	var insight struct {
		Readiness int `json:"readiness"`
	}
	decodeData(t, rec, &insight)
	if insight.Readiness != created.Readiness.Score {
		t.Errorf("insight readiness = %d, want stored %d", insight.Readiness, created.Readiness.Score)
	}
}

func TestCheckin_StoresScoredInputs(t *testing.T) {
	srv, store := testServer(t, nil)
	patient, token := createTestUser(t, srv, store, "patient", models.RolePatient)

	rec := do(t, srv, "POST", "/api/v1/checkins", token, map[string]any{
		"energy_level": 10, "heart_rate": 50, "sleep_hours": 9, "hrv_ms": 60,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkin status = %d; body: %s", rec.Code, rec.Body.String())
	}

	stored, err := store.Metrics().GetDay(context.Background(), patient.ID, models.DayOf(time.Now().UTC()))
	if err != nil || stored == nil {
		t.Fatalf("get day: %v, %v", stored, err)
	}
	if stored.SleepHours == nil || *stored.SleepHours != 9 {
		t.Errorf("stored sleep = %v, want 9", stored.SleepHours)
	}
	if stored.HRVMs == nil || *stored.HRVMs != 60 {
		t.Errorf("stored hrv = %v, want 60", stored.HRVMs)
	}

	rec = do(t, srv, "GET", "/api/v1/insight", token, nil)
	var insight struct {
		Readiness int `json:"readiness"`
	}
	decodeData(t, rec, &insight)
	if stored.ReadinessScore == nil || insight.Readiness != *stored.ReadinessScore {
		t.Errorf("insight readiness = %d, stored %v", insight.Readiness, stored.ReadinessScore)
	}
}

func TestSymptomAlertLifecycle(t *testing.T) {
	srv, store := testServer(t, nil)
	patient, patientToken := createTestUser(t, srv, store, "patient", models.RolePatient)
	_, clinicianToken := createTestUser(t, srv, store, "clinician", models.RoleClinician)

	rec := do(t, srv, "POST", "/api/v1/symptoms", patientToken, map[string]any{
		"symptoms": []string{"chest_pain"}, "severity": "moderate", "notes": "after stairs",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("symptom status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Report *models.SymptomReport `json:"report"`
		Risk   struct {
			Flagged bool   `json:"flagged"`
			Level   string `json:"level"`
		} `json:"risk"`
	}
	decodeData(t, rec, &created)
	if !created.Risk.Flagged || created.Risk.Level != "critical" {
		t.Errorf("risk = %+v, want flagged critical", created.Risk)
	}

	rec = do(t, srv, "GET", "/api/v1/clinician/alerts?filter=active", clinicianToken, nil)
	var alerts []*models.Alert
	decodeData(t, rec, &alerts)
	if len(alerts) != 1 || alerts[0].PatientID != patient.ID || alerts[0].Type != models.AlertSymptom {
		t.Fatalf("active alerts = %+v", alerts)
	}
	key := alerts[0].Key

	rec = do(t, srv, "POST", "/api/v1/clinician/alerts/"+key+"/resolve", clinicianToken, map[string]string{"note": "called patient"})
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d; body: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, "GET", "/api/v1/clinician/alerts?filter=active", clinicianToken, nil)
	decodeData(t, rec, &alerts)
	if len(alerts) != 0 {
		t.Errorf("active alerts after resolve = %d, want 0", len(alerts))
	}
	rec = do(t, srv, "GET", "/api/v1/clinician/alerts?filter=resolved", clinicianToken, nil)
	decodeData(t, rec, &alerts)
	if len(alerts) != 1 || !alerts[0].Resolved {
		t.Errorf("resolved alerts = %+v", alerts)
	}

	rec = do(t, srv, "DELETE", "/api/v1/clinician/alerts/"+key+"/resolve", clinicianToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("reopen status = %d, want 204", rec.Code)
	}
	rec = do(t, srv, "DELETE", "/api/v1/clinician/alerts/"+key+"/resolve", clinicianToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second reopen status = %d, want 404", rec.Code)
	}

	rec = do(t, srv, "POST", "/api/v1/clinician/alerts/symptom-missing/resolve", clinicianToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("resolve unknown status = %d, want 404", rec.Code)
	}

	rec = do(t, srv, "GET", "/api/v1/clinician/alerts?filter=open", clinicianToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad filter status = %d, want 400", rec.Code)
	}
}

func TestBloodPressureAndMedications(t *testing.T) {
	srv, store := testServer(t, nil)
	_, token := createTestUser(t, srv, store, "patient", models.RolePatient)
	_, otherToken := createTestUser(t, srv, store, "other", models.RolePatient)

	rec := do(t, srv, "POST", "/api/v1/blood-pressure", token, map[string]any{"systolic": 165, "diastolic": 95, "period": "evening"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("bp status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var reading struct {
		ID    string `json:"id"`
		Level string `json:"level"`
	}
	decodeData(t, rec, &reading)
	if reading.Level != "high" {
		t.Errorf("level = %q, want high", reading.Level)
	}

	rec = do(t, srv, "DELETE", "/api/v1/blood-pressure/"+reading.ID, otherToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete by other patient status = %d, want 404", rec.Code)
	}
	rec = do(t, srv, "DELETE", "/api/v1/blood-pressure/"+reading.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec = do(t, srv, "POST", "/api/v1/medications", token, map[string]any{"name": "Aspirin", "dose": "100mg", "time_of_day": "09:00", "reminder": true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("medication status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var med models.Medication
	decodeData(t, rec, &med)

	rec = do(t, srv, "PUT", "/api/v1/medications/"+med.ID, otherToken, map[string]any{"name": "Stolen"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update by other patient status = %d, want 404", rec.Code)
	}
	rec = do(t, srv, "PUT", "/api/v1/medications/"+med.ID, token, map[string]any{"name": "Aspirin", "dose": "75mg", "time_of_day": "21:00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d; body: %s", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &med)
	if med.Dose != "75mg" || med.Reminder {
		t.Errorf("updated medication = %+v", med)
	}
}

func TestProgramAssignment(t *testing.T) {
	srv, store := testServer(t, nil)
	patient, patientToken := createTestUser(t, srv, store, "patient", models.RolePatient)
	_, clinicianToken := createTestUser(t, srv, store, "clinician", models.RoleClinician)

	rec := do(t, srv, "POST", "/api/v1/clinician/programs", clinicianToken, map[string]any{
		"name": "Phase II", "duration_weeks": 2, "intensity": "low", "sessions_per_week": 3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create program status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var program models.RehabProgram
	decodeData(t, rec, &program)

	rec = do(t, srv, "POST", "/api/v1/clinician/programs/"+program.ID+"/assign", clinicianToken, map[string]string{"patient_id": patient.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("assign status = %d; body: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, "GET", "/api/v1/program", patientToken, nil)
	var plan struct {
		Program  *models.RehabProgram `json:"program"`
		Sessions []*models.Session    `json:"sessions"`
	}
	decodeData(t, rec, &plan)
	if plan.Program == nil || plan.Program.ID != program.ID || len(plan.Sessions) != 6 {
		t.Fatalf("plan = %+v with %d sessions", plan.Program, len(plan.Sessions))
	}

	rec = do(t, srv, "POST", "/api/v1/sessions/"+plan.Sessions[0].ID+"/complete", patientToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("complete status = %d, want 204", rec.Code)
	}
	rec = do(t, srv, "POST", "/api/v1/sessions/missing/complete", patientToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("complete missing status = %d, want 404", rec.Code)
	}
}

func TestMessaging(t *testing.T) {
	srv, store := testServer(t, nil)
	patient, patientToken := createTestUser(t, srv, store, "patient", models.RolePatient)
	other, _ := createTestUser(t, srv, store, "other", models.RolePatient)
	clinician, clinicianToken := createTestUser(t, srv, store, "clinician", models.RoleClinician)

	rec := do(t, srv, "POST", "/api/v1/messages", patientToken, map[string]string{"receiver_id": clinician.ID, "content": "Felt dizzy today"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send status = %d; body: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, "POST", "/api/v1/messages", patientToken, map[string]string{"receiver_id": other.ID, "content": "hi"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient to patient status = %d, want 403", rec.Code)
	}

	rec = do(t, srv, "GET", "/api/v1/me", clinicianToken, nil)
	var profile struct {
		UnreadMessages int64 `json:"unread_messages"`
	}
	decodeData(t, rec, &profile)
	if profile.UnreadMessages != 1 {
		t.Errorf("unread = %d, want 1", profile.UnreadMessages)
	}

	rec = do(t, srv, "GET", "/api/v1/messages?with="+patient.ID, clinicianToken, nil)
	var msgs []*models.Message
	decodeData(t, rec, &msgs)
	if len(msgs) != 1 || msgs[0].Content != "Felt dizzy today" {
		t.Fatalf("conversation = %+v", msgs)
	}

	rec = do(t, srv, "GET", "/api/v1/me", clinicianToken, nil)
	decodeData(t, rec, &profile)
	if profile.UnreadMessages != 0 {
		t.Errorf("unread after read = %d, want 0", profile.UnreadMessages)
	}

	rec = do(t, srv, "GET", "/api/v1/contacts", patientToken, nil)
	var contacts []struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &contacts)
	if len(contacts) != 1 || contacts[0].ID != clinician.ID {
		t.Errorf("patient contacts = %+v", contacts)
	}
}

func TestScoringEndpoints(t *testing.T) {
	srv, store := testServer(t, nil)
	_, token := createTestUser(t, srv, store, "patient", models.RolePatient)

	rec := do(t, srv, "POST", "/api/v1/risk/overexertion", token, map[string]int{"heart_rate": 140, "safe_max": 150})
	if rec.Code != http.StatusOK {
		t.Fatalf("overexertion status = %d", rec.Code)
	}
	var o struct {
		Risk  bool   `json:"risk"`
		Level string `json:"level"`
	}
	decodeData(t, rec, &o)
	if !o.Risk || o.Level != "high" {
		t.Errorf("overexertion = %+v, want high risk", o)
	}

	rec = do(t, srv, "POST", "/api/v1/risk/overexertion", token, map[string]int{"heart_rate": 140, "safe_max": 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("safe_max 0 status = %d, want 400", rec.Code)
	}

	rec = do(t, srv, "POST", "/api/v1/risk/readiness", token, map[string]any{"energy_level": 5})
	if rec.Code != http.StatusOK {
		t.Errorf("readiness status = %d", rec.Code)
	}
}

func TestWearableWebhook(t *testing.T) {
	const secret = "whsec-test"
	srv, store := testServer(t, func(c *Config) { c.WebhookSecret = secret })
	patient, token := createTestUser(t, srv, store, "patient", models.RolePatient)

	payload := `{"type":"daily","user":{"reference_id":"` + patient.ID + `","provider":"GARMIN"},` +
		`"data":[{"metadata":{"start_time":"2026-03-01T00:00:00Z"},"heart_rate_data":{"summary":{"avg_hr_bpm":71.4}}}]}`

	rec := do(t, srv, "POST", "/api/v1/webhooks/wearable", "", payload)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unsigned status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest("POST", "/api/v1/webhooks/wearable", strings.NewReader(payload))
	req.Header.Set(wearable.SignatureHeader, wearable.Sign(secret, []byte(payload), time.Now()))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("signed status = %d; body: %s", rec.Code, rec.Body.String())
	}

	m, err := store.Metrics().GetDay(context.Background(), patient.ID, "2026-03-01")
	if err != nil || m == nil || m.RestingHR == nil || *m.RestingHR != 71 {
		t.Fatalf("stored metric = %+v, err %v", m, err)
	}

	unknown := `{"type":"daily","user":{"reference_id":"nobody"},"data":[]}`
	req = httptest.NewRequest("POST", "/api/v1/webhooks/wearable", strings.NewReader(unknown))
	req.Header.Set(wearable.SignatureHeader, wearable.Sign(secret, []byte(unknown), time.Now()))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("unknown reference status = %d, want 200", rec.Code)
	}

	rec = do(t, srv, "GET", "/api/v1/wearables/GARMIN/wait?timeout=1s", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("wait without connection status = %d, want 404", rec.Code)
	}

	rec = do(t, srv, "POST", "/api/v1/wearables/connect", token, map[string]string{"provider": "GARMIN"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("connect without vendor status = %d, want 503", rec.Code)
	}
}

func TestRealtimeSymptomAlert(t *testing.T) {
	srv, store := testServer(t, nil)
	_, patientToken := createTestUser(t, srv, store, "patient", models.RolePatient)
	_, clinicianToken := createTestUser(t, srv, store, "clinician", models.RoleClinician)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?access_token=" + clinicianToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec := do(t, srv, "POST", "/api/v1/symptoms", patientToken, map[string]any{"symptoms": []string{"dyspnea"}, "severity": "severe"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("symptom status = %d", rec.Code)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event realtime.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != realtime.EventAlertSymptom {
		t.Errorf("event type = %q, want %q", event.Type, realtime.EventAlertSymptom)
	}
}

func TestAdminUserManagement(t *testing.T) {
	srv, store := testServer(t, nil)
	admin, adminToken := createTestUser(t, srv, store, "admin", models.RoleAdmin)
	patient, _ := createTestUser(t, srv, store, "patient", models.RolePatient)

	rec := do(t, srv, "GET", "/api/v1/admin/users?role=patient", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list users status = %d", rec.Code)
	}
	var users []*models.User
	decodeData(t, rec, &users)
	if len(users) != 1 || users[0].ID != patient.ID {
		t.Fatalf("patients = %+v, want only %s", users, patient.ID)
	}

	rec = do(t, srv, "PUT", "/api/v1/admin/users/"+patient.ID+"/role", adminToken, map[string]string{"role": "superuser"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid role status = %d, want 400", rec.Code)
	}

	rec = do(t, srv, "PUT", "/api/v1/admin/users/"+admin.ID+"/role", adminToken, map[string]string{"role": "patient"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("own role change status = %d, want 400", rec.Code)
	}

	rec = do(t, srv, "PUT", "/api/v1/admin/users/"+patient.ID+"/role", adminToken, map[string]string{"role": "clinician"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update role status = %d; body: %s", rec.Code, rec.Body.String())
	}
	stored, _ := store.Users().GetByID(context.Background(), patient.ID)
	if stored.Role != models.RoleClinician {
		t.Errorf("role = %q, want clinician", stored.Role)
	}

	rec = do(t, srv, "DELETE", "/api/v1/admin/users/"+patient.ID, adminToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(t, srv, "DELETE", "/api/v1/admin/users/"+patient.ID, adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, store := testServer(t, nil)
	_, token := createTestUser(t, srv, store, "patient", models.RolePatient)

	rec := do(t, srv, "GET", "/api/v1/nothing-here", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
