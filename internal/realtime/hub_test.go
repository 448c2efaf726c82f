package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cenk2025/hardpath/internal/models"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		hub.ServeWS(w, r, q.Get("user"), models.Role(q.Get("role")))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user string, role models.Role) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user + "&role=" + string(role)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return ev
}

func TestHub_SendToUser(t *testing.T) {
	hub := NewHub(nil)
	srv := newTestServer(t, hub)

	patient := dial(t, srv, "p1", models.RolePatient)
	other := dial(t, srv, "p2", models.RolePatient)
	waitForClients(t, hub, 2)

	hub.SendToUser("p1", EventMessageCreated, map[string]string{"id": "m1"})

	ev := readEvent(t, patient)
	if ev.Type != EventMessageCreated {
		t.Errorf("type = %q", ev.Type)
	}
	data, _ := ev.Data.(map[string]any)
	if data["id"] != "m1" {
		t.Errorf("data = %v", ev.Data)
	}

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Error("event leaked to another user")
	}
}

func TestHub_SendToRoles(t *testing.T) {
	hub := NewHub(nil)
	srv := newTestServer(t, hub)

	doctor := dial(t, srv, "c1", models.RoleClinician)
	admin := dial(t, srv, "a1", models.RoleAdmin)
	patient := dial(t, srv, "p1", models.RolePatient)
	waitForClients(t, hub, 3)

	hub.SendToRoles(EventAlertSymptom, map[string]string{"patient_id": "p1"}, models.RoleClinician, models.RoleAdmin)

	for _, conn := range []*websocket.Conn{doctor, admin} {
		if ev := readEvent(t, conn); ev.Type != EventAlertSymptom {
			t.Errorf("type = %q", ev.Type)
		}
	}
	patient.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := patient.ReadMessage(); err == nil {
		t.Error("clinician event delivered to patient")
	}
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub := NewHub(nil)
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "p1", models.RolePatient)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.heartpath.example"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.heartpath.example", true},
		{"", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := check(r); got != tt.want {
			t.Errorf("origin %q = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
