package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"opsboard/internal/models"
)

// With auth disabled the middleware passes requests through without a
// session; the handlers behind it must answer instead of panicking.
func TestGetCurrentUserAuthDisabled(t *testing.T) {
	cfg := models.Config{AuthEnabled: false}
	handler := Middleware(cfg, GetCurrentUser)

	req := httptest.NewRequest("GET", "/api/me", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if authed, _ := body["authenticated"].(bool); authed {
		t.Error("anonymous payload should report authenticated=false")
	}
	if body["route"] != "/" {
		t.Errorf("anonymous route = %v, want /", body["route"])
	}
}

func TestWSTicketAuthDisabledMintsAnonymous(t *testing.T) {
	cfg := models.Config{AuthEnabled: false}
	tickets := NewTicketService("test-secret")
	handler := Middleware(cfg, WSTicket(cfg, tickets))

	req := httptest.NewRequest("POST", "/api/ws-ticket", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	username, err := tickets.Verify(body["ticket"])
	if err != nil {
		t.Fatalf("anonymous ticket did not verify: %v", err)
	}
	if username != "anonymous" {
		t.Errorf("ticket subject = %q, want anonymous", username)
	}
}

func TestWSTicketRequiresSessionWhenAuthEnabled(t *testing.T) {
	cfg := models.Config{AuthEnabled: true}
	tickets := NewTicketService("test-secret")

	// No session in context: the handler must refuse, not mint.
	req := httptest.NewRequest("POST", "/api/ws-ticket", nil)
	rec := httptest.NewRecorder()
	WSTicket(cfg, tickets)(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
