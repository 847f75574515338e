package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"opsboard/internal/auth"
	"opsboard/internal/db"
	"opsboard/internal/devices"
	"opsboard/internal/events"
	"opsboard/internal/transport"
)

// stubTransport satisfies transport.Transport; the hub tests never
// connect it.
type stubTransport struct{}

func (stubTransport) Name() string                      { return "stub" }
func (stubTransport) Connect(context.Context) error     { return nil }
func (stubTransport) Disconnect() error                 { return nil }
func (stubTransport) Confirmed() bool                   { return true }
func (stubTransport) SetDropHandler(func(err error))    {}
func (stubTransport) WriteState(context.Context, string, bool) error {
	return nil
}
func (stubTransport) SubscribeDevices(transport.ChangeHandler, transport.ErrorHandler) (transport.Subscription, error) {
	return nil, nil
}
func (stubTransport) SubscribeSensors(transport.ChangeHandler, transport.ErrorHandler) (transport.Subscription, error) {
	return nil, nil
}

func setupHubTest(t *testing.T) (*events.Bus, *Hub, string, string) {
	t.Helper()

	if err := db.Init(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.SeedUser("budi", "rahasia123", "HRD PUSAT"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	bus := events.NewBus()
	authn := auth.NewAuthenticator(bus)
	tickets := auth.NewTicketService("test-secret")
	ctrl := devices.NewController(stubTransport{}, bus)
	t.Cleanup(ctrl.Close)

	hub := NewHub(tickets, ctrl, bus)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
	})
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	result, err := authn.Login("budi", "rahasia123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	ticket, err := tickets.Issue(result.Token, result.User.Username)
	if err != nil {
		t.Fatalf("issue ticket: %v", err)
	}

	return bus, hub, wsURL, ticket
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestHubRejectsMissingTicket(t *testing.T) {
	_, _, wsURL, _ := setupHubTest(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected connection to be rejected")
	}
	if resp != nil && resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHubRejectsInvalidTicket(t *testing.T) {
	_, _, wsURL, _ := setupHubTest(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?ticket=bogus", nil)
	if err == nil {
		t.Fatal("expected connection to be rejected")
	}
	if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestHubSendsInitialFrames(t *testing.T) {
	_, hub, wsURL, ticket := setupHubTest(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?ticket="+ticket, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readFrame(t, conn)
	if first.Type != "devices" {
		t.Errorf("first frame type = %q, want devices", first.Type)
	}
	var payload struct {
		Devices []json.RawMessage `json:"devices"`
	}
	if err := json.Unmarshal(first.Payload, &payload); err != nil {
		t.Fatalf("decode devices payload: %v", err)
	}
	if len(payload.Devices) == 0 {
		t.Error("initial frame carries no devices")
	}

	second := readFrame(t, conn)
	if second.Type != "sensors" {
		t.Errorf("second frame type = %q, want sensors", second.Type)
	}
	third := readFrame(t, conn)
	if third.Type != "connection" {
		t.Errorf("third frame type = %q, want connection", third.Type)
	}

	if hub.ActiveConnections() != 1 {
		t.Errorf("active connections = %d, want 1", hub.ActiveConnections())
	}
}

func TestHubFansOutStateChanges(t *testing.T) {
	bus, _, wsURL, ticket := setupHubTest(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?ticket="+ticket, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Drain the initial frames.
	for i := 0; i < 3; i++ {
		readFrame(t, conn)
	}

	bus.Publish(events.Event{
		Type:     events.DeviceStateChanged,
		DeviceID: "lampu-ruang-tamu",
		Message:  "Lampu Ruang Tamu dinyalakan",
	})

	frame := readFrame(t, conn)
	if frame.Type != "devices" {
		t.Errorf("fanout frame type = %q, want devices", frame.Type)
	}
}

func TestHubCloseAll(t *testing.T) {
	_, hub, wsURL, ticket := setupHubTest(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?ticket="+ticket, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 3; i++ {
		readFrame(t, conn)
	}

	hub.CloseAll()
	if hub.ActiveConnections() != 0 {
		t.Errorf("active connections after CloseAll = %d, want 0", hub.ActiveConnections())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still readable after CloseAll")
	}
}
