// Package ws pushes device state to dashboard browsers. The browser
// cannot hold a realtime-store subscription itself, so the server fans
// its own bus events out over WebSocket frames.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"opsboard/internal/auth"
	"opsboard/internal/devices"
	"opsboard/internal/events"
	"opsboard/internal/metrics"
)

// Frame is the wire format for messages pushed to the dashboard.
type Frame struct {
	Type    string          `json:"type"`    // devices, sensors, connection, notice
	Payload json.RawMessage `json:"payload"` // type-specific data
}

// Hub manages active dashboard WebSocket connections.
type Hub struct {
	tickets  *auth.TicketService
	ctrl     *devices.Controller
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*wsConn // client id → active connection
}

// wsConn wraps a WebSocket connection with its metadata. Writes go
// through the mutex; gorilla allows one concurrent writer only.
type wsConn struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	clientID string
	username string
	done     chan struct{}
}

func (wc *wsConn) writeJSON(v any) error {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return wc.conn.WriteJSON(v)
}

// NewHub creates a hub and subscribes it to the event bus.
func NewHub(tickets *auth.TicketService, ctrl *devices.Controller, bus *events.Bus) *Hub {
	h := &Hub{
		tickets: tickets,
		ctrl:    ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*wsConn),
	}

	bus.Subscribe(func(e events.Event) {
		h.broadcastState()
	}, events.DeviceStateChanged, events.DeviceToggled, events.SensorTriggered)

	bus.Subscribe(func(e events.Event) {
		h.broadcastConnection()
		if e.Type != events.TransportConnected {
			h.broadcastNotice(e)
		}
	}, events.TransportConnected, events.TransportDisconnected, events.TransportError)

	return h
}

// HandleConnection upgrades to WebSocket after verifying the ticket
// passed as a query parameter.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		http.Error(w, "ticket required", http.StatusBadRequest)
		return
	}
	username, err := h.tickets.Verify(ticket)
	if err != nil {
		http.Error(w, "invalid ticket", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed for %s: %v", username, err)
		return
	}

	wc := &wsConn{
		conn:     conn,
		clientID: uuid.NewString(),
		username: username,
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[wc.clientID] = wc
	h.mu.Unlock()
	metrics.WSClients.Inc()

	log.Printf("[WS] %s connected (%s)", username, wc.clientID[:8])

	// Initial frames so the view renders without waiting for a change.
	h.sendState(wc)
	h.sendConnection(wc)

	// Read loop blocks until the connection closes.
	h.readLoop(wc)

	h.mu.Lock()
	if h.conns[wc.clientID] == wc {
		delete(h.conns, wc.clientID)
	}
	h.mu.Unlock()
	metrics.WSClients.Dec()

	log.Printf("[WS] %s disconnected (%s)", username, wc.clientID[:8])
}

// readLoop consumes client frames (the dashboard only sends pongs and
// close) and keeps the read deadline fresh.
func (h *Hub) readLoop(wc *wsConn) {
	defer wc.conn.Close()
	defer close(wc.done)

	wc.conn.SetReadLimit(4 * 1024)
	wc.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	wc.conn.SetPongHandler(func(string) error {
		wc.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	go h.pingLoop(wc)

	for {
		if _, _, err := wc.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error %s: %v", wc.clientID[:8], err)
			}
			return
		}
		wc.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (h *Hub) pingLoop(wc *wsConn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-wc.done:
			return
		case <-ticker.C:
			wc.mu.Lock()
			err := wc.conn.WriteControl(
				websocket.PingMessage, nil,
				time.Now().Add(10*time.Second),
			)
			wc.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) sendState(wc *wsConn) {
	devPayload, _ := json.Marshal(map[string]any{
		"devices":  h.ctrl.Devices(),
		"updating": h.ctrl.Updating(),
	})
	senPayload, _ := json.Marshal(map[string]any{"sensors": h.ctrl.Sensors()})

	wc.writeJSON(Frame{Type: "devices", Payload: devPayload})
	wc.writeJSON(Frame{Type: "sensors", Payload: senPayload})
}

func (h *Hub) sendConnection(wc *wsConn) {
	payload, _ := json.Marshal(map[string]string{
		"status":    string(h.ctrl.Status()),
		"transport": h.ctrl.TransportName(),
	})
	wc.writeJSON(Frame{Type: "connection", Payload: payload})
}

func (h *Hub) broadcastState() {
	for _, wc := range h.snapshot() {
		h.sendState(wc)
	}
}

func (h *Hub) broadcastConnection() {
	for _, wc := range h.snapshot() {
		h.sendConnection(wc)
	}
}

func (h *Hub) broadcastNotice(e events.Event) {
	payload, _ := json.Marshal(map[string]string{
		"severity": e.Severity.String(),
		"message":  e.Message,
	})
	frame := Frame{Type: "notice", Payload: payload}
	for _, wc := range h.snapshot() {
		wc.writeJSON(frame)
	}
}

func (h *Hub) snapshot() []*wsConn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*wsConn, 0, len(h.conns))
	for _, wc := range h.conns {
		out = append(out, wc)
	}
	return out
}

// ActiveConnections returns the number of active WebSocket connections.
func (h *Hub) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll terminates all active WebSocket connections.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, wc := range h.conns {
		wc.mu.Lock()
		wc.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(5*time.Second),
		)
		wc.mu.Unlock()
		wc.conn.Close()
		delete(h.conns, id)
	}
}
