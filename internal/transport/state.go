package transport

import (
	"fmt"
	"sync"
	"time"

	"opsboard/internal/events"
	"opsboard/internal/metrics"
)

// Status is the connection state of the active transport. Held only for
// the lifetime of the process, never persisted.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// errorHold is how long the machine sits in the error state before
// falling back to disconnected and re-arming the connect action.
const errorHold = 3 * time.Second

// validTransitions is the transition matrix. Transitions are triggered
// only by the user connect action, the handshake result, an external
// drop, or the timed error fallback.
var validTransitions = map[Status]map[Status]bool{
	StatusDisconnected: {StatusConnecting: true},
	StatusConnecting:   {StatusConnected: true, StatusError: true, StatusDisconnected: true},
	StatusConnected:    {StatusDisconnected: true, StatusError: true},
	StatusError:        {StatusConnecting: true, StatusDisconnected: true},
}

// Machine is the connection state machine for one transport.
type Machine struct {
	mu        sync.Mutex
	current   Status
	transport string
	bus       *events.Bus
	errTimer  *time.Timer
}

// NewMachine creates a state machine starting at disconnected.
func NewMachine(transportName string, bus *events.Bus) *Machine {
	return &Machine{current: StatusDisconnected, transport: transportName, bus: bus}
}

// Status returns the current connection state.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// BeginConnect moves disconnected/error to connecting (user action).
func (m *Machine) BeginConnect() error {
	return m.transition(StatusConnecting, "")
}

// MarkConnected records a successful handshake.
func (m *Machine) MarkConnected() error {
	return m.transition(StatusConnected, "")
}

// MarkDisconnected records a teardown or an external drop. Valid from
// connected, from connecting (user cancel) and from error (timed fallback).
func (m *Machine) MarkDisconnected() error {
	return m.transition(StatusDisconnected, "")
}

// Fail records a handshake or subscription failure: the machine moves to
// error, and a timer re-arms the connect action by falling back to
// disconnected.
func (m *Machine) Fail(cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := m.transition(StatusError, msg); err != nil {
		return err
	}

	m.mu.Lock()
	m.errTimer = time.AfterFunc(errorHold, func() {
		m.MarkDisconnected()
	})
	m.mu.Unlock()
	return nil
}

// Close cancels the pending error-fallback timer, if any.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errTimer != nil {
		m.errTimer.Stop()
		m.errTimer = nil
	}
}

func (m *Machine) transition(to Status, detail string) error {
	m.mu.Lock()
	from := m.current
	if !validTransitions[from][to] {
		m.mu.Unlock()
		return fmt.Errorf("invalid transition %s → %s", from, to)
	}
	m.current = to
	if m.errTimer != nil && to != StatusError {
		m.errTimer.Stop()
		m.errTimer = nil
	}
	m.mu.Unlock()

	metrics.ConnectionTransitions.WithLabelValues(string(to)).Inc()
	m.publish(from, to, detail)
	return nil
}

func (m *Machine) publish(from, to Status, detail string) {
	if m.bus == nil {
		return
	}

	e := events.Event{Transport: m.transport}
	switch to {
	case StatusConnected:
		e.Type = events.TransportConnected
		e.Message = fmt.Sprintf("terhubung via %s", m.transport)
	case StatusDisconnected:
		// The timed error fallback is an internal re-arm, not a drop.
		if from == StatusError || from == StatusConnecting {
			return
		}
		e.Type = events.TransportDisconnected
		e.Severity = events.SeverityWarning
		e.Message = "koneksi terputus"
	case StatusError:
		e.Type = events.TransportError
		e.Severity = events.SeverityWarning
		e.Message = "koneksi gagal"
		if detail != "" {
			e.Message = "koneksi gagal: " + detail
		}
	default:
		return
	}
	m.bus.Publish(e)
}
