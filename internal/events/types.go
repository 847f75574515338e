package events

import "time"

// EventType identifies the kind of event being published.
type EventType string

const (
	// Device-control events
	DeviceStateChanged EventType = "device_state_changed"
	DeviceToggled      EventType = "device_toggled"
	SensorTriggered    EventType = "sensor_triggered"

	// Transport events
	TransportConnected    EventType = "transport_connected"
	TransportDisconnected EventType = "transport_disconnected"
	TransportError        EventType = "transport_error"

	// Auth events
	LoginSucceeded EventType = "login_succeeded"
	LoginRejected  EventType = "login_rejected"
)

// Severity indicates the urgency of an event.
type Severity int

const (
	SeverityInfo     Severity = 0
	SeverityWarning  Severity = 1
	SeverityCritical Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Event is the payload published through the bus.
type Event struct {
	Type      EventType         `json:"type"`
	Severity  Severity          `json:"severity"`
	DeviceID  string            `json:"device_id,omitempty"`
	Transport string            `json:"transport,omitempty"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
