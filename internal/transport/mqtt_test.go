package transport

import (
	"sync"
	"testing"
	"time"

	"opsboard/internal/registry"
)

// snapshotRecorder captures handler deliveries for assertion.
type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []registry.Snapshot
}

func (r *snapshotRecorder) handle(snap registry.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, snap)
	r.mu.Unlock()
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *snapshotRecorder) last() registry.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return nil
	}
	return r.snaps[len(r.snaps)-1]
}

func TestMQTTHandlePublishFoldsTopics(t *testing.T) {
	tr := NewMQTTTransport("mqtt://localhost:1883")
	devices := &snapshotRecorder{}
	sensors := &snapshotRecorder{}
	tr.onDevices = devices.handle
	tr.onSensors = sensors.handle

	tr.handlePublish("devices/lampu-teras", []byte(`{"state":true}`))
	tr.handlePublish("devices/ac-kantor", []byte(`{"state":false}`))
	tr.handlePublish("sensors/sensor-gerak-lobi", []byte(`{"state":true,"last_triggered":"2025-09-01T08:30:00Z"}`))

	if devices.count() != 2 {
		t.Fatalf("device deliveries = %d, want 2", devices.count())
	}
	snap := devices.last()
	if !snap["lampu-teras"].State {
		t.Error("lampu-teras should fold in as on")
	}
	if snap["ac-kantor"].State {
		t.Error("ac-kantor should fold in as off")
	}

	if sensors.count() != 1 {
		t.Fatalf("sensor deliveries = %d, want 1", sensors.count())
	}
	rs := sensors.last()["sensor-gerak-lobi"]
	if !rs.State {
		t.Error("sensor should fold in as triggered")
	}
	want := time.Date(2025, time.September, 1, 8, 30, 0, 0, time.UTC)
	if rs.LastTriggered == nil || !rs.LastTriggered.Equal(want) {
		t.Errorf("last_triggered = %v, want %v", rs.LastTriggered, want)
	}
}

// Malformed payloads are logged and skipped without touching the
// snapshot or the subscriber.
func TestMQTTHandlePublishTolerantOfMalformedPayload(t *testing.T) {
	tr := NewMQTTTransport("mqtt://localhost:1883")
	devices := &snapshotRecorder{}
	tr.onDevices = devices.handle

	tr.handlePublish("devices/lampu-teras", []byte(`{"state":true}`))
	tr.handlePublish("devices/lampu-teras", []byte(`{not json`))
	tr.handlePublish("devices/lampu-teras", []byte(``))

	if devices.count() != 1 {
		t.Fatalf("deliveries = %d, want 1 (malformed payloads skipped)", devices.count())
	}
	if !devices.last()["lampu-teras"].State {
		t.Error("state from the valid payload should be preserved")
	}
}

func TestMQTTHandlePublishIgnoresUnrelatedTopics(t *testing.T) {
	tr := NewMQTTTransport("mqtt://localhost:1883")
	devices := &snapshotRecorder{}
	sensors := &snapshotRecorder{}
	tr.onDevices = devices.handle
	tr.onSensors = sensors.handle

	tr.handlePublish("telemetry/uptime", []byte(`{"state":true}`))

	if devices.count() != 0 || sensors.count() != 0 {
		t.Error("unrelated topics must not reach the subscribers")
	}
}

// Delivered snapshots are clones; mutating one must not leak back into
// the transport's internal state.
func TestMQTTHandlePublishDeliversClones(t *testing.T) {
	tr := NewMQTTTransport("mqtt://localhost:1883")
	devices := &snapshotRecorder{}
	tr.onDevices = devices.handle

	tr.handlePublish("devices/lampu-teras", []byte(`{"state":true}`))
	devices.last()["lampu-teras"] = registry.RemoteState{State: false}

	tr.handlePublish("devices/ac-kantor", []byte(`{"state":true}`))
	if !devices.last()["lampu-teras"].State {
		t.Error("mutating a delivered snapshot leaked into internal state")
	}
}
