package notify

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"opsboard/internal/events"
)

// mockSender records calls for assertion.
type mockSender struct {
	mu       sync.Mutex
	calls    []string
	failNext bool
}

func (m *mockSender) Send(url, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, message)
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("mock send error")
	}
	return nil
}

func (m *mockSender) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockSender) lastCall() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

func setupDispatcherTest(urls []string) (*events.Bus, *mockSender, *Dispatcher) {
	bus := events.NewBus()
	sender := &mockSender{}
	d := NewDispatcher(urls, bus, sender)
	return bus, sender, d
}

func TestDispatcherSendsOnWarning(t *testing.T) {
	bus, sender, d := setupDispatcherTest([]string{"generic://example.com"})

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{
		Type:      events.TransportDisconnected,
		Severity:  events.SeverityWarning,
		Transport: "mqtt",
		Message:   "Koneksi terputus.",
	})

	// Give the async goroutine time to process
	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 1 {
		t.Errorf("expected 1 send, got %d", sender.callCount())
	}
}

func TestDispatcherSkipsInfo(t *testing.T) {
	bus, sender, d := setupDispatcherTest([]string{"generic://example.com"})

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{
		Type:     events.DeviceToggled,
		Severity: events.SeverityInfo,
		DeviceID: "lampu-ruang-tamu",
		Message:  "Lampu Ruang Tamu dinyalakan",
	})

	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 0 {
		t.Errorf("expected 0 sends for info, got %d", sender.callCount())
	}
}

func TestDispatcherFansOutToAllURLs(t *testing.T) {
	bus, sender, d := setupDispatcherTest([]string{
		"generic://one.example.com",
		"generic://two.example.com",
	})

	d.Start()
	defer d.Stop()

	bus.Publish(events.Event{
		Type:     events.TransportError,
		Severity: events.SeverityCritical,
		Message:  "Gagal mengubah status perangkat.",
	})

	time.Sleep(100 * time.Millisecond)

	if sender.callCount() != 2 {
		t.Errorf("expected 2 sends (one per URL), got %d", sender.callCount())
	}
}

func TestDispatcherEnforcesCooldown(t *testing.T) {
	_, sender, d := setupDispatcherTest([]string{"generic://example.com"})

	e := events.Event{
		Type:     events.TransportError,
		Severity: events.SeverityCritical,
		Message:  "Gagal mengubah status perangkat.",
	}

	d.handle(e)
	d.handle(e)

	if sender.callCount() != 1 {
		t.Errorf("expected second send within cooldown to be suppressed, got %d", sender.callCount())
	}

	// A different event type has its own cooldown slot.
	d.handle(events.Event{
		Type:     events.TransportDisconnected,
		Severity: events.SeverityWarning,
		Message:  "Koneksi terputus.",
	})

	if sender.callCount() != 2 {
		t.Errorf("expected a different event type to dispatch, got %d sends", sender.callCount())
	}
}

func TestDispatcherInertWithoutURLs(t *testing.T) {
	_, sender, d := setupDispatcherTest(nil)

	d.handle(events.Event{
		Type:     events.TransportError,
		Severity: events.SeverityCritical,
		Message:  "Gagal mengubah status perangkat.",
	})

	if sender.callCount() != 0 {
		t.Errorf("expected no sends without target URLs, got %d", sender.callCount())
	}
}

func TestDispatcherIncludesDeviceInMessage(t *testing.T) {
	_, sender, d := setupDispatcherTest([]string{"generic://example.com"})

	d.handle(events.Event{
		Type:     events.SensorTriggered,
		Severity: events.SeverityWarning,
		DeviceID: "sensor-asap-workshop",
		Message:  "Sensor Asap Workshop aktif",
	})

	want := "[warning] [sensor-asap-workshop] Sensor Asap Workshop aktif"
	if got := sender.lastCall(); got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestDispatcherDrainsOnStop(t *testing.T) {
	bus, sender, d := setupDispatcherTest([]string{"generic://example.com"})

	d.Start()
	bus.Publish(events.Event{
		Type:     events.TransportError,
		Severity: events.SeverityCritical,
		Message:  "Gagal mengubah status perangkat.",
	})
	d.Stop()

	if sender.callCount() != 1 {
		t.Errorf("expected queued event to be handled before stop, got %d sends", sender.callCount())
	}
}
